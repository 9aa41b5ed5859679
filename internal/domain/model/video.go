package model

import (
	"errors"
	"path"
	"regexp"
	"strings"
	"time"
)

// Well-known keys of the JSON tables kept in the bucket.
const (
	UsersTableKey   = "users.json"
	CoachesTableKey = "coaches.json"
	PricingTableKey = "pricing-plans.json"
	AuditLogKey     = "logs.json"
)

const (
	jsonSuffix  = ".json"
	notesSuffix = ".notes.json"

	// CoachImagePrefix namespaces coach profile images. Objects under it are
	// never listed as videos.
	CoachImagePrefix = "coaches/"

	maxKeyLength = 1024
)

var (
	ErrEmptyKey         = errors.New("object key cannot be empty")
	ErrReservedKey      = errors.New("object key is reserved")
	ErrKeyTooLong       = errors.New("object key exceeds maximum length of 1024 bytes")
	ErrEmptyFileName    = errors.New("file name has no usable characters")
	ErrEmptyContentType = errors.New("content type cannot be empty")
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// VideoObject is a listed video together with its derived attributes.
type VideoObject struct {
	Key          string
	Size         int64
	LastModified time.Time
	URL          string
	HasNotes     bool
}

// NotesKey returns the key of the notes sibling of a video.
func NotesKey(videoKey string) string {
	return videoKey + notesSuffix
}

// IsVideoKey reports whether key names a video rather than a JSON record or
// a coach profile image.
func IsVideoKey(key string) bool {
	if key == "" || strings.HasSuffix(key, "/") {
		return false
	}
	if strings.HasSuffix(key, jsonSuffix) {
		return false
	}
	return !strings.HasPrefix(key, CoachImagePrefix)
}

// ValidateVideoKey checks a caller supplied video key.
func ValidateVideoKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if len(key) > maxKeyLength {
		return ErrKeyTooLong
	}
	if !IsVideoKey(key) {
		return ErrReservedKey
	}
	return nil
}

// SanitizeFileName strips every character outside [A-Za-z0-9._-].
// Separators are stripped too, so the result never spans a key prefix.
func SanitizeFileName(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "")
}

// Extension returns the sanitized, lower-cased extension of name without
// the dot, or "" when there is none.
func Extension(name string) string {
	ext := strings.TrimPrefix(path.Ext(SanitizeFileName(name)), ".")
	return strings.ToLower(ext)
}
