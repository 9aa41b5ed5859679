package model

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultAvatarColor is used when a coach is created without a color.
const DefaultAvatarColor = "#4F46E5"

const maxCoachNameLength = 120

var (
	ErrEmptyCoachName   = errors.New("coach name cannot be empty")
	ErrCoachNameTooLong = errors.New("coach name exceeds maximum length of 120 characters")
)

// Coach is one entry of the coaches table.
type Coach struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Skills          []string          `json:"skills"`
	AvatarColor     string            `json:"avatarColor"`
	Initials        string            `json:"initials"`
	ProfileImageKey string            `json:"profileImageKey,omitempty"`
	SocialMedia     map[string]string `json:"socialMedia,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
}

// CoachPatch carries the fields of a coach update. Nil fields are left
// untouched.
type CoachPatch struct {
	Name            *string
	Title           *string
	Description     *string
	Skills          *[]string
	AvatarColor     *string
	Initials        *string
	ProfileImageKey *string
	SocialMedia     *map[string]string
}

// NewCoach builds a coach with a fresh time-ordered id.
func NewCoach(name string, now time.Time) (*Coach, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyCoachName
	}
	if utf8.RuneCountInString(name) > maxCoachNameLength {
		return nil, ErrCoachNameTooLong
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	return &Coach{
		ID:          id.String(),
		Name:        name,
		Skills:      []string{},
		AvatarColor: DefaultAvatarColor,
		Initials:    Initials(name),
		SocialMedia: map[string]string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Apply merges p into c and stamps UpdatedAt. The id and CreatedAt never
// change.
func (c *Coach) Apply(p CoachPatch, now time.Time) error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return ErrEmptyCoachName
		}
		if utf8.RuneCountInString(name) > maxCoachNameLength {
			return ErrCoachNameTooLong
		}
		c.Name = name
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Skills != nil {
		c.Skills = append([]string{}, (*p.Skills)...)
	}
	if p.AvatarColor != nil {
		c.AvatarColor = *p.AvatarColor
	}
	if p.Initials != nil {
		c.Initials = *p.Initials
	}
	if p.ProfileImageKey != nil {
		c.ProfileImageKey = *p.ProfileImageKey
	}
	if p.SocialMedia != nil {
		sm := make(map[string]string, len(*p.SocialMedia))
		for k, v := range *p.SocialMedia {
			sm[k] = v
		}
		c.SocialMedia = sm
	}
	c.UpdatedAt = now
	return nil
}

// Initials returns up to two upper-cased initials from name.
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Fields(name) {
		r, _ := utf8.DecodeRuneInString(word)
		if r == utf8.RuneError {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if utf8.RuneCountInString(b.String()) == 2 {
			break
		}
	}
	return b.String()
}
