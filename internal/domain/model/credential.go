package model

import (
	"errors"
	"slices"
	"strings"
	"time"
)

// Role names recognized by authorization. Any other role string is stored
// and returned verbatim but grants nothing.
const (
	RoleCoach     = "Coach"
	RoleHeadCoach = "Head Coach"
	RoleFounders  = "Founders"
)

var (
	coachRoles = []string{RoleCoach, RoleHeadCoach}
	adminRoles = []string{RoleFounders}
)

var (
	ErrEmptyUsername = errors.New("username cannot be empty")
	ErrEmptyPassword = errors.New("password cannot be empty")
	ErrInvalidRole   = errors.New("role cannot be empty")
)

const maxUsernameLength = 64

// Credential is one entry of the users table.
type Credential struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsCoach reports whether any role is coach-equivalent.
func (c Credential) IsCoach() bool {
	return HasCoachRole(c.Roles)
}

// IsAdmin reports whether any role is admin-equivalent.
func (c Credential) IsAdmin() bool {
	return HasAdminRole(c.Roles)
}

// HasCoachRole reports whether roles contains a coach-equivalent role.
func HasCoachRole(roles []string) bool {
	return containsAny(roles, coachRoles)
}

// HasAdminRole reports whether roles contains an admin-equivalent role.
func HasAdminRole(roles []string) bool {
	return containsAny(roles, adminRoles)
}

func containsAny(roles, wanted []string) bool {
	for _, r := range roles {
		if slices.Contains(wanted, r) {
			return true
		}
	}
	return false
}

// NormalizeRoles trims role names and drops empties and duplicates while
// keeping the caller's order.
func NormalizeRoles(roles []string) ([]string, error) {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			return nil, ErrInvalidRole
		}
		if !slices.Contains(out, r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ValidateUsername checks the username used as the table key.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	if len(username) > maxUsernameLength {
		return errors.New("username exceeds maximum length of 64 characters")
	}
	return nil
}

// CountAdmins returns the number of admin-equivalent credentials.
func CountAdmins(creds []Credential) int {
	n := 0
	for _, c := range creds {
		if c.IsAdmin() {
			n++
		}
	}
	return n
}

// FindCredential returns the index of username in creds, or -1.
func FindCredential(creds []Credential, username string) int {
	return slices.IndexFunc(creds, func(c Credential) bool {
		return c.Username == username
	})
}
