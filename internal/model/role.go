package model

import (
	"errors"
	"strings"
)

// Role is the single authorization attribute of a profile.  It is a
// closed set: only RoleUser and RoleAdmin exist, and any other value
// is rejected by ParseRole so that switches over Role stay exhaustive.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ErrUnknownRole is returned when a string does not name a known role.
var ErrUnknownRole = errors.New("unknown role")

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrUnknownRole
}

// IsAdmin reports whether the role grants back-office access.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleUser || r == RoleAdmin }

// UnmarshalText lets JSON decoding reject unknown roles.
func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
