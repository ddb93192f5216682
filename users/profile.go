// Package users models the profile blob carried alongside the token during
// session handoff.
package users

import (
	"encoding/json"
	"fmt"
)

// RoleAdmin is the only role admitted to the back-office. The comparison is
// case-sensitive.
const RoleAdmin = "ADMIN"

// Profile is the user blob persisted next to the token. The wire shape is
// JSON with at least an id and a role; extra fields are ignored.
type Profile struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}

// ParseProfile decodes the stored user JSON.
func ParseProfile(raw string) (Profile, error) {
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Profile{}, fmt.Errorf("parse user profile: %w", err)
	}
	return p, nil
}

// IsAdmin reports whether the profile carries the back-office role.
func (p Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}
