// Package domain contains core domain types for the fieldops application.
package domain

import (
	"time"
)

// Known role names. Roles are free-form records in the store; these two
// are the ones the application routes on.
const (
	RoleManager    = "manager"
	RoleTechnicien = "technicien"
)

// User represents an application user with their assigned role names.
type User struct {
	ID           int64     `json:"id"`
	Identifiant  string    `json:"identifiant"`
	Nom          string    `json:"nom"`
	Prenom       string    `json:"prenom"`
	Email        string    `json:"email"`
	Image        string    `json:"image,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles,omitempty"`
	CreatedAt    time.Time `json:"date_creation"`
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.Prenom + " " + u.Nom
}

// HasRole returns true if the user carries the named role.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// Snapshot returns the denormalized sender view of the user that is
// embedded in every message.
func (u *User) Snapshot() Sender {
	return Sender{
		ID:     u.ID,
		Nom:    u.Nom,
		Prenom: u.Prenom,
		Image:  u.Image,
	}
}

// Role is a named permission bucket. Membership alone gates access.
type Role struct {
	ID  int64  `json:"id"`
	Nom string `json:"nom"`
}
