package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization role carried by a person and embedded in
// issued access tokens.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleUser || r == RoleManager }

// Person represents a row in the `persons` table.  A person owns
// reservations and authenticates against the API with email and password.
//
// Fields:
//
//	ID           – primary key (UUID).
//	FullName     – display name.
//	Username     – login handle, unique.
//	Email        – unique, normalized to lower case.
//	PasswordHash – bcrypt hash; never serialized.
//	Role         – USER or MANAGER.
type Person struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Equal compares the persisted identity and attributes of two persons.
// Timestamps are ignored.
func (p Person) Equal(o Person) bool {
	return p.ID == o.ID &&
		p.FullName == o.FullName &&
		p.Username == o.Username &&
		p.Email == o.Email &&
		p.PasswordHash == o.PasswordHash &&
		p.Role == o.Role
}
