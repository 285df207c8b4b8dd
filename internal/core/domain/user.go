package domain

import "time"

type Role string

const (
	RoleParent Role = "parent"
	RoleAdmin  Role = "admin"
	// RoleDoctor exists in the data model and registration flow, but no
	// workflow transition is exposed for it.
	RoleDoctor Role = "doctor"
)

func (r Role) Valid() bool {
	switch r {
	case RoleParent, RoleAdmin, RoleDoctor:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Password  string    `json:"-"`
	Facility  string    `json:"facility,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
