package types

import (
	"time"

	"github.com/google/uuid"
)

// User is the persisted identity record.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Enabled      bool
	CreatedAt    time.Time
	Roles        []string
}

// Role is a named permission label. Roles are seeded by migrations.
type Role struct {
	ID   int64
	Name string
}

// ProfileView is the public projection of a User.
type ProfileView struct {
	ID        uuid.UUID `json:"id" example:"d290f1ee-6c54-4b01-90e6-d701748f0851"`
	Username  string    `json:"username" example:"johndoe"`
	Email     string    `json:"email" example:"john.doe@example.com"`
	FirstName string    `json:"firstName" example:"John"`
	LastName  string    `json:"lastName" example:"Doe"`
	Enabled   bool      `json:"enabled" example:"true"`
	Roles     []string  `json:"roles" example:"ROLE_USER"`
	CreatedAt time.Time `json:"createdAt"`
}

// Profile maps a User to its public view. The password hash is never copied.
func (u *User) Profile() *ProfileView {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return &ProfileView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Enabled:   u.Enabled,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
	}
}
