package models

import "time"

type Role string

const (
	RoleNone   Role = ""
	RoleUser   Role = "User"
	RoleMakler Role = "Makler"
	RoleAdmin  Role = "Admin"
)

// Identity is what the client knows about the signed-in user.
type Identity struct {
	Token    string
	UserID   string
	Role     Role
	UserName string
	Email    string
	Phone    string

	// ExpiresAt is the token's exp claim, zero when it has none.
	ExpiresAt time.Time
}

func (i Identity) LoggedIn() bool {
	return i.Token != ""
}

// Expired reports whether the token's exp claim has passed at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !i.ExpiresAt.After(now)
}
