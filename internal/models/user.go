package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleBasic UserRole = "BASIC"
	UserRoleAdmin UserRole = "ADMIN"
)

// ToUserRole normalizes an arbitrary role string, defaulting to BASIC.
func ToUserRole(value string) UserRole {
	if value == string(UserRoleAdmin) {
		return UserRoleAdmin
	}
	return UserRoleBasic
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture"`
	Bio          string    `json:"bio"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CreateUserParams struct {
	Email        string
	PasswordHash string
	Nickname     string
	Name         string
	Picture      string
	Bio          string
	Role         UserRole
}

// PublicIdentity is the subset of a user shown to other users in search
// results, follow requests and feed items.
type PublicIdentity struct {
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
}

// BasicProfile is what a viewer sees without an approved relationship.
type BasicProfile struct {
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Bio      string `json:"bio"`
}

// OwnProfile is the authenticated user's view of their own account.
type OwnProfile struct {
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	Bio      string `json:"bio"`
	Posts    []Post `json:"posts"`
}
