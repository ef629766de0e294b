package models

import (
	"time"

	"github.com/google/uuid"
)

type PostRole string

const (
	PostRolePublic      PostRole = "PUBLIC"
	PostRolePrivate     PostRole = "PRIVATE"
	PostRoleFriendsOnly PostRole = "FRIENDSONLY"
)

// ToPostRole normalizes an arbitrary role string, defaulting to FRIENDSONLY.
func ToPostRole(value string) PostRole {
	switch PostRole(value) {
	case PostRolePublic:
		return PostRolePublic
	case PostRolePrivate:
		return PostRolePrivate
	default:
		return PostRoleFriendsOnly
	}
}

type Post struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Picture     string    `json:"picture"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Role        PostRole  `json:"role"`
	AuthorID    uuid.UUID `json:"author_id"`
	// AuthorNickname is denormalized; it is rewritten in the same
	// transaction whenever the author renames.
	AuthorNickname string `json:"author_nickname"`
}

type CreatePostParams struct {
	Title          string
	Picture        string
	Description    string
	Role           PostRole
	AuthorID       uuid.UUID
	AuthorNickname string
}

// PostPatch carries the author-editable fields; nil means leave unchanged.
type PostPatch struct {
	Title       *string `json:"title,omitempty"`
	Picture     *string `json:"picture,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (p PostPatch) Empty() bool {
	return p.Title == nil && p.Picture == nil && p.Description == nil
}

// FeedItem is a post joined with its author's identity resolved at read
// time from the users table, not the denormalized nickname copy.
type FeedItem struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Picture     string         `json:"picture"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	Role        PostRole       `json:"role"`
	Author      PublicIdentity `json:"author"`
}
