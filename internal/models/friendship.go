package models

import (
	"time"

	"github.com/google/uuid"
)

// Friendship is a directed follow edge. Exactly one row may exist per
// (follower, followed) pair; IsApproved false means the request is pending.
type Friendship struct {
	FollowerID uuid.UUID `json:"follower_id"`
	FollowedID uuid.UUID `json:"followed_id"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowRequest is a pending edge joined with the requester's public
// identity for display in the followed party's request list.
type FollowRequest struct {
	FollowerID uuid.UUID `json:"follower_id"`
	Nickname   string    `json:"nickname"`
	Name       string    `json:"name"`
	Picture    string    `json:"picture"`
	CreatedAt  time.Time `json:"created_at"`
}
