package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeFollowRequestReceived NotificationType = "follow_request_received"
	NotificationTypeFollowRequestApproved NotificationType = "follow_request_approved"
)

type Notification struct {
	ID            uuid.UUID        `json:"id"`
	UserID        uuid.UUID        `json:"user_id"`
	Type          NotificationType `json:"type"`
	ActorID       uuid.UUID        `json:"actor_id"`
	ActorNickname string           `json:"actor_nickname"`
	ReadAt        *time.Time       `json:"read_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
