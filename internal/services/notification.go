package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sharebook-app/sharebook/internal/logging"
	"github.com/sharebook-app/sharebook/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationServiceInterface is the notification surface consumed by
// handlers and by the relationship engine.
type NotificationServiceInterface interface {
	Notify(ctx context.Context, recipientID, actorID uuid.UUID, ntype models.NotificationType) error
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type NotificationService struct {
	db      DBConn
	email   EmailSender
	baseURL string
}

func NewNotificationService(db DBConn, email EmailSender, baseURL string) *NotificationService {
	return &NotificationService{db: db, email: email, baseURL: baseURL}
}

// Notify records an in-app notification for the recipient and attempts
// email delivery. The actor's nickname is resolved at write time so the
// stored notification names who acted, even if they later rename.
func (s *NotificationService) Notify(ctx context.Context, recipientID, actorID uuid.UUID, ntype models.NotificationType) error {
	var actorNickname string
	err := s.db.QueryRow(ctx, `SELECT nickname FROM users WHERE id = $1`, actorID).Scan(&actorNickname)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("resolving notification actor: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO notifications (user_id, type, actor_id, actor_nickname)
		 VALUES ($1, $2, $3, $4)`,
		recipientID, ntype, actorID, actorNickname,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	s.sendEmail(ctx, recipientID, actorNickname, ntype)
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	query := `SELECT id, user_id, type, actor_id, actor_nickname, read_at, created_at
	          FROM notifications
	          WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	rows, err := s.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.ActorID, &n.ActorNickname, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE id = $1 AND user_id = $2 AND read_at IS NULL`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.Exec(ctx,
		`UPDATE notifications SET read_at = NOW() WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// CleanupOld drops notifications older than 90 days.
func (s *NotificationService) CleanupOld(ctx context.Context) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM notifications WHERE created_at < NOW() - INTERVAL '90 days'`,
	); err != nil {
		return fmt.Errorf("cleanup notifications: %w", err)
	}
	return nil
}

// sendEmail delivers best-effort; the notification row is already
// committed, so failures are logged and swallowed.
func (s *NotificationService) sendEmail(ctx context.Context, recipientID uuid.UUID, actorNickname string, ntype models.NotificationType) {
	if s.email == nil {
		return
	}

	var to string
	if err := s.db.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, recipientID).Scan(&to); err != nil {
		logging.Warn("Failed to resolve notification recipient email", map[string]interface{}{
			"error":        err.Error(),
			"recipient_id": recipientID.String(),
		})
		return
	}

	subject, html, text := buildFollowEmail(ntype, actorNickname, s.baseURL)
	if subject == "" {
		return
	}
	if err := s.email.Send(ctx, to, subject, html, text); err != nil {
		logging.Warn("Failed to send notification email", map[string]interface{}{
			"error":        err.Error(),
			"recipient_id": recipientID.String(),
			"type":         string(ntype),
		})
	}
}
