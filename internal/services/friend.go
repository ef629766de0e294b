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

var (
	ErrCannotFollowSelf = errors.New("cannot follow yourself")
	ErrAlreadyFollowing = errors.New("follow relationship already exists")
	ErrRequestNotFound  = errors.New("follow request not found")
	ErrAlreadyApproved  = errors.New("follower already approved")
	ErrNoPendingRequest = errors.New("no pending request from this user")
	ErrNotFollowing     = errors.New("not an approved follower of this user")
)

// IdentityResolver maps a nickname to the stable user identifier. Edges
// are keyed by identifier, so every operation resolves before touching
// the friendships table.
type IdentityResolver interface {
	ResolveNickname(ctx context.Context, nickname string) (uuid.UUID, error)
}

// FriendServiceInterface is the relationship surface consumed by handlers.
type FriendServiceInterface interface {
	Follow(ctx context.Context, actorID uuid.UUID, targetNickname string) error
	Approve(ctx context.Context, actorID uuid.UUID, requesterNickname string) error
	Reject(ctx context.Context, actorID uuid.UUID, requesterNickname string) error
	Unfollow(ctx context.Context, actorID uuid.UUID, targetNickname string) error
	ListRequests(ctx context.Context, actorID uuid.UUID) ([]models.FollowRequest, error)
}

// FriendService owns the follow-edge state machine:
//
//	(no edge) --follow--> pending --approve--> approved --unfollow--> (no edge)
//	                      pending --reject--> (no edge)
//
// Every transition is a single conditional statement so concurrent calls
// for the same edge cannot both succeed; the uniqueness constraint on
// (follower_id, followed_id) backstops races past the application check.
type FriendService struct {
	db                  DB
	resolver            IdentityResolver
	notificationService NotificationServiceInterface
}

func NewFriendService(db DB, resolver IdentityResolver) *FriendService {
	return &FriendService{db: db, resolver: resolver}
}

func (s *FriendService) SetNotificationService(notificationService NotificationServiceInterface) {
	s.notificationService = notificationService
}

// Follow inserts a pending edge actor->target. It fails if the actor and
// target are the same user or if any edge for the pair already exists.
func (s *FriendService) Follow(ctx context.Context, actorID uuid.UUID, targetNickname string) error {
	targetID, err := s.resolver.ResolveNickname(ctx, targetNickname)
	if err != nil {
		return err
	}
	if actorID == targetID {
		return ErrCannotFollowSelf
	}

	result, err := s.db.Exec(ctx,
		`INSERT INTO friendships (follower_id, followed_id)
		 VALUES ($1, $2)
		 ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		actorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("insert follow edge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyFollowing
	}

	s.notify(ctx, targetID, actorID, models.NotificationTypeFollowRequestReceived)
	return nil
}

// Approve flips the pending edge requester->actor to approved. Only the
// followed party may approve, and only once.
func (s *FriendService) Approve(ctx context.Context, actorID uuid.UUID, requesterNickname string) error {
	requesterID, err := s.resolver.ResolveNickname(ctx, requesterNickname)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`UPDATE friendships
		 SET is_approved = TRUE
		 WHERE follower_id = $1 AND followed_id = $2 AND NOT is_approved`,
		requesterID, actorID,
	)
	if err != nil {
		return fmt.Errorf("approve follow edge: %w", err)
	}
	if result.RowsAffected() == 0 {
		// The conditional update lost: the edge is either gone or was
		// approved by a concurrent call. Distinguish for the caller.
		var approved bool
		err := s.db.QueryRow(ctx,
			`SELECT is_approved FROM friendships WHERE follower_id = $1 AND followed_id = $2`,
			requesterID, actorID,
		).Scan(&approved)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("check follow edge state: %w", err)
		}
		return ErrAlreadyApproved
	}

	s.notify(ctx, requesterID, actorID, models.NotificationTypeFollowRequestApproved)
	return nil
}

// Reject deletes a pending edge requester->actor. Once the edge is
// approved it is no longer the followed party's to remove.
func (s *FriendService) Reject(ctx context.Context, actorID uuid.UUID, requesterNickname string) error {
	requesterID, err := s.resolver.ResolveNickname(ctx, requesterNickname)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM friendships
		 WHERE follower_id = $1 AND followed_id = $2 AND NOT is_approved`,
		requesterID, actorID,
	)
	if err != nil {
		return fmt.Errorf("reject follow edge: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoPendingRequest
	}
	return nil
}

// Unfollow deletes the approved edge actor->target. Pending requests are
// cancelled by the followed party via Reject, not here.
func (s *FriendService) Unfollow(ctx context.Context, actorID uuid.UUID, targetNickname string) error {
	targetID, err := s.resolver.ResolveNickname(ctx, targetNickname)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx,
		`DELETE FROM friendships
		 WHERE follower_id = $1 AND followed_id = $2 AND is_approved`,
		actorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFollowing
	}
	return nil
}

// ListRequests returns pending edges where the actor is the followed
// party, joined with each requester's public identity, insertion order.
func (s *FriendService) ListRequests(ctx context.Context, actorID uuid.UUID) ([]models.FollowRequest, error) {
	rows, err := s.db.Query(ctx,
		`SELECT f.follower_id, u.nickname, u.name, u.picture, f.created_at
		 FROM friendships f
		 JOIN users u ON u.id = f.follower_id
		 WHERE f.followed_id = $1 AND NOT f.is_approved
		 ORDER BY f.created_at, f.follower_id`,
		actorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list follow requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FollowRequest
	for rows.Next() {
		var req models.FollowRequest
		if err := rows.Scan(&req.FollowerID, &req.Nickname, &req.Name, &req.Picture, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan follow request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow requests: %w", err)
	}
	if requests == nil {
		requests = []models.FollowRequest{}
	}
	return requests, nil
}

// Status reports whether any edge follower->followed exists and whether
// it is approved. Read-only; safe to race with transitions.
func (s *FriendService) Status(ctx context.Context, followerID, followedID uuid.UUID) (requested, approved bool, err error) {
	scanErr := s.db.QueryRow(ctx,
		`SELECT is_approved FROM friendships WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID,
	).Scan(&approved)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return false, false, nil
	}
	if scanErr != nil {
		return false, false, fmt.Errorf("check follow status: %w", scanErr)
	}
	return true, approved, nil
}

// notify records an in-app notification; the edge transition has already
// committed, so delivery problems are logged and swallowed.
func (s *FriendService) notify(ctx context.Context, recipientID, actorID uuid.UUID, ntype models.NotificationType) {
	if s.notificationService == nil {
		return
	}
	if err := s.notificationService.Notify(ctx, recipientID, actorID, ntype); err != nil {
		logging.Error("Failed to send follow notification", map[string]interface{}{
			"error":        err.Error(),
			"recipient_id": recipientID.String(),
			"actor_id":     actorID.String(),
			"type":         string(ntype),
		})
	}
}
