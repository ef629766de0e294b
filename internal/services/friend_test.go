package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sharebook-app/sharebook/internal/models"
)

type fakeResolver struct {
	ids map[string]uuid.UUID
}

func (f *fakeResolver) ResolveNickname(ctx context.Context, nickname string) (uuid.UUID, error) {
	id, ok := f.ids[nickname]
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}
	return id, nil
}

type fakeNotifier struct {
	notifications []struct {
		recipientID uuid.UUID
		actorID     uuid.UUID
		ntype       models.NotificationType
	}
	err error
}

func (f *fakeNotifier) Notify(ctx context.Context, recipientID, actorID uuid.UUID, ntype models.NotificationType) error {
	f.notifications = append(f.notifications, struct {
		recipientID uuid.UUID
		actorID     uuid.UUID
		ntype       models.NotificationType
	}{recipientID, actorID, ntype})
	return f.err
}

func (f *fakeNotifier) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]models.Notification, error) {
	return nil, nil
}

func (f *fakeNotifier) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (f *fakeNotifier) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func TestFriendService_Follow_Self(t *testing.T) {
	actorID := uuid.New()
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"me": actorID}}
	svc := NewFriendService(&fakeDB{}, resolver)

	if err := svc.Follow(context.Background(), actorID, "me"); !errors.Is(err, ErrCannotFollowSelf) {
		t.Fatalf("expected ErrCannotFollowSelf, got %v", err)
	}
}

func TestFriendService_Follow_UnknownTarget(t *testing.T) {
	resolver := &fakeResolver{ids: map[string]uuid.UUID{}}
	svc := NewFriendService(&fakeDB{}, resolver)

	if err := svc.Follow(context.Background(), uuid.New(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestFriendService_Follow_CreatesPendingEdge(t *testing.T) {
	actorID := uuid.New()
	targetID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "INSERT INTO friendships") || !strings.Contains(sql, "ON CONFLICT") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			if args[0] != actorID || args[1] != targetID {
				t.Fatalf("unexpected args: %v", args)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"bob": targetID}}
	notifier := &fakeNotifier{}
	svc := NewFriendService(db, resolver)
	svc.SetNotificationService(notifier)

	if err := svc.Follow(context.Background(), actorID, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.notifications))
	}
	n := notifier.notifications[0]
	if n.recipientID != targetID || n.actorID != actorID || n.ntype != models.NotificationTypeFollowRequestReceived {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestFriendService_Follow_DuplicateEdge(t *testing.T) {
	targetID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"bob": targetID}}
	notifier := &fakeNotifier{}
	svc := NewFriendService(db, resolver)
	svc.SetNotificationService(notifier)

	if err := svc.Follow(context.Background(), uuid.New(), "bob"); !errors.Is(err, ErrAlreadyFollowing) {
		t.Fatalf("expected ErrAlreadyFollowing, got %v", err)
	}
	if len(notifier.notifications) != 0 {
		t.Fatal("did not expect a notification for a duplicate follow")
	}
}

func TestFriendService_Follow_NotificationFailureDoesNotFail(t *testing.T) {
	targetID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"bob": targetID}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}
	svc := NewFriendService(db, resolver)
	svc.SetNotificationService(notifier)

	if err := svc.Follow(context.Background(), uuid.New(), "bob"); err != nil {
		t.Fatalf("follow should ignore notification errors, got %v", err)
	}
}

func TestFriendService_Approve_PendingEdge(t *testing.T) {
	actorID := uuid.New()
	requesterID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "SET is_approved = TRUE") || !strings.Contains(sql, "NOT is_approved") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			if args[0] != requesterID || args[1] != actorID {
				t.Fatalf("unexpected args: %v", args)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"alice": requesterID}}
	notifier := &fakeNotifier{}
	svc := NewFriendService(db, resolver)
	svc.SetNotificationService(notifier)

	if err := svc.Approve(context.Background(), actorID, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(notifier.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.notifications))
	}
	n := notifier.notifications[0]
	if n.recipientID != requesterID || n.ntype != models.NotificationTypeFollowRequestApproved {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestFriendService_Approve_NoEdge(t *testing.T) {
	requesterID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"alice": requesterID}}
	svc := NewFriendService(db, resolver)

	if err := svc.Approve(context.Background(), uuid.New(), "alice"); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestFriendService_Approve_AlreadyApproved(t *testing.T) {
	requesterID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(true)
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"alice": requesterID}}
	notifier := &fakeNotifier{}
	svc := NewFriendService(db, resolver)
	svc.SetNotificationService(notifier)

	if err := svc.Approve(context.Background(), uuid.New(), "alice"); !errors.Is(err, ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved, got %v", err)
	}
	if len(notifier.notifications) != 0 {
		t.Fatal("did not expect a notification for an idempotent approve")
	}
}

func TestFriendService_Reject_PendingOnly(t *testing.T) {
	actorID := uuid.New()
	requesterID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "DELETE FROM friendships") || !strings.Contains(sql, "NOT is_approved") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			if args[0] != requesterID || args[1] != actorID {
				t.Fatalf("unexpected args: %v", args)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"alice": requesterID}}
	svc := NewFriendService(db, resolver)

	if err := svc.Reject(context.Background(), actorID, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFriendService_Reject_NoPendingEdge(t *testing.T) {
	requesterID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"alice": requesterID}}
	svc := NewFriendService(db, resolver)

	if err := svc.Reject(context.Background(), uuid.New(), "alice"); !errors.Is(err, ErrNoPendingRequest) {
		t.Fatalf("expected ErrNoPendingRequest, got %v", err)
	}
}

func TestFriendService_Unfollow_ApprovedOnly(t *testing.T) {
	actorID := uuid.New()
	targetID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "DELETE FROM friendships") || !strings.Contains(sql, "AND is_approved") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			if args[0] != actorID || args[1] != targetID {
				t.Fatalf("unexpected args: %v", args)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"bob": targetID}}
	svc := NewFriendService(db, resolver)

	if err := svc.Unfollow(context.Background(), actorID, "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFriendService_Unfollow_NotFollowing(t *testing.T) {
	targetID := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}
	resolver := &fakeResolver{ids: map[string]uuid.UUID{"bob": targetID}}
	svc := NewFriendService(db, resolver)

	if err := svc.Unfollow(context.Background(), uuid.New(), "bob"); !errors.Is(err, ErrNotFollowing) {
		t.Fatalf("expected ErrNotFollowing, got %v", err)
	}
}

func TestFriendService_ListRequests(t *testing.T) {
	actorID := uuid.New()
	firstID := uuid.New()
	secondID := uuid.New()
	now := time.Now()
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if !strings.Contains(sql, "NOT f.is_approved") || !strings.Contains(sql, "ORDER BY f.created_at") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			if args[0] != actorID {
				t.Fatalf("unexpected args: %v", args)
			}
			return &fakeRows{rows: [][]any{
				{firstID, "alice", "Alice", "", now.Add(-time.Hour)},
				{secondID, "bob", "Bob", "https://cdn.example.com/bob.png", now},
			}}, nil
		},
	}
	svc := NewFriendService(db, &fakeResolver{})

	requests, err := svc.ListRequests(context.Background(), actorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].FollowerID != firstID || requests[0].Nickname != "alice" {
		t.Fatalf("unexpected first request: %+v", requests[0])
	}
	if requests[1].Picture != "https://cdn.example.com/bob.png" {
		t.Fatalf("unexpected second request: %+v", requests[1])
	}
}

func TestFriendService_ListRequests_Empty(t *testing.T) {
	svc := NewFriendService(&fakeDB{}, &fakeResolver{})

	requests, err := svc.ListRequests(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(requests) != 0 {
		t.Fatalf("expected no requests, got %d", len(requests))
	}
}

func TestFriendService_Status(t *testing.T) {
	followerID := uuid.New()
	followedID := uuid.New()

	t.Run("no edge", func(t *testing.T) {
		db := &fakeDB{
			QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
				return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
			},
		}
		svc := NewFriendService(db, &fakeResolver{})
		requested, approved, err := svc.Status(context.Background(), followerID, followedID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if requested || approved {
			t.Fatalf("expected no edge, got requested=%v approved=%v", requested, approved)
		}
	})

	t.Run("pending edge", func(t *testing.T) {
		db := &fakeDB{
			QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
				return rowFromValues(false)
			},
		}
		svc := NewFriendService(db, &fakeResolver{})
		requested, approved, err := svc.Status(context.Background(), followerID, followedID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !requested || approved {
			t.Fatalf("expected pending edge, got requested=%v approved=%v", requested, approved)
		}
	})

	t.Run("approved edge", func(t *testing.T) {
		db := &fakeDB{
			QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
				return rowFromValues(true)
			},
		}
		svc := NewFriendService(db, &fakeResolver{})
		requested, approved, err := svc.Status(context.Background(), followerID, followedID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !requested || !approved {
			t.Fatalf("expected approved edge, got requested=%v approved=%v", requested, approved)
		}
	})
}
