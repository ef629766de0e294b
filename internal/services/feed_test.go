package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sharebook-app/sharebook/internal/models"
)

func TestFeedService_GetFeed(t *testing.T) {
	viewerID := uuid.New()
	now := time.Now()
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if !strings.Contains(sql, "f.is_approved") {
				t.Fatalf("feed must filter on approved edges, sql: %q", sql)
			}
			if !strings.Contains(sql, "ORDER BY p.created_at DESC") {
				t.Fatalf("feed must be newest first, sql: %q", sql)
			}
			if args[0] != viewerID || args[1] != FeedPageSize || args[2] != 0 {
				t.Fatalf("unexpected args for page 1: %v", args)
			}
			return &fakeRows{rows: [][]any{
				{uuid.New(), "Private musings", "", "", now, "PRIVATE", "bob", "Bob", ""},
				{uuid.New(), "Public note", "", "", now.Add(-time.Minute), "PUBLIC", "carol", "Carol", "https://cdn.example.com/c.png"},
			}}, nil
		},
	}
	svc := NewFeedService(db)

	items, err := svc.GetFeed(context.Background(), viewerID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	// Post role does not gate feed inclusion; visibility was settled at
	// approval time.
	if items[0].Role != models.PostRolePrivate {
		t.Fatalf("expected private post in feed, got %+v", items[0])
	}
	if items[1].Author.Nickname != "carol" {
		t.Fatalf("unexpected author: %+v", items[1].Author)
	}
}

func TestFeedService_GetFeed_SecondPageOffset(t *testing.T) {
	viewerID := uuid.New()
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			if args[1] != FeedPageSize || args[2] != FeedPageSize {
				t.Fatalf("unexpected args for page 2: %v", args)
			}
			return &fakeRows{}, nil
		},
	}
	svc := NewFeedService(db)

	items, err := svc.GetFeed(context.Background(), viewerID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}
