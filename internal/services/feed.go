package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sharebook-app/sharebook/internal/models"
)

// FeedPageSize is the fixed page size for the relationship-scoped feed.
const FeedPageSize = 5

// FeedService assembles a viewer's feed: every post authored by a user
// the viewer follows with an approved edge, regardless of the post's
// own role. Posts from pending or absent relationships never appear,
// PUBLIC or not.
type FeedService struct {
	db DBConn
}

func NewFeedService(db DBConn) *FeedService {
	return &FeedService{db: db}
}

// GetFeed returns the viewer's feed page, newest first. Page numbering
// is 1-based; the author identity on each item comes from the users row
// at read time, not the denormalized nickname copy.
func (s *FeedService) GetFeed(ctx context.Context, viewerID uuid.UUID, page int) ([]models.FeedItem, error) {
	offset := FeedPageSize * (page - 1)
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.title, p.picture, p.description, p.created_at, p.role,
		        u.nickname, u.name, u.picture
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 JOIN friendships f ON f.followed_id = p.author_id
		 WHERE f.follower_id = $1 AND f.is_approved
		 ORDER BY p.created_at DESC
		 LIMIT $2 OFFSET $3`,
		viewerID, FeedPageSize, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("assembling feed: %w", err)
	}
	return scanFeedItems(rows)
}
