package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/sharebook-app/sharebook/internal/models"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrNoPostChanges = errors.New("no post fields to update")
)

// GlobalPageSize is the fixed page size for the global post listing.
const GlobalPageSize = 5

const postColumns = "id, title, picture, description, created_at, role, author_id, author_nickname"

type PostService struct {
	db DBConn
}

func NewPostService(db DBConn) *PostService {
	return &PostService{db: db}
}

func (s *PostService) Create(ctx context.Context, params models.CreatePostParams) (*models.Post, error) {
	post := &models.Post{}
	err := s.db.QueryRow(ctx,
		`INSERT INTO posts (title, picture, description, role, author_id, author_nickname)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+postColumns,
		params.Title, params.Picture, params.Description, params.Role, params.AuthorID, params.AuthorNickname,
	).Scan(&post.ID, &post.Title, &post.Picture, &post.Description, &post.CreatedAt, &post.Role, &post.AuthorID, &post.AuthorNickname)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return post, nil
}

// Edit patches a post the actor authored; at least one field must be set.
// A non-matching id/author pair reads as not found, the same answer a
// stranger gets for a post that does not exist.
func (s *PostService) Edit(ctx context.Context, authorID, postID uuid.UUID, patch models.PostPatch) error {
	if patch.Empty() {
		return ErrNoPostChanges
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 5)
	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	appendSet("title", patch.Title)
	appendSet("picture", patch.Picture)
	appendSet("description", patch.Description)

	args = append(args, postID, authorID)
	query := fmt.Sprintf(
		"UPDATE posts SET %s WHERE id = $%d AND author_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args),
	)

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("editing post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (s *PostService) Delete(ctx context.Context, authorID, postID uuid.UUID) error {
	result, err := s.db.Exec(ctx,
		`DELETE FROM posts WHERE id = $1 AND author_id = $2`,
		postID, authorID,
	)
	if err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ListByAuthor returns a user's posts, newest first.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+postColumns+" FROM posts WHERE author_id = $1 ORDER BY created_at DESC",
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing posts by author: %w", err)
	}
	return scanPosts(rows)
}

// ListByNickname is the direct profile-browsing path; it carries no
// relationship check.
func (s *PostService) ListByNickname(ctx context.Context, nickname string) ([]models.Post, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+postColumns+" FROM posts WHERE author_nickname = $1 ORDER BY created_at DESC",
		nickname,
	)
	if err != nil {
		return nil, fmt.Errorf("listing posts by nickname: %w", err)
	}
	return scanPosts(rows)
}

// ListAll returns the global paginated post listing with each author's
// identity joined at read time. Page numbering is 1-based.
func (s *PostService) ListAll(ctx context.Context, page int) ([]models.FeedItem, error) {
	offset := GlobalPageSize * (page - 1)
	rows, err := s.db.Query(ctx,
		`SELECT p.id, p.title, p.picture, p.description, p.created_at, p.role,
		        u.nickname, u.name, u.picture
		 FROM posts p
		 JOIN users u ON u.id = p.author_id
		 ORDER BY p.created_at DESC
		 LIMIT $1 OFFSET $2`,
		GlobalPageSize, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing all posts: %w", err)
	}
	return scanFeedItems(rows)
}

func scanPosts(rows Rows) ([]models.Post, error) {
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.Picture, &post.Description, &post.CreatedAt, &post.Role, &post.AuthorID, &post.AuthorNickname); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return posts, nil
}

func scanFeedItems(rows Rows) ([]models.FeedItem, error) {
	defer rows.Close()

	var items []models.FeedItem
	for rows.Next() {
		var item models.FeedItem
		if err := rows.Scan(&item.ID, &item.Title, &item.Picture, &item.Description, &item.CreatedAt, &item.Role,
			&item.Author.Nickname, &item.Author.Name, &item.Author.Picture); err != nil {
			return nil, fmt.Errorf("scan feed item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feed items: %w", err)
	}
	if items == nil {
		items = []models.FeedItem{}
	}
	return items, nil
}
