package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sharebook-app/sharebook/internal/models"
)

// Profile is what a viewer sees of another account. Without an approved
// relationship only the basic identity fields are visible and
// IsRequested reports whether a request is in flight; with one, the
// target's posts are included and IsFollowing is true.
type Profile struct {
	IsFollowing bool                `json:"is_following"`
	IsRequested bool                `json:"is_requested"`
	User        models.BasicProfile `json:"user"`
	Posts       []models.Post       `json:"posts,omitempty"`
}

type profileUserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByNickname(ctx context.Context, nickname string) (*models.User, error)
}

type profileRelationshipSource interface {
	Status(ctx context.Context, followerID, followedID uuid.UUID) (requested, approved bool, err error)
}

type profilePostSource interface {
	ListByAuthor(ctx context.Context, authorID uuid.UUID) ([]models.Post, error)
}

// ProfileService decides what profile data a viewer may see. It is a
// pure read path composed over the user, relationship and post
// services; it never mutates and holds no state between calls.
type ProfileService struct {
	users   profileUserSource
	friends profileRelationshipSource
	posts   profilePostSource
}

func NewProfileService(users profileUserSource, friends profileRelationshipSource, posts profilePostSource) *ProfileService {
	return &ProfileService{users: users, friends: friends, posts: posts}
}

// ResolveProfile resolves the target by nickname and applies the
// visibility rule for the viewer.
func (s *ProfileService) ResolveProfile(ctx context.Context, viewerID uuid.UUID, targetNickname string) (*Profile, error) {
	target, err := s.users.GetByNickname(ctx, targetNickname)
	if err != nil {
		return nil, err
	}

	requested, approved, err := s.friends.Status(ctx, viewerID, target.ID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		IsRequested: requested,
		User: models.BasicProfile{
			Nickname: target.Nickname,
			Name:     target.Name,
			Picture:  target.Picture,
			Bio:      target.Bio,
		},
	}
	if !approved {
		return profile, nil
	}

	posts, err := s.posts.ListByAuthor(ctx, target.ID)
	if err != nil {
		return nil, fmt.Errorf("loading profile posts: %w", err)
	}
	profile.IsFollowing = true
	profile.Posts = posts
	return profile, nil
}

// GetOwnProfile returns the authenticated user's account view with
// their own posts, newest first.
func (s *ProfileService) GetOwnProfile(ctx context.Context, userID uuid.UUID) (*models.OwnProfile, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	posts, err := s.posts.ListByAuthor(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading own posts: %w", err)
	}
	return &models.OwnProfile{
		Email:    user.Email,
		Nickname: user.Nickname,
		Name:     user.Name,
		Picture:  user.Picture,
		Bio:      user.Bio,
		Posts:    posts,
	}, nil
}
