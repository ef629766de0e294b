package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sharebook-app/sharebook/internal/models"
)

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrNicknameAlreadyExists = errors.New("nickname already taken")
	ErrNoProfileChanges      = errors.New("no profile fields to update")
)

const userColumns = "id, email, password_hash, nickname, name, picture, bio, role, created_at, updated_at"

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, params models.CreateUserParams) (*models.User, error) {
	var exists bool
	err := s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)", params.Email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking email existence: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	// Nicknames are case-sensitive unique keys; exact match only.
	err = s.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE nickname = $1)", params.Nickname).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking nickname existence: %w", err)
	}
	if exists {
		return nil, ErrNicknameAlreadyExists
	}

	user := &models.User{}
	err = s.db.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, nickname, name, picture, bio, role)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+userColumns,
		params.Email, params.PasswordHash, params.Nickname, params.Name, params.Picture, params.Bio, params.Role,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Nickname, &user.Name, &user.Picture, &user.Bio, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		// A registration racing past the EXISTS checks lands on the
		// unique constraints; translate instead of leaking.
		if isUniqueViolation(err, "users_email_key") {
			return nil, ErrEmailAlreadyExists
		}
		if isUniqueViolation(err, "users_nickname_key") {
			return nil, ErrNicknameAlreadyExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (s *UserService) GetByNickname(ctx context.Context, nickname string) (*models.User, error) {
	return s.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE nickname = $1", nickname)
}

// ResolveNickname maps a nickname to the user's stable identifier.
// It always reads the current row: nicknames are mutable, so a cached
// mapping could direct a relationship operation at the wrong account.
func (s *UserService) ResolveNickname(ctx context.Context, nickname string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRow(ctx, "SELECT id FROM users WHERE nickname = $1", nickname).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrUserNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving nickname: %w", err)
	}
	return id, nil
}

// UpdateProfile patches name, picture and bio; at least one must be set.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, name, picture, bio *string) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		args = append(args, *value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	appendSet("name", name)
	appendSet("picture", picture)
	appendSet("bio", bio)
	if len(sets) == 0 {
		return ErrNoProfileChanges
	}

	sets = append(sets, "updated_at = NOW()")
	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	result, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateNickname renames the user and rewrites the denormalized
// author_nickname on every one of their posts in the same transaction,
// so the two can never be observed out of step.
func (s *UserService) UpdateNickname(ctx context.Context, userID uuid.UUID, nickname string) (*models.User, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin nickname update: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	user := &models.User{}
	err = tx.QueryRow(ctx,
		`UPDATE users SET nickname = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+userColumns,
		nickname, userID,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Nickname, &user.Name, &user.Picture, &user.Bio, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		if isUniqueViolation(err, "users_nickname_key") {
			return nil, ErrNicknameAlreadyExists
		}
		return nil, fmt.Errorf("updating nickname: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE posts SET author_nickname = $1 WHERE author_id = $2`,
		nickname, userID,
	); err != nil {
		return nil, fmt.Errorf("updating denormalized post nickname: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit nickname update: %w", err)
	}
	committed = true

	return user, nil
}

// Search finds users whose nickname or name starts with the keyword.
func (s *UserService) Search(ctx context.Context, keyword string) ([]models.PublicIdentity, error) {
	rows, err := s.db.Query(ctx,
		`SELECT nickname, name, picture
		 FROM users
		 WHERE nickname LIKE $1 || '%' OR name LIKE $1 || '%'
		 ORDER BY nickname`,
		keyword,
	)
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	defer rows.Close()

	var results []models.PublicIdentity
	for rows.Next() {
		var identity models.PublicIdentity
		if err := rows.Scan(&identity.Nickname, &identity.Name, &identity.Picture); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		results = append(results, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}
	if results == nil {
		results = []models.PublicIdentity{}
	}
	return results, nil
}

func (s *UserService) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := s.db.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Nickname, &user.Name,
		&user.Picture, &user.Bio, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, constraint)
}
