// internal/adapters/db/user_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/bi-dashboard/internal/core/domain"
	"github.com/ammerola/bi-dashboard/internal/core/ports"
)

const userColumns = "id, name, email, password_hash, role, last_login_at, created_at, updated_at"

// userRepository implements ports.UserRepository
type userRepository struct {
	db     querier
	logger *slog.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *Database, logger *slog.Logger) ports.UserRepository {
	return &userRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "users")),
	}
}

// Create inserts a prepared user
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", translateError(err))
	}

	r.logger.DebugContext(ctx, "user created",
		slog.String("user_id", user.ID.String()),
		slog.String("role", string(user.Role)))

	return nil
}

// Update writes name, email, role and password hash
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users SET name = $2, email = $3, password_hash = $4, role = $5, updated_at = $6
		WHERE id = $1`

	user.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role), user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translateError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.findOne(ctx, "id = $1", id)
}

// FindByEmail matches case-insensitively; emails are stored lowercased
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email = lower($1)", email)
}

func (r *userRepository) findOne(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where

	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (*domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, translateError(err)
	}
	return user, nil
}

// List returns users newest first
func (r *userRepository) List(ctx context.Context, page domain.Pagination) ([]*domain.User, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query, args, err := psql().
		Select(userColumns).
		From("users").
		OrderBy("created_at DESC", "id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Skip())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build user list query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users, err := ScanMany(rows, func(rows pgx.Rows) (*domain.User, error) {
		return scanUser(rows)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}

	r.logger.InfoContext(ctx, "user deleted", slog.String("user_id", id.String()))
	return nil
}

func (r *userRepository) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if _, err := r.db.Exec(ctx, "UPDATE users SET last_login_at = $2 WHERE id = $1", id, at); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// Stats counts users by role and those created since the given instant
func (r *userRepository) Stats(ctx context.Context, since time.Time) (*domain.UserStats, error) {
	rows, err := r.db.Query(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return nil, fmt.Errorf("failed to query user roles: %w", err)
	}
	defer rows.Close()

	stats := &domain.UserStats{ByRole: map[domain.Role]int64{
		domain.RoleAdmin:  0,
		domain.RoleViewer: 0,
	}}
	for rows.Next() {
		var role domain.Role
		var count int64
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("failed to scan user roles: %w", err)
		}
		stats.ByRole[role] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user roles: %w", err)
	}

	err = r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE created_at >= $1", since).Scan(&stats.RecentSignups)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent signups: %w", err)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
