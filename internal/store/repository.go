/**
 * @description
 * This file implements the data access layer for membership records.
 * It contains all the SQL for the members table, including the conditional
 * activation upsert that closes the gap between checking a subscription and
 * writing it.
 */
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nahomkasa999/MatuTG/internal/domain"
)

var (
	// ErrNotFound is returned when no membership row exists for a user.
	ErrNotFound = errors.New("member not found")
	// ErrAlreadyActive is returned by Activate when an unexpired active
	// membership already holds the row.
	ErrAlreadyActive = errors.New("member already active")
)

// Repository handles database operations for membership records.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindActive retrieves the active membership row for a user, if any.
func (r *Repository) FindActive(ctx context.Context, userID string) (*domain.Member, error) {
	var m domain.Member
	query := `
        SELECT user_id, status, expires_at, joined_at
        FROM members
        WHERE user_id = $1 AND status = 'active'
    `
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&m.UserID,
		&m.Status,
		&m.ExpiresAt,
		&m.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query member %s: %w", userID, err)
	}
	return &m, nil
}

// Activate grants or re-grants a membership in a single statement. The
// conflict branch only fires when the existing row is not active or has
// already lapsed, so a concurrent duplicate approval loses the race here and
// gets ErrAlreadyActive instead of overwriting the first grant's expiry.
func (r *Repository) Activate(ctx context.Context, m *domain.Member) (*domain.Member, error) {
	var granted domain.Member
	query := `
        INSERT INTO members (user_id, status, expires_at, joined_at)
        VALUES ($1, 'active', $2, $3)
        ON CONFLICT (user_id) DO UPDATE SET
            status = 'active',
            expires_at = EXCLUDED.expires_at,
            joined_at = EXCLUDED.joined_at
        WHERE members.status <> 'active' OR members.expires_at <= $3
        RETURNING user_id, status, expires_at, joined_at
    `
	err := r.db.QueryRow(ctx, query, m.UserID, m.ExpiresAt, m.JoinedAt).Scan(
		&granted.UserID,
		&granted.Status,
		&granted.ExpiresAt,
		&granted.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyActive
		}
		return nil, fmt.Errorf("failed to activate member %s: %w", m.UserID, err)
	}
	return &granted, nil
}

// Delete removes the membership row for a user. Absence is not an error.
func (r *Repository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM members WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete member %s: %w", userID, err)
	}
	return nil
}

// FindLapsed returns all active memberships whose expiry has passed.
func (r *Repository) FindLapsed(ctx context.Context, now time.Time) ([]domain.Member, error) {
	query := `
        SELECT user_id, status, expires_at, joined_at
        FROM members
        WHERE status = 'active' AND expires_at <= $1
        ORDER BY expires_at
    `
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query lapsed members: %w", err)
	}
	defer rows.Close()

	var members []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Status, &m.ExpiresAt, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan lapsed member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lapsed members: %w", err)
	}
	return members, nil
}

// MarkExpired transitions an active membership to expired. A row that was
// deleted or re-activated in the meantime is left alone; the caller does not
// need to distinguish that case.
func (r *Repository) MarkExpired(ctx context.Context, userID string) error {
	query := `UPDATE members SET status = 'expired' WHERE user_id = $1 AND status = 'active'`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark member %s expired: %w", userID, err)
	}
	return nil
}
