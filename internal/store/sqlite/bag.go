package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
)

// BagStore persists (user, disc) bag entries.
type BagStore struct {
	db *DB
}

// NewBagStore creates a bag store on an open database.
func NewBagStore(db *DB) *BagStore {
	return &BagStore{db: db}
}

// ListByUser returns the user's entries in insertion order.
func (s *BagStore) ListByUser(ctx context.Context, userID string) domain.Result[[]domain.BagEntry] {
	return domain.Try(func() ([]domain.BagEntry, error) {
		rows, err := s.db.conn.QueryContext(ctx,
			`SELECT id, user_id, disc_id, created_at FROM bag WHERE user_id = ? ORDER BY id`, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to select bag: %w", err)
		}
		defer func() { _ = rows.Close() }()

		entries := make([]domain.BagEntry, 0, domain.MaxBagSize)
		for rows.Next() {
			var (
				e       domain.BagEntry
				created int64
			)
			if err := rows.Scan(&e.ID, &e.UserID, &e.DiscID, &created); err != nil {
				return nil, fmt.Errorf("failed to scan bag entry: %w", err)
			}
			e.CreatedAt = time.UnixMilli(created).UTC()
			entries = append(entries, e)
		}
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to iterate bag: %w", err)
		}
		return entries, nil
	})
}

// Insert adds a (user, disc) pair and returns the new entry id.
// An existing pair yields domain.ErrAlreadyInBag.
func (s *BagStore) Insert(ctx context.Context, userID, discID string) domain.Result[int64] {
	return domain.Try(func() (int64, error) {
		var id int64
		err := s.db.conn.QueryRowContext(ctx,
			`INSERT INTO bag (user_id, disc_id, created_at) VALUES (?, ?, ?)
			 ON CONFLICT (user_id, disc_id) DO NOTHING
			 RETURNING id`,
			userID, discID, time.Now().UTC().UnixMilli(),
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrAlreadyInBag
		}
		if err != nil {
			return 0, fmt.Errorf("failed to insert bag entry: %w", err)
		}
		return id, nil
	})
}

// Delete removes a (user, disc) pair and returns the deleted entry id.
// A missing pair yields domain.ErrNotInBag.
func (s *BagStore) Delete(ctx context.Context, userID, discID string) domain.Result[int64] {
	return domain.Try(func() (int64, error) {
		var id int64
		err := s.db.conn.QueryRowContext(ctx,
			`DELETE FROM bag WHERE user_id = ? AND disc_id = ? RETURNING id`,
			userID, discID,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotInBag
		}
		if err != nil {
			return 0, fmt.Errorf("failed to delete bag entry: %w", err)
		}
		return id, nil
	})
}
