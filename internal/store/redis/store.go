package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bagbuilder/internal/domain"
)

const (
	// DefaultSnapshotTTL bounds how stale a warm-start catalog may be
	DefaultSnapshotTTL = 7 * 24 * time.Hour
	// DefaultRecommendationsTTL is how long a user's last recommendations are kept
	DefaultRecommendationsTTL = 30 * 24 * time.Hour
)

// Store handles Redis operations for the catalog snapshot and recommendations
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveCatalog stores the catalog snapshot and its timestamp atomically.
func (s *Store) SaveCatalog(ctx context.Context, discs []domain.Disc) error {
	data, err := json.Marshal(discs)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, KeyCatalogSnapshot, data, DefaultSnapshotTTL)
	pipe.Set(ctx, KeyCatalogUpdatedAt, time.Now().UTC().Format(time.RFC3339), DefaultSnapshotTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save catalog snapshot: %w", err)
	}
	return nil
}

// LoadCatalog returns the snapshot and when it was taken. A miss returns nil discs and no error.
func (s *Store) LoadCatalog(ctx context.Context) ([]domain.Disc, time.Time, error) {
	data, err := s.client.Get(ctx, KeyCatalogSnapshot).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, fmt.Errorf("failed to get catalog snapshot: %w", err)
	}

	var discs []domain.Disc
	if err := json.Unmarshal(data, &discs); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal catalog snapshot: %w", err)
	}

	var updatedAt time.Time
	if raw, err := s.client.Get(ctx, KeyCatalogUpdatedAt).Result(); err == nil {
		updatedAt, _ = time.Parse(time.RFC3339, raw)
	}

	return discs, updatedAt, nil
}

// SaveRecommendations stores a user's last matched recommendations.
func (s *Store) SaveRecommendations(ctx context.Context, userID string, recs []domain.MatchedRecommendation) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	if err := s.client.Set(ctx, RecommendationsKey(userID), data, DefaultRecommendationsTTL).Err(); err != nil {
		return fmt.Errorf("failed to save recommendations: %w", err)
	}
	return nil
}

// LoadRecommendations returns a user's last matched recommendations, or nil on a miss.
func (s *Store) LoadRecommendations(ctx context.Context, userID string) ([]domain.MatchedRecommendation, error) {
	data, err := s.client.Get(ctx, RecommendationsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}

	var recs []domain.MatchedRecommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recommendations: %w", err)
	}
	return recs, nil
}
