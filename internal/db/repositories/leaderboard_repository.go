package repositories

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/event-registry/event-registry/internal/db/models"
)

// LeaderboardRepository handles leaderboard database operations. It wraps the
// shared connection in sqlx to scan the ranked join directly into structs.
type LeaderboardRepository struct {
	db *sqlx.DB
}

// NewLeaderboardRepository creates a new LeaderboardRepository
func NewLeaderboardRepository(db *sql.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: sqlx.NewDb(db, "postgres")}
}

// ListRanked returns all leaderboard entries joined with their registrations,
// highest points first. Ties are broken by entry creation time, oldest first,
// so earlier registrants keep their position.
func (r *LeaderboardRepository) ListRanked(ctx context.Context) ([]*models.RankedEntry, error) {
	query := `
		SELECT r.id AS registration_id, r.name, r.sap_id, e.points
		FROM leaderboard_entries e
		LEFT JOIN registrations r ON r.id = e.registration_id
		ORDER BY e.points DESC, e.created_at ASC
	`

	var entries []*models.RankedEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, err
	}

	return entries, nil
}

// AdjustPoints adds delta (which may be negative) to the entry for the given
// registration, creating the entry if it is somehow missing. It returns the
// resulting points total.
func (r *LeaderboardRepository) AdjustPoints(ctx context.Context, registrationID string, delta int) (int, error) {
	query := `
		INSERT INTO leaderboard_entries (id, registration_id, points, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (registration_id)
		DO UPDATE SET points = leaderboard_entries.points + $3
		RETURNING points
	`

	var points int
	err := r.db.QueryRowContext(ctx, query, uuid.New().String(), registrationID, delta).Scan(&points)
	if err != nil {
		return 0, err
	}

	return points, nil
}
