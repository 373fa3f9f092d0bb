package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// SnapshotRepository persists daily valuation snapshots as msgpack blobs,
// one row per calendar day, last write wins.
type SnapshotRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(db *sql.DB, log zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

// Save upserts the snapshot for its date.
func (r *SnapshotRepository) Save(snapshot ValueSnapshot) error {
	blob, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = r.db.Exec(
		`INSERT INTO value_snapshots (snapshot_date, data, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(snapshot_date) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		snapshot.Date, blob, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetAll returns all snapshots ordered by date ascending.
func (r *SnapshotRepository) GetAll() ([]ValueSnapshot, error) {
	rows, err := r.db.Query(
		`SELECT data FROM value_snapshots ORDER BY snapshot_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var out []ValueSnapshot
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		var snapshot ValueSnapshot
		if err := msgpack.Unmarshal(blob, &snapshot); err != nil {
			r.log.Warn().Err(err).Msg("Skipping undecodable snapshot")
			continue
		}
		out = append(out, snapshot)
	}
	return out, rows.Err()
}
