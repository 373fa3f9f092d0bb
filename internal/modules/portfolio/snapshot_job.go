package portfolio

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SnapshotJob records a daily portfolio valuation snapshot.
type SnapshotJob struct {
	service *Service
	log     zerolog.Logger
}

// NewSnapshotJob creates a new portfolio snapshot job.
func NewSnapshotJob(service *Service, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		service: service,
		log:     log.With().Str("job", "portfolio_snapshot").Logger(),
	}
}

// Run values the portfolio and persists today's snapshot.
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshot, err := j.service.RecordSnapshot(ctx)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to record portfolio snapshot")
		return err
	}

	j.log.Info().
		Str("date", snapshot.Date).
		Float64("total_value", snapshot.TotalValue).
		Int("holdings", len(snapshot.BySymbol)).
		Msg("Recorded portfolio snapshot")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *SnapshotJob) Name() string {
	return "portfolio_snapshot"
}
