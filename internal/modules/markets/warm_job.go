package markets

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// WarmJob refreshes the watchlist quotes and the MOVE and CDS proxy
// histories so interactive requests hit a warm cache.
type WarmJob struct {
	service *Service
	log     zerolog.Logger
}

// NewWarmJob creates a new market data warm job.
func NewWarmJob(service *Service, log zerolog.Logger) *WarmJob {
	return &WarmJob{
		service: service,
		log:     log.With().Str("job", "market_warm").Logger(),
	}
}

// Run fetches the standard views, ignoring individual failures.
func (j *WarmJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	if _, err := j.service.Quotes(ctx, nil); err != nil {
		j.log.Warn().Err(err).Msg("Watchlist warm failed")
	}
	if _, err := j.service.Move(ctx, "1y"); err != nil {
		j.log.Warn().Err(err).Msg("MOVE warm failed")
	}
	if _, err := j.service.CDSProxy(ctx, "1y"); err != nil {
		j.log.Warn().Err(err).Msg("CDS proxy warm failed")
	}

	j.log.Debug().Msg("Market data warm completed")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *WarmJob) Name() string {
	return "market_warm"
}
