package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/hkacem/microquote/internal/modules/quotes"
)

// StaleQuotesJob expires pending quote requests that were never processed.
// Runs daily so abandoned requests do not pile up in the pending queue.
type StaleQuotesJob struct {
	log    zerolog.Logger
	repo   *quotes.Repository
	maxAge time.Duration
}

// NewStaleQuotesJob creates a new stale quote sweep job
func NewStaleQuotesJob(log zerolog.Logger, repo *quotes.Repository, maxAgeDays int) *StaleQuotesJob {
	return &StaleQuotesJob{
		log:    log.With().Str("job", "stale_quotes").Logger(),
		repo:   repo,
		maxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
	}
}

// Name returns the job name
func (j *StaleQuotesJob) Name() string {
	return "stale_quotes"
}

// Run expires pending requests older than the configured age
func (j *StaleQuotesJob) Run() error {
	expired, err := j.repo.ExpireStale(j.maxAge)
	if err != nil {
		return err
	}

	if expired > 0 {
		j.log.Info().
			Int64("expired", expired).
			Dur("max_age", j.maxAge).
			Msg("Expired stale quote requests")
	} else {
		j.log.Debug().Msg("No stale quote requests found")
	}

	return nil
}
