package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"aperture/api/internal/ratelimit"
	"aperture/api/internal/repository"
)

// Scheduler runs the periodic housekeeping the request path only does
// opportunistically: sweeping expired rate-limit and lockout buckets,
// and trimming audit entries past retention.
type Scheduler struct {
	cron          *cron.Cron
	limiter       *ratelimit.MemoryLimiter
	lockouts      *ratelimit.MemoryLockoutTracker
	auditRepo     *repository.AuditRepository
	retentionDays int
	log           zerolog.Logger
}

func NewScheduler(
	limiter *ratelimit.MemoryLimiter,
	lockouts *ratelimit.MemoryLockoutTracker,
	auditRepo *repository.AuditRepository,
	retentionDays int,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		limiter:       limiter,
		lockouts:      lockouts,
		auditRepo:     auditRepo,
		retentionDays: retentionDays,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if s.limiter != nil || s.lockouts != nil {
		if _, err := s.cron.AddFunc("0 0 * * * *", s.sweepBuckets); err != nil { // hourly
			return err
		}
	}
	if s.auditRepo != nil && s.retentionDays > 0 {
		if _, err := s.cron.AddFunc("0 30 3 * * *", s.trimAudit); err != nil { // nightly
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop waits for running jobs to finish, up to a bound.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}

func (s *Scheduler) sweepBuckets() {
	if s.limiter != nil {
		s.limiter.Sweep()
	}
	if s.lockouts != nil {
		s.lockouts.Sweep()
	}
	s.log.Debug().Msg("rate-limit buckets swept")
}

func (s *Scheduler) trimAudit() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.auditRepo.TrimOlderThan(ctx, s.retentionDays)
	if err != nil {
		s.log.Error().Err(err).Msg("audit trim failed")
		return
	}
	if removed > 0 {
		s.log.Info().Int64("removed", removed).Msg("audit entries trimmed")
	}
}
