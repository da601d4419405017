package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"penthrey/api/internal/repository"
)

// Finished verification and reset tokens linger for audit before the nightly
// purge removes them.
const tokenRetention = 30 * 24 * time.Hour

type Scheduler struct {
	cron          *cron.Cron
	invites       *repository.InviteRepository
	verifications *repository.VerificationRepository
	resets        *repository.ResetRepository
	log           zerolog.Logger
}

func NewScheduler(
	invites *repository.InviteRepository,
	verifications *repository.VerificationRepository,
	resets *repository.ResetRepository,
	log zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		cron:          cron.New(cron.WithSeconds()),
		invites:       invites,
		verifications: verifications,
		resets:        resets,
		log:           log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 */1 * * *", s.expireInvites); err != nil { // hourly sweep
		return err
	}
	if _, err := s.cron.AddFunc("0 0 0 * * *", s.purgeTokens); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

// expireInvites flips pending invites past their deadline to expired so
// listings reflect reality without waiting for someone to act on the token.
func (s *Scheduler) expireInvites() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.invites.ExpireStale(ctx, time.Now())
	if err != nil {
		s.log.Error().Err(err).Msg("invite expiry sweep failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("expired", n).Msg("stale invites expired")
	}
}

func (s *Scheduler) purgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-tokenRetention)

	if n, err := s.verifications.PurgeFinished(ctx, cutoff); err != nil {
		s.log.Error().Err(err).Msg("verification token purge failed")
	} else if n > 0 {
		s.log.Info().Int64("purged", n).Msg("verification tokens purged")
	}

	if n, err := s.resets.PurgeFinished(ctx, cutoff); err != nil {
		s.log.Error().Err(err).Msg("reset token purge failed")
	} else if n > 0 {
		s.log.Info().Int64("purged", n).Msg("reset tokens purged")
	}
}
