package scheduler

import (
	"context"
	"time"

	"github.com/commerce/backend/internal/domain/cart"
	"github.com/commerce/backend/internal/domain/identity"
	"github.com/commerce/backend/internal/domain/inventory"
	"github.com/commerce/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Job names
const (
	JobSessionPurge      = "session_purge"
	JobReservationExpiry = "reservation_expiry"
	JobAbandonedCarts    = "abandoned_carts"
)

// Repositories are the stores the maintenance jobs prune
type Repositories struct {
	Sessions identity.SessionRepository
	Levels   inventory.LevelRepository
	Carts    cart.Repository
}

// SessionPurgeJob deletes sessions that ended more than retention ago
func SessionPurgeJob(sessions identity.SessionRepository, retention time.Duration, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := sessions.DeleteStale(ctx, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("purged stale sessions", zap.Int64("count", n))
		}
		return nil
	}
}

// ReservationExpiryJob releases inventory reservations past their expiry
func ReservationExpiryJob(levels inventory.LevelRepository, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := levels.ReleaseExpired(ctx, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("released expired reservations", zap.Int64("count", n))
		}
		return nil
	}
}

// AbandonedCartJob soft deletes incomplete carts untouched for retention
func AbandonedCartJob(carts cart.Repository, retention time.Duration, logger *zap.Logger) JobFunc {
	return func(ctx context.Context) error {
		n, err := carts.DeleteAbandoned(ctx, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("deleted abandoned carts", zap.Int64("count", n))
		}
		return nil
	}
}

// RegisterMaintenanceJobs wires the built-in jobs with their configured schedules
func RegisterMaintenanceJobs(s *Scheduler, repos Repositories, cfg config.SchedulerConfig, sessionRetention time.Duration, logger *zap.Logger) error {
	if err := s.Register(JobSessionPurge, cfg.SessionPurgeSchedule,
		SessionPurgeJob(repos.Sessions, sessionRetention, logger)); err != nil {
		return err
	}
	if err := s.Register(JobReservationExpiry, cfg.ReservationSchedule,
		ReservationExpiryJob(repos.Levels, logger)); err != nil {
		return err
	}
	return s.Register(JobAbandonedCarts, cfg.AbandonedCartSchedule,
		AbandonedCartJob(repos.Carts, cfg.AbandonedCartRetention, logger))
}
