package scheduler

import (
	"context"
	"time"

	"insights-service/internal/repository"
	"insights-service/pkg/config"
	"insights-service/prometheus"

	"go.uber.org/zap"
)

// Scheduler runs the periodic tenant poll. Each tick enumerates the
// registered tenants and refreshes the active-tenant gauge; per-tenant
// Shopify pulls stay on-demand through the sync endpoints.
type Scheduler struct {
	cfg     *config.SchedulerConfig
	tenants *repository.TenantRepository
	log     *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg *config.SchedulerConfig, tenants *repository.TenantRepository, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		tenants: tenants,
		log:     log,
	}
}

// Start launches the background loop. It is a no-op when the scheduler is
// disabled in configuration.
func (s *Scheduler) Start() {
	if !s.cfg.Enabled {
		s.log.Info("Scheduler disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.log.Info("Scheduler started", zap.Duration("interval", s.cfg.Interval))

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	tenants, err := s.tenants.ListAll(ctx)
	if err != nil {
		s.log.Error("Scheduler tenant poll failed", zap.Error(err))
		return
	}

	prometheus.UpdateActiveTenants(len(tenants))
	s.log.Debug("Scheduler tick completed", zap.Int("tenants", len(tenants)))
}
