package worker

import (
	"context"
	"errors"
	"time"

	"github.com/acrilgoods-next/internal/config"
	"github.com/acrilgoods-next/internal/logger"
	"github.com/acrilgoods-next/internal/queue"

	"github.com/hibiken/asynq"
)

const defaultPointsExpireSweepInterval = time.Hour

// Service is the background worker: it consumes queued tasks and runs
// the periodic point expiry sweep.
type Service struct {
	name          string
	server        *asynq.Server
	mux           *asynq.ServeMux
	consumer      *Consumer
	sweepInterval time.Duration
}

// NewService creates the worker service.
func NewService(cfg *config.QueueConfig, pointsCfg config.PointsConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	sweepInterval := defaultPointsExpireSweepInterval
	if pointsCfg.ExpireSweepMinutes > 0 {
		sweepInterval = time.Duration(pointsCfg.ExpireSweepMinutes) * time.Minute
	}
	return &Service{
		name:          "worker",
		server:        server,
		mux:           mux,
		consumer:      consumer,
		sweepInterval: sweepInterval,
	}, nil
}

// Name returns the service name.
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start runs the asynq server and the expiry sweep loop.
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.PointsService != nil {
		go s.runPointsExpireLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop shuts the asynq server down.
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

func (s *Service) runPointsExpireLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.PointsService == nil {
		return
	}
	runOnce := func() {
		processed, err := s.consumer.PointsService.ExpireDuePoints(time.Now(), 200)
		if err != nil {
			logger.Warnw("worker_points_expire_sweep_failed", "error", err)
			return
		}
		if processed > 0 {
			logger.Infow("worker_points_expire_sweep_done", "processed", processed)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
