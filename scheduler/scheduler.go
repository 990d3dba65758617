// Package scheduler runs the full points recompute on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/padraicbc/f1predict/points"
)

// Recomputer is the part of points.Service the scheduler drives.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (points.Summary, error)
}

// PointsScheduler triggers RecomputeAll. A run still in progress when the
// next one is due causes that next run to be skipped.
type PointsScheduler struct {
	cron    *cron.Cron
	svc     Recomputer
	spec    string
	timeout time.Duration
	log     *zap.Logger
}

// NewPointsScheduler builds a scheduler for a six-field (seconds first) cron spec.
func NewPointsScheduler(svc Recomputer, spec string, log *zap.Logger) *PointsScheduler {
	cronLog := cron.PrintfLogger(zap.NewStdLog(log.Named("cron")))
	return &PointsScheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		svc:     svc,
		spec:    spec,
		timeout: 30 * time.Minute,
		log:     log,
	}
}

func (s *PointsScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.run); err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info("points recompute scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop waits for a running recompute to finish.
func (s *PointsScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("points recompute scheduler stopped")
}

func (s *PointsScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	sum, err := s.svc.RecomputeAll(ctx)
	if err != nil {
		s.log.Error("scheduled recompute failed",
			zap.Ints("failed", sum.Failed),
			zap.Error(err),
		)
		return
	}
	s.log.Info("scheduled recompute finished",
		zap.Int("races", len(sum.Races)),
		zap.Duration("took", time.Since(start)),
	)
}
