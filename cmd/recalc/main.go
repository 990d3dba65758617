// cmd/recalc/main.go
// Recomputes prediction points and user totals from the stored race results.
//
// Usage:
//
//	go run ./cmd/recalc            # every completed race
//	go run ./cmd/recalc -race 12   # a single race
package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/padraicbc/f1predict/config"
	bundb "github.com/padraicbc/f1predict/db"
	applog "github.com/padraicbc/f1predict/logger"
	"github.com/padraicbc/f1predict/points"
)

func main() {
	raceID := flag.Int("race", 0, "race id; 0 recomputes every scored race")
	flag.Parse()

	cfg := config.Load()
	logger := applog.Must("f1predict-recalc", cfg.Debug)
	defer func() { _ = logger.Sync() }()

	db := bundb.Setup(cfg)
	defer db.Close()

	svc := points.NewService(bundb.NewPointsStore(db), logger, cfg.RecalcWorkers)
	if err := run(context.Background(), svc, *raceID, logger); err != nil {
		logger.Error("recalc failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *points.Service, raceID int, logger *zap.Logger) error {
	if raceID > 0 {
		report, err := svc.RecomputeRace(ctx, raceID)
		if err != nil {
			return err
		}
		logger.Info("race recomputed", zap.Any("report", report))
		return nil
	}

	sum, err := svc.RecomputeAll(ctx)
	logger.Info("all races recomputed", zap.Int("races", len(sum.Races)), zap.Ints("failed", sum.Failed))
	return err
}
