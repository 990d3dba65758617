// Package points keeps prediction points and user totals in line with the
// published race results.
package points

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/padraicbc/f1predict/apperr"
	"github.com/padraicbc/f1predict/metrics"
	"github.com/padraicbc/f1predict/models"
	"github.com/padraicbc/f1predict/scoring"
)

// Reasons a race recompute did nothing.
const (
	SkipNoRace   = "race not found"
	SkipNoResult = "no result"
)

// Update is the freshly scored points of one prediction.
type Update struct {
	PredictionID int
	UserID       int
	Points       int
}

// UserTotal is a user's points total as persisted after an update.
type UserTotal struct {
	UserID      int `bun:"id"`
	TotalPoints int `bun:"total_points"`
}

// Store is the persistence the recompute reads from and writes to.
// Lookups of a single record return an apperr.NotFound error when it is missing.
type Store interface {
	Race(ctx context.Context, raceID int) (*models.Race, error)
	Result(ctx context.Context, raceID int) (*models.RaceResult, error)
	Prediction(ctx context.Context, predictionID int) (*models.Prediction, error)
	PredictionsForRace(ctx context.Context, raceID int) ([]models.Prediction, error)
	// ScoredRaces lists completed races whose results have been imported.
	ScoredRaces(ctx context.Context) ([]models.Race, error)
	// ApplyRacePoints persists updates and then re-derives the total of every
	// affected user from the stored predictions, all in one transaction.
	ApplyRacePoints(ctx context.Context, raceID int, updates []Update) ([]UserTotal, error)
}

// RaceReport summarises one race recompute.
type RaceReport struct {
	RaceID      int    `json:"raceId"`
	Skipped     string `json:"skipped,omitempty"`
	Predictions int    `json:"predictions"`
	Users       int    `json:"users"`
}

// Summary is the outcome of recomputing every scored race.
type Summary struct {
	Races  []RaceReport `json:"races"`
	Failed []int        `json:"failed,omitempty"`
}

// Service recomputes points.
type Service struct {
	store   Store
	log     *zap.Logger
	workers int
}

// NewService creates a Service that recomputes up to workers races at once.
func NewService(store Store, log *zap.Logger, workers int) *Service {
	return &Service{store: store, log: log, workers: max(workers, 1)}
}

// RecomputeRace rescores every prediction of a race and refreshes the totals
// of their users. A missing race or result is logged and skipped. A store
// failure leaves earlier state untouched and is returned as a
// PersistenceFailure.
func (s *Service) RecomputeRace(ctx context.Context, raceID int) (RaceReport, error) {
	start := time.Now()
	report, err := s.recomputeRace(ctx, raceID)
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.RecomputeRaces.WithLabelValues(metrics.OutcomeFailed).Inc()
	case report.Skipped != "":
		metrics.RecomputeRaces.WithLabelValues(metrics.OutcomeSkipped).Inc()
	default:
		metrics.RecomputeRaces.WithLabelValues(metrics.OutcomeOK).Inc()
	}
	return report, err
}

func (s *Service) recomputeRace(ctx context.Context, raceID int) (RaceReport, error) {
	report := RaceReport{RaceID: raceID}
	log := s.log.With(zap.Int("race_id", raceID))

	if _, err := s.store.Race(ctx, raceID); err != nil {
		if apperr.IsCode(err, apperr.NotFound) {
			log.Warn("race not found, nothing to recompute")
			report.Skipped = SkipNoRace
			return report, nil
		}
		return report, s.failed(log, raceID, "load race", err)
	}

	result, err := s.store.Result(ctx, raceID)
	if err != nil {
		if apperr.IsCode(err, apperr.NotFound) {
			log.Info("race has no result, nothing to recompute")
			report.Skipped = SkipNoResult
			return report, nil
		}
		return report, s.failed(log, raceID, "load result", err)
	}

	preds, err := s.store.PredictionsForRace(ctx, raceID)
	if err != nil {
		return report, s.failed(log, raceID, "load predictions", err)
	}
	if len(preds) == 0 {
		log.Info("race has no predictions")
		return report, nil
	}

	official := ResultFor(result)
	updates := lo.Map(preds, func(p models.Prediction, _ int) Update {
		return Update{
			PredictionID: p.ID,
			UserID:       p.UserID,
			Points:       scoring.Score(PredictionFor(&p), official),
		}
	})

	totals, err := s.store.ApplyRacePoints(ctx, raceID, updates)
	if err != nil {
		return report, s.failed(log, raceID, "save points", err)
	}

	report.Predictions = len(updates)
	report.Users = len(totals)
	metrics.PredictionsScored.Add(float64(len(updates)))
	log.Info("race points recomputed",
		zap.Int("predictions", report.Predictions),
		zap.Int("users", report.Users),
	)
	return report, nil
}

func (s *Service) failed(log *zap.Logger, raceID int, step string, err error) error {
	log.Error("race points recompute failed", zap.String("step", step), zap.Error(err))
	return apperr.New(apperr.PersistenceFailure, fmt.Sprintf("race %d: %s", raceID, step), err)
}

// RecomputeAll recomputes every scored race. Races are independent: each one
// commits or fails on its own and a failure never stops the rest. The
// returned error combines every race failure.
func (s *Service) RecomputeAll(ctx context.Context) (Summary, error) {
	races, err := s.store.ScoredRaces(ctx)
	if err != nil {
		s.log.Error("list scored races failed", zap.Error(err))
		return Summary{}, apperr.New(apperr.PersistenceFailure, "list scored races", err)
	}
	s.log.Info("recomputing all races", zap.Int("races", len(races)))

	reports := make([]RaceReport, len(races))
	errs := make([]error, len(races))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, race := range races {
		g.Go(func() error {
			reports[i], errs[i] = s.RecomputeRace(ctx, race.ID)
			return nil
		})
	}
	_ = g.Wait()

	sum := Summary{Races: reports}
	var combined error
	for i, e := range errs {
		if e != nil {
			sum.Failed = append(sum.Failed, races[i].ID)
			combined = multierr.Append(combined, e)
		}
	}

	s.log.Info("all races recomputed",
		zap.Int("races", len(races)),
		zap.Ints("failed", sum.Failed),
	)
	return sum, combined
}

// Breakdown loads a prediction and scores it against its race result,
// itemised. The prediction is returned with its Race and User loaded.
func (s *Service) Breakdown(ctx context.Context, predictionID int) (*models.Prediction, scoring.Breakdown, error) {
	pred, err := s.store.Prediction(ctx, predictionID)
	if err != nil {
		return nil, scoring.Breakdown{}, err
	}

	result, err := s.store.Result(ctx, pred.RaceID)
	if err != nil {
		if apperr.IsCode(err, apperr.NotFound) {
			return pred, scoring.Breakdown{}, apperr.Newf(apperr.NotFound, "race results not available yet")
		}
		return pred, scoring.Breakdown{}, err
	}

	return pred, scoring.Calculate(PredictionFor(pred), ResultFor(result)), nil
}
