package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"

	"github.com/padraicbc/f1predict/apperr"
	"github.com/padraicbc/f1predict/models"
	"github.com/padraicbc/f1predict/points"
)

// PointsStore is the bun implementation of points.Store.
type PointsStore struct {
	db *bun.DB
}

var _ points.Store = (*PointsStore)(nil)

// NewPointsStore wraps db.
func NewPointsStore(db *bun.DB) *PointsStore {
	return &PointsStore{db: db}
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.Newf(apperr.NotFound, format, args...)
	}
	return err
}

func (s *PointsStore) Race(ctx context.Context, raceID int) (*models.Race, error) {
	race := &models.Race{}
	err := s.db.NewSelect().Model(race).Where("rc.id = ?", raceID).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "race %d not found", raceID)
	}
	return race, nil
}

func (s *PointsStore) Result(ctx context.Context, raceID int) (*models.RaceResult, error) {
	res := &models.RaceResult{}
	err := s.db.NewSelect().Model(res).Where("rr.race_id = ?", raceID).Scan(ctx)
	if err != nil {
		return nil, notFound(err, "race %d has no result", raceID)
	}
	return res, nil
}

func (s *PointsStore) Prediction(ctx context.Context, predictionID int) (*models.Prediction, error) {
	pred := &models.Prediction{}
	err := s.db.NewSelect().Model(pred).
		Relation("User").
		Relation("Race").
		Where("p.id = ?", predictionID).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "prediction %d not found", predictionID)
	}
	return pred, nil
}

func (s *PointsStore) PredictionsForRace(ctx context.Context, raceID int) ([]models.Prediction, error) {
	var preds []models.Prediction
	err := s.db.NewSelect().Model(&preds).
		Where("p.race_id = ?", raceID).
		OrderExpr("p.id ASC").
		Scan(ctx)
	return preds, err
}

func (s *PointsStore) ScoredRaces(ctx context.Context) ([]models.Race, error) {
	var races []models.Race
	err := s.db.NewSelect().Model(&races).
		Where("rc.status = ?", models.RaceCompleted).
		Where("rc.results_imported = ?", true).
		OrderExpr("rc.season ASC, rc.round ASC").
		Scan(ctx)
	return races, err
}

// ApplyRacePoints writes the new prediction points and re-derives the totals of
// the affected users inside one transaction. Those user rows are locked first,
// in id order, so concurrent recomputes of races sharing a user serialise and
// each total is summed from committed prediction points.
func (s *PointsStore) ApplyRacePoints(ctx context.Context, raceID int, updates []points.Update) ([]points.UserTotal, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	userIDs := lo.Uniq(lo.Map(updates, func(u points.Update, _ int) int { return u.UserID }))
	slices.Sort(userIDs)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if s.db.Dialect().Name() != dialect.SQLite {
		var locked []int
		err = tx.NewSelect().
			TableExpr("users").
			ColumnExpr("id").
			Where("id IN (?)", bun.In(userIDs)).
			OrderExpr("id").
			For("UPDATE").
			Scan(ctx, &locked)
		if err != nil {
			return nil, fmt.Errorf("lock users: %w", err)
		}
	}

	for _, u := range updates {
		res, err := tx.NewUpdate().
			TableExpr("predictions").
			Set("points = ?", u.Points).
			Where("id = ?", u.PredictionID).
			Where("race_id = ?", raceID).
			Exec(ctx)
		if err != nil {
			return nil, fmt.Errorf("update prediction %d: %w", u.PredictionID, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return nil, fmt.Errorf("prediction %d of race %d no longer exists", u.PredictionID, raceID)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET total_points = (
			SELECT COALESCE(SUM(p.points), 0) FROM predictions AS p WHERE p.user_id = users.id
		) WHERE id IN (?)`,
		bun.In(userIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("update user totals: %w", err)
	}

	var totals []points.UserTotal
	err = tx.NewSelect().
		TableExpr("users").
		ColumnExpr("id, total_points").
		Where("id IN (?)", bun.In(userIDs)).
		OrderExpr("id").
		Scan(ctx, &totals)
	if err != nil {
		return nil, fmt.Errorf("read user totals: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return totals, nil
}
