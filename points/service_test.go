package points

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/padraicbc/f1predict/apperr"
	"github.com/padraicbc/f1predict/models"
)

// memStore applies updates atomically under a mutex, like one transaction.
type memStore struct {
	mu        sync.Mutex
	races     map[int]models.Race
	results   map[int]models.RaceResult
	preds     []models.Prediction
	totals    map[int]int
	failApply map[int]error
	listErr   error
	applied   []int
}

func newMemStore() *memStore {
	return &memStore{
		races:     map[int]models.Race{},
		results:   map[int]models.RaceResult{},
		totals:    map[int]int{},
		failApply: map[int]error{},
	}
}

func (m *memStore) Race(_ context.Context, raceID int) (*models.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.races[raceID]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "race %d not found", raceID)
	}
	return &r, nil
}

func (m *memStore) Result(_ context.Context, raceID int) (*models.RaceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.results[raceID]
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "race %d has no result", raceID)
	}
	return &r, nil
}

func (m *memStore) Prediction(_ context.Context, id int) (*models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.preds {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperr.Newf(apperr.NotFound, "prediction %d not found", id)
}

func (m *memStore) PredictionsForRace(_ context.Context, raceID int) ([]models.Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Prediction
	for _, p := range m.preds {
		if p.RaceID == raceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memStore) ScoredRaces(context.Context) ([]models.Race, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Race
	for id := 1; id <= len(m.races); id++ {
		r, ok := m.races[id]
		if ok && r.Status == models.RaceCompleted && r.ResultsImported {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) ApplyRacePoints(_ context.Context, raceID int, updates []Update) ([]UserTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failApply[raceID]; err != nil {
		return nil, err
	}
	m.applied = append(m.applied, raceID)

	users := map[int]bool{}
	for _, u := range updates {
		for i := range m.preds {
			if m.preds[i].ID == u.PredictionID {
				m.preds[i].Points = u.Points
			}
		}
		users[u.UserID] = true
	}

	var out []UserTotal
	for uid := range users {
		total := 0
		for _, p := range m.preds {
			if p.UserID == uid {
				total += p.Points
			}
		}
		m.totals[uid] = total
		out = append(out, UserTotal{UserID: uid, TotalPoints: total})
	}
	return out, nil
}

func (m *memStore) points(predictionID int) int {
	for _, p := range m.preds {
		if p.ID == predictionID {
			return p.Points
		}
	}
	return -1
}

func order(ids ...string) []models.DriverPosition {
	out := make([]models.DriverPosition, len(ids))
	for i, id := range ids {
		out[i] = models.DriverPosition{DriverID: id, Position: i + 1}
	}
	return out
}

func completed(id int) models.Race {
	return models.Race{ID: id, Status: models.RaceCompleted, ResultsImported: true}
}

func seeded() *memStore {
	m := newMemStore()
	m.races[1] = completed(1)
	m.races[2] = completed(2)
	m.results[1] = models.RaceResult{RaceID: 1, RaceOrder: order("A", "B", "C", "D", "E")}
	m.results[2] = models.RaceResult{
		RaceID:      2,
		RaceOrder:   order("A", "B", "C", "D", "E"),
		SprintOrder: order("P", "Q", "R"),
	}
	m.preds = []models.Prediction{
		{ID: 10, UserID: 1, RaceID: 1, Positions: []string{"A", "B", "C", "D", "E"}},
		{ID: 11, UserID: 2, RaceID: 1, Positions: []string{"A", "C", "B", "D", "E"}},
		{ID: 20, UserID: 1, RaceID: 2, Points: 7},
		{ID: 21, UserID: 2, RaceID: 2, SprintPositions: []string{"P", "Q", "R"}},
	}
	return m
}

func newTestService(t *testing.T, m *memStore) *Service {
	return NewService(m, zaptest.NewLogger(t), 2)
}

func TestRecomputeRace(t *testing.T) {
	m := seeded()
	svc := newTestService(t, m)

	report, err := svc.RecomputeRace(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, RaceReport{RaceID: 1, Predictions: 2, Users: 2}, report)

	assert.Equal(t, 63, m.points(10))
	assert.Equal(t, 33, m.points(11))
	// user 1 keeps the points already stored for race 2
	assert.Equal(t, 63+7, m.totals[1])
	assert.Equal(t, 33, m.totals[2])
}

func TestRecomputeRaceSprint(t *testing.T) {
	m := seeded()
	svc := newTestService(t, m)

	_, err := svc.RecomputeRace(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 21, m.points(21))
	assert.Equal(t, 0, m.points(20))
	assert.Equal(t, 0, m.totals[1])
}

func TestRecomputeRaceMissingRace(t *testing.T) {
	m := seeded()
	svc := newTestService(t, m)

	report, err := svc.RecomputeRace(context.Background(), 99)
	require.NoError(t, err)
	assert.Equal(t, SkipNoRace, report.Skipped)
	assert.Empty(t, m.applied)
}

func TestRecomputeRaceMissingResult(t *testing.T) {
	m := seeded()
	m.races[3] = models.Race{ID: 3, Status: models.RaceLive}
	m.preds = append(m.preds, models.Prediction{ID: 30, UserID: 1, RaceID: 3, Positions: []string{"A"}, Points: 4})
	svc := newTestService(t, m)

	report, err := svc.RecomputeRace(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, SkipNoResult, report.Skipped)
	assert.Equal(t, 4, m.points(30))
	assert.Empty(t, m.applied)
}

func TestRecomputeRaceWithoutPredictions(t *testing.T) {
	m := seeded()
	m.races[3] = completed(3)
	m.results[3] = models.RaceResult{RaceID: 3, RaceOrder: order("A")}
	svc := newTestService(t, m)

	report, err := svc.RecomputeRace(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, RaceReport{RaceID: 3}, report)
	assert.Empty(t, m.applied)
}

func TestRecomputeRacePersistenceFailure(t *testing.T) {
	m := seeded()
	cause := errors.New("deadlock detected")
	m.failApply[1] = cause
	svc := newTestService(t, m)

	_, err := svc.RecomputeRace(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.PersistenceFailure))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "race 1")

	assert.Equal(t, 0, m.points(10))
	assert.Equal(t, 0, m.points(11))
	assert.Empty(t, m.totals)
}

func TestRecomputeAllIsolatesFailures(t *testing.T) {
	m := seeded()
	m.races[3] = completed(3)
	m.results[3] = models.RaceResult{RaceID: 3, RaceOrder: order("B", "A")}
	m.preds = append(m.preds, models.Prediction{ID: 30, UserID: 2, RaceID: 3, Positions: []string{"B"}})
	m.races[4] = models.Race{ID: 4, Status: models.RaceUpcoming}
	m.failApply[2] = errors.New("connection reset")
	svc := newTestService(t, m)

	sum, err := svc.RecomputeAll(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.PersistenceFailure))
	assert.Equal(t, []int{2}, sum.Failed)
	require.Len(t, sum.Races, 3)

	assert.Equal(t, 63, m.points(10))
	assert.Equal(t, 15, m.points(30))
	assert.Equal(t, 0, m.points(21), "failed race must keep its previous points")
	assert.Equal(t, 63+7, m.totals[1])
	assert.Equal(t, 33+15, m.totals[2])
	assert.ElementsMatch(t, []int{1, 3}, m.applied)
}

func TestRecomputeAllListFailure(t *testing.T) {
	m := seeded()
	m.listErr = errors.New("no connection")
	svc := newTestService(t, m)

	_, err := svc.RecomputeAll(context.Background())
	assert.True(t, apperr.IsCode(err, apperr.PersistenceFailure))
}

func TestRecomputeAllAggregateConsistency(t *testing.T) {
	m := seeded()
	svc := newTestService(t, m)

	_, err := svc.RecomputeAll(context.Background())
	require.NoError(t, err)

	for uid, total := range m.totals {
		want := 0
		for _, p := range m.preds {
			if p.UserID == uid {
				want += p.Points
			}
		}
		assert.Equal(t, want, total, "user %d", uid)
	}
}

func TestBreakdown(t *testing.T) {
	m := seeded()
	svc := newTestService(t, m)

	pred, b, err := svc.Breakdown(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, 11, pred.ID)
	assert.Equal(t, 33, b.Total)
	require.Len(t, b.Items, 5)
	assert.Equal(t, "2nd Place Prediction on Podium (C)", b.Items[1].Description)

	_, err = svc.RecomputeRace(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, m.points(11), b.Total)
}

func TestBreakdownNotFound(t *testing.T) {
	m := seeded()
	m.races[3] = models.Race{ID: 3, Status: models.RaceUpcoming}
	m.preds = append(m.preds, models.Prediction{ID: 30, UserID: 1, RaceID: 3})
	svc := newTestService(t, m)

	_, _, err := svc.Breakdown(context.Background(), 404)
	assert.True(t, apperr.IsCode(err, apperr.NotFound))

	_, _, err = svc.Breakdown(context.Background(), 30)
	assert.True(t, apperr.IsCode(err, apperr.NotFound))
	assert.Equal(t, "race results not available yet", apperr.Message(err))
}

func TestResultFor(t *testing.T) {
	res := ResultFor(&models.RaceResult{
		PolePosition: "A",
		RaceOrder: []models.DriverPosition{
			{DriverID: "C", Position: 3},
			{DriverID: "A", Position: 1},
			{DriverID: "B", Position: 2},
		},
	})
	assert.Equal(t, []string{"A", "B", "C"}, res.Order)
	assert.Nil(t, res.Sprint)

	res = ResultFor(&models.RaceResult{SprintPole: "Q"})
	require.NotNil(t, res.Sprint)
	assert.Equal(t, "Q", res.Sprint.Pole)
	assert.Empty(t, res.Sprint.Order)
}
