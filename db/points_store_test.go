package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap/zaptest"

	"github.com/padraicbc/f1predict/apperr"
	"github.com/padraicbc/f1predict/db"
	"github.com/padraicbc/f1predict/models"
	"github.com/padraicbc/f1predict/points"
	"github.com/padraicbc/f1predict/testsupport/testdb"
)

func predictionPoints(t *testing.T, bdb *bun.DB, id int) int {
	t.Helper()
	var pts int
	err := bdb.NewSelect().Model((*models.Prediction)(nil)).Column("points").Where("id = ?", id).Scan(context.Background(), &pts)
	require.NoError(t, err)
	return pts
}

func userTotal(t *testing.T, bdb *bun.DB, id int) int {
	t.Helper()
	var total int
	err := bdb.NewSelect().Model((*models.User)(nil)).Column("total_points").Where("id = ?", id).Scan(context.Background(), &total)
	require.NoError(t, err)
	return total
}

func TestApplyRacePoints(t *testing.T) {
	ctx := context.Background()
	bdb := testdb.New(t)
	store := db.NewPointsStore(bdb)

	alice := testdb.User(t, bdb, "alice", models.RoleUser)
	bob := testdb.User(t, bdb, "bob", models.RoleUser)
	r1 := testdb.Race(t, bdb, 1, models.RaceCompleted, false)
	r2 := testdb.Race(t, bdb, 2, models.RaceCompleted, false)

	p1 := testdb.Prediction(t, bdb, alice.ID, r1.ID, "VER")
	p2 := testdb.Prediction(t, bdb, bob.ID, r1.ID, "NOR")
	old := testdb.Prediction(t, bdb, alice.ID, r2.ID, "LEC")
	_, err := bdb.NewUpdate().Model(old).Set("points = ?", 12).WherePK().Exec(ctx)
	require.NoError(t, err)

	totals, err := store.ApplyRacePoints(ctx, r1.ID, []points.Update{
		{PredictionID: p1.ID, UserID: alice.ID, Points: 30},
		{PredictionID: p2.ID, UserID: bob.ID, Points: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []points.UserTotal{
		{UserID: alice.ID, TotalPoints: 42},
		{UserID: bob.ID, TotalPoints: 5},
	}, totals)

	assert.Equal(t, 30, predictionPoints(t, bdb, p1.ID))
	assert.Equal(t, 5, predictionPoints(t, bdb, p2.ID))
	assert.Equal(t, 42, userTotal(t, bdb, alice.ID))
	assert.Equal(t, 5, userTotal(t, bdb, bob.ID))
}

func TestApplyRacePointsRollsBack(t *testing.T) {
	ctx := context.Background()
	bdb := testdb.New(t)
	store := db.NewPointsStore(bdb)

	alice := testdb.User(t, bdb, "alice", models.RoleUser)
	race := testdb.Race(t, bdb, 1, models.RaceCompleted, false)
	pred := testdb.Prediction(t, bdb, alice.ID, race.ID, "VER")

	_, err := store.ApplyRacePoints(ctx, race.ID, []points.Update{
		{PredictionID: pred.ID, UserID: alice.ID, Points: 30},
		{PredictionID: pred.ID + 100, UserID: alice.ID, Points: 10},
	})
	require.Error(t, err)

	assert.Equal(t, 0, predictionPoints(t, bdb, pred.ID))
	assert.Equal(t, 0, userTotal(t, bdb, alice.ID))
}

func TestApplyRacePointsEmpty(t *testing.T) {
	store := db.NewPointsStore(testdb.New(t))
	totals, err := store.ApplyRacePoints(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestScoredRaces(t *testing.T) {
	ctx := context.Background()
	bdb := testdb.New(t)
	store := db.NewPointsStore(bdb)

	scored := testdb.Race(t, bdb, 1, models.RaceCompleted, false)
	_, err := bdb.NewUpdate().Model(scored).Set("results_imported = ?", true).WherePK().Exec(ctx)
	require.NoError(t, err)
	testdb.Race(t, bdb, 2, models.RaceCompleted, false)
	testdb.Race(t, bdb, 3, models.RaceUpcoming, false)

	races, err := store.ScoredRaces(ctx)
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, scored.ID, races[0].ID)
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	bdb := testdb.New(t)
	store := db.NewPointsStore(bdb)
	race := testdb.Race(t, bdb, 1, models.RaceUpcoming, false)

	_, err := store.Race(ctx, 99)
	assert.True(t, apperr.IsCode(err, apperr.NotFound))

	_, err = store.Result(ctx, race.ID)
	assert.True(t, apperr.IsCode(err, apperr.NotFound))

	_, err = store.Prediction(ctx, 7)
	assert.True(t, apperr.IsCode(err, apperr.NotFound))
}

func TestRecomputeRaceEndToEnd(t *testing.T) {
	ctx := context.Background()
	bdb := testdb.New(t)
	svc := points.NewService(db.NewPointsStore(bdb), zaptest.NewLogger(t), 2)

	alice := testdb.User(t, bdb, "alice", models.RoleUser)
	bob := testdb.User(t, bdb, "bob", models.RoleUser)
	race := testdb.Race(t, bdb, 1, models.RaceCompleted, true)

	rr := &models.RaceResult{
		RaceID:       race.ID,
		PolePosition: "VER",
		FastestLap:   "HAM",
		RaceOrder:    testdb.Order("VER", "NOR", "LEC", "PIA", "SAI"),
		SprintPole:   "NOR",
		SprintOrder:  testdb.Order("NOR", "VER", "PIA"),
	}
	_, err := bdb.NewInsert().Model(rr).Exec(ctx)
	require.NoError(t, err)

	pa := &models.Prediction{
		UserID:          alice.ID,
		RaceID:          race.ID,
		Positions:       []string{"VER", "NOR", "LEC", "PIA", "SAI"},
		PolePosition:    "VER",
		FastestLap:      "HAM",
		SprintPositions: []string{"NOR", "VER", "PIA"},
		SprintPole:      "NOR",
	}
	_, err = bdb.NewInsert().Model(pa).Exec(ctx)
	require.NoError(t, err)
	pb := testdb.Prediction(t, bdb, bob.ID, race.ID, "NOR", "VER")

	report, err := svc.RecomputeRace(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, points.RaceReport{RaceID: race.ID, Predictions: 2, Users: 2}, report)

	assert.Equal(t, 100, predictionPoints(t, bdb, pa.ID))
	assert.Equal(t, 100, userTotal(t, bdb, alice.ID))
	// NOR in the winner slot earns nothing, VER guessed 2nd but won is on the podium
	assert.Equal(t, 5, predictionPoints(t, bdb, pb.ID))
	assert.Equal(t, 5, userTotal(t, bdb, bob.ID))

	// a second run is idempotent
	_, err = svc.RecomputeRace(ctx, race.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, userTotal(t, bdb, alice.ID))

	_, b, err := svc.Breakdown(ctx, pa.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, b.Total)
}

func TestRecomputeAllParallelSharedUser(t *testing.T) {
	ctx := context.Background()
	bdb := testdb.New(t)
	svc := points.NewService(db.NewPointsStore(bdb), zaptest.NewLogger(t), 2)

	alice := testdb.User(t, bdb, "alice", models.RoleUser)
	bob := testdb.User(t, bdb, "bob", models.RoleUser)

	var preds []*models.Prediction
	for round := 1; round <= 4; round++ {
		race := testdb.Race(t, bdb, round, models.RaceCompleted, false)
		_, err := bdb.NewUpdate().Model(race).Set("results_imported = ?", true).WherePK().Exec(ctx)
		require.NoError(t, err)
		testdb.Result(t, bdb, race.ID, "VER", "NOR", "LEC")
		preds = append(preds,
			testdb.Prediction(t, bdb, alice.ID, race.ID, "VER", "NOR", "LEC"),
			testdb.Prediction(t, bdb, bob.ID, race.ID, "NOR"),
		)
	}

	sum, err := svc.RecomputeAll(ctx)
	require.NoError(t, err)
	require.Len(t, sum.Races, 4)
	assert.Empty(t, sum.Failed)

	for _, p := range preds {
		want := 43
		if p.UserID == bob.ID {
			want = 0
		}
		assert.Equal(t, want, predictionPoints(t, bdb, p.ID), "prediction %d", p.ID)
	}

	for _, u := range []*models.User{alice, bob} {
		var sumPoints int
		err := bdb.NewSelect().Model((*models.Prediction)(nil)).
			ColumnExpr("COALESCE(SUM(points), 0)").
			Where("user_id = ?", u.ID).
			Scan(ctx, &sumPoints)
		require.NoError(t, err)
		assert.Equal(t, sumPoints, userTotal(t, bdb, u.ID), "user %s", u.Username)
	}
	assert.Equal(t, 4*43, userTotal(t, bdb, alice.ID))
}
