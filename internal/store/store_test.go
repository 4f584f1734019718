package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/blackwell-systems/cropflow/internal/crop"
	"github.com/blackwell-systems/cropflow/internal/distance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_CreatesFileAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cropflow.db")
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	var version int
	require.NoError(t, db.Conn().QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	// Migrating again is a no-op.
	require.NoError(t, db.Migrate())
}

func TestInsertObservations_Upserts(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	n, err := db.InsertObservations(ctx, []crop.Observation{
		{Region: "Punjab", District: "LUDHIANA", CropYear: "2010-11", Season: "Kharif", Crop: "Rice", Area: 10, Production: 100},
		{Region: " Punjab ", District: "AMRITSAR", CropYear: "2010-11", Season: "Kharif", Crop: "Rice", Area: 5, Production: 50},
		{Region: "Punjab", District: "AMRITSAR", CropYear: "unknown", Season: "Kharif", Crop: "Rice"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = db.InsertObservations(ctx, []crop.Observation{
		{Region: "Punjab", District: "LUDHIANA", CropYear: "2010-11", Season: "Kharif", Crop: "Rice", Area: 12, Production: 130},
	})
	require.NoError(t, err)

	obs, err := db.QueryObservations(ctx, crop.Query{Region: "punjab", Crop: "RICE"})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "AMRITSAR", obs[0].District)
	assert.Equal(t, 130.0, obs[1].Production, "re-import replaces values")
}

func TestQueryObservations_ByYearStart(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()
	_, err := db.InsertObservations(ctx, []crop.Observation{
		{Region: "Bihar", CropYear: "2010-11", Crop: "Wheat", Production: 1},
		{Region: "Bihar", CropYear: "2011-12", Crop: "Wheat", Production: 2},
		{Region: "Assam", CropYear: "2010", Crop: "Rice", Production: 3},
	})
	require.NoError(t, err)

	obs, err := db.QueryObservations(ctx, crop.Query{CropYear: "2010"})
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "Assam", obs[0].Region)
	assert.Equal(t, "Bihar", obs[1].Region)

	cov, err := db.Coverage(ctx)
	require.NoError(t, err)
	require.Len(t, cov, 2)
	assert.Equal(t, Coverage{Region: "Bihar", Records: 2, Crops: 1, FirstYear: 2010, LastYear: 2011}, cov[1])
}

func TestDistance_SymmetricLookup(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	n, err := db.UpsertDistances(ctx, []distance.Fact{
		{From: "Punjab", To: "Bihar", Km: 1400},
		{From: "Bihar", To: "Punjab", Km: 1450},
		{From: "Goa", To: "Goa", Km: 0},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	km, err := db.Distance(ctx, "Punjab", "Bihar")
	require.NoError(t, err)
	assert.Equal(t, 1450.0, km, "reverse fact overwrites")

	_, err = db.Distance(ctx, "Punjab", "Kerala")
	assert.ErrorIs(t, err, distance.ErrUnknownPair)

	rows, err := db.ListDistances(ctx, "Punjab")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "import", rows[0].Source)
}

func TestReplaceStrategies(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	first := []StrategyRow{
		{Crop: "Rice", Season: "Kharif", PriorityScore: 10, Notes: "a", Trend: "stable"},
		{Crop: "Wheat", Season: "Rabi", PriorityScore: 20, Notes: "b", Trend: "increasing"},
	}
	require.NoError(t, db.ReplaceStrategies(ctx, "Punjab", "2016-17", first))
	require.NoError(t, db.ReplaceStrategies(ctx, "Punjab", "2015-16", first[:1]))

	second := []StrategyRow{{Crop: "Maize", Season: "Kharif", PriorityScore: 5, Notes: "c", Trend: "stable", Predicted: true}}
	require.NoError(t, db.ReplaceStrategies(ctx, "Punjab", "2016-17", second))

	rows, err := db.ListStrategies(ctx, "Punjab", "2016-17")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Maize", rows[0].Crop)
	assert.True(t, rows[0].Predicted)
	assert.Equal(t, "Punjab", rows[0].Region)

	all, err := db.ListStrategies(ctx, "Punjab", "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "other years untouched")
}

func TestReplaceStrategies_RegionIgnoresCase(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	rows := []StrategyRow{{Crop: "Rice", Season: "Kharif", PriorityScore: 10, Trend: "stable"}}
	require.NoError(t, db.ReplaceStrategies(ctx, "Punjab", "2010-11", rows))
	require.NoError(t, db.ReplaceStrategies(ctx, "punjab", "2010-11", rows))

	got, err := db.ListStrategies(ctx, "PUNJAB", "2010-11")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "punjab", got[0].Region)
}

func TestReplaceTransactions_NullCost(t *testing.T) {
	db := openTest(t)
	ctx := context.Background()

	cost := 1020.0
	rows := []TransactionRow{
		{Crop: "Rice", SurplusRegion: "A", DeficitRegion: "B", Quantity: 400, Cost: &cost, CO2: &cost, DistanceKm: 300, DistanceKnown: true, PriorityScore: 1333.33},
		{Crop: "Wheat", SurplusRegion: "C", DeficitRegion: "D", Quantity: 10, DistanceKm: distance.Sentinel, PriorityScore: 1},
	}
	require.NoError(t, db.ReplaceTransactions(ctx, "2016-17", "", rows))

	got, err := db.ListTransactions(ctx, "2016-17", "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].Cost)
	assert.Equal(t, 1020.0, *got[0].Cost)
	assert.Nil(t, got[1].Cost)
	assert.Nil(t, got[1].CO2)
	assert.False(t, got[1].DistanceKnown)

	// Replacing one crop leaves the others.
	require.NoError(t, db.ReplaceTransactions(ctx, "2016-17", "rice", nil))
	got, err = db.ListTransactions(ctx, "2016-17", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Wheat", got[0].Crop)
}
