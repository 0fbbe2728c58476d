package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"emissions-stats/domain/emissions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	s.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 500, time.UTC) }
	return s
}

var batch = []emissions.Record{
	{Company: "A", Sector: "Energy", Year: 2020, EnergyConsumption: 100, CO2Emissions: 10},
	{Company: "B", Sector: "Tech", Year: 2021, EnergyConsumption: 50.5, CO2Emissions: 5.25},
}

func TestCreateAndReadBatch(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	info, err := s.CreateBatch(ctx, "first.xlsx", batch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.ID)
	assert.True(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC).Equal(info.UploadDate))

	got, err := s.GetBatch(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, "first.xlsx", got.Name)
	assert.True(t, info.UploadDate.Equal(got.UploadDate))

	recs, err := s.Records(ctx, info.ID)
	require.NoError(t, err)
	assert.Equal(t, batch, Plain(recs))
	assert.Equal(t, info.ID, recs[1].FileID)
}

func TestListBatchesNewestFirst(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.CreateBatch(ctx, "one.xlsx", batch[:1])
	require.NoError(t, err)
	_, err = s.CreateBatch(ctx, "two.csv", batch[1:])
	require.NoError(t, err)

	files, err := s.ListBatches(ctx)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "two.csv", files[0].Name)
	assert.Equal(t, "one.xlsx", files[1].Name)

	all, err := s.AllRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteBatch(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	keep, err := s.CreateBatch(ctx, "keep.xlsx", batch)
	require.NoError(t, err)
	drop, err := s.CreateBatch(ctx, "drop.xlsx", batch)
	require.NoError(t, err)

	require.NoError(t, s.DeleteBatch(ctx, drop.ID))

	_, err = s.GetBatch(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Records(ctx, drop.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.AllRecords(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, keep.ID, all[0].FileID)

	assert.ErrorIs(t, s.DeleteBatch(ctx, drop.ID), ErrNotFound)
}

func TestListBatchesEmpty(t *testing.T) {
	files, err := openTest(t).ListBatches(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.NotNil(t, files)
}
