package db

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/ghostnote/internal/coords"
	"github.com/banshee-data/ghostnote/internal/lagmap"
	"github.com/banshee-data/ghostnote/internal/timeutil"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testStore(t *testing.T) (*LagMapStore, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(epoch)
	return NewLagMapStore(openTestDB(t).DB, clock), clock
}

func smallParams() lagmap.Params {
	p := lagmap.DefaultParams()
	p.Diameter = 12
	p.MicA = coords.Point2D{X: 6, Y: 0}
	p.MicB = coords.Point2D{X: -6, Y: 0}
	return p
}

func insertMap(t *testing.T, s *LagMapStore, p lagmap.Params) *LagMapRecord {
	t.Helper()
	rec := NewLagMapRecord(p, lagmap.Compute(p))
	require.NoError(t, s.Insert(rec))
	return rec
}

func TestLagMapStore_InsertAndGet(t *testing.T) {
	s, _ := testStore(t)
	p := smallParams()
	rec := insertMap(t, s, p)

	require.NotEmpty(t, rec.ID)
	assert.Equal(t, epoch.UnixNano(), rec.CreatedAt)

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got.Params)
	assert.Equal(t, 6, got.Radius)
	assert.Equal(t, rec.DefinedCells, got.DefinedCells)
	require.NotNil(t, got.MinLag)
	require.NotNil(t, got.MaxLag)
	assert.Equal(t, -*got.MaxLag, *got.MinLag, "mics opposite each other give a symmetric range")
	require.NotNil(t, got.Map)
	assert.True(t, floats.Same(rec.Map.Values(), got.Map.Values()), "grid round trips with NaN cells")
}

func TestLagMapStore_GetNotFound(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLagMapStore_InsertWithoutMap(t *testing.T) {
	s, _ := testStore(t)
	assert.Error(t, s.Insert(&LagMapRecord{ID: "x"}))
}

func TestLagMapStore_EmptyMap(t *testing.T) {
	s, _ := testStore(t)
	p := smallParams()
	p.Diameter = -4
	rec := insertMap(t, s, p)
	assert.Nil(t, rec.MinLag)

	got, err := s.Get(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, -2, got.Radius)
	assert.Equal(t, 0, got.Map.Size())
	assert.Nil(t, got.MinLag)
	assert.Nil(t, got.MaxLag)
}

func TestLagMapStore_FindByParams(t *testing.T) {
	s, clock := testStore(t)
	p := smallParams()

	_, err := s.FindByParams(p)
	assert.True(t, errors.Is(err, ErrNotFound))

	insertMap(t, s, p)
	clock.Advance(time.Minute)
	newer := insertMap(t, s, p)

	other := p
	other.SampleRate = 48000
	clock.Advance(time.Minute)
	insertMap(t, s, other)

	got, err := s.FindByParams(p)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, got.ID, "most recent match wins")
	assert.Equal(t, p, got.Params)

	other.Tolerance = 2
	_, err = s.FindByParams(other)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLagMapStore_List(t *testing.T) {
	s, clock := testStore(t)

	var ids []string
	for k := 0; k < 3; k++ {
		p := smallParams()
		p.Scale = float64(k + 1)
		ids = append(ids, insertMap(t, s, p).ID)
		clock.Advance(time.Second)
	}

	recs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{recs[0].ID, recs[1].ID, recs[2].ID})
	for _, rec := range recs {
		assert.Nil(t, rec.Map, "list omits grids")
	}

	recs, err = s.List(2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestLagMapStore_Delete(t *testing.T) {
	s, _ := testStore(t)
	rec := insertMap(t, s, smallParams())

	require.NoError(t, s.Delete(rec.ID))
	_, err := s.Get(rec.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(s.Delete(rec.ID), ErrNotFound))
}

func TestLagMapStore_Prune(t *testing.T) {
	s, clock := testStore(t)
	insertMap(t, s, smallParams())
	clock.Advance(time.Hour)
	keep := insertMap(t, s, smallParams())

	n, err := s.Prune(epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	recs, err := s.List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, keep.ID, recs[0].ID)
}
