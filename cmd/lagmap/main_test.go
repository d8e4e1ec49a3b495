package main

import (
	"bytes"
	"context"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/ghostnote/internal/config"
	"github.com/banshee-data/ghostnote/internal/db"
	"github.com/banshee-data/ghostnote/internal/fsutil"
	"github.com/banshee-data/ghostnote/internal/monitoring"
)

func smallConfig(t *testing.T) *config.LagConfig {
	t.Helper()
	fs, f := parseFlags(t, "-diameter", "12", "-units", "cm", "-workers", "2")
	cfg, err := buildConfig(fs, f)
	require.NoError(t, err)
	return cfg
}

func TestRun_WritesOutputsAndCaches(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	defer monitoring.SetLogger(log.Printf)

	fsys := fsutil.NewMemoryFileSystem()
	dbPath := filepath.Join(t.TempDir(), "cache.db")
	out := outputs{png: "plots/snare.png", html: "plots/snare.html", dbPath: dbPath}

	cfg := smallConfig(t)
	require.NoError(t, run(context.Background(), cfg, out, fsys))
	// A second run with the same parameters reuses the cached row.
	require.NoError(t, run(context.Background(), cfg, out, fsys))

	assert.Equal(t, []string{"plots/snare.html", "plots/snare.png"}, fsys.Files())
	data, err := fsys.ReadFile("plots/snare.png")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")))

	database, err := db.Open(dbPath)
	require.NoError(t, err)
	defer database.Close()
	recs, err := db.NewLagMapStore(database.DB, nil).List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 6, recs[0].Radius)
}

func TestRun_FiguresIgnoreTolerance(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	defer monitoring.SetLogger(log.Printf)

	fsys := fsutil.NewMemoryFileSystem()
	cfg := smallConfig(t)
	require.Equal(t, 1.0, cfg.GetToleranceCM())
	require.NoError(t, run(context.Background(), cfg, outputs{html: "snare.html"}, fsys))

	data, err := fsys.ReadFile("snare.html")
	require.NoError(t, err)
	// Radius 6: (5, 4) lies within 6+1 cells but outside the rim.
	assert.Contains(t, string(data), `"value":[11,6,`, "(5, 0) is drawn")
	assert.NotContains(t, string(data), `"value":[11,10,`, "(5, 4) is masked")
}

func TestRun_PruneOlderThan(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	defer monitoring.SetLogger(log.Printf)

	dbPath := filepath.Join(t.TempDir(), "cache.db")
	fsys := fsutil.NewMemoryFileSystem()
	require.NoError(t, run(context.Background(), smallConfig(t), outputs{dbPath: dbPath}, fsys))

	fs, f := parseFlags(t, "-diameter", "8", "-units", "cm", "-workers", "2")
	cfg, err := buildConfig(fs, f)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	require.NoError(t, run(context.Background(), cfg, outputs{dbPath: dbPath, prune: time.Nanosecond}, fsys))

	database, err := db.Open(dbPath)
	require.NoError(t, err)
	defer database.Close()
	recs, err := db.NewLagMapStore(database.DB, nil).List(0)
	require.NoError(t, err)
	require.Len(t, recs, 1, "the older map is pruned before the new one is stored")
	assert.Equal(t, 4, recs[0].Radius)
}

func TestRunMigrate(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	defer monitoring.SetLogger(log.Printf)

	dbPath := filepath.Join(t.TempDir(), "cache.db")

	v, err := runMigrate(dbPath, "up")
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	v, err = runMigrate(dbPath, "down")
	require.NoError(t, err)
	assert.Equal(t, uint(0), v)

	// Opening the cache reapplies pending migrations.
	v, err = runMigrate(dbPath, "version")
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	_, err = runMigrate("", "up")
	assert.ErrorContains(t, err, "-db")
	_, err = runMigrate(dbPath, "sideways")
	assert.ErrorContains(t, err, "unknown action")
}

func TestRun_BadOutputExtension(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	defer monitoring.SetLogger(log.Printf)

	err := run(context.Background(), smallConfig(t), outputs{png: "snare.gif"}, fsutil.NewMemoryFileSystem())
	assert.Error(t, err)
}

func TestNewEngine(t *testing.T) {
	cfg := config.DefaultLagConfig()
	assert.Greater(t, newEngine(cfg).Workers, 0)

	fs, f := parseFlags(t, "-workers", "5")
	cfg, err := buildConfig(fs, f)
	require.NoError(t, err)
	assert.Equal(t, 5, newEngine(cfg).Workers)
}
