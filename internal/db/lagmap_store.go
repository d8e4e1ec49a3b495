package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/ghostnote/internal/lagmap"
	"github.com/banshee-data/ghostnote/internal/timeutil"
)

// ErrNotFound is returned when no lag map has the requested id.
var ErrNotFound = errors.New("lag map not found")

// LagMapRecord is a stored lag map and the parameters it was computed from.
type LagMapRecord struct {
	ID           string         `json:"id"`
	Params       lagmap.Params  `json:"params"`
	Radius       int            `json:"radius"`
	DefinedCells int            `json:"defined_cells"`
	MinLag       *float64       `json:"min_lag,omitempty"`
	MaxLag       *float64       `json:"max_lag,omitempty"`
	CreatedAt    int64          `json:"created_at"`
	Map          *lagmap.LagMap `json:"-"`
}

// NewLagMapRecord summarises lm for storage.
func NewLagMapRecord(p lagmap.Params, lm *lagmap.LagMap) *LagMapRecord {
	rec := &LagMapRecord{
		Params:       p,
		Radius:       lm.Radius(),
		DefinedCells: lm.DefinedCount(),
		Map:          lm,
	}
	if lo, hi, ok := lm.Range(); ok {
		rec.MinLag, rec.MaxLag = &lo, &hi
	}
	return rec
}

// LagMapStore reads and writes the lag_maps table.
type LagMapStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewLagMapStore creates a store over db. A nil clock uses the wall clock.
func NewLagMapStore(db *sql.DB, clock timeutil.Clock) *LagMapStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &LagMapStore{db: db, clock: clock}
}

const lagMapColumns = `lag_map_id, mic_a_x, mic_a_y, mic_b_x, mic_b_y,
	diameter_cm, sample_rate_hz, scale, speed_of_sound_mps, tolerance_cm,
	radius, defined_cells, min_lag, max_lag, created_at`

// Insert persists rec. If rec.ID is empty a UUID is generated.
func (s *LagMapStore) Insert(rec *LagMapRecord) error {
	if rec.Map == nil {
		return fmt.Errorf("lag map record %q has no grid", rec.ID)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.clock.Now().UnixNano()
	}
	p := rec.Params

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO lag_maps (
				lag_map_id, mic_a_x, mic_a_y, mic_b_x, mic_b_y,
				diameter_cm, sample_rate_hz, scale, speed_of_sound_mps, tolerance_cm,
				radius, defined_cells, min_lag, max_lag, grid, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, p.MicA.X, p.MicA.Y, p.MicB.X, p.MicB.Y,
			p.Diameter, p.SampleRate, p.Scale, p.SpeedOfSound, p.Tolerance,
			rec.Radius, rec.DefinedCells, rec.MinLag, rec.MaxLag,
			EncodeGrid(rec.Map.Values()), rec.CreatedAt,
		)
		return err
	})
}

// Get returns the record with the given id, grid included.
func (s *LagMapStore) Get(id string) (*LagMapRecord, error) {
	row := s.db.QueryRow(`SELECT `+lagMapColumns+`, grid FROM lag_maps WHERE lag_map_id = ?`, id)
	rec, err := scanLagMap(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lag map %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lag map %s: %w", id, err)
	}
	return rec, nil
}

// FindByParams returns the most recent record computed from exactly p, or
// ErrNotFound.
func (s *LagMapStore) FindByParams(p lagmap.Params) (*LagMapRecord, error) {
	row := s.db.QueryRow(`
		SELECT `+lagMapColumns+`, grid FROM lag_maps
		WHERE mic_a_x = ? AND mic_a_y = ? AND mic_b_x = ? AND mic_b_y = ?
		  AND diameter_cm = ? AND sample_rate_hz = ? AND scale = ?
		  AND speed_of_sound_mps = ? AND tolerance_cm = ?
		ORDER BY created_at DESC
		LIMIT 1`,
		p.MicA.X, p.MicA.Y, p.MicB.X, p.MicB.Y,
		p.Diameter, p.SampleRate, p.Scale, p.SpeedOfSound, p.Tolerance,
	)
	rec, err := scanLagMap(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find lag map: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, newest first, without their grids.
// A limit of 0 or less returns every record.
func (s *LagMapStore) List(limit int) ([]*LagMapRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+lagMapColumns+` FROM lag_maps ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lag maps: %w", err)
	}
	defer rows.Close()

	var recs []*LagMapRecord
	for rows.Next() {
		rec, err := scanLagMap(rows, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lag map: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes the record with the given id.
func (s *LagMapStore) Delete(id string) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM lag_maps WHERE lag_map_id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("lag map %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// Prune deletes records created before cutoff and returns how many went.
func (s *LagMapStore) Prune(cutoff time.Time) (int64, error) {
	var n int64
	err := retryOnBusy(func() error {
		res, err := s.db.Exec(`DELETE FROM lag_maps WHERE created_at < ?`, cutoff.UnixNano())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLagMap(sc rowScanner, withGrid bool) (*LagMapRecord, error) {
	var (
		rec            LagMapRecord
		p              = &rec.Params
		minLag, maxLag sql.NullFloat64
		blob           []byte
	)
	dest := []interface{}{
		&rec.ID, &p.MicA.X, &p.MicA.Y, &p.MicB.X, &p.MicB.Y,
		&p.Diameter, &p.SampleRate, &p.Scale, &p.SpeedOfSound, &p.Tolerance,
		&rec.Radius, &rec.DefinedCells, &minLag, &maxLag, &rec.CreatedAt,
	}
	if withGrid {
		dest = append(dest, &blob)
	}
	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}
	if minLag.Valid {
		rec.MinLag = &minLag.Float64
	}
	if maxLag.Valid {
		rec.MaxLag = &maxLag.Float64
	}
	if !withGrid {
		return &rec, nil
	}

	values, err := DecodeGrid(blob)
	if err != nil {
		return nil, err
	}
	lm, ok := lagmap.FromValues(rec.Radius, values)
	if !ok {
		return nil, fmt.Errorf("grid has %d cells, which does not fit radius %d", len(values), rec.Radius)
	}
	rec.Map = lm
	return &rec, nil
}
