// Command lagmap computes the sample lag map for two sensors on a drum
// membrane, writes it as PNG and/or HTML, optionally caches it in SQLite and
// optionally serves the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/ghostnote/internal/api"
	"github.com/banshee-data/ghostnote/internal/config"
	"github.com/banshee-data/ghostnote/internal/db"
	"github.com/banshee-data/ghostnote/internal/fsutil"
	"github.com/banshee-data/ghostnote/internal/lagmap"
	"github.com/banshee-data/ghostnote/internal/monitoring"
	"github.com/banshee-data/ghostnote/internal/render"
	"github.com/banshee-data/ghostnote/internal/units"
	"github.com/banshee-data/ghostnote/internal/version"
)

// cliFlags holds the command line options.
type cliFlags struct {
	configFile string
	micA, micB string
	diameter   float64
	units      string
	sampleRate float64
	scale      float64
	speed      float64
	tolerance  float64
	workers    int
	png, html  string
	dbPath     string
	prune      time.Duration
	migrate    string
	listen     string
	debug      bool
	version    bool
}

func newFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{}
	fs.StringVar(&f.configFile, "config", "", "Path to a JSON lag map config (defaults are built in)")
	fs.StringVar(&f.micA, "mic-a", "", "Mic A as fraction,degrees of the membrane radius (e.g. 1,0)")
	fs.StringVar(&f.micB, "mic-b", "", "Mic B as fraction,degrees of the membrane radius (e.g. 1,180)")
	fs.Float64Var(&f.diameter, "diameter", 0, "Membrane diameter in -units")
	fs.StringVar(&f.units, "units", "", "Units for -diameter: "+units.GetValidUnitsString())
	fs.Float64Var(&f.sampleRate, "sr", 0, "Sample rate in Hz")
	fs.Float64Var(&f.scale, "scale", 0, "Grid cells per centimetre")
	fs.Float64Var(&f.speed, "c", 0, "Speed of sound in m/s")
	fs.Float64Var(&f.tolerance, "tol", 0, "Mask tolerance beyond the membrane edge in cm")
	fs.IntVar(&f.workers, "workers", 0, "Worker goroutines per map (0 = GOMAXPROCS)")
	fs.StringVar(&f.png, "png", "", "Write a PNG heatmap to this path")
	fs.StringVar(&f.html, "html", "", "Write an echarts HTML heatmap to this path")
	fs.StringVar(&f.dbPath, "db", "", "SQLite lag map cache (enables /api/lagmaps)")
	fs.DurationVar(&f.prune, "prune-older-than", 0, "Delete cached lag maps older than this before storing (e.g. 720h)")
	fs.StringVar(&f.migrate, "migrate", "", "Run a schema action on -db and exit: up, down or version")
	fs.StringVar(&f.listen, "listen", "", "Serve the HTTP API on this address, e.g. :8080")
	fs.BoolVar(&f.debug, "debug", false, "Log engine diagnostics to stderr")
	fs.BoolVar(&f.version, "version", false, "Print version information and exit")
	return f
}

// outputs are the destinations for one run.
type outputs struct {
	png, html string
	dbPath    string
	prune     time.Duration
	listen    string
}

func main() {
	f := newFlags(flag.CommandLine)
	flag.Parse()

	if f.version {
		fmt.Println(version.String("lagmap"))
		return
	}
	if f.debug {
		lagmap.SetDebugLogger(os.Stderr)
	}

	if f.migrate != "" {
		if _, err := runMigrate(f.dbPath, f.migrate); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	cfg, err := buildConfig(flag.CommandLine, f)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := outputs{png: f.png, html: f.html, dbPath: f.dbPath, prune: f.prune, listen: f.listen}
	if err := run(ctx, cfg, out, fsutil.OSFileSystem{}); err != nil {
		log.Fatal(err)
	}
}

// buildConfig loads -config (or the built-in defaults) and applies every flag
// that was set on fs.
func buildConfig(fs *flag.FlagSet, f *cliFlags) (*config.LagConfig, error) {
	cfg := config.DefaultLagConfig()
	if f.configFile != "" {
		loaded, err := config.LoadLagConfig(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	var errs []error
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "mic-a", "mic-b":
			sensor, err := config.ParseSensor(fl.Value.String())
			if err != nil {
				errs = append(errs, fmt.Errorf("-%s: %w", fl.Name, err))
				return
			}
			if fl.Name == "mic-a" {
				cfg.MicA = sensor
			} else {
				cfg.MicB = sensor
			}
		case "diameter":
			cfg.Diameter = &f.diameter
		case "units":
			// Without -diameter, keep the configured length and re-express it.
			if !set["diameter"] && units.IsValid(f.units) {
				d := units.ConvertLength(cfg.GetDiameterCM(), units.CM, f.units)
				cfg.Diameter = &d
			}
			cfg.DiameterUnits = &f.units
		case "sr":
			cfg.SampleRateHz = &f.sampleRate
		case "scale":
			cfg.Scale = &f.scale
		case "c":
			cfg.SpeedOfSoundMPS = &f.speed
		case "tol":
			cfg.ToleranceCM = &f.tolerance
		case "workers":
			cfg.Workers = &f.workers
		}
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newEngine(cfg *config.LagConfig) *lagmap.Engine {
	if n := cfg.GetWorkers(); n > 0 {
		return &lagmap.Engine{Workers: n}
	}
	return lagmap.NewEngine()
}

func run(ctx context.Context, cfg *config.LagConfig, out outputs, fsys fsutil.FileSystem) error {
	engine := newEngine(cfg)
	p := cfg.Params()

	done := monitoring.Timed("lagmap d=%.2fcm scale=%g workers=%d", p.Diameter, p.Scale, engine.Workers)
	lm := engine.Compute(p)
	done()

	if lo, hi, ok := lm.Range(); ok {
		monitoring.Logf("radius=%d cells defined=%d lag range [%g, %g] samples", lm.Radius(), lm.DefinedCount(), lo, hi)
	} else {
		monitoring.Logf("radius=%d cells: no cells inside the membrane", lm.Radius())
	}

	if err := saveFigures(fsys, engine, p, out.png, out.html); err != nil {
		return err
	}

	var store *db.LagMapStore
	var database *db.DB
	if out.dbPath != "" {
		var err error
		database, err = db.Open(out.dbPath)
		if err != nil {
			return fmt.Errorf("failed to open lag map cache: %w", err)
		}
		defer database.Close()

		store = db.NewLagMapStore(database.DB, nil)
		if out.prune > 0 {
			n, err := store.Prune(time.Now().Add(-out.prune))
			if err != nil {
				return fmt.Errorf("failed to prune lag map cache: %w", err)
			}
			monitoring.Logf("pruned %d lag maps older than %s", n, out.prune)
		}
		id, err := storeMap(store, p, lm)
		if err != nil {
			return err
		}
		monitoring.Logf("lag map %s in %s", id, out.dbPath)
	}

	if out.listen == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/", api.NewServer(cfg, engine, store).ServeMux())
	if database != nil {
		database.AttachAdminRoutes(mux)
	}
	return api.Run(ctx, out.listen, api.LoggingMiddleware(mux))
}

// saveFigures writes each non-empty path. Figures are computed without the
// mask tolerance, so the stored map and the plotted one can differ at the rim.
func saveFigures(fsys fsutil.FileSystem, engine *lagmap.Engine, p lagmap.Params, paths ...string) error {
	var fig *render.Figure
	for _, path := range paths {
		if path == "" {
			continue
		}
		if fig == nil {
			fig = render.FigureFromParams(engine, p)
		}
		if err := render.SaveFile(fsys, path, fig); err != nil {
			return err
		}
		monitoring.Logf("wrote %s", path)
	}
	return nil
}

// storeMap saves lm unless a map with identical parameters is already cached.
func storeMap(store *db.LagMapStore, p lagmap.Params, lm *lagmap.LagMap) (string, error) {
	rec, err := store.FindByParams(p)
	if err == nil {
		return rec.ID, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return "", err
	}
	rec = db.NewLagMapRecord(p, lm)
	if err := store.Insert(rec); err != nil {
		return "", fmt.Errorf("failed to store lag map: %w", err)
	}
	return rec.ID, nil
}

// runMigrate applies a schema action to the cache at dbPath and returns the
// resulting version. Opening the cache already applies pending migrations.
func runMigrate(dbPath, action string) (uint, error) {
	if dbPath == "" {
		return 0, errors.New("-migrate requires -db")
	}
	if action != "up" && action != "down" && action != "version" {
		return 0, fmt.Errorf("unknown action %q (want up, down or version)", action)
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open lag map cache: %w", err)
	}
	defer database.Close()

	if action == "down" {
		if err := database.MigrateDown(); err != nil {
			return 0, err
		}
	}
	v, dirty, err := database.MigrateVersion()
	if err != nil {
		return 0, err
	}
	monitoring.Logf("%s: schema version %d (dirty=%v)", dbPath, v, dirty)
	return v, nil
}
