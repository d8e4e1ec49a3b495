// Package api serves lag maps over HTTP as JSON, echarts HTML and PNG, and
// manages the SQLite lag map cache.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/ghostnote/internal/config"
	"github.com/banshee-data/ghostnote/internal/db"
	"github.com/banshee-data/ghostnote/internal/lagmap"
	"github.com/banshee-data/ghostnote/internal/monitoring"
)

// ANSI escape codes used by the request log.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// maxGridRadius bounds the maps computed on behalf of HTTP callers.
const maxGridRadius = 2000

type Server struct {
	cfg    *config.LagConfig
	engine *lagmap.Engine
	store  *db.LagMapStore
}

// NewServer returns a server computing maps with engine. Query parameters
// override cfg. store may be nil, in which case the /api/lagmaps routes
// answer 503.
func NewServer(cfg *config.LagConfig, engine *lagmap.Engine, store *db.LagMapStore) *Server {
	if cfg == nil {
		cfg = config.DefaultLagConfig()
	}
	if engine == nil {
		engine = lagmap.NewEngine()
	}
	return &Server{cfg: cfg, engine: engine, store: store}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		monitoring.Logf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the routes served by s.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/lagmap", s.handleLagMap)
	mux.HandleFunc("/charts/lagmap", s.handleLagMapChart)
	mux.HandleFunc("/plots/lagmap.png", s.handleLagMapPNG)
	mux.HandleFunc("/api/locate", s.handleLocate)
	mux.HandleFunc("/api/lagmaps", s.handleLagMaps)
	mux.HandleFunc("/api/lagmaps/", s.handleLagMapByID)
	return mux
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start server: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}
	return <-errCh
}
