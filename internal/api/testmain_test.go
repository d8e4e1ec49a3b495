package api

import (
	"os"
	"testing"

	"github.com/banshee-data/ghostnote/internal/monitoring"
)

func TestMain(m *testing.M) {
	// Request logs are noise in test output.
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}
