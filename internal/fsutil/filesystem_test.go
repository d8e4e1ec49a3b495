package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryFileSystem_CreateAndRead(t *testing.T) {
	m := NewMemoryFileSystem()

	w, err := m.Create("out/map.png")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("png")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// Not visible until Close.
	if data, _ := m.ReadFile("out/map.png"); len(data) != 0 {
		t.Errorf("data visible before Close: %q", data)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := m.ReadFile("out/./map.png")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "png" {
		t.Errorf("ReadFile = %q, want png", data)
	}

	// Returned data is a copy.
	data[0] = 'X'
	again, _ := m.ReadFile("out/map.png")
	if string(again) != "png" {
		t.Errorf("ReadFile data not isolated: %q", again)
	}
}

func TestMemoryFileSystem_ReadNonExistent(t *testing.T) {
	m := NewMemoryFileSystem()
	_, err := m.ReadFile("missing")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("ReadFile error = %v, want ErrNotExist", err)
	}
}

func TestMemoryFileSystem_MkdirAllAndExists(t *testing.T) {
	m := NewMemoryFileSystem()
	if err := m.MkdirAll("plots/run/2026", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	for _, dir := range []string{"plots", "plots/run", "plots/run/2026"} {
		if !m.Exists(dir) {
			t.Errorf("Exists(%q) = false", dir)
		}
	}
	if m.Exists("other") {
		t.Error("Exists(other) = true")
	}
}

func TestCreateAll(t *testing.T) {
	m := NewMemoryFileSystem()
	w, err := CreateAll(m, "a/b/c.html")
	if err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}
	w.Close()

	if !m.Exists("a/b") {
		t.Error("parent directory not created")
	}
	if got := m.Files(); len(got) != 1 || got[0] != filepath.Clean("a/b/c.html") {
		t.Errorf("Files() = %v", got)
	}
}

func TestOSFileSystem(t *testing.T) {
	osfs := OSFileSystem{}
	path := filepath.Join(t.TempDir(), "nested", "map.html")

	w, err := CreateAll(osfs, path)
	if err != nil {
		t.Fatalf("CreateAll failed: %v", err)
	}
	if _, err := w.Write([]byte("<html>")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if !osfs.Exists(path) {
		t.Error("Exists = false after write")
	}
	data, err := osfs.ReadFile(path)
	if err != nil || string(data) != "<html>" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("directory missing: %v", err)
	}
}
