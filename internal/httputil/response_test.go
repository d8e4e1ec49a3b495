package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONError(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusBadRequest, "bad mic")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %s, want application/json", ct)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["error"] != "bad mic" {
		t.Errorf("error = %s, want 'bad mic'", resp["error"])
	}
}

func TestWriteJSONOK(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteJSONOK(rec, map[string]int{"radius": 18})

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var resp map[string]int
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["radius"] != 18 {
		t.Errorf("radius = %d, want 18", resp["radius"])
	}
}

func TestWriteBytes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteBytes(rec, "image/png", []byte("abc"))

	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("content-type = %s, want image/png", ct)
	}
	if cl := rec.Header().Get("Content-Length"); cl != "3" {
		t.Errorf("content-length = %s, want 3", cl)
	}
	if rec.Body.String() != "abc" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStatusHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fn   func(http.ResponseWriter)
		want int
	}{
		{"method not allowed", MethodNotAllowed, http.StatusMethodNotAllowed},
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "x") }, http.StatusBadRequest},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "x") }, http.StatusNotFound},
		{"internal", func(w http.ResponseWriter) { InternalServerError(w, "x") }, http.StatusInternalServerError},
		{"no content", NoContent, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.fn(rec)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestQueryFloat(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/?sr=48000&scale=&c=fast", nil)

	if v, err := QueryFloat(r, "sr", 96000); err != nil || v != 48000 {
		t.Errorf("QueryFloat(sr) = %v, %v", v, err)
	}
	if v, err := QueryFloat(r, "scale", 1); err != nil || v != 1 {
		t.Errorf("QueryFloat(scale) = %v, %v, want default", v, err)
	}
	if v, err := QueryFloat(r, "tol", 2); err != nil || v != 2 {
		t.Errorf("QueryFloat(tol) = %v, %v, want default", v, err)
	}
	if _, err := QueryFloat(r, "c", 343); err == nil {
		t.Error("QueryFloat(c) should fail for non-numeric value")
	}

	for _, raw := range []string{"NaN", "nan", "Inf", "-Inf", "infinity"} {
		r := httptest.NewRequest(http.MethodGet, "/?tol="+raw, nil)
		if _, err := QueryFloat(r, "tol", 1); err == nil || !strings.Contains(err.Error(), "finite") {
			t.Errorf("QueryFloat(tol=%s) error = %v, want finite error", raw, err)
		}
	}
}

func TestQueryInt(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=1.5", nil)

	if v, err := QueryInt(r, "limit", 0); err != nil || v != 5 {
		t.Errorf("QueryInt(limit) = %v, %v", v, err)
	}
	if v, err := QueryInt(r, "missing", 7); err != nil || v != 7 {
		t.Errorf("QueryInt(missing) = %v, %v", v, err)
	}
	if _, err := QueryInt(r, "bad", 0); err == nil {
		t.Error("QueryInt(bad) should fail")
	}
}
