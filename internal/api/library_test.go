package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"convoscope/pkg/library"
)

func newTestLibrary(t *testing.T) *library.Library {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{
		"ivy_match_start_ivy_vex_convo1_1.mp3",
		"ivy_match_start_ivy_vex_convo1_2.mp3",
		"ash_match_start_ash_ivy_convo2_1.mp3",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("mp3"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	lib := library.New(dir, nil)
	if err := lib.Rescan(); err != nil {
		t.Fatal(err)
	}
	return lib
}

func TestLibraryHandler_HandleCharacters(t *testing.T) {
	h := NewLibraryHandler(newTestLibrary(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/characters", nil)
	rec := httptest.NewRecorder()
	h.HandleCharacters(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Characters []string `json:"characters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	want := []string{"ash", "ivy", "vex"}
	if len(resp.Characters) != len(want) {
		t.Fatalf("characters = %v", resp.Characters)
	}
	for i, c := range want {
		if resp.Characters[i] != c {
			t.Errorf("characters[%d] = %q, want %q", i, resp.Characters[i], c)
		}
	}
}

func TestLibraryHandler_HandleList(t *testing.T) {
	h := NewLibraryHandler(newTestLibrary(t), nil)

	tests := []struct {
		name   string
		target string
		status int
		count  int
	}{
		{"all partners", "/api/conversations?char1=ivy", http.StatusOK, 2},
		{"specific pair", "/api/conversations?char1=ivy&char2=vex", http.StatusOK, 1},
		{"missing char1", "/api/conversations", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rec := httptest.NewRecorder()
			h.HandleList(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}
			var resp struct {
				Count int `json:"count"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Count != tt.count {
				t.Errorf("count = %d, want %d", resp.Count, tt.count)
			}
		})
	}
}

func TestLibraryHandler_HandleGet(t *testing.T) {
	h := NewLibraryHandler(newTestLibrary(t), nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/conversations/{id}", h.HandleGet)

	req := httptest.NewRequest(http.MethodGet, "/api/conversations/ivy_vex_convo1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		ID       string `json:"id"`
		Complete bool   `json:"complete"`
		Parts    []struct {
			Part int `json:"part"`
		} `json:"parts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != "ivy_vex_convo1" || !resp.Complete || len(resp.Parts) != 2 {
		t.Errorf("resp = %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/conversations/nope_nope_convo9", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestLibraryHandler_HandleRescan(t *testing.T) {
	lib := newTestLibrary(t)
	hub := NewHub()
	h := NewLibraryHandler(lib, hub)

	req := httptest.NewRequest(http.MethodPost, "/api/library/rescan", nil)
	rec := httptest.NewRecorder()
	h.HandleRescan(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Status string `json:"status"`
		Stats  struct {
			Conversations int `json:"conversations"`
		} `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Stats.Conversations != 2 {
		t.Errorf("resp = %+v", resp)
	}
}
