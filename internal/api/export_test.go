package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"convoscope/pkg/db"
	"convoscope/pkg/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	d, err := db.Init(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return store.NewSQLiteStore(d)
}

func TestExportHandler_HandleListExports(t *testing.T) {
	st := newTestStore(t)
	if err := st.RecordExport(context.Background(), "exp-1", "/tmp/out.json", 3); err != nil {
		t.Fatal(err)
	}
	h := NewExportHandler(nil, nil, newTestLibrary(t), st, t.TempDir(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/exports", nil)
	rec := httptest.NewRecorder()
	h.HandleListExports(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Exports []ExportRunDTO `json:"exports"`
		Count   int            `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || len(resp.Exports) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Exports[0].ExportID != "exp-1" || resp.Exports[0].TotalConversations != 3 {
		t.Errorf("run = %+v", resp.Exports[0])
	}
}

func TestExportHandler_HandleListExports_NoStore(t *testing.T) {
	h := NewExportHandler(nil, nil, newTestLibrary(t), nil, t.TempDir(), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/exports", nil)
	rec := httptest.NewRecorder()
	h.HandleListExports(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
}
