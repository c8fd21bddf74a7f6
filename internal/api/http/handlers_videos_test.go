package apihttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vodstream/internal/domain"
)

type fakeListVideosUC struct {
	videos []domain.VideoRecord
	err    error
}

func (f *fakeListVideosUC) Execute(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error) {
	return f.videos, f.err
}

type fakeDeleteVideoUC struct {
	calls        int
	lastID       domain.VideoID
	lastDeleteOg bool
	err          error
}

func (f *fakeDeleteVideoUC) Execute(ctx context.Context, id domain.VideoID, deleteOriginal bool) error {
	f.calls++
	f.lastID = id
	f.lastDeleteOg = deleteOriginal
	return f.err
}

func TestListVideos(t *testing.T) {
	uc := &fakeListVideosUC{videos: []domain.VideoRecord{
		{ID: "v1", Title: "First", Status: domain.VideoReady},
		{ID: "v2", Title: "Second", Status: domain.VideoProcessing},
	}}
	s := NewServer(&fakeStreamUC{}, WithListVideos(uc))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodGet, "/videos?limit=10", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var videos []domain.VideoRecord
	if err := json.NewDecoder(w.Body).Decode(&videos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
}

func TestListVideosEmptyIsArray(t *testing.T) {
	s := NewServer(&fakeStreamUC{}, WithListVideos(&fakeListVideosUC{}))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodGet, "/videos", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Fatalf("body = %q, want empty JSON array", body)
	}
}

func TestGetVideoByID(t *testing.T) {
	record := domain.VideoRecord{ID: "v1", Title: "Movie", Status: domain.VideoReady}
	s := NewServer(&fakeStreamUC{}, WithGetVideo(&fakeGetVideoUC{record: record}))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodGet, "/videos/v1", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got domain.VideoRecord
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.ID != "v1" || got.Title != "Movie" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestGetVideoNotFound(t *testing.T) {
	s := NewServer(&fakeStreamUC{}, WithGetVideo(&fakeGetVideoUC{err: domain.ErrNotFound}))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodGet, "/videos/missing", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestDeleteVideo(t *testing.T) {
	uc := &fakeDeleteVideoUC{}
	s := NewServer(&fakeStreamUC{}, WithDeleteVideo(uc))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodDelete, "/videos/v1?deleteFile=true", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if uc.calls != 1 || uc.lastID != "v1" || !uc.lastDeleteOg {
		t.Fatalf("unexpected delete call: %+v", uc)
	}
}

type fakeSavePositionUC struct {
	saved domain.WatchPosition
	err   error
}

func (f *fakeSavePositionUC) Execute(ctx context.Context, wp domain.WatchPosition) error {
	f.saved = wp
	return f.err
}

type fakeGetPositionUC struct {
	wp  domain.WatchPosition
	err error
}

func (f *fakeGetPositionUC) Execute(ctx context.Context, id domain.VideoID) (domain.WatchPosition, error) {
	return f.wp, f.err
}

type fakeListHistoryUC struct {
	items []domain.WatchPosition
	err   error
}

func (f *fakeListHistoryUC) Execute(ctx context.Context, limit int) ([]domain.WatchPosition, error) {
	return f.items, f.err
}

func TestSaveWatchPosition(t *testing.T) {
	save := &fakeSavePositionUC{}
	s := NewServer(&fakeStreamUC{}, WithWatchHistory(save, &fakeGetPositionUC{}, &fakeListHistoryUC{}))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodPut, "/watch-history/v1", strings.NewReader(`{"position":120.5,"duration":3600}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
	if save.saved.VideoID != "v1" || save.saved.Position != 120.5 || save.saved.Duration != 3600 {
		t.Fatalf("unexpected saved position: %+v", save.saved)
	}
}

func TestVideoPositionRoute(t *testing.T) {
	save := &fakeSavePositionUC{}
	get := &fakeGetPositionUC{wp: domain.WatchPosition{VideoID: "v1", Position: 42}}
	s := NewServer(&fakeStreamUC{}, WithWatchHistory(save, get, &fakeListHistoryUC{}))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodPut, "/videos/v1/position", strings.NewReader(`{"position":15}`))
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d, want 204", w.Code)
	}
	if save.saved.VideoID != "v1" || save.saved.Position != 15 {
		t.Fatalf("unexpected saved position: %+v", save.saved)
	}

	req = httptest.NewRequest(http.MethodGet, "/videos/v1/position", nil)
	w = httptest.NewRecorder()
	s.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d, want 200", w.Code)
	}
	var wp domain.WatchPosition
	if err := json.NewDecoder(w.Body).Decode(&wp); err != nil {
		t.Fatalf("decode position: %v", err)
	}
	if wp.Position != 42 {
		t.Fatalf("position = %v, want 42", wp.Position)
	}
}

func TestGetWatchPosition(t *testing.T) {
	get := &fakeGetPositionUC{wp: domain.WatchPosition{
		VideoID:   "v1",
		Position:  42,
		UpdatedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}}
	s := NewServer(&fakeStreamUC{}, WithWatchHistory(&fakeSavePositionUC{}, get, &fakeListHistoryUC{}))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodGet, "/watch-history/v1", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var wp domain.WatchPosition
	if err := json.NewDecoder(w.Body).Decode(&wp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if wp.VideoID != "v1" || wp.Position != 42 {
		t.Fatalf("unexpected position: %+v", wp)
	}
}

func TestWatchHistoryList(t *testing.T) {
	list := &fakeListHistoryUC{items: []domain.WatchPosition{
		{VideoID: "v1", Position: 10},
		{VideoID: "v2", Position: 20},
	}}
	s := NewServer(&fakeStreamUC{}, WithWatchHistory(&fakeSavePositionUC{}, &fakeGetPositionUC{}, list))
	t.Cleanup(s.Close)

	req := httptest.NewRequest(http.MethodGet, "/watch-history?limit=5", nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var items []domain.WatchPosition
	if err := json.NewDecoder(w.Body).Decode(&items); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
}
