package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vodstream/internal/domain"
	"vodstream/internal/transcode"
)

type fakeVideoRepo struct {
	records     map[domain.VideoID]domain.VideoRecord
	getErr      error
	listErr     error
	deleteCalls int
	deletedID   domain.VideoID
	viewCounts  map[domain.VideoID]int
}

func newFakeVideoRepo(records ...domain.VideoRecord) *fakeVideoRepo {
	repo := &fakeVideoRepo{
		records:    map[domain.VideoID]domain.VideoRecord{},
		viewCounts: map[domain.VideoID]int{},
	}
	for _, r := range records {
		repo.records[r.ID] = r
	}
	return repo
}

func (f *fakeVideoRepo) Create(ctx context.Context, v domain.VideoRecord) error {
	f.records[v.ID] = v
	return nil
}

func (f *fakeVideoRepo) Get(ctx context.Context, id domain.VideoID) (domain.VideoRecord, error) {
	if f.getErr != nil {
		return domain.VideoRecord{}, f.getErr
	}
	r, ok := f.records[id]
	if !ok {
		return domain.VideoRecord{}, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeVideoRepo) List(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.VideoRecord
	for _, r := range f.records {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeVideoRepo) Delete(ctx context.Context, id domain.VideoID) error {
	f.deleteCalls++
	f.deletedID = id
	if _, ok := f.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeVideoRepo) IncrementViewCount(ctx context.Context, id domain.VideoID) error {
	f.viewCounts[id]++
	return nil
}

type fakeHistoryRepo struct {
	positions   map[domain.VideoID]domain.WatchPosition
	deleteCalls int
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{positions: map[domain.VideoID]domain.WatchPosition{}}
}

func (f *fakeHistoryRepo) Upsert(ctx context.Context, wp domain.WatchPosition) error {
	f.positions[wp.VideoID] = wp
	return nil
}

func (f *fakeHistoryRepo) Get(ctx context.Context, id domain.VideoID) (domain.WatchPosition, error) {
	wp, ok := f.positions[id]
	if !ok {
		return domain.WatchPosition{}, domain.ErrNotFound
	}
	return wp, nil
}

func (f *fakeHistoryRepo) ListRecent(ctx context.Context, limit int) ([]domain.WatchPosition, error) {
	var out []domain.WatchPosition
	for _, wp := range f.positions {
		out = append(out, wp)
	}
	return out, nil
}

func (f *fakeHistoryRepo) Delete(ctx context.Context, id domain.VideoID) error {
	f.deleteCalls++
	delete(f.positions, id)
	return nil
}

type fakeResolver struct {
	resolved domain.Quality
}

func (f fakeResolver) Resolve(ctx context.Context, video domain.VideoRecord, requested domain.Quality) domain.Quality {
	if f.resolved != "" {
		return f.resolved
	}
	return requested
}

type fakeArtifacts struct {
	path     string
	lastMode transcode.Mode
	calls    int
}

func (f *fakeArtifacts) Obtain(ctx context.Context, video domain.VideoRecord, q domain.Quality, mode transcode.Mode) string {
	f.calls++
	f.lastMode = mode
	if f.path != "" {
		return f.path
	}
	return video.FilePath
}

func testVideo(t *testing.T) domain.VideoRecord {
	t.Helper()
	path := filepath.Join(t.TempDir(), "movie.mp4")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatalf("write original: %v", err)
	}
	return domain.VideoRecord{
		ID:       "v1",
		Title:    "Movie",
		FilePath: path,
		Height:   1080,
		Duration: 3600,
		Status:   domain.VideoReady,
	}
}

func TestStreamVideoResolvesAndObtains(t *testing.T) {
	video := testVideo(t)
	repo := newFakeVideoRepo(video)
	artifacts := &fakeArtifacts{path: "/cache/movie_720p.mp4"}
	uc := StreamVideo{Repo: repo, Resolver: fakeResolver{resolved: domain.Quality720p}, Artifacts: artifacts}

	result, err := uc.Execute(context.Background(), video.ID, domain.Quality720p, transcode.ModeSync)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Path != "/cache/movie_720p.mp4" {
		t.Fatalf("path = %q", result.Path)
	}
	if result.Quality != domain.Quality720p {
		t.Fatalf("quality = %q", result.Quality)
	}
	if artifacts.lastMode != transcode.ModeSync {
		t.Fatalf("mode = %q, want sync", artifacts.lastMode)
	}
}

func TestStreamVideoRejectsUnknownQuality(t *testing.T) {
	video := testVideo(t)
	uc := StreamVideo{Repo: newFakeVideoRepo(video), Resolver: fakeResolver{}, Artifacts: &fakeArtifacts{}}

	_, err := uc.Execute(context.Background(), video.ID, "240p", transcode.ModeSync)
	if !errors.Is(err, domain.ErrInvalidQuality) {
		t.Fatalf("err = %v, want ErrInvalidQuality", err)
	}
}

func TestStreamVideoMissingRecord(t *testing.T) {
	uc := StreamVideo{Repo: newFakeVideoRepo(), Resolver: fakeResolver{}, Artifacts: &fakeArtifacts{}}

	_, err := uc.Execute(context.Background(), "missing", domain.QualityOriginal, transcode.ModeSync)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStreamVideoMissingFileOnDisk(t *testing.T) {
	video := testVideo(t)
	if err := os.Remove(video.FilePath); err != nil {
		t.Fatalf("remove original: %v", err)
	}
	uc := StreamVideo{Repo: newFakeVideoRepo(video), Resolver: fakeResolver{}, Artifacts: &fakeArtifacts{}}

	_, err := uc.Execute(context.Background(), video.ID, domain.QualityOriginal, transcode.ModeSync)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

type fakeQualityLister struct {
	qualities []domain.Quality
}

func (f fakeQualityLister) AvailableQualities(ctx context.Context, originalPath string) []domain.Quality {
	return f.qualities
}

func TestListQualitiesMarksAvailability(t *testing.T) {
	video := testVideo(t)
	uc := ListQualities{
		Repo:  newFakeVideoRepo(video),
		Cache: fakeQualityLister{qualities: []domain.Quality{domain.Quality720p}},
	}

	result, err := uc.Execute(context.Background(), video.ID)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Qualities) != len(domain.TranscodableQualities)+1 {
		t.Fatalf("got %d entries, want %d", len(result.Qualities), len(domain.TranscodableQualities)+1)
	}
	byQuality := map[domain.Quality]QualityInfo{}
	for _, info := range result.Qualities {
		byQuality[info.Quality] = info
	}
	if !byQuality[domain.QualityOriginal].Available {
		t.Fatal("original must always be available")
	}
	if !byQuality[domain.Quality720p].Available {
		t.Fatal("720p should be available")
	}
	if byQuality[domain.Quality1080p].Available {
		t.Fatal("1080p should not be available")
	}
	if byQuality[domain.Quality720p].Resolution != "1280x720" {
		t.Fatalf("720p resolution = %q", byQuality[domain.Quality720p].Resolution)
	}
}

type fakeHLSPipeline struct {
	progress     domain.ConversionProgress
	started      bool
	convertCalls int
	cancelCalls  int
	removeCalls  int
	removedPath  string
}

func (f *fakeHLSPipeline) Convert(video domain.VideoRecord, qualities []domain.Quality) (domain.ConversionProgress, bool) {
	f.convertCalls++
	return f.progress, f.started
}

func (f *fakeHLSPipeline) Progress(video domain.VideoRecord) domain.ConversionProgress {
	return f.progress
}

func (f *fakeHLSPipeline) Cancel(id domain.VideoID) { f.cancelCalls++ }

func (f *fakeHLSPipeline) Remove(originalPath string) error {
	f.removeCalls++
	f.removedPath = originalPath
	return nil
}

func TestConvertHLSStartsJob(t *testing.T) {
	video := testVideo(t)
	pipeline := &fakeHLSPipeline{
		progress: domain.ConversionProgress{VideoID: video.ID, Status: domain.ConversionRunning},
		started:  true,
	}
	uc := ConvertHLS{Repo: newFakeVideoRepo(video), Pipeline: pipeline}

	progress, started, err := uc.Execute(context.Background(), video.ID, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !started {
		t.Fatal("expected a started job")
	}
	if progress.Status != domain.ConversionRunning {
		t.Fatalf("status = %q", progress.Status)
	}
}

func TestConvertHLSRejectsUnknownQuality(t *testing.T) {
	video := testVideo(t)
	uc := ConvertHLS{Repo: newFakeVideoRepo(video), Pipeline: &fakeHLSPipeline{}}

	_, _, err := uc.Execute(context.Background(), video.ID, []domain.Quality{"240p"})
	if !errors.Is(err, domain.ErrInvalidQuality) {
		t.Fatalf("err = %v, want ErrInvalidQuality", err)
	}
}

type fakeCanceler struct {
	calls  int
	lastID domain.VideoID
}

func (f *fakeCanceler) CancelVideo(id domain.VideoID) {
	f.calls++
	f.lastID = id
}

type fakeArtifactRemover struct {
	calls       int
	removedPath string
}

func (f *fakeArtifactRemover) RemoveAll(originalPath string) {
	f.calls++
	f.removedPath = originalPath
}

func TestDeleteVideoRemovesEverything(t *testing.T) {
	video := testVideo(t)
	repo := newFakeVideoRepo(video)
	history := newFakeHistoryRepo()
	canceler := &fakeCanceler{}
	artifacts := &fakeArtifactRemover{}
	pipeline := &fakeHLSPipeline{}
	uc := DeleteVideo{Repo: repo, History: history, Coordinator: canceler, Artifacts: artifacts, HLS: pipeline}

	if err := uc.Execute(context.Background(), video.ID, true); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if canceler.calls != 1 || canceler.lastID != video.ID {
		t.Fatalf("transcode jobs not cancelled: %+v", canceler)
	}
	if pipeline.cancelCalls != 1 || pipeline.removeCalls != 1 {
		t.Fatalf("hls cleanup incomplete: %+v", pipeline)
	}
	if artifacts.removedPath != video.FilePath {
		t.Fatalf("artifacts removed for %q, want %q", artifacts.removedPath, video.FilePath)
	}
	if _, err := os.Stat(video.FilePath); !os.IsNotExist(err) {
		t.Fatal("original still on disk")
	}
	if repo.deletedID != video.ID {
		t.Fatalf("catalog entry not deleted: %q", repo.deletedID)
	}
	if history.deleteCalls != 1 {
		t.Fatal("watch history not cleaned up")
	}
}

func TestDeleteVideoKeepsOriginal(t *testing.T) {
	video := testVideo(t)
	uc := DeleteVideo{
		Repo:        newFakeVideoRepo(video),
		Coordinator: &fakeCanceler{},
		Artifacts:   &fakeArtifactRemover{},
		HLS:         &fakeHLSPipeline{},
	}

	if err := uc.Execute(context.Background(), video.ID, false); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, err := os.Stat(video.FilePath); err != nil {
		t.Fatalf("original should remain on disk: %v", err)
	}
}

func TestDeleteVideoNotFound(t *testing.T) {
	uc := DeleteVideo{
		Repo:        newFakeVideoRepo(),
		Coordinator: &fakeCanceler{},
		Artifacts:   &fakeArtifactRemover{},
		HLS:         &fakeHLSPipeline{},
	}

	err := uc.Execute(context.Background(), "missing", false)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveWatchPositionClamps(t *testing.T) {
	video := testVideo(t)
	history := newFakeHistoryRepo()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	uc := SaveWatchPosition{
		Repo:    newFakeVideoRepo(video),
		History: history,
		Now:     func() time.Time { return fixed },
	}

	err := uc.Execute(context.Background(), domain.WatchPosition{VideoID: video.ID, Position: 7200})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	saved := history.positions[video.ID]
	if saved.Position != video.Duration {
		t.Fatalf("position = %v, want clamped to %v", saved.Position, video.Duration)
	}
	if saved.Duration != video.Duration {
		t.Fatalf("duration = %v, want %v", saved.Duration, video.Duration)
	}
	if saved.Title != video.Title {
		t.Fatalf("title = %q, want %q", saved.Title, video.Title)
	}
	if !saved.UpdatedAt.Equal(fixed) {
		t.Fatalf("updatedAt = %v, want %v", saved.UpdatedAt, fixed)
	}
}

func TestGetWatchPositionNeverWatched(t *testing.T) {
	uc := GetWatchPosition{History: newFakeHistoryRepo()}

	wp, err := uc.Execute(context.Background(), "v9")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if wp.VideoID != "v9" || wp.Position != 0 {
		t.Fatalf("unexpected position: %+v", wp)
	}
}
