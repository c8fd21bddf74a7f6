package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
	"vodstream/internal/metrics"
)

// Mode selects how Obtain behaves on a cache miss.
type Mode string

const (
	// ModeBackground starts (or attaches to) an encode job and returns the
	// original path immediately; the caller is never blocked.
	ModeBackground Mode = "background"
	// ModeSync blocks until the job resolves, falling back to the original
	// path when the encode fails.
	ModeSync Mode = "sync"
)

// minOutputSizeBytes is the sanity floor for encoder output. Anything
// smaller is treated as a failed encode and deleted.
const minOutputSizeBytes = 1024

// Job is one in-flight encode. Result and Err are immutable after Done is
// closed.
type Job struct {
	Key       domain.QualityKey
	StartedAt time.Time

	// Done is closed when the encode completes, success or failure.
	Done chan struct{}

	Result string
	Err    error

	cancel context.CancelFunc
}

// Coordinator owns the at-most-one-in-flight-per-key encode jobs. Every
// caller for the same key observes the same Job, so two encoders never race
// on one output path.
type Coordinator struct {
	cache   *ArtifactCache
	encoder ports.Encoder
	logger  *slog.Logger

	// onComplete, when set, is invoked after a successful encode has been
	// stored. Used to push completion events to connected clients.
	onComplete func(key domain.QualityKey)

	mu   sync.Mutex
	jobs map[domain.QualityKey]*Job
}

func NewCoordinator(cache *ArtifactCache, encoder ports.Encoder, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cache:   cache,
		encoder: encoder,
		logger:  logger,
		jobs:    make(map[domain.QualityKey]*Job),
	}
}

// OnComplete registers the completion callback. Must be called before the
// coordinator starts serving requests.
func (c *Coordinator) OnComplete(fn func(key domain.QualityKey)) {
	c.onComplete = fn
}

// Obtain resolves (video, q) to a playable path. q must already be the
// effective quality from the resolver; "original" short-circuits. Obtain
// never returns an error for encode problems; the original path is the
// fallback so playback cannot hard-fail on transcode trouble.
func (c *Coordinator) Obtain(ctx context.Context, video domain.VideoRecord, q domain.Quality, mode Mode) string {
	if q == domain.QualityOriginal {
		return video.FilePath
	}

	if path, ok := c.cache.Lookup(ctx, video.FilePath, q); ok {
		return path
	}

	key := domain.QualityKey{VideoID: video.ID, Quality: q}
	job, isNew := c.ensure(key, video, q)
	if isNew {
		c.logger.Info("transcode job started",
			slog.String("videoId", string(video.ID)),
			slog.String("quality", string(q)),
		)
	}

	if mode == ModeSync {
		select {
		case <-job.Done:
			if job.Err == nil && job.Result != "" {
				return job.Result
			}
			return video.FilePath
		case <-ctx.Done():
			return video.FilePath
		}
	}

	return video.FilePath
}

// Get returns the live job for key, or nil.
func (c *Coordinator) Get(key domain.QualityKey) *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobs[key]
}

// CancelVideo stops every in-flight job for the given asset and discards
// partial output. Called when the asset is deleted.
func (c *Coordinator) CancelVideo(id domain.VideoID) {
	c.mu.Lock()
	var cancelled []*Job
	for key, job := range c.jobs {
		if key.VideoID == id {
			cancelled = append(cancelled, job)
		}
	}
	c.mu.Unlock()

	for _, job := range cancelled {
		c.logger.Info("cancelling transcode job",
			slog.String("videoId", string(id)),
			slog.String("quality", string(job.Key.Quality)),
		)
		job.cancel()
	}
}

// CancelAll stops all active jobs. Used for graceful shutdown.
func (c *Coordinator) CancelAll() {
	c.mu.Lock()
	jobs := make([]*Job, 0, len(c.jobs))
	for _, job := range c.jobs {
		jobs = append(jobs, job)
	}
	c.mu.Unlock()

	for _, job := range jobs {
		job.cancel()
	}
}

// ensure returns the live job for key, creating one when none exists.
// A job whose Done channel is already closed but that has not yet been
// removed from the map is stale; it is replaced.
func (c *Coordinator) ensure(key domain.QualityKey, video domain.VideoRecord, q domain.Quality) (*Job, bool) {
	c.mu.Lock()

	if job, exists := c.jobs[key]; exists {
		select {
		case <-job.Done:
			delete(c.jobs, key)
		default:
			c.mu.Unlock()
			return job, false
		}
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	job := &Job{
		Key:       key,
		StartedAt: time.Now(),
		Done:      make(chan struct{}),
		cancel:    cancel,
	}
	c.jobs[key] = job
	c.mu.Unlock()

	go c.run(jobCtx, job, video, q)
	return job, true
}

func (c *Coordinator) run(ctx context.Context, job *Job, video domain.VideoRecord, q domain.Quality) {
	metrics.TranscodeJobStartsTotal.Inc()
	metrics.TranscodeActiveJobs.Inc()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("transcode job panicked",
				slog.String("videoId", string(video.ID)),
				slog.Any("panic", r),
			)
			job.Err = fmt.Errorf("%w: panic: %v", domain.ErrEncodeFailed, r)
		}

		metrics.TranscodeActiveJobs.Dec()
		close(job.Done)

		c.mu.Lock()
		delete(c.jobs, job.Key)
		c.mu.Unlock()

		c.logger.Info("transcode job finished",
			slog.String("videoId", string(video.ID)),
			slog.String("quality", string(q)),
			slog.Int64("elapsedMs", time.Since(start).Milliseconds()),
			slog.Bool("success", job.Err == nil),
		)
	}()

	outputPath := ArtifactPath(video.FilePath, q)
	path, err := c.encode(ctx, video.FilePath, outputPath, q)
	if err != nil {
		metrics.TranscodeJobFailuresTotal.Inc()
		job.Err = err
		return
	}

	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())
	c.cache.Store(path)
	job.Result = path

	if c.onComplete != nil {
		c.onComplete(job.Key)
	}
}

// encode runs the encoder and enforces the success criteria: zero exit
// status, output exists, and output exceeds the size sanity floor. On any
// failure the partial output is removed.
func (c *Coordinator) encode(ctx context.Context, inputPath, outputPath string, q domain.Quality) (string, error) {
	settings, ok := q.Settings()
	if !ok {
		return "", fmt.Errorf("%w: %q has no ladder entry", domain.ErrInvalidQuality, q)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEncodeFailed, err)
	}

	args := BuildTranscodeArgs(inputPath, outputPath, settings)
	if err := c.encoder.Run(ctx, args); err != nil {
		c.removePartial(outputPath)
		return "", err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", fmt.Errorf("%w: output missing: %v", domain.ErrEncodeFailed, err)
	}
	if info.Size() < minOutputSizeBytes {
		c.removePartial(outputPath)
		return "", fmt.Errorf("%w: output is %d bytes, below sanity threshold", domain.ErrEncodeFailed, info.Size())
	}

	return outputPath, nil
}

func (c *Coordinator) removePartial(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		c.logger.Error("failed to remove partial output",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// BuildTranscodeArgs constructs the progressive single-file encode command:
// scale to the ladder entry, H.264 at a fixed preset/quality factor, AAC
// audio, and faststart so playback can begin before the download completes.
func BuildTranscodeArgs(inputPath, outputPath string, s domain.QualitySettings) []string {
	return []string{
		"-i", inputPath,
		"-vf", fmt.Sprintf("scale=%d:%d", s.Width, s.Height),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-b:v", s.VideoBitrate,
		"-c:a", "aac",
		"-b:a", s.AudioBitrate,
		"-movflags", "+faststart",
		"-y",
		outputPath,
	}
}
