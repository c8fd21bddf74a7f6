package hls

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
	"vodstream/internal/metrics"
)

// Job is one per-asset conversion run. Progress is readable while the job is
// live; Done is closed when the run finishes.
type Job struct {
	VideoID domain.VideoID
	Done    chan struct{}

	mu       sync.Mutex
	progress domain.ConversionProgress

	cancel context.CancelFunc
}

// Progress returns a copy of the current snapshot.
func (j *Job) Progress() domain.ConversionProgress {
	j.mu.Lock()
	defer j.mu.Unlock()
	p := j.progress
	p.Renditions = append([]domain.RenditionAttempt(nil), j.progress.Renditions...)
	return p
}

func (j *Job) update(mutate func(*domain.ConversionProgress)) domain.ConversionProgress {
	j.mu.Lock()
	mutate(&j.progress)
	p := j.progress
	p.Renditions = append([]domain.RenditionAttempt(nil), j.progress.Renditions...)
	j.mu.Unlock()
	return p
}

// Pipeline converts one asset into a multi-rendition HLS tree. Renditions
// encode sequentially so one encoder process per asset bounds resource usage,
// and all progress mutations go through the job's mutex, so the completed
// list and the master manifest cannot race.
type Pipeline struct {
	encoder ports.Encoder
	logger  *slog.Logger

	// notify, when set, receives every progress snapshot change. Wired to
	// the websocket hub.
	notify func(domain.ConversionProgress)

	mu   sync.Mutex
	jobs map[domain.VideoID]*Job
}

func NewPipeline(encoder ports.Encoder, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		encoder: encoder,
		logger:  logger,
		jobs:    make(map[domain.VideoID]*Job),
	}
}

// OnProgress registers the progress callback. Must be called before the
// pipeline starts serving requests.
func (p *Pipeline) OnProgress(fn func(domain.ConversionProgress)) {
	p.notify = fn
}

// Convert starts (or attaches to) the conversion of video. It is idempotent:
// when the master manifest already exists it reports completion with the
// qualities present on disk and performs no encoder work. The returned bool
// is true when a new job was started.
func (p *Pipeline) Convert(video domain.VideoRecord, qualities []domain.Quality) (domain.ConversionProgress, bool) {
	if len(qualities) == 0 {
		qualities = domain.DefaultHLSQualities
	}

	if _, err := os.Stat(MasterPath(video.FilePath)); err == nil {
		available := AvailableQualities(video.FilePath)
		renditions := make([]domain.RenditionAttempt, 0, len(available))
		for _, q := range available {
			renditions = append(renditions, domain.RenditionAttempt{Quality: q, State: domain.RenditionCompleted})
		}
		return domain.ConversionProgress{
			VideoID:            video.ID,
			Status:             domain.ConversionCompleted,
			Percent:            100,
			CompletedQualities: len(available),
			TotalQualities:     len(available),
			Renditions:         renditions,
		}, false
	}

	p.mu.Lock()
	if job, exists := p.jobs[video.ID]; exists {
		select {
		case <-job.Done:
			delete(p.jobs, video.ID)
		default:
			p.mu.Unlock()
			return job.Progress(), false
		}
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	renditions := make([]domain.RenditionAttempt, 0, len(qualities))
	for _, q := range qualities {
		renditions = append(renditions, domain.RenditionAttempt{Quality: q, State: domain.RenditionPending})
	}
	job := &Job{
		VideoID: video.ID,
		Done:    make(chan struct{}),
		cancel:  cancel,
		progress: domain.ConversionProgress{
			VideoID:        video.ID,
			Status:         domain.ConversionRunning,
			TotalQualities: len(qualities),
			Renditions:     renditions,
		},
	}
	p.jobs[video.ID] = job
	p.mu.Unlock()

	go p.run(jobCtx, job, video, qualities)
	return job.Progress(), true
}

// Progress returns the snapshot for an asset: the live job's progress when
// one is running, a completed snapshot when a master manifest exists, and
// not_started otherwise. It is always well-formed.
func (p *Pipeline) Progress(video domain.VideoRecord) domain.ConversionProgress {
	p.mu.Lock()
	job, exists := p.jobs[video.ID]
	p.mu.Unlock()
	if exists {
		return job.Progress()
	}

	if _, err := os.Stat(MasterPath(video.FilePath)); err == nil {
		available := AvailableQualities(video.FilePath)
		return domain.ConversionProgress{
			VideoID:            video.ID,
			Status:             domain.ConversionCompleted,
			Percent:            100,
			CompletedQualities: len(available),
			TotalQualities:     len(available),
		}
	}

	return domain.ConversionProgress{VideoID: video.ID, Status: domain.ConversionNotStarted}
}

// Get returns the live job for an asset, or nil.
func (p *Pipeline) Get(id domain.VideoID) *Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.jobs[id]
}

// Cancel stops the in-flight conversion for an asset, if any.
func (p *Pipeline) Cancel(id domain.VideoID) {
	p.mu.Lock()
	job, exists := p.jobs[id]
	p.mu.Unlock()
	if exists {
		job.cancel()
	}
}

// CancelAll stops every running conversion. Used for graceful shutdown.
func (p *Pipeline) CancelAll() {
	p.mu.Lock()
	jobs := make([]*Job, 0, len(p.jobs))
	for _, job := range p.jobs {
		jobs = append(jobs, job)
	}
	p.mu.Unlock()
	for _, job := range jobs {
		job.cancel()
	}
}

// Remove deletes the whole HLS tree for an asset. Used when the asset is
// deleted.
func (p *Pipeline) Remove(originalPath string) error {
	return os.RemoveAll(Dir(originalPath))
}

func (p *Pipeline) run(ctx context.Context, job *Job, video domain.VideoRecord, qualities []domain.Quality) {
	defer func() {
		close(job.Done)
		p.mu.Lock()
		delete(p.jobs, video.ID)
		p.mu.Unlock()
	}()

	if err := os.MkdirAll(Dir(video.FilePath), 0o755); err != nil {
		p.fail(job, fmt.Errorf("create hls dir: %w", err))
		return
	}

	p.logger.Info("hls conversion started",
		slog.String("videoId", string(video.ID)),
		slog.Int("qualities", len(qualities)),
	)

	var succeeded []domain.Quality
	for i, q := range qualities {
		if ctx.Err() != nil {
			p.fail(job, ctx.Err())
			return
		}

		idx := i
		p.publish(job.update(func(pr *domain.ConversionProgress) {
			pr.CurrentQuality = q
			pr.Renditions[idx].State = domain.RenditionConverting
		}))

		start := time.Now()
		err := p.convertQuality(ctx, video.FilePath, q)
		metrics.HLSRenditionDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			p.logger.Error("hls rendition failed",
				slog.String("videoId", string(video.ID)),
				slog.String("quality", string(q)),
				slog.String("error", err.Error()),
			)
			p.publish(job.update(func(pr *domain.ConversionProgress) {
				pr.Renditions[idx].State = domain.RenditionFailed
			}))
			continue
		}

		succeeded = append(succeeded, q)
		p.publish(job.update(func(pr *domain.ConversionProgress) {
			pr.Renditions[idx].State = domain.RenditionCompleted
			pr.CompletedQualities = len(succeeded)
			pr.Percent = float64(len(succeeded)) / float64(len(qualities)) * 100
		}))
	}

	// Belt and braces: the master must reference only renditions whose
	// playlist was fully written, in the requested order.
	written := succeeded[:0]
	for _, q := range succeeded {
		if playlistComplete(PlaylistPath(video.FilePath, q)) {
			written = append(written, q)
		}
	}

	if len(written) == 0 {
		metrics.HLSConversionsTotal.WithLabelValues("failed").Inc()
		p.fail(job, domain.ErrPipelineFailed)
		return
	}

	if err := WriteMaster(video.FilePath, written); err != nil {
		metrics.HLSConversionsTotal.WithLabelValues("failed").Inc()
		p.fail(job, fmt.Errorf("write master playlist: %w", err))
		return
	}

	metrics.HLSConversionsTotal.WithLabelValues("completed").Inc()
	p.logger.Info("hls conversion completed",
		slog.String("videoId", string(video.ID)),
		slog.Int("succeeded", len(written)),
		slog.Int("requested", len(qualities)),
	)
	p.publish(job.update(func(pr *domain.ConversionProgress) {
		pr.Status = domain.ConversionCompleted
		pr.CurrentQuality = ""
	}))
}

func (p *Pipeline) fail(job *Job, err error) {
	p.publish(job.update(func(pr *domain.ConversionProgress) {
		pr.Status = domain.ConversionFailed
		pr.CurrentQuality = ""
		pr.Error = err.Error()
	}))
}

func (p *Pipeline) publish(snapshot domain.ConversionProgress) {
	if p.notify != nil {
		p.notify(snapshot)
	}
}

func (p *Pipeline) convertQuality(ctx context.Context, originalPath string, q domain.Quality) error {
	settings, ok := q.Settings()
	if !ok {
		return fmt.Errorf("%w: %q has no ladder entry", domain.ErrInvalidQuality, q)
	}
	dir := QualityDir(originalPath, q)
	// A cancelled or crashed run leaves partial playlists and segments
	// behind; ffmpeg refuses to overwrite an existing playlist, so each
	// rendition starts from a clean directory.
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return p.encoder.Run(ctx, BuildSegmentArgs(originalPath, q, settings))
}

// BuildSegmentArgs constructs the per-quality segmenting command: fixed
// 6-second segments, VOD playlist semantics, and independently decodable
// segments, with scale/bitrate from the ladder entry.
func BuildSegmentArgs(originalPath string, q domain.Quality, s domain.QualitySettings) []string {
	return []string{
		"-i", originalPath,
		"-vf", fmt.Sprintf("scale=%d:%d", s.Width, s.Height),
		"-c:v", "libx264",
		"-preset", "medium",
		"-crf", "23",
		"-b:v", s.VideoBitrate,
		"-c:a", "aac",
		"-b:a", s.AudioBitrate,
		"-hls_time", "6",
		"-hls_playlist_type", "vod",
		"-hls_segment_filename", SegmentPattern(originalPath, q),
		"-hls_flags", "independent_segments",
		"-y",
		PlaylistPath(originalPath, q),
	}
}
