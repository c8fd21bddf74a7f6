package transcode

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"vodstream/internal/domain/ports"
)

// DefaultValidationTTL is how long a probe verdict is trusted before the
// file is re-probed.
const DefaultValidationTTL = 5 * time.Minute

type verdict struct {
	valid     bool
	checkedAt time.Time
}

// Validator answers "is this file playable?" with a time-bounded cache of
// ffprobe verdicts. Concurrent writes to the same path are idempotent
// (the verdict is re-derivable), so last-writer-wins under the mutex.
type Validator struct {
	prober ports.Prober
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu       sync.Mutex
	verdicts map[string]verdict
}

func NewValidator(prober ports.Prober, ttl time.Duration, logger *slog.Logger) *Validator {
	if ttl <= 0 {
		ttl = DefaultValidationTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		prober:   prober,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
		verdicts: make(map[string]verdict),
	}
}

// SetClock replaces the time source. Tests use it to control TTL expiry.
func (v *Validator) SetClock(now func() time.Time) {
	v.now = now
}

// IsValid reports whether path holds a decodable video stream. A missing
// file, probe timeout, or absent video stream all count as invalid.
func (v *Validator) IsValid(ctx context.Context, path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}

	v.mu.Lock()
	cached, ok := v.verdicts[path]
	now := v.now()
	v.mu.Unlock()
	if ok && now.Sub(cached.checkedAt) < v.ttl {
		return cached.valid
	}

	info, err := v.prober.Probe(ctx, path)
	valid := err == nil && info.HasVideo
	if err != nil {
		v.logger.Warn("validation probe failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}

	v.mu.Lock()
	v.verdicts[path] = verdict{valid: valid, checkedAt: v.now()}
	v.mu.Unlock()
	return valid
}

// MarkValid records a fresh-valid verdict without probing. Called after a
// successful encode: the encoder's zero exit plus the output size check is
// sufficient initial evidence.
func (v *Validator) MarkValid(path string) {
	v.mu.Lock()
	v.verdicts[path] = verdict{valid: true, checkedAt: v.now()}
	v.mu.Unlock()
}

// Invalidate drops any cached verdict for path.
func (v *Validator) Invalidate(path string) {
	v.mu.Lock()
	delete(v.verdicts, path)
	v.mu.Unlock()
}
