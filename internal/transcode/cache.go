package transcode

import (
	"context"
	"log/slog"
	"os"

	"vodstream/internal/domain"
	"vodstream/internal/metrics"
)

// ArtifactCache resolves (original path, quality) to a cached rendition on
// disk. It self-heals: an entry that fails validation is deleted and the
// lookup reports a miss, so a corrupt rendition is never served.
type ArtifactCache struct {
	validator *Validator
	logger    *slog.Logger
}

func NewArtifactCache(validator *Validator, logger *slog.Logger) *ArtifactCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArtifactCache{validator: validator, logger: logger}
}

// Lookup returns the rendition path for (originalPath, q) if it exists on
// disk and is playable. "original" always hits.
func (c *ArtifactCache) Lookup(ctx context.Context, originalPath string, q domain.Quality) (string, bool) {
	if q == domain.QualityOriginal {
		return originalPath, true
	}

	path := ArtifactPath(originalPath, q)
	if _, err := os.Stat(path); err != nil {
		metrics.ArtifactCacheMissesTotal.Inc()
		return "", false
	}

	if !c.validator.IsValid(ctx, path) {
		c.logger.Warn("cached rendition failed validation, removing",
			slog.String("path", path),
			slog.String("quality", string(q)),
		)
		c.remove(path)
		metrics.ArtifactCacheMissesTotal.Inc()
		return "", false
	}

	metrics.ArtifactCacheHitsTotal.Inc()
	return path, true
}

// Store records a freshly encoded rendition as valid. No probe is issued;
// the encoder's success plus the output size check stands in for one.
func (c *ArtifactCache) Store(path string) {
	c.validator.MarkValid(path)
}

// RemoveAll deletes every cached rendition of originalPath. Used when the
// asset itself is deleted.
func (c *ArtifactCache) RemoveAll(originalPath string) {
	for _, q := range domain.TranscodableQualities {
		path := ArtifactPath(originalPath, q)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		c.remove(path)
	}
}

func (c *ArtifactCache) remove(path string) {
	c.validator.Invalidate(path)
	if err := os.Remove(path); err != nil {
		c.logger.Error("failed to remove rendition",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	metrics.ArtifactEvictionsTotal.Inc()
}

// AvailableQualities lists the validated cached renditions of originalPath,
// always starting with "original".
func (c *ArtifactCache) AvailableQualities(ctx context.Context, originalPath string) []domain.Quality {
	qualities := []domain.Quality{domain.QualityOriginal}
	for _, q := range domain.TranscodableQualities {
		if _, ok := c.Lookup(ctx, originalPath, q); ok {
			qualities = append(qualities, q)
		}
	}
	return qualities
}
