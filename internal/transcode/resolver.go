package transcode

import (
	"context"
	"log/slog"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
)

// Resolver decides the effective quality to serve for a request. It never
// upscales: when the source is already at or below the requested ladder
// height, the original is served instead of wasting an encode on a larger,
// lower-information file.
type Resolver struct {
	prober ports.Prober
	logger *slog.Logger
}

func NewResolver(prober ports.Prober, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{prober: prober, logger: logger}
}

// Resolve returns the quality that Obtain should actually produce. The
// catalog's native height is used when known; otherwise the file is probed.
// If the resolution cannot be determined at all, the requested quality is
// attempted rather than silently serving the original.
func (r *Resolver) Resolve(ctx context.Context, video domain.VideoRecord, requested domain.Quality) domain.Quality {
	if requested == domain.QualityOriginal {
		return domain.QualityOriginal
	}
	settings, ok := requested.Settings()
	if !ok {
		return domain.QualityOriginal
	}

	nativeHeight := video.Height
	if nativeHeight <= 0 {
		info, err := r.prober.Probe(ctx, video.FilePath)
		if err != nil {
			r.logger.Warn("resolution probe failed, attempting requested quality",
				slog.String("videoId", string(video.ID)),
				slog.String("quality", string(requested)),
				slog.String("error", err.Error()),
			)
			return requested
		}
		nativeHeight = info.Height
	}

	if nativeHeight > 0 && nativeHeight <= settings.Height {
		r.logger.Info("native resolution at or below target, serving original",
			slog.String("videoId", string(video.ID)),
			slog.Int("nativeHeight", nativeHeight),
			slog.String("quality", string(requested)),
		)
		return domain.QualityOriginal
	}

	return requested
}
