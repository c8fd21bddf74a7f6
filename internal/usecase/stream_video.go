package usecase

import (
	"context"
	"errors"
	"os"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
	"vodstream/internal/transcode"
)

// QualityResolver maps a requested quality onto the one actually worth
// producing for a given source.
type QualityResolver interface {
	Resolve(ctx context.Context, video domain.VideoRecord, requested domain.Quality) domain.Quality
}

// ArtifactProvider returns a playable file path for a quality, encoding on
// demand. It never fails; the original path is the fallback.
type ArtifactProvider interface {
	Obtain(ctx context.Context, video domain.VideoRecord, q domain.Quality, mode transcode.Mode) string
}

type StreamVideo struct {
	Repo      ports.VideoRepository
	Resolver  QualityResolver
	Artifacts ArtifactProvider
}

type StreamVideoResult struct {
	Video   domain.VideoRecord
	Quality domain.Quality
	Path    string
}

// Execute looks up the asset, resolves the effective quality and returns a
// playable path. The requested quality is validated before any work starts.
func (uc StreamVideo) Execute(ctx context.Context, id domain.VideoID, requested domain.Quality, mode transcode.Mode) (StreamVideoResult, error) {
	if _, err := domain.ParseQuality(string(requested)); err != nil {
		return StreamVideoResult{}, err
	}

	record, err := uc.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return StreamVideoResult{}, err
		}
		return StreamVideoResult{}, wrapRepo(err)
	}

	if _, err := os.Stat(record.FilePath); err != nil {
		// Catalog entry without a file on disk is as good as gone.
		return StreamVideoResult{}, domain.ErrNotFound
	}

	resolved := uc.Resolver.Resolve(ctx, record, requested)
	path := uc.Artifacts.Obtain(ctx, record, resolved, mode)

	return StreamVideoResult{Video: record, Quality: resolved, Path: path}, nil
}
