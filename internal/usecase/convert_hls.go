package usecase

import (
	"context"
	"errors"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
)

// HLSConverter runs multi-rendition segmenting jobs and reports their state.
type HLSConverter interface {
	Convert(video domain.VideoRecord, qualities []domain.Quality) (domain.ConversionProgress, bool)
	Progress(video domain.VideoRecord) domain.ConversionProgress
}

type ConvertHLS struct {
	Repo     ports.VideoRepository
	Pipeline HLSConverter
}

// Execute starts (or attaches to) an HLS conversion. The bool reports
// whether a new job was started.
func (uc ConvertHLS) Execute(ctx context.Context, id domain.VideoID, qualities []domain.Quality) (domain.ConversionProgress, bool, error) {
	for _, q := range qualities {
		if _, ok := q.Settings(); !ok {
			return domain.ConversionProgress{}, false, domain.ErrInvalidQuality
		}
	}

	record, err := uc.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ConversionProgress{}, false, err
		}
		return domain.ConversionProgress{}, false, wrapRepo(err)
	}

	progress, started := uc.Pipeline.Convert(record, qualities)
	return progress, started, nil
}

// Progress reports the conversion state for an asset. Assets with no job and
// no manifest report not_started rather than an error.
func (uc ConvertHLS) Progress(ctx context.Context, id domain.VideoID) (domain.ConversionProgress, error) {
	record, err := uc.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ConversionProgress{}, err
		}
		return domain.ConversionProgress{}, wrapRepo(err)
	}
	return uc.Pipeline.Progress(record), nil
}
