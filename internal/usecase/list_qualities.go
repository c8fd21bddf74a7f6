package usecase

import (
	"context"
	"errors"
	"fmt"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
)

// QualityLister reports which renditions are present and valid on disk.
type QualityLister interface {
	AvailableQualities(ctx context.Context, originalPath string) []domain.Quality
}

type ListQualities struct {
	Repo  ports.VideoRepository
	Cache QualityLister
}

type QualityInfo struct {
	Quality    domain.Quality `json:"quality"`
	Resolution string         `json:"resolution,omitempty"`
	Available  bool           `json:"available"`
}

type ListQualitiesResult struct {
	VideoID   domain.VideoID `json:"videoId"`
	Qualities []QualityInfo  `json:"qualities"`
}

// Execute lists the full ladder for an asset, marking which renditions are
// already on disk. The original is always available.
func (uc ListQualities) Execute(ctx context.Context, id domain.VideoID) (ListQualitiesResult, error) {
	record, err := uc.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ListQualitiesResult{}, err
		}
		return ListQualitiesResult{}, wrapRepo(err)
	}

	available := map[domain.Quality]bool{}
	for _, q := range uc.Cache.AvailableQualities(ctx, record.FilePath) {
		available[q] = true
	}

	result := ListQualitiesResult{VideoID: record.ID}
	result.Qualities = append(result.Qualities, QualityInfo{Quality: domain.QualityOriginal, Available: true})
	for _, q := range domain.TranscodableQualities {
		info := QualityInfo{Quality: q, Available: available[q]}
		if s, ok := q.Settings(); ok {
			info.Resolution = resolutionLabel(s)
		}
		result.Qualities = append(result.Qualities, info)
	}
	return result, nil
}

func resolutionLabel(s domain.QualitySettings) string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
