package usecase

import (
	"context"
	"errors"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
)

const defaultListLimit = 50

type ListVideos struct {
	Repo ports.VideoRepository
}

func (uc ListVideos) Execute(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	videos, err := uc.Repo.List(ctx, limit, offset)
	if err != nil {
		return nil, wrapRepo(err)
	}
	return videos, nil
}

type GetVideo struct {
	Repo ports.VideoRepository
}

func (uc GetVideo) Execute(ctx context.Context, id domain.VideoID) (domain.VideoRecord, error) {
	record, err := uc.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.VideoRecord{}, err
		}
		return domain.VideoRecord{}, wrapRepo(err)
	}
	return record, nil
}
