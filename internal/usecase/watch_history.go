package usecase

import (
	"context"
	"errors"
	"time"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
)

type SaveWatchPosition struct {
	Repo    ports.VideoRepository
	History ports.WatchHistoryRepository
	Now     func() time.Time
}

// Execute stores the playback position for an asset. The asset must exist;
// positions are clamped to [0, duration] when the duration is known.
func (uc SaveWatchPosition) Execute(ctx context.Context, wp domain.WatchPosition) error {
	record, err := uc.Repo.Get(ctx, wp.VideoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return wrapRepo(err)
	}

	if wp.Position < 0 {
		wp.Position = 0
	}
	if record.Duration > 0 && wp.Position > record.Duration {
		wp.Position = record.Duration
	}
	if wp.Duration == 0 {
		wp.Duration = record.Duration
	}
	wp.Title = record.Title

	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}
	wp.UpdatedAt = now()

	if err := uc.History.Upsert(ctx, wp); err != nil {
		return wrapRepo(err)
	}
	return nil
}

type GetWatchPosition struct {
	History ports.WatchHistoryRepository
}

// Execute returns the saved position for an asset. Assets never watched
// report a zero position rather than an error.
func (uc GetWatchPosition) Execute(ctx context.Context, id domain.VideoID) (domain.WatchPosition, error) {
	wp, err := uc.History.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.WatchPosition{VideoID: id}, nil
		}
		return domain.WatchPosition{}, wrapRepo(err)
	}
	return wp, nil
}

type ListWatchHistory struct {
	History ports.WatchHistoryRepository
}

func (uc ListWatchHistory) Execute(ctx context.Context, limit int) ([]domain.WatchPosition, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	items, err := uc.History.ListRecent(ctx, limit)
	if err != nil {
		return nil, wrapRepo(err)
	}
	return items, nil
}
