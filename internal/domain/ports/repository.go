package ports

import (
	"context"

	"vodstream/internal/domain"
)

type VideoRepository interface {
	Create(ctx context.Context, v domain.VideoRecord) error
	Get(ctx context.Context, id domain.VideoID) (domain.VideoRecord, error)
	List(ctx context.Context, limit, offset int) ([]domain.VideoRecord, error)
	Delete(ctx context.Context, id domain.VideoID) error
	IncrementViewCount(ctx context.Context, id domain.VideoID) error
}

type WatchHistoryRepository interface {
	Upsert(ctx context.Context, wp domain.WatchPosition) error
	Get(ctx context.Context, id domain.VideoID) (domain.WatchPosition, error)
	ListRecent(ctx context.Context, limit int) ([]domain.WatchPosition, error)
	Delete(ctx context.Context, id domain.VideoID) error
}
