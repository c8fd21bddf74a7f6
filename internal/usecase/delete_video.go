package usecase

import (
	"context"
	"errors"
	"os"

	"vodstream/internal/domain"
	"vodstream/internal/domain/ports"
)

// JobCanceler stops in-flight encodes for an asset.
type JobCanceler interface {
	CancelVideo(id domain.VideoID)
}

// ArtifactRemover deletes the cached renditions derived from an original.
type ArtifactRemover interface {
	RemoveAll(originalPath string)
}

// HLSRemover cancels a running conversion and deletes the HLS tree.
type HLSRemover interface {
	Cancel(id domain.VideoID)
	Remove(originalPath string) error
}

type DeleteVideo struct {
	Repo        ports.VideoRepository
	History     ports.WatchHistoryRepository
	Coordinator JobCanceler
	Artifacts   ArtifactRemover
	HLS         HLSRemover
}

// Execute removes an asset: in-flight jobs are cancelled first so nothing
// recreates artifacts mid-delete, then derived files, the HLS tree, and
// optionally the original come off disk before the catalog entry goes.
func (uc DeleteVideo) Execute(ctx context.Context, id domain.VideoID, deleteOriginal bool) error {
	record, err := uc.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return wrapRepo(err)
	}

	uc.Coordinator.CancelVideo(id)
	uc.HLS.Cancel(id)

	uc.Artifacts.RemoveAll(record.FilePath)
	if err := uc.HLS.Remove(record.FilePath); err != nil {
		return err
	}

	if deleteOriginal {
		if err := os.Remove(record.FilePath); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	if uc.History != nil {
		// Watch positions for a deleted asset are just noise; drop them
		// best effort.
		_ = uc.History.Delete(ctx, id)
	}

	if err := uc.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return wrapRepo(err)
	}
	return nil
}
