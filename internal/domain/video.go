package domain

import (
	"errors"
	"time"
)

type VideoID string

type VideoStatus string

const (
	VideoProcessing VideoStatus = "processing"
	VideoReady      VideoStatus = "ready"
	VideoError      VideoStatus = "error"
)

// VideoRecord is the catalog entry for one library asset. The transcode and
// HLS subsystems treat it as read-only truth about the original file.
type VideoRecord struct {
	ID          VideoID     `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	FilePath    string      `json:"-"`
	FileSize    int64       `json:"fileSize"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Duration    float64     `json:"duration"`
	Status      VideoStatus `json:"status"`
	ViewCount   int64       `json:"viewCount"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// Validate checks domain invariants for VideoRecord.
func (v VideoRecord) Validate() error {
	if v.ID == "" {
		return errors.New("video id is required")
	}
	if v.FilePath == "" {
		return errors.New("file path is required")
	}
	if v.FileSize < 0 {
		return errors.New("fileSize must not be negative")
	}
	if v.Width < 0 || v.Height < 0 {
		return errors.New("resolution must not be negative")
	}
	switch v.Status {
	case VideoProcessing, VideoReady, VideoError:
		// valid
	case "":
		return errors.New("status is required")
	default:
		return errors.New("invalid status: " + string(v.Status))
	}
	return nil
}
