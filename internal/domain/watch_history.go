package domain

import "time"

type WatchPosition struct {
	VideoID   VideoID   `json:"videoId"`
	Position  float64   `json:"position"`
	Duration  float64   `json:"duration"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}
