package domain

// ConversionStatus is the aggregate state of an HLS conversion job.
type ConversionStatus string

const (
	ConversionNotStarted ConversionStatus = "not_started"
	ConversionRunning    ConversionStatus = "converting"
	ConversionCompleted  ConversionStatus = "completed"
	ConversionFailed     ConversionStatus = "failed"
)

// RenditionState is the per-quality state inside a conversion job.
type RenditionState string

const (
	RenditionPending    RenditionState = "pending"
	RenditionConverting RenditionState = "converting"
	RenditionCompleted  RenditionState = "completed"
	RenditionFailed     RenditionState = "failed"
)

// RenditionAttempt records the outcome of one quality inside a job.
type RenditionAttempt struct {
	Quality Quality        `json:"quality"`
	State   RenditionState `json:"state"`
}

// ConversionProgress is the snapshot returned by the progress endpoint and
// pushed over the websocket hub. It is always well-formed: when no job
// exists for an asset the status is ConversionNotStarted.
type ConversionProgress struct {
	VideoID            VideoID            `json:"videoId"`
	Status             ConversionStatus   `json:"status"`
	Percent            float64            `json:"percent"`
	CurrentQuality     Quality            `json:"currentQuality,omitempty"`
	CompletedQualities int                `json:"completedQualities"`
	TotalQualities     int                `json:"totalQualities"`
	Renditions         []RenditionAttempt `json:"renditions,omitempty"`
	Error              string             `json:"error,omitempty"`
}
