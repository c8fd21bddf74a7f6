package domain

// MediaInfo is the subset of probe output the core consumes.
type MediaInfo struct {
	HasVideo bool    `json:"hasVideo"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
	Duration float64 `json:"duration"`
}
