package domain

import "fmt"

// Quality is a closed set of supported rendition presets.
type Quality string

const (
	Quality480p     Quality = "480p"
	Quality720p     Quality = "720p"
	Quality1080p    Quality = "1080p"
	Quality4K       Quality = "4k"
	QualityOriginal Quality = "original"
)

// QualitySettings holds the encoder targets for one ladder entry.
type QualitySettings struct {
	Width        int
	Height       int
	VideoBitrate string // e.g. "2500k"
	AudioBitrate string // e.g. "192k"
	BandwidthBPS int    // estimated bandwidth for the master playlist
}

// qualityLadder maps each transcodable preset to its encoder targets.
// "original" is intentionally absent: it is served as-is, never encoded.
var qualityLadder = map[Quality]QualitySettings{
	Quality480p:  {Width: 854, Height: 480, VideoBitrate: "1000k", AudioBitrate: "128k", BandwidthBPS: 1000000},
	Quality720p:  {Width: 1280, Height: 720, VideoBitrate: "2500k", AudioBitrate: "192k", BandwidthBPS: 2500000},
	Quality1080p: {Width: 1920, Height: 1080, VideoBitrate: "5000k", AudioBitrate: "192k", BandwidthBPS: 5000000},
	Quality4K:    {Width: 3840, Height: 2160, VideoBitrate: "20000k", AudioBitrate: "256k", BandwidthBPS: 20000000},
}

// TranscodableQualities lists the ladder entries in ascending resolution order.
var TranscodableQualities = []Quality{Quality480p, Quality720p, Quality1080p, Quality4K}

// DefaultHLSQualities is the rendition set used when a conversion request
// does not name explicit qualities.
var DefaultHLSQualities = []Quality{Quality480p, Quality720p, Quality1080p}

// ParseQuality validates a quality label received at the boundary.
func ParseQuality(raw string) (Quality, error) {
	q := Quality(raw)
	if q == QualityOriginal {
		return q, nil
	}
	if _, ok := qualityLadder[q]; ok {
		return q, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidQuality, raw)
}

// Settings returns the ladder entry for q. The second result is false for
// "original" and unknown labels.
func (q Quality) Settings() (QualitySettings, bool) {
	s, ok := qualityLadder[q]
	return s, ok
}

func (q Quality) String() string {
	return string(q)
}

// QualityKey identifies one cached or in-flight rendition of one asset.
type QualityKey struct {
	VideoID VideoID
	Quality Quality
}

func (k QualityKey) String() string {
	return string(k.VideoID) + ":" + string(k.Quality)
}
