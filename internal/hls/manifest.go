package hls

import (
	"fmt"
	"os"
	"strings"

	"vodstream/internal/domain"
)

// BuildMaster renders the master playlist referencing the given qualities in
// order. Callers must pass only qualities whose per-quality playlist exists
// on disk.
func BuildMaster(qualities []domain.Quality) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")

	for _, q := range qualities {
		s, ok := q.Settings()
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%dx%d\n", s.BandwidthBPS, s.Width, s.Height)
		fmt.Fprintf(&b, "%s/playlist.m3u8\n", q)
	}
	return b.String()
}

// WriteMaster writes the master playlist for originalPath.
func WriteMaster(originalPath string, qualities []domain.Quality) error {
	return os.WriteFile(MasterPath(originalPath), []byte(BuildMaster(qualities)), 0o644)
}

// AvailableQualities lists the renditions whose playlist was fully written,
// in ladder order.
func AvailableQualities(originalPath string) []domain.Quality {
	var qualities []domain.Quality
	for _, q := range domain.TranscodableQualities {
		if playlistComplete(PlaylistPath(originalPath, q)) {
			qualities = append(qualities, q)
		}
	}
	return qualities
}

// playlistComplete reports whether a rendition playlist was finalized. A
// killed encode leaves a truncated playlist without the ENDLIST tag, which
// must not be listed or served as a finished rendition.
func playlistComplete(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), "#EXT-X-ENDLIST")
}
