package hls

import (
	"path/filepath"
	"strings"

	"vodstream/internal/domain"
)

// The on-disk tree is part of the external contract:
//
//	{stem}_hls/master.m3u8
//	{stem}_hls/{quality}/playlist.m3u8
//	{stem}_hls/{quality}/segment{N}.ts

// Dir returns the HLS tree root for an original file.
func Dir(originalPath string) string {
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_hls")
}

// MasterPath returns the master playlist path. Its existence is the
// "conversion completed" marker.
func MasterPath(originalPath string) string {
	return filepath.Join(Dir(originalPath), "master.m3u8")
}

// QualityDir returns the per-quality directory.
func QualityDir(originalPath string, q domain.Quality) string {
	return filepath.Join(Dir(originalPath), string(q))
}

// PlaylistPath returns the per-quality playlist path.
func PlaylistPath(originalPath string, q domain.Quality) string {
	return filepath.Join(QualityDir(originalPath, q), "playlist.m3u8")
}

// SegmentPattern returns the ffmpeg segment filename pattern for a quality.
func SegmentPattern(originalPath string, q domain.Quality) string {
	return filepath.Join(QualityDir(originalPath, q), "segment%d.ts")
}
