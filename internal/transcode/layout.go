package transcode

import (
	"path/filepath"
	"strings"

	"vodstream/internal/domain"
)

// ArtifactPath derives the on-disk location of a cached rendition from the
// original file's path. The layout is load-bearing: players and cleanup jobs
// rely on renditions living next to the original as {stem}_{quality}.mp4.
func ArtifactPath(originalPath string, q domain.Quality) string {
	if q == domain.QualityOriginal {
		return originalPath
	}
	dir := filepath.Dir(originalPath)
	base := filepath.Base(originalPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, stem+"_"+string(q)+".mp4")
}
