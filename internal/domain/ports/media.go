package ports

import (
	"context"

	"vodstream/internal/domain"
)

// Prober inspects a media file on disk. Implementations must honor the
// context deadline; probes are called from request handling and stay short.
type Prober interface {
	Probe(ctx context.Context, path string) (domain.MediaInfo, error)
}

// Encoder runs one out-of-process encode described by args. The only success
// signal is a nil error (zero exit status); output inspection is the
// caller's job.
type Encoder interface {
	Run(ctx context.Context, args []string) error
}
