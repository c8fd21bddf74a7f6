package media

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"vodstream/internal/domain"
)

// DefaultEncodeTimeout bounds a single ffmpeg invocation. Encodes legitimately
// run for minutes, so this is far larger than the probe timeout.
const DefaultEncodeTimeout = 2 * time.Hour

// FFmpeg runs the external encoder. Exit status is the only success signal
// it reports; output-file inspection is the caller's job.
type FFmpeg struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewFFmpeg(binary string, timeout time.Duration, logger *slog.Logger) *FFmpeg {
	bin := strings.TrimSpace(binary)
	if bin == "" {
		bin = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = DefaultEncodeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpeg{binary: bin, timeout: timeout, logger: logger}
}

func (f *FFmpeg) Run(ctx context.Context, args []string) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	fullArgs := append([]string{"-nostdin", "-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, f.binary, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", domain.ErrEncodeFailed, ctx.Err())
		}
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 500 {
			msg = msg[:500]
		}
		f.logger.Error("ffmpeg failed",
			slog.String("error", err.Error()),
			slog.String("stderr", msg),
			slog.Int64("elapsedMs", time.Since(start).Milliseconds()),
		)
		if msg == "" {
			return fmt.Errorf("%w: %v", domain.ErrEncodeFailed, err)
		}
		return fmt.Errorf("%w: %v: %s", domain.ErrEncodeFailed, err, msg)
	}
	return nil
}
