package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"vodstream/internal/domain"
)

type Prober struct {
	binary string
}

func New(binary string) *Prober {
	bin := strings.TrimSpace(binary)
	if bin == "" {
		bin = "ffprobe"
	}
	return &Prober{binary: bin}
}

const maxProbeTimeout = 5 * time.Second

// Probe returns the first video stream's codec and resolution plus the
// container duration. ErrProbeFailed wraps every failure mode so callers can
// treat them uniformly as "unknown media".
func (p *Prober) Probe(ctx context.Context, filePath string) (domain.MediaInfo, error) {
	path := strings.TrimSpace(filePath)
	if path == "" {
		return domain.MediaInfo{}, fmt.Errorf("%w: file path is required", domain.ErrProbeFailed)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxProbeTimeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		"-select_streams", "v:0",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return domain.MediaInfo{}, fmt.Errorf("%w: %v", domain.ErrProbeFailed, err)
		}
		return domain.MediaInfo{}, fmt.Errorf("%w: %v: %s", domain.ErrProbeFailed, err, msg)
	}

	info, err := parseProbeOutput(stdout.Bytes())
	if err != nil {
		return domain.MediaInfo{}, fmt.Errorf("%w: %v", domain.ErrProbeFailed, err)
	}
	return info, nil
}

// probePayload is the subset of ffprobe JSON output we parse.
type probePayload struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

func parseProbeOutput(data []byte) (domain.MediaInfo, error) {
	var payload probePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.MediaInfo{}, err
	}

	var info domain.MediaInfo
	for _, stream := range payload.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.HasVideo = true
		info.Codec = stream.CodecName
		info.Width = stream.Width
		info.Height = stream.Height
		break
	}

	if payload.Format.Duration != "" {
		if d, err := strconv.ParseFloat(payload.Format.Duration, 64); err == nil && d > 0 {
			info.Duration = d
		}
	}

	if !info.HasVideo {
		return info, errors.New("no video stream")
	}
	return info, nil
}
