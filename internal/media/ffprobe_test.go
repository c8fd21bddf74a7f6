package media

import (
	"context"
	"errors"
	"testing"

	"vodstream/internal/domain"
)

func TestProbeEmptyPath(t *testing.T) {
	p := New("")
	tests := []struct {
		name string
		path string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Probe(context.Background(), tc.path)
			if err == nil {
				t.Fatal("expected error for empty path, got nil")
			}
			if !errors.Is(err, domain.ErrProbeFailed) {
				t.Fatalf("expected ErrProbeFailed, got %v", err)
			}
		})
	}
}

func TestParseProbeOutput(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    domain.MediaInfo
		wantErr bool
	}{
		{
			name: "video stream with resolution and duration",
			payload: `{
				"streams": [{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080}],
				"format": {"duration": "120.5"}
			}`,
			want: domain.MediaInfo{HasVideo: true, Codec: "h264", Width: 1920, Height: 1080, Duration: 120.5},
		},
		{
			name: "first video stream wins",
			payload: `{
				"streams": [
					{"codec_type": "video", "codec_name": "h264", "width": 854, "height": 480},
					{"codec_type": "video", "codec_name": "hevc", "width": 3840, "height": 2160}
				],
				"format": {}
			}`,
			want: domain.MediaInfo{HasVideo: true, Codec: "h264", Width: 854, Height: 480},
		},
		{
			name:    "audio only is an error",
			payload: `{"streams": [{"codec_type": "audio", "codec_name": "aac"}], "format": {"duration": "30"}}`,
			wantErr: true,
		},
		{
			name:    "no streams",
			payload: `{"streams": [], "format": {}}`,
			wantErr: true,
		},
		{
			name:    "malformed json",
			payload: `{"streams": [`,
			wantErr: true,
		},
		{
			name: "negative duration ignored",
			payload: `{
				"streams": [{"codec_type": "video", "codec_name": "vp9", "width": 640, "height": 360}],
				"format": {"duration": "-1"}
			}`,
			want: domain.MediaInfo{HasVideo: true, Codec: "vp9", Width: 640, Height: 360},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseProbeOutput([]byte(tc.payload))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("parseProbeOutput = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestProbeMissingBinary(t *testing.T) {
	p := New("/nonexistent/ffprobe-binary")
	_, err := p.Probe(context.Background(), "/tmp/whatever.mp4")
	if !errors.Is(err, domain.ErrProbeFailed) {
		t.Fatalf("expected ErrProbeFailed, got %v", err)
	}
}
