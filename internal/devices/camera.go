package devices

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/NOLA9TECH-AI/G-Bot/internal/capture"
)

const grabTimeout = 5 * time.Second

// CameraGrabber captures single JPEG frames from a V4L2 device by running
// ffmpeg per grab. Implements capture.VideoGrabber. One process per frame is
// fine at the visual-mode cadence of about one frame per second.
type CameraGrabber struct {
	logger zerolog.Logger
	device string
	maxDim int
}

// NewCameraGrabber creates a grabber for the given video device. Frames wider
// or taller than maxDim are downscaled before upload.
func NewCameraGrabber(device string, maxDim int, logger zerolog.Logger) *CameraGrabber {
	if device == "" {
		device = "/dev/video0"
	}
	if maxDim <= 0 {
		maxDim = 640
	}
	return &CameraGrabber{
		logger: logger.With().Str("component", "camera").Logger(),
		device: device,
		maxDim: maxDim,
	}
}

// Grab captures one frame and returns it as a bounded-size JPEG.
func (g *CameraGrabber) Grab() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), grabTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-loglevel", "quiet",
		"-f", "v4l2",
		"-i", g.device,
		"-frames:v", "1",
		"-f", "mjpeg",
		"pipe:1",
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("camera grab %s: %w", g.device, err)
	}

	frame, err := capture.DownscaleJPEG(out, g.maxDim)
	if err != nil {
		return nil, fmt.Errorf("camera frame: %w", err)
	}
	g.logger.Debug().Int("bytes", len(frame)).Msg("Camera frame captured")
	return frame, nil
}

var _ capture.VideoGrabber = (*CameraGrabber)(nil)
