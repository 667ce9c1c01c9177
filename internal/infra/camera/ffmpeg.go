// Package camera captures still JPEG images for the skill.
package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

var jpegStart = []byte{0xFF, 0xD8}

// FFmpegCamera grabs one frame from a V4L2 device through ffmpeg.
type FFmpegCamera struct {
	binary     string
	devicePath string
	width      int
	height     int
}

func NewFFmpegCamera(devicePath string, width, height int) *FFmpegCamera {
	return &FFmpegCamera{
		binary:     "ffmpeg",
		devicePath: devicePath,
		width:      width,
		height:     height,
	}
}

func (c *FFmpegCamera) Name() string {
	return "ffmpeg:" + c.devicePath
}

// Args returns the ffmpeg arguments for a single high-quality JPEG frame.
func (c *FFmpegCamera) Args() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", c.width, c.height),
		"-i", c.devicePath,
		"-vframes", "1",
		"-f", "image2",
		"-c:v", "mjpeg",
		"-q:v", "2",
		"-",
	}
}

func (c *FFmpegCamera) Capture(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.binary, c.Args()...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("capturing frame: %w (stderr: %s)", err, stderr.String())
	}

	return checkJPEG(stdout.Bytes())
}

func checkJPEG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("camera returned no data")
	}
	if !bytes.HasPrefix(data, jpegStart) {
		return nil, errors.New("camera output is not a JPEG image")
	}
	return data, nil
}
