//go:build gocv
// +build gocv

package camera

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// GoCVCamera captures frames through OpenCV's VideoCapture.
type GoCVCamera struct {
	device string
	width  int
	height int

	mu      sync.Mutex
	capture *gocv.VideoCapture
}

func NewGoCVCamera(device string, width, height int) *GoCVCamera {
	return &GoCVCamera{device: device, width: width, height: height}
}

func (c *GoCVCamera) Name() string {
	return "gocv:" + c.device
}

func (c *GoCVCamera) open() error {
	if c.capture != nil {
		return nil
	}
	vc, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return fmt.Errorf("opening video capture %s: %w", c.device, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(c.width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(c.height))
	c.capture = vc
	return nil
}

func (c *GoCVCamera) Capture(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.open(); err != nil {
		return nil, err
	}

	img := gocv.NewMat()
	defer img.Close()

	if ok := c.capture.Read(&img); !ok || img.Empty() {
		c.capture.Close()
		c.capture = nil
		return nil, fmt.Errorf("reading frame from %s", c.device)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	defer buf.Close()

	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return checkJPEG(data)
}

func (c *GoCVCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}
