//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"fmt"
)

// GoCVCamera stub when OpenCV is not available
type GoCVCamera struct {
	device string
}

func NewGoCVCamera(device string, width, height int) *GoCVCamera {
	return &GoCVCamera{device: device}
}

func (c *GoCVCamera) Name() string {
	return "gocv:" + c.device
}

func (c *GoCVCamera) Capture(_ context.Context) ([]byte, error) {
	return nil, fmt.Errorf("gocv camera not available: rebuild with -tags gocv")
}

func (c *GoCVCamera) Close() error {
	return nil
}
