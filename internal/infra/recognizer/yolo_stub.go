//go:build !gocv
// +build !gocv

package recognizer

import (
	"context"
	"fmt"
)

// YOLODetector stub when OpenCV is not available
type YOLODetector struct{}

func NewYOLODetector(cfg YOLOConfig) (*YOLODetector, error) {
	return nil, fmt.Errorf("yolo detector not available: rebuild with -tags gocv")
}

func (d *YOLODetector) Detect(_ context.Context, _ []byte) ([]string, error) {
	return nil, fmt.Errorf("yolo detector not available")
}

func (d *YOLODetector) Close() error {
	return nil
}
