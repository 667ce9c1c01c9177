package camera

import (
	"context"
	"fmt"
	"os"
)

// FileCamera returns the same JPEG file on every capture. Useful without a
// camera attached.
type FileCamera struct {
	path string
}

func NewFileCamera(path string) *FileCamera {
	return &FileCamera{path: path}
}

func (c *FileCamera) Name() string {
	return "file:" + c.path
}

func (c *FileCamera) Capture(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}
	return checkJPEG(data)
}
