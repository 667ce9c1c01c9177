package application

import "context"

// Camera captures one still image on demand, JPEG encoded.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
	Name() string
}
