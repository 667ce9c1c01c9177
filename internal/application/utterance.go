package application

import "context"

// UtteranceSource delivers transcribed voice commands, one at a time.
type UtteranceSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextUtterance(ctx context.Context) (string, error)
	Name() string
}
