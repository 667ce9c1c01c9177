package application

import (
	"context"

	"object-recognizer/internal/domain"
)

// Conn is one open connection to the recognition server. It carries at most
// one request at a time.
type Conn interface {
	Send(ctx context.Context, msg domain.ObjectRecognitionMessage) error
	Receive(ctx context.Context) (domain.Recognition, error)
	Close() error
}

type Connector interface {
	Connect(ctx context.Context) (Conn, error)
	Addr() string
}
