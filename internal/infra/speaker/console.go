// Package speaker delivers spoken sentences. Without a text-to-speech engine
// attached they are printed and logged.
package speaker

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

type Console struct {
	mu     sync.Mutex
	w      io.Writer
	prefix string
	logger *slog.Logger
}

func NewConsole(w io.Writer, logger *slog.Logger) *Console {
	return &Console{w: w, prefix: "» ", logger: logger}
}

func (c *Console) Speak(ctx context.Context, sentence string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Info("speak", "sentence", sentence)
	if _, err := fmt.Fprintln(c.w, c.prefix+sentence); err != nil {
		return fmt.Errorf("writing sentence: %w", err)
	}
	return nil
}
