package utterance

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
)

// ConsoleSource reads typed utterances from the terminal.
type ConsoleSource struct {
	prompt string
	stdin  io.ReadCloser

	mu    sync.Mutex
	rl    *readline.Instance
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

func NewConsoleSource(prompt string) *ConsoleSource {
	return &ConsoleSource{prompt: prompt}
}

// NewConsoleSourceFrom reads from r instead of the terminal.
func NewConsoleSourceFrom(prompt string, r io.ReadCloser) *ConsoleSource {
	return &ConsoleSource{prompt: prompt, stdin: r}
}

func (c *ConsoleSource) Name() string {
	return "console"
}

func (c *ConsoleSource) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rl != nil {
		return nil
	}

	cfg := &readline.Config{Prompt: c.prompt}
	if c.stdin != nil {
		cfg.Stdin = c.stdin
		cfg.Stdout = io.Discard
		cfg.FuncIsTerminal = func() bool { return false }
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	c.rl = rl
	c.lines = make(chan lineResult, 1)

	go c.readLoop(rl)
	return nil
}

func (c *ConsoleSource) readLoop(rl *readline.Instance) {
	defer close(c.lines)
	for {
		line, err := rl.Readline()
		if err != nil {
			c.lines <- lineResult{err: err}
			return
		}
		c.lines <- lineResult{line: line}
	}
}

func (c *ConsoleSource) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rl == nil {
		return nil
	}
	err := c.rl.Close()
	c.rl = nil
	return err
}

// NextUtterance skips blank lines. io.EOF (Ctrl-D) ends the source.
func (c *ConsoleSource) NextUtterance(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-c.lines:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				if res.err == readline.ErrInterrupt {
					return "", io.EOF
				}
				return "", res.err
			}
			if line := strings.TrimSpace(res.line); line != "" {
				return line, nil
			}
		}
	}
}
