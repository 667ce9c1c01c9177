package transport

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"object-recognizer/internal/application"
	"object-recognizer/internal/domain"
)

const DefaultTimeout = 10 * time.Second

// Dialer opens connections to the recognition server.
type Dialer struct {
	addr    string
	timeout time.Duration
	logger  *slog.Logger
}

func NewDialer(host string, port int, timeout time.Duration, logger *slog.Logger) *Dialer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dialer{
		addr:    net.JoinHostPort(host, strconv.Itoa(port)),
		timeout: timeout,
		logger:  logger,
	}
}

func (d *Dialer) Addr() string {
	return d.addr
}

func (d *Dialer) Connect(ctx context.Context) (application.Conn, error) {
	return d.Dial(ctx)
}

func (d *Dialer) Dial(ctx context.Context) (*Conn, error) {
	nd := net.Dialer{Timeout: d.timeout}
	nc, err := nd.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", d.addr, err)
	}
	d.logger.Debug("tcp connection opened", "local", nc.LocalAddr().String(), "remote", d.addr)
	return NewConn(nc, d.timeout), nil
}

// Conn exchanges one request and one reply at a time over a stream.
type Conn struct {
	nc      net.Conn
	scanner *bufio.Scanner
	timeout time.Duration
}

func NewConn(nc net.Conn, timeout time.Duration) *Conn {
	return &Conn{
		nc:      nc,
		scanner: NewScanner(nc, MaxResponseSize),
		timeout: timeout,
	}
}

func (c *Conn) Send(ctx context.Context, msg domain.ObjectRecognitionMessage) error {
	if err := c.nc.SetWriteDeadline(c.deadline(ctx)); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}
	return WriteRequest(c.nc, msg)
}

func (c *Conn) Receive(ctx context.Context) (domain.Recognition, error) {
	if err := c.nc.SetReadDeadline(c.deadline(ctx)); err != nil {
		return domain.Recognition{}, fmt.Errorf("setting read deadline: %w", err)
	}
	line, err := ReadLine(c.scanner)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("reading response: %w", err)
	}
	return DecodeResponse(line)
}

func (c *Conn) Close() error {
	return c.nc.Close()
}

func (c *Conn) deadline(ctx context.Context) time.Time {
	d := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
