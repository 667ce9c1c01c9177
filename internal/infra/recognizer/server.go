package recognizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gertd/go-pluralize"

	"object-recognizer/internal/domain"
	"object-recognizer/internal/infra/transport"
)

// Server answers recognition requests over TCP. Connections are served
// concurrently; requests on one connection are handled in order.
type Server struct {
	detector Detector
	logger   *slog.Logger
	plural   *pluralize.Client
	timeout  time.Duration

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(detector Detector, idleTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		detector: detector,
		logger:   logger,
		plural:   pluralize.NewClient(),
		timeout:  idleTimeout,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections until ctx is cancelled, then closes open
// connections and waits for their handlers.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
		s.closeConns()
	}()

	s.logger.Info("recognition server listening", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept timeout", "error", err)
				continue
			}
			s.wg.Wait()
			return fmt.Errorf("accepting connection: %w", err)
		}

		s.track(conn, true)
		if ctx.Err() != nil {
			// closeConns may already have run.
			conn.Close()
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logger := s.logger.With("remote", remote)
	logger.Info("client connected")

	scanner := transport.NewScanner(conn, transport.MaxRequestSize)
	for {
		if s.timeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.timeout)); err != nil {
				logger.Warn("setting read deadline", "error", err)
				return
			}
		}

		line, err := transport.ReadLine(scanner)
		if err != nil {
			if ctx.Err() == nil {
				logger.Info("client disconnected", "reason", err)
			}
			return
		}

		id, result := s.handleLine(ctx, line, logger)

		if s.timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
				logger.Warn("setting write deadline", "error", err)
				return
			}
		}
		if err := transport.WriteResponse(conn, id, result); err != nil {
			logger.Warn("writing response", "id", id, "error", err)
			return
		}
	}
}

func (s *Server) handleLine(ctx context.Context, line []byte, logger *slog.Logger) (string, string) {
	msg, err := transport.DecodeRequest(line)
	if err != nil {
		logger.Warn("malformed request", "error", err)
		return "", domain.ResultCannotSearch
	}

	start := time.Now()
	result := s.Recognize(ctx, msg)
	logger.Info("request handled",
		"id", msg.ID(),
		"object", msg.ObjectName(),
		"result", result,
		"elapsed", time.Since(start),
	)
	return msg.ID(), result
}

// Recognize runs the detector on msg and formats the wire result: "-1" when
// the image cannot be searched, "" when nothing matches, otherwise
// "<count> <noun>" pairs joined by commas, most frequent first.
func (s *Server) Recognize(ctx context.Context, msg domain.ObjectRecognitionMessage) string {
	if len(msg.Image()) == 0 {
		return domain.ResultCannotSearch
	}

	labels, err := s.detector.Detect(ctx, msg.Image())
	if err != nil {
		s.logger.Warn("detection failed", "id", msg.ID(), "error", err)
		return domain.ResultCannotSearch
	}

	counts := s.countLabels(labels, msg.ObjectName())
	if len(counts) == 0 {
		return domain.ResultNotFound
	}
	return domain.FormatCounts(counts)
}

func (s *Server) countLabels(labels []string, object string) []domain.ObjectCount {
	var want string
	if object = strings.ToLower(strings.TrimSpace(object)); object != "" {
		want = s.plural.Singular(object)
	}

	byName := make(map[string]int)
	for _, label := range labels {
		label = strings.ToLower(strings.TrimSpace(label))
		if label == "" {
			continue
		}
		if want != "" && label != want && s.plural.Singular(label) != want {
			continue
		}
		byName[label]++
	}

	counts := make([]domain.ObjectCount, 0, len(byName))
	for name, n := range byName {
		counts = append(counts, domain.ObjectCount{Name: name, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Name < counts[j].Name
	})
	return counts
}
