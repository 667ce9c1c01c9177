// Package transport carries ObjectRecognitionMessages to the recognition
// server. Messages are JSON objects, one per line.
package transport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"object-recognizer/internal/domain"
)

const (
	// MaxRequestSize bounds one request line (base64 image included).
	MaxRequestSize = 16 << 20
	// MaxResponseSize bounds one reply line.
	MaxResponseSize = 1 << 20
)

type Request struct {
	ID         string `json:"id"`
	Image      []byte `json:"image"`
	ObjectName string `json:"object_name,omitempty"`
}

type Response struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result"`
}

func WriteRequest(w io.Writer, msg domain.ObjectRecognitionMessage) error {
	return writeLine(w, Request{
		ID:         msg.ID(),
		Image:      msg.Image(),
		ObjectName: msg.ObjectName(),
	})
}

func WriteResponse(w io.Writer, id, result string) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return writeLine(w, Response{ID: id, Result: raw})
}

func writeLine(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	return nil
}

// NewScanner returns a line scanner that accepts lines up to max bytes.
func NewScanner(r io.Reader, max int) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), max)
	return s
}

// ReadLine returns the next non-empty line, or io.EOF.
func ReadLine(s *bufio.Scanner) ([]byte, error) {
	for s.Scan() {
		line := bytes.TrimSpace(s.Bytes())
		if len(line) > 0 {
			return line, nil
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

func DecodeRequest(line []byte) (domain.ObjectRecognitionMessage, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return domain.ObjectRecognitionMessage{}, fmt.Errorf("decoding request: %w", err)
	}
	return domain.NewObjectRecognitionMessage(req.ID, req.Image, req.ObjectName), nil
}

var errResultShape = errors.New("result is neither a string nor an object")

// DecodeResponse decodes one reply line and classifies its result.
func DecodeResponse(line []byte) (domain.Recognition, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return domain.Recognition{}, fmt.Errorf("decoding response: %w", err)
	}

	rec, err := classifyResult(resp.Result)
	if err != nil {
		return domain.Recognition{}, fmt.Errorf("decoding response %s: %w", resp.ID, err)
	}
	rec.ID = resp.ID
	return rec, nil
}

func classifyResult(raw json.RawMessage) (domain.Recognition, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return domain.Recognition{Kind: domain.KindNotFound}, nil
	}

	switch raw[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return domain.Recognition{}, err
		}
		return domain.ClassifyText(text), nil

	case '{':
		var mapping map[string]int
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return domain.Recognition{}, err
		}
		if len(mapping) == 0 {
			return domain.Recognition{Kind: domain.KindNotFound}, nil
		}
		counts := make([]domain.ObjectCount, 0, len(mapping))
		for name, n := range mapping {
			counts = append(counts, domain.ObjectCount{Name: name, Count: n})
		}
		sort.Slice(counts, func(i, j int) bool { return counts[i].Name < counts[j].Name })
		return domain.Recognition{Kind: domain.KindCounts, Counts: counts}, nil
	}

	return domain.Recognition{}, errResultShape
}
