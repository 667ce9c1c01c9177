package transport_test

import (
	"bytes"
	"testing"

	"object-recognizer/internal/domain"
	"object-recognizer/internal/infra/transport"
)

func TestDecodeResponse_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantKind domain.RecognitionKind
		wantLen  int
	}{
		{"cannot search", `{"id":"1","result":"-1"}`, domain.KindCannotSearch, 0},
		{"not found", `{"id":"1","result":""}`, domain.KindNotFound, 0},
		{"null result", `{"id":"1","result":null}`, domain.KindNotFound, 0},
		{"missing result", `{"id":"1"}`, domain.KindNotFound, 0},
		{"string counts", `{"id":"1","result":"3 apple,2 orange"}`, domain.KindCounts, 2},
		{"free text", `{"id":"1","result":"I see a lot of fruit"}`, domain.KindFreeText, 0},
		{"mapping", `{"id":"1","result":{"orange":2,"apple":3}}`, domain.KindCounts, 2},
		{"empty mapping", `{"id":"1","result":{}}`, domain.KindNotFound, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := transport.DecodeResponse([]byte(tt.line))
			if err != nil {
				t.Fatalf("DecodeResponse error: %v", err)
			}
			if rec.Kind != tt.wantKind {
				t.Errorf("kind: got %s, want %s", rec.Kind, tt.wantKind)
			}
			if len(rec.Counts) != tt.wantLen {
				t.Errorf("counts: got %d, want %d", len(rec.Counts), tt.wantLen)
			}
			if rec.ID != "1" {
				t.Errorf("id: got %q, want 1", rec.ID)
			}
		})
	}
}

func TestDecodeResponse_MappingIsSorted(t *testing.T) {
	rec, err := transport.DecodeResponse([]byte(`{"id":"x","result":{"orange":2,"apple":3}}`))
	if err != nil {
		t.Fatalf("DecodeResponse error: %v", err)
	}
	if rec.Counts[0].Name != "apple" || rec.Counts[0].Count != 3 {
		t.Errorf("first count: got %+v", rec.Counts[0])
	}
	if rec.Text != "" {
		t.Errorf("mapping should carry no text, got %q", rec.Text)
	}
}

func TestDecodeResponse_Invalid(t *testing.T) {
	for _, line := range []string{`not json`, `{"id":"1","result":42}`, `{"id":"1","result":["a"]}`} {
		if _, err := transport.DecodeResponse([]byte(line)); err == nil {
			t.Errorf("expected error for %s", line)
		}
	}
}

func TestRequest_RoundTrip(t *testing.T) {
	msg := domain.NewObjectRecognitionMessage("req-1", []byte{0xFF, 0xD8, 0x00, 0xFF, 0xD9}, "apples")

	var buf bytes.Buffer
	if err := transport.WriteRequest(&buf, msg); err != nil {
		t.Fatalf("WriteRequest error: %v", err)
	}
	if bytes.Count(buf.Bytes(), []byte("\n")) != 1 {
		t.Fatalf("request must be exactly one line: %q", buf.String())
	}

	line, err := transport.ReadLine(transport.NewScanner(&buf, transport.MaxRequestSize))
	if err != nil {
		t.Fatalf("ReadLine error: %v", err)
	}

	got, err := transport.DecodeRequest(line)
	if err != nil {
		t.Fatalf("DecodeRequest error: %v", err)
	}
	if got.ID() != "req-1" || got.ObjectName() != "apples" {
		t.Errorf("got id=%q object=%q", got.ID(), got.ObjectName())
	}
	if !bytes.Equal(got.Image(), msg.Image()) {
		t.Errorf("image mismatch")
	}
}

func TestWriteResponse_Sentinels(t *testing.T) {
	var buf bytes.Buffer
	if err := transport.WriteResponse(&buf, "a", domain.ResultCannotSearch); err != nil {
		t.Fatalf("WriteResponse error: %v", err)
	}
	if buf.String() != "{\"id\":\"a\",\"result\":\"-1\"}\n" {
		t.Errorf("got %q", buf.String())
	}
}
