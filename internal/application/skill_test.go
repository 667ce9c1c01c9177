package application_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"object-recognizer/internal/application"
	"object-recognizer/internal/dialog"
	"object-recognizer/internal/domain"
)

type mockCamera struct {
	image    []byte
	err      error
	captures int
}

func (m *mockCamera) Capture(_ context.Context) ([]byte, error) {
	m.captures++
	return m.image, m.err
}

func (m *mockCamera) Name() string { return "mock" }

type mockConn struct {
	sendErr    error
	reply      domain.Recognition
	receiveErr error
	sent       []domain.ObjectRecognitionMessage
	closed     bool
}

func (m *mockConn) Send(_ context.Context, msg domain.ObjectRecognitionMessage) error {
	m.sent = append(m.sent, msg)
	return m.sendErr
}

func (m *mockConn) Receive(_ context.Context) (domain.Recognition, error) {
	return m.reply, m.receiveErr
}

func (m *mockConn) Close() error {
	m.closed = true
	return nil
}

// mockConnector hands out conns in order and then repeats the last one.
type mockConnector struct {
	conns    []*mockConn
	err      error
	connects int
}

func (m *mockConnector) Connect(_ context.Context) (application.Conn, error) {
	m.connects++
	if m.err != nil {
		return nil, m.err
	}
	i := m.connects - 1
	if i >= len(m.conns) {
		i = len(m.conns) - 1
	}
	return m.conns[i], nil
}

func (m *mockConnector) Addr() string { return "mock:8888" }

func (m *mockConnector) sends() int {
	n := 0
	for _, c := range m.conns {
		n += len(c.sent)
	}
	return n
}

type mockListener struct {
	phrase string
	err    error
	calls  int
}

func (m *mockListener) Listen(_ context.Context) (string, error) {
	m.calls++
	return m.phrase, m.err
}

type recordingSpeaker struct {
	sentences []string
}

func (r *recordingSpeaker) Speak(_ context.Context, sentence string) error {
	r.sentences = append(r.sentences, sentence)
	return nil
}

func (r *recordingSpeaker) last() string {
	if len(r.sentences) == 0 {
		return ""
	}
	return r.sentences[len(r.sentences)-1]
}

// nameRenderer renders a dialog as "<name>:<result>" so tests can assert on
// which dialog was chosen.
type nameRenderer struct{}

func (nameRenderer) Render(name string, slots map[string]string) string {
	if r, ok := slots["result"]; ok {
		return name + ":" + r
	}
	if o, ok := slots["object"]; ok {
		return name + ":" + o
	}
	return name
}

type mockSource struct {
	utterances []string
	index      int
}

func (m *mockSource) Start(_ context.Context) error { return nil }
func (m *mockSource) Stop() error                   { return nil }
func (m *mockSource) Name() string                  { return "mock" }

func (m *mockSource) NextUtterance(_ context.Context) (string, error) {
	if m.index >= len(m.utterances) {
		return "", io.EOF
	}
	u := m.utterances[m.index]
	m.index++
	return u, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	camera    *mockCamera
	connector *mockConnector
	listener  *mockListener
	speaker   *recordingSpeaker
	skill     *application.Skill
}

func newFixture(t *testing.T, conns ...*mockConn) *fixture {
	t.Helper()
	f := &fixture{
		camera:    &mockCamera{image: []byte("jpeg")},
		connector: &mockConnector{conns: conns},
		listener:  &mockListener{},
		speaker:   &recordingSpeaker{},
	}
	f.skill = application.NewSkill(
		f.camera, f.connector, f.listener, f.speaker, nameRenderer{}, discardLogger(),
		application.WithIDGenerator(func() string { return "id-1" }),
	)
	if err := f.skill.Connect(context.Background()); err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	return f
}

func TestSkill_Replies(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		reply     domain.Recognition
		want      string
	}{
		{
			name:      "cannot search",
			utterance: "count the apples",
			reply:     domain.ClassifyText(domain.ResultCannotSearch),
			want:      application.DialogCannotSearch,
		},
		{
			name:      "nothing found",
			utterance: "count the apples",
			reply:     domain.ClassifyText(domain.ResultNotFound),
			want:      application.DialogNoResult + ":apples",
		},
		{
			name:      "desired object",
			utterance: "count the apples",
			reply:     domain.ClassifyText("3 apple,2 orange"),
			want:      application.DialogResultSingle + ":3 apples",
		},
		{
			name:      "desired object missing",
			utterance: "how many cars",
			reply:     domain.ClassifyText("3 apple,2 orange"),
			want:      application.DialogNoResult + ":cars",
		},
		{
			name:      "everything",
			utterance: "count everything",
			reply:     domain.ClassifyText("3 apple,2 orange"),
			want:      application.DialogResultAll + ":3 apple,2 orange",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockConn{reply: tt.reply}
			f := newFixture(t, conn)

			if err := f.skill.Handle(context.Background(), tt.utterance); err != nil {
				t.Fatalf("Handle error: %v", err)
			}
			if got := f.speaker.last(); got != tt.want {
				t.Errorf("spoken: got %q, want %q", got, tt.want)
			}
			if len(conn.sent) != 1 {
				t.Fatalf("sent %d messages, want 1", len(conn.sent))
			}
			if string(conn.sent[0].Image()) != "jpeg" || conn.sent[0].ID() != "id-1" {
				t.Errorf("sent message: id %q image %q", conn.sent[0].ID(), conn.sent[0].Image())
			}
		})
	}
}

func TestSkill_EverythingSendsNoObjectName(t *testing.T) {
	conn := &mockConn{reply: domain.ClassifyText("1 cup")}
	f := newFixture(t, conn)

	if err := f.skill.Handle(context.Background(), "count all the objects"); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if name := conn.sent[0].ObjectName(); name != "" {
		t.Errorf("object name: got %q, want empty", name)
	}
	if f.listener.calls != 0 {
		t.Error("listener should not be asked")
	}
}

func TestSkill_AsksForObject(t *testing.T) {
	conn := &mockConn{reply: domain.ClassifyText("2 cup")}
	f := newFixture(t, conn)
	f.listener.phrase = " cups "

	if err := f.skill.Handle(context.Background(), "count"); err != nil {
		t.Fatalf("Handle error: %v", err)
	}

	want := []string{application.DialogGetObject, application.DialogResultSingle + ":2 cups"}
	if len(f.speaker.sentences) != len(want) {
		t.Fatalf("spoken: got %q, want %q", f.speaker.sentences, want)
	}
	for i := range want {
		if f.speaker.sentences[i] != want[i] {
			t.Errorf("sentence %d: got %q, want %q", i, f.speaker.sentences[i], want[i])
		}
	}
	if name := conn.sent[0].ObjectName(); name != "cups" {
		t.Errorf("object name: got %q, want cups", name)
	}
}

func TestSkill_AsksForObjectDropsFillerWords(t *testing.T) {
	conn := &mockConn{reply: domain.ClassifyText("3 apple,2 orange")}
	f := newFixture(t, conn)
	f.listener.phrase = "The apples, please"

	if err := f.skill.Handle(context.Background(), "count"); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if got := f.speaker.last(); got != application.DialogResultSingle+":3 apples" {
		t.Errorf("spoken: got %q", got)
	}
	if name := conn.sent[0].ObjectName(); name != "apples" {
		t.Errorf("object name: got %q, want apples", name)
	}
}

func TestSkill_FillerOnlyPhraseIsLookupFailure(t *testing.T) {
	conn := &mockConn{}
	f := newFixture(t, conn)
	f.listener.phrase = "the"

	err := f.skill.Handle(context.Background(), "how many")
	if !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("got %v, want ErrLookup", err)
	}
	if got := f.speaker.last(); got != application.DialogGetObjectError {
		t.Errorf("spoken: got %q", got)
	}
	if len(conn.sent) != 0 {
		t.Error("nothing should be sent without an object")
	}
}

func TestSkill_RenderedSentences(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		reply     string
		want      string
	}{
		{"nothing found for everything", "count everything", domain.ResultNotFound, "I could not find anything"},
		{"nothing found for object", "count the apples", domain.ResultNotFound, "I could not find any apples"},
		{"object missing from counts", "how many cars", "3 apple", "I could not find any cars"},
		{"object found", "count the apples", "3 apple,2 orange", "I can see 3 apples"},
		{"everything", "count everything", "3 apple,2 orange", "I can see 3 apple,2 orange"},
		{"cannot search", "count everything", domain.ResultCannotSearch, "I can not search right now"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &mockConn{reply: domain.ClassifyText(tt.reply)}
			speaker := &recordingSpeaker{}
			skill := application.NewSkill(
				&mockCamera{image: []byte("jpeg")},
				&mockConnector{conns: []*mockConn{conn}},
				&mockListener{},
				speaker,
				dialog.Default(dialog.First),
				discardLogger(),
			)

			if err := skill.Handle(context.Background(), tt.utterance); err != nil {
				t.Fatalf("Handle error: %v", err)
			}
			if got := speaker.last(); got != tt.want {
				t.Errorf("spoken: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSkill_LookupFailure(t *testing.T) {
	conn := &mockConn{}
	f := newFixture(t, conn)
	f.listener.err = domain.ErrLookup

	err := f.skill.Handle(context.Background(), "count")
	if !errors.Is(err, domain.ErrLookup) {
		t.Fatalf("got %v, want ErrLookup", err)
	}
	if got := f.speaker.last(); got != application.DialogGetObjectError {
		t.Errorf("spoken: got %q", got)
	}
	if f.camera.captures != 0 {
		t.Error("camera should not be used after a lookup failure")
	}
	if len(conn.sent) != 0 {
		t.Error("nothing should be sent after a lookup failure")
	}
}

func TestSkill_SendRetriesExhausted(t *testing.T) {
	sendErr := errors.New("broken pipe")
	f := newFixture(t,
		&mockConn{sendErr: sendErr},
		&mockConn{sendErr: sendErr},
		&mockConn{sendErr: sendErr},
		&mockConn{sendErr: sendErr},
	)

	err := f.skill.Handle(context.Background(), "count the apples")
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("got %v, want ErrConnection", err)
	}
	if !errors.Is(err, sendErr) {
		t.Errorf("last send error should be wrapped: %v", err)
	}
	if n := f.connector.sends(); n != application.DefaultSendRetries {
		t.Errorf("send attempts: got %d, want %d", n, application.DefaultSendRetries)
	}
	if got := f.speaker.last(); got != application.DialogConnectionError {
		t.Errorf("spoken: got %q", got)
	}
	if !f.connector.conns[0].closed {
		t.Error("failed connection should be closed before reconnecting")
	}
}

func TestSkill_SendSucceedsAfterReconnect(t *testing.T) {
	good := &mockConn{reply: domain.ClassifyText("4 apple")}
	f := newFixture(t, &mockConn{sendErr: errors.New("reset")}, good)

	if err := f.skill.Handle(context.Background(), "count the apples"); err != nil {
		t.Fatalf("Handle error: %v", err)
	}
	if len(good.sent) != 1 {
		t.Errorf("messages on new connection: got %d, want 1", len(good.sent))
	}
	if got := f.speaker.last(); got != application.DialogResultSingle+":4 apples" {
		t.Errorf("spoken: got %q", got)
	}
}

func TestSkill_SendWithoutConnection(t *testing.T) {
	connector := &mockConnector{err: errors.New("refused")}
	speaker := &recordingSpeaker{}
	skill := application.NewSkill(
		&mockCamera{image: []byte("jpeg")}, connector, &mockListener{}, speaker, nameRenderer{}, discardLogger(),
		application.WithSendRetries(2),
	)

	err := skill.Handle(context.Background(), "count the apples")
	if !errors.Is(err, domain.ErrConnection) {
		t.Fatalf("got %v, want ErrConnection", err)
	}
	if skill.Connected() {
		t.Error("skill should not be connected")
	}
	// One reconnect between the two attempts.
	if connector.connects != 1 {
		t.Errorf("connects: got %d, want 1", connector.connects)
	}
	if got := speaker.last(); got != application.DialogConnectionError {
		t.Errorf("spoken: got %q", got)
	}
}

func TestSkill_UnknownErrorReconnects(t *testing.T) {
	first := &mockConn{receiveErr: errors.New("garbled reply")}
	second := &mockConn{}
	f := newFixture(t, first, second)

	err := f.skill.Handle(context.Background(), "count the apples")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrConnection) || errors.Is(err, domain.ErrLookup) {
		t.Errorf("unexpected classification: %v", err)
	}
	if got := f.speaker.last(); got != application.DialogUnknownError {
		t.Errorf("spoken: got %q", got)
	}
	if f.connector.connects != 2 {
		t.Errorf("connects: got %d, want 2", f.connector.connects)
	}
	if !first.closed {
		t.Error("old connection should be closed")
	}
}

func TestSkill_CameraFailureIsUnknownError(t *testing.T) {
	f := newFixture(t, &mockConn{})
	f.camera.err = errors.New("no device")

	if err := f.skill.Handle(context.Background(), "count the apples"); err == nil {
		t.Fatal("expected error")
	}
	if got := f.speaker.last(); got != application.DialogUnknownError {
		t.Errorf("spoken: got %q", got)
	}
}

func TestSkill_IgnoresOtherUtterances(t *testing.T) {
	conn := &mockConn{}
	f := newFixture(t, conn)

	err := f.skill.Handle(context.Background(), "turn on the lights")
	if !errors.Is(err, domain.ErrNoIntent) {
		t.Fatalf("got %v, want ErrNoIntent", err)
	}
	if len(f.speaker.sentences) != 0 || len(conn.sent) != 0 {
		t.Error("nothing should happen for other utterances")
	}
}

func TestSkill_Run(t *testing.T) {
	conn := &mockConn{reply: domain.ClassifyText("2 cup")}
	connector := &mockConnector{conns: []*mockConn{conn}}
	speaker := &recordingSpeaker{}
	skill := application.NewSkill(
		&mockCamera{image: []byte("jpeg")}, connector, &mockListener{}, speaker, nameRenderer{}, discardLogger(),
	)

	source := &mockSource{utterances: []string{
		"what time is it",
		"count the cups",
		"how many cups",
	}}

	err := skill.Run(context.Background(), source)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run: got %v, want io.EOF", err)
	}
	if len(speaker.sentences) != 2 {
		t.Errorf("spoken: got %q, want two answers", speaker.sentences)
	}
	if !conn.closed {
		t.Error("connection should be closed when Run returns")
	}
	if skill.Connected() {
		t.Error("skill should be disconnected after Run")
	}
}
