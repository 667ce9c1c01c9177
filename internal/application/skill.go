package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"object-recognizer/internal/domain"
)

const DefaultSendRetries = 3

var errNotConnected = errors.New("not connected")

// Skill answers "count" voice commands: it captures an image, asks the
// recognition server what is on it and speaks the answer.
type Skill struct {
	intents     IntentParser
	camera      Camera
	connector   Connector
	phrases     PhraseListener
	speaker     Speaker
	dialogs     DialogRenderer
	interpreter *Interpreter
	logger      *slog.Logger

	sendRetries int
	newID       func() string

	conn Conn
}

type SkillOption func(*Skill)

func WithSendRetries(n int) SkillOption {
	return func(s *Skill) {
		if n > 0 {
			s.sendRetries = n
		}
	}
}

func WithIDGenerator(fn func() string) SkillOption {
	return func(s *Skill) { s.newID = fn }
}

func WithIntentParser(p IntentParser) SkillOption {
	return func(s *Skill) { s.intents = p }
}

func NewSkill(
	camera Camera,
	connector Connector,
	phrases PhraseListener,
	speaker Speaker,
	dialogs DialogRenderer,
	logger *slog.Logger,
	opts ...SkillOption,
) *Skill {
	s := &Skill{
		intents:     KeywordIntentParser{},
		camera:      camera,
		connector:   connector,
		phrases:     phrases,
		speaker:     speaker,
		dialogs:     dialogs,
		interpreter: NewInterpreter(),
		logger:      logger,
		sendRetries: DefaultSendRetries,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect opens the server connection, replacing any previous one.
func (s *Skill) Connect(ctx context.Context) error {
	conn, err := s.reconnect(ctx, s.conn)
	s.conn = conn
	return err
}

func (s *Skill) Connected() bool {
	return s.conn != nil
}

// Close releases the server connection.
func (s *Skill) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	s.logger.Info("object recognizer skill closed")
	return err
}

// reconnect closes old (if any) and dials a fresh connection. On failure the
// returned handle is nil.
func (s *Skill) reconnect(ctx context.Context, old Conn) (Conn, error) {
	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Debug("closing previous connection", "error", err)
		}
	}

	s.logger.Info("connecting to recognition server", "addr", s.connector.Addr())
	conn, err := s.connector.Connect(ctx)
	if err != nil {
		s.logger.Warn("connecting to recognition server", "addr", s.connector.Addr(), "error", err)
		return nil, fmt.Errorf("connecting to %s: %w", s.connector.Addr(), err)
	}

	s.logger.Info("connected to recognition server", "addr", s.connector.Addr())
	return conn, nil
}

// Run handles utterances from source until ctx is done. Failed commands are
// logged and never stop the loop.
func (s *Skill) Run(ctx context.Context, source UtteranceSource) error {
	if err := s.Connect(ctx); err != nil {
		s.logger.Warn("starting without server connection", "error", err)
	}
	defer s.Close()

	s.logger.Info("starting utterance source", "source", source.Name())
	if err := source.Start(ctx); err != nil {
		return fmt.Errorf("starting utterance source: %w", err)
	}
	defer source.Stop()

	s.logger.Info("skill ready, listening for commands")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		utterance, err := source.NextUtterance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading utterance: %w", err)
		}

		if err := s.Handle(ctx, utterance); err != nil {
			if errors.Is(err, domain.ErrNoIntent) {
				s.logger.Debug("ignoring utterance", "utterance", utterance)
				continue
			}
			s.logger.Warn("handling command", "utterance", utterance, "error", err)
		}
	}
}

// Handle processes one utterance. Every failure past intent matching is
// turned into a spoken dialog; the error is still returned for logging.
func (s *Skill) Handle(ctx context.Context, utterance string) error {
	intent, err := s.intents.Parse(ctx, utterance)
	if err != nil {
		return err
	}

	s.logger.Info("count intent",
		"utterance", utterance,
		"everything", intent.Everything,
		"object", intent.Object,
	)

	err = s.answer(ctx, intent)
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return err
	case errors.Is(err, domain.ErrLookup):
		s.say(ctx, DialogGetObjectError, nil)
	case errors.Is(err, domain.ErrConnection):
		s.say(ctx, DialogConnectionError, nil)
	default:
		s.logger.Error("something is wrong", "error", err)
		s.say(ctx, DialogUnknownError, nil)
		conn, cerr := s.reconnect(ctx, s.conn)
		s.conn = conn
		if cerr != nil {
			s.logger.Warn("reconnect after failure", "error", cerr)
		}
	}
	return err
}

func (s *Skill) answer(ctx context.Context, intent *domain.Intent) error {
	object := ""
	if !intent.Everything {
		object = intent.Object
	}

	if intent.NeedsObject() {
		s.say(ctx, DialogGetObject, nil)
		phrase, err := s.phrases.Listen(ctx)
		if err != nil {
			return fmt.Errorf("asking for object: %w", err)
		}
		object = objectName(phrase)
		if object == "" {
			return fmt.Errorf("asking for object: %w", domain.ErrLookup)
		}
	}

	image, err := s.camera.Capture(ctx)
	if err != nil {
		return fmt.Errorf("capturing image from %s: %w", s.camera.Name(), err)
	}

	msg := domain.NewObjectRecognitionMessage(s.newID(), image, object)
	s.logger.Debug("sending image", "id", msg.ID(), "bytes", len(image), "object", object)

	if err := s.ensureSend(ctx, msg); err != nil {
		return err
	}

	rec, err := s.conn.Receive(ctx)
	if err != nil {
		return fmt.Errorf("receiving reply: %w", err)
	}
	s.logger.Info("recognition reply", "id", rec.ID, "kind", rec.Kind, "text", rec.Text)

	switch rec.Kind {
	case domain.KindCannotSearch:
		s.say(ctx, DialogCannotSearch, nil)
		return nil
	case domain.KindNotFound:
		s.sayNoResult(ctx, map[string]string{"object": object})
		return nil
	}

	outcome, err := s.interpreter.Interpret(rec, object)
	if err != nil {
		return fmt.Errorf("interpreting reply: %w", err)
	}

	slots := map[string]string{
		"result": outcome.Sentence,
		"object": outcome.Object,
		"count":  strconv.Itoa(outcome.Count),
	}
	switch {
	case !outcome.Found:
		s.sayNoResult(ctx, slots)
	case outcome.Everything:
		s.say(ctx, DialogResultAll, slots)
	default:
		s.say(ctx, DialogResultSingle, slots)
	}
	return nil
}

// ensureSend tries to send msg at most sendRetries times, reconnecting
// between attempts. It fails with domain.ErrConnection once all attempts fail.
func (s *Skill) ensureSend(ctx context.Context, msg domain.ObjectRecognitionMessage) error {
	var lastErr error
	for attempt := 1; attempt <= s.sendRetries; attempt++ {
		if s.conn == nil {
			lastErr = errNotConnected
		} else if lastErr = s.conn.Send(ctx, msg); lastErr == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == s.sendRetries {
			break
		}

		s.logger.Warn("send failed, reconnecting", "attempt", attempt, "error", lastErr)
		conn, err := s.reconnect(ctx, s.conn)
		s.conn = conn
		if err != nil {
			lastErr = err
		}
	}

	return fmt.Errorf("sending after %d attempts: %w: %w", s.sendRetries, domain.ErrConnection, lastErr)
}

// sayNoResult needs an object to name; "count everything" gets NoResultAll.
func (s *Skill) sayNoResult(ctx context.Context, slots map[string]string) {
	if slots["object"] == "" {
		s.say(ctx, DialogNoResultAll, slots)
		return
	}
	s.say(ctx, DialogNoResult, slots)
}

func (s *Skill) say(ctx context.Context, dialog string, slots map[string]string) {
	sentence := s.dialogs.Render(dialog, slots)
	if err := s.speaker.Speak(ctx, sentence); err != nil {
		s.logger.Error("speaking", "dialog", dialog, "error", err)
	}
}
