package application

import (
	"fmt"
	"strings"

	"github.com/gertd/go-pluralize"

	"object-recognizer/internal/domain"
)

// Interpreter turns a classified server reply into the sentence to speak.
type Interpreter struct {
	plural *pluralize.Client
}

func NewInterpreter() *Interpreter {
	return &Interpreter{plural: pluralize.NewClient()}
}

// Singular lower-cases and trims noun and returns its singular form.
func (in *Interpreter) Singular(noun string) string {
	noun = strings.ToLower(strings.TrimSpace(noun))
	if noun == "" {
		return ""
	}
	return in.plural.Singular(noun)
}

// NounForCount returns the singular form for n == 1 and the plural otherwise.
// The input may already be plural.
func (in *Interpreter) NounForCount(noun string, n int) string {
	singular := in.Singular(noun)
	if n == 1 {
		return singular
	}
	return in.plural.Plural(singular)
}

// Interpret builds the outcome for rec. An empty desired means "everything".
// When desired is not among the counts, the outcome carries desired unchanged
// and Found is false.
func (in *Interpreter) Interpret(rec domain.Recognition, desired string) (domain.Outcome, error) {
	if rec.IsSentinel() {
		return domain.Outcome{}, fmt.Errorf("interpreting %s reply: %w", rec.Kind, domain.ErrSentinel)
	}

	if strings.TrimSpace(desired) == "" {
		return in.everything(rec), nil
	}

	if rec.Kind == domain.KindFreeText {
		return domain.Outcome{Object: desired, Found: true, Sentence: rec.Text}, nil
	}

	singular := in.Singular(desired)
	plural := in.plural.Plural(singular)
	for _, c := range rec.Counts {
		name := strings.ToLower(c.Name)
		if name != singular && name != plural && in.Singular(name) != singular {
			continue
		}
		return domain.Outcome{
			Object:   singular,
			Count:    c.Count,
			Found:    true,
			Sentence: fmt.Sprintf("%d %s", c.Count, in.NounForCount(singular, c.Count)),
		}, nil
	}

	return domain.Outcome{Object: desired, Sentence: desired}, nil
}

func (in *Interpreter) everything(rec domain.Recognition) domain.Outcome {
	out := domain.Outcome{Everything: true, Found: true}
	for _, c := range rec.Counts {
		out.Count += c.Count
	}

	if rec.Text != "" {
		out.Sentence = rec.Text
		return out
	}

	parts := make([]string, len(rec.Counts))
	for i, c := range rec.Counts {
		parts[i] = fmt.Sprintf("%d %s", c.Count, in.NounForCount(c.Name, c.Count))
	}
	out.Sentence = strings.Join(parts, ", ")
	return out
}
