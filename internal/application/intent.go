package application

import (
	"context"
	"strings"
	"unicode"

	"object-recognizer/internal/domain"
)

type IntentParser interface {
	Parse(ctx context.Context, utterance string) (*domain.Intent, error)
}

var (
	countVocab      = []string{"how many", "count"}
	everythingVocab = []string{"all the objects", "all objects", "everything"}
	fillerWords     = map[string]bool{
		"the": true, "a": true, "an": true, "there": true, "are": true, "is": true,
		"of": true, "in": true, "front": true, "me": true, "please": true,
		"can": true, "you": true, "see": true, "do": true, "i": true, "number": true,
	}
)

// KeywordIntentParser matches the count intent: a Count keyword is required,
// Everything and Object are optional slots.
type KeywordIntentParser struct{}

func (KeywordIntentParser) Parse(_ context.Context, utterance string) (*domain.Intent, error) {
	text := " " + normalizeUtterance(utterance) + " "

	matched := false
	for _, kw := range countVocab {
		if strings.Contains(text, " "+kw+" ") {
			matched = true
			text = strings.ReplaceAll(text, " "+kw+" ", " ")
		}
	}
	if !matched {
		return nil, domain.ErrNoIntent
	}

	intent := &domain.Intent{Utterance: utterance}
	for _, kw := range everythingVocab {
		if strings.Contains(text, " "+kw+" ") {
			intent.Everything = true
			text = strings.ReplaceAll(text, " "+kw+" ", " ")
		}
	}
	if intent.Everything {
		return intent, nil
	}

	intent.Object = objectName(text)

	return intent, nil
}

// objectName normalizes a spoken object name and drops filler words, so
// "the apples" and "apples please" both give "apples".
func objectName(phrase string) string {
	var words []string
	for _, w := range strings.Fields(normalizeUtterance(phrase)) {
		if !fillerWords[w] {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

func normalizeUtterance(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
