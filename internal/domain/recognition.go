package domain

import (
	"strconv"
	"strings"
	"unicode"
)

// Sentinel values the recognition server puts in the result field.
const (
	ResultCannotSearch = "-1"
	ResultNotFound     = ""
)

type RecognitionKind string

const (
	KindCannotSearch RecognitionKind = "cannot_search"
	KindNotFound     RecognitionKind = "not_found"
	KindCounts       RecognitionKind = "counts"
	KindFreeText     RecognitionKind = "free_text"
)

type ObjectCount struct {
	Name  string
	Count int
}

func (c ObjectCount) String() string {
	return strconv.Itoa(c.Count) + " " + c.Name
}

// Recognition is the server reply, classified once when it comes off the wire.
// Text keeps the raw string result for KindCounts (when the server sent a string)
// and KindFreeText; it is empty when the server sent a mapping.
type Recognition struct {
	ID     string
	Kind   RecognitionKind
	Counts []ObjectCount
	Text   string
}

func (r Recognition) IsSentinel() bool {
	return r.Kind == KindCannotSearch || r.Kind == KindNotFound
}

// Outcome is what the interpreter hands to the speaker.
type Outcome struct {
	Everything bool
	Object     string
	Count      int
	Found      bool
	Sentence   string
}

// ClassifyText turns a string result into a Recognition.
func ClassifyText(text string) Recognition {
	switch text {
	case ResultCannotSearch:
		return Recognition{Kind: KindCannotSearch}
	case ResultNotFound:
		return Recognition{Kind: KindNotFound}
	}
	if counts, ok := ParseCounts(text); ok {
		return Recognition{Kind: KindCounts, Counts: counts, Text: text}
	}
	return Recognition{Kind: KindFreeText, Text: text}
}

// ParseCounts parses "<count> <noun>" pairs separated by commas. It fails if
// any pair is malformed or a noun is not a plausible label, so free-form
// sentences are not mistaken for counts.
func ParseCounts(text string) ([]ObjectCount, bool) {
	var counts []ObjectCount
	for _, token := range strings.Split(text, ",") {
		token = strings.TrimSpace(token)
		num, name, ok := strings.Cut(token, " ")
		if !ok {
			return nil, false
		}
		n, err := strconv.Atoi(num)
		if err != nil || n < 0 {
			return nil, false
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if !isLabel(name) {
			return nil, false
		}
		counts = append(counts, ObjectCount{Name: name, Count: n})
	}
	return counts, len(counts) > 0
}

// MaxLabelWords bounds the length of an object label, so "2 people are
// sitting at a table" reads as free text rather than a count.
const MaxLabelWords = 3

func isLabel(name string) bool {
	words := strings.Fields(name)
	if len(words) == 0 || len(words) > MaxLabelWords {
		return false
	}
	for _, w := range words {
		for _, r := range w {
			if !unicode.IsLetter(r) && r != '-' {
				return false
			}
		}
	}
	return true
}

// FormatCounts is the inverse of ParseCounts.
func FormatCounts(counts []ObjectCount) string {
	parts := make([]string, len(counts))
	for i, c := range counts {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}
