package application

import "context"

type Speaker interface {
	Speak(ctx context.Context, sentence string) error
}

// DialogRenderer turns a dialog name and its slots into a sentence.
type DialogRenderer interface {
	Render(name string, slots map[string]string) string
}

// Dialog names.
const (
	DialogGetObject       = "GetObject"
	DialogResultAll       = "ResultAll"
	DialogResultSingle    = "ResultSingle"
	DialogNoResult        = "NoResult"
	DialogNoResultAll     = "NoResultAll"
	DialogCannotSearch    = "CannotSearch"
	DialogGetObjectError  = "GetObjectError"
	DialogConnectionError = "ConnectionError"
	DialogUnknownError    = "UnknownError"
)
