package domain

// Intent is a matched "count" voice command.
type Intent struct {
	Utterance  string
	Everything bool
	Object     string
}

// NeedsObject reports whether the user still has to name the object to count.
func (i Intent) NeedsObject() bool {
	return !i.Everything && i.Object == ""
}
