package lexer

import (
	"errors"
	"fmt"
	"sort"
)

// Error is a single lexical error: a malformed number, an unterminated
// string, a bad escape sequence or an unexpected character.
type Error struct {
	ScriptID    int
	Line        int
	StartOffset int
	Message     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %d, line %d: %s", e.ScriptID, e.Line, e.Message)
}

// ErrorList accumulates lexical errors encountered while tokenizing one or
// more sources. It is patterned after the standard library's
// go/scanner.ErrorList.
type ErrorList []*Error

// Add appends a new error to the list.
func (el *ErrorList) Add(scriptID, line, startOffset int, format string, args ...any) {
	*el = append(*el, &Error{
		ScriptID:    scriptID,
		Line:        line,
		StartOffset: startOffset,
		Message:     fmt.Sprintf(format, args...),
	})
}

// Sort orders the errors by script id, then line, then start offset.
func (el ErrorList) Sort() {
	sort.Slice(el, func(i, j int) bool {
		a, b := el[i], el[j]
		if a.ScriptID != b.ScriptID {
			return a.ScriptID < b.ScriptID
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.StartOffset < b.StartOffset
	})
}

// Err returns nil if the list is empty, the single error if it holds one, or
// a joined multi-error otherwise. Only the multi-error implements
// Unwrap() []error (via errors.Join); a single error is the bare *Error.
func (el ErrorList) Err() error {
	switch len(el) {
	case 0:
		return nil
	case 1:
		return el[0]
	default:
		errs := make([]error, len(el))
		for i, e := range el {
			errs[i] = e
		}
		return errors.Join(errs...)
	}
}

func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", el[0], len(el)-1)
	}
}
