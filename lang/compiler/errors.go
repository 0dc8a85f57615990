package compiler

import (
	"errors"
	"fmt"
	"sort"
)

// Error is a single compile-time error.
type Error struct {
	ScriptID int
	Line     int
	Message  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("script %d, line %d: %s", e.ScriptID, e.Line, e.Message)
}

// ErrorList accumulates compile errors, patterned after the standard
// library's go/scanner.ErrorList.
type ErrorList []*Error

func (el *ErrorList) Add(scriptID, line int, format string, args ...any) {
	*el = append(*el, &Error{ScriptID: scriptID, Line: line, Message: fmt.Sprintf(format, args...)})
}

func (el ErrorList) Sort() {
	sort.Slice(el, func(i, j int) bool {
		a, b := el[i], el[j]
		if a.ScriptID != b.ScriptID {
			return a.ScriptID < b.ScriptID
		}
		return a.Line < b.Line
	})
}

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
