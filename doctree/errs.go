package doctree

import (
	"errors"
	"fmt"

	"github.com/signadot/tomlkit/text"
)

var (
	ErrParse         = errors.New("parse error")
	ErrConflictArray = errors.New("conflicting array definitions")
	ErrConflictTable = errors.New("conflicting table definitions")
	ErrDuplicateKey  = errors.New("duplicate key")
)

// Error is a structural error found while lowering a document. Kind is one
// of the sentinel errors above.
type Error struct {
	Kind    error
	Range   text.Range
	Range2  text.Range
	Key     string
	Message string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Key != "":
		return fmt.Sprintf("%s %q", e.Kind, e.Key)
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Code returns the diagnostic code for the error.
func (e *Error) Code() string {
	switch e.Kind {
	case ErrConflictArray:
		return "conflict-array"
	case ErrConflictTable:
		return "conflict-table"
	case ErrDuplicateKey:
		return "duplicate-key"
	}
	return "parse-error"
}
