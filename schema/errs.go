package schema

import "errors"

var (
	ErrRefNotFound    = errors.New("schema reference not found")
	ErrUnsupportedRef = errors.New("unsupported schema reference")
	ErrInvalidSchema  = errors.New("invalid schema")
	ErrRefCycle       = errors.New("schema reference cycle")
	ErrUnsatisfiable  = errors.New("unsatisfiable schema")
)
