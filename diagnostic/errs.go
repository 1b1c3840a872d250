package diagnostic

import "errors"

var (
	ErrBadLevel    = errors.New("bad level")
	ErrUnknownRule = errors.New("unknown rule")
)
