package edit

import "errors"

var (
	ErrParse       = errors.New("document does not parse")
	ErrInvalidEdit = errors.New("edit produced an invalid document")
)
