package accessor

import "errors"

var ErrBadPath = errors.New("bad accessor path")
