package diagnostic

import (
	"fmt"
)

type Level int

const (
	LevelOff Level = iota
	LevelWarn
	LevelError
)

func ParseLevel(v string) (Level, error) {
	l, ok := map[string]Level{
		"off":     LevelOff,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
	}[v]
	if ok {
		return l, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadLevel, v)
}

func (l Level) String() string {
	d, err := l.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (l Level) MarshalText() ([]byte, error) {
	switch l {
	case LevelOff:
		return []byte("off"), nil
	case LevelWarn:
		return []byte("warn"), nil
	case LevelError:
		return []byte("error"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not a level>", l)
	}
}

func (l *Level) UnmarshalText(d []byte) error {
	pl, err := ParseLevel(string(d))
	if err != nil {
		return err
	}
	*l = pl
	return nil
}

// Rules maps rule codes to the level configured for them.
type Rules map[string]Level

// ParseRules converts code/level pairs as written in configuration.
func ParseRules(m map[string]string) (Rules, error) {
	res := make(Rules, len(m))
	for code, lvl := range m {
		if _, ok := KindOf(code); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRule, code)
		}
		l, err := ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", code, err)
		}
		res[code] = l
	}
	return res, nil
}

func (r Rules) Level(k Kind) Level {
	if k.Structural() {
		return LevelError
	}
	if l, ok := r[k.Code()]; ok {
		return l
	}
	return k.DefaultLevel()
}

// With returns a copy of r overridden by o.
func (r Rules) With(o Rules) Rules {
	if len(o) == 0 {
		return r
	}
	res := make(Rules, len(r)+len(o))
	for k, v := range r {
		res[k] = v
	}
	for k, v := range o {
		res[k] = v
	}
	return res
}
