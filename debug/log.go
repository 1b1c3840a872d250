package debug

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// displayer is implemented by document values.
type displayer interface {
	Display() string
}

func render(a any) string {
	switch x := a.(type) {
	case displayer:
		return x.Display()
	case fmt.Stringer:
		return x.String()
	case map[string]any, []any, json.Number:
		d, err := json.MarshalIndent(a, "   |", "  ")
		if err != nil {
			return fmt.Sprintf("%v", a)
		}
		return string(d)
	}
	return fmt.Sprintf("%v", a)
}

func Logf(msg string, args ...any) {
	for i := range args {
		switch args[i].(type) {
		case bool, string, float64, int, int64:
		default:
			args[i] = render(args[i])
		}
	}
	fmt.Fprintf(os.Stderr, msg, args...)
}
