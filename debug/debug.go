package debug

import (
	"os"
	"strconv"

	json "github.com/goccy/go-json"
)

type debug struct {
	Resolve    bool
	Match      bool
	Fetch      bool
	Completion bool
	Edit       bool
}

var d *debug

func init() {
	d = &debug{}
	d.Resolve = boolEnv("TOMLKIT_DEBUG_RESOLVE")
	d.Match = boolEnv("TOMLKIT_DEBUG_MATCH")
	d.Fetch = boolEnv("TOMLKIT_DEBUG_FETCH")
	d.Completion = boolEnv("TOMLKIT_DEBUG_COMPLETION")
	d.Edit = boolEnv("TOMLKIT_DEBUG_EDIT")
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Resolve() bool {
	return d.Resolve
}
func Match() bool {
	return d.Match
}
func Fetch() bool {
	return d.Fetch
}
func Completion() bool {
	return d.Completion
}
func Edit() bool {
	return d.Edit
}

func LogAny(v any) {
	d, err := json.Marshal(v)
	if err != nil {
		os.Stderr.WriteString(render(v) + "\n")
		return
	}
	os.Stderr.Write(append(d, '\n'))
}
