package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/signadot/tomlkit/config"
	"github.com/signadot/tomlkit/descend"
	"github.com/signadot/tomlkit/edit"
	"github.com/signadot/tomlkit/schemastore"
)

// Standard output carries the protocol, so logs go to standard error as
// JSON for clients that capture them.
var (
	logLevel = new(slog.LevelVar)
	theLog   = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
)

func setupLog() {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(os.Getenv("TOMLKIT_LOG_LEVEL")))); err == nil {
		logLevel.Set(l)
	}
	schemastore.SetLogger(theLog)
	descend.SetLogger(theLog)
	edit.SetLogger(theLog)
	config.SetLogger(theLog)
}
