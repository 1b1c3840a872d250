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

var (
	logLevel = new(slog.LevelVar)
	theLog   = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			if a.Key == slog.LevelKey {
				if a.Value.String() == "INFO" {
					return slog.Attr{}
				}
			}
			return a
		},
	}))
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
