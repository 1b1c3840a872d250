package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/scott-cotton/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	setupLog()
	cli.MainContext(ctx, MainCommand(ctx))
}
