package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scott-cotton/cli"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

const lsName = "tomlkit-lsp"

var (
	version = "0.0.1"
)

type ServeConfig struct {
	Config  string `cli:"name=config desc='configuration file (default: tomlkit.toml found from the workspace root)'"`
	Metrics string `cli:"name=metrics desc='address to serve prometheus metrics on'"`
	Gops    bool   `cli:"name=gops desc='start a gops agent'"`
	Offline bool   `cli:"name=offline desc='use cached remote schemas only'"`

	ctx  context.Context
	Main *cli.Command
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	setupLog()
	cli.MainContext(ctx, MainCommand(ctx))
}

func MainCommand(ctx context.Context) *cli.Command {
	cfg := &ServeConfig{ctx: ctx}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Main, lsName).
		WithSynopsis("tomlkit-lsp [opts]").
		WithDescription("tomlkit-lsp serves the language server protocol on standard input and output.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return serve(cfg, cc, args)
		})
}

func serve(cfg *ServeConfig, cc *cli.Context, args []string) error {
	_, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			theLog.Warn("gops agent failed", "error", err)
		}
	}
	reg := prometheus.NewRegistry()
	if cfg.Metrics != "" {
		go serveMetrics(cfg.Metrics, reg)
	}
	server := newServer(cfg, reg)
	stream := jsonrpc2.NewStream(&stdioReadWriteCloser{
		read:  os.Stdin,
		write: os.Stdout,
	})
	conn := jsonrpc2.NewConn(stream)
	server.conn = conn
	conn.Go(cfg.ctx, protocol.ServerHandler(server, nil))
	select {
	case <-conn.Done():
		return conn.Err()
	case <-cfg.ctx.Done():
		return conn.Close()
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	err := http.ListenAndServe(addr, mux)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		theLog.Error("metrics server", "addr", addr, "error", err)
	}
}

type stdioReadWriteCloser struct {
	read  io.Reader
	write io.Writer
}

func (s *stdioReadWriteCloser) Read(p []byte) (n int, err error) {
	return s.read.Read(p)
}

func (s *stdioReadWriteCloser) Write(p []byte) (n int, err error) {
	return s.write.Write(p)
}

func (s *stdioReadWriteCloser) Close() error {
	return nil
}
