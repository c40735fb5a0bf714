// Command blogctl is a terminal client for the blog backend: reading and
// writing posts, signing in and out, and managing users as an admin.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/RaduPandor/Blog-Web-App/internal/client"
	"github.com/RaduPandor/Blog-Web-App/internal/config"
	"github.com/RaduPandor/Blog-Web-App/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := func(context.Context) error { return nil }
	a := &app{
		ctx:    ctx,
		stdout: os.Stdout,
		stderr: os.Stderr,
		connect: func(ctx context.Context) (*client.Client, error) {
			cfg, err := config.LoadConfig()
			if err != nil {
				return nil, err
			}
			logger := observability.NewLogger(os.Stderr, cfg.Env, cfg.LogLevel)
			slog.SetDefault(logger)
			shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
				ServiceName:    "blogctl",
				ServiceVersion: "dev",
				Environment:    cfg.Env,
				Enabled:        cfg.TracingEnabled,
				Exporter:       cfg.TracingExporter,
				OTLPEndpoint:   cfg.OTLPEndpoint,
				SamplerRatio:   1,
			})
			if err != nil {
				return nil, err
			}
			shutdownTracing = shutdown
			return client.New(ctx, cfg, client.Options{Logger: logger})
		},
	}

	err := rootCommand(a).Execute(os.Args[1:], os.Stderr)
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if traceErr := shutdownTracing(context.WithoutCancel(ctx)); traceErr != nil {
		slog.Warn("flushing traces failed", slog.String("error", traceErr.Error()))
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorBanner(err))
		os.Exit(1)
	}
}

// app carries what every command needs. The client is connected on first
// use so help and usage errors never touch configuration.
type app struct {
	ctx     context.Context
	stdout  io.Writer
	stderr  io.Writer
	connect func(ctx context.Context) (*client.Client, error)

	client *client.Client
}

func (a *app) open() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	c, err := a.connect(a.ctx)
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *app) close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close(context.WithoutCancel(a.ctx))
}

func (a *app) success(format string, args ...any) {
	fmt.Fprintln(a.stdout, okStyle.Render(fmt.Sprintf(format, args...)))
}
