package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ignite/cohort-retention/internal/analytics"
	"github.com/ignite/cohort-retention/internal/api"
	"github.com/ignite/cohort-retention/internal/config"
	"github.com/ignite/cohort-retention/internal/pkg/logger"
	"github.com/ignite/cohort-retention/internal/publish"
	"github.com/ignite/cohort-retention/internal/retention"
)

type options struct {
	configPath string
	variant    string
	viewID     string
	serve      bool
	pretty     bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("retention", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "config/config.yaml", "path to the YAML config file")
	fs.StringVar(&opts.variant, "variant", "weekly", "report variant: weekly or daily")
	fs.StringVar(&opts.viewID, "view", "", "analytics view id (overrides config)")
	fs.BoolVar(&opts.serve, "serve", false, "serve widget payloads over HTTP instead of printing once")
	fs.BoolVar(&opts.pretty, "pretty", false, "indent the JSON payload")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if _, err := retention.ParseVariant(opts.variant); err != nil && !opts.serve {
		return opts, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "retention: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv(opts.configPath)
	if err != nil {
		logger.Error("failed to load config", "path", opts.configPath, "error", err)
		os.Exit(1)
	}
	if opts.viewID != "" {
		cfg.Analytics.ViewID = opts.viewID
	}
	logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	if opts.serve {
		err = serve(cfg)
	} else {
		err = runOnce(cfg, opts, os.Stdout)
	}
	if err != nil {
		logger.Error("retention failed", "error", err)
		os.Exit(1)
	}
}

func newService(ctx context.Context, cfg *config.Config) (*retention.Service, error) {
	client, err := analytics.NewClient(ctx, analytics.Config{
		BaseURL:         cfg.Analytics.BaseURL,
		CredentialsFile: cfg.Analytics.CredentialsFile,
		ApplicationName: cfg.Analytics.ApplicationName,
		Timeout:         cfg.Analytics.Timeout(),
		MaxRetries:      cfg.Analytics.MaxRetries,
	})
	if err != nil {
		return nil, err
	}
	return retention.NewService(cfg, client), nil
}

// sinks returns every enabled remote destination followed by stdout. Stdout
// comes last so a rejected push leaves it empty.
func sinks(ctx context.Context, cfg *config.Config, stdout io.Writer, pretty bool) (publish.Multi, error) {
	var out publish.Multi

	if gb := cfg.Publish.Geckoboard; gb.Enabled {
		out = append(out, publish.NewGeckoboardSink(gb.BaseURL, gb.APIKey, gb.WidgetKey))
	}
	if s3cfg := cfg.Publish.S3; s3cfg.Enabled {
		sink, err := publish.NewS3Sink(ctx, s3cfg.Bucket, s3cfg.Region, s3cfg.Prefix)
		if err != nil {
			return nil, err
		}
		out = append(out, sink)
	}
	return append(out, publish.NewWriterSink(stdout, pretty)), nil
}

// runOnce builds one payload and publishes it. Nothing reaches stdout
// unless the pipeline and every remote sink succeeded.
func runOnce(cfg *config.Config, opts options, stdout io.Writer) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	destinations, err := sinks(ctx, cfg, stdout, opts.pretty)
	if err != nil {
		return err
	}

	g, err := retention.ParseVariant(opts.variant)
	if err != nil {
		return err
	}
	payload, err := svc.Run(ctx, g.String())
	if err != nil {
		return err
	}
	return destinations.Publish(ctx, g.String(), payload)
}

func serve(cfg *config.Config) error {
	svc, err := newService(context.Background(), cfg)
	if err != nil {
		return err
	}
	server := api.NewServer(cfg.Server, svc)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("starting widget server", "addr", addr, "view_id", cfg.Analytics.ViewID)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-done:
	}
	logger.Info("shutting down widget server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("widget server stopped")
	return nil
}
