package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"modelrelay/internal/config"
	"modelrelay/internal/server"
	"modelrelay/internal/webhook"
)

const serveUsage = `Usage:
  modelrelay serve [--config <path>] [--port <port>] [--webhook <url>]

Flags:
  --config  string   Path to YAML configuration file (built-in defaults when omitted)
  --port    int      Override server port from configuration
  --webhook string   Override default webhook URL from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	var overrideWebhook string
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")
	fs.StringVar(&overrideWebhook, "webhook", "", "override default webhook URL")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if overridePort != 0 {
		if overridePort <= 0 || overridePort > 65535 {
			return fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}
	if overrideWebhook != "" {
		cfg.Webhook.URL = overrideWebhook
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	client := webhook.New(cfg.Webhook.JSONTimeout(), cfg.Webhook.MultipartTimeout())

	srv, err := server.New(cfg, client)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
