package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/auth"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/livekit"
	"github.com/zulandar/switchboard/internal/notify"
	"github.com/zulandar/switchboard/internal/notify/discord"
	"github.com/zulandar/switchboard/internal/notify/slack"
	"github.com/zulandar/switchboard/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook ingestion server",
		Long:  "Starts the HTTP server that receives, verifies, and reconciles LiveKit webhooks.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to Switchboard config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}

	// Missing webhook credentials are operator misconfiguration; fail here
	// instead of answering 500 per request.
	verifier, err := livekit.NewVerifier(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret)
	if err != nil {
		return fmt.Errorf("livekit credentials: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	notifier, err := buildNotifier(ctx, cfg)
	if err != nil {
		return err
	}
	if notifier != nil {
		fmt.Fprintf(out, "Notifications enabled via %s\n", cfg.Notify.Platform)
		go notify.RunDigestLoop(ctx, gormDB, notifier, cfg.Notify.DigestCron)
	}

	if port <= 0 {
		port = cfg.Server.Port
	}

	return server.Start(ctx, server.StartOpts{
		DB:       gormDB,
		Verifier: verifier,
		Notifier: notifier,
		Magic:    auth.NewClient(cfg.Auth),
		Port:     port,
		Out:      out,
	})
}

// buildNotifier constructs and connects the configured chat adapter.
// Returns nil when notifications are disabled.
func buildNotifier(ctx context.Context, cfg *config.Config) (*notify.Notifier, error) {
	var adapter notify.Adapter

	switch cfg.Notify.Platform {
	case "":
		return nil, nil
	case "slack":
		a, err := slack.New(slack.AdapterOpts{
			BotToken:  cfg.Notify.Slack.BotToken,
			ChannelID: cfg.Notify.Channel,
		})
		if err != nil {
			return nil, err
		}
		adapter = a
	case "discord":
		a, err := discord.New(discord.AdapterOpts{
			BotToken:  cfg.Notify.Discord.BotToken,
			ChannelID: cfg.Notify.Channel,
		})
		if err != nil {
			return nil, err
		}
		adapter = a
	default:
		return nil, fmt.Errorf("unknown notify platform %q", cfg.Notify.Platform)
	}

	if err := adapter.Connect(ctx); err != nil {
		return nil, err
	}
	return notify.NewNotifier(adapter, cfg.Notify.Channel), nil
}
