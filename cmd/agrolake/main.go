// Package main is the entry point for the agrolake server and client.
//
// The binary exposes three ways to reach the same service layer:
//
//	agrolake serve   - MCP server over stdio, for AI assistants
//	agrolake api     - HTTP API for plant identification
//	agrolake client  - interactive terminal client
//
// Configuration comes from the XDG config file plus environment overrides;
// API keys resolve env-first with the OS keyring as fallback.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"agrolake/internal/agro"
	"agrolake/internal/apidog"
	"agrolake/internal/config"
	"agrolake/internal/docs"
	"agrolake/internal/gemini"
	"agrolake/internal/httpapi"
	"agrolake/internal/logging"
	mcpserver "agrolake/internal/mcp"
	"agrolake/internal/plantid"
	"agrolake/internal/tui"
	"agrolake/internal/urlfetch"
	"agrolake/internal/weather"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "agrolake",
		Short: "Agricultural data lake: MCP server, analysis API and terminal client",
		Long: `agrolake bridges AI assistants and agricultural data: property and farmer
records behind an Apidog gateway, Google Gemini consultation, HG Brasil
weather, a local documentation base, and plant identification from photos.`,
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd(), apiCmd(), clientCmd(), syncDocsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// services bundles the wired clients shared by every command.
type services struct {
	cfg     *config.Config
	gateway *apidog.Client
	agro    *agro.Service
	gemini  *gemini.Client
	weather *weather.Client
	docs    *docs.Manager
	fetcher *urlfetch.Fetcher
}

// buildServices wires the full client stack from configuration. The docs
// manager is optional: a missing docs directory disables the documentation
// tools instead of failing startup.
func buildServices(logger *logging.AppLogger) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	creds := config.NewCredentialManager()

	geminiKey := cfg.Gemini.APIKey
	if geminiKey == "" {
		if key, err := creds.GoogleAPIKey(); err == nil {
			geminiKey = key
		}
	}
	weatherKey := cfg.Weather.APIKey
	if weatherKey == "" {
		if key, err := creds.HGBrasilAPIKey(); err == nil {
			weatherKey = key
		}
	}

	gateway := apidog.NewClient(apidog.Config{
		BaseURL:     cfg.Apidog.BaseURL,
		AccessToken: cfg.Apidog.AccessToken,
		Timeout:     cfg.Apidog.Timeout(),
		MaxRetries:  uint64(cfg.Apidog.MaxRetries),
	}, logger)

	svc := &services{
		cfg:     cfg,
		gateway: gateway,
		agro:    agro.NewService(gateway, logger),
		gemini: gemini.NewClient(gemini.Config{
			APIKey:          geminiKey,
			BaseURL:         cfg.Gemini.BaseURL,
			Model:           cfg.Gemini.Model,
			Temperature:     cfg.Gemini.Temperature,
			MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		}, logger),
		weather: weather.NewClient(weather.Config{
			BaseURL: cfg.Weather.BaseURL,
			APIKey:  weatherKey,
		}, logger),
		fetcher: urlfetch.NewFetcher(),
	}

	if manager, err := docs.NewManager(cfg.DocsDir, logger); err == nil {
		svc.docs = manager
	} else {
		logger.Warn("documentation base unavailable", "dir", cfg.DocsDir, "error", err)
	}

	return svc, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs must stay on stderr.
			logger := logging.NewServerLogger()

			svc, err := buildServices(logger)
			if err != nil {
				return err
			}

			srv, err := mcpserver.NewServer(mcpserver.Deps{
				Gateway: svc.gateway,
				Agro:    svc.agro,
				Gemini:  svc.gemini,
				Weather: svc.weather,
				Docs:    svc.docs,
				Fetcher: svc.fetcher,
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			return srv.Serve()
		},
	}
}

func apiCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run the plant identification HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.NewServerLogger()

			svc, err := buildServices(logger)
			if err != nil {
				return err
			}
			if !svc.gemini.Available() {
				return fmt.Errorf("the analysis API requires a Gemini API key (GOOGLE_API_KEY)")
			}

			if addr == "" {
				addr = svc.cfg.HTTPAddr
			}

			analyzer := plantid.NewAnalyzer(svc.gemini, logger)
			server := httpapi.NewServer(analyzer, logger, prometheus.NewRegistry())

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func clientCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "client",
		Short: "Run the interactive terminal client",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.NewAppLogger()

			svc, err := buildServices(logger)
			if err != nil {
				return err
			}

			return tui.Run(tui.Deps{
				Gateway: svc.gateway,
				Agro:    svc.agro,
				Gemini:  svc.gemini,
				Weather: svc.weather,
				Docs:    svc.docs,
				Fetcher: svc.fetcher,
				Logger:  logger,
			})
		},
	}
}

func syncDocsCmd() *cobra.Command {
	var remote, branch string

	cmd := &cobra.Command{
		Use:   "sync-docs",
		Short: "Clone or update the documentation base from a git remote",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := logging.NewServerLogger()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if err := os.MkdirAll(cfg.DocsDir, 0755); err != nil {
				return fmt.Errorf("failed to create docs directory: %w", err)
			}

			manager, err := docs.NewManager(cfg.DocsDir, logger)
			if err != nil {
				return err
			}
			return manager.Sync(docs.SyncOptions{RemoteURL: remote, Branch: branch})
		},
	}

	cmd.Flags().StringVar(&remote, "remote", "", "git remote URL of the documentation repository")
	cmd.Flags().StringVar(&branch, "branch", "", "branch to track (default: remote default)")
	_ = cmd.MarkFlagRequired("remote")
	return cmd
}
