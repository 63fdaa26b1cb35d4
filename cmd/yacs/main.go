// Command yacs is the terminal client for a YACS chat server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/aeolun/yacs/pkg/client"
	"github.com/aeolun/yacs/pkg/client/ui"
	tea "github.com/charmbracelet/bubbletea"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		nick        string
		token       string
		server      string
		metricsAddr string
	)

	flagSet := pflag.NewFlagSet("yacs", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "~/.config/yacs/config.toml", "path to the config file")
	flagSet.StringVarP(&nick, "nick", "n", "", "nickname (overrides the config)")
	flagSet.StringVarP(&token, "token", "t", "", "access token (overrides the config)")
	flagSet.StringVarP(&server, "server", "s", "", "server base URL, e.g. https://chat.example.com")
	flagSet.StringVar(&metricsAddr, "metrics", "", "serve client metrics on this address")
	showVersion := flagSet.Bool("version", false, "print the version and exit")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println("yacs", Version)
		return nil
	}

	config, err := client.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if server != "" {
		config.Server.URL = server
	}
	if metricsAddr != "" {
		config.Metrics.Listen = metricsAddr
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	statePath, err := config.StatePath()
	if err != nil {
		return err
	}
	state, err := client.OpenState(statePath)
	if err != nil {
		return fmt.Errorf("failed to open state database: %w", err)
	}
	defer state.Close()

	identity := config.Credentials()
	if identity.Nick == "" {
		identity.Nick = state.GetLastNickname()
	}
	if nick != "" {
		identity.Nick = nick
	}
	if token != "" {
		identity.Token = token
	}
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("%w (set it with --nick/--token or in %s)", err, configPath)
	}

	// The TUI owns the terminal; logs go next to the state database
	logFile, err := os.OpenFile(filepath.Join(filepath.Dir(statePath), "yacs.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger := log.New(logFile, "", log.LstdFlags)
	logger.Printf("Starting yacs %s against %s as %s", Version, config.Server.URL, identity.Nick)

	metrics := client.NewMetrics()

	api, err := client.NewAPI(config.Server.URL, identity, config.RequestTimeout())
	if err != nil {
		return err
	}
	api.SetLogger(logger)
	api.SetMetrics(metrics)

	conn, err := client.NewConnection(config.Server.URL)
	if err != nil {
		return err
	}
	conn.SetLogger(logger)
	conn.SetMetrics(metrics)

	renderer := ui.NewProgramRenderer()
	defer renderer.Close()

	ctrl, err := client.NewSessionController(conn, api, client.Options{
		Identity:       identity,
		IdleTimeout:    config.IdleTimeout(),
		PageSize:       config.Session.PageSize,
		DefaultChannel: config.Session.DefaultChannel,
		Renderer:       renderer,
		Notifier:       ui.NewBeepNotifier(config.Notifications.Desktop, logger),
		State:          state,
		Metrics:        metrics,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if config.Metrics.Listen != "" {
		srv := startMetricsServer(config.Metrics.Listen, metrics, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	program := tea.NewProgram(ui.NewModel(ctx, ctrl, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	renderer.Attach(program)

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func startMetricsServer(addr string, metrics *client.Metrics, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Printf("Metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("Metrics server failed: %v", err)
		}
	}()
	return srv
}
