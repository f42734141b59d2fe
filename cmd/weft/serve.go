package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/weft-ui/weft"
	"github.com/weft-ui/weft/internal/config"
	"github.com/weft-ui/weft/pkg/server"
)

func serveCmd() *cobra.Command {
	var (
		addr       string
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo live server",
		Long: `Run a live server hosting the built-in demo application.

Connected browsers receive the rendered tree as a stream of
mutation ops over a websocket; clicks and other events flow back
and drive re-renders on the server.

Settings come from weft.json in the working directory when
present; flags override it.

Examples:
  weft serve
  weft serve --addr=:8080
  weft serve --config=deploy/weft.json
  weft serve --log-level=debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, configPath, logLevel)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from weft.json)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to weft.json (default ./weft.json)")
	cmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level: debug, info, warn, error")

	return cmd
}

func runServe(addr, configPath, logLevel string) error {
	cfg := config.New()
	switch {
	case configPath != "":
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	case config.Exists("."):
		loaded, err := config.Load(".")
		if err != nil {
			return err
		}
		cfg = loaded
	}

	if addr != "" {
		cfg.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.Log.Level),
	}))

	srv, err := server.New(server.Config{
		Addr:         cfg.Addr,
		Root:         demoApp,
		Slice:        cfg.Slice(),
		MaxSessions:  cfg.Server.MaxSessions,
		HistoryLimit: cfg.Server.HistoryLimit,
		ResumeWindow: cfg.ResumeWindow(),
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	success("Listening on http://localhost%s", cfg.Addr)
	info("Press Ctrl+C to stop")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
	}()

	return srv.Run(ctx)
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// demoApp is the root component served by weft serve: a counter with
// increment, decrement and reset controls.
func demoApp(h weft.Hooks, _ weft.Props) *weft.VNode {
	count, setCount := weft.UseState(h, 0)

	return weft.H(weft.Host("div"), weft.Props{"class": "demo"},
		weft.H(weft.Host("h1"), weft.Props{"text": "weft demo"}),
		weft.H(weft.Host("p"), weft.Props{"text": fmt.Sprintf("count: %d", count)}),
		weft.H(weft.Host("button"), weft.Props{
			"text": "-",
			"onClick": func() {
				setCount(func(prev int) int { return prev - 1 })
			},
		}),
		weft.H(weft.Host("button"), weft.Props{
			"text": "+",
			"onClick": func() {
				setCount(func(prev int) int { return prev + 1 })
			},
		}),
		weft.H(weft.Host("button"), weft.Props{
			"text": "reset",
			"onClick": func() {
				setCount(func(int) int { return 0 })
			},
		}),
	)
}
