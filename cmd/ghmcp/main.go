package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hrntsm/grasshopper-mcp/internal/bridge"
	"github.com/hrntsm/grasshopper-mcp/internal/catalog"
	"github.com/hrntsm/grasshopper-mcp/internal/client"
	"github.com/hrntsm/grasshopper-mcp/internal/config"
)

var version = "dev"

var (
	dataDirFlag string
	addressFlag string
	canvasFlag  string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ghmcp",
		Short:        "MCP bridge to the Grasshopper canvas",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Configuration directory (default $HOME/.ghmcp)")
	root.PersistentFlags().StringVarP(&addressFlag, "address", "a", "", "Canvas address (host:port or ws://host:port/ws)")
	root.PersistentFlags().StringVarP(&canvasFlag, "canvas", "c", "", "Saved canvas name from canvases.toml")

	root.AddCommand(
		serveCmd(),
		sendCmd(),
		statusCmd(),
		catalogCmd(),
		simulateCmd(),
		canvasesCmd(),
	)
	return root
}

// ---------------------------------------------------------------------------
// Shared setup
// ---------------------------------------------------------------------------

func dataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	home := os.Getenv("HOME")
	if home == "" {
		fmt.Fprintln(os.Stderr, "[ghmcp] WARNING: $HOME is not set, using /tmp/.ghmcp")
		return "/tmp/.ghmcp"
	}
	return filepath.Join(home, ".ghmcp")
}

// loadConfig reads the configuration and installs the default logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(dataDir())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	address, err := resolveAddress(cfg)
	if err != nil {
		return nil, err
	}
	cfg.Canvas.Address = address
	slog.SetDefault(newLogger(os.Stderr, cfg.Log))
	return cfg, nil
}

// resolveAddress applies --address and --canvas on top of the config file.
func resolveAddress(cfg *config.Config) (string, error) {
	if addressFlag != "" {
		return addressFlag, nil
	}
	if canvasFlag == "" {
		return cfg.Canvas.Address, nil
	}
	canvases, err := config.LoadCanvasesConfig(dataDir())
	if err != nil {
		return "", err
	}
	entry, ok := canvases.Canvases[canvasFlag]
	if !ok {
		return "", fmt.Errorf("unknown canvas %q (see 'ghmcp canvases list')", canvasFlag)
	}
	return entry.Address, nil
}

// newLogger picks a text handler for terminals and JSON otherwise, unless
// the config names a format.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	format := cfg.Format
	if format == "" {
		format = "json"
		if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
			format = "text"
		}
	}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func newCatalog(cfg *config.Config) *catalog.Store {
	return catalog.New(catalog.Options{
		Dir:      cfg.Catalog.Dir,
		Cache:    cfg.Catalog.Cache,
		Validate: cfg.Catalog.Validate,
	})
}

func newClient(cfg *config.Config) *client.Client {
	return client.New(client.Target{
		Address:     cfg.Canvas.Address,
		DialTimeout: cfg.Canvas.DialTimeout,
		IOTimeout:   cfg.Canvas.IOTimeout,
	}, nil)
}

func newBridge(cfg *config.Config) (*bridge.Bridge, error) {
	docs, err := bridge.NewPathPolicy(cfg.Documents.Allow, cfg.Documents.Deny)
	if err != nil {
		return nil, fmt.Errorf("documents policy: %w", err)
	}
	return bridge.New(newClient(cfg), newCatalog(cfg), bridge.Options{
		BinaryTypes: cfg.Resolver.BinaryTypes,
		Documents:   docs,
	}), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "[ghmcp] shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// printJSON writes v indented on a terminal and compact otherwise.
func printJSON(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// parseParams decodes the optional JSON object argument of send.
func parseParams(args []string) (map[string]any, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(args[0]), &params); err != nil {
		return nil, fmt.Errorf("parameters must be a JSON object: %w", err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}
