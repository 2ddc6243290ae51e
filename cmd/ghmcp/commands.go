package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hrntsm/grasshopper-mcp/internal/auth"
	"github.com/hrntsm/grasshopper-mcp/internal/canvassim"
	"github.com/hrntsm/grasshopper-mcp/internal/catalog"
	"github.com/hrntsm/grasshopper-mcp/internal/config"
	"github.com/hrntsm/grasshopper-mcp/internal/mcp"
)

// ---------------------------------------------------------------------------
// serveCmd (alias: mcp-server)
// ---------------------------------------------------------------------------

func serveCmd() *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"mcp-server"},
		Short:   "Run the MCP server (stdio by default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := newBridge(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			server := mcp.NewServer(b, version)
			if httpAddr != "" {
				token, err := auth.LoadOrGenerateToken(dataDir())
				if err != nil {
					return fmt.Errorf("loading http token: %w", err)
				}
				fmt.Fprintf(os.Stderr, "[ghmcp] http token in %s (or $%s)\n", auth.TokenPath(dataDir()), auth.TokenEnv)
				return mcp.ServeHTTP(ctx, server, httpAddr, token)
			}
			return mcp.Run(ctx, server)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "Serve streamable HTTP on this address instead of stdio")
	return cmd
}

// ---------------------------------------------------------------------------
// sendCmd
// ---------------------------------------------------------------------------

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <command-type> [json-parameters]",
		Short: "Send one raw command to the canvas and print the response",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			params, err := parseParams(args[1:])
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			resp := newClient(cfg).Send(ctx, args[0], params)
			if err := printJSON(os.Stdout, resp); err != nil {
				return err
			}
			if !resp.Success {
				return fmt.Errorf("canvas: %s", resp.Error)
			}
			return nil
		},
	}
}

// ---------------------------------------------------------------------------
// statusCmd
// ---------------------------------------------------------------------------

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the canvas status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := newBridge(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			return printJSON(os.Stdout, b.Status(ctx))
		},
	}
}

// ---------------------------------------------------------------------------
// catalogCmd
// ---------------------------------------------------------------------------

func catalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "catalog [mapping|library|guide]",
		Short:     "Print a catalog document as the bridge sees it",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"mapping", "library", "guide"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			name := catalog.GuideResource
			if len(args) == 1 {
				switch args[0] {
				case "mapping":
					name = catalog.MappingResource
				case "library":
					name = catalog.LibraryResource
				}
			}
			return printJSON(os.Stdout, newCatalog(cfg).Load(name))
		},
	}
}

// ---------------------------------------------------------------------------
// simulateCmd
// ---------------------------------------------------------------------------

func simulateCmd() *cobra.Command {
	var (
		listen string
		wsAddr string
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an in-memory canvas that speaks the canvas protocol",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			sim := canvassim.New(nil)
			if wsAddr != "" {
				go func() {
					if err := sim.ServeWS(ctx, wsAddr); err != nil {
						fmt.Fprintf(os.Stderr, "[ghmcp] websocket canvas: %v\n", err)
					}
				}()
			}
			if err := sim.ListenAndServe(ctx, listen); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", config.DefaultAddress, "TCP address to accept commands on")
	cmd.Flags().StringVar(&wsAddr, "ws", "", "Also accept WebSocket clients at /ws on this address")
	return cmd
}

// ---------------------------------------------------------------------------
// canvasesCmd
// ---------------------------------------------------------------------------

func canvasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "canvases",
		Short: "Manage saved canvas addresses",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <name> <address>",
			Short: "Save a canvas address under a name",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := config.ValidateCanvasName(args[0]); err != nil {
					return err
				}
				dir := dataDir()
				cc, err := config.LoadCanvasesConfig(dir)
				if err != nil {
					return err
				}
				cc.Canvases[args[0]] = config.CanvasEntry{Address: args[1]}
				if err := cc.Save(dir); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "[ghmcp] saved canvas %s -> %s\n", args[0], args[1])
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List saved canvases",
			RunE: func(cmd *cobra.Command, args []string) error {
				cc, err := config.LoadCanvasesConfig(dataDir())
				if err != nil {
					return err
				}
				names := make([]string, 0, len(cc.Canvases))
				for name := range cc.Canvases {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("%-20s %s\n", name, cc.Canvases[name].Address)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Forget a saved canvas",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := dataDir()
				cc, err := config.LoadCanvasesConfig(dir)
				if err != nil {
					return err
				}
				if _, ok := cc.Canvases[args[0]]; !ok {
					return fmt.Errorf("unknown canvas %q", args[0])
				}
				delete(cc.Canvases, args[0])
				return cc.Save(dir)
			},
		},
	)
	return cmd
}
