package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/njchilds90/symcore"
	"github.com/njchilds90/symcore/internal/logging"
	"github.com/njchilds90/symcore/rediscache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "symcore",
	Short: "symcore is an exact expression simplifier and differentiator",
	Long: `symcore normalizes expression trees with exact arithmetic, radical and
trigonometric identities, and differentiates them symbolically. Expressions
are read as JSON trees from an argument, a file or stdin ("-").`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The context is canceled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML or JSON engine configuration file")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for a shared result cache (host:port)")
}

// runtimeDeps are the pieces every command needs.
type runtimeDeps struct {
	engine   *symcore.Engine
	logger   *slog.Logger
	registry *prometheus.Registry
	closers  []io.Closer
}

func (d *runtimeDeps) Close() {
	for _, c := range d.closers {
		_ = c.Close()
	}
}

func setup(cmd *cobra.Command) (*runtimeDeps, error) {
	levelText, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(levelText)
	if err != nil {
		return nil, err
	}
	logger := logging.New(level)

	cfg := symcore.DefaultConfig()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		if cfg, err = symcore.LoadConfig(path); err != nil {
			return nil, err
		}
		logger.Debug("config loaded", "path", path)
	}

	deps := &runtimeDeps{logger: logger, registry: prometheus.NewRegistry()}
	opts := []symcore.Option{
		symcore.WithLogger(logger),
		symcore.WithMetrics(symcore.NewMetrics(deps.registry)),
	}
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		remote := rediscache.Dial(addr, "", 0, rediscache.WithLogger(logger))
		pingCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		err := remote.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Warn("redis cache unavailable, continuing without it", "addr", addr, "err", err)
			_ = remote.Close()
		} else {
			deps.closers = append(deps.closers, remote)
			local := symcore.NewLRUCache(max(cfg.CacheSize, 1))
			opts = append(opts, symcore.WithCache(symcore.NewTieredCache(local, remote)))
		}
	}

	eng, err := symcore.NewEngine(cfg, opts...)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.engine = eng
	return deps, nil
}

// readExpr parses a JSON expression from the argument, a file path or stdin.
func readExpr(cmd *cobra.Command, arg string) (symcore.Expr, error) {
	var data []byte
	var err error
	switch {
	case arg == "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	case strings.HasPrefix(strings.TrimSpace(arg), "{"):
		data = []byte(arg)
	default:
		data, err = os.ReadFile(arg)
	}
	if err != nil {
		return nil, fmt.Errorf("read expression: %w", err)
	}
	return symcore.FromJSON(data)
}

func printResult(cmd *cobra.Command, res symcore.Result) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	out := cmd.OutOrStdout()
	if asJSON {
		data, err := symcore.ToJSON(res.Expr)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		fmt.Fprintln(out, res.Expr.String())
	}
	if res.Tripped() {
		fmt.Fprintf(cmd.ErrOrStderr(), "guard tripped: %s\n", res.Guard)
	}
	return nil
}
