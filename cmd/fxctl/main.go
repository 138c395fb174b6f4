// fxctl triggers and inspects analysis runs from the command line
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"fxdesk/configs"
	"fxdesk/internal/adapter"
	"fxdesk/internal/database"
	"fxdesk/internal/domain"
	"fxdesk/internal/infra"
	"fxdesk/internal/repository"
	"fxdesk/internal/stats"
	"fxdesk/pkg/logger"
)

var (
	cfg      *configs.Config
	apiURL   string
	apiKind  string
	timeout  time.Duration
	jsonOut  bool
	logLevel string
)

func main() {
	_ = godotenv.Load()
	cfg = configs.Load()

	rootCmd := &cobra.Command{
		Use:   "fxctl",
		Short: "Trigger and inspect forex analysis runs",
		Long: `fxctl talks to the analysis engine and the signal store directly.
It is meant for operators; the mobile app goes through the fxdesk API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logLevel, "development")
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "url", cfg.Analysis.URL, "Analysis engine base URL")
	rootCmd.PersistentFlags().StringVar(&apiKind, "kind", cfg.Analysis.Kind, "Analysis engine kind: signal or forex")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", cfg.Analysis.Timeout, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Print raw JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")

	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(signalsCmd())
	rootCmd.AddCommand(predictionsCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func backend() (domain.AnalysisBackend, error) {
	switch apiKind {
	case "signal":
		return adapter.NewSignalEngine(apiURL, timeout, 0), nil
	case "forex":
		return adapter.NewForexEngine(apiURL, timeout, 0), nil
	default:
		return nil, fmt.Errorf("unknown engine kind %q (want signal or forex)", apiKind)
	}
}

// forexEngine returns the engine serving market data. A signal backend has
// none unless MARKET_DATA_URL is set.
func forexEngine() (*adapter.ForexEngine, error) {
	url := cfg.Analysis.MarketDataURL
	if url == "" && apiKind == "forex" {
		url = apiURL
	}
	if url == "" {
		return nil, fmt.Errorf("no market data engine: pass --kind forex or set MARKET_DATA_URL")
	}
	return adapter.NewForexEngine(url, timeout, 0), nil
}

func analyzeCmd() *cobra.Command {
	var timeframes []string

	cmd := &cobra.Command{
		Use:   "analyze <pair>",
		Short: "Analyze one pair, bypassing cached results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := b.AnalyzePair(ctx, domain.AnalyzeRequest{
				Pair:         strings.ToUpper(args[0]),
				Timeframes:   timeframes,
				ForceRefresh: true,
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringSliceVar(&timeframes, "timeframes", domain.DefaultTimeframes, "Timeframes to analyze")
	return cmd
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a market-wide analysis sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			result, err := b.RunMarketAnalysis(ctx)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), result)
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a sweep is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := backend()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			status, err := b.Status(ctx)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), status)
			}
			printStatus(cmd.OutOrStdout(), status)
			return nil
		},
	}
}

func signalsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "List the engine's most recent signals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := forexEngine()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd)
			defer cancel()

			signals, err := engine.RecentSignals(ctx, limit)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), signals)
			}
			printEngineSignals(cmd.OutOrStdout(), signals)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of signals")
	return cmd
}

func predictionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predictions [pair...]",
		Short: "Show ML predictions, for the configured pairs by default",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := forexEngine()
			if err != nil {
				return err
			}
			pairs := args
			if len(pairs) == 0 {
				pairs = cfg.Markets.Pairs
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			preds, err := engine.Predictions(ctx, pairs)
			if err != nil {
				return err
			}
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), preds)
			}
			printPredictions(cmd.OutOrStdout(), preds)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Compute signal statistics from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.SignalFilter{}
			if status != "" {
				s := domain.ParseSignalStatus(status)
				if !s.Known() {
					return fmt.Errorf("unknown status %q", status)
				}
				filter.Status = &s
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			db, err := infra.NewDatabase(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			signals, err := repository.NewSignalRepository(db).List(ctx, filter)
			if err != nil {
				return err
			}
			summary := stats.ComputeSignalStats(signals)
			if jsonOut {
				return printJSON(cmd.OutOrStdout(), summary)
			}
			printSignalStats(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only signals with this status")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd)
			defer cancel()

			db, err := infra.NewDatabase(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.RunMigrations(ctx, db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}
