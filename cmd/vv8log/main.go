package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/opal-lang/vv8log/internal/config"
	"github.com/opal-lang/vv8log/runtime/aggregate"
	"github.com/opal-lang/vv8log/runtime/logfile"
	"github.com/opal-lang/vv8log/runtime/parser"
)

func main() {
	_ = godotenv.Load()

	a := &app{}
	if err := newRootCmd(a).Execute(); err != nil {
		FormatError(os.Stderr, err, ShouldUseColor(a.noColor))
		os.Exit(1)
	}
}

// app carries the persistent flags and what they resolve to
type app struct {
	configPath string
	debug      bool
	noColor    bool

	cfg    *config.Config
	logger *slog.Logger
	policy []aggregate.Option
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vv8log",
		Short:         "Inspect VisibleV8 trace logs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		newParseCmd(a),
		newAggregateCmd(a),
		newCallsCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// setup loads configuration and installs the default logger
func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return &CLIError{Type: "config", Message: "failed to load configuration", Details: err.Error()}
	}
	if a.debug {
		cfg.Debug = true
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return &CLIError{Type: "config", Message: "invalid log level", Details: err.Error()}
	}
	policy, err := cfg.AggregateOptions()
	if err != nil {
		return &CLIError{Type: "config", Message: "invalid aggregation policy", Details: err.Error()}
	}

	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			// Remove timestamp for cleaner output
			if attr.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return attr
		},
	}))
	slog.SetDefault(a.logger)

	a.cfg = cfg
	a.policy = append(policy, aggregate.WithLogger(a.logger))
	return nil
}

func (a *app) useColor() bool {
	return ShouldUseColor(a.noColor)
}

func (a *app) readOptions() []logfile.Option {
	return []logfile.Option{
		logfile.WithWorkers(a.cfg.Read.Workers),
		logfile.WithLogger(a.logger),
	}
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newParseCmd(a *app) *cobra.Command {
	var showFailures bool

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Decode a log and summarise its records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := optionalArg(args)
			reader, closeFunc, err := getInputReader(path)
			if err != nil {
				return err
			}
			defer func() { _ = closeFunc() }()

			file := parser.Parse(reader, parser.WithLogger(a.logger), parser.WithTelemetryBasic())
			if path == "" {
				path = "-"
			}
			DisplayParse(cmd.OutOrStdout(), path, file, showFailures, a.useColor())
			return nil
		},
	}
	cmd.Flags().BoolVar(&showFailures, "failures", false, "List every line that failed to decode")
	return cmd
}

func newAggregateCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "aggregate [file|dir|-]",
		Short: "Summarise API usage per script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadLogs(cmd.Context(), optionalArg(args), a.readOptions()...)
			if err != nil {
				return err
			}

			reports := make([]fileReport, 0, len(files))
			for _, lf := range files {
				agg, rejected := lf.Aggregate(a.policy...)
				reports = append(reports, buildReport(lf, agg, rejected))
			}
			return DisplayReports(cmd.OutOrStdout(), reports, strings.ToLower(format), a.useColor())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "o", FormatText, "Output format: "+strings.Join(formats, ", "))
	return cmd
}

func newCallsCmd(a *app) *cobra.Command {
	var receiver string

	cmd := &cobra.Command{
		Use:   "calls [file|-]",
		Short: "List API calls across all scripts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := loadLogs(cmd.Context(), optionalArg(args), a.readOptions()...)
			if err != nil {
				return err
			}

			for _, lf := range files {
				agg, _ := lf.Aggregate(a.policy...)
				usages := collectCalls(agg)
				if receiver != "" {
					usages, err = filterReceiver(usages, receiver)
					if err != nil {
						return err
					}
				}
				if len(files) > 1 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), Colorize(lf.Path, ColorCyan, a.useColor()))
				}
				DisplayCalls(cmd.OutOrStdout(), usages, a.useColor())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&receiver, "receiver", "r", "", "Only show calls on this receiver, e.g. Window")
	return cmd
}

func filterReceiver(usages []callUsage, receiver string) ([]callUsage, error) {
	var kept []callUsage
	for _, u := range usages {
		if u.Call.Receiver == receiver {
			kept = append(kept, u)
		}
	}
	if len(kept) > 0 {
		return kept, nil
	}

	err := &CLIError{
		Type:    "query",
		Message: fmt.Sprintf("no calls on receiver %q", receiver),
	}
	if suggestion := findClosestMatch(receiver, receivers(usages)); suggestion != "" {
		err.Hint = fmt.Sprintf("did you mean %q?", suggestion)
	}
	return nil, err
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-aggregate log files as VisibleV8 writes them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
			defer stop()

			w, err := logfile.NewWatcher(args[0], a.readOptions()...)
			if err != nil {
				return err
			}
			err = w.Run(ctx, func(lf *logfile.LogFile) {
				agg, rejected := lf.Aggregate(a.policy...)
				if err := DisplayReports(cmd.OutOrStdout(), []fileReport{buildReport(lf, agg, rejected)}, FormatText, a.useColor()); err != nil {
					a.logger.Error("failed to render report", "path", lf.Path, "error", err)
				}
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
