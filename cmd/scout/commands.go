package main

import (
	"fmt"
	"io"
	"time"

	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"

	"github.com/okian/scout/internal/adapters/repository"
	service "github.com/okian/scout/internal/app"
	"github.com/okian/scout/internal/config"
	"github.com/okian/scout/internal/domain/dedupe"
	"github.com/okian/scout/internal/domain/story"
	"github.com/okian/scout/pkg/logger"
	"github.com/okian/scout/pkg/metrics"
)

var timeNow = time.Now //nolint:gochecknoglobals // replaced in tests

// cli carries what the persistent pre-run loads for every subcommand.
type cli struct {
	configPath string

	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Manager
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "scout",
		Short: "Collect swipe-file material and learner success stories",
		Long: `scout builds a daily swipe-file digest from the Meta Ad Library and Reddit,
and turns Google Alerts emails into a LinkedIn success-story report.

Examples:
  scout run
  scout run --dry-run --dump
  scout alerts
  scout registry prune --config ./scout.yaml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default $SCOUT_CONFIG)")

	root.AddCommand(c.runCmd(), c.alertsCmd(), c.registryCmd())
	return root
}

// setup loads the config, then builds the logger and the metrics manager from it.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx, c.configPath)
	if err != nil {
		return err
	}

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	var opts []metrics.Option
	if cfg.Metrics.PushgatewayURL != "" {
		opts = append(opts, metrics.WithPushGateway(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job))
	}

	c.cfg = cfg
	c.log = log
	c.metrics = metrics.Configure(opts...)
	return nil
}

// --- run ---

func (c *cli) runCmd() *cobra.Command {
	var dryRun, dump bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, score and deliver one swipe-file digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, closeStore, err := service.NewDigest(ctx, c.cfg, c.log, c.metrics, dryRun)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					c.log.Warn(ctx, "closing registry failed", logger.Error(err))
				}
			}()

			res, err := svc.Run(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if dump {
				dumpSelected(out, res)
			}
			if dryRun {
				fmt.Fprintln(out, res.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the digest instead of sending it; the registry is left untouched")
	cmd.Flags().BoolVar(&dump, "dump", false, "pretty-print the selected candidates")
	return cmd
}

func dumpSelected(w io.Writer, res service.Result) {
	printer := pp.New()
	printer.SetColoringEnabled(false)
	printer.SetOutput(w)
	_, _ = printer.Println(res.Selected)
}

// --- alerts ---

func (c *cli) alertsCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Scan Google Alerts emails for LinkedIn success stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			mon := service.NewAlerts(c.cfg, c.log, c.metrics, out, dryRun)

			res, err := mon.Scan(cmd.Context())
			if err != nil {
				return err
			}

			if res.Status == service.StatusSetupRequired {
				fmt.Fprintln(out, story.SetupInstructions)
				fmt.Fprintln(out, res.Message)
				return nil
			}
			if dryRun {
				fmt.Fprintln(out, res.Report)
			}
			fmt.Fprintln(out, "✅ Scan complete!")
			fmt.Fprintf(out, "   New stories: %d\n", len(res.NewStories))
			fmt.Fprintf(out, "   Total stories: %d\n", res.TotalStories)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the report instead of sending it; the stories file is left untouched")

	cmd.AddCommand(&cobra.Command{
		Use:   "setup",
		Short: "Print how to create the Google Alerts the monitor reads",
		Args:  cobra.NoArgs,
		// No config is needed to print the instructions.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), story.SetupInstructions)
			return nil
		},
	})
	return cmd
}

// --- registry ---

func (c *cli) registryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain the seen-items registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Drop registry entries older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, closeStore, err := repository.OpenRegistry(ctx, repository.Backend{
				Kind: c.cfg.Registry.Backend,
				Path: c.cfg.Registry.Path,
				DSN:  c.cfg.Registry.DSN,
			}, repository.WithLogger(c.log.Named("registry")))
			if err != nil {
				return fmt.Errorf("open registry: %w", err)
			}
			defer func() {
				if err := closeStore(); err != nil {
					c.log.Warn(ctx, "closing registry failed", logger.Error(err))
				}
			}()

			reg, pruned, err := dedupe.Load(ctx, store, timeNow(), dedupe.WithRetention(c.cfg.Retention()))
			if err != nil {
				return err
			}
			if err := reg.Save(ctx); err != nil {
				return err
			}
			c.metrics.UpdateRegistrySize(reg.Len())

			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d entries, %d remain\n", pruned, reg.Len())
			return nil
		},
	})
	return cmd
}
