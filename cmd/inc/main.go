package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"incentives/internal/app"
	"incentives/internal/build"
	"incentives/internal/config"
	"incentives/internal/db"
	"incentives/internal/domain"
	"incentives/internal/events"
	"incentives/internal/logging"
	"incentives/internal/migrate"
	"incentives/internal/publish"
	"incentives/internal/repo"
	"incentives/internal/seed"
)

var logger = logging.Discard()

var rootCmd = &cobra.Command{
	Use:   "inc",
	Short: "Incentives toolkit",
	Long: `inc builds the downloadable incentives and generates their demo data.
- seed: simulate the fantasy realm activity stream and write it as a SQL seed script.
- build: render incentives/<name>/content.md to PDF with containerized pandoc and weasyprint, then zip its assets.
- publish: upload built PDFs and asset bundles to an S3-compatible bucket.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(viper.GetString("log-level"), cmd.ErrOrStderr())
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode propagates an external tool's status; every other failure is 1.
func exitCode(err error) int {
	var exitErr *build.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}

func initConfig() {
	viper.SetEnvPrefix("INCENTIVES")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (defaults to <workspace>/incentives.yml)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (warn, info, debug, trace)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func registerCommands() {
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(buildCmd())
	rootCmd.AddCommand(publishCmd())
	rootCmd.AddCommand(configCmd())
}

func seedCmd() *cobra.Command {
	s := &cobra.Command{
		Use:   "seed",
		Short: "Generate and inspect the activity stream seed",
		Long:  "The seed is a synthetic activity stream for five heroes over one week: quests, battles, dungeons, loot, skills and parties, written as a SQL script for temporal join demos.",
	}
	s.AddCommand(seedGenerateCmd())
	s.AddCommand(seedVerifyCmd())
	s.AddCommand(seedLoadCmd())
	s.AddCommand(seedRunsCmd())
	s.AddCommand(seedStatsCmd())
	s.AddCommand(seedTimelineCmd())
	return s
}

func seedGenerateCmd() *cobra.Command {
	var out string
	var seedValue uint64
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Simulate the realm and write seed.sql",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed.Seed = seedValue
			}
			gen, err := app.Generate(cfg, logger)
			if err != nil {
				return err
			}
			stream := gen.Result.Events
			if err := seed.WriteFile(out, stream, gen.Header); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			logger.Debug("seed written", "path", out, "run", gen.RunID, "seed", cfg.Seed.Seed)
			breakdown := seed.Breakdown(stream)
			if viper.GetBool("json") {
				return printJSON(map[string]any{
					"run_id":    gen.RunID,
					"seed":      cfg.Seed.Seed,
					"path":      out,
					"events":    len(stream),
					"heroes":    gen.Result.Heroes,
					"breakdown": breakdown,
				})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Generating Fantasy Realm event data...")
			fmt.Fprintln(w, strings.Repeat("=", 50))
			for _, h := range gen.Result.Heroes {
				fmt.Fprintf(w, "Generated %d events for %s\n", h.Events, h.Hero.Name)
			}
			fmt.Fprintln(w, strings.Repeat("=", 50))
			fmt.Fprintf(w, "Total events: %d\n\n", len(stream))
			renderCounts(w, breakdown)
			fmt.Fprintf(w, "\nWritten %d events to %s\n", len(stream), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "seed.sql", "output path (.zst compresses)")
	cmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed (overrides config)")
	return cmd
}

func seedVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <file>",
		Short: "Check a seed script parses, matches the payload schemas and keeps stream invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := seed.ReadFile(args[0])
			if err != nil {
				return err
			}
			report, err := app.Verify(script)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if viper.GetBool("json") {
				return printJSON(report)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: OK (%d events, %d heroes)\n", args[0], report.Events, report.Entities)
			renderCounts(w, report.Breakdown)
			return nil
		},
	}
	return cmd
}

func seedLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load a seed script into the workspace activity database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := seed.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				w := events.Writer{DB: r.DB}
				run, err := w.Load(ctx, args[0], script.RunID, script.Events)
				if err != nil {
					return err
				}
				logger.Info("seed loaded", "run", run.ID, "events", run.EventCount, "db", db.Path(viper.GetString("workspace")))
				if viper.GetBool("json") {
					return printJSON(run)
				}
				renderRuns(cmd.OutOrStdout(), run)
				return nil
			})
		},
	}
	return cmd
}

func seedRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List loaded seed runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				runs, err := r.ListRuns(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					if runs == nil {
						runs = []domain.SeedRun{}
					}
					return printJSON(runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No seed runs loaded.")
					return nil
				}
				renderRuns(cmd.OutOrStdout(), runs...)
				return nil
			})
		},
	}
}

func seedStatsCmd() *cobra.Command {
	var runID string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show activity counts for a loaded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				run, err := resolveRun(ctx, r, runID)
				if err != nil {
					return err
				}
				counts, err := r.ActivityCounts(ctx, run.ID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"run": run, "breakdown": counts})
				}
				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Run: %s (%s)\n", run.ID, run.Source)
				fmt.Fprintf(w, "Events: %d, %s to %s\n", run.EventCount, run.FirstTS, run.LastTS)
				renderCounts(w, counts)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "run id (defaults to latest)")
	return cmd
}

func seedTimelineCmd() *cobra.Command {
	var f repo.TimelineFilter
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "List loaded events in time order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				run, err := resolveRun(ctx, r, f.RunID)
				if err != nil {
					return err
				}
				f.RunID = run.ID
				items, err := r.Timeline(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(cmd.OutOrStdout())
				tw.AppendHeader(table.Row{"TS", "Activity", "Entity", "Features"})
				for _, e := range items {
					features, err := domain.MarshalFeatures(e.Features)
					if err != nil {
						return err
					}
					tw.AppendRow(table.Row{e.TS.Format(domain.TimestampLayout), e.Activity, e.Entity, string(features)})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.RunID, "run", "", "run id (defaults to latest)")
	cmd.Flags().StringVar(&f.Entity, "hero", "", "hero id filter")
	cmd.Flags().StringVar(&f.Activity, "activity", "", "activity filter")
	cmd.Flags().IntVarP(&f.Limit, "limit", "n", 50, "max events (0 for all)")
	return cmd
}

func buildCmd() *cobra.Command {
	var all bool
	var root string
	cmd := &cobra.Command{
		Use:   "build [name]",
		Short: "Build incentive PDFs from markdown content",
		Long:  "Renders incentives/<name>/content.md to dist/incentives/<name>/content.pdf through pandoc and weasyprint containers, then zips incentives/<name>/assets into assets.zip. A failing tool aborts the run with the tool's exit code.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				_ = cmd.Help()
				return fmt.Errorf("specify an incentive name or --all")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b := &build.Builder{
				Root:   root,
				Config: cfg.Build,
				Runner: build.ExecRunner{Echo: cmd.OutOrStdout(), Stdout: cmd.OutOrStdout(), Stderr: cmd.ErrOrStderr()},
				Out:    cmd.OutOrStdout(),
				Logger: logger,
			}
			if all {
				_, err := b.BuildAll(cmd.Context())
				return err
			}
			_, err = b.BuildOne(cmd.Context(), args[0])
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "build all incentives")
	cmd.Flags().StringVar(&root, "root", ".", "project root containing incentives/")
	return cmd
}

func publishCmd() *cobra.Command {
	var all bool
	var root, bucket string
	cmd := &cobra.Command{
		Use:   "publish [name]",
		Short: "Upload built incentives to object storage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				_ = cmd.Help()
				return fmt.Errorf("specify an incentive name or --all")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if bucket != "" {
				cfg.Publish.Bucket = bucket
			}
			client, err := publish.NewS3Client(cmd.Context(), cfg.Publish)
			if err != nil {
				return err
			}
			p := &publish.Publisher{
				Client: client,
				Bucket: cfg.Publish.Bucket,
				Prefix: cfg.Publish.Prefix,
				Root:   root,
				Logger: logger,
			}
			var uploads []publish.Upload
			if all {
				uploads, err = p.PublishAll(cmd.Context())
			} else {
				uploads, err = p.Publish(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(uploads)
			}
			for _, u := range uploads {
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded: s3://%s/%s (%d bytes)\n", cfg.Publish.Bucket, u.Key, u.Size)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "publish all incentives")
	cmd.Flags().StringVar(&root, "root", ".", "project root containing dist/")
	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket (overrides config)")
	return cmd
}

func configCmd() *cobra.Command {
	c := &cobra.Command{Use: "config", Short: "Manage incentives.yml"}
	c.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config to <workspace>/incentives.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	c.AddCommand(initCmd)
	return c
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	return app.ResolveConfig(viper.GetString("workspace"), viper.GetString("config"))
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(ctx, conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func resolveRun(ctx context.Context, r repo.Repo, id string) (domain.SeedRun, error) {
	if id != "" {
		run, err := r.GetRun(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return run, fmt.Errorf("run %s not loaded", id)
		}
		return run, err
	}
	run, err := r.LatestRun(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return run, fmt.Errorf("no seed loaded; run inc seed load <file> first")
	}
	return run, err
}

func renderCounts(w io.Writer, counts []domain.ActivityCount) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Activity", "Count"})
	for _, c := range counts {
		tw.AppendRow(table.Row{c.Activity, c.Count})
	}
	tw.Render()
}

func renderRuns(w io.Writer, runs ...domain.SeedRun) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Run", "Source", "Events", "First", "Last", "Loaded"})
	for _, run := range runs {
		tw.AppendRow(table.Row{run.ID, run.Source, run.EventCount, run.FirstTS, run.LastTS, run.LoadedAt})
	}
	tw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
