package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tordrt/dbscaffold"
	"github.com/tordrt/dbscaffold/internal/config"
	"github.com/tordrt/dbscaffold/internal/formatter"
	"github.com/tordrt/dbscaffold/internal/logging"
)

var (
	provider         string
	connection       string
	tables           []string
	schemas          []string
	outputDir        string
	contextName      string
	namespace        string
	contextNamespace string
	language         string
	report           string
	dataAnnotations  bool
	force            bool
	useDatabaseNames bool
	noPluralize      bool
	noOnConfiguring  bool
	configPath       string
	logLevel         string
	logFormat        string
)

var rootCmd = &cobra.Command{
	Use:   "dbscaffold [connection] [provider]",
	Short: "Generate ORM entity and context classes from a database",
	Long: `dbscaffold reads the catalog of a SQL Server, PostgreSQL, MySQL or SQLite database and
generates a context class plus one entity class per table, configuring only what differs
from the ORM's conventions. With --config, several databases are scaffolded concurrently.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&provider, "provider", "", "Database provider: sqlserver, postgres, mysql or sqlite (optional with a URL connection)")
	f.StringVar(&connection, "connection", "", "Connection string or URL (default: $"+config.EnvConnection+")")
	f.StringArrayVarP(&tables, "table", "t", nil, "Table to scaffold as [schema.]name, repeatable (default: all)")
	f.StringArrayVar(&schemas, "schema", nil, "Schema whose tables to scaffold, repeatable")
	f.StringVarP(&outputDir, "output-dir", "o", ".", "Directory for the generated files")
	f.StringVarP(&contextName, "context", "c", "", "Name of the context class (default: AppDbContext)")
	f.StringVar(&namespace, "namespace", "", "Namespace of the entity classes, or Go package name")
	f.StringVar(&contextNamespace, "context-namespace", "", "Namespace of the context class (default: --namespace)")
	f.StringVar(&language, "language", "csharp", "Output language: csharp or go")
	f.StringVar(&report, "report", "", "Print a summary of the scaffolded model: text or markdown")
	f.BoolVar(&dataAnnotations, "data-annotations", false, "Configure with attributes where possible")
	f.BoolVar(&force, "force", false, "Overwrite existing files")
	f.BoolVar(&useDatabaseNames, "use-database-names", false, "Keep table and column names as in the database")
	f.BoolVar(&noPluralize, "no-pluralize", false, "Do not singularize entity or pluralize DbSet names")
	f.BoolVar(&noOnConfiguring, "no-onconfiguring", false, "Do not generate OnConfiguring or embed the connection string")
	f.StringVar(&configPath, "config", "", "YAML file with one or more targets; target flags are ignored")
	f.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error (default: $"+config.EnvLogLevel+")")
	f.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLoggerTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return runTargets(cmd.Context(), cfg, logger, cmd.OutOrStdout())
}

// loadConfig reads --config, or builds a single target from the flags and
// positional arguments
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("log-format") || cfg.LogFormat == "" {
			cfg.LogFormat = logFormat
		}
		return cfg, nil
	}

	cfg := &config.Config{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		Targets:   []config.Target{targetFromFlags(args)},
	}
	cfg.ApplyEnv()
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	return cfg, nil
}

func targetFromFlags(args []string) config.Target {
	t := config.Target{
		Provider:         provider,
		Connection:       connection,
		Tables:           tables,
		Schemas:          schemas,
		OutputDir:        outputDir,
		ContextName:      contextName,
		Namespace:        namespace,
		ContextNamespace: contextNamespace,
		Language:         language,
		Report:           report,
		DataAnnotations:  dataAnnotations,
		UseDatabaseNames: useDatabaseNames,
		NoPluralize:      noPluralize,
		NoOnConfiguring:  noOnConfiguring,
		Force:            force,
	}
	if len(args) > 0 && t.Connection == "" {
		t.Connection = args[0]
	}
	if len(args) > 1 && t.Provider == "" {
		t.Provider = args[1]
	}
	return t
}

// result is what one target produced, printed once every target is done
type result struct {
	label   string
	paths   []string
	skipped []string
	report  string
	err     error
}

// runTargets scaffolds every target concurrently. A failing target does
// not stop the others.
func runTargets(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]result, len(cfg.Targets))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, t := range cfg.Targets {
		eg.Go(func() error {
			results[i] = scaffoldTarget(ctx, t, logger.With("target", t.Label()))
			return nil
		})
	}
	_ = eg.Wait()

	var errs []error
	for _, r := range results {
		printResult(out, r)
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.label, r.err))
		}
	}
	if len(errs) > 0 && len(cfg.Targets) > 1 {
		errs = append([]error{fmt.Errorf("%d of %d targets failed", len(errs), len(cfg.Targets))}, errs...)
	}
	return errors.Join(errs...)
}

func scaffoldTarget(ctx context.Context, t config.Target, logger *slog.Logger) result {
	r := result{label: t.Label()}
	opts := dbscaffold.Options{
		Provider:              t.Provider,
		Connection:            t.Connection,
		Tables:                t.Tables,
		Schemas:               t.Schemas,
		OutputDir:             t.OutputDir,
		ContextName:           t.ContextName,
		Namespace:             t.Namespace,
		ContextNamespace:      t.ContextNamespace,
		Language:              t.Language,
		UseDataAnnotations:    t.DataAnnotations,
		UseDatabaseNames:      t.UseDatabaseNames,
		NoPluralize:           t.NoPluralize,
		SuppressOnConfiguring: t.NoOnConfiguring,
		Overwrite:             t.Force,
		Logger:                logger,
	}
	// the connection string parsed from a URL is what OnConfiguring embeds
	if p, cs, err := t.Resolve(); err == nil {
		opts.Provider, opts.Connection = string(p), cs
	}

	dbm, err := dbscaffold.Introspect(ctx, opts)
	if err != nil {
		r.err = err
		return r
	}
	m, output, err := dbscaffold.Generate(ctx, dbm, opts)
	if err != nil {
		r.err = err
		return r
	}
	for _, u := range m.Unmapped {
		r.skipped = append(r.skipped, fmt.Sprintf("%s: %s", u.Table, u.Reason))
	}
	if t.Report != "" {
		var buf bytes.Buffer
		f, err := formatter.New(t.Report, &buf)
		if err != nil {
			r.err = err
			return r
		}
		if err := f.Format(m); err != nil {
			r.err = fmt.Errorf("failed to format report: %w", err)
			return r
		}
		r.report = buf.String()
	}
	r.paths, r.err = output.Save(t.OutputDir, t.Force)
	return r
}

func printResult(w io.Writer, r result) {
	for _, s := range r.skipped {
		_, _ = fmt.Fprintf(w, "%s %s: skipped %s\n", color.New(color.FgYellow).Sprint("!"), r.label, s)
	}
	if r.err != nil {
		_, _ = fmt.Fprintf(w, "%s %s: %v\n", color.New(color.FgRed).Sprint("✗"), r.label, r.err)
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s: wrote %d files\n", color.New(color.FgGreen).Sprint("✓"), r.label, len(r.paths))
	for _, p := range r.paths {
		_, _ = fmt.Fprintf(w, "    %s\n", p)
	}
	if r.report != "" {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprint(w, r.report)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed).Sprint("error:"), err)
		os.Exit(1)
	}
}
