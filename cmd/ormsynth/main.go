package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tordrt/ormsynth"
	"github.com/tordrt/ormsynth/internal/config"
	"github.com/tordrt/ormsynth/internal/logging"
	"github.com/tordrt/ormsynth/internal/manifest"
)

var (
	outputDir   string
	sinkURL     string
	dialect     string
	format      string
	concurrency int
	logLevel    string
	logFormat   string

	models string
	count  int
	seed   uint64

	solutions      int
	alloyJar       string
	javaBin        string
	mainClass      string
	solverTimeout  time.Duration
	scratchDir     string
	createDatabase bool
)

var rootCmd = &cobra.Command{
	Use:   "ormsynth",
	Short: "Synthesize SQL DDL schemas from object models",
	Long: `ormsynth generates relational database schemas for object models, either randomly or
from the instances an Alloy solver finds for a formal model, and writes one DDL artifact per schema.`,
	SilenceUsage: true,
}

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Generate random schemas for named object models",
	Args:  cobra.NoArgs,
	RunE:  runRandom,
}

var alloyCmd = &cobra.Command{
	Use:   "alloy <model.als>",
	Short: "Derive schemas from Alloy solutions of a formal model",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlloy,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&outputDir, "output-dir", "d", "", "Output directory for artifacts (default: generated_schemas)")
	pf.StringVar(&sinkURL, "sink-url", "", "Store artifacts in a database instead (postgres://, mysql://, or sqlite://)")
	pf.StringVar(&dialect, "dialect", "", "SQL dialect: mysql, postgres, or sqlite (default: mysql)")
	pf.StringVarP(&format, "format", "f", "", "Manifest format: text, markdown, or none (default: text)")
	pf.IntVarP(&concurrency, "concurrency", "c", 0, "Units processed in parallel (default: number of CPUs)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, or error (default: info)")
	pf.StringVar(&logFormat, "log-format", "", "Log format: text or json (default: text)")

	randomCmd.Flags().StringVarP(&models, "models", "m", "", "Object models (comma-separated, default: the nine reference models)")
	randomCmd.Flags().IntVarP(&count, "count", "n", 100, "Schemas per model")
	randomCmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for reproducible output (default: random)")

	alloyCmd.Flags().IntVar(&solutions, "solutions", 5, "Number of solutions to derive")
	alloyCmd.Flags().StringVar(&alloyJar, "jar", "", "Path to the Alloy jar (default: $ALLOY_JAR)")
	alloyCmd.Flags().StringVar(&javaBin, "java", "", "Java executable (default: $JAVA_BIN or java)")
	alloyCmd.Flags().StringVar(&mainClass, "main-class", "", "Alloy entry point class")
	alloyCmd.Flags().DurationVar(&solverTimeout, "timeout", 0, "Timeout per solver invocation (default: 2m)")
	alloyCmd.Flags().StringVar(&scratchDir, "scratch-dir", "", "Directory for solver output documents (default: temporary)")
	alloyCmd.Flags().BoolVar(&createDatabase, "create-database", false, "Prefix each artifact with CREATE DATABASE and USE (mysql only)")

	rootCmd.AddCommand(randomCmd, alloyCmd)
}

// settings merges flags over the environment configuration
func settings(cmd *cobra.Command) (*config.Config, logrus.FieldLogger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("output-dir", &cfg.OutputDir, outputDir)
	override("sink-url", &cfg.SinkURL, sinkURL)
	override("dialect", &cfg.Dialect, dialect)
	override("format", &cfg.Format, format)
	override("log-level", &cfg.LogLevel, logLevel)
	override("log-format", &cfg.LogFormat, logFormat)
	override("jar", &cfg.AlloyJar, alloyJar)
	override("java", &cfg.JavaBin, javaBin)
	override("main-class", &cfg.AlloyMain, mainClass)
	if flags.Changed("concurrency") {
		if concurrency < 0 {
			return nil, nil, fmt.Errorf("--concurrency must not be negative")
		}
		cfg.Concurrency = concurrency
	}
	if flags.Changed("timeout") {
		if solverTimeout <= 0 {
			return nil, nil, fmt.Errorf("--timeout must be positive")
		}
		cfg.SolverTimeout = solverTimeout
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func outputOptions(cfg *config.Config) *ormsynth.OutputOptions {
	return &ormsynth.OutputOptions{
		OutputDir:      cfg.OutputDir,
		SinkURL:        cfg.SinkURL,
		ManifestFormat: cfg.Format,
	}
}

func runRandom(cmd *cobra.Command, args []string) error {
	cfg, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	if count <= 0 {
		return fmt.Errorf("--count must be positive")
	}

	opts := &ormsynth.GenerateOptions{
		Models:          parseModelList(models),
		SchemasPerModel: count,
		Dialect:         cfg.Dialect,
		Concurrency:     cfg.Concurrency,
		Logger:          logger,
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = &seed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := ormsynth.GenerateSchemas(ctx, opts, outputOptions(cfg))
	report(m)
	if err != nil {
		return fmt.Errorf("failed to generate schemas: %w", err)
	}
	return nil
}

func runAlloy(cmd *cobra.Command, args []string) error {
	cfg, logger, err := settings(cmd)
	if err != nil {
		return err
	}
	if solutions <= 0 {
		return fmt.Errorf("--solutions must be positive")
	}
	if cfg.AlloyJar == "" {
		return fmt.Errorf("--jar or ALLOY_JAR must be specified")
	}

	opts := &ormsynth.DeriveOptions{
		Solutions:      solutions,
		JavaBin:        cfg.JavaBin,
		AlloyJar:       cfg.AlloyJar,
		AlloyMainClass: cfg.AlloyMain,
		SolverTimeout:  cfg.SolverTimeout,
		ScratchDir:     scratchDir,
		Dialect:        cfg.Dialect,
		CreateDatabase: createDatabase,
		Concurrency:    cfg.Concurrency,
		Logger:         logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := ormsynth.DeriveSchemas(ctx, args[0], opts, outputOptions(cfg))
	report(m)
	if err != nil {
		return fmt.Errorf("failed to derive schemas: %w", err)
	}
	return nil
}

// parseModelList splits a comma-separated model list, dropping blanks
func parseModelList(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, m := range strings.Split(list, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func report(m *manifest.Manifest) {
	if m == nil {
		return
	}
	failed := m.Failed()
	for _, e := range failed {
		fmt.Fprintf(os.Stderr, "warning: %s unit %d failed: %s\n", e.Model, e.Unit, e.Error)
	}
	fmt.Printf("Generated %d schemas (%d failed), run %s\n", len(m.Succeeded()), len(failed), m.RunID)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
