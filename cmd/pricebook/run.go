package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mikael/pricebook/internal/batch"
	"github.com/mikael/pricebook/internal/config"
	"github.com/mikael/pricebook/internal/db"
	"github.com/mikael/pricebook/internal/export"
	"github.com/mikael/pricebook/internal/ingestion"
	"github.com/mikael/pricebook/internal/llm"
	"github.com/mikael/pricebook/internal/observability"
	"github.com/mikael/pricebook/internal/pipeline"
)

var runCommand = &cobra.Command{
	Use:   "run [documents...]",
	Short: "Extract and normalize pricing data from documents",
	Long: `Runs the full extraction pipeline end-to-end: ingestion -> extraction -> validation -> normalization.

Documents can be given as positional arguments or in a JSON config file via --config. Command-line arguments override config file values.`,
	RunE: runExtractionCmd,
}

var (
	runConfigPath  string
	runAPIKey      string
	runModelTier   string
	runOutput      string
	runVerbose     bool
	runDatabaseURL string
	runTimeout     time.Duration
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVar(&runModelTier, "model-tier", "", "Model tier: lite, standard, or advanced")
	runCommand.Flags().StringVarP(&runOutput, "output", "o", "", "Path to write the result JSON to (default: print to stdout)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed run progress")
	runCommand.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "Overall run timeout")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for run persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

func runExtractionCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.Load(runConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loadedCfg.Validate(); err != nil {
			return err
		}
		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	if len(args) > 0 {
		cfg.Documents = args
	}
	if cmd.Flags().Changed("model-tier") {
		cfg.ModelTier = runModelTier
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = runOutput
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	// Step 3: Apply defaults for unset values
	cfg = cfg.MergeWithDefaults(config.Config{
		ModelTier: string(llm.TierStandard),
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 4: Validate required fields
	if len(cfg.Documents) == 0 {
		return fmt.Errorf("at least one document must be provided (as an argument or via config)")
	}

	// Step 5: API Key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 6: Database URL handling (optional; persistence is skipped without it)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	log := observability.NewLogger(cfg.Verbose)

	docs, err := ingestion.LoadFiles(cfg.Documents)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	b := batch.New()
	for _, doc := range docs {
		if err := b.AddDocument(doc); err != nil {
			return fmt.Errorf("failed to stage %s: %w", doc.Filename, err)
		}
	}

	extractor, err := llm.NewGeminiExtractor(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create extractor: %w", err)
	}
	defer extractor.Close()
	extractor = extractor.WithTier(llm.ModelTier(cfg.ModelTier))

	var store pipeline.RunStore
	if cfg.DatabaseURL != "" {
		dbStore, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer dbStore.Close()
		if err := dbStore.EnsureSchema(ctx); err != nil {
			return err
		}
		store = dbStore
	}

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		printer.PrintBatch(b.State(), b.Documents())
	}
	runner := pipeline.NewRunner(b, extractor, store, log)

	opts := pipeline.RunOptions{}
	if cfg.Verbose {
		opts.OnProgress = func(event pipeline.ProgressEvent) {
			log.Debug().Str("step", event.Step).Msg(event.Message)
		}
	}

	result, err := runner.Run(ctx, opts)
	if err != nil {
		printer.PrintError(err)
		return err
	}

	data, err := export.ResultJSON(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if cfg.Output != "" {
		path := cfg.Output
		if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
			path = filepath.Join(path, export.Filename(time.Now()))
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Fprintf(os.Stdout, "Result written to: %s\n", path)
	} else {
		fmt.Fprintln(os.Stdout, string(data))
	}

	if cfg.Verbose {
		printer.PrintResult(result)
	}

	return nil
}
