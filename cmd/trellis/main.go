package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jward/trellis"
	"github.com/jward/trellis/internal/export"
	"github.com/jward/trellis/internal/locate"
)

var (
	flagFormat  string
	flagVerbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "trellis",
	Short:         "Symbol and call-graph extraction for checked and dynamic script variants",
	Long:          "Trellis parses source files with tree-sitter and extracts symbols, call relations, and import/export relations into a single merged result.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagVerbose {
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
		}
		return validateFormat(flagFormat)
	},
	// No Run — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(analyzeCmd)
}

var (
	flagConfig    string
	flagOut       string
	flagDB        string
	flagExclude   []string
	flagBatchSize int
	flagParallel  bool
	flagWorkers   int
	flagMaxMemory int64
	flagContinue  bool
	flagNoChecked bool
	flagNoDynamic bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a directory or file and emit the merged result",
	Long:  "Discovers source files under the given path, extracts symbols and relations, and writes the merged result to stdout, a JSON file, or a SQLite database.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&flagConfig, "config", "", "YAML config file (flags override file values)")
	analyzeCmd.Flags().StringVar(&flagOut, "out", "", "write JSON result to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&flagDB, "db", "", "also write the result to a SQLite database at this path")
	analyzeCmd.Flags().StringSliceVar(&flagExclude, "exclude", nil, "glob patterns to exclude (repeatable)")
	analyzeCmd.Flags().IntVar(&flagBatchSize, "batch-size", 0, "max files per direct pass (default 100)")
	analyzeCmd.Flags().BoolVar(&flagParallel, "parallel", false, "enable parallel chunk processing for large runs")
	analyzeCmd.Flags().IntVar(&flagWorkers, "workers", 0, "max concurrent chunks (0 = unlimited)")
	analyzeCmd.Flags().Int64Var(&flagMaxMemory, "max-memory", 0, "memory ceiling in bytes (default 1 GiB)")
	analyzeCmd.Flags().BoolVar(&flagContinue, "continue-on-error", false, "skip unparsable files instead of aborting")
	analyzeCmd.Flags().BoolVar(&flagNoChecked, "no-checked", false, "skip checked-variant files")
	analyzeCmd.Flags().BoolVar(&flagNoDynamic, "no-dynamic", false, "skip dynamic-variant files")
}

// fileConfig mirrors trellis.Config for YAML loading.
type fileConfig struct {
	ExcludePatterns          []string `yaml:"excludePatterns"`
	BatchSize                int      `yaml:"batchSize"`
	EnableParallelProcessing bool     `yaml:"enableParallelProcessing"`
	WorkerCount              int      `yaml:"workerCount"`
	MaxMemoryUsage           int64    `yaml:"maxMemoryUsage"`
	ContinueOnError          bool     `yaml:"continueOnError"`
	IncludeCheckedVariant    *bool    `yaml:"includeCheckedVariant"`
	IncludeDynamicVariant    *bool    `yaml:"includeDynamicVariant"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()

	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	loc, err := locate.NewLocator(locate.WithExcludes(cfg.ExcludePatterns))
	if err != nil {
		return err
	}
	files, err := loc.Locate(root)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no analyzable files under %s", root)
	}

	analyzer, err := trellis.New(cfg)
	if err != nil {
		return err
	}
	result, err := analyzer.Analyze(context.Background(), files)
	if err != nil {
		return fmt.Errorf("analyzing: %w", err)
	}

	if flagDB != "" {
		store, err := export.OpenSQLite(flagDB)
		if err != nil {
			return err
		}
		if err := store.WriteResult(result); err != nil {
			store.Close()
			return err
		}
		if err := store.Close(); err != nil {
			return err
		}
	}

	switch {
	case flagOut != "":
		if err := export.WriteJSONFile(flagOut, result); err != nil {
			return err
		}
	case flagFormat == "text":
		formatResultText(os.Stdout, result)
	default:
		if err := export.WriteJSON(os.Stdout, result); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Analyzed %d files in %s (%d symbols, %d call relations)\n",
		result.Metadata.TotalFiles,
		time.Since(start).Round(time.Millisecond),
		result.Metadata.TotalSymbols,
		result.Metadata.TotalCallRelations,
	)
	return nil
}

// buildConfig layers defaults, the optional YAML file, and explicit flags, in
// that order.
func buildConfig(cmd *cobra.Command) (trellis.Config, error) {
	cfg := trellis.DefaultConfig()

	if flagConfig != "" {
		data, err := os.ReadFile(flagConfig)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", flagConfig, err)
		}
		cfg.ExcludePatterns = append(cfg.ExcludePatterns, fc.ExcludePatterns...)
		if fc.BatchSize != 0 {
			cfg.BatchSize = fc.BatchSize
		}
		cfg.EnableParallelProcessing = fc.EnableParallelProcessing
		if fc.WorkerCount != 0 {
			cfg.WorkerCount = fc.WorkerCount
		}
		if fc.MaxMemoryUsage != 0 {
			cfg.MaxMemoryUsage = fc.MaxMemoryUsage
		}
		cfg.ContinueOnError = fc.ContinueOnError
		if fc.IncludeCheckedVariant != nil {
			cfg.IncludeCheckedVariant = *fc.IncludeCheckedVariant
		}
		if fc.IncludeDynamicVariant != nil {
			cfg.IncludeDynamicVariant = *fc.IncludeDynamicVariant
		}
	}

	cfg.ExcludePatterns = append(cfg.ExcludePatterns, flagExclude...)
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = flagBatchSize
	}
	if cmd.Flags().Changed("parallel") {
		cfg.EnableParallelProcessing = flagParallel
	}
	if cmd.Flags().Changed("workers") {
		cfg.WorkerCount = flagWorkers
	}
	if cmd.Flags().Changed("max-memory") {
		cfg.MaxMemoryUsage = flagMaxMemory
	}
	if cmd.Flags().Changed("continue-on-error") {
		cfg.ContinueOnError = flagContinue
	}
	if flagNoChecked {
		cfg.IncludeCheckedVariant = false
	}
	if flagNoDynamic {
		cfg.IncludeDynamicVariant = false
	}
	return cfg, nil
}
