package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/slimport/formatter"
	"github.com/gnolang/slimport/internal/types"
	"github.com/gnolang/slimport/optimize"
)

// variable for flags
var (
	dryRun     bool
	showDiff   bool
	jsonOutput bool
	outPath    string
	cacheDir   string
	clearCache bool
	strict     bool
	jobs       int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [paths...]",
	Short: "Rewrite attribute chains into direct imports",
	Long: `Rewrites qualified references such as np.linalg.norm(x) into norm(x) and
adds the matching "from numpy.linalg import norm" statement.
Directories are scanned recursively; without paths the current directory is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return runOptimize(ctx, logger, cmd.OutOrStdout(), args, optimizeOptions{
			ConfigPath: cfgFile,
			DryRun:     dryRun,
			Diff:       showDiff,
			JSON:       jsonOutput,
			Output:     outPath,
			CacheDir:   cacheDir,
			ClearCache: clearCache,
			Strict:     strict,
			Jobs:       jobs,
			Verbose:    verbose,
		})
	},
}

func init() {
	addOptimizeFlags(optimizeCmd)
}

func addOptimizeFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the rewrites without writing any file")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Print a unified diff for every changed file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Output path (when using JSON)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory of the processed-file cache")
	cmd.Flags().BoolVar(&clearCache, "clear-cache", false, "Forget every cached file before processing")
	cmd.Flags().BoolVar(&strict, "strict", false, "Replace resolved declarations entirely, even if the alias is still used")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Number of files processed concurrently (default: number of CPUs)")
}

type optimizeOptions struct {
	ConfigRoot string
	ConfigPath string
	DryRun     bool
	Diff       bool
	JSON       bool
	Output     string
	CacheDir   string
	ClearCache bool
	Strict     bool
	Jobs       int
	Verbose    bool
}

func runOptimize(ctx context.Context, logger *zap.Logger, out io.Writer, paths []string, opts optimizeOptions) error {
	root := opts.ConfigRoot
	if root == "" {
		root = "."
	}

	engine, config, err := optimize.New(root, opts.ConfigPath, optimize.Options{
		DryRun:     opts.DryRun,
		Strict:     opts.Strict,
		CacheDir:   opts.CacheDir,
		ClearCache: opts.ClearCache,
	})
	if err != nil {
		return fmt.Errorf("error initializing engine: %w", err)
	}
	if opts.Jobs > 0 {
		config.Jobs = opts.Jobs
	}
	logger.Debug("engine ready",
		zap.String("grammar", engine.Grammar().Name()),
		zap.String("config", config.Path()),
		zap.Bool("strict", config.Strict || opts.Strict))

	results, procErr := optimize.ProcessFiles(ctx, logger, engine, config, paths, optimize.ProcessFile)
	failed := countErrors(procErr)

	if opts.JSON {
		err = printJSON(results, out, opts.Output)
	} else {
		err = printResults(results, failed, out, opts.Diff, opts.Verbose)
	}
	if err != nil {
		return err
	}

	return procErr
}

func printResults(results []*types.Result, failed int, out io.Writer, showDiff bool, verbose bool) error {
	if !showDiff {
		fmt.Fprint(out, formatter.GenerateFormattedResult(results, verbose))
	} else {
		for _, r := range results {
			d, err := formatter.GenerateDiff(r)
			if err != nil {
				return err
			}
			fmt.Fprint(out, d)
		}
	}

	fmt.Fprint(out, formatter.Summary(results, failed))
	return nil
}

type fileReport struct {
	File    string               `json:"file"`
	Action  string               `json:"action"`
	Imports []types.DirectImport `json:"imports,omitempty"`
	Added   int32                `json:"added"`
	Changed int32                `json:"changed"`
	Deleted int32                `json:"deleted"`
}

func printJSON(results []*types.Result, out io.Writer, outputPath string) error {
	reports := make([]fileReport, 0, len(results))
	for _, r := range results {
		stat, err := formatter.DiffStat(r)
		if err != nil {
			return err
		}
		reports = append(reports, fileReport{
			File:    r.Filename,
			Action:  formatter.Action(r),
			Imports: r.Imports,
			Added:   stat.Added,
			Changed: stat.Changed,
			Deleted: stat.Deleted,
		})
	}

	d, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshalling results to JSON: %w", err)
	}
	d = append(d, '\n')

	if outputPath == "" {
		_, err = out.Write(d)
		return err
	}
	if err := os.WriteFile(outputPath, d, 0o644); err != nil {
		return fmt.Errorf("error writing JSON output file: %w", err)
	}
	return nil
}

// countErrors counts the leaves of a tree of joined errors.
func countErrors(err error) int {
	if err == nil {
		return 0
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return 1
	}
	n := 0
	for _, e := range joined.Unwrap() {
		n += countErrors(e)
	}
	return n
}
