package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gnolang/slimport/formatter"
	"github.com/gnolang/slimport/internal"
	"github.com/gnolang/slimport/internal/types"
	"github.com/gnolang/slimport/optimize"
	"github.com/gnolang/slimport/scanner"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Rewrite imports whenever a source file changes",
	Long: `Watches the given directories (the current directory by default) and
optimizes every target file right after it is written. Stops on interrupt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"."}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runWatch(ctx, logger, cmd.OutOrStdout(), args, optimizeOptions{
			ConfigPath: cfgFile,
			CacheDir:   cacheDir,
			Strict:     strict,
		})
	},
}

func init() {
	watchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Directory of the processed-file cache")
	watchCmd.Flags().BoolVar(&strict, "strict", false, "Replace resolved declarations entirely, even if the alias is still used")
}

func newWatcher(logger *zap.Logger, out io.Writer, dirs []string, opts optimizeOptions) (*internal.Watcher, error) {
	root := opts.ConfigRoot
	if root == "" {
		root = "."
	}

	engine, config, err := optimize.New(root, opts.ConfigPath, optimize.Options{
		Strict:   opts.Strict,
		CacheDir: opts.CacheDir,
	})
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	scanners := make([]*scanner.Scanner, 0, len(dirs))
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("error accessing %s: %w", dir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", dir)
		}
		scanners = append(scanners, config.Scanner(dir))
	}

	w, err := internal.NewWatcher(engine, logger, scanners...)
	if err != nil {
		return nil, err
	}
	w.OnResult = func(r *types.Result) {
		fmt.Fprint(out, formatter.GenerateFormattedResult([]*types.Result{r}, false))
	}
	return w, nil
}

func runWatch(ctx context.Context, logger *zap.Logger, out io.Writer, dirs []string, opts optimizeOptions) error {
	w, err := newWatcher(logger, out, dirs, opts)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info("watching for changes", zap.Strings("dirs", dirs))
	return w.Watch(ctx)
}
