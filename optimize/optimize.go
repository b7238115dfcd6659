package optimize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gnolang/slimport/internal"
	"github.com/gnolang/slimport/internal/grammar"
	"github.com/gnolang/slimport/internal/types"
	"github.com/gnolang/slimport/scanner"
)

type OptimizeEngine interface {
	Run(filename string) (*types.Result, error)
	RunSource(source []byte) (*types.Result, error)
}

// Options are the command line overrides applied on top of a Config.
type Options struct {
	DryRun   bool
	Strict   bool
	CacheDir string
	// ClearCache drops every cache entry before the run.
	ClearCache bool
}

// New builds an engine from the configuration found for rootDir.
func New(rootDir, configurationPath string, opts Options) (*internal.Engine, Config, error) {
	config, err := LoadConfig(rootDir, configurationPath)
	if err != nil {
		return nil, config, err
	}

	engine, err := NewEngine(config, opts)
	return engine, config, err
}

// NewEngine builds an engine for an already loaded configuration.
func NewEngine(config Config, opts Options) (*internal.Engine, error) {
	g, err := grammar.Lookup(config.Grammar)
	if err != nil {
		return nil, err
	}

	engine, err := internal.NewEngine(g)
	if err != nil {
		return nil, err
	}
	engine.SetDryRun(opts.DryRun)
	engine.SetStrict(config.Strict || opts.Strict)

	cacheDir := config.Cache.Dir
	if opts.CacheDir != "" {
		cacheDir = opts.CacheDir
	}
	if cacheDir == "" {
		return engine, nil
	}

	maxAge, err := config.MaxAge()
	if err != nil {
		return nil, err
	}
	cache, err := internal.NewCache(cacheDir)
	if err != nil {
		return nil, err
	}
	cache.SetMaxAge(maxAge)
	if config.Path() != "" {
		if err := cache.SetDependencies(config.Path()); err != nil {
			return nil, err
		}
	}
	if opts.ClearCache {
		if err := cache.InvalidateAll(); err != nil {
			return nil, err
		}
	}
	engine.UseCache(cache)
	return engine, nil
}

// Scanner returns a file scanner for root honoring the configuration.
func (c Config) Scanner(root string) *scanner.Scanner {
	return scanner.New(root, c.Extensions...).Exclude(c.Exclude...)
}

func ProcessSources(
	ctx context.Context,
	logger *zap.Logger,
	engine OptimizeEngine,
	sources [][]byte,
	processor func(OptimizeEngine, []byte) (*types.Result, error),
) ([]*types.Result, error) {
	var results []*types.Result
	for i, source := range sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := processor(engine, source)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing source", zap.Int("source", i), zap.Error(err))
			}
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// ProcessFiles processes every path in turn. Failures of single files do not
// stop the batch; they are returned joined once every path was visited.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine OptimizeEngine,
	config Config,
	paths []string,
	processor func(OptimizeEngine, string) (*types.Result, error),
) ([]*types.Result, error) {
	var (
		results []*types.Result
		errs    []error
	)
	for _, path := range paths {
		pathResults, err := ProcessPath(ctx, logger, engine, config, path, processor)
		results = append(results, pathResults...)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			if ctx.Err() != nil {
				return results, err
			}
			errs = append(errs, err)
		}
	}

	return results, errors.Join(errs...)
}

// ProcessPath processes a file or every target file below a directory. Files
// are processed concurrently, at most config.Jobs at a time; results keep the
// scan order.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine OptimizeEngine,
	config Config,
	path string,
	processor func(OptimizeEngine, string) (*types.Result, error),
) ([]*types.Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !config.Scanner(path).IsTargetFile(path) {
			return nil, nil
		}
		result, err := processor(engine, path)
		if err != nil {
			return nil, fmt.Errorf("error processing %s: %w", path, err)
		}
		return []*types.Result{result}, nil
	}

	files, err := config.Scanner(path).Scan()
	if err != nil {
		return nil, fmt.Errorf("error walking directory %s: %w", path, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bar := newProgressBar(len(files), path)
	defer bar.Finish()

	jobs := config.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// each goroutine owns its index, no lock needed
	fileResults := make([]*types.Result, len(files))
	fileErrs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			result, err := processor(engine, file.Path)
			if err != nil {
				if logger != nil {
					logger.Error("Error processing file", zap.String("file", file.Path), zap.Error(err))
				}
				fileErrs[i] = fmt.Errorf("error processing %s: %w", file.Path, err)
			} else {
				fileResults[i] = result
			}
			_ = bar.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	var results []*types.Result
	for _, result := range fileResults {
		if result != nil {
			results = append(results, result)
		}
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, errors.Join(fileErrs...)
}

func ProcessFile(engine OptimizeEngine, filePath string) (*types.Result, error) {
	return engine.Run(filePath)
}

func ProcessSource(engine OptimizeEngine, source []byte) (*types.Result, error) {
	return engine.RunSource(source)
}

// progressOutput is where progress bars are drawn; nothing is drawn unless
// it is a terminal.
var progressOutput io.Writer = os.Stderr

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	out := io.Discard
	if f, ok := progressOutput.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		out = f
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
