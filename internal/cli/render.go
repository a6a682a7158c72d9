package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/psdemiurge/pkg/config"
	"github.com/matzehuels/psdemiurge/pkg/observability"
	"github.com/matzehuels/psdemiurge/pkg/pipeline"
)

// renderFlags holds the command-line flags shared by render and watch.
// Flags that were set explicitly override the folder's psdemiurge.toml.
type renderFlags struct {
	output          string // output root
	manifest        string // Ren'Py script path relative to the output root
	prefix          string // image path prefix inside the manifest
	bounds          string // canvas policy: origin or tight
	workers         int    // documents processed concurrently
	compression     string // PNG compression level
	allowDuplicates bool   // resolve duplicate layer names instead of failing
	noCache         bool   // disable the render cache
	refresh         bool   // ignore cached results but still record new ones
	config          string // explicit config file
}

func (f *renderFlags) register(fs *pflag.FlagSet) {
	def := config.Default()
	fs.StringVarP(&f.output, "output", "o", "", "output folder (default: the target folder)")
	fs.StringVar(&f.manifest, "manifest", "", "write a Ren'Py script to this path inside the output folder")
	fs.StringVar(&f.prefix, "image-prefix", def.ImagePrefix, "image path prefix used in the manifest")
	fs.StringVar(&f.bounds, "bounds", def.Bounds, "canvas bounds: origin (include document origin), tight")
	fs.IntVarP(&f.workers, "workers", "j", def.Workers, "documents rendered concurrently")
	fs.StringVar(&f.compression, "compression", def.Compression, "PNG compression: default, best, speed, none")
	fs.BoolVar(&f.allowDuplicates, "allow-duplicates", false, "allow a layer name to match several layers")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fs.BoolVar(&f.refresh, "refresh", false, "re-render documents even when outputs are up to date")
	fs.StringVar(&f.config, "config", "", "config file (default: <folder>/"+config.FileName+")")
}

// options merges the folder's config file with explicitly set flags.
func (f *renderFlags) options(dir string, fs *pflag.FlagSet) (pipeline.Options, error) {
	cfg, err := f.loadConfig(dir)
	if err != nil {
		return pipeline.Options{}, err
	}

	if fs.Changed("manifest") {
		cfg.Manifest = f.manifest
	}
	if fs.Changed("image-prefix") {
		cfg.ImagePrefix = f.prefix
	}
	if fs.Changed("bounds") {
		cfg.Bounds = f.bounds
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("compression") {
		cfg.Compression = f.compression
	}
	if fs.Changed("allow-duplicates") {
		cfg.AllowDuplicateLayers = f.allowDuplicates
	}

	opts, err := pipeline.OptionsFromConfig(dir, cfg)
	if err != nil {
		return pipeline.Options{}, err
	}
	if fs.Changed("output") {
		opts.OutputDir = f.output
	}
	opts.Refresh = f.refresh
	return opts, nil
}

func (f *renderFlags) loadConfig(dir string) (config.Config, error) {
	if f.config != "" {
		return config.Load(f.config)
	}
	cfg, _, err := config.LoadOptional(filepath.Join(dir, config.FileName))
	return cfg, err
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [folder]",
		Short: "Render every mood of every document in a folder",
		Long: `Render every mood of every document in a folder.

For each <name>.json descriptor the matching <name>.psd is decoded and every
mood is composited into <output>/<name>/<name>_<mood>.png. Documents whose
inputs have not changed since the last run are skipped.

Settings are read from psdemiurge.toml in the folder when present; flags
override them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.options(args[0], cmd.Flags())
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, flags.noCache)
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

// runRender renders the folder once and prints a summary.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	if err := c.renderOnce(ctx, runner, opts); err != nil {
		return err
	}
	printNewline()
	printNextStep("Re-render on every save", appName+" watch "+opts.Dir)
	return nil
}

// renderOnce runs the pipeline with file-printing hooks and reports the
// result. Failed documents produce an error after the summary is printed.
func (c *CLI) renderOnce(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) error {
	runner.Hooks = fileHooks()

	prog := newProgress(loggerFromContext(ctx))
	result, err := runner.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", opts.Dir, err)
	}
	prog.done(fmt.Sprintf("Rendered %d images", result.Stats.Written))

	printNewline()
	if result.Failed() {
		printError("Render finished with %d failed documents", result.Stats.Failed)
		for _, line := range strings.Split(result.Err().Error(), "\n") {
			printDetail("%s", line)
		}
	} else {
		printSuccess("Render complete")
	}
	if result.ManifestPath != "" {
		printFile(result.ManifestPath)
	}
	printStats(result.Stats)

	if result.Failed() {
		return fmt.Errorf("%d of %d documents failed", result.Stats.Failed, result.Stats.Documents)
	}
	return nil
}

// fileHooks prints every written file as it lands.
func fileHooks() observability.Hooks {
	var mu sync.Mutex
	return observability.Funcs{
		VariantComplete: func(_ context.Context, _, _, path string, _ time.Duration, err error) {
			if err != nil || path == "" {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			printFile(path)
		},
	}
}
