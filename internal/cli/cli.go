// Package cli implements the psdemiurge command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/psdemiurge/pkg/buildinfo"
	"github.com/matzehuels/psdemiurge/pkg/cache"
	"github.com/matzehuels/psdemiurge/pkg/errors"
	"github.com/matzehuels/psdemiurge/pkg/pipeline"
	"github.com/matzehuels/psdemiurge/pkg/source/psd"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "psdemiurge"

	// defaultVerbosity is the verbosity used when -v is not given.
	defaultVerbosity = 2
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbosity int
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:    newLogger(w, level),
		verbosity: defaultVerbosity,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// levelForVerbosity maps -v 0..3 to fatal, error, info and debug.
func levelForVerbosity(v int) (log.Level, error) {
	switch v {
	case 0:
		return log.FatalLevel, nil
	case 1:
		return log.ErrorLevel, nil
	case 2:
		return log.InfoLevel, nil
	case 3:
		return log.DebugLevel, nil
	}
	return log.InfoLevel, errors.New(errors.ErrCodeInvalidConfig, "verbosity must be between 0 and 3, got %d", v)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "psdemiurge renders layered PSD documents into character sprites",
		Long: `psdemiurge composites named layer combinations from PSD documents into
transparent PNG files, one per mood, and can emit a Ren'Py script that
declares every generated image.

Each <name>.psd is paired with a <name>.json descriptor:

  {"moods": {"happy": ["body", "eyes_happy"]}, "yanchor": 0.95}`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := levelForVerbosity(c.verbosity)
			if err != nil {
				return err
			}
			c.SetLogLevel(level)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().IntVarP(&c.verbosity, "verbosity", "v", defaultVerbosity, "log verbosity: 0 fatal, 1 error, 2 info, 3 debug; default raised from 1 to 2 so written files are listed")

	// Register all subcommands
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(psd.New(), cache, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/psdemiurge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
