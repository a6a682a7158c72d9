package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/psdemiurge/pkg/config"
	"github.com/matzehuels/psdemiurge/pkg/descriptor"
	"github.com/matzehuels/psdemiurge/pkg/source/psd"
)

// watchDebounce is how long the folder must be quiet before a re-render.
const watchDebounce = 500 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "watch [folder]",
		Short: "Re-render a folder whenever a document or descriptor changes",
		Long: `Render a folder, then keep watching it and render again whenever a
.psd, .json or psdemiurge.toml file changes. Unchanged documents are served
from the cache, so only edited documents are decoded again.

Press Ctrl-C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], &flags, cmd.Flags())
		},
	}

	flags.register(cmd.Flags())
	return cmd
}

func (c *CLI) runWatch(ctx context.Context, dir string, flags *renderFlags, fs *pflag.FlagSet) error {
	logger := loggerFromContext(ctx)
	opts, err := flags.options(dir, fs)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	render := func() {
		if err := c.renderOnce(ctx, runner, opts); err != nil && ctx.Err() == nil {
			logger.Error("render failed", "err", err)
		}
		printNewline()
		printInfo("Watching %s for changes", dir)
	}
	render()

	var pending <-chan time.Time
	var timer *time.Timer
	reload := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !watched(event) {
				continue
			}
			logger.Debug("file changed", "file", filepath.Base(event.Name), "op", event.Op.String())
			if filepath.Base(event.Name) == config.FileName {
				reload = true
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(watchDebounce)
			pending = timer.C

		case <-pending:
			pending = nil
			if reload {
				reload = false
				next, err := flags.options(dir, fs)
				if err != nil {
					logger.Error("config reload failed, keeping previous settings", "err", err)
				} else {
					opts = next
				}
			}
			render()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "err", err)
		}
	}
}

// watched reports whether event touches a render input.
func watched(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	if filepath.Base(event.Name) == config.FileName {
		return true
	}
	switch filepath.Ext(event.Name) {
	case descriptor.Ext, psd.Ext:
		return true
	}
	return false
}
