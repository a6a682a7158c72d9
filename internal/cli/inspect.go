package cli

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/psdemiurge/pkg/composite"
	"github.com/matzehuels/psdemiurge/pkg/config"
	"github.com/matzehuels/psdemiurge/pkg/descriptor"
	"github.com/matzehuels/psdemiurge/pkg/errors"
	"github.com/matzehuels/psdemiurge/pkg/pipeline"
	"github.com/matzehuels/psdemiurge/pkg/source"
	"github.com/matzehuels/psdemiurge/pkg/source/psd"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		check      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "inspect [file.psd]",
		Short: "List a document's layers in stack order",
		Long: `List a document's layers, topmost first, with their bounding boxes in
document coordinates. These are the names a descriptor refers to.

With --check, the descriptor next to the document is loaded and every mood
is rendered in memory with the folder's psdemiurge.toml settings, reporting
names that match nothing and the image size each mood produces.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], check, configPath)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "render the descriptor's moods against the layers")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: <folder>/"+config.FileName+")")
	return cmd
}

func (c *CLI) runInspect(ctx context.Context, path string, check bool, configPath string) error {
	logger := loggerFromContext(ctx)

	spinner := newSpinnerWithContext(ctx, inspectMessage(path))
	spinner.Start()

	doc, err := psd.New().Open(ctx, path)
	if err != nil {
		spinner.StopWithError("Decode failed")
		return err
	}
	spinner.Stop()
	logger.Debug("decoded document", "file", path, "layers", len(doc.Layers))

	fmt.Println(StyleTitle.Render(doc.Name))
	printKeyValue("Size", fmt.Sprintf("%dx%d", doc.Size.X, doc.Size.Y))
	printKeyValue("Layers", fmt.Sprintf("%d", len(doc.Layers)))
	printNewline()
	printLayers(doc.Layers)

	if !check {
		return nil
	}

	dir := filepath.Dir(path)
	cfg, err := inspectConfig(dir, configPath)
	if err != nil {
		return err
	}
	opts, err := pipeline.OptionsFromConfig(dir, cfg)
	if err != nil {
		return err
	}
	logger.Debug("checking moods", "bounds", opts.Bounds, "allow_duplicates", opts.AllowDuplicates)

	printNewline()
	return checkDescriptor(doc, opts)
}

func inspectMessage(path string) string {
	return "Decoding " + filepath.Base(path) + "..."
}

func inspectConfig(dir, explicit string) (config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	cfg, _, err := config.LoadOptional(filepath.Join(dir, config.FileName))
	return cfg, err
}

// printLayers prints one aligned line per layer.
func printLayers(layers []composite.Layer) {
	width := 0
	for _, l := range layers {
		width = max(width, lipgloss.Width(l.Name))
	}
	nameStyle := lipgloss.NewStyle().Width(width + 2)
	for i, l := range layers {
		fmt.Printf("  %s %s %s\n",
			StyleNumber.Render(fmt.Sprintf("%3d", i)),
			nameStyle.Render(StyleValue.Render(l.Name)),
			StyleDim.Render(fmt.Sprintf("%v %dx%d", l.Box, l.Box.Dx(), l.Box.Dy())))
	}
}

// moodCheck is the outcome of rendering one mood in memory.
type moodCheck struct {
	Name    string
	Layers  int         // layers composited
	Missing []string    // requested names that match no layer
	Size    image.Point // output size, after scaling
	Err     error
}

// problem reports whether render would fail the mood or drop some of its
// layers. A mood listing zero layers is skipped by render without failing.
func (m moodCheck) problem() bool {
	if len(m.Missing) > 0 {
		return true
	}
	return m.Err != nil && !errors.Is(m.Err, errors.ErrCodeEmptyVariant)
}

// checkMoods renders every mood of desc against doc the way render would.
func checkMoods(doc *source.Document, desc *descriptor.Descriptor, opts pipeline.Options) []moodCheck {
	var out []moodCheck
	for _, v := range desc.Variants() {
		m := moodCheck{Name: v.Name}
		if len(v.Layers) == 0 {
			m.Err = errors.New(errors.ErrCodeEmptyVariant, "zero layers specified")
			out = append(out, m)
			continue
		}
		img, sel, err := pipeline.RenderVariant(doc.Layers, v.Layers, desc.Scale, opts)
		m.Missing = sel.Missing
		m.Err = err
		if err == nil {
			m.Layers = len(sel.Layers)
			m.Size = img.Bounds().Size()
		}
		out = append(out, m)
	}
	return out
}

// checkDescriptor loads the descriptor next to doc and prints a line per
// mood. A missing descriptor is only a warning.
func checkDescriptor(doc *source.Document, opts pipeline.Options) error {
	path := strings.TrimSuffix(doc.Path, filepath.Ext(doc.Path)) + descriptor.Ext
	if _, err := os.Stat(path); os.IsNotExist(err) {
		printWarning("No descriptor %s", path)
		return nil
	}
	desc, err := descriptor.Load(path)
	if err != nil {
		return err
	}

	checks := checkMoods(doc, desc, opts)
	problems := 0
	for _, m := range checks {
		if m.problem() {
			problems++
		}
		switch {
		case errors.Is(m.Err, errors.ErrCodeEmptyVariant) && len(m.Missing) == 0:
			printWarning("%s: zero layers specified, will be skipped", m.Name)
		case m.Err != nil:
			printError("%s: %s", m.Name, errors.UserMessage(m.Err))
		case len(m.Missing) > 0:
			printWarning("%s: no layers named %s", m.Name, strings.Join(m.Missing, ", "))
		default:
			printSuccess("%s %s", StyleHighlight.Render(m.Name),
				StyleDim.Render(fmt.Sprintf("%d layers, %dx%d", m.Layers, m.Size.X, m.Size.Y)))
		}
	}
	if problems > 0 {
		return fmt.Errorf("%d of %d moods have problems", problems, len(checks))
	}
	return nil
}
