// Package pipeline drives batch rendering of layered documents.
//
// # Architecture
//
// A run walks a target folder and processes every descriptor it finds:
//
//  1. Discover: find "<doc>.json" descriptors and their "<doc>.psd" documents
//  2. Decode: load the descriptor and decode the document's layers
//  3. Render: resolve, composite and write one PNG per variant
//  4. Manifest: optionally write a Ren'Py script declaring every image
//
// Failures are scoped. A broken descriptor or document fails only that
// document, and a broken variant fails only that variant. Only errors that
// make the whole run meaningless (the output root cannot be created, the
// context is cancelled, the manifest cannot be written) are returned from
// [Runner.Run]; everything else is reported in the [Result].
//
// # Usage
//
//	runner := pipeline.NewRunner(psd.New(), cache.NewNullCache(), logger)
//	opts := pipeline.Options{Dir: "art/characters", Manifest: "characters.rpy"}
//	result, err := runner.Run(ctx, opts)
//	if err != nil {
//	    return err
//	}
//	for _, doc := range result.Documents {
//	    fmt.Println(doc.Name, len(doc.Written()))
//	}
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/matzehuels/psdemiurge/pkg/cache"
	"github.com/matzehuels/psdemiurge/pkg/composite"
	"github.com/matzehuels/psdemiurge/pkg/config"
	perrors "github.com/matzehuels/psdemiurge/pkg/errors"
	"github.com/matzehuels/psdemiurge/pkg/imageio"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a run.
type Options struct {
	// Dir is the folder holding descriptors and documents.
	Dir string
	// OutputDir is the output root. Empty means Dir.
	OutputDir string
	// Manifest is the Ren'Py script path relative to OutputDir. Empty
	// disables manifest output.
	Manifest string
	// ImagePrefix is prepended to image paths in the manifest.
	ImagePrefix string
	// Bounds is the canvas policy.
	Bounds composite.Bounds
	// Workers is the number of documents processed at once.
	Workers int
	// AllowDuplicates resolves layer names shared by several layers instead
	// of failing the variant.
	AllowDuplicates bool
	// Compression is the PNG compression level.
	Compression imageio.Compression
	// Refresh ignores cached results and re-renders every document.
	Refresh bool
	// Now stamps the manifest header. Zero means time.Now().
	Now time.Time
}

// OptionsFromConfig builds run options for dir from a tool configuration.
// A relative output_dir is resolved against dir.
func OptionsFromConfig(dir string, cfg config.Config) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	bounds, _ := composite.ParseBounds(cfg.Bounds)
	compression, _ := imageio.ParseCompression(cfg.Compression)

	out := cfg.OutputDir
	if out != "" && !filepath.IsAbs(out) {
		out = filepath.Join(dir, out)
	}

	return Options{
		Dir:             dir,
		OutputDir:       out,
		Manifest:        cfg.Manifest,
		ImagePrefix:     cfg.ImagePrefix,
		Bounds:          bounds,
		Workers:         cfg.Workers,
		AllowDuplicates: cfg.AllowDuplicateLayers,
		Compression:     compression,
	}, nil
}

// SetDefaults fills zero values.
func (o *Options) SetDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = o.Dir
	}
	if o.ImagePrefix == "" {
		o.ImagePrefix = config.DefaultImagePrefix
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// Validate checks required fields.
func (o *Options) Validate() error {
	if o.Dir == "" {
		return perrors.New(perrors.ErrCodeInvalidConfig, "target folder is required")
	}
	if o.Manifest != "" {
		if err := perrors.ValidatePath(o.Manifest); err != nil {
			return err
		}
	}
	return nil
}

// keyOpts returns the options that feed the cache key of document.
func (o *Options) keyOpts(document string) cache.DocumentKeyOpts {
	abs, err := filepath.Abs(o.OutputDir)
	if err != nil {
		abs = o.OutputDir
	}
	return cache.DocumentKeyOpts{
		Document:        document,
		OutputDir:       abs,
		Bounds:          o.Bounds.String(),
		Compression:     o.Compression.String(),
		AllowDuplicates: o.AllowDuplicates,
	}
}

// =============================================================================
// Results
// =============================================================================

// Result is the report of one run.
type Result struct {
	Documents    []DocumentResult
	ManifestPath string
	Stats        Stats
}

// Stats summarizes a run.
type Stats struct {
	Documents int // descriptors found
	Rendered  int // documents decoded and rendered without document-level errors
	Cached    int // documents skipped because outputs were up to date
	Failed    int // documents with a document-level error or a failed variant
	Missing   int // descriptors without a document
	Written   int // PNG files written or confirmed up to date
	Skipped   int // empty variants skipped
	Duration  time.Duration
}

// Failed reports whether any document or variant failed. Missing documents
// and empty variants are warnings, not failures.
func (r *Result) Failed() bool {
	return r.Stats.Failed > 0
}

// Err joins every failure of the run, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, d := range r.Documents {
		if err := d.failure(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DocumentResult is the outcome for one descriptor.
type DocumentResult struct {
	Name       string
	Descriptor string
	Document   string
	Variants   []VariantResult
	Cached     bool
	Err        error
	Duration   time.Duration
}

// Written returns the variants that produced a file.
func (d DocumentResult) Written() []VariantResult {
	var out []VariantResult
	for _, v := range d.Variants {
		if v.Path != "" {
			out = append(out, v)
		}
	}
	return out
}

// Missing reports whether the document file was absent.
func (d DocumentResult) Missing() bool {
	return perrors.Is(d.Err, perrors.ErrCodeMissingDocument)
}

// failure returns the document's error, or the first failed variant wrapped
// with context. Missing documents and empty variants are not failures.
func (d DocumentResult) failure() error {
	if d.Err != nil {
		if d.Missing() {
			return nil
		}
		return fmt.Errorf("%s: %w", d.Name, d.Err)
	}
	for _, v := range d.Variants {
		if v.Err != nil && !v.Empty() {
			return fmt.Errorf("%s/%s: %w", d.Name, v.Name, v.Err)
		}
	}
	return nil
}

// VariantResult is the outcome for one variant.
type VariantResult struct {
	Name    string
	Path    string      // written file, empty when nothing was written
	File    string      // base name of Path
	YAnchor float64
	Layers  int         // layers composited
	Missing []string    // requested layer names not found in the document
	Size    image.Point // output size in pixels
	Err     error
}

// Empty reports whether the variant was skipped for having no layers.
func (v VariantResult) Empty() bool {
	return perrors.Is(v.Err, perrors.ErrCodeEmptyVariant)
}

// OutputPath returns "<out>/<doc>/<doc>_<variant>.png".
func OutputPath(outputDir, document, variant string) string {
	return filepath.Join(outputDir, document, OutputFile(document, variant))
}

// OutputFile returns "<doc>_<variant>.png".
func OutputFile(document, variant string) string {
	return fmt.Sprintf("%s_%s.png", document, variant)
}
