package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/psdemiurge/pkg/cache"
	"github.com/matzehuels/psdemiurge/pkg/composite"
	"github.com/matzehuels/psdemiurge/pkg/descriptor"
	"github.com/matzehuels/psdemiurge/pkg/errors"
	"github.com/matzehuels/psdemiurge/pkg/imageio"
	"github.com/matzehuels/psdemiurge/pkg/manifest"
	"github.com/matzehuels/psdemiurge/pkg/observability"
	"github.com/matzehuels/psdemiurge/pkg/source"
)

// Runner executes render runs.
//
// The Runner holds no per-run state, so one Runner can serve repeated runs
// (as watch mode does) or concurrent runs with different options.
type Runner struct {
	Source source.Source
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	Hooks  observability.Hooks
}

// NewRunner creates a runner.
// If c is nil, a NullCache is used (caching disabled).
// If logger is nil, log.Default() is used.
func NewRunner(src source.Source, c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: src,
		Cache:  c,
		Keyer:  cache.NewDefaultKeyer(),
		Logger: logger,
		Hooks:  observability.NoopHooks{},
	}
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Job is one descriptor and the document it describes.
type Job struct {
	Name       string
	Descriptor string
	Document   string
}

// Discover lists the descriptors in dir, sorted by name, paired with the
// document of the same base name.
func (r *Runner) Discover(dir string) ([]Job, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "resolve %s", dir)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "%s is not a folder", dir)
	}
	matches, err := filepath.Glob(filepath.Join(abs, "*"+descriptor.Ext))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "list %s", dir)
	}
	slices.Sort(matches)

	jobs := make([]Job, 0, len(matches))
	for _, m := range matches {
		name := source.BaseName(m)
		jobs = append(jobs, Job{
			Name:       name,
			Descriptor: m,
			Document:   filepath.Join(abs, name+r.Source.Ext()),
		})
	}
	return jobs, nil
}

// Run renders every document in opts.Dir.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	jobs, err := r.Discover(opts.Dir)
	if err != nil {
		return nil, err
	}
	result := &Result{Documents: make([]DocumentResult, len(jobs))}
	result.Stats.Documents = len(jobs)

	if len(jobs) == 0 {
		r.Logger.Warn("no descriptor files found", "dir", opts.Dir)
		return result, nil
	}
	r.Logger.Debug("found descriptors", "count", len(jobs))

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create output folder %s", opts.OutputDir)
	}

	var g errgroup.Group
	g.SetLimit(opts.Workers)
	for i, job := range jobs {
		g.Go(func() error {
			if ctx.Err() != nil {
				result.Documents[i] = DocumentResult{Name: job.Name, Err: ctx.Err()}
				return nil
			}
			result.Documents[i] = r.RenderDocument(ctx, job, opts)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	result.Stats = summarize(result.Documents)
	result.Stats.Duration = time.Since(start)

	if opts.Manifest != "" {
		path := filepath.Join(opts.OutputDir, opts.Manifest)
		if err := r.writeManifest(path, result.Documents, opts); err != nil {
			return result, err
		}
		result.ManifestPath = path
	}

	r.Logger.Info("run complete",
		"documents", result.Stats.Documents,
		"written", result.Stats.Written,
		"failed", result.Stats.Failed,
		"duration", result.Stats.Duration.Round(time.Millisecond))
	return result, nil
}

// RenderDocument renders every variant of one document. It never returns
// an error: failures are recorded in the result.
func (r *Runner) RenderDocument(ctx context.Context, job Job, opts Options) DocumentResult {
	opts.SetDefaults()
	start := time.Now()
	res := DocumentResult{Name: job.Name, Descriptor: job.Descriptor, Document: job.Document}

	r.Hooks.OnDocumentStart(ctx, job.Name)

	logger := r.Logger.With("document", job.Name)
	logger.Info("rendering images", "file", filepath.Base(job.Document))

	res.Err = r.renderDocument(ctx, job, opts, logger, &res)
	if res.Err != nil {
		if res.Missing() {
			logger.Warn("skipping document", "err", errors.UserMessage(res.Err))
		} else {
			logger.Error("document failed", "err", res.Err)
		}
	}

	res.Duration = time.Since(start)
	r.Hooks.OnDocumentComplete(ctx, job.Name, len(res.Written()), res.Duration, res.Err)
	return res
}

func (r *Runner) renderDocument(ctx context.Context, job Job, opts Options, logger *log.Logger, res *DocumentResult) error {
	if err := errors.ValidateName(job.Name); err != nil {
		return err
	}
	if _, err := os.Stat(job.Document); os.IsNotExist(err) {
		return errors.New(errors.ErrCodeMissingDocument, "no document %s for %s", filepath.Base(job.Document), filepath.Base(job.Descriptor))
	}

	desc, err := descriptor.Load(job.Descriptor)
	if err != nil {
		return err
	}

	key, cacheable := r.documentKey(job, opts, logger)
	if cacheable && !opts.Refresh {
		if variants, ok := r.lookup(ctx, key, job.Name, opts.OutputDir); ok {
			logger.Info("outputs up to date, skipping")
			res.Cached = true
			res.Variants = variants
			r.Hooks.OnCacheHit(ctx, job.Name)
			return nil
		}
	}

	doc, err := r.Source.Open(ctx, job.Document)
	if err != nil {
		return err
	}
	logger.Debug("decoded document", "layers", len(doc.Layers), "size", doc.Size)

	for _, v := range desc.Variants() {
		vr := r.renderVariant(ctx, doc, v, desc.Scale, opts, logger)
		res.Variants = append(res.Variants, vr)
	}

	if cacheable && res.failure() == nil {
		r.store(ctx, key, res.Variants, logger)
	}
	return nil
}

// renderVariant composites and writes one variant.
func (r *Runner) renderVariant(ctx context.Context, doc *source.Document, v descriptor.Variant, scale float64, opts Options, logger *log.Logger) VariantResult {
	start := time.Now()
	vr := VariantResult{Name: v.Name, YAnchor: v.YAnchor}
	defer func() {
		r.Hooks.OnVariantComplete(ctx, doc.Name, v.Name, vr.Path, time.Since(start), vr.Err)
	}()

	if len(v.Layers) == 0 {
		vr.Err = errors.New(errors.ErrCodeEmptyVariant, "zero layers specified for %q", v.Name)
		logger.Warn("zero layers specified, skipping", "mood", v.Name)
		return vr
	}

	img, sel, err := RenderVariant(doc.Layers, v.Layers, scale, opts)
	vr.Missing = sel.Missing
	if len(sel.Missing) > 0 {
		logger.Warn("layers not found", "mood", v.Name, "names", sel.Missing)
	}
	if err != nil {
		vr.Err = err
		if vr.Empty() {
			logger.Warn("no layers matched, skipping", "mood", v.Name)
		} else {
			logger.Error("mood failed", "mood", v.Name, "err", err)
		}
		return vr
	}
	vr.Layers = len(sel.Layers)
	vr.Size = img.Bounds().Size()
	logger.Debug("composited", "mood", v.Name, "layers", sel.Layers, "size", vr.Size)

	path := OutputPath(opts.OutputDir, doc.Name, v.Name)
	logger.Info("saving", "file", filepath.Base(path))
	if err := imageio.WritePNG(path, img, opts.Compression); err != nil {
		vr.Err = err
		logger.Error("write failed", "mood", v.Name, "err", err)
		return vr
	}
	vr.Path = path
	vr.File = filepath.Base(path)
	return vr
}

// RenderVariant resolves names against layers, composites them and applies
// the output scale. The returned resolution is valid even when err is not nil.
func RenderVariant(layers []composite.Layer, names []string, scale float64, opts Options) (image.Image, composite.Resolution, error) {
	sel, err := composite.Resolve(layers, names, composite.ResolveOptions{AllowDuplicates: opts.AllowDuplicates})
	if err != nil {
		return nil, sel, err
	}
	res, err := composite.Composite(sel.Layers, opts.Bounds)
	if err != nil {
		return nil, sel, err
	}
	if scale == 0 {
		scale = 1
	}
	return imageio.Scale(res.Image, scale), sel, nil
}

// =============================================================================
// Cache
// =============================================================================

// cachedVariant is the persisted form of a written variant.
type cachedVariant struct {
	Name    string      `json:"name"`
	Path    string      `json:"path"`
	YAnchor float64     `json:"yanchor"`
	Layers  int         `json:"layers"`
	Missing []string    `json:"missing,omitempty"`
	Size    image.Point `json:"size"`
	Empty   bool        `json:"empty,omitempty"`
}

// documentKey hashes the document and descriptor. The second result is
// false when either cannot be read, which disables caching for the document.
func (r *Runner) documentKey(job Job, opts Options, logger *log.Logger) (string, bool) {
	docHash, err := cache.HashFile(job.Document)
	if err != nil {
		logger.Debug("cannot hash document", "err", err)
		return "", false
	}
	descHash, err := cache.HashFile(job.Descriptor)
	if err != nil {
		logger.Debug("cannot hash descriptor", "err", err)
		return "", false
	}
	return r.Keyer.DocumentKey(docHash, descHash, opts.keyOpts(job.Name)), true
}

// lookup returns the cached variants for key when every written file still
// exists at the path document's outputs are expected at.
func (r *Runner) lookup(ctx context.Context, key, document, outputDir string) ([]VariantResult, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		return nil, false
	}
	var cached []cachedVariant
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false
	}

	out := make([]VariantResult, 0, len(cached))
	for _, c := range cached {
		vr := VariantResult{
			Name:    c.Name,
			YAnchor: c.YAnchor,
			Layers:  c.Layers,
			Missing: c.Missing,
			Size:    c.Size,
		}
		if c.Empty {
			vr.Err = errors.New(errors.ErrCodeEmptyVariant, "zero layers for %q", c.Name)
		} else {
			if !samePath(c.Path, OutputPath(outputDir, document, c.Name)) {
				return nil, false
			}
			if _, err := os.Stat(c.Path); err != nil {
				return nil, false
			}
			vr.Path = c.Path
			vr.File = filepath.Base(c.Path)
		}
		out = append(out, vr)
	}
	return out, true
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func (r *Runner) store(ctx context.Context, key string, variants []VariantResult, logger *log.Logger) {
	cached := make([]cachedVariant, len(variants))
	for i, v := range variants {
		cached[i] = cachedVariant{
			Name:    v.Name,
			Path:    v.Path,
			YAnchor: v.YAnchor,
			Layers:  v.Layers,
			Missing: v.Missing,
			Size:    v.Size,
			Empty:   v.Empty(),
		}
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLDocument); err != nil {
		logger.Debug("cache write failed", "err", err)
	}
}

// =============================================================================
// Manifest and stats
// =============================================================================

func (r *Runner) writeManifest(path string, docs []DocumentResult, opts Options) error {
	m := manifest.New(opts.ImagePrefix, opts.Now)
	for _, d := range docs {
		for _, v := range d.Written() {
			m.Add(manifest.Entry{Document: d.Name, Variant: v.Name, File: v.File, YAnchor: v.YAnchor})
		}
	}
	if err := m.Save(path); err != nil {
		return err
	}
	r.Logger.Info("wrote manifest", "file", path, "images", m.Len())
	return nil
}

func summarize(docs []DocumentResult) Stats {
	var s Stats
	s.Documents = len(docs)
	for _, d := range docs {
		switch {
		case d.Missing():
			s.Missing++
		case d.failure() != nil:
			s.Failed++
		case d.Cached:
			s.Cached++
		default:
			s.Rendered++
		}
		for _, v := range d.Variants {
			if v.Path != "" {
				s.Written++
			}
			if v.Empty() {
				s.Skipped++
			}
		}
	}
	return s
}
