// Package psd reads Photoshop documents through github.com/oov/psd.
//
// Group folders are flattened, so a layer nested in a group is addressed by
// its own name. Layers without pixels (empty layers, adjustment layers,
// group markers) are skipped. Visibility, opacity and blend modes are
// ignored: every pixel layer is available to every variant.
package psd

import (
	"context"
	"image"
	"image/color"
	"os"
	"slices"

	"github.com/oov/psd"

	"github.com/matzehuels/psdemiurge/pkg/composite"
	"github.com/matzehuels/psdemiurge/pkg/errors"
	"github.com/matzehuels/psdemiurge/pkg/source"
)

// Ext is the extension of Photoshop documents.
const Ext = ".psd"

// Source decodes .psd files.
type Source struct{}

// New returns a PSD source.
func New() *Source {
	return &Source{}
}

// Ext returns ".psd".
func (s *Source) Ext() string { return Ext }

// Open decodes the document at path.
func (s *Source) Open(ctx context.Context, path string) (*source.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeMissingDocument, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeIO, err, "open %s", path)
	}
	defer f.Close()

	img, _, err := psd.Decode(f, &psd.DecodeOptions{SkipMergedImage: true})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", path)
	}

	wide, err := isWide(img.Config.Depth)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "decode %s", path)
	}

	return &source.Document{
		Name:   source.BaseName(path),
		Path:   path,
		Size:   img.Config.Rect.Size(),
		Layers: convert(flatten(img.Layer), wide),
	}, nil
}

// isWide reports whether a document of the given bit depth needs 16-bit
// buffers.
func isWide(depth int) (bool, error) {
	switch depth {
	case 1, 8:
		return false, nil
	case 16:
		return true, nil
	}
	return false, errors.New(errors.ErrCodeModeMismatch, "unsupported bit depth %d", depth)
}

// flatten returns every pixel layer of the tree, topmost first.
//
// Photoshop stores layer records bottom to top and the decoder numbers them
// in that order, so sorting by descending SeqID yields stack order no matter
// how groups nest.
func flatten(layers []psd.Layer) []*psd.Layer {
	var out []*psd.Layer
	var walk func([]psd.Layer)
	walk = func(ls []psd.Layer) {
		for i := range ls {
			l := &ls[i]
			if len(l.Layer) > 0 {
				walk(l.Layer)
				continue
			}
			if l.Picker == nil || l.Rect.Empty() {
				continue
			}
			out = append(out, l)
		}
	}
	walk(layers)

	slices.SortStableFunc(out, func(a, b *psd.Layer) int {
		return b.SeqID - a.SeqID
	})
	return out
}

// convert copies each layer's pixels into a buffer the compositor reads.
func convert(layers []*psd.Layer, wide bool) []composite.Layer {
	out := make([]composite.Layer, len(layers))
	for i, l := range layers {
		name := l.UnicodeName
		if name == "" {
			name = l.Name
		}
		out[i] = composite.Layer{
			Name:   name,
			Box:    l.Rect,
			Pixels: copyStraight(l.Picker, l.Rect, wide),
		}
	}
	return out
}

// copyStraight copies r of src into a non-premultiplied buffer whose bounds
// start at the origin. Straight colors are copied as-is; draw.Draw would
// round-trip them through premultiplied alpha and lose precision on faint
// pixels.
func copyStraight(src image.Image, r image.Rectangle, wide bool) image.Image {
	size := image.Rect(0, 0, r.Dx(), r.Dy())
	if wide {
		dst := image.NewNRGBA64(size)
		for y := range r.Dy() {
			for x := range r.Dx() {
				dst.SetNRGBA64(x, y, straight64(src.At(r.Min.X+x, r.Min.Y+y)))
			}
		}
		return dst
	}

	dst := image.NewNRGBA(size)
	for y := range r.Dy() {
		for x := range r.Dx() {
			dst.SetNRGBA(x, y, straight8(src.At(r.Min.X+x, r.Min.Y+y)))
		}
	}
	return dst
}

func straight8(c color.Color) color.NRGBA {
	if n, ok := c.(color.NRGBA); ok {
		return n
	}
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

func straight64(c color.Color) color.NRGBA64 {
	switch n := c.(type) {
	case color.NRGBA64:
		return n
	case color.NRGBA:
		return color.NRGBA64{
			R: uint16(n.R) * 0x101,
			G: uint16(n.G) * 0x101,
			B: uint16(n.B) * 0x101,
			A: uint16(n.A) * 0x101,
		}
	}
	return color.NRGBA64Model.Convert(c).(color.NRGBA64)
}

var _ source.Source = (*Source)(nil)
