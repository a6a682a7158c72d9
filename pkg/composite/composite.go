package composite

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

// maxAlpha is the full-scale alpha value at 16 bits per channel.
const maxAlpha = 0xffff

// Result is one flattened variant.
type Result struct {
	// Image is the freshly allocated canvas. Its bounds start at (0,0).
	Image draw.Image
	// Origin is the canvas top-left in document coordinates.
	Origin image.Point
	// Mode is the pixel mode shared by every composited layer.
	Mode Mode
}

// Bounds returns the canvas box in document coordinates.
func (r *Result) Bounds() image.Rectangle {
	return r.Image.Bounds().Add(r.Origin)
}

// Composite pastes layers onto a new canvas, painting them in slice order:
// layers[0] ends up at the bottom. The canvas is sized by [Reduce] under the
// given policy and takes its mode from the first layer.
//
// Errors:
//   - EMPTY_VARIANT when layers is empty
//   - MODE_MISMATCH when a layer's mode is unsupported or differs from the first
//   - INTERNAL_ERROR when a layer falls outside the computed canvas
//
// The input layers are never modified and repeated calls with the same input
// produce identical pixels.
func Composite(layers []Layer, policy Bounds) (*Result, error) {
	if len(layers) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyVariant, "no layers to composite")
	}

	mode, err := ModeOf(layers[0].Pixels)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeModeMismatch, err, "layer %q", layers[0].Name)
	}
	for _, l := range layers[1:] {
		m, err := ModeOf(l.Pixels)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeModeMismatch, err, "layer %q", l.Name)
		}
		if m != mode {
			return nil, errors.New(errors.ErrCodeModeMismatch,
				"layer %q is %s but %q is %s", l.Name, m, layers[0].Name, mode)
		}
	}

	box, err := Reduce(layerBoxes(layers), policy)
	if err != nil {
		return nil, err
	}

	dst := newCanvas(mode, image.Rect(0, 0, box.Dx(), box.Dy()))
	for _, l := range layers {
		if err := paste(dst, l, box.Min); err != nil {
			return nil, err
		}
	}

	return &Result{Image: dst.img(), Origin: box.Min, Mode: mode}, nil
}

// paste blends l onto dst at l.Box.Min - origin.
func paste(dst canvas, l Layer, origin image.Point) error {
	target := l.Box.Canon().Sub(origin)
	if !target.In(dst.img().Bounds()) {
		return errors.New(errors.ErrCodeInternal,
			"layer %q box %s outside canvas %s", l.Name, describeBox(l.Box), describeBox(dst.img().Bounds().Add(origin)))
	}

	src := l.Pixels.Bounds()
	w := min(target.Dx(), src.Dx())
	h := min(target.Dy(), src.Dy())

	for y := range h {
		for x := range w {
			s := straightAt(l.Pixels, src.Min.X+x, src.Min.Y+y)
			if s.A == 0 {
				continue
			}
			dx, dy := target.Min.X+x, target.Min.Y+y
			if s.A == maxAlpha {
				dst.set(dx, dy, s)
				continue
			}
			dst.set(dx, dy, over(s, dst.at(dx, dy)))
		}
	}
	return nil
}

// over blends straight-alpha src over straight-alpha dst.
func over(s, d color.NRGBA64) color.NRGBA64 {
	sa, da := uint64(s.A), uint64(d.A)
	// Output alpha scaled by maxAlpha to keep the channel maths exact.
	outA := sa*maxAlpha + da*(maxAlpha-sa)
	if outA == 0 {
		return color.NRGBA64{}
	}
	dw := da * (maxAlpha - sa)
	blend := func(sc, dc uint16) uint16 {
		return uint16((uint64(sc)*sa*maxAlpha + uint64(dc)*dw + outA/2) / outA)
	}
	return color.NRGBA64{
		R: blend(s.R, d.R),
		G: blend(s.G, d.G),
		B: blend(s.B, d.B),
		A: uint16((outA + maxAlpha/2) / maxAlpha),
	}
}
