package composite

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

// Layer is one named, independently positioned pixel buffer of a document.
//
// Box is in document coordinates and may extend left of or above the
// document origin. Pixels cover exactly Box; Pixels.Bounds() may start at
// the origin or at Box.Min, reads are relative to Pixels.Bounds().Min.
// Layers are read-only to this package.
type Layer struct {
	Name   string
	Box    image.Rectangle
	Pixels image.Image
}

// String returns a short human-readable description for logs.
func (l Layer) String() string {
	return fmt.Sprintf("%s%v", l.Name, l.Box)
}

// Mode is the pixel format of a layer or canvas.
type Mode int

const (
	// ModeUnknown marks a color model this package does not composite.
	ModeUnknown Mode = iota
	// ModeRGBA8 is 8 bits per channel RGBA.
	ModeRGBA8
	// ModeRGBA16 is 16 bits per channel RGBA.
	ModeRGBA16
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRGBA8:
		return "RGBA8"
	case ModeRGBA16:
		return "RGBA16"
	}
	return "unknown"
}

// ModeOf reports the pixel mode of img. Grayscale, paletted and other models
// are rejected rather than converted.
func ModeOf(img image.Image) (Mode, error) {
	if img == nil {
		return ModeUnknown, errors.New(errors.ErrCodeModeMismatch, "layer has no pixels")
	}
	switch img.ColorModel() {
	case color.NRGBAModel, color.RGBAModel:
		return ModeRGBA8, nil
	case color.NRGBA64Model, color.RGBA64Model:
		return ModeRGBA16, nil
	}
	return ModeUnknown, errors.New(errors.ErrCodeModeMismatch, "unsupported color model %T", img.ColorModel())
}

// newCanvas allocates a transparent canvas of the given mode.
func newCanvas(m Mode, r image.Rectangle) canvas {
	if m == ModeRGBA16 {
		return canvas16{image.NewNRGBA64(r)}
	}
	return canvas8{image.NewNRGBA(r)}
}

// straightAt reads the non-premultiplied value of img at (x, y) widened to
// 16 bits per channel. 8-bit values widen by v*0x101, so narrowing with >>8
// restores them exactly.
func straightAt(img image.Image, x, y int) color.NRGBA64 {
	switch src := img.(type) {
	case *image.NRGBA:
		return widen(src.NRGBAAt(x, y))
	case *image.NRGBA64:
		return src.NRGBA64At(x, y)
	}
	switch c := img.At(x, y).(type) {
	case color.NRGBA:
		return widen(c)
	case color.NRGBA64:
		return c
	}
	return color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
}

func widen(c color.NRGBA) color.NRGBA64 {
	return color.NRGBA64{
		R: uint16(c.R) * 0x101,
		G: uint16(c.G) * 0x101,
		B: uint16(c.B) * 0x101,
		A: uint16(c.A) * 0x101,
	}
}

// canvas is the write side of compositing, specialised per mode.
type canvas interface {
	img() draw.Image
	at(x, y int) color.NRGBA64
	set(x, y int, c color.NRGBA64)
}

type canvas8 struct{ *image.NRGBA }

func (c canvas8) img() draw.Image { return c.NRGBA }

func (c canvas8) at(x, y int) color.NRGBA64 { return widen(c.NRGBAAt(x, y)) }

func (c canvas8) set(x, y int, v color.NRGBA64) {
	c.SetNRGBA(x, y, color.NRGBA{
		R: narrow(v.R),
		G: narrow(v.G),
		B: narrow(v.B),
		A: narrow(v.A),
	})
}

// narrow rounds a 16-bit channel to the nearest 8-bit value. It inverts
// widen exactly.
func narrow(v uint16) uint8 {
	return uint8((uint32(v)*0xff + 0x7fff) / 0xffff)
}

type canvas16 struct{ *image.NRGBA64 }

func (c canvas16) img() draw.Image { return c.NRGBA64 }

func (c canvas16) at(x, y int) color.NRGBA64 { return c.NRGBA64At(x, y) }

func (c canvas16) set(x, y int, v color.NRGBA64) { c.SetNRGBA64(x, y, v) }
