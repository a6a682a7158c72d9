// Package composite flattens named layers of a layered document into a single
// raster image.
//
// # Overview
//
// A layered document is decoded elsewhere into an ordered list of [Layer]
// values, each carrying its own pixels and its bounding box in document
// coordinates. This package does three things with that list:
//
//   - [Resolve] picks the layers a variant asks for and orders them
//     back-to-front for painting.
//   - [Reduce] computes the canvas box enclosing every selected layer.
//   - [Composite] allocates a fresh canvas and pastes each layer onto it at
//     its offset, using straight-alpha "over".
//
// The package has no logging and no global state. Results and errors are
// returned by value so callers decide how to report them.
//
// # Stack Order
//
// Documents list layers top-to-bottom: the first layer in the slice is the
// one drawn on top. [Resolve] keeps that order while filtering and then
// reverses it, so the slice handed to [Composite] is back-to-front and the
// top layer is painted last.
//
// # Bounds Policy
//
// Two canvas policies exist. [BoundsOrigin] seeds the union with the empty
// box at (0,0), so the canvas always contains the document origin even when
// every layer lies away from it. [BoundsTight] seeds the union with the first
// layer's box and yields the tightest canvas. Both are order-independent.
//
//	layers, err := composite.Resolve(doc.Layers, []string{"body", "hat"}, composite.ResolveOptions{})
//	if err != nil {
//	    return err
//	}
//	res, err := composite.Composite(layers.Layers, composite.BoundsOrigin)
//	if err != nil {
//	    return err
//	}
//	png.Encode(w, res.Image)
//
// # Blending
//
// Pixels are treated as non-premultiplied (straight) RGBA. For a source
// pixel with alpha sa over a canvas pixel with alpha da:
//
//	outA = sa + da*(1-sa)
//	outC = (sc*sa + dc*da*(1-sa)) / outA
//
// An opaque source pixel replaces the canvas pixel and a transparent one
// leaves it alone. Pasting onto the empty canvas copies the source exactly,
// so a single-layer composite reproduces that layer's pixels bit for bit.
//
// Each paste is weighted by the source layer's own alpha. The canvas alpha
// only weights the colour already on the canvas, which is what keeps
// translucent pixels on an empty canvas unchanged; a plain lerp of all four
// channels by source alpha would fade them toward transparent black.
//
// Blending runs in 16-bit precision. On 8-bit canvases every result is
// rounded to the nearest 8-bit value.
package composite
