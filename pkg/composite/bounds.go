package composite

import (
	"fmt"
	"image"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

// Bounds selects how [Reduce] seeds the union of layer boxes.
type Bounds int

const (
	// BoundsOrigin seeds the union with the empty box at (0,0), so the
	// canvas always contains the document origin.
	BoundsOrigin Bounds = iota
	// BoundsTight seeds the union with the first box, giving the smallest
	// box that encloses the layers alone.
	BoundsTight
)

// String returns the policy name accepted by [ParseBounds].
func (b Bounds) String() string {
	if b == BoundsTight {
		return "tight"
	}
	return "origin"
}

// ParseBounds parses "origin" or "tight". The empty string means origin.
func ParseBounds(s string) (Bounds, error) {
	switch s {
	case "", "origin":
		return BoundsOrigin, nil
	case "tight":
		return BoundsTight, nil
	}
	return BoundsOrigin, errors.New(errors.ErrCodeInvalidConfig, "invalid bounds %q (must be 'origin' or 'tight')", s)
}

// Reduce returns the smallest axis-aligned box enclosing every box under the
// given policy. Empty input is rejected with EMPTY_VARIANT rather than
// returning a degenerate canvas.
//
// The result is independent of the order of boxes.
func Reduce(boxes []image.Rectangle, policy Bounds) (image.Rectangle, error) {
	if len(boxes) == 0 {
		return image.Rectangle{}, errors.New(errors.ErrCodeEmptyVariant, "no layer boxes to reduce")
	}

	// image.Rectangle.Union skips empty rectangles, which would drop both the
	// origin seed and zero-sized layers, so the accumulation is done by hand.
	var acc image.Rectangle
	rest := boxes
	if policy == BoundsTight {
		acc = boxes[0].Canon()
		rest = boxes[1:]
	}
	for _, b := range rest {
		b = b.Canon()
		acc.Min.X = min(acc.Min.X, b.Min.X)
		acc.Min.Y = min(acc.Min.Y, b.Min.Y)
		acc.Max.X = max(acc.Max.X, b.Max.X)
		acc.Max.Y = max(acc.Max.Y, b.Max.Y)
	}
	return acc, nil
}

// Size returns the width and height of the reduced box.
func Size(boxes []image.Rectangle, policy Bounds) (width, height int, err error) {
	r, err := Reduce(boxes, policy)
	if err != nil {
		return 0, 0, err
	}
	return r.Dx(), r.Dy(), nil
}

// layerBoxes collects the boxes of layers in order.
func layerBoxes(layers []Layer) []image.Rectangle {
	boxes := make([]image.Rectangle, len(layers))
	for i, l := range layers {
		boxes[i] = l.Box
	}
	return boxes
}

func describeBox(r image.Rectangle) string {
	return fmt.Sprintf("(%d,%d,%d,%d)", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
}
