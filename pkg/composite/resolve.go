package composite

import (
	"slices"
	"strings"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

// ResolveOptions controls how requested names are matched to layers.
type ResolveOptions struct {
	// AllowDuplicates keeps every layer matching a requested name instead of
	// failing when a name is shared by several layers.
	AllowDuplicates bool
}

// Resolution is the outcome of matching a variant's layer names.
type Resolution struct {
	// Layers are the matched layers, back-to-front, ready for [Composite].
	Layers []Layer
	// Missing lists requested names that matched no layer, in request order.
	Missing []string
}

// Resolve selects the layers of doc whose names appear in names.
//
// doc is in document stack order (top-to-bottom). Matching keeps that order,
// not the order of names, and the result is reversed so the topmost layer is
// painted last. Requested names without a match are dropped and reported in
// Resolution.Missing.
//
// Errors:
//   - EMPTY_VARIANT when names is empty or nothing matches
//   - DUPLICATE_LAYER when a requested name matches several layers and
//     opts.AllowDuplicates is false
func Resolve(doc []Layer, names []string, opts ResolveOptions) (Resolution, error) {
	if len(names) == 0 {
		return Resolution{}, errors.New(errors.ErrCodeEmptyVariant, "no layers requested")
	}

	wanted := make(map[string]int, len(names))
	for _, n := range names {
		wanted[n] = 0
	}

	var layers []Layer
	for _, l := range doc {
		count, ok := wanted[l.Name]
		if !ok {
			continue
		}
		if count > 0 && !opts.AllowDuplicates {
			return Resolution{}, errors.New(errors.ErrCodeDuplicateLayer,
				"layer name %q matches more than one layer", l.Name)
		}
		wanted[l.Name] = count + 1
		layers = append(layers, l)
	}

	var missing []string
	for _, n := range names {
		if wanted[n] == 0 && !slices.Contains(missing, n) {
			missing = append(missing, n)
		}
	}

	if len(layers) == 0 {
		return Resolution{Missing: missing}, errors.New(errors.ErrCodeEmptyVariant,
			"none of the requested layers exist: %s", strings.Join(missing, ", "))
	}

	slices.Reverse(layers)
	return Resolution{Layers: layers, Missing: missing}, nil
}
