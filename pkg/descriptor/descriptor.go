// Package descriptor loads per-document JSON descriptors.
//
// A descriptor sits next to its layered document ("alice.json" for
// "alice.psd") and names the layers of every output variant ("mood"):
//
//	{
//	    "moods": {
//	        "happy": ["body", "eyes_happy", "mouth_smile"],
//	        "sad":   ["body", "eyes_sad", "mouth_frown"]
//	    },
//	    "yanchor": 0.95,
//	    "scale": 0.5
//	}
//
// The order of layer names inside a mood does not affect painting; the
// document's own stack order does. yanchor is carried opaquely into the
// generated manifest. scale is optional and shrinks every output of the
// document.
package descriptor

import (
	"bytes"
	"encoding/json"
	"os"
	"slices"
	"strings"

	"github.com/matzehuels/psdemiurge/pkg/errors"
)

// Ext is the file extension of descriptors.
const Ext = ".json"

// Descriptor is a parsed per-document configuration.
type Descriptor struct {
	Moods   map[string][]string `json:"moods"`
	YAnchor float64             `json:"yanchor"`
	Scale   float64             `json:"scale,omitempty"`
}

// Variant is one named output of a document.
type Variant struct {
	Name    string
	Layers  []string
	YAnchor float64
}

// Load reads and parses the descriptor at path.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read descriptor %s", path)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "descriptor %s", path)
	}
	return d, nil
}

// Parse decodes and validates descriptor JSON.
func Parse(data []byte) (*Descriptor, error) {
	var raw struct {
		Moods   *map[string][]string `json:"moods"`
		YAnchor *float64             `json:"yanchor"`
		Scale   *float64             `json:"scale"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid JSON")
	}
	if raw.Moods == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, `missing "moods" field`)
	}

	d := &Descriptor{Moods: *raw.Moods, Scale: 1}
	if raw.YAnchor != nil {
		d.YAnchor = *raw.YAnchor
	}
	if raw.Scale != nil {
		d.Scale = *raw.Scale
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks variant names and the scale factor. Variants with no
// layers are valid here; they are rejected when composited.
func (d *Descriptor) Validate() error {
	for name := range d.Moods {
		if err := errors.ValidateName(name); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid mood name")
		}
	}
	if d.Scale <= 0 || d.Scale > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "scale %v out of range (0, 1]", d.Scale)
	}
	return nil
}

// Variants returns every mood sorted by name.
func (d *Descriptor) Variants() []Variant {
	out := make([]Variant, 0, len(d.Moods))
	for name, layers := range d.Moods {
		out = append(out, Variant{
			Name:    name,
			Layers:  slices.Clone(layers),
			YAnchor: d.YAnchor,
		})
	}
	slices.SortFunc(out, func(a, b Variant) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
