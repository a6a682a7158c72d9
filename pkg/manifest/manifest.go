// Package manifest writes the Ren'Py script that declares rendered variants.
//
// Every written variant becomes an image statement pointing at its PNG:
//
//	# This file was autogenerated on Fri, Oct 16 2026, 14:02 by psdemiurge. Manual changes will be lost.
//	# alice
//	image alice happy = Image("img/characters/alice/alice_happy.png", yanchor=0.95)
package manifest

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/psdemiurge/pkg/imageio"
)

// TimeFormat is the layout of the timestamp in the header line.
const TimeFormat = "Mon, Jan 02 2006, 15:04"

// Entry is one written variant.
type Entry struct {
	Document string
	Variant  string
	File     string // base name of the PNG, e.g. "alice_happy.png"
	YAnchor  float64
}

// Manifest collects entries and renders them in a stable order.
type Manifest struct {
	// Prefix is prepended to "<document>/<file>" in image paths.
	Prefix string
	// Generated is stamped into the header.
	Generated time.Time

	entries []Entry
}

// New returns an empty manifest.
func New(prefix string, generated time.Time) *Manifest {
	return &Manifest{Prefix: prefix, Generated: generated}
}

// Add records entries.
func (m *Manifest) Add(entries ...Entry) {
	m.entries = append(m.entries, entries...)
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// WriteTo renders the script to w, grouping entries by document. Documents
// and variants are sorted by name.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	entries := slices.Clone(m.entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := strings.Compare(a.Document, b.Document); c != 0 {
			return c
		}
		return strings.Compare(a.Variant, b.Variant)
	})

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# This file was autogenerated on %s by psdemiurge. Manual changes will be lost.\n",
		m.Generated.Format(TimeFormat))

	current := ""
	for i, e := range entries {
		if i == 0 || e.Document != current {
			current = e.Document
			fmt.Fprintf(&buf, "# %s\n", current)
		}
		fmt.Fprintf(&buf, "image %s %s = Image(%q, yanchor=%.2f)\n",
			e.Document, e.Variant, path.Join(m.Prefix, e.Document, e.File), e.YAnchor)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Save writes the script atomically to filename.
func (m *Manifest) Save(filename string) error {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return err
	}
	return imageio.WriteFile(filename, buf.Bytes())
}
