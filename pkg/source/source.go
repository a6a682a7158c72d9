// Package source defines how layered documents are loaded for compositing.
//
// A [Source] decodes one file into a [Document] whose layers are listed in
// stack order, topmost first. Concrete decoders live in subpackages; see
// package psd for Photoshop documents.
package source

import (
	"context"
	"image"
	"path/filepath"
	"strings"

	"github.com/matzehuels/psdemiurge/pkg/composite"
)

// Document is one decoded layered file.
type Document struct {
	// Name is the file's base name without extension, e.g. "alice".
	Name string
	// Path is the file the document was decoded from.
	Path string
	// Size is the canvas size declared by the document.
	Size image.Point
	// Layers are the document's pixel layers, topmost first.
	Layers []composite.Layer
}

// Source decodes layered documents.
type Source interface {
	// Ext returns the file extension this source reads, including the dot.
	Ext() string
	// Open decodes the document at path. Implementations release every file
	// handle before returning, on success and on failure.
	Open(ctx context.Context, path string) (*Document, error)
}

// Func adapts a function to the Source interface.
type Func struct {
	Extension string
	Decode    func(ctx context.Context, path string) (*Document, error)
}

// Ext returns f.Extension.
func (f Func) Ext() string { return f.Extension }

// Open calls f.Decode.
func (f Func) Open(ctx context.Context, path string) (*Document, error) {
	return f.Decode(ctx, path)
}

// BaseName strips the directory and extension from path.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
