// Package pkg provides the libraries behind psdemiurge.
//
// # Overview
//
// psdemiurge turns layered documents into flattened sprite images: every
// named mood of a document's descriptor selects a set of layers, which are
// composited onto one transparent canvas and written as a PNG. The pkg
// directory is organized into three areas:
//
//  1. [composite] - The engine: bounding-box reduction, alpha compositing and
//     layer selection. Pure functions with no I/O.
//  2. [source], [descriptor], [config] - Inputs: layered documents, the
//     per-document mood descriptors, and the tool configuration.
//  3. [pipeline] - Orchestration of a whole folder, backed by [imageio] for
//     PNG output, [manifest] for Ren'Py scripts and [cache] for skipping
//     unchanged documents.
//
// # Architecture
//
// The data flow of one document:
//
//	alice.psd + alice.json
//	         ↓
//	    [source/psd] decode layers (topmost first)
//	         ↓
//	    [composite.Resolve] pick a mood's layers (back to front)
//	         ↓
//	    [composite.Composite] paint them onto a shared canvas
//	         ↓
//	    [imageio] scale and write out/alice/alice_<mood>.png
//
// # Quick Start
//
// Composite two layers directly:
//
//	import "github.com/matzehuels/psdemiurge/pkg/composite"
//
//	res, err := composite.Composite([]composite.Layer{body, hat}, composite.BoundsOrigin)
//	if err != nil {
//	    return err
//	}
//	// res.Image covers every layer and the document origin.
//
// Render a whole folder:
//
//	import (
//	    "github.com/matzehuels/psdemiurge/pkg/pipeline"
//	    "github.com/matzehuels/psdemiurge/pkg/source/psd"
//	)
//
//	runner := pipeline.NewRunner(psd.New(), nil, logger)
//	result, err := runner.Run(ctx, pipeline.Options{Dir: "art/characters"})
package pkg
