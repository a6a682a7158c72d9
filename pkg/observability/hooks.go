// Package observability provides hooks for progress reporting and metrics.
//
// The pipeline calls [Hooks] as documents and variants complete. Consumers
// pass an implementation to the runner explicitly; there is no global
// registry, so two runners in one process never share hooks.
//
// # Usage
//
//	runner.Hooks = observability.Funcs{
//	    VariantComplete: func(ctx context.Context, doc, variant, path string, d time.Duration, err error) {
//	        if err == nil {
//	            fmt.Println("wrote", path)
//	        }
//	    },
//	}
//
// When documents are processed concurrently, hooks are called from several
// goroutines and implementations must be safe for concurrent use.
package observability

import (
	"context"
	"time"
)

// Hooks receives events from the render pipeline.
type Hooks interface {
	// OnDocumentStart is called before a document is examined.
	OnDocumentStart(ctx context.Context, document string)
	// OnDocumentComplete is called once per document. err is non-nil when
	// the document failed as a whole.
	OnDocumentComplete(ctx context.Context, document string, written int, duration time.Duration, err error)
	// OnVariantComplete is called once per attempted variant. path is empty
	// when nothing was written.
	OnVariantComplete(ctx context.Context, document, variant, path string, duration time.Duration, err error)
	// OnCacheHit is called when a document is skipped because its outputs
	// are up to date.
	OnCacheHit(ctx context.Context, document string)
}

// NoopHooks is a no-op implementation of Hooks.
type NoopHooks struct{}

func (NoopHooks) OnDocumentStart(context.Context, string)                                {}
func (NoopHooks) OnDocumentComplete(context.Context, string, int, time.Duration, error) {}
func (NoopHooks) OnVariantComplete(context.Context, string, string, string, time.Duration, error) {
}
func (NoopHooks) OnCacheHit(context.Context, string) {}

// Funcs implements Hooks with optional callbacks. Nil fields are skipped.
type Funcs struct {
	DocumentStart    func(ctx context.Context, document string)
	DocumentComplete func(ctx context.Context, document string, written int, duration time.Duration, err error)
	VariantComplete  func(ctx context.Context, document, variant, path string, duration time.Duration, err error)
	CacheHit         func(ctx context.Context, document string)
}

// OnDocumentStart calls f.DocumentStart if set.
func (f Funcs) OnDocumentStart(ctx context.Context, document string) {
	if f.DocumentStart != nil {
		f.DocumentStart(ctx, document)
	}
}

// OnDocumentComplete calls f.DocumentComplete if set.
func (f Funcs) OnDocumentComplete(ctx context.Context, document string, written int, duration time.Duration, err error) {
	if f.DocumentComplete != nil {
		f.DocumentComplete(ctx, document, written, duration, err)
	}
}

// OnVariantComplete calls f.VariantComplete if set.
func (f Funcs) OnVariantComplete(ctx context.Context, document, variant, path string, duration time.Duration, err error) {
	if f.VariantComplete != nil {
		f.VariantComplete(ctx, document, variant, path, duration, err)
	}
}

// OnCacheHit calls f.CacheHit if set.
func (f Funcs) OnCacheHit(ctx context.Context, document string) {
	if f.CacheHit != nil {
		f.CacheHit(ctx, document)
	}
}

var (
	_ Hooks = NoopHooks{}
	_ Hooks = Funcs{}
)
