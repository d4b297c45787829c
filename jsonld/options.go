package jsonld

import (
	"log/slog"

	"github.com/piprate/json-gold/ld"
)

// Options configures the engine components. It is built once at startup and
// shared by reference; components never modify it.
type Options struct {
	// Loader dereferences context IRIs. Nil means a static loader with no
	// injected documents.
	Loader ld.DocumentLoader

	// Strict rejects documents with members the context does not define.
	Strict bool

	// PersistContext records the context IRI of written resources and
	// compacts read resources against it.
	PersistContext bool

	// LimitCompaction drops compacted members the context does not declare.
	LimitCompaction bool

	Logger  *slog.Logger
	Metrics *Metrics
}

func (o *Options) loader() ld.DocumentLoader {
	if o == nil || o.Loader == nil {
		return NewStaticLoader()
	}
	return o.Loader
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Options) metrics() *Metrics {
	if o == nil {
		return nil
	}
	return o.Metrics
}
