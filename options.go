package fshc

// Option configures the compiler.
type Option func(*Options)

// Options holds all configuration for one compilation run.
type Options struct {
	// Canonical is the base URL used to compute canonical URLs for
	// authored entities (configured base + resource type + id).
	Canonical string

	// Version is the FHIR version the tank targets.
	Version FHIRVersion

	// StrictMode treats warnings as errors when reporting success.
	StrictMode bool

	// EmitDifferential includes a differential element list on exported
	// artifacts in addition to the snapshot.
	EmitDifferential bool

	// DefinitionCacheSize bounds the external-definition resolution cache.
	DefinitionCacheSize int

	// WarnOnAmbiguousInstance emits a warning when an instance's rule
	// content satisfies more than one masquerading-kind predicate.
	WarnOnAmbiguousInstance bool
}

// DefaultCanonical is used when no canonical base is configured.
const DefaultCanonical = "http://example.org/fhir"

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Canonical:               DefaultCanonical,
		Version:                 R4,
		StrictMode:              false,
		EmitDifferential:        true,
		DefinitionCacheSize:     1000,
		WarnOnAmbiguousInstance: true,
	}
}

// WithCanonical sets the canonical base URL.
func WithCanonical(base string) Option {
	return func(o *Options) {
		o.Canonical = base
	}
}

// WithVersion sets the target FHIR version.
func WithVersion(v FHIRVersion) Option {
	return func(o *Options) {
		o.Version = v
	}
}

// WithStrictMode treats warnings as errors.
func WithStrictMode(enable bool) Option {
	return func(o *Options) {
		o.StrictMode = enable
	}
}

// WithDifferential controls differential emission on artifacts.
func WithDifferential(enable bool) Option {
	return func(o *Options) {
		o.EmitDifferential = enable
	}
}

// WithDefinitionCacheSize sets the external-definition cache bound.
func WithDefinitionCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.DefinitionCacheSize = size
		}
	}
}

// WithAmbiguousInstanceWarnings controls masquerading-ambiguity warnings.
func WithAmbiguousInstanceWarnings(enable bool) Option {
	return func(o *Options) {
		o.WarnOnAmbiguousInstance = enable
	}
}
