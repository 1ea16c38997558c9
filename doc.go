// Package fshc is the semantic core of a FHIR Shorthand (FSH) compiler.
//
// It turns a tank of parsed FSH documents into canonical StructureDefinition
// artifacts. Three pieces do the heavy lifting:
//
//   - fishing: cross-document resolution of names, ids, aliases, and
//     canonical URLs to authored entities, including instances that
//     masquerade as first-class definitions.
//   - constrain: narrowing of polymorphic, reference, and canonical element
//     type lists against caller-supplied constraints, enforcing FHIR's
//     specialization and profiling rules.
//   - export: demand-driven, dependency-ordered emission of authored
//     structures with per-entity failure isolation.
//
// The root package holds the shared diagnostic taxonomy (Issue), the
// per-run Result, Options, and Metrics. The engine package wires everything
// together:
//
//	comp, err := engine.New(tank, defs, fshc.WithCanonical("http://example.org/fhir"))
//	if err != nil {
//	    return err
//	}
//	result := comp.Compile()
//	for _, sd := range result.Artifacts {
//	    // serialize sd
//	}
//
// The loader package resolves external FHIR definitions from disk, the
// config package reads sushi-config.yaml, and cmd/fshc wraps the whole
// pipeline in a CLI. Parsing FSH source text into a tank is the callers'
// concern; fsh.DecodeTank accepts the parsed-tank JSON interchange form.
package fshc
