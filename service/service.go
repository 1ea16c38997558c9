// Package service defines small, composable interfaces and shared models for
// the compiler core. Following Go's philosophy of small interfaces, each
// interface has 1-2 methods.
package service

// StructureDefinition is the export artifact produced for an authored
// profile, extension, logical model, or resource. It is a simplified
// internal representation of a FHIR StructureDefinition.
type StructureDefinition struct {
	ID             string              `json:"id,omitempty"`
	URL            string              `json:"url,omitempty"`
	Name           string              `json:"name,omitempty"`
	Title          string              `json:"title,omitempty"`
	Type           string              `json:"type,omitempty"`
	Kind           string              `json:"kind,omitempty"`
	Abstract       bool                `json:"abstract"`
	BaseDefinition string              `json:"baseDefinition,omitempty"`
	Derivation     string              `json:"derivation,omitempty"`
	FHIRVersion    string              `json:"fhirVersion,omitempty"`
	Context        []string            `json:"context,omitempty"` // Context paths where an extension can be used
	Snapshot       []ElementDefinition `json:"snapshot,omitempty"`
	Differential   []ElementDefinition `json:"differential,omitempty"`
}

// ElementDefinition represents one element of a materialized element list.
type ElementDefinition struct {
	ID               string       `json:"id,omitempty"`
	Path             string       `json:"path"`
	SliceName        string       `json:"sliceName,omitempty"`
	Short            string       `json:"short,omitempty"`
	Definition       string       `json:"definition,omitempty"`
	Min              int          `json:"min"`
	Max              string       `json:"max,omitempty"`
	Types            []TypeRef    `json:"type,omitempty"`
	Fixed            any          `json:"fixed,omitempty"`
	Pattern          any          `json:"pattern,omitempty"`
	Binding          *Binding     `json:"binding,omitempty"`
	Constraints      []Constraint `json:"constraint,omitempty"`
	MustSupport      bool         `json:"mustSupport,omitempty"`
	IsModifier       bool         `json:"isModifier,omitempty"`
	IsSummary        bool         `json:"isSummary,omitempty"`
	ContentReference string       `json:"contentReference,omitempty"`
}

// TypeRef is one entry of an element's allowed-type list: a type code plus
// optionally the allowed profile URLs (for direct value types) or target
// URLs (for reference- and canonical-shaped types).
type TypeRef struct {
	Code          string   `json:"code"`
	Profile       []string `json:"profile,omitempty"`
	TargetProfile []string `json:"targetProfile,omitempty"`
}

// Binding represents a terminology binding.
type Binding struct {
	Strength    string `json:"strength,omitempty"`
	ValueSet    string `json:"valueSet,omitempty"`
	Description string `json:"description,omitempty"`
}

// Constraint represents a FHIRPath invariant attached to an element.
type Constraint struct {
	Key        string `json:"key,omitempty"`
	Severity   string `json:"severity,omitempty"`
	Human      string `json:"human,omitempty"`
	Expression string `json:"expression,omitempty"`
	XPath      string `json:"xpath,omitempty"`
	Source     string `json:"source,omitempty"`
}

// Structural kinds reported by the type hierarchy.
const (
	KindPrimitiveType = "primitive-type"
	KindComplexType   = "complex-type"
	KindResource      = "resource"
	KindLogical       = "logical"
)

// TypeRecord is the reduced view of a type returned by the hierarchy.
type TypeRecord struct {
	// Code is the type's code, e.g. "Quantity" or "Patient".
	Code string
	// URL is the type's canonical URL.
	URL string
	// ParentURL is the canonical URL of the type's base definition.
	// Empty for the root of the hierarchy.
	ParentURL string
	// Abstract is true if the type is declared abstract.
	Abstract bool
	// Kind is one of the structural kind constants.
	Kind string
	// Derivation is "specialization" or "constraint" (profile), empty for
	// the hierarchy root.
	Derivation string
}

// TypeResolver is the type hierarchy oracle. Resolve accepts a type code,
// name, or canonical URL (an optional "|version" suffix is ignored) and
// reports whether the type is known.
type TypeResolver interface {
	Resolve(identifier string) (TypeRecord, bool)
}

// SnapshotSource provides materialized element lists for external base
// definitions, keyed by canonical URL or type code.
type SnapshotSource interface {
	Snapshot(identifier string) (*StructureDefinition, bool)
}

// Clone returns a deep copy of the element definition.
func (ed *ElementDefinition) Clone() ElementDefinition {
	out := *ed
	out.Types = CloneTypes(ed.Types)
	if ed.Binding != nil {
		b := *ed.Binding
		out.Binding = &b
	}
	if ed.Constraints != nil {
		out.Constraints = make([]Constraint, len(ed.Constraints))
		copy(out.Constraints, ed.Constraints)
	}
	return out
}

// CloneTypes returns a deep copy of a type-slot list.
func CloneTypes(types []TypeRef) []TypeRef {
	if types == nil {
		return nil
	}
	out := make([]TypeRef, len(types))
	for i, t := range types {
		out[i] = TypeRef{Code: t.Code}
		if t.Profile != nil {
			out[i].Profile = append([]string(nil), t.Profile...)
		}
		if t.TargetProfile != nil {
			out[i].TargetProfile = append([]string(nil), t.TargetProfile...)
		}
	}
	return out
}

// CloneElements returns a deep copy of an element list.
func CloneElements(elements []ElementDefinition) []ElementDefinition {
	if elements == nil {
		return nil
	}
	out := make([]ElementDefinition, len(elements))
	for i := range elements {
		out[i] = elements[i].Clone()
	}
	return out
}
