package fishing

import (
	"strings"

	"github.com/gofhir/fshc/fsh"
)

// HL7StructureDefinitionPrefix is the base URL of core HL7 structure
// definitions. Logical model types under this prefix are rewritten to bare
// relative type names.
const HL7StructureDefinitionPrefix = "http://hl7.org/fhir/StructureDefinition/"

// Metadata is the reduced read-only projection of a resolved entity, for
// callers that need identity without full structure.
type Metadata struct {
	Kind         fsh.Kind
	ID           string
	Name         string
	URL          string
	Parent       string
	ResourceType string

	// SDType is set for logical models only: the canonical URL, rewritten
	// to a bare type name when it lives under the HL7 core prefix.
	SDType string

	// Usage is set for instances only.
	Usage fsh.InstanceUsage

	// InstanceOf is set for instances only.
	InstanceOf string
}

// FishForMetadata resolves item like Fish and projects the result.
// The boolean reports absence.
func (f *Fisher) FishForMetadata(item string, kinds ...fsh.Kind) (Metadata, bool) {
	e := f.Fish(item, kinds...)
	if e == nil {
		return Metadata{}, false
	}
	return f.project(e), true
}

// project builds the metadata view for one resolved entity.
func (f *Fisher) project(e fsh.Entity) Metadata {
	base := f.tank.Config.Canonical
	md := Metadata{
		Kind: e.Kind(),
		ID:   e.EntityID(),
		Name: e.EntityName(),
	}

	switch v := e.(type) {
	case *fsh.Profile:
		md.URL = fsh.CanonicalURL(base, fsh.KindProfile, v.EntityID())
		md.Parent = v.Parent
		md.ResourceType = "StructureDefinition"
	case *fsh.Extension:
		md.URL = fsh.CanonicalURL(base, fsh.KindExtension, v.EntityID())
		md.Parent = v.Parent
		md.ResourceType = "StructureDefinition"
	case *fsh.Logical:
		md.URL = fsh.CanonicalURL(base, fsh.KindLogical, v.EntityID())
		md.Parent = v.Parent
		md.ResourceType = "StructureDefinition"
		md.SDType = LogicalSDType(md.URL)
	case *fsh.Resource:
		md.URL = fsh.CanonicalURL(base, fsh.KindResource, v.EntityID())
		md.Parent = v.Parent
		md.ResourceType = "StructureDefinition"
	case *fsh.ValueSet:
		md.URL = fsh.CanonicalURL(base, fsh.KindValueSet, v.EntityID())
		md.ResourceType = "ValueSet"
	case *fsh.CodeSystem:
		md.URL = fsh.CanonicalURL(base, fsh.KindCodeSystem, v.EntityID())
		md.ResourceType = "CodeSystem"
	case *fsh.Instance:
		md.Usage = v.Usage
		md.InstanceOf = v.InstanceOf
		md.ResourceType = v.InstanceOf
		// The instance's own url assignment wins over any computed URL;
		// later assignments override earlier ones.
		if url, ok := fsh.FindAssignment(f.effectiveRules(v), "url"); ok {
			md.URL = url
		}
	}
	return md
}

// LogicalSDType computes the StructureDefinition.type value for a logical
// model: URLs under the HL7 core prefix collapse to a bare type name, any
// other canonical stays as-is.
func LogicalSDType(url string) string {
	if rest, ok := strings.CutPrefix(url, HL7StructureDefinitionPrefix); ok {
		return rest
	}
	return url
}
