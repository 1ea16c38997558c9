// Package fsh holds the authored data model of a FHIR Shorthand project:
// documents, entities, rules, and the tank that owns them for the lifetime
// of one compilation.
package fsh

// SourceLocation identifies a position in an FSH source file.
type SourceLocation struct {
	File   string
	Line   int
	Column int
}

// Kind discriminates the closed set of authored entity kinds.
type Kind int

// Entity kinds, in fishing priority order.
const (
	KindProfile Kind = iota
	KindExtension
	KindLogical
	KindResource
	KindValueSet
	KindCodeSystem
	KindInstance
	KindInvariant
	KindRuleSet
	KindMapping
)

// FishingOrder is the fixed priority order used when no kind filter is given.
var FishingOrder = []Kind{
	KindProfile,
	KindExtension,
	KindLogical,
	KindResource,
	KindValueSet,
	KindCodeSystem,
	KindInstance,
	KindInvariant,
	KindRuleSet,
	KindMapping,
}

// String returns the FSH keyword for the kind.
func (k Kind) String() string {
	switch k {
	case KindProfile:
		return "Profile"
	case KindExtension:
		return "Extension"
	case KindLogical:
		return "Logical"
	case KindResource:
		return "Resource"
	case KindValueSet:
		return "ValueSet"
	case KindCodeSystem:
		return "CodeSystem"
	case KindInstance:
		return "Instance"
	case KindInvariant:
		return "Invariant"
	case KindRuleSet:
		return "RuleSet"
	case KindMapping:
		return "Mapping"
	default:
		return "Unknown"
	}
}

// ResourceType returns the FHIR resource type an entity of this kind
// exports to, or the empty string for kinds with no canonical resource.
func (k Kind) ResourceType() string {
	switch k {
	case KindProfile, KindExtension, KindLogical, KindResource:
		return "StructureDefinition"
	case KindValueSet:
		return "ValueSet"
	case KindCodeSystem:
		return "CodeSystem"
	default:
		return ""
	}
}

// CanonicalURL computes the canonical URL for an entity: the configured
// base, the kind's resource type, and the entity id.
func CanonicalURL(base string, k Kind, id string) string {
	rt := k.ResourceType()
	if rt == "" || id == "" {
		return ""
	}
	return base + "/" + rt + "/" + id
}

// Entity is the common view over every authored entity.
type Entity interface {
	Kind() Kind
	EntityName() string
	EntityID() string
	Location() SourceLocation
}

// StructureCore carries the fields shared by every authored structure
// (profile, extension, logical model, resource).
type StructureCore struct {
	Name        string
	ID          string
	Parent      string
	Title       string
	Description string
	Rules       []Rule
	Position    SourceLocation
}

// EntityName returns the declared name.
func (c *StructureCore) EntityName() string { return c.Name }

// EntityID returns the declared id, falling back to the name.
func (c *StructureCore) EntityID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

// Location returns the declaration position.
func (c *StructureCore) Location() SourceLocation { return c.Position }

// StructureEntity is an authored structure that the exporter can emit.
type StructureEntity interface {
	Entity
	Core() *StructureCore
}

// Profile constrains an existing resource, data type, or profile.
type Profile struct {
	StructureCore
}

// Kind implements Entity.
func (*Profile) Kind() Kind { return KindProfile }

// Core implements StructureEntity.
func (p *Profile) Core() *StructureCore { return &p.StructureCore }

// Extension defines a new extension.
type Extension struct {
	StructureCore
	// Contexts lists the element paths the extension may be used on.
	Contexts []string
}

// Kind implements Entity.
func (*Extension) Kind() Kind { return KindExtension }

// Core implements StructureEntity.
func (e *Extension) Core() *StructureCore { return &e.StructureCore }

// Logical defines a new logical model.
type Logical struct {
	StructureCore
	// Characteristics holds type-characteristics codes (e.g. "can-be-target").
	Characteristics []string
}

// Kind implements Entity.
func (*Logical) Kind() Kind { return KindLogical }

// Core implements StructureEntity.
func (l *Logical) Core() *StructureCore { return &l.StructureCore }

// Resource defines a new resource.
type Resource struct {
	StructureCore
}

// Kind implements Entity.
func (*Resource) Kind() Kind { return KindResource }

// Core implements StructureEntity.
func (r *Resource) Core() *StructureCore { return &r.StructureCore }

// InstanceUsage marks how an instance is intended to be used.
type InstanceUsage string

// Instance usages.
const (
	UsageExample    InstanceUsage = "example"
	UsageDefinition InstanceUsage = "definition"
	UsageInline     InstanceUsage = "inline"
)

// Instance is an authored instance of some type. An instance whose usage is
// "definition" and whose rules carry the right markers can masquerade as a
// first-class definition and be fished as that kind.
type Instance struct {
	Name       string
	ID         string
	InstanceOf string
	Usage      InstanceUsage
	Rules      []Rule
	Position   SourceLocation
}

// Kind implements Entity.
func (*Instance) Kind() Kind { return KindInstance }

// EntityName implements Entity.
func (i *Instance) EntityName() string { return i.Name }

// EntityID implements Entity.
func (i *Instance) EntityID() string {
	if i.ID != "" {
		return i.ID
	}
	return i.Name
}

// Location implements Entity.
func (i *Instance) Location() SourceLocation { return i.Position }

// ValueSet is an authored value set.
type ValueSet struct {
	Name        string
	ID          string
	Title       string
	Description string
	Rules       []Rule
	Position    SourceLocation
}

// Kind implements Entity.
func (*ValueSet) Kind() Kind { return KindValueSet }

// EntityName implements Entity.
func (v *ValueSet) EntityName() string { return v.Name }

// EntityID implements Entity.
func (v *ValueSet) EntityID() string {
	if v.ID != "" {
		return v.ID
	}
	return v.Name
}

// Location implements Entity.
func (v *ValueSet) Location() SourceLocation { return v.Position }

// CodeSystem is an authored code system.
type CodeSystem struct {
	Name        string
	ID          string
	Title       string
	Description string
	Rules       []Rule
	Position    SourceLocation
}

// Kind implements Entity.
func (*CodeSystem) Kind() Kind { return KindCodeSystem }

// EntityName implements Entity.
func (c *CodeSystem) EntityName() string { return c.Name }

// EntityID implements Entity.
func (c *CodeSystem) EntityID() string {
	if c.ID != "" {
		return c.ID
	}
	return c.Name
}

// Location implements Entity.
func (c *CodeSystem) Location() SourceLocation { return c.Position }

// Invariant is a named constraint with a FHIRPath expression, attached to
// elements through obeys-rules.
type Invariant struct {
	Name        string
	Description string
	Expression  string
	XPath       string
	Severity    string
	Position    SourceLocation
}

// Kind implements Entity.
func (*Invariant) Kind() Kind { return KindInvariant }

// EntityName implements Entity.
func (iv *Invariant) EntityName() string { return iv.Name }

// EntityID implements Entity.
func (iv *Invariant) EntityID() string { return iv.Name }

// Location implements Entity.
func (iv *Invariant) Location() SourceLocation { return iv.Position }

// RuleSet is a reusable, named group of rules inserted by insert-rules.
type RuleSet struct {
	Name     string
	Params   []string
	Rules    []Rule
	Position SourceLocation
}

// Kind implements Entity.
func (*RuleSet) Kind() Kind { return KindRuleSet }

// EntityName implements Entity.
func (rs *RuleSet) EntityName() string { return rs.Name }

// EntityID implements Entity.
func (rs *RuleSet) EntityID() string { return rs.Name }

// Location implements Entity.
func (rs *RuleSet) Location() SourceLocation { return rs.Position }

// Mapping maps authored elements onto an external specification.
type Mapping struct {
	Name        string
	ID          string
	SourceType  string
	Target      string
	Title       string
	Description string
	Rules       []Rule
	Position    SourceLocation
}

// Kind implements Entity.
func (*Mapping) Kind() Kind { return KindMapping }

// EntityName implements Entity.
func (m *Mapping) EntityName() string { return m.Name }

// EntityID implements Entity.
func (m *Mapping) EntityID() string {
	if m.ID != "" {
		return m.ID
	}
	return m.Name
}

// Location implements Entity.
func (m *Mapping) Location() SourceLocation { return m.Position }
