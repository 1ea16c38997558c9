package fsh

// Document is one parse unit (one .fsh file). Entities keep their
// declaration order within the document.
type Document struct {
	// File is the source path the document was parsed from.
	File string

	// Aliases maps alias names to their expansions.
	Aliases map[string]string

	Profiles    []*Profile
	Extensions  []*Extension
	Logicals    []*Logical
	Resources   []*Resource
	ValueSets   []*ValueSet
	CodeSystems []*CodeSystem
	Instances   []*Instance
	Invariants  []*Invariant
	RuleSets    []*RuleSet
	Mappings    []*Mapping

	// AppliedRuleSets caches rule sets that have already been expanded for
	// a specific insertion, keyed by AppliedRuleSetKey. It is populated by
	// the exporter during a run and consulted by fishing.
	AppliedRuleSets map[string]*RuleSet
}

// NewDocument creates an empty document for the given source file.
func NewDocument(file string) *Document {
	return &Document{
		File:            file,
		Aliases:         make(map[string]string),
		AppliedRuleSets: make(map[string]*RuleSet),
	}
}

// AppliedRuleSetKey builds the cache key for an applied rule set: the rule
// set name plus the literal parameter values of the insertion.
func AppliedRuleSetKey(name string, params []string) string {
	key := name
	for _, p := range params {
		key += "|" + p
	}
	return key
}

// ResolveAlias looks the name up in this document's alias table.
func (d *Document) ResolveAlias(name string) (string, bool) {
	if d.Aliases == nil {
		return "", false
	}
	v, ok := d.Aliases[name]
	return v, ok
}

// Entities returns every entity of the document in a fixed kind order,
// declaration order within each kind.
func (d *Document) Entities() []Entity {
	out := make([]Entity, 0,
		len(d.Profiles)+len(d.Extensions)+len(d.Logicals)+len(d.Resources)+
			len(d.ValueSets)+len(d.CodeSystems)+len(d.Instances)+
			len(d.Invariants)+len(d.RuleSets)+len(d.Mappings))
	for _, e := range d.Profiles {
		out = append(out, e)
	}
	for _, e := range d.Extensions {
		out = append(out, e)
	}
	for _, e := range d.Logicals {
		out = append(out, e)
	}
	for _, e := range d.Resources {
		out = append(out, e)
	}
	for _, e := range d.ValueSets {
		out = append(out, e)
	}
	for _, e := range d.CodeSystems {
		out = append(out, e)
	}
	for _, e := range d.Instances {
		out = append(out, e)
	}
	for _, e := range d.Invariants {
		out = append(out, e)
	}
	for _, e := range d.RuleSets {
		out = append(out, e)
	}
	for _, e := range d.Mappings {
		out = append(out, e)
	}
	return out
}

// Add appends an entity to the collection matching its kind.
func (d *Document) Add(e Entity) {
	switch v := e.(type) {
	case *Profile:
		d.Profiles = append(d.Profiles, v)
	case *Extension:
		d.Extensions = append(d.Extensions, v)
	case *Logical:
		d.Logicals = append(d.Logicals, v)
	case *Resource:
		d.Resources = append(d.Resources, v)
	case *ValueSet:
		d.ValueSets = append(d.ValueSets, v)
	case *CodeSystem:
		d.CodeSystems = append(d.CodeSystems, v)
	case *Instance:
		d.Instances = append(d.Instances, v)
	case *Invariant:
		d.Invariants = append(d.Invariants, v)
	case *RuleSet:
		d.RuleSets = append(d.RuleSets, v)
	case *Mapping:
		d.Mappings = append(d.Mappings, v)
	}
}
