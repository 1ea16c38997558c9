package fsh

// Config is the project configuration a tank carries. It holds at least the
// canonical base URL used to compute entity URLs.
type Config struct {
	Canonical string
	Version   string
	ID        string
	Name      string
}

// Tank is the ordered collection of parsed documents for one compilation.
// It is the unit of ownership: every entity lives in exactly one document,
// and documents keep their load order for the whole run.
type Tank struct {
	Docs   []*Document
	Config Config
}

// NewTank creates a tank over the given documents.
func NewTank(cfg Config, docs ...*Document) *Tank {
	return &Tank{Docs: docs, Config: cfg}
}

// AddDocument appends a document, preserving load order.
func (t *Tank) AddDocument(d *Document) {
	t.Docs = append(t.Docs, d)
}

// ResolveAlias scans documents in order and returns the first alias table
// entry for name, or name itself when no table contains it.
func (t *Tank) ResolveAlias(name string) string {
	for _, d := range t.Docs {
		if v, ok := d.ResolveAlias(name); ok {
			return v
		}
	}
	return name
}

// Profiles returns all profiles across documents, in document order.
func (t *Tank) Profiles() []*Profile {
	var out []*Profile
	for _, d := range t.Docs {
		out = append(out, d.Profiles...)
	}
	return out
}

// Extensions returns all extensions across documents, in document order.
func (t *Tank) Extensions() []*Extension {
	var out []*Extension
	for _, d := range t.Docs {
		out = append(out, d.Extensions...)
	}
	return out
}

// Logicals returns all logical models across documents, in document order.
func (t *Tank) Logicals() []*Logical {
	var out []*Logical
	for _, d := range t.Docs {
		out = append(out, d.Logicals...)
	}
	return out
}

// Resources returns all resources across documents, in document order.
func (t *Tank) Resources() []*Resource {
	var out []*Resource
	for _, d := range t.Docs {
		out = append(out, d.Resources...)
	}
	return out
}

// ValueSets returns all value sets across documents, in document order.
func (t *Tank) ValueSets() []*ValueSet {
	var out []*ValueSet
	for _, d := range t.Docs {
		out = append(out, d.ValueSets...)
	}
	return out
}

// CodeSystems returns all code systems across documents, in document order.
func (t *Tank) CodeSystems() []*CodeSystem {
	var out []*CodeSystem
	for _, d := range t.Docs {
		out = append(out, d.CodeSystems...)
	}
	return out
}

// Instances returns all instances across documents, in document order.
func (t *Tank) Instances() []*Instance {
	var out []*Instance
	for _, d := range t.Docs {
		out = append(out, d.Instances...)
	}
	return out
}

// Invariants returns all invariants across documents, in document order.
func (t *Tank) Invariants() []*Invariant {
	var out []*Invariant
	for _, d := range t.Docs {
		out = append(out, d.Invariants...)
	}
	return out
}

// RuleSets returns all rule sets across documents, in document order.
func (t *Tank) RuleSets() []*RuleSet {
	var out []*RuleSet
	for _, d := range t.Docs {
		out = append(out, d.RuleSets...)
	}
	return out
}

// Mappings returns all mappings across documents, in document order.
func (t *Tank) Mappings() []*Mapping {
	var out []*Mapping
	for _, d := range t.Docs {
		out = append(out, d.Mappings...)
	}
	return out
}

// Structures returns every authored structure (profiles, extensions,
// logicals, resources) in document order, kinds interleaved the way they
// were declared inside each document.
func (t *Tank) Structures() []StructureEntity {
	var out []StructureEntity
	for _, d := range t.Docs {
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
	}
	return out
}

// Duplicate describes two same-kind entities sharing a name. The first
// declaration wins; the later one is reported and ignored by fishing.
type Duplicate struct {
	Kind  Kind
	Name  string
	First SourceLocation
	Dup   SourceLocation
}

// Duplicates scans the whole tank for same-kind name collisions.
func (t *Tank) Duplicates() []Duplicate {
	seen := make(map[Kind]map[string]SourceLocation)
	var out []Duplicate
	check := func(e Entity) {
		byName := seen[e.Kind()]
		if byName == nil {
			byName = make(map[string]SourceLocation)
			seen[e.Kind()] = byName
		}
		if first, ok := byName[e.EntityName()]; ok {
			out = append(out, Duplicate{
				Kind:  e.Kind(),
				Name:  e.EntityName(),
				First: first,
				Dup:   e.Location(),
			})
			return
		}
		byName[e.EntityName()] = e.Location()
	}
	for _, d := range t.Docs {
		for _, e := range d.Entities() {
			check(e)
		}
	}
	return out
}
