// Package fishing implements cross-document entity resolution: turning a
// bare name, id, alias, or canonical URL into one matching authored entity.
package fishing

import (
	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/fsh"
)

// Fisher resolves textual identifiers against a tank.
type Fisher struct {
	tank *fsh.Tank

	// OnIssue, when set, receives diagnostics raised during resolution
	// (currently only ambiguous-masquerade warnings).
	OnIssue func(fshc.Issue)

	// WarnAmbiguous controls the ambiguous-masquerade warning. The first
	// matching kind wins either way.
	WarnAmbiguous bool

	// metrics is optional.
	metrics *fshc.Metrics

	// warned dedupes ambiguity warnings per instance name.
	warned map[string]bool
}

// New creates a fisher over the given tank.
func New(tank *fsh.Tank) *Fisher {
	return &Fisher{
		tank:          tank,
		WarnAmbiguous: true,
		warned:        make(map[string]bool),
	}
}

// SetMetrics attaches a metrics collector.
func (f *Fisher) SetMetrics(m *fshc.Metrics) { f.metrics = m }

// Tank returns the underlying tank.
func (f *Fisher) Tank() *fsh.Tank { return f.tank }

// ResolveAlias resolves item against the tank's alias tables, documents
// scanned in load order, first table containing the key wins. Unaliased
// names come back unchanged.
func (f *Fisher) ResolveAlias(item string) string {
	return f.tank.ResolveAlias(item)
}

// Fish resolves item to one authored entity. The alias table is consulted
// exactly once, before any kind-specific matching. When kinds is empty the
// fixed priority order is used. The first kind that yields a match wins;
// subsequent kinds are not scanned. A nil return means absence, not error.
func (f *Fisher) Fish(item string, kinds ...fsh.Kind) fsh.Entity {
	name := f.ResolveAlias(item)
	if len(kinds) == 0 {
		kinds = fsh.FishingOrder
	}

	for _, kind := range kinds {
		if e := f.fishKind(name, kind); e != nil {
			if f.metrics != nil {
				f.metrics.RecordFish(true)
			}
			return e
		}
	}
	if f.metrics != nil {
		f.metrics.RecordFish(false)
	}
	return nil
}

// fishKind searches one kind: direct entities first, then instances that
// masquerade as that kind.
func (f *Fisher) fishKind(name string, kind fsh.Kind) fsh.Entity {
	base := f.tank.Config.Canonical

	switch kind {
	case fsh.KindProfile:
		for _, e := range f.tank.Profiles() {
			if matchStructure(&e.StructureCore, kind, name, base) {
				return e
			}
		}
	case fsh.KindExtension:
		for _, e := range f.tank.Extensions() {
			if matchStructure(&e.StructureCore, kind, name, base) {
				return e
			}
		}
	case fsh.KindLogical:
		for _, e := range f.tank.Logicals() {
			if matchStructure(&e.StructureCore, kind, name, base) {
				return e
			}
		}
	case fsh.KindResource:
		for _, e := range f.tank.Resources() {
			if matchStructure(&e.StructureCore, kind, name, base) {
				return e
			}
		}
	case fsh.KindValueSet:
		for _, e := range f.tank.ValueSets() {
			if match(e.Name, e.EntityID(), fsh.CanonicalURL(base, kind, e.EntityID()), name) {
				return e
			}
		}
	case fsh.KindCodeSystem:
		for _, e := range f.tank.CodeSystems() {
			if match(e.Name, e.EntityID(), fsh.CanonicalURL(base, kind, e.EntityID()), name) {
				return e
			}
		}
	case fsh.KindInstance:
		for _, e := range f.tank.Instances() {
			if match(e.Name, e.EntityID(), "", name) {
				return e
			}
		}
	case fsh.KindInvariant:
		for _, e := range f.tank.Invariants() {
			if e.Name == name {
				return e
			}
		}
	case fsh.KindRuleSet:
		for _, e := range f.tank.RuleSets() {
			if e.Name == name {
				return e
			}
		}
	case fsh.KindMapping:
		for _, e := range f.tank.Mappings() {
			if match(e.Name, e.EntityID(), "", name) {
				return e
			}
		}
	}

	// No first-class entity of this kind matched; an instance declared as a
	// definition may masquerade as one.
	return f.fishMasquerade(name, kind)
}

// FishForAppliedRuleSet looks up an already-expanded rule-set application by
// its cache key, scanning documents in load order; the first hit wins.
func (f *Fisher) FishForAppliedRuleSet(key string) *fsh.RuleSet {
	for _, d := range f.tank.Docs {
		if rs, ok := d.AppliedRuleSets[key]; ok {
			return rs
		}
	}
	return nil
}

func matchStructure(c *fsh.StructureCore, kind fsh.Kind, name, base string) bool {
	return match(c.Name, c.EntityID(), fsh.CanonicalURL(base, kind, c.EntityID()), name)
}

func match(entityName, id, url, item string) bool {
	if item == "" {
		return false
	}
	return entityName == item || id == item || (url != "" && url == item)
}

func (f *Fisher) warn(issue fshc.Issue) {
	if f.metrics != nil {
		f.metrics.RecordIssue(issue.Severity)
	}
	if f.OnIssue != nil {
		f.OnIssue(issue)
	}
}
