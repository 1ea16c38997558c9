// Package apply applies authored rules to the materialized element list of
// a structure under export. Each rule kind has its own applier; type-only
// rules delegate to the constrain package.
package apply

import (
	"fmt"

	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/fishing"
	"github.com/gofhir/fshc/service"
	"github.com/gofhir/fshc/walker"
)

// Applier applies rules against element lists. It is stateless between
// calls; all per-run state lives in the list and the collaborators.
type Applier struct {
	Oracle    service.TypeResolver
	Snapshots service.SnapshotSource
	Fisher    *fishing.Fisher
}

// New creates an applier over the given collaborators.
func New(oracle service.TypeResolver, snaps service.SnapshotSource, fisher *fishing.Fisher) *Applier {
	return &Applier{Oracle: oracle, Snapshots: snaps, Fisher: fisher}
}

// Apply applies one rule to the list. A returned error describes why this
// single rule failed; the caller decides whether to skip the rule or abort
// the entity. Insert rules must be expanded before application.
func (a *Applier) Apply(list *walker.ElementList, rule fsh.Rule) error {
	switch r := rule.(type) {
	case *fsh.CardRule:
		return a.applyCard(list, r)
	case *fsh.FlagRule:
		return a.applyFlags(list, r)
	case *fsh.OnlyRule:
		return a.applyOnly(list, r)
	case *fsh.AssignmentRule:
		return a.applyAssignment(list, r)
	case *fsh.BindingRule:
		return a.applyBinding(list, r)
	case *fsh.ObeysRule:
		return a.applyObeys(list, r)
	case *fsh.AddElementRule:
		return a.applyAddElement(list, r)
	case *fsh.InsertRule:
		return fmt.Errorf("insert rule %q was not expanded before application", r.RuleSet)
	case *fsh.CaretValueRule:
		// Entity-level caret rules are handled by the exporter; element
		// caret rules set descriptive fields here.
		return a.applyElementCaret(list, r)
	default:
		return fmt.Errorf("unsupported rule kind %T", rule)
	}
}

// find resolves a rule path, unfolding complex types on demand.
func (a *Applier) find(list *walker.ElementList, path string) (*service.ElementDefinition, error) {
	i := list.FindOrUnfold(path, a.Snapshots)
	if i < 0 {
		return nil, fmt.Errorf("no element found at path %q", path)
	}
	return &list.Elements[i], nil
}
