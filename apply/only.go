package apply

import (
	"fmt"

	"github.com/gofhir/fshc/constrain"
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/walker"
)

// applyOnly narrows an element's allowed types. When the rule path names a
// choice variant (valueQuantity rather than value[x]), only the chosen
// slot is narrowed and every other slot keeps its place.
func (a *Applier) applyOnly(list *walker.ElementList, r *fsh.OnlyRule) error {
	i := list.FindOrUnfold(r.Path, a.Snapshots)
	if i < 0 {
		return fmt.Errorf("no element found at path %q", r.Path)
	}

	targetType := ""
	if code, ok := list.ChoiceVariant(r.Path); ok {
		targetType = code
	}

	return constrain.Apply(&list.Elements[i], a.constraints(r.Types), targetType, a.Oracle)
}

// constraints converts authored only-rule types into constrain requests,
// resolving aliases once per identifier.
func (a *Applier) constraints(types []fsh.OnlyRuleType) []constrain.Constraint {
	out := make([]constrain.Constraint, len(types))
	for i, t := range types {
		name := t.Type
		if a.Fisher != nil {
			name = a.Fisher.ResolveAlias(name)
		}
		out[i] = constrain.Constraint{
			Type:      name,
			Reference: t.Reference,
			Canonical: t.Canonical,
		}
	}
	return out
}
