package apply

import (
	"fmt"

	"github.com/gofhir/fhirpath"

	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/service"
	"github.com/gofhir/fshc/walker"
)

// applyObeys attaches authored invariants to an element. Each invariant
// must be fishable, and its FHIRPath expression must compile; a broken
// expression fails the rule rather than emitting an unusable constraint.
func (a *Applier) applyObeys(list *walker.ElementList, r *fsh.ObeysRule) error {
	ed, err := a.find(list, r.Path)
	if err != nil {
		return err
	}

	for _, name := range r.Invariants {
		if a.Fisher == nil {
			return fmt.Errorf("invariant %q cannot be resolved without a fisher", name)
		}
		e := a.Fisher.Fish(name, fsh.KindInvariant)
		if e == nil {
			return fmt.Errorf("invariant %q not found", name)
		}
		inv, ok := e.(*fsh.Invariant)
		if !ok {
			return fmt.Errorf("entity %q is not an invariant", name)
		}

		if inv.Expression != "" {
			if _, cerr := fhirpath.Compile(inv.Expression); cerr != nil {
				return fmt.Errorf("invariant %q has an invalid expression: %w", name, cerr)
			}
		}

		severity := inv.Severity
		if severity == "" {
			severity = "error"
		}
		ed.Constraints = append(ed.Constraints, service.Constraint{
			Key:        inv.Name,
			Severity:   severity,
			Human:      inv.Description,
			Expression: inv.Expression,
			XPath:      inv.XPath,
		})
	}
	return nil
}
