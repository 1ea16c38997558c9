package apply

import (
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/service"
	"github.com/gofhir/fshc/walker"
)

// applyAssignment fixes an element's value. An exact assignment sets the
// fixed[x] slot; a non-exact one sets pattern[x], which later profiles may
// still extend.
func (a *Applier) applyAssignment(list *walker.ElementList, r *fsh.AssignmentRule) error {
	ed, err := a.find(list, r.Path)
	if err != nil {
		return err
	}

	if r.Exactly {
		ed.Fixed = r.Value
		ed.Pattern = nil
	} else {
		ed.Pattern = r.Value
	}
	return nil
}

// applyBinding binds an element to a value set. An authored value set name
// resolves to its canonical URL; anything unfishable passes through as-is
// (it may name an external value set).
func (a *Applier) applyBinding(list *walker.ElementList, r *fsh.BindingRule) error {
	ed, err := a.find(list, r.Path)
	if err != nil {
		return err
	}

	vs := r.ValueSet
	if a.Fisher != nil {
		if md, ok := a.Fisher.FishForMetadata(vs, fsh.KindValueSet); ok && md.URL != "" {
			vs = md.URL
		}
	}

	strength := r.Strength
	if strength == "" {
		strength = "required"
	}
	ed.Binding = &service.Binding{Strength: strength, ValueSet: vs}
	return nil
}
