package apply

import (
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/walker"
)

// applyFlags sets element flags. Flags only ever turn on; FSH has no
// syntax for clearing an inherited flag.
func (a *Applier) applyFlags(list *walker.ElementList, r *fsh.FlagRule) error {
	ed, err := a.find(list, r.Path)
	if err != nil {
		return err
	}

	if r.MustSupport {
		ed.MustSupport = true
	}
	if r.Summary {
		ed.IsSummary = true
	}
	if r.Modifier {
		ed.IsModifier = true
	}
	return nil
}
