package apply

import (
	"fmt"

	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/service"
	"github.com/gofhir/fshc/walker"
)

// applyAddElement adds a brand-new element to a logical model or resource.
// The path must not collide with an existing element; redeclaration of
// inherited elements is the exporter's ConstrainedParentElement check.
func (a *Applier) applyAddElement(list *walker.ElementList, r *fsh.AddElementRule) error {
	full := list.FullPath(r.Path)
	if list.Index(full) >= 0 {
		return fmt.Errorf("element %q already exists", full)
	}

	// Reference and canonical entries accumulate into one slot each, the
	// way "Reference(A or B)" reads; value entries get a slot per code.
	var types []service.TypeRef
	slotFor := func(code string) *service.TypeRef {
		for i := range types {
			if types[i].Code == code {
				return &types[i]
			}
		}
		types = append(types, service.TypeRef{Code: code})
		return &types[len(types)-1]
	}
	for _, t := range r.Types {
		name := t.Type
		if a.Fisher != nil {
			name = a.Fisher.ResolveAlias(name)
		}
		rec, ok := a.Oracle.Resolve(name)
		if !ok {
			return fmt.Errorf("no definition found for type %q", t.Type)
		}
		switch {
		case t.Reference:
			ref := slotFor("Reference")
			ref.TargetProfile = append(ref.TargetProfile, rec.URL)
		case t.Canonical:
			ref := slotFor("canonical")
			ref.TargetProfile = append(ref.TargetProfile, rec.URL)
		case rec.Derivation == "constraint":
			ref := slotFor(rec.Code)
			ref.Profile = append(ref.Profile, rec.URL)
		default:
			slotFor(rec.Code)
		}
	}

	min := r.Min
	if min < 0 {
		min = 0
	}
	max := r.Max
	if max == "" {
		max = "1"
	}

	ed := service.ElementDefinition{
		ID:          full,
		Path:        full,
		Short:       r.Short,
		Definition:  r.Definition,
		Min:         min,
		Max:         max,
		Types:       types,
		MustSupport: r.MustSupport,
		IsSummary:   r.Summary,
		IsModifier:  r.Modifier,
	}
	if ed.Definition == "" {
		ed.Definition = ed.Short
	}

	list.Insert(ed)
	return nil
}

// applyElementCaret sets descriptive element properties addressed through
// caret paths. Unknown caret paths are ignored; they address parts of
// ElementDefinition this core does not materialize.
func (a *Applier) applyElementCaret(list *walker.ElementList, r *fsh.CaretValueRule) error {
	if r.Path == "" {
		return fmt.Errorf("entity-level caret rule %q reached the element applier", r.CaretPath)
	}
	ed, err := a.find(list, r.Path)
	if err != nil {
		return err
	}

	switch r.CaretPath {
	case "short":
		if s, ok := r.Value.(string); ok {
			ed.Short = s
		}
	case "definition":
		if s, ok := r.Value.(string); ok {
			ed.Definition = s
		}
	case "mustSupport":
		if b, ok := r.Value.(bool); ok {
			ed.MustSupport = b
		}
	}
	return nil
}
