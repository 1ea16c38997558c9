package export

import (
	"reflect"

	"github.com/gofhir/fshc/service"
)

// differential lists the elements that differ from the inherited snapshot:
// the root element, every element a rule changed, and every added element.
// Inherited elements the rules never touched are omitted.
func differential(base, sd *service.StructureDefinition, inherited map[string]bool) []service.ElementDefinition {
	// Index the parent's elements by their tail path (path minus the root
	// segment) so rebased specializations still line up.
	baseByTail := make(map[string]*service.ElementDefinition, len(base.Snapshot))
	for i := range base.Snapshot {
		baseByTail[tailPath(base.Snapshot[i].Path)] = &base.Snapshot[i]
	}

	var out []service.ElementDefinition
	for i := range sd.Snapshot {
		el := &sd.Snapshot[i]
		tail := tailPath(el.Path)

		if i == 0 {
			out = append(out, el.Clone())
			continue
		}
		parentEl, wasInherited := baseByTail[tail]
		if !wasInherited || !inherited[el.Path] {
			// Added (or unfolded-and-changed) element.
			out = append(out, el.Clone())
			continue
		}
		if !equalElements(el, parentEl) {
			out = append(out, el.Clone())
		}
	}
	return out
}

// tailPath strips the root segment from an element path.
func tailPath(path string) string {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[i+1:]
		}
	}
	return ""
}

// equalElements compares everything but identity fields, which rebasing
// legitimately rewrites.
func equalElements(a, b *service.ElementDefinition) bool {
	ac, bc := a.Clone(), b.Clone()
	ac.ID, bc.ID = "", ""
	ac.Path, bc.Path = "", ""
	return reflect.DeepEqual(ac, bc)
}
