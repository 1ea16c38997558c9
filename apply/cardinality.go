package apply

import (
	"fmt"
	"strconv"

	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/walker"
)

// applyCard narrows an element's cardinality. Widening beyond the
// inherited range is illegal.
func (a *Applier) applyCard(list *walker.ElementList, r *fsh.CardRule) error {
	ed, err := a.find(list, r.Path)
	if err != nil {
		return err
	}

	min, max := r.Min, r.Max
	if min < 0 {
		min = ed.Min
	}
	if max == "" {
		max = ed.Max
	}

	if min < ed.Min {
		return fmt.Errorf("cannot widen minimum cardinality of %s from %d to %d", ed.Path, ed.Min, min)
	}
	if maxGreater(max, ed.Max) {
		return fmt.Errorf("cannot widen maximum cardinality of %s from %s to %s", ed.Path, ed.Max, max)
	}
	if max != "*" {
		n, err := strconv.Atoi(max)
		if err != nil {
			return fmt.Errorf("invalid maximum cardinality %q on %s", max, ed.Path)
		}
		if n < min {
			return fmt.Errorf("invalid cardinality %d..%s on %s", min, max, ed.Path)
		}
	}

	ed.Min = min
	ed.Max = max
	return nil
}

// maxGreater reports whether a exceeds b, treating "*" as unbounded.
func maxGreater(a, b string) bool {
	if b == "*" {
		return false
	}
	if a == "*" {
		return true
	}
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr != nil || berr != nil {
		return false
	}
	return an > bn
}
