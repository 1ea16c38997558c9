// Package constrain implements the type-constraint narrowing algorithm: an
// element's allowed-type slots are narrowed against requested type
// specifications while enforcing FHIR's profiling and specialization
// legality rules. Every call is atomic; on failure the element is left
// field-for-field identical to its pre-call state.
package constrain

import (
	"strings"

	"github.com/gofhir/fshc/service"
)

// Constraint is one requested type specification: a type name, id, or
// canonical URL (optionally "|version"-suffixed), flagged as a plain value,
// a reference target, or a canonical target.
type Constraint struct {
	Type      string
	Reference bool
	Canonical bool
}

// resolvedRequest pairs a constraint with its type record from the
// hierarchy and the preserved version marker.
type resolvedRequest struct {
	c       Constraint
	rec     service.TypeRecord
	version string
}

// Apply narrows ed.Types against the requested constraints. targetType, when
// non-empty, addresses exactly one existing slot; only that slot is replaced
// and every other slot keeps its value and position. Without targetType,
// every slot not addressed by any request is dropped and the result is the
// narrowed slots in the order their first matching request was processed.
//
// Any failure (TypeNotFoundError, InvalidTypeError, NonAbstractParentError,
// InvalidTargetError) leaves ed unmodified.
func Apply(ed *service.ElementDefinition, requests []Constraint, targetType string, oracle service.TypeResolver) error {
	if len(requests) == 0 {
		return nil
	}

	// Resolve every requested identifier up front so that no mutation
	// happens on a call that cannot fully succeed.
	rr := make([]resolvedRequest, len(requests))
	for i, c := range requests {
		name, version := splitVersion(c.Type)
		rec, ok := oracle.Resolve(name)
		if !ok {
			return &TypeNotFoundError{Type: c.Type}
		}
		rr[i] = resolvedRequest{c: c, rec: rec, version: version}
	}

	if targetType != "" {
		return applyToTarget(ed, rr, targetType, oracle)
	}
	return applyAll(ed, rr, oracle)
}

// newSlot is a narrowed slot under construction, remembering which original
// slot it traces to.
type newSlot struct {
	origIdx int
	ref     service.TypeRef
}

func applyAll(ed *service.ElementDefinition, rr []resolvedRequest, oracle service.TypeResolver) error {
	var result []newSlot

	for _, req := range rr {
		idx, err := findSlot(ed.Types, req, oracle)
		if idx < 0 {
			if err != nil {
				return err
			}
			return &InvalidTypeError{Type: req.c.Type, Allowed: slotCodes(ed.Types)}
		}
		mergeRequest(&result, idx, req, &ed.Types[idx])
	}

	out := make([]service.TypeRef, len(result))
	for i, ns := range result {
		out[i] = ns.ref
	}
	ed.Types = out
	return nil
}

func applyToTarget(ed *service.ElementDefinition, rr []resolvedRequest, targetType string, oracle service.TypeResolver) error {
	tname, _ := splitVersion(targetType)
	trec, trecOK := oracle.Resolve(tname)

	idx := -1
	for i := range ed.Types {
		if !shapesCompatible(ed.Types[i].Code, rr) {
			continue
		}
		if slotAddressedBy(&ed.Types[i], tname, trec, trecOK) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return &InvalidTargetError{Target: targetType}
	}

	// Narrow only the addressed slot; every request must bind to it.
	var result []newSlot
	for _, req := range rr {
		ok, err := reachable(&ed.Types[idx], req, oracle)
		if !ok {
			if err != nil {
				return err
			}
			return &InvalidTypeError{Type: req.c.Type, Allowed: []string{ed.Types[idx].Code}}
		}
		mergeRequest(&result, idx, req, &ed.Types[idx])
	}

	// Splice the narrowed entries into the addressed slot's position,
	// leaving all other slots byte-identical and in order.
	out := make([]service.TypeRef, 0, len(ed.Types)+len(result)-1)
	out = append(out, ed.Types[:idx]...)
	for _, ns := range result {
		out = append(out, ns.ref)
	}
	out = append(out, ed.Types[idx+1:]...)
	ed.Types = out
	return nil
}

// slotAddressedBy reports whether a target type identifier addresses this
// slot, by code or by one of the slot's targets.
func slotAddressedBy(slot *service.TypeRef, tname string, trec service.TypeRecord, trecOK bool) bool {
	if slot.Code == tname || (trecOK && slot.Code == trec.Code) {
		return true
	}
	for _, tp := range slot.TargetProfile {
		stripped, _ := splitVersion(tp)
		if stripped == tname || (trecOK && stripped == trec.URL) {
			return true
		}
	}
	return false
}

// findSlot scans slots in original order for the first one the request can
// legally narrow. Exact shape matches are preferred over partial ones: a
// reference request binds to a Reference slot even when a CodeableReference
// slot appears earlier. A negative index with a non-nil error means a slot
// was reachable but the narrowing was illegal; a negative index with a nil
// error means no slot was compatible at all.
func findSlot(slots []service.TypeRef, req resolvedRequest, oracle service.TypeResolver) (int, error) {
	var firstErr error
	for _, exact := range []bool{true, false} {
		for i := range slots {
			if !shapeMatches(slots[i].Code, req.c, exact) {
				continue
			}
			ok, err := reachable(&slots[i], req, oracle)
			if ok {
				return i, nil
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return -1, firstErr
}

// shapeMatches reports whether a slot with the given code can host a
// request of the given shape. The exact pass admits only the canonical slot
// code for the shape; the partial pass admits compatible hybrids.
func shapeMatches(code string, c Constraint, exact bool) bool {
	switch {
	case c.Reference:
		if exact {
			return code == "Reference"
		}
		return code == "CodeableReference"
	case c.Canonical:
		return exact && code == "canonical"
	default:
		// Value requests resolve by code lineage against any slot.
		return exact
	}
}

// shapesCompatible reports whether a slot code can host every request.
func shapesCompatible(code string, rr []resolvedRequest) bool {
	for _, req := range rr {
		switch {
		case req.c.Reference:
			if code != "Reference" && code != "CodeableReference" {
				return false
			}
		case req.c.Canonical:
			if code != "canonical" {
				return false
			}
		}
	}
	return true
}

// reachable reports whether the requested type can legally narrow this
// slot. For value shapes the anchor is the slot's code; for reference and
// canonical shapes the anchors are the slot's current targets (an empty
// target list is unconstrained). Legality follows the specialization rule:
// crossing from an anchor to a more specific type code requires the anchor
// to be abstract.
func reachable(slot *service.TypeRef, req resolvedRequest, oracle service.TypeResolver) (bool, error) {
	if req.c.Reference || req.c.Canonical {
		if len(slot.TargetProfile) == 0 {
			return true, nil
		}
		return walkToAnchor(req, func(cur service.TypeRecord) bool {
			for _, tp := range slot.TargetProfile {
				stripped, _ := splitVersion(tp)
				if stripped == cur.URL {
					return true
				}
			}
			return false
		}, oracle)
	}

	return walkToAnchor(req, func(cur service.TypeRecord) bool {
		return cur.Code == slot.Code
	}, oracle)
}

// walkToAnchor walks the requested type's parent chain looking for an
// anchor. On a hit, the narrowing is legal when the request stays within
// the anchor's type code (identity or profiling) or when the anchor is
// abstract (specialization).
func walkToAnchor(req resolvedRequest, isAnchor func(service.TypeRecord) bool, oracle service.TypeResolver) (bool, error) {
	cur := req.rec
	for {
		if isAnchor(cur) {
			if cur.URL == req.rec.URL || cur.Code == req.rec.Code {
				return true, nil
			}
			if cur.Abstract {
				return true, nil
			}
			return false, &NonAbstractParentError{Parent: cur.Code, Requested: req.c.Type}
		}
		if cur.ParentURL == "" {
			return false, nil
		}
		next, ok := oracle.Resolve(cur.ParentURL)
		if !ok {
			return false, nil
		}
		cur = next
	}
}

// mergeRequest accumulates one bound request into the result under
// construction. Reference and canonical requests addressed to the same
// original slot accumulate, in request order, into that slot's new target
// list. Value requests produce one entry per resulting type code, with
// profile URLs accumulating on their code's entry.
func mergeRequest(result *[]newSlot, idx int, req resolvedRequest, orig *service.TypeRef) {
	url := req.rec.URL
	if req.version != "" {
		url += "|" + req.version
	}

	if req.c.Reference || req.c.Canonical {
		for i := range *result {
			if (*result)[i].origIdx == idx {
				(*result)[i].ref.TargetProfile = append((*result)[i].ref.TargetProfile, url)
				return
			}
		}
		*result = append(*result, newSlot{
			origIdx: idx,
			ref:     service.TypeRef{Code: orig.Code, TargetProfile: []string{url}},
		})
		return
	}

	isProfile := req.rec.Derivation == "constraint"
	for i := range *result {
		if (*result)[i].origIdx == idx && (*result)[i].ref.Code == req.rec.Code && (*result)[i].ref.TargetProfile == nil {
			if isProfile {
				(*result)[i].ref.Profile = append((*result)[i].ref.Profile, url)
			}
			return
		}
	}
	ref := service.TypeRef{Code: req.rec.Code}
	if isProfile {
		ref.Profile = []string{url}
	}
	*result = append(*result, newSlot{origIdx: idx, ref: ref})
}

func slotCodes(slots []service.TypeRef) []string {
	out := make([]string, len(slots))
	for i := range slots {
		out[i] = slots[i].Code
	}
	return out
}

// splitVersion separates an optional "|version" marker from an identifier.
func splitVersion(s string) (name, version string) {
	if i := strings.LastIndexByte(s, '|'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}
