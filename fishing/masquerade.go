package fishing

import (
	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/fsh"
)

// Marker paths and values that let an instance of StructureDefinition
// declare what it actually defines.
const (
	// StructureDefinitionType is the generic structure-definition type name.
	StructureDefinitionType = "StructureDefinition"

	derivationPath = "derivation"
	typePath       = "type"
	kindPath       = "kind"

	derivationConstraint     = "constraint"
	derivationSpecialization = "specialization"
	kindLogical              = "logical"
	kindResource             = "resource"
	typeExtension            = "Extension"
)

// fishMasquerade searches instances whose usage is "definition" and whose
// target type plus assignment-rule markers encode the requested kind.
func (f *Fisher) fishMasquerade(name string, kind fsh.Kind) fsh.Entity {
	for _, inst := range f.tank.Instances() {
		if inst.Usage != fsh.UsageDefinition {
			continue
		}
		if !f.matchInstanceAs(inst, name, kind) {
			continue
		}
		if masqueradesAs(f.effectiveRules(inst), inst.InstanceOf, kind) {
			f.checkAmbiguity(inst)
			return inst
		}
	}
	return nil
}

// matchInstanceAs matches an instance by name, id, or the canonical URL it
// would receive as a definition of the requested kind.
func (f *Fisher) matchInstanceAs(inst *fsh.Instance, name string, kind fsh.Kind) bool {
	url := fsh.CanonicalURL(f.tank.Config.Canonical, kind, inst.EntityID())
	return match(inst.Name, inst.EntityID(), url, name)
}

// masqueradesAs reports whether an instance with the given effective rules
// and target type encodes the requested kind.
func masqueradesAs(rules []fsh.Rule, instanceOf string, kind fsh.Kind) bool {
	switch kind {
	case fsh.KindProfile:
		return isStructureDefinition(instanceOf) &&
			fsh.HasAssignment(rules, derivationPath, derivationConstraint) &&
			!fsh.HasAssignment(rules, typePath, typeExtension)
	case fsh.KindExtension:
		return isStructureDefinition(instanceOf) &&
			fsh.HasAssignment(rules, derivationPath, derivationConstraint) &&
			fsh.HasAssignment(rules, typePath, typeExtension)
	case fsh.KindLogical:
		return isStructureDefinition(instanceOf) &&
			fsh.HasAssignment(rules, derivationPath, derivationSpecialization) &&
			fsh.HasAssignment(rules, kindPath, kindLogical)
	case fsh.KindResource:
		return isStructureDefinition(instanceOf) &&
			fsh.HasAssignment(rules, derivationPath, derivationSpecialization) &&
			fsh.HasAssignment(rules, kindPath, kindResource)
	case fsh.KindValueSet:
		return instanceOf == "ValueSet" || instanceOf == hl7SDPrefixLess("ValueSet")
	case fsh.KindCodeSystem:
		return instanceOf == "CodeSystem" || instanceOf == hl7SDPrefixLess("CodeSystem")
	default:
		return false
	}
}

func isStructureDefinition(instanceOf string) bool {
	return instanceOf == StructureDefinitionType ||
		instanceOf == HL7StructureDefinitionPrefix+StructureDefinitionType
}

func hl7SDPrefixLess(t string) string {
	return HL7StructureDefinitionPrefix + t
}

// effectiveRules returns an instance's rules with insert rules replaced by
// their cached expansions, when an expansion has been applied. Unexpanded
// insert rules stay in place; their contents are simply not visible yet.
func (f *Fisher) effectiveRules(inst *fsh.Instance) []fsh.Rule {
	expanded := false
	for _, r := range inst.Rules {
		if _, ok := r.(*fsh.InsertRule); ok {
			expanded = true
			break
		}
	}
	if !expanded {
		return inst.Rules
	}

	out := make([]fsh.Rule, 0, len(inst.Rules))
	for _, r := range inst.Rules {
		ir, ok := r.(*fsh.InsertRule)
		if !ok {
			out = append(out, r)
			continue
		}
		rs := f.FishForAppliedRuleSet(fsh.AppliedRuleSetKey(ir.RuleSet, ir.Params))
		if rs == nil {
			out = append(out, r)
			continue
		}
		out = append(out, rs.Rules...)
	}
	return out
}

// checkAmbiguity warns once per instance whose markers satisfy more than
// one masquerading-kind predicate; the first kind in priority order still
// wins, but the input is inconsistent.
func (f *Fisher) checkAmbiguity(inst *fsh.Instance) {
	if !f.WarnAmbiguous || f.warned[inst.Name] {
		return
	}
	rules := f.effectiveRules(inst)
	var kinds []fsh.Kind
	for _, k := range []fsh.Kind{fsh.KindProfile, fsh.KindExtension, fsh.KindLogical, fsh.KindResource} {
		if masqueradesAs(rules, inst.InstanceOf, k) {
			kinds = append(kinds, k)
		}
	}
	if len(kinds) < 2 {
		return
	}
	f.warned[inst.Name] = true
	msg := "instance " + inst.Name + " has markers for multiple definition kinds:"
	for _, k := range kinds {
		msg += " " + k.String()
	}
	msg += "; treating it as the first"
	loc := inst.Location()
	f.warn(fshc.NewIssue(fshc.SeverityWarning, fshc.CodeAmbiguousInstance).
		Diagnostics(msg).
		Entity(inst.Name).
		At(loc.File, loc.Line, loc.Column).
		Build())
}
