package fsh

// Rule is one authored rule inside an entity. Rules preserve declaration
// order; the exporter applies them in that order.
type Rule interface {
	// RulePath is the element path the rule addresses, relative to the
	// entity's root ("" for entity-level rules such as insert rules).
	RulePath() string
	Location() SourceLocation
}

// RuleBase carries the fields shared by every rule.
type RuleBase struct {
	Path     string
	Position SourceLocation
}

// RulePath implements Rule.
func (r RuleBase) RulePath() string { return r.Path }

// Location implements Rule.
func (r RuleBase) Location() SourceLocation { return r.Position }

// CardRule constrains an element's cardinality, e.g. "* name 1..1".
// Min of -1 or an empty Max leaves that bound unchanged.
type CardRule struct {
	RuleBase
	Min int
	Max string
}

// FlagRule sets element flags, e.g. "* name MS SU".
type FlagRule struct {
	RuleBase
	MustSupport bool
	Summary     bool
	Modifier    bool
}

// OnlyRuleType is one requested type in an only-rule: a type name, id, or
// canonical URL (optionally version-suffixed), flagged as a plain value,
// a reference target, or a canonical target.
type OnlyRuleType struct {
	Type      string
	Reference bool
	Canonical bool
}

// OnlyRule restricts an element's allowed types,
// e.g. "* value[x] only Quantity or Reference(Practitioner)".
type OnlyRule struct {
	RuleBase
	Types []OnlyRuleType
}

// AssignmentRule assigns a value to an element, e.g. "* status = #active".
type AssignmentRule struct {
	RuleBase
	Value   any
	Exactly bool
	// IsInstance marks the value as a reference to an inline instance
	// rather than a literal.
	IsInstance bool
}

// BindingRule binds an element to a value set,
// e.g. "* code from MyValueSet (required)".
type BindingRule struct {
	RuleBase
	ValueSet string
	Strength string
}

// AddElementRule adds a new element to a logical model or resource,
// e.g. "* height 0..1 SU Quantity "height"".
type AddElementRule struct {
	RuleBase
	Min         int
	Max         string
	Types       []OnlyRuleType
	Short       string
	Definition  string
	MustSupport bool
	Summary     bool
	Modifier    bool
}

// InsertRule applies a rule set, e.g. "* insert MyRuleSet(param)".
type InsertRule struct {
	RuleBase
	RuleSet string
	Params  []string
}

// ObeysRule attaches invariants to an element, e.g. "* obeys inv-1 and inv-2".
type ObeysRule struct {
	RuleBase
	Invariants []string
}

// CaretValueRule assigns a value to a definitional property of the entity
// or one of its elements, e.g. "* ^status = #draft".
type CaretValueRule struct {
	RuleBase
	CaretPath string
	Value     any
}

// FindAssignment scans rules in order for the last assignment rule with the
// given path and a string value, and returns that value. This is the lookup
// used for instance metadata, where later assignments override earlier ones.
func FindAssignment(rules []Rule, path string) (string, bool) {
	var out string
	found := false
	for _, r := range rules {
		ar, ok := r.(*AssignmentRule)
		if !ok || ar.Path != path {
			continue
		}
		if s, ok := ar.Value.(string); ok {
			out = s
			found = true
		}
	}
	return out, found
}

// HasAssignment reports whether any assignment rule sets path to the given
// string value.
func HasAssignment(rules []Rule, path, value string) bool {
	for _, r := range rules {
		if ar, ok := r.(*AssignmentRule); ok && ar.Path == path {
			if s, ok := ar.Value.(string); ok && s == value {
				return true
			}
		}
	}
	return false
}
