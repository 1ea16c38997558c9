package export

import (
	"errors"
	"strings"

	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/constrain"
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/service"
	"github.com/gofhir/fshc/walker"
)

// applyRules expands insert rules and applies the entity's rules in
// declaration order. Rule-level failures are reported and skipped;
// the remaining rules still run.
func (s *Session) applyRules(ent fsh.StructureEntity, sd *service.StructureDefinition, list *walker.ElementList, inherited map[string]bool) {
	specialization := ent.Kind() == fsh.KindLogical || ent.Kind() == fsh.KindResource

	for _, rule := range s.expandInserts(ent, ent.Core().Rules, 0) {
		if cr, ok := rule.(*fsh.CaretValueRule); ok && cr.Path == "" {
			s.applyEntityCaret(sd, cr)
			continue
		}

		if specialization {
			if _, isAdd := rule.(*fsh.AddElementRule); !isAdd {
				full := list.FullPath(rule.RulePath())
				redeclares := inherited[full]
				if !redeclares {
					if i := list.Find(rule.RulePath()); i >= 0 {
						redeclares = inherited[list.Elements[i].Path]
					}
				}
				if redeclares {
					s.warnRule(ent, fshc.CodeConstrainedParentElement,
						ent.Kind().String()+" "+ent.EntityName()+" cannot constrain inherited element "+full+"; only new elements may be added",
						rule.Location())
					continue
				}
			}
		}

		if err := s.applier.Apply(list, rule); err != nil {
			s.warnRule(ent, issueCodeFor(err), err.Error(), rule.Location())
		}
	}
}

// issueCodeFor maps constraint-resolver failures onto the diagnostic
// taxonomy; anything else is a generic invalid rule.
func issueCodeFor(err error) fshc.IssueCode {
	var (
		notFound  *constrain.TypeNotFoundError
		invalid   *constrain.InvalidTypeError
		concrete  *constrain.NonAbstractParentError
		badTarget *constrain.InvalidTargetError
	)
	switch {
	case errors.As(err, &notFound):
		return fshc.CodeTypeNotFound
	case errors.As(err, &invalid):
		return fshc.CodeInvalidType
	case errors.As(err, &concrete):
		return fshc.CodeNonAbstractParent
	case errors.As(err, &badTarget):
		return fshc.CodeInvalidTarget
	default:
		return fshc.CodeInvalidRule
	}
}

// expandInserts replaces insert rules with their rule sets' contents,
// substituting parameters and caching each expansion on the rule set's
// document so subsequent fishes see it. Expansion is bounded to keep
// mutually-inserting rule sets from recursing forever.
func (s *Session) expandInserts(ent fsh.StructureEntity, rules []fsh.Rule, depth int) []fsh.Rule {
	if depth > 8 {
		return rules
	}

	out := make([]fsh.Rule, 0, len(rules))
	for _, rule := range rules {
		ir, ok := rule.(*fsh.InsertRule)
		if !ok {
			out = append(out, rule)
			continue
		}

		key := fsh.AppliedRuleSetKey(ir.RuleSet, ir.Params)
		applied := s.fisher.FishForAppliedRuleSet(key)
		if applied == nil {
			e := s.fisher.Fish(ir.RuleSet, fsh.KindRuleSet)
			rs, isRS := e.(*fsh.RuleSet)
			if !isRS {
				s.warnRule(ent, fshc.CodeInvalidRule, "rule set "+ir.RuleSet+" not found", ir.Location())
				continue
			}
			applied = &fsh.RuleSet{
				Name:     rs.Name,
				Rules:    substituteParams(rs.Rules, rs.Params, ir.Params),
				Position: rs.Position,
			}
			if doc := s.documentOf(rs); doc != nil {
				doc.AppliedRuleSets[key] = applied
			}
		}
		out = append(out, s.expandInserts(ent, applied.Rules, depth+1)...)
	}
	return out
}

// documentOf finds the document a rule set was declared in.
func (s *Session) documentOf(rs *fsh.RuleSet) *fsh.Document {
	for _, d := range s.tank.Docs {
		for _, candidate := range d.RuleSets {
			if candidate == rs {
				return d
			}
		}
	}
	return nil
}

// substituteParams rewrites "{param}" placeholders in rule paths and
// string values with the actual insertion arguments, pairing formals and
// actuals positionally.
func substituteParams(rules []fsh.Rule, formals, actuals []string) []fsh.Rule {
	if len(formals) == 0 || len(actuals) == 0 {
		return rules
	}
	repl := make([]string, 0, 2*len(formals))
	for i, f := range formals {
		if i >= len(actuals) {
			break
		}
		repl = append(repl, "{"+f+"}", actuals[i])
	}
	r := strings.NewReplacer(repl...)

	out := make([]fsh.Rule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, substituteRule(rule, r))
	}
	return out
}

func substituteRule(rule fsh.Rule, r *strings.Replacer) fsh.Rule {
	switch v := rule.(type) {
	case *fsh.CardRule:
		c := *v
		c.Path = r.Replace(c.Path)
		return &c
	case *fsh.FlagRule:
		c := *v
		c.Path = r.Replace(c.Path)
		return &c
	case *fsh.OnlyRule:
		c := *v
		c.Path = r.Replace(c.Path)
		c.Types = append([]fsh.OnlyRuleType(nil), v.Types...)
		for i := range c.Types {
			c.Types[i].Type = r.Replace(c.Types[i].Type)
		}
		return &c
	case *fsh.AssignmentRule:
		c := *v
		c.Path = r.Replace(c.Path)
		if sv, ok := c.Value.(string); ok {
			c.Value = r.Replace(sv)
		}
		return &c
	case *fsh.BindingRule:
		c := *v
		c.Path = r.Replace(c.Path)
		c.ValueSet = r.Replace(c.ValueSet)
		return &c
	case *fsh.ObeysRule:
		c := *v
		c.Path = r.Replace(c.Path)
		return &c
	case *fsh.AddElementRule:
		c := *v
		c.Path = r.Replace(c.Path)
		return &c
	case *fsh.CaretValueRule:
		c := *v
		c.Path = r.Replace(c.Path)
		c.CaretPath = r.Replace(c.CaretPath)
		if sv, ok := c.Value.(string); ok {
			c.Value = r.Replace(sv)
		}
		return &c
	default:
		return rule
	}
}

// applyEntityCaret sets definitional properties of the artifact itself.
// Unknown caret paths are ignored; they address parts of
// StructureDefinition this core does not materialize.
func (s *Session) applyEntityCaret(sd *service.StructureDefinition, r *fsh.CaretValueRule) {
	switch r.CaretPath {
	case "title":
		if v, ok := r.Value.(string); ok {
			sd.Title = v
		}
	case "abstract":
		if v, ok := r.Value.(bool); ok {
			sd.Abstract = v
		}
	case "url":
		if v, ok := r.Value.(string); ok && v != "" {
			sd.URL = v
		}
	case "name":
		if v, ok := r.Value.(string); ok && v != "" {
			sd.Name = v
		}
	}
}
