package fsh

import (
	"encoding/json"
	"fmt"
)

// DecodeTank decodes the parsed-tank JSON interchange format: the output of
// an external FSH parser, one object per document with its aliases and a
// flat entity list. Rules are discriminated by their "rule" key, entities by
// their "entity" key.
func DecodeTank(data []byte) (*Tank, error) {
	var raw struct {
		Config struct {
			Canonical string `json:"canonical"`
			Version   string `json:"version"`
			ID        string `json:"id"`
			Name      string `json:"name"`
		} `json:"config"`
		Documents []struct {
			File     string            `json:"file"`
			Aliases  map[string]string `json:"aliases"`
			Entities []json.RawMessage `json:"entities"`
		} `json:"documents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid tank JSON: %w", err)
	}

	tank := NewTank(Config{
		Canonical: raw.Config.Canonical,
		Version:   raw.Config.Version,
		ID:        raw.Config.ID,
		Name:      raw.Config.Name,
	})
	for _, rd := range raw.Documents {
		doc := NewDocument(rd.File)
		for alias, expansion := range rd.Aliases {
			doc.Aliases[alias] = expansion
		}
		for _, re := range rd.Entities {
			e, err := decodeEntity(re, rd.File)
			if err != nil {
				return nil, fmt.Errorf("document %s: %w", rd.File, err)
			}
			doc.Add(e)
		}
		tank.AddDocument(doc)
	}
	return tank, nil
}

// jsonLocation is the interchange form of a source position.
type jsonLocation struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l *jsonLocation) toLocation(file string) SourceLocation {
	if l == nil {
		return SourceLocation{File: file}
	}
	out := SourceLocation{File: l.File, Line: l.Line, Column: l.Column}
	if out.File == "" {
		out.File = file
	}
	return out
}

// jsonEntity is the superset of every entity's interchange fields.
type jsonEntity struct {
	Entity          string            `json:"entity"`
	Name            string            `json:"name"`
	ID              string            `json:"id"`
	Parent          string            `json:"parent"`
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Contexts        []string          `json:"contexts"`
	Characteristics []string          `json:"characteristics"`
	InstanceOf      string            `json:"instanceOf"`
	Usage           string            `json:"usage"`
	Expression      string            `json:"expression"`
	XPath           string            `json:"xpath"`
	Severity        string            `json:"severity"`
	Params          []string          `json:"params"`
	SourceType      string            `json:"source"`
	Target          string            `json:"target"`
	Rules           []json.RawMessage `json:"rules"`
	Location        *jsonLocation     `json:"location"`
}

func decodeEntity(data json.RawMessage, file string) (Entity, error) {
	var je jsonEntity
	if err := json.Unmarshal(data, &je); err != nil {
		return nil, fmt.Errorf("invalid entity: %w", err)
	}
	if je.Name == "" {
		return nil, fmt.Errorf("entity of kind %q has no name", je.Entity)
	}

	rules, err := decodeRules(je.Rules, file)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", je.Name, err)
	}
	pos := je.Location.toLocation(file)
	core := StructureCore{
		Name:        je.Name,
		ID:          je.ID,
		Parent:      je.Parent,
		Title:       je.Title,
		Description: je.Description,
		Rules:       rules,
		Position:    pos,
	}

	switch je.Entity {
	case "Profile":
		return &Profile{StructureCore: core}, nil
	case "Extension":
		return &Extension{StructureCore: core, Contexts: je.Contexts}, nil
	case "Logical":
		return &Logical{StructureCore: core, Characteristics: je.Characteristics}, nil
	case "Resource":
		return &Resource{StructureCore: core}, nil
	case "Instance":
		usage := InstanceUsage(je.Usage)
		if usage == "" {
			usage = UsageExample
		}
		return &Instance{
			Name:       je.Name,
			ID:         je.ID,
			InstanceOf: je.InstanceOf,
			Usage:      usage,
			Rules:      rules,
			Position:   pos,
		}, nil
	case "ValueSet":
		return &ValueSet{
			Name: je.Name, ID: je.ID, Title: je.Title,
			Description: je.Description, Rules: rules, Position: pos,
		}, nil
	case "CodeSystem":
		return &CodeSystem{
			Name: je.Name, ID: je.ID, Title: je.Title,
			Description: je.Description, Rules: rules, Position: pos,
		}, nil
	case "Invariant":
		return &Invariant{
			Name:        je.Name,
			Description: je.Description,
			Expression:  je.Expression,
			XPath:       je.XPath,
			Severity:    je.Severity,
			Position:    pos,
		}, nil
	case "RuleSet":
		return &RuleSet{Name: je.Name, Params: je.Params, Rules: rules, Position: pos}, nil
	case "Mapping":
		return &Mapping{
			Name: je.Name, ID: je.ID, SourceType: je.SourceType,
			Target: je.Target, Title: je.Title, Description: je.Description,
			Rules: rules, Position: pos,
		}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", je.Entity)
	}
}

// jsonRule is the superset of every rule's interchange fields.
type jsonRule struct {
	Rule        string         `json:"rule"`
	Path        string         `json:"path"`
	Min         *int           `json:"min"`
	Max         string         `json:"max"`
	MustSupport bool           `json:"mustSupport"`
	Summary     bool           `json:"summary"`
	Modifier    bool           `json:"modifier"`
	Types       []jsonOnlyType `json:"types"`
	Value       any            `json:"value"`
	Exactly     bool           `json:"exactly"`
	IsInstance  bool           `json:"isInstance"`
	ValueSet    string         `json:"valueSet"`
	Strength    string         `json:"strength"`
	Short       string         `json:"short"`
	Definition  string         `json:"definition"`
	RuleSet     string         `json:"ruleSet"`
	Params      []string       `json:"params"`
	Invariants  []string       `json:"invariants"`
	CaretPath   string         `json:"caretPath"`
	Location    *jsonLocation  `json:"location"`
}

type jsonOnlyType struct {
	Type      string `json:"type"`
	Reference bool   `json:"reference"`
	Canonical bool   `json:"canonical"`
}

func decodeRules(raws []json.RawMessage, file string) ([]Rule, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]Rule, 0, len(raws))
	for _, raw := range raws {
		r, err := decodeRule(raw, file)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeRule(data json.RawMessage, file string) (Rule, error) {
	var jr jsonRule
	if err := json.Unmarshal(data, &jr); err != nil {
		return nil, fmt.Errorf("invalid rule: %w", err)
	}
	base := RuleBase{Path: jr.Path, Position: jr.Location.toLocation(file)}

	switch jr.Rule {
	case "card":
		minVal := -1
		if jr.Min != nil {
			minVal = *jr.Min
		}
		return &CardRule{RuleBase: base, Min: minVal, Max: jr.Max}, nil
	case "flag":
		return &FlagRule{
			RuleBase:    base,
			MustSupport: jr.MustSupport,
			Summary:     jr.Summary,
			Modifier:    jr.Modifier,
		}, nil
	case "only":
		return &OnlyRule{RuleBase: base, Types: decodeOnlyTypes(jr.Types)}, nil
	case "assignment":
		return &AssignmentRule{
			RuleBase:   base,
			Value:      jr.Value,
			Exactly:    jr.Exactly,
			IsInstance: jr.IsInstance,
		}, nil
	case "binding":
		return &BindingRule{RuleBase: base, ValueSet: jr.ValueSet, Strength: jr.Strength}, nil
	case "addElement":
		minVal := 0
		if jr.Min != nil {
			minVal = *jr.Min
		}
		return &AddElementRule{
			RuleBase:    base,
			Min:         minVal,
			Max:         jr.Max,
			Types:       decodeOnlyTypes(jr.Types),
			Short:       jr.Short,
			Definition:  jr.Definition,
			MustSupport: jr.MustSupport,
			Summary:     jr.Summary,
			Modifier:    jr.Modifier,
		}, nil
	case "insert":
		return &InsertRule{RuleBase: base, RuleSet: jr.RuleSet, Params: jr.Params}, nil
	case "obeys":
		return &ObeysRule{RuleBase: base, Invariants: jr.Invariants}, nil
	case "caret":
		return &CaretValueRule{RuleBase: base, CaretPath: jr.CaretPath, Value: jr.Value}, nil
	default:
		return nil, fmt.Errorf("unknown rule kind %q", jr.Rule)
	}
}

func decodeOnlyTypes(types []jsonOnlyType) []OnlyRuleType {
	if len(types) == 0 {
		return nil
	}
	out := make([]OnlyRuleType, len(types))
	for i, t := range types {
		out[i] = OnlyRuleType{Type: t.Type, Reference: t.Reference, Canonical: t.Canonical}
	}
	return out
}
