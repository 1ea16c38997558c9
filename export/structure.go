package export

import (
	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/fishing"
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/service"
	"github.com/gofhir/fshc/walker"
)

// UniversalBaseURL is the base definition used when a specialization
// declares no parent.
const UniversalBaseURL = fishing.HL7StructureDefinitionPrefix + "Base"

// export drives one entity (and, on demand, its locally-authored parent
// chain) to a terminal state. The traversal is an iterative depth-first
// walk over an explicit stack so that long parent chains cannot exhaust
// the call stack.
func (s *Session) export(root fsh.StructureEntity) {
	stack := []fsh.StructureEntity{root}

	for len(stack) > 0 {
		ent := stack[len(stack)-1]
		key := entityKey(ent)

		switch s.states[key] {
		case done, doneWithError:
			stack = stack[:len(stack)-1]
			continue
		case notStarted:
			s.states[key] = inProgress
		}

		parent := s.localParent(ent)
		if parent == nil {
			// Externally-defined or absent parent; resolve and build now.
			s.materialize(ent, nil)
			stack = stack[:len(stack)-1]
			continue
		}

		switch s.states[entityKey(parent)] {
		case done:
			s.materialize(ent, s.artifacts[entityKey(parent)])
			stack = stack[:len(stack)-1]
		case doneWithError:
			s.fail(ent, fshc.CodeUnresolvedParent,
				ent.Kind().String()+" "+ent.EntityName()+" has parent "+parent.EntityName()+", which failed to export")
			stack = stack[:len(stack)-1]
		case inProgress:
			s.fail(ent, fshc.CodeCyclicDependency,
				ent.Kind().String()+" "+ent.EntityName()+" depends on itself through its parent chain")
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, parent)
		}
	}
}

// localParent returns the authored structure the entity's declared parent
// names, or nil when the parent is external, defaulted, or absent.
func (s *Session) localParent(ent fsh.StructureEntity) fsh.StructureEntity {
	name := ent.Core().Parent
	if name == "" {
		return nil
	}
	e := s.fisher.Fish(name, fsh.KindProfile, fsh.KindExtension, fsh.KindLogical, fsh.KindResource)
	if e == nil {
		return nil
	}
	se, ok := e.(fsh.StructureEntity)
	if !ok {
		return nil
	}
	// An instance masquerading as a structure is treated as external: it
	// has no authored rules to export through this path.
	return se
}

// baseFor resolves the structure definition the entity inherits from.
// parentArtifact is non-nil when a locally-authored parent was exported.
func (s *Session) baseFor(ent fsh.StructureEntity, parentArtifact *service.StructureDefinition) (*service.StructureDefinition, bool) {
	if parentArtifact != nil {
		return parentArtifact, true
	}

	name := ent.Core().Parent
	if name == "" {
		name = defaultParent(ent.Kind())
		if name == "" {
			return nil, false
		}
	} else {
		name = s.fisher.ResolveAlias(name)
	}
	return s.snaps.Snapshot(name)
}

// defaultParent names the base each kind falls back to when no parent is
// declared. Profiles have no sensible default and must declare one.
func defaultParent(k fsh.Kind) string {
	switch k {
	case fsh.KindExtension:
		return "Extension"
	case fsh.KindLogical:
		return "Base"
	case fsh.KindResource:
		return "DomainResource"
	default:
		return ""
	}
}

// materialize builds the entity's artifact: inherit the parent's element
// list, apply the entity's rules, and cache the result. Entity-level
// failures exclude the entity; rule-level failures skip the rule.
func (s *Session) materialize(ent fsh.StructureEntity, parentArtifact *service.StructureDefinition) {
	core := ent.Core()

	if ent.Kind() == fsh.KindProfile && core.Parent == "" {
		s.fail(ent, fshc.CodeUnresolvedParent, "Profile "+core.Name+" must declare a parent")
		return
	}

	base, ok := s.baseFor(ent, parentArtifact)
	if !ok {
		s.fail(ent, fshc.CodeUnresolvedParent,
			ent.Kind().String()+" "+core.Name+" has unresolved parent "+core.Parent)
		return
	}

	id := core.EntityID()
	url := fsh.CanonicalURL(s.tank.Config.Canonical, ent.Kind(), id)

	sd := &service.StructureDefinition{
		ID:             id,
		URL:            url,
		Name:           core.Name,
		Title:          core.Title,
		BaseDefinition: base.URL,
		FHIRVersion:    s.opts.Version.VersionString(),
	}
	if sd.BaseDefinition == "" {
		sd.BaseDefinition = UniversalBaseURL
	}

	list := walker.FromSnapshot(base)

	switch ent.Kind() {
	case fsh.KindProfile:
		sd.Derivation = "constraint"
		sd.Type = base.Type
		sd.Kind = base.Kind
	case fsh.KindExtension:
		sd.Derivation = "constraint"
		sd.Type = "Extension"
		sd.Kind = service.KindComplexType
		if ext, isExt := ent.(*fsh.Extension); isExt {
			sd.Context = append([]string(nil), ext.Contexts...)
		}
	case fsh.KindLogical:
		sd.Derivation = "specialization"
		sd.Kind = service.KindLogical
		sd.Type = fishing.LogicalSDType(url)
		list.Rebase(id)
	case fsh.KindResource:
		sd.Derivation = "specialization"
		sd.Kind = service.KindResource
		sd.Type = id
		list.Rebase(id)
	}

	// Inherited paths are frozen before any rule runs; specializations may
	// only add elements, never redeclare these.
	inherited := make(map[string]bool, len(list.Elements))
	for i := range list.Elements {
		inherited[list.Elements[i].Path] = true
	}

	s.applyRules(ent, sd, list, inherited)

	sd.Snapshot = list.Elements
	if s.opts.EmitDifferential {
		sd.Differential = differential(base, sd, inherited)
	}

	s.artifacts[entityKey(ent)] = sd
	s.states[entityKey(ent)] = done
	s.result.AddArtifact(sd)
	s.log.Debug("exported %s %s (%s)", ent.Kind().String(), core.Name, url)
}
