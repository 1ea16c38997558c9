// Package export implements the dependency-ordered emission of authored
// structures: for each structure its locally-authored parent is fully
// resolved first, rules are applied against the inherited element list,
// and one entity's failure never aborts the others.
package export

import (
	"time"

	fshc "github.com/gofhir/fshc"
	"github.com/gofhir/fshc/apply"
	"github.com/gofhir/fshc/fishing"
	"github.com/gofhir/fshc/fsh"
	"github.com/gofhir/fshc/logger"
	"github.com/gofhir/fshc/service"
)

// state is the export lifecycle of one entity key.
type state int

const (
	notStarted state = iota
	inProgress
	done
	doneWithError
)

// Session is the per-run export context. All caches (the tri-state map,
// the artifact cache, and the documents' applied-rule-set caches) are
// scoped to one session; concurrent compilations each get their own.
type Session struct {
	tank    *fsh.Tank
	fisher  *fishing.Fisher
	oracle  service.TypeResolver
	snaps   service.SnapshotSource
	applier *apply.Applier
	opts    *fshc.Options
	metrics *fshc.Metrics
	log     *logger.Logger

	states    map[string]state
	artifacts map[string]*service.StructureDefinition
	result    *fshc.Result
}

// NewSession creates a session over a tank and its collaborators.
func NewSession(tank *fsh.Tank, fisher *fishing.Fisher, oracle service.TypeResolver, snaps service.SnapshotSource, opts *fshc.Options) *Session {
	if opts == nil {
		opts = fshc.DefaultOptions()
	}
	s := &Session{
		tank:      tank,
		fisher:    fisher,
		oracle:    oracle,
		snaps:     snaps,
		opts:      opts,
		metrics:   fshc.NewMetrics(),
		log:       logger.Default(),
		states:    make(map[string]state),
		artifacts: make(map[string]*service.StructureDefinition),
		result:    fshc.NewResult(),
	}
	s.result.SetStrict(opts.StrictMode)
	s.applier = apply.New(oracle, snaps, fisher)
	fisher.SetMetrics(s.metrics)
	if fisher.OnIssue == nil {
		fisher.OnIssue = s.result.AddIssue
	}
	return s
}

// SetLogger replaces the session logger.
func (s *Session) SetLogger(l *logger.Logger) {
	if l != nil {
		s.log = l
	}
}

// Metrics returns the session's metrics collector.
func (s *Session) Metrics() *fshc.Metrics { return s.metrics }

// Export exports every authored structure in the tank, in document order,
// parents always before children. The result carries exactly one artifact
// per succeeding entity plus the collected diagnostics.
func (s *Session) Export() *fshc.Result {
	for _, dup := range s.tank.Duplicates() {
		s.result.AddIssue(fshc.NewIssue(fshc.SeverityError, fshc.CodeDuplicateDeclaration).
			Diagnostics(dup.Kind.String()+" "+dup.Name+" is already declared; the first declaration wins").
			Entity(dup.Name).
			At(dup.Dup.File, dup.Dup.Line, dup.Dup.Column).
			Build())
	}

	for _, ent := range s.tank.Structures() {
		start := time.Now()
		s.export(ent)
		key := entityKey(ent)
		s.metrics.RecordExport(time.Since(start), s.states[key] == done)
	}
	return s.result
}

// Result returns the result accumulated so far.
func (s *Session) Result() *fshc.Result { return s.result }

// Artifact returns the cached artifact for an entity, when its export
// succeeded.
func (s *Session) Artifact(ent fsh.StructureEntity) (*service.StructureDefinition, bool) {
	sd, ok := s.artifacts[entityKey(ent)]
	return sd, ok
}

func entityKey(ent fsh.StructureEntity) string {
	return ent.Kind().String() + "|" + ent.EntityName()
}

// fail records an entity-level failure: the diagnostic is logged with
// provenance, the entity is marked done-with-error, and no artifact is
// produced for it.
func (s *Session) fail(ent fsh.StructureEntity, code fshc.IssueCode, msg string) {
	loc := ent.Location()
	issue := fshc.NewIssue(fshc.SeverityError, code).
		Diagnostics(msg).
		Entity(ent.EntityName()).
		At(loc.File, loc.Line, loc.Column).
		Build()
	s.result.AddIssue(issue)
	s.metrics.RecordIssue(issue.Severity)
	s.log.Error("export failed: %s", issue.String())
	s.states[entityKey(ent)] = doneWithError
}

// warnRule records a per-rule failure without failing the entity.
func (s *Session) warnRule(ent fsh.StructureEntity, code fshc.IssueCode, msg string, loc fsh.SourceLocation) {
	issue := fshc.NewIssue(fshc.SeverityError, code).
		Diagnostics(msg).
		Entity(ent.EntityName()).
		At(loc.File, loc.Line, loc.Column).
		Build()
	s.result.AddIssue(issue)
	s.metrics.RecordIssue(issue.Severity)
	s.log.Debug("rule skipped: %s", issue.String())
}
