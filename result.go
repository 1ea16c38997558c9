package fshc

import (
	"sync"

	"github.com/gofhir/fshc/service"
)

// Result contains the outcome of one compilation run.
// A run over N requested entities with K failures carries exactly N-K
// artifacts and at least K error issues.
type Result struct {
	// Artifacts holds the successfully exported structure definitions,
	// in dependency order (parents before children).
	Artifacts []*service.StructureDefinition `json:"artifacts,omitempty"`

	// Issues contains all diagnostics collected during the run.
	Issues []Issue `json:"issues,omitempty"`

	// mu protects concurrent access to Issues.
	mu sync.Mutex

	// strict treats warnings as failures when reporting success.
	strict bool
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{
		Issues: make([]Issue, 0, 8),
	}
}

// AddIssue appends a diagnostic to the result.
// This method is thread-safe.
func (r *Result) AddIssue(issue Issue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Issues = append(r.Issues, issue)
}

// AddArtifact appends an exported artifact to the result.
func (r *Result) AddArtifact(sd *service.StructureDefinition) {
	r.Artifacts = append(r.Artifacts, sd)
}

// SetStrict makes Succeeded treat warnings as failures.
func (r *Result) SetStrict(enable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strict = enable
}

// Succeeded is true if no error or fatal issues were collected. In strict
// mode warnings also count as failures.
func (r *Result) Succeeded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, i := range r.Issues {
		if i.IsError() || (r.strict && i.IsWarning()) {
			return false
		}
	}
	return true
}

// ErrorCount returns the number of error and fatal issues.
func (r *Result) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, i := range r.Issues {
		if i.IsError() {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning issues.
func (r *Result) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, i := range r.Issues {
		if i.IsWarning() {
			n++
		}
	}
	return n
}

// Errors returns only the error and fatal issues.
func (r *Result) Errors() []Issue {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Issue
	for _, i := range r.Issues {
		if i.IsError() {
			out = append(out, i)
		}
	}
	return out
}

// Artifact returns the artifact with the given id, or nil.
func (r *Result) Artifact(id string) *service.StructureDefinition {
	for _, sd := range r.Artifacts {
		if sd.ID == id {
			return sd
		}
	}
	return nil
}
