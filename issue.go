package fshc

// IssueSeverity represents the severity of a compiler issue.
// Maps to OperationOutcome.issue.severity in FHIR.
type IssueSeverity string

const (
	// SeverityFatal indicates the issue is fatal and compilation cannot continue.
	SeverityFatal IssueSeverity = "fatal"
	// SeverityError indicates an error that excludes the affected entity from the output.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a potential problem that should be reviewed.
	SeverityWarning IssueSeverity = "warning"
	// SeverityInformation indicates informational feedback.
	SeverityInformation IssueSeverity = "information"
)

// IssueCode identifies the kind of compiler issue.
type IssueCode string

const (
	// CodeTypeNotFound indicates a requested type or profile identifier
	// could not be resolved against the tank or the type hierarchy.
	CodeTypeNotFound IssueCode = "type-not-found"
	// CodeInvalidType indicates no existing type slot is compatible with a
	// requested type constraint.
	CodeInvalidType IssueCode = "invalid-type"
	// CodeNonAbstractParent indicates an illegal specialization of a
	// concrete (non-abstract) type.
	CodeNonAbstractParent IssueCode = "non-abstract-parent"
	// CodeInvalidTarget indicates a supplied target type addresses no
	// existing type slot.
	CodeInvalidTarget IssueCode = "invalid-target"
	// CodeCyclicDependency indicates a parent chain revisits an entity that
	// is still being exported.
	CodeCyclicDependency IssueCode = "cyclic-dependency"
	// CodeUnresolvedParent indicates a declared parent could not be located
	// or failed to export itself.
	CodeUnresolvedParent IssueCode = "unresolved-parent"
	// CodeDuplicateDeclaration indicates two same-kind entities share a name.
	CodeDuplicateDeclaration IssueCode = "duplicate-declaration"
	// CodeConstrainedParentElement indicates a logical model or resource
	// redeclares an element inherited from its parent.
	CodeConstrainedParentElement IssueCode = "constrained-parent-element"
	// CodeAmbiguousInstance indicates an instance's rule content satisfies
	// more than one masquerading-kind predicate.
	CodeAmbiguousInstance IssueCode = "ambiguous-instance"
	// CodeInvalidRule indicates a rule that could not be applied to its
	// target element.
	CodeInvalidRule IssueCode = "invalid-rule"
	// CodeInvalidExpression indicates an invariant's FHIRPath expression
	// failed to compile.
	CodeInvalidExpression IssueCode = "invalid-expression"
	// CodeProcessing indicates a generic processing error.
	CodeProcessing IssueCode = "processing"
)

// Issue represents a single diagnostic produced during compilation.
type Issue struct {
	// Severity of the issue.
	Severity IssueSeverity `json:"severity"`

	// Code identifying the kind of issue.
	Code IssueCode `json:"code"`

	// Diagnostics contains human-readable details about the issue.
	Diagnostics string `json:"diagnostics,omitempty"`

	// Entity is the name of the authored entity the issue belongs to.
	Entity string `json:"entity,omitempty"`

	// File is the FSH source file the issue originates from.
	File string `json:"file,omitempty"`

	// Line is the source line number, if position tracking is available.
	Line int `json:"line,omitempty"`

	// Column is the source column number, if position tracking is available.
	Column int `json:"column,omitempty"`
}

// IsError returns true if this is an error or fatal issue.
func (i Issue) IsError() bool {
	return i.Severity == SeverityError || i.Severity == SeverityFatal
}

// IsWarning returns true if this is a warning.
func (i Issue) IsWarning() bool {
	return i.Severity == SeverityWarning
}

// String returns a human-readable representation of the issue.
func (i Issue) String() string {
	s := string(i.Severity) + ": " + i.Diagnostics
	if i.File != "" {
		s += " (" + i.File
		if i.Line > 0 {
			s += ":" + itoa(i.Line)
			if i.Column > 0 {
				s += ":" + itoa(i.Column)
			}
		}
		s += ")"
	}
	return s
}

// itoa avoids pulling strconv into a package with no other need for it.
func itoa(n int) string {
	if n <= 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// IssueBuilder provides a fluent API for building issues.
type IssueBuilder struct {
	issue Issue
}

// NewIssue creates a new IssueBuilder.
func NewIssue(severity IssueSeverity, code IssueCode) *IssueBuilder {
	return &IssueBuilder{
		issue: Issue{
			Severity: severity,
			Code:     code,
		},
	}
}

// Diagnostics sets the human-readable message.
func (b *IssueBuilder) Diagnostics(msg string) *IssueBuilder {
	b.issue.Diagnostics = msg
	return b
}

// Entity sets the owning entity name.
func (b *IssueBuilder) Entity(name string) *IssueBuilder {
	b.issue.Entity = name
	return b
}

// At sets the source provenance.
func (b *IssueBuilder) At(file string, line, column int) *IssueBuilder {
	b.issue.File = file
	b.issue.Line = line
	b.issue.Column = column
	return b
}

// Build returns the constructed issue.
func (b *IssueBuilder) Build() Issue {
	return b.issue
}
