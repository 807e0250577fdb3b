package skill

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. It carries no ownership semantics;
// the rule that produced it decides its severity.
type Issue struct {
	// Code is a stable identifier, e.g. NAME_MISMATCH
	Code string

	// Message is the human-readable finding
	Message string

	// FixHint optionally suggests a concrete fix
	FixHint string

	// Severity is the rule's own classification; strict mode never
	// rewrites it
	Severity Severity
}

// StatusKind enumerates the validation states of a skill.
type StatusKind int

const (
	// StatusNotValidated means no validation has run; callers must
	// never treat it as passing
	StatusNotValidated StatusKind = iota
	StatusValid
	StatusWarning
	StatusInvalid
)

// String returns the kind's display name.
func (k StatusKind) String() string {
	switch k {
	case StatusValid:
		return "valid"
	case StatusWarning:
		return "warning"
	case StatusInvalid:
		return "invalid"
	default:
		return "not-validated"
	}
}

// ValidationStatus is a closed sum: the issue list exists only in the
// Warning and Invalid states, so a Valid status can never carry issues.
type ValidationStatus struct {
	kind   StatusKind
	issues []Issue
}

// NotValidated is the zero status.
func NotValidated() ValidationStatus {
	return ValidationStatus{kind: StatusNotValidated}
}

// Valid is the passing status; it carries no issues.
func Valid() ValidationStatus {
	return ValidationStatus{kind: StatusValid}
}

// Warning carries the warnings that were found.
func Warning(issues []Issue) ValidationStatus {
	return ValidationStatus{kind: StatusWarning, issues: copyIssues(issues)}
}

// Invalid carries every issue that was found.
func Invalid(issues []Issue) ValidationStatus {
	return ValidationStatus{kind: StatusInvalid, issues: copyIssues(issues)}
}

// Kind returns the state.
func (v ValidationStatus) Kind() StatusKind {
	return v.kind
}

// Issues returns a copy of the carried issue list. Valid and
// NotValidated statuses return nil.
func (v ValidationStatus) Issues() []Issue {
	return copyIssues(v.issues)
}

// IsValid reports whether the skill passed validation. NotValidated is
// not passing.
func (v ValidationStatus) IsValid() bool {
	return v.kind == StatusValid
}

// Validated reports whether validation has run at all.
func (v ValidationStatus) Validated() bool {
	return v.kind != StatusNotValidated
}

func copyIssues(issues []Issue) []Issue {
	if len(issues) == 0 {
		return nil
	}
	out := make([]Issue, len(issues))
	copy(out, issues)
	return out
}
