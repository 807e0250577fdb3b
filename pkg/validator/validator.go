// Package validator checks skills against the structural rules of the
// skill specification and records the outcome on the skill itself.
package validator

import (
	"fmt"
	"unicode/utf8"

	"github.com/arthur-debert/agentloom/pkg/logging"
	"github.com/arthur-debert/agentloom/pkg/skill"
)

// Field thresholds.
const (
	MaxNameLength          = 64
	MaxDescriptionLength   = 1024
	MaxCompatibilityLength = 500

	// MinDescriptionLength is a soft quality floor
	MinDescriptionLength = 20

	// MaxDocumentLines is a soft ceiling on the primary document
	MaxDocumentLines = 500
)

// Issue codes.
const (
	CodeFrontmatterInvalid   = "FRONTMATTER_INVALID"
	CodeNameRequired         = "NAME_REQUIRED"
	CodeNameMismatch         = "NAME_MISMATCH"
	CodeNameCharset          = "NAME_CHARSET"
	CodeNameTooLong          = "NAME_TOO_LONG"
	CodeDescriptionRequired  = "DESCRIPTION_REQUIRED"
	CodeDescriptionTooLong   = "DESCRIPTION_TOO_LONG"
	CodeDescriptionTooShort  = "DESCRIPTION_TOO_SHORT"
	CodeCompatibilityTooLong = "COMPATIBILITY_TOO_LONG"
	CodeLicenseMissing       = "LICENSE_MISSING"
	CodeDocumentTooLong      = "DOCUMENT_TOO_LONG"
)

// Validate runs every rule against s and sets s.Status. All rules run
// regardless of earlier findings so one pass surfaces every issue.
//
// In strict mode warnings count as blocking for the aggregate status,
// but each issue keeps the severity its rule assigned.
func Validate(s *skill.Skill, strict bool) skill.ValidationStatus {
	issues := run(s)

	errorCount := 0
	warningCount := 0
	for _, issue := range issues {
		switch issue.Severity {
		case skill.SeverityError:
			errorCount++
		case skill.SeverityWarning:
			warningCount++
		}
	}

	blocking := errorCount
	if strict {
		blocking += warningCount
	}

	var status skill.ValidationStatus
	switch {
	case blocking > 0:
		status = skill.Invalid(issues)
	case warningCount > 0:
		status = skill.Warning(issues)
	default:
		status = skill.Valid()
	}

	s.Status = status
	return status
}

// ValidateAll validates every skill in place and returns their statuses
// in the same order.
func ValidateAll(skills []*skill.Skill, strict bool) []skill.ValidationStatus {
	logger := logging.GetLogger("validator")

	statuses := make([]skill.ValidationStatus, len(skills))
	for i, s := range skills {
		statuses[i] = Validate(s, strict)
	}

	logger.Debug().Int("count", len(skills)).Bool("strict", strict).Msg("Validated skills")
	return statuses
}

// run produces the ordered, complete issue list for a skill.
func run(s *skill.Skill) []skill.Issue {
	var issues []skill.Issue

	addError := func(code, message, fixHint string) {
		issues = append(issues, skill.Issue{
			Code: code, Message: message, FixHint: fixHint,
			Severity: skill.SeverityError,
		})
	}
	addWarning := func(code, message, fixHint string) {
		issues = append(issues, skill.Issue{
			Code: code, Message: message, FixHint: fixHint,
			Severity: skill.SeverityWarning,
		})
	}

	// Parse recovery findings block outright
	for _, parseIssue := range s.ParseIssues {
		addError(CodeFrontmatterInvalid, parseIssue, "")
	}

	name := s.Meta.Name
	if name == "" {
		addError(CodeNameRequired, "name is required", "add a name field to the frontmatter")
	} else {
		if name != s.FolderName {
			addError(CodeNameMismatch,
				fmt.Sprintf("name '%s' does not match folder name '%s'", name, s.FolderName),
				fmt.Sprintf("set name to '%s'", s.FolderName))
		}
		if !skill.IsValidName(name) {
			addError(CodeNameCharset,
				fmt.Sprintf("name '%s' contains invalid characters (allowed: letters, digits, '-', '_')", name),
				fmt.Sprintf("rename to '%s'", skill.Slug(name)))
		}
		if n := utf8.RuneCountInString(name); n > MaxNameLength {
			addError(CodeNameTooLong,
				fmt.Sprintf("name exceeds %d characters (has %d)", MaxNameLength, n), "")
		}
	}

	desc := s.Meta.Description
	descLen := utf8.RuneCountInString(desc)
	switch {
	case desc == "":
		addError(CodeDescriptionRequired, "description is required",
			"add a description field to the frontmatter")
	case descLen > MaxDescriptionLength:
		addError(CodeDescriptionTooLong,
			fmt.Sprintf("description exceeds %d characters (has %d)", MaxDescriptionLength, descLen), "")
	case descLen < MinDescriptionLength:
		addWarning(CodeDescriptionTooShort,
			fmt.Sprintf("description is only %d characters; aim for at least %d", descLen, MinDescriptionLength),
			"describe what the skill does and when to use it")
	}

	if n := utf8.RuneCountInString(s.Meta.Compatibility); n > MaxCompatibilityLength {
		addError(CodeCompatibilityTooLong,
			fmt.Sprintf("compatibility exceeds %d characters (has %d)",
				MaxCompatibilityLength, n), "")
	}

	if s.Meta.License == "" {
		addWarning(CodeLicenseMissing, "no license declared", "add a license field")
	}

	if s.DocumentLines > MaxDocumentLines {
		addWarning(CodeDocumentTooLong,
			fmt.Sprintf("document has %d lines; consider splitting content over %d lines into references/",
				s.DocumentLines, MaxDocumentLines), "")
	}

	return issues
}
