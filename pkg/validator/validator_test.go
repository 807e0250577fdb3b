// Test Type: Unit Test
// Description: Tests for the validator package - rule coverage, strict
// mode and status aggregation

package validator_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/agentloom/pkg/skill"
	"github.com/arthur-debert/agentloom/pkg/validator"
)

// cleanSkill returns a skill that passes every rule.
func cleanSkill() *skill.Skill {
	return &skill.Skill{
		FolderName: "my-skill",
		Meta: skill.Meta{
			Name:        "my-skill",
			Description: "A description long enough to satisfy the quality floor",
			License:     "MIT",
		},
		Body: "# My Skill\n\nContent.\n",
	}
}

func hasCode(issues []skill.Issue, code string) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func TestValidate_CleanSkillIsValid(t *testing.T) {
	s := cleanSkill()

	status := validator.Validate(s, false)

	assert.Equal(t, skill.StatusValid, status.Kind())
	assert.Empty(t, status.Issues())
	assert.Equal(t, skill.StatusValid, s.Status.Kind(), "status is recorded on the skill")
}

func TestValidate_RuleFindings(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*skill.Skill)
		expectedCode string
		expectedKind skill.StatusKind
	}{
		{
			name:         "missing_name",
			mutate:       func(s *skill.Skill) { s.Meta.Name = "" },
			expectedCode: validator.CodeNameRequired,
			expectedKind: skill.StatusInvalid,
		},
		{
			name:         "name_mismatch",
			mutate:       func(s *skill.Skill) { s.Meta.Name = "other-name" },
			expectedCode: validator.CodeNameMismatch,
			expectedKind: skill.StatusInvalid,
		},
		{
			name: "name_charset",
			mutate: func(s *skill.Skill) {
				s.Meta.Name = "bad name!"
				s.FolderName = "bad name!"
			},
			expectedCode: validator.CodeNameCharset,
			expectedKind: skill.StatusInvalid,
		},
		{
			name: "name_too_long",
			mutate: func(s *skill.Skill) {
				long := strings.Repeat("a", validator.MaxNameLength+1)
				s.Meta.Name = long
				s.FolderName = long
			},
			expectedCode: validator.CodeNameTooLong,
			expectedKind: skill.StatusInvalid,
		},
		{
			name:         "missing_description",
			mutate:       func(s *skill.Skill) { s.Meta.Description = "" },
			expectedCode: validator.CodeDescriptionRequired,
			expectedKind: skill.StatusInvalid,
		},
		{
			name: "description_too_long",
			mutate: func(s *skill.Skill) {
				s.Meta.Description = strings.Repeat("a", validator.MaxDescriptionLength+1)
			},
			expectedCode: validator.CodeDescriptionTooLong,
			expectedKind: skill.StatusInvalid,
		},
		{
			name:         "description_too_short",
			mutate:       func(s *skill.Skill) { s.Meta.Description = "too short" },
			expectedCode: validator.CodeDescriptionTooShort,
			expectedKind: skill.StatusWarning,
		},
		{
			name: "compatibility_too_long",
			mutate: func(s *skill.Skill) {
				s.Meta.Compatibility = strings.Repeat("a", validator.MaxCompatibilityLength+1)
			},
			expectedCode: validator.CodeCompatibilityTooLong,
			expectedKind: skill.StatusInvalid,
		},
		{
			name:         "missing_license",
			mutate:       func(s *skill.Skill) { s.Meta.License = "" },
			expectedCode: validator.CodeLicenseMissing,
			expectedKind: skill.StatusWarning,
		},
		{
			name: "document_too_long",
			mutate: func(s *skill.Skill) {
				s.DocumentLines = validator.MaxDocumentLines + 1
			},
			expectedCode: validator.CodeDocumentTooLong,
			expectedKind: skill.StatusWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := cleanSkill()
			tt.mutate(s)

			status := validator.Validate(s, false)

			assert.Equal(t, tt.expectedKind, status.Kind())
			assert.True(t, hasCode(status.Issues(), tt.expectedCode),
				"expected %s in %v", tt.expectedCode, status.Issues())
		})
	}
}

func TestValidate_BoundaryLengthsPass(t *testing.T) {
	s := cleanSkill()
	name := strings.Repeat("a", validator.MaxNameLength)
	s.Meta.Name = name
	s.FolderName = name
	s.Meta.Description = strings.Repeat("a", validator.MaxDescriptionLength)
	s.Meta.Compatibility = strings.Repeat("a", validator.MaxCompatibilityLength)
	s.DocumentLines = validator.MaxDocumentLines

	status := validator.Validate(s, false)
	assert.Equal(t, skill.StatusValid, status.Kind())
}

func TestValidate_LengthCeilingsCountCharacters(t *testing.T) {
	// Multibyte text near the ceiling is measured in characters, not
	// bytes
	s := cleanSkill()
	s.Meta.Description = strings.Repeat("é", validator.MaxDescriptionLength)

	status := validator.Validate(s, false)
	assert.Equal(t, skill.StatusValid, status.Kind())

	s.Meta.Description = strings.Repeat("é", validator.MaxDescriptionLength+1)
	status = validator.Validate(s, false)
	assert.Equal(t, skill.StatusInvalid, status.Kind())
	assert.True(t, hasCode(status.Issues(), validator.CodeDescriptionTooLong))
}

func TestValidate_AllRulesRun(t *testing.T) {
	// One pass surfaces every issue, no short-circuiting
	s := cleanSkill()
	s.Meta.Name = ""
	s.Meta.Description = ""
	s.Meta.License = ""

	status := validator.Validate(s, false)

	issues := status.Issues()
	assert.True(t, hasCode(issues, validator.CodeNameRequired))
	assert.True(t, hasCode(issues, validator.CodeDescriptionRequired))
	assert.True(t, hasCode(issues, validator.CodeLicenseMissing))
}

func TestValidate_StrictPromotesAggregateOnly(t *testing.T) {
	s := cleanSkill()
	s.Meta.License = ""

	relaxed := validator.Validate(s, false)
	assert.Equal(t, skill.StatusWarning, relaxed.Kind())

	strict := validator.Validate(s, true)
	assert.Equal(t, skill.StatusInvalid, strict.Kind())

	// The issue itself keeps its warning severity
	require.Len(t, strict.Issues(), 1)
	assert.Equal(t, skill.SeverityWarning, strict.Issues()[0].Severity)
}

func TestValidate_ParseIssuesBlock(t *testing.T) {
	s := cleanSkill()
	s.ParseIssues = []string{"invalid YAML in frontmatter"}

	status := validator.Validate(s, false)

	assert.Equal(t, skill.StatusInvalid, status.Kind())
	assert.True(t, hasCode(status.Issues(), validator.CodeFrontmatterInvalid))
}

func TestValidate_Deterministic(t *testing.T) {
	s := cleanSkill()
	s.Meta.Name = "other"
	s.Meta.License = ""

	first := validator.Validate(s, false)
	second := validator.Validate(s, false)

	assert.Equal(t, first.Kind(), second.Kind())
	assert.Equal(t, first.Issues(), second.Issues())
}

func TestValidate_MismatchFixHintNamesFolder(t *testing.T) {
	s := cleanSkill()
	s.Meta.Name = "other-name"

	status := validator.Validate(s, false)

	var hint string
	for _, issue := range status.Issues() {
		if issue.Code == validator.CodeNameMismatch {
			hint = issue.FixHint
		}
	}
	assert.Contains(t, hint, "my-skill")
}

func TestValidateAll(t *testing.T) {
	skills := []*skill.Skill{cleanSkill(), cleanSkill()}
	skills[1].Meta.Description = ""

	statuses := validator.ValidateAll(skills, false)

	require.Len(t, statuses, 2)
	assert.Equal(t, skill.StatusValid, statuses[0].Kind())
	assert.Equal(t, skill.StatusInvalid, statuses[1].Kind())
	assert.Equal(t, skill.StatusInvalid, skills[1].Status.Kind())
}
