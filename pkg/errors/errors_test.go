// Test Type: Unit Test
// Description: Tests for the errors package - codes, wrapping and details

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arthur-debert/agentloom/pkg/errors"
)

func TestNew(t *testing.T) {
	err := errors.New(errors.ErrSkillNotFound, "no such skill")

	assert.Equal(t, errors.ErrSkillNotFound, err.Code)
	assert.Contains(t, err.Error(), "SKILL_NOT_FOUND")
	assert.Contains(t, err.Error(), "no such skill")
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := errors.Wrap(cause, errors.ErrFileAccess, "cannot read file")

	assert.Contains(t, err.Error(), "permission denied")
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, errors.Wrap(nil, errors.ErrFileAccess, "never happens"))
}

func TestIsErrorCode(t *testing.T) {
	err := errors.New(errors.ErrTargetNotFound, "nope")
	wrapped := fmt.Errorf("outer: %w", err)

	assert.True(t, errors.IsErrorCode(err, errors.ErrTargetNotFound))
	assert.True(t, errors.IsErrorCode(wrapped, errors.ErrTargetNotFound))
	assert.False(t, errors.IsErrorCode(err, errors.ErrSkillNotFound))
	assert.False(t, errors.IsErrorCode(fmt.Errorf("plain"), errors.ErrTargetNotFound))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, errors.ErrConfigParse,
		errors.GetErrorCode(errors.New(errors.ErrConfigParse, "bad toml")))
	assert.Equal(t, errors.ErrUnknown, errors.GetErrorCode(fmt.Errorf("plain")))
}

func TestWithDetail(t *testing.T) {
	err := errors.New(errors.ErrSymlinkCreate, "failed").
		WithDetail("target", "claude-code").
		WithDetail("skill", "my-skill")

	assert.Equal(t, "claude-code", err.Details["target"])
	assert.Equal(t, "my-skill", err.Details["skill"])
}

func TestIs_MatchesByCode(t *testing.T) {
	a := errors.New(errors.ErrSkillExists, "first")
	b := errors.New(errors.ErrSkillExists, "second")

	assert.True(t, stderrors.Is(a, b))
}
