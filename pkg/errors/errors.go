package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown       ErrorCode = "UNKNOWN"
	ErrInternal      ErrorCode = "INTERNAL"
	ErrInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrNotFound      ErrorCode = "NOT_FOUND"
	ErrAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrPermission    ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigSave  ErrorCode = "CONFIG_SAVE"

	// Skill errors
	ErrSkillNotFound      ErrorCode = "SKILL_NOT_FOUND"
	ErrSkillExists        ErrorCode = "SKILL_EXISTS"
	ErrSkillNameInvalid   ErrorCode = "SKILL_NAME_INVALID"
	ErrSkillFileMissing   ErrorCode = "SKILL_FILE_MISSING"
	ErrFrontmatterMissing ErrorCode = "FRONTMATTER_MISSING"
	ErrFrontmatterOpen    ErrorCode = "FRONTMATTER_UNCLOSED"
	ErrFrontmatterParse   ErrorCode = "FRONTMATTER_PARSE"

	// Target errors
	ErrTargetNotFound ErrorCode = "TARGET_NOT_FOUND"
	ErrTargetExists   ErrorCode = "TARGET_EXISTS"
	ErrTargetBuiltin  ErrorCode = "TARGET_BUILTIN"

	// Sync errors
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrSymlinkRemove ErrorCode = "SYMLINK_REMOVE"
	ErrNotManaged    ErrorCode = "NOT_MANAGED"

	// Import errors
	ErrImportConflict ErrorCode = "IMPORT_CONFLICT"
	ErrImportCopy     ErrorCode = "IMPORT_COPY"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileWrite    ErrorCode = "FILE_WRITE"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// LoomError represents a structured error with code and details
type LoomError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *LoomError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *LoomError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *LoomError) Is(target error) bool {
	var targetErr *LoomError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new LoomError with the given code and message
func New(code ErrorCode, message string) *LoomError {
	return &LoomError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new LoomError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *LoomError {
	return &LoomError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a LoomError
func Wrap(err error, code ErrorCode, message string) *LoomError {
	if err == nil {
		return nil
	}
	return &LoomError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *LoomError {
	if err == nil {
		return nil
	}
	return &LoomError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *LoomError) WithDetail(key string, value interface{}) *LoomError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var loomErr *LoomError
	if errors.As(err, &loomErr) {
		return loomErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a LoomError
func GetErrorCode(err error) ErrorCode {
	var loomErr *LoomError
	if errors.As(err, &loomErr) {
		return loomErr.Code
	}
	return ErrUnknown
}
