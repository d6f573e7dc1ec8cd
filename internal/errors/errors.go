package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigInvalid indicates missing or malformed configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// SeedConflict indicates a declaration marked both included and excluded
	SeedConflict ErrorCode = "SEED_CONFLICT"
	// ScopeViolation indicates an included seed outside the base packages
	ScopeViolation ErrorCode = "SCOPE_VIOLATION"
	// ExcludedAncestor indicates an included declaration nested in an excluded one
	ExcludedAncestor ErrorCode = "EXCLUDED_ANCESTOR"
	// UnresolvedType indicates a type reference the host could not resolve
	UnresolvedType ErrorCode = "UNRESOLVED_TYPE"
	// EmitFailed indicates an artifact could not be generated or written
	EmitFailed ErrorCode = "EMIT_FAILED"
	// SourceParseFailed indicates an input file could not be read or parsed
	SourceParseFailed ErrorCode = "SOURCE_PARSE_FAILED"
	// LedgerFailed indicates the artifact ledger could not be opened or updated
	LedgerFailed ErrorCode = "LEDGER_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration key
	EditConfig FixActionType = "edit-config"
	// EditSource suggests changing an annotation in source
	EditSource FixActionType = "edit-source"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Key         string        `json:"key,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// Error is an apiextract error with code, message, and suggestions
type Error struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates an Error with the default fixes for its code
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Newf is New with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)
	if e.cause != nil {
		fmt.Fprintf(&sb, ": %v", e.cause)
	}
	if lines, ok := e.Details.([]string); ok {
		for _, l := range lines {
			sb.WriteString("\n  ")
			sb.WriteString(l)
		}
	}
	return sb.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *Error) WithDetails(details interface{}) *Error {
	e.Details = details
	return e
}

// Is reports whether err or any error it wraps is an *Error with the given code.
func Is(err error, code ErrorCode) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.cause
	}
	return false
}

// CodeOf returns the code of the outermost *Error in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "apiextract init",
			Safe:        true,
			Description: "Write a default .apiextract/config.toml",
		},
		{
			Type:        EditConfig,
			Key:         "basePackages",
			Description: "List the package prefixes that make up the public API",
		},
	},
	SeedConflict: {
		{
			Type:        EditSource,
			Description: "Remove either the include or the exclude marker from the declaration",
		},
	},
	ScopeViolation: {
		{
			Type:        EditConfig,
			Key:         "basePackages",
			Description: "Add the declaration's package to basePackages or drop its include marker",
		},
	},
	ExcludedAncestor: {
		{
			Type:        EditSource,
			Description: "Exclude the nested declaration too, or stop excluding its enclosing declaration",
		},
	},
	UnresolvedType: {
		{
			Type:        EditSource,
			Description: "Add the missing import or include the defining sources in the input set",
		},
	},
	LedgerFailed: {
		{
			Type:        RunCommand,
			Command:     "apiextract extract --no-ledger",
			Safe:        true,
			Description: "Run without recording artifacts",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
