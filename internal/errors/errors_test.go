package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := errors.New("open config.toml: permission denied")
	err := New(ConfigInvalid, "cannot load configuration", cause)

	if err.Code != ConfigInvalid {
		t.Errorf("Code = %v, want %v", err.Code, ConfigInvalid)
	}
	if err.Message != "cannot load configuration" {
		t.Errorf("Message = %q", err.Message)
	}
	if len(err.SuggestedFixes) != 2 {
		t.Errorf("len(SuggestedFixes) = %d, want 2", len(err.SuggestedFixes))
	}
}

func TestError_Error(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		wantParts []string
	}{
		{
			name:      "with cause",
			err:       New(EmitFailed, "write com.example.Api", errors.New("disk full")),
			wantParts: []string{"EMIT_FAILED", "write com.example.Api", "disk full"},
		},
		{
			name:      "without cause",
			err:       Newf(SeedConflict, "%d conflicting seeds", 2),
			wantParts: []string{"SEED_CONFLICT", "2 conflicting seeds"},
		},
		{
			name: "with diagnostic lines",
			err: Newf(UnresolvedType, "unresolved types").WithDetails([]string{
				"com.example.A.m: Missing",
				"com.example.B: Gone",
			}),
			wantParts: []string{"UNRESOLVED_TYPE", "\n  com.example.A.m: Missing", "\n  com.example.B: Gone"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see the cause")
	}

	errNoCause := Newf(LedgerFailed, "no ledger")
	if errNoCause.Unwrap() != nil {
		t.Errorf("Unwrap() on error without cause should return nil")
	}
}

func TestIs(t *testing.T) {
	inner := Newf(UnresolvedType, "unresolved")
	outer := New(EmitFailed, "emit", inner)
	wrapped := fmt.Errorf("run: %w", outer)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"outer code", wrapped, EmitFailed, true},
		{"inner code", wrapped, UnresolvedType, true},
		{"absent code", wrapped, SeedConflict, false},
		{"plain error", errors.New("x"), InternalError, false},
		{"nil", nil, InternalError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}

	if code, ok := CodeOf(wrapped); !ok || code != EmitFailed {
		t.Errorf("CodeOf = %v, %v", code, ok)
	}
}

func TestGetSuggestedFixes(t *testing.T) {
	tests := []struct {
		code    ErrorCode
		wantNil bool
		wantLen int
	}{
		{ConfigInvalid, false, 2},
		{SeedConflict, false, 1},
		{ScopeViolation, false, 1},
		{ExcludedAncestor, false, 1},
		{UnresolvedType, false, 1},
		{LedgerFailed, false, 1},
		{EmitFailed, true, 0},
		{InternalError, true, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			fixes := GetSuggestedFixes(tt.code)

			if tt.wantNil && fixes != nil {
				t.Errorf("GetSuggestedFixes(%v) = %v, want nil", tt.code, fixes)
			}
			if !tt.wantNil && len(fixes) != tt.wantLen {
				t.Errorf("GetSuggestedFixes(%v) len = %d, want %d", tt.code, len(fixes), tt.wantLen)
			}
		})
	}
}

func TestErrorCodes(t *testing.T) {
	codes := []ErrorCode{
		ConfigInvalid,
		SeedConflict,
		ScopeViolation,
		ExcludedAncestor,
		UnresolvedType,
		EmitFailed,
		SourceParseFailed,
		LedgerFailed,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true
		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}

func TestErrorActionsMap(t *testing.T) {
	for code, fixes := range ErrorActions {
		if len(fixes) == 0 {
			t.Errorf("ErrorActions[%v] has no fix actions", code)
		}
		for i, fix := range fixes {
			if fix.Type == "" {
				t.Errorf("ErrorActions[%v][%d].Type is empty", code, i)
			}
			if fix.Description == "" {
				t.Errorf("ErrorActions[%v][%d].Description is empty", code, i)
			}
		}
	}
}
