package apperror

import (
	"errors"
	"fmt"
	"testing"
)

// Table-driven check that every constructor wraps its sentinel, and that
// the categories don't bleed into each other — the HTTP status mapping
// depends entirely on these errors.Is relationships.
func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("snippet", "abc123"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("language", "unsupported language"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "alice"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Forbidden wraps ErrForbidden",
			err:       Forbidden("not your snippet"),
			target:    ErrForbidden,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("login required"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "Forbidden does NOT match ErrUnauthorized",
			err:       Forbidden("not your snippet"),
			target:    ErrUnauthorized,
			wantMatch: false,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("snippet", "abc123"),
			target:    ErrValidation,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// Sentinels must survive further wrapping — the service layer adds
// fmt.Errorf("%w") context on the way up.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("updating snippet: %w", NotFound("snippet", "xyz"))
	if !errors.Is(err, ErrNotFound) {
		t.Error("wrapped NotFound no longer matches ErrNotFound")
	}
}

func TestValidationFailed_CarriesField(t *testing.T) {
	err := ValidationFailed("style", "unsupported style")

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatal("errors.As failed to extract *AppError")
	}
	if appErr.Field != "style" {
		t.Errorf("Field = %q, want %q", appErr.Field, "style")
	}
	if appErr.Error() != "unsupported style" {
		t.Errorf("Error() = %q, want %q", appErr.Error(), "unsupported style")
	}
}

func TestNotFound_MessageNamesResourceAndID(t *testing.T) {
	err := NotFound("snippet", "abc123")
	want := "snippet not found with id abc123"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
