package model

import (
	"errors"
	"strings"
	"testing"
)

func TestAPIError_ErrorFormat(t *testing.T) {
	err := &APIError{Code: "TEST_CODE", Message: "something happened"}

	got := err.Error()
	if !strings.Contains(got, "TEST_CODE") || !strings.Contains(got, "something happened") {
		t.Errorf("Error() = %q, want code and message included", got)
	}
}

func TestAPIError_WorksWithErrorsAs(t *testing.T) {
	var err error = NewUserNotFoundError("u1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should match *APIError")
	}
	if apiErr.Code != ErrCodeUserNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, ErrCodeUserNotFound)
	}
}

func TestErrorConstructors_Categories(t *testing.T) {
	tests := []struct {
		name         string
		err          *APIError
		wantCode     string
		wantCategory string
	}{
		{"validation", NewValidationError("email is empty"), ErrCodeValidation, CategoryValidation},
		{"user not found", NewUserNotFoundError("u1"), ErrCodeUserNotFound, CategoryNotFound},
		{"film not found", NewFilmNotFoundError("f1"), ErrCodeFilmNotFound, CategoryNotFound},
		{"director not found", NewDirectorNotFoundError("d1"), ErrCodeDirectorNotFound, CategoryNotFound},
		{"genre not found", NewGenreNotFoundError(99), ErrCodeGenreNotFound, CategoryNotFound},
		{"mpa not found", NewMPANotFoundError(99), ErrCodeMPANotFound, CategoryNotFound},
		{"review not found", NewReviewNotFoundError("r1"), ErrCodeReviewNotFound, CategoryNotFound},
		{"invalid count", NewInvalidCountError(-1), ErrCodeInvalidCount, CategoryInvalidArgument},
		{"invalid search mode", NewInvalidSearchModeError("bogus"), ErrCodeInvalidSearchMode, CategoryInvalidArgument},
		{"invalid sort mode", NewInvalidSortModeError("bogus"), ErrCodeInvalidSortMode, CategoryInvalidArgument},
		{"self friendship", NewSelfFriendshipError("u1"), ErrCodeSelfFriendship, CategoryValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.wantCode)
			}
			if tt.err.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", tt.err.Category, tt.wantCategory)
			}
			if tt.err.Action == "" {
				t.Error("Action should not be empty")
			}
		})
	}
}
