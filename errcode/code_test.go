package errcode

import (
	"net/http"
	"testing"
)

func TestGetStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"success", ErrSuccess, http.StatusOK},
		{"validation", ErrValidation, http.StatusBadRequest},
		{"capacity", ErrCapacityExceeded, http.StatusBadRequest},
		{"not found", ErrHandoverNotFound, http.StatusNotFound},
		{"conflict", ErrHandoverNotPending, http.StatusConflict},
		{"database", ErrDatabase, http.StatusInternalServerError},
		{"unregistered", 42, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetStatus(tt.code); got != tt.want {
				t.Errorf("GetStatus(%d) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestRanges(t *testing.T) {
	if !IsNotFound(ErrMaterialNotFound) {
		t.Error("ErrMaterialNotFound should be in the not-found range")
	}
	if IsNotFound(ErrCapacityExceeded) {
		t.Error("ErrCapacityExceeded should not be in the not-found range")
	}
	if !IsConflict(ErrStaleStatus) {
		t.Error("ErrStaleStatus should be a conflict")
	}
	if IsConflict(ErrInvalidTransition) {
		t.Error("ErrInvalidTransition is a validation failure, not a conflict")
	}
}

func TestGetMessageUnknown(t *testing.T) {
	if got := GetMessage(-1); got != "internal server error" {
		t.Errorf("GetMessage(-1) = %q", got)
	}
}
