// Package errcode defines the numeric error codes returned in API envelopes
// and maps each one to an HTTP status and a default message.
package errcode

import "net/http"

// Common codes (100xxx).
const (
	// ErrSuccess - 200.
	ErrSuccess int = iota + 100000
	// ErrUnknown - 500.
	ErrUnknown
	// ErrBind - 400: request body could not be decoded.
	ErrBind
	// ErrValidation - 400: a field is missing or malformed.
	ErrValidation
	// ErrTokenInvalid - 401.
	ErrTokenInvalid
	// ErrForbidden - 403.
	ErrForbidden
	// ErrCredentials - 401: login failed.
	ErrCredentials
)

// Not found codes (101xxx).
const (
	ErrEquipmentNotFound int = iota + 101000
	ErrTaskNotFound
	ErrWorkOrderNotFound
	ErrHandoverNotFound
	ErrNoteNotFound
	ErrPersonnelNotFound
	ErrShiftNotFound
	ErrMethodNotFound
	ErrMaterialNotFound
	ErrLaboratoryNotFound
)

// Scheduling rule violations (102xxx).
const (
	// ErrCapacityExceeded - 400.
	ErrCapacityExceeded int = iota + 102000
	// ErrInvalidTransition - 400: the current status does not allow the operation.
	ErrInvalidTransition
	// ErrEquipmentUnavailable - 400: equipment is under maintenance or out of service.
	ErrEquipmentUnavailable
	// ErrSkillMissing - 400.
	ErrSkillMissing
	// ErrPersonnelInactive - 400.
	ErrPersonnelInactive
	// ErrOffShift - 400: personnel has no shift on the planned date.
	ErrOffShift
	// ErrTechnicianMismatch - 400.
	ErrTechnicianMismatch
)

// Concurrency conflicts (103xxx). Callers should re-fetch and retry.
const (
	// ErrConflict - 409.
	ErrConflict int = iota + 103000
	// ErrHandoverNotPending - 409.
	ErrHandoverNotPending
	// ErrStaleStatus - 409: the row changed status between read and write.
	ErrStaleStatus
)

// Material codes (104xxx).
const (
	// ErrInsufficientStock - 400.
	ErrInsufficientStock int = iota + 104000
)

// Database codes (105xxx).
const (
	// ErrDatabase - 500.
	ErrDatabase int = iota + 105000
)

type meta struct {
	status  int
	message string
}

var codes = map[int]meta{
	ErrSuccess:      {http.StatusOK, "ok"},
	ErrUnknown:      {http.StatusInternalServerError, "internal server error"},
	ErrBind:         {http.StatusBadRequest, "invalid request body"},
	ErrValidation:   {http.StatusBadRequest, "validation failed"},
	ErrTokenInvalid: {http.StatusUnauthorized, "invalid or missing token"},
	ErrForbidden:    {http.StatusForbidden, "forbidden"},
	ErrCredentials:  {http.StatusUnauthorized, "invalid credentials"},

	ErrEquipmentNotFound:  {http.StatusNotFound, "equipment not found"},
	ErrTaskNotFound:       {http.StatusNotFound, "task not found"},
	ErrWorkOrderNotFound:  {http.StatusNotFound, "work order not found"},
	ErrHandoverNotFound:   {http.StatusNotFound, "handover not found"},
	ErrNoteNotFound:       {http.StatusNotFound, "handover note not found"},
	ErrPersonnelNotFound:  {http.StatusNotFound, "personnel not found"},
	ErrShiftNotFound:      {http.StatusNotFound, "shift not found"},
	ErrMethodNotFound:     {http.StatusNotFound, "method not found"},
	ErrMaterialNotFound:   {http.StatusNotFound, "material not found"},
	ErrLaboratoryNotFound: {http.StatusNotFound, "laboratory not found"},

	ErrCapacityExceeded:     {http.StatusBadRequest, "capacity exceeded"},
	ErrInvalidTransition:    {http.StatusBadRequest, "invalid status transition"},
	ErrEquipmentUnavailable: {http.StatusBadRequest, "equipment unavailable"},
	ErrSkillMissing:         {http.StatusBadRequest, "personnel lacks a required skill"},
	ErrPersonnelInactive:    {http.StatusBadRequest, "personnel is inactive"},
	ErrOffShift:             {http.StatusBadRequest, "personnel has no shift on that date"},
	ErrTechnicianMismatch:   {http.StatusBadRequest, "handover is assigned to another technician"},

	ErrConflict:           {http.StatusConflict, "concurrent modification, retry"},
	ErrHandoverNotPending: {http.StatusConflict, "handover is no longer pending"},
	ErrStaleStatus:        {http.StatusConflict, "status changed concurrently, retry"},

	ErrInsufficientStock: {http.StatusBadRequest, "insufficient stock"},

	ErrDatabase: {http.StatusInternalServerError, "database error"},
}

// GetStatus returns the HTTP status for a code, 500 for unknown codes.
func GetStatus(code int) int {
	if m, ok := codes[code]; ok {
		return m.status
	}
	return http.StatusInternalServerError
}

// GetMessage returns the default message for a code.
func GetMessage(code int) string {
	if m, ok := codes[code]; ok {
		return m.message
	}
	return codes[ErrUnknown].message
}

// IsNotFound reports whether code belongs to the not-found range.
func IsNotFound(code int) bool {
	return code >= ErrEquipmentNotFound && code < ErrEquipmentNotFound+1000
}

// IsConflict reports whether code is a concurrency conflict the caller may retry.
func IsConflict(code int) bool {
	return code >= ErrConflict && code < ErrConflict+1000
}
