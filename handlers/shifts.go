package handlers

import (
	"net/http"

	"labsched/errcode"
	"labsched/response"
	"labsched/shifts"
)

type ShiftHandler struct {
	resolver *shifts.Resolver
}

func NewShiftHandler(resolver *shifts.Resolver) *ShiftHandler {
	return &ShiftHandler{resolver: resolver}
}

// PersonnelShift answers which shift applies to a person on ?date=.
// A person with no applicable record gets no data, not an error.
func (h *ShiftHandler) PersonnelShift(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	date, ok := queryDate(w, r)
	if !ok {
		return
	}

	exists, err := h.resolver.PersonnelExists(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if !exists {
		response.Fail(w, errcode.ErrPersonnelNotFound, nil)
		return
	}

	ps, err := h.resolver.Resolve(r.Context(), id, date)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if ps == nil {
		response.Success(w, nil)
		return
	}
	assignment, err := shifts.Describe(ps)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, assignment)
}

func (h *ShiftHandler) Roster(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	date, ok := queryDate(w, r)
	if !ok {
		return
	}
	roster, err := h.resolver.Roster(r.Context(), id, date)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, roster)
}
