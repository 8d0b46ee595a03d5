package handlers

import (
	"net/http"
	"strconv"

	"labsched/errcode"
	"labsched/handover"
	"labsched/middleware"
	"labsched/response"
)

type HandoverHandler struct {
	svc *handover.Service
}

func NewHandoverHandler(svc *handover.Service) *HandoverHandler {
	return &HandoverHandler{svc: svc}
}

func (h *HandoverHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req handover.CreateRequest
	if !decode(w, r, &req) {
		return
	}
	// Technicians hand over their own work unless they name someone else.
	if req.FromTechnicianID == 0 {
		if user := middleware.GetUserFromContext(r.Context()); user.PersonnelID != nil {
			req.FromTechnicianID = *user.PersonnelID
		}
	}
	if req.TaskID == 0 || req.FromTechnicianID == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "task_id and from_technician_id are required", nil)
		return
	}

	res, err := h.svc.Create(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Handover, true)
}

func (h *HandoverHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	ho, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if ho == nil {
		response.Fail(w, errcode.ErrHandoverNotFound, nil)
		return
	}
	response.Success(w, ho)
}

func (h *HandoverHandler) ListForTask(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListForTask(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, list)
}

// ListPending defaults ?technician_id= to the caller's own personnel record.
func (h *HandoverHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	var technicianID uint
	if raw := r.URL.Query().Get("technician_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.FailWithMessage(w, errcode.ErrValidation, "invalid technician_id", nil)
			return
		}
		technicianID = uint(id)
	} else if user := middleware.GetUserFromContext(r.Context()); user.PersonnelID != nil {
		technicianID = *user.PersonnelID
	}
	if technicianID == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "technician_id is required", nil)
		return
	}

	list, err := h.svc.ListPending(r.Context(), technicianID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, list)
}

type technicianRequest struct {
	ToTechnicianID uint   `json:"to_technician_id"`
	Notes          string `json:"notes"`
}

func (h *HandoverHandler) AssignTechnician(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req technicianRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ToTechnicianID == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "to_technician_id is required", nil)
		return
	}
	res, err := h.svc.AssignTechnician(r.Context(), middleware.ActorFromContext(r.Context()), id, req.ToTechnicianID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Handover, false)
}

func (h *HandoverHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req technicianRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ToTechnicianID == 0 {
		if user := middleware.GetUserFromContext(r.Context()); user.PersonnelID != nil {
			req.ToTechnicianID = *user.PersonnelID
		}
	}
	if req.ToTechnicianID == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "to_technician_id is required", nil)
		return
	}
	res, err := h.svc.Accept(r.Context(), middleware.ActorFromContext(r.Context()), id, req.ToTechnicianID, req.Notes)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Handover, false)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *HandoverHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req rejectRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Reject(r.Context(), middleware.ActorFromContext(r.Context()), id, req.Reason)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Handover, false)
}

type noteRequest struct {
	Content     string `json:"content"`
	IsImportant bool   `json:"is_important"`
}

func (h *HandoverHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req noteRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.AddNote(r.Context(), middleware.ActorFromContext(r.Context()), id, req.Content, req.IsImportant)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Note, true)
}

func (h *HandoverHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	noteID, ok := urlID(w, r, "noteID")
	if !ok {
		return
	}
	var req handover.UpdateNoteRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateNote(r.Context(), middleware.ActorFromContext(r.Context()), id, noteID, req)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Note, false)
}

func (h *HandoverHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	notes, err := h.svc.ListNotes(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, notes)
}
