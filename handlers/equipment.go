package handlers

import (
	"net/http"

	"labsched/response"
	"labsched/scheduling"
)

type EquipmentHandler struct {
	ledger *scheduling.Ledger
}

func NewEquipmentHandler(ledger *scheduling.Ledger) *EquipmentHandler {
	return &EquipmentHandler{ledger: ledger}
}

type capacityView struct {
	EquipmentID uint `json:"equipment_id"`
	Total       int  `json:"total"`
	Available   int  `json:"available"`
}

func (h *EquipmentHandler) Capacity(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	total, available, err := h.ledger.GetAvailableCapacity(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, capacityView{EquipmentID: id, Total: total, Available: available})
}

type validateCapacityRequest struct {
	RequiredCapacity int   `json:"required_capacity"`
	ExcludeTaskID    *uint `json:"exclude_task_id"`
}

func (h *EquipmentHandler) ValidateCapacity(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req validateCapacityRequest
	if !decode(w, r, &req) {
		return
	}

	check, err := h.ledger.ValidateCapacity(r.Context(), id, req.RequiredCapacity, req.ExcludeTaskID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, check.Outcome, capacityView{EquipmentID: id, Total: check.Total, Available: check.Available}, false)
}
