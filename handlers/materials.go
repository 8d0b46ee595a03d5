package handlers

import (
	"context"
	"net/http"

	"labsched/audit"
	"labsched/materials"
	"labsched/middleware"
	"labsched/response"
)

type MaterialHandler struct {
	ledger *materials.Ledger
}

func NewMaterialHandler(ledger *materials.Ledger) *MaterialHandler {
	return &MaterialHandler{ledger: ledger}
}

type movementFunc func(ctx context.Context, actor audit.Actor, materialID uint, req materials.MovementRequest) (materials.Result, error)

func (h *MaterialHandler) Consume(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Consume)
}

func (h *MaterialHandler) Replenish(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.ledger.Replenish)
}

func (h *MaterialHandler) move(w http.ResponseWriter, r *http.Request, fn movementFunc) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req materials.MovementRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := fn(r.Context(), middleware.ActorFromContext(r.Context()), id, req)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res, false)
}

// LowStock requires ?laboratory_id=.
func (h *MaterialHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	labID, ok := queryID(w, r, "laboratory_id")
	if !ok {
		return
	}
	list, err := h.ledger.LowStock(r.Context(), labID)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, list)
}

func (h *MaterialHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	list, err := h.ledger.History(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	response.Success(w, list)
}
