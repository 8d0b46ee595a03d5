package handlers

import (
	"context"
	"net/http"
	"time"

	"labsched/audit"
	"labsched/errcode"
	"labsched/middleware"
	"labsched/response"
	"labsched/scheduling"
)

type TaskHandler struct {
	engine *scheduling.Engine
}

func NewTaskHandler(engine *scheduling.Engine) *TaskHandler {
	return &TaskHandler{engine: engine}
}

func (h *TaskHandler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	var req scheduling.CreateWorkOrderRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.engine.CreateWorkOrder(r.Context(), middleware.ActorFromContext(r.Context()), req)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.WorkOrder, true)
}

// createTaskRequest carries planned_date as a calendar date, YYYY-MM-DD.
type createTaskRequest struct {
	Name             string `json:"name"`
	MethodID         *uint  `json:"method_id"`
	RequiredCapacity *int   `json:"required_capacity"`
	PlannedDate      string `json:"planned_date"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	workOrderID, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var body createTaskRequest
	if !decode(w, r, &body) {
		return
	}
	req := scheduling.CreateTaskRequest{
		Name:             body.Name,
		MethodID:         body.MethodID,
		RequiredCapacity: body.RequiredCapacity,
	}
	if body.PlannedDate != "" {
		d, err := time.Parse(dateLayout, body.PlannedDate)
		if err != nil {
			response.FailWithMessage(w, errcode.ErrValidation, "planned_date must be YYYY-MM-DD", nil)
			return
		}
		req.PlannedDate = &d
	}
	res, err := h.engine.CreateTask(r.Context(), middleware.ActorFromContext(r.Context()), workOrderID, req)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Task, true)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.engine.GetTask(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	if task == nil {
		response.Fail(w, errcode.ErrTaskNotFound, nil)
		return
	}
	response.Success(w, task)
}

func (h *TaskHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.engine.CandidateEquipment(r.Context(), id)
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res, false)
}

type assignRequest struct {
	EquipmentID      uint `json:"equipment_id"`
	RequiredCapacity *int `json:"required_capacity"`
}

func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req assignRequest
	if !decode(w, r, &req) {
		return
	}
	if req.EquipmentID == 0 {
		response.FailWithMessage(w, errcode.ErrValidation, "equipment_id is required", nil)
		return
	}
	h.run(w, r, func(ctx context.Context, actor audit.Actor) (scheduling.TaskResult, error) {
		return h.engine.AssignTask(ctx, actor, id, req.EquipmentID, req.RequiredCapacity)
	})
}

type assignPersonnelRequest struct {
	PersonnelID uint `json:"personnel_id"`
}

func (h *TaskHandler) AssignPersonnel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}
	var req assignPersonnelRequest
	if !decode(w, r, &req) {
		return
	}
	h.run(w, r, func(ctx context.Context, actor audit.Actor) (scheduling.TaskResult, error) {
		return h.engine.AssignPersonnel(ctx, actor, id, req.PersonnelID)
	})
}

type taskOp func(ctx context.Context, actor audit.Actor, taskID uint) (scheduling.TaskResult, error)

// Transition adapts a single-argument engine operation such as StartTask.
func (h *TaskHandler) Transition(op taskOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(w, r, "id")
		if !ok {
			return
		}
		h.run(w, r, func(ctx context.Context, actor audit.Actor) (scheduling.TaskResult, error) {
			return op(ctx, actor, id)
		})
	}
}

func (h *TaskHandler) run(w http.ResponseWriter, r *http.Request, fn func(context.Context, audit.Actor) (scheduling.TaskResult, error)) {
	res, err := fn(r.Context(), middleware.ActorFromContext(r.Context()))
	if err != nil {
		response.ServerError(w, r, err)
		return
	}
	reply(w, res.Outcome, res.Task, false)
}
