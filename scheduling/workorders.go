package scheduling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"labsched/audit"
	"labsched/errcode"
	"labsched/models"
	"labsched/shifts"

	"gorm.io/gorm"
)

type CreateWorkOrderRequest struct {
	Code         string `json:"code"`
	Title        string `json:"title"`
	LaboratoryID uint   `json:"laboratory_id"`
	Priority     int    `json:"priority"`
}

type WorkOrderResult struct {
	errcode.Outcome
	WorkOrder *models.WorkOrder `json:"work_order,omitempty"`
}

// CreateWorkOrder opens a work order in a laboratory.
func (e *Engine) CreateWorkOrder(ctx context.Context, actor audit.Actor, req CreateWorkOrderRequest) (WorkOrderResult, error) {
	req.Code = strings.TrimSpace(req.Code)
	req.Title = strings.TrimSpace(req.Title)
	if req.Code == "" || req.Title == "" {
		return WorkOrderResult{Outcome: errcode.Reject(errcode.ErrValidation, "code and title are required")}, nil
	}

	db := e.db.WithContext(ctx)
	var labCount int64
	if err := db.Model(&models.Laboratory{}).Where("id = ?", req.LaboratoryID).Count(&labCount).Error; err != nil {
		return WorkOrderResult{}, fmt.Errorf("failed to check laboratory: %w", err)
	}
	if labCount == 0 {
		return WorkOrderResult{Outcome: errcode.Reject(errcode.ErrLaboratoryNotFound, "laboratory %d not found", req.LaboratoryID)}, nil
	}

	wo := &models.WorkOrder{
		Code:         req.Code,
		Title:        req.Title,
		LaboratoryID: req.LaboratoryID,
		Priority:     req.Priority,
		Status:       models.WorkOrderOpen,
	}
	if err := db.Create(wo).Error; err != nil {
		return WorkOrderResult{}, fmt.Errorf("failed to create work order: %w", err)
	}

	e.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "work_order.create",
		EntityType: "work_order",
		EntityID:   wo.ID,
		After:      wo,
	})
	return WorkOrderResult{Outcome: errcode.Accept("work order created"), WorkOrder: wo}, nil
}

type CreateTaskRequest struct {
	Name             string     `json:"name"`
	MethodID         *uint      `json:"method_id"`
	RequiredCapacity *int       `json:"required_capacity"`
	PlannedDate      *time.Time `json:"planned_date"`
}

// CreateTask adds an UNASSIGNED task to an open work order.
func (e *Engine) CreateTask(ctx context.Context, actor audit.Actor, workOrderID uint, req CreateTaskRequest) (TaskResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return rejected(errcode.Reject(errcode.ErrValidation, "name is required"), nil), nil
	}
	if req.RequiredCapacity != nil && *req.RequiredCapacity <= 0 {
		return rejected(errcode.Reject(errcode.ErrValidation, "required capacity must be positive"), nil), nil
	}

	db := e.db.WithContext(ctx)
	var wo models.WorkOrder
	err := db.First(&wo, workOrderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rejected(errcode.Reject(errcode.ErrWorkOrderNotFound, "work order %d not found", workOrderID), nil), nil
	}
	if err != nil {
		return TaskResult{}, fmt.Errorf("failed to load work order %d: %w", workOrderID, err)
	}
	if wo.Status == models.WorkOrderCompleted || wo.Status == models.WorkOrderCancelled {
		return rejected(errcode.Reject(errcode.ErrInvalidTransition, "work order %s is %s", wo.Code, wo.Status), nil), nil
	}

	if req.MethodID != nil {
		var count int64
		if err := db.Model(&models.Method{}).Where("id = ?", *req.MethodID).Count(&count).Error; err != nil {
			return TaskResult{}, fmt.Errorf("failed to check method: %w", err)
		}
		if count == 0 {
			return rejected(errcode.Reject(errcode.ErrMethodNotFound, "method %d not found", *req.MethodID), nil), nil
		}
	}

	var planned *time.Time
	if req.PlannedDate != nil {
		d := shifts.Date(*req.PlannedDate)
		planned = &d
	}

	task := &models.WorkOrderTask{
		WorkOrderID:      wo.ID,
		MethodID:         req.MethodID,
		Name:             req.Name,
		Status:           models.TaskUnassigned,
		RequiredCapacity: req.RequiredCapacity,
		PlannedDate:      planned,
	}
	if err := db.Create(task).Error; err != nil {
		return TaskResult{}, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := loadTask(db, task.ID)
	if err != nil {
		return TaskResult{}, err
	}
	e.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "task.create",
		EntityType: "work_order_task",
		EntityID:   created.ID,
		After:      taskSnapshot(created),
	})
	return TaskResult{Outcome: errcode.Accept("task created"), Task: created}, nil
}

// GetTask loads a task with its work order and method.
func (e *Engine) GetTask(ctx context.Context, taskID uint) (*models.WorkOrderTask, error) {
	return loadTask(e.db.WithContext(ctx), taskID)
}
