// Package handover manages transfers of task responsibility between
// technicians. A handover moves CREATED -> ACCEPTED or CREATED -> REJECTED
// exactly once, and never changes the task it refers to.
package handover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"labsched/audit"
	"labsched/database"
	"labsched/errcode"
	"labsched/models"
	"labsched/shifts"

	"gorm.io/gorm"
)

const notPending = "handover is no longer pending"

type Result struct {
	errcode.Outcome
	Handover *models.TaskHandover `json:"handover,omitempty"`
}

type NoteResult struct {
	errcode.Outcome
	Note *models.HandoverNote `json:"note,omitempty"`
}

type CreateRequest struct {
	TaskID           uint                    `json:"task_id"`
	FromTechnicianID uint                    `json:"from_technician_id"`
	ToTechnicianID   *uint                   `json:"to_technician_id"`
	FromShiftID      *uint                   `json:"from_shift_id"`
	ToShiftID        *uint                   `json:"to_shift_id"`
	Priority         models.HandoverPriority `json:"priority"`
	ProgressSummary  string                  `json:"progress_summary"`
	PendingItems     string                  `json:"pending_items"`
	Instructions     string                  `json:"instructions"`
}

type Service struct {
	db       *gorm.DB
	resolver *shifts.Resolver
	audit    audit.Sink
	attempts int
	now      func() time.Time
}

func NewService(db *gorm.DB, resolver *shifts.Resolver, sink audit.Sink, attempts int) *Service {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Service{db: db, resolver: resolver, audit: sink, attempts: attempts, now: time.Now}
}

func reject(code int, format string, args ...interface{}) Result {
	return Result{Outcome: errcode.Reject(code, format, args...)}
}

// Create opens a handover for a non-terminal task. Shifts not supplied are
// filled from each technician's shift on the creation date.
func (s *Service) Create(ctx context.Context, actor audit.Actor, req CreateRequest) (Result, error) {
	if req.Priority == "" {
		req.Priority = models.PriorityNormal
	}
	if !validPriority(req.Priority) {
		return reject(errcode.ErrValidation, "invalid priority %q", req.Priority), nil
	}

	db := s.db.WithContext(ctx)
	var task models.WorkOrderTask
	err := db.First(&task, req.TaskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reject(errcode.ErrTaskNotFound, "task %d not found", req.TaskID), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("failed to load task %d: %w", req.TaskID, err)
	}
	if task.Status.IsTerminal() {
		return reject(errcode.ErrInvalidTransition, "cannot hand over a %s task", task.Status), nil
	}

	out, err := s.requirePersonnel(ctx, req.FromTechnicianID)
	if err != nil || !out.OK {
		return Result{Outcome: out}, err
	}
	if req.ToTechnicianID != nil {
		if *req.ToTechnicianID == req.FromTechnicianID {
			return reject(errcode.ErrValidation, "cannot hand over to the same technician"), nil
		}
		out, err := s.requirePersonnel(ctx, *req.ToTechnicianID)
		if err != nil || !out.OK {
			return Result{Outcome: out}, err
		}
	}

	today := shifts.Date(s.now())
	if req.FromShiftID == nil {
		if req.FromShiftID, err = s.shiftOn(ctx, req.FromTechnicianID, today); err != nil {
			return Result{}, err
		}
	}
	if req.ToShiftID == nil && req.ToTechnicianID != nil {
		if req.ToShiftID, err = s.shiftOn(ctx, *req.ToTechnicianID, today); err != nil {
			return Result{}, err
		}
	}

	h := &models.TaskHandover{
		TaskID:               task.ID,
		WorkOrderID:          task.WorkOrderID,
		FromTechnicianID:     req.FromTechnicianID,
		ToTechnicianID:       req.ToTechnicianID,
		FromShiftID:          req.FromShiftID,
		ToShiftID:            req.ToShiftID,
		Status:               models.HandoverCreated,
		Priority:             req.Priority,
		TaskStatusAtHandover: task.Status,
		ProgressSummary:      strings.TrimSpace(req.ProgressSummary),
		PendingItems:         strings.TrimSpace(req.PendingItems),
		Instructions:         strings.TrimSpace(req.Instructions),
	}
	if err := db.Create(h).Error; err != nil {
		return Result{}, fmt.Errorf("failed to create handover: %w", err)
	}

	s.record(ctx, actor, "handover.create", nil, h)
	return Result{Outcome: errcode.Accept("handover created"), Handover: h}, nil
}

// AssignTechnician names the receiving technician while the handover is still
// pending. The status does not change.
func (s *Service) AssignTechnician(ctx context.Context, actor audit.Actor, id, toTechnicianID uint) (Result, error) {
	before, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if before == nil {
		return reject(errcode.ErrHandoverNotFound, "handover %d not found", id), nil
	}
	return s.assignTechnician(ctx, actor, before, toTechnicianID)
}

func (s *Service) assignTechnician(ctx context.Context, actor audit.Actor, before *models.TaskHandover, toTechnicianID uint) (Result, error) {
	if before.Status != models.HandoverCreated {
		return reject(errcode.ErrHandoverNotPending, notPending), nil
	}
	if toTechnicianID == before.FromTechnicianID {
		return reject(errcode.ErrValidation, "cannot hand over to the same technician"), nil
	}
	out, err := s.requirePersonnel(ctx, toTechnicianID)
	if err != nil || !out.OK {
		return Result{Outcome: out}, err
	}

	updates := map[string]interface{}{"to_technician_id": toTechnicianID}
	if before.ToShiftID == nil {
		shiftID, err := s.shiftOn(ctx, toTechnicianID, shifts.Date(s.now()))
		if err != nil {
			return Result{}, err
		}
		if shiftID != nil {
			updates["to_shift_id"] = *shiftID
		}
	}
	return s.whilePending(ctx, actor, "handover.assign_technician", before, true, updates)
}

// Accept completes the handover. If no receiving technician was named the
// caller becomes it; a different named technician is refused.
func (s *Service) Accept(ctx context.Context, actor audit.Actor, id, toTechnicianID uint, notes string) (Result, error) {
	before, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if before == nil {
		return reject(errcode.ErrHandoverNotFound, "handover %d not found", id), nil
	}
	return s.accept(ctx, actor, before, toTechnicianID, notes)
}

func (s *Service) accept(ctx context.Context, actor audit.Actor, before *models.TaskHandover, toTechnicianID uint, notes string) (Result, error) {
	if before.Status != models.HandoverCreated {
		return reject(errcode.ErrHandoverNotPending, notPending), nil
	}
	if before.ToTechnicianID != nil && *before.ToTechnicianID != toTechnicianID {
		return reject(errcode.ErrTechnicianMismatch, "handover is addressed to technician %d", *before.ToTechnicianID), nil
	}
	if before.IsPendingAssignment() {
		if toTechnicianID == before.FromTechnicianID {
			return reject(errcode.ErrValidation, "cannot hand over to the same technician"), nil
		}
		out, err := s.requirePersonnel(ctx, toTechnicianID)
		if err != nil || !out.OK {
			return Result{Outcome: out}, err
		}
	}

	return s.whilePending(ctx, actor, "handover.accept", before, true, map[string]interface{}{
		"status":           models.HandoverAccepted,
		"to_technician_id": toTechnicianID,
		"accepted_at":      s.now(),
		"acceptance_notes": strings.TrimSpace(notes),
	})
}

// Reject refuses the handover with a reason.
func (s *Service) Reject(ctx context.Context, actor audit.Actor, id uint, reason string) (Result, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return reject(errcode.ErrValidation, "rejection reason is required"), nil
	}
	before, err := s.load(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if before == nil {
		return reject(errcode.ErrHandoverNotFound, "handover %d not found", id), nil
	}
	if before.Status != models.HandoverCreated {
		return reject(errcode.ErrHandoverNotPending, notPending), nil
	}

	return s.whilePending(ctx, actor, "handover.reject", before, false, map[string]interface{}{
		"status":           models.HandoverRejected,
		"rejected_at":      s.now(),
		"rejection_reason": reason,
	})
}

// whilePending applies updates only if the row is still CREATED and, when
// sameReceiver is set, still names the receiving technician that was read.
// Losing the race to an accept or reject yields ErrHandoverNotPending; losing
// it to a concurrent AssignTechnician yields ErrConflict.
func (s *Service) whilePending(ctx context.Context, actor audit.Actor, action string, before *models.TaskHandover, sameReceiver bool, updates map[string]interface{}) (Result, error) {
	var (
		after *models.TaskHandover
		lost  errcode.Outcome
	)
	err := database.Transact(ctx, s.db, s.attempts, func(tx *gorm.DB) error {
		after = nil
		lost = errcode.Outcome{}

		q := tx.Model(&models.TaskHandover{}).Where("id = ? AND status = ?", before.ID, models.HandoverCreated)
		if sameReceiver {
			if before.ToTechnicianID == nil {
				q = q.Where("to_technician_id IS NULL")
			} else {
				q = q.Where("to_technician_id = ?", *before.ToTechnicianID)
			}
		}
		res := q.Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("failed to update handover %d: %w", before.ID, res.Error)
		}

		var h models.TaskHandover
		if err := tx.First(&h, before.ID).Error; err != nil {
			return fmt.Errorf("failed to reload handover %d: %w", before.ID, err)
		}
		if res.RowsAffected == 0 {
			lost = errcode.Reject(errcode.ErrHandoverNotPending, notPending)
			if h.Status == models.HandoverCreated {
				lost = errcode.Reject(errcode.ErrConflict, "handover receiver changed concurrently, re-fetch and retry")
			}
			return nil
		}
		after = &h
		return nil
	})
	if errors.Is(err, database.ErrRetriesExhausted) {
		return reject(errcode.ErrConflict, "concurrent handover update, re-fetch and retry"), nil
	}
	if err != nil {
		return Result{}, err
	}
	if after == nil {
		return Result{Outcome: lost}, nil
	}

	s.record(ctx, actor, action, before, after)
	return Result{Outcome: errcode.Accept("handover updated"), Handover: after}, nil
}

// Get loads a handover with its notes, oldest first.
func (s *Service) Get(ctx context.Context, id uint) (*models.TaskHandover, error) {
	var h models.TaskHandover
	err := s.db.WithContext(ctx).
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		First(&h, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load handover %d: %w", id, err)
	}
	return &h, nil
}

// ListForTask returns every handover of a task, newest first.
func (s *Service) ListForTask(ctx context.Context, taskID uint) ([]models.TaskHandover, error) {
	var list []models.TaskHandover
	if err := s.db.WithContext(ctx).Where("task_id = ?", taskID).Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list handovers for task %d: %w", taskID, err)
	}
	return list, nil
}

// ListPending returns CREATED handovers addressed to a technician, plus those
// that have no receiving technician yet.
func (s *Service) ListPending(ctx context.Context, toTechnicianID uint) ([]models.TaskHandover, error) {
	var list []models.TaskHandover
	err := s.db.WithContext(ctx).
		Where("status = ?", models.HandoverCreated).
		Where("to_technician_id = ? OR to_technician_id IS NULL", toTechnicianID).
		Where("from_technician_id <> ?", toTechnicianID).
		Order("created_at, id").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending handovers: %w", err)
	}
	return list, nil
}

func (s *Service) load(ctx context.Context, id uint) (*models.TaskHandover, error) {
	var h models.TaskHandover
	err := s.db.WithContext(ctx).First(&h, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load handover %d: %w", id, err)
	}
	return &h, nil
}

func (s *Service) requirePersonnel(ctx context.Context, id uint) (errcode.Outcome, error) {
	var p models.Personnel
	err := s.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errcode.Reject(errcode.ErrPersonnelNotFound, "personnel %d not found", id), nil
	}
	if err != nil {
		return errcode.Outcome{}, fmt.Errorf("failed to load personnel %d: %w", id, err)
	}
	if !p.Active {
		return errcode.Reject(errcode.ErrPersonnelInactive, "personnel %s is inactive", p.EmployeeNo), nil
	}
	return errcode.Accept(""), nil
}

func (s *Service) shiftOn(ctx context.Context, personnelID uint, date time.Time) (*uint, error) {
	ps, err := s.resolver.Resolve(ctx, personnelID, date)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		return nil, nil
	}
	id := ps.ShiftID
	return &id, nil
}

func (s *Service) record(ctx context.Context, actor audit.Actor, action string, before, after *models.TaskHandover) {
	e := audit.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: "task_handover",
		EntityID:   after.ID,
		After:      snapshot(after),
	}
	if before != nil {
		e.Before = snapshot(before)
	}
	s.audit.Record(ctx, e)
}

func snapshot(h *models.TaskHandover) map[string]interface{} {
	return map[string]interface{}{
		"status":           h.Status,
		"to_technician_id": h.ToTechnicianID,
		"to_shift_id":      h.ToShiftID,
	}
}

func validPriority(p models.HandoverPriority) bool {
	switch p {
	case models.PriorityLow, models.PriorityNormal, models.PriorityHigh, models.PriorityUrgent:
		return true
	}
	return false
}
