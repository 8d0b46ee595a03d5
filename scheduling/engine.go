package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"labsched/audit"
	"labsched/database"
	"labsched/errcode"
	"labsched/models"
	"labsched/shifts"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskResult is returned by every task operation. Task is the state after the
// operation, or the unchanged task on rejection when it could be loaded.
type TaskResult struct {
	errcode.Outcome
	Task *models.WorkOrderTask `json:"task,omitempty"`
}

// Candidate is equipment suited to a task, with its remaining capacity.
type Candidate struct {
	Equipment models.Equipment `json:"equipment"`
	Unlimited bool             `json:"unlimited"`
	Total     int              `json:"total"`
	Available int              `json:"available"`
}

// CandidateResult lists equipment suggestions for a task.
type CandidateResult struct {
	errcode.Outcome
	Categories []string    `json:"categories"`
	Candidates []Candidate `json:"candidates"`
}

type Engine struct {
	db       *gorm.DB
	ledger   *Ledger
	resolver *shifts.Resolver
	audit    audit.Sink
	attempts int
	now      func() time.Time
}

// NewEngine wires the engine. attempts bounds how often a transaction is
// replayed after a serialization failure. A nil sink discards audit entries.
func NewEngine(db *gorm.DB, resolver *shifts.Resolver, sink audit.Sink, attempts int) *Engine {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Engine{
		db:       db,
		ledger:   NewLedger(db),
		resolver: resolver,
		audit:    sink,
		attempts: attempts,
		now:      time.Now,
	}
}

// Ledger exposes the read side of capacity accounting.
func (e *Engine) Ledger() *Ledger {
	return e.ledger
}

func rejected(out errcode.Outcome, task *models.WorkOrderTask) TaskResult {
	return TaskResult{Outcome: out, Task: task}
}

// AssignTask schedules a task onto equipment, reserving requiredCapacity
// units while the task is active. A nil requiredCapacity keeps the task's
// current requirement. The task row and then the equipment row are locked,
// so concurrent assignments to the same equipment validate one after the
// other against committed usage.
func (e *Engine) AssignTask(ctx context.Context, actor audit.Actor, taskID, equipmentID uint, requiredCapacity *int) (TaskResult, error) {
	if requiredCapacity != nil && *requiredCapacity <= 0 {
		return rejected(errcode.Reject(errcode.ErrValidation, "required capacity must be positive"), nil), nil
	}

	var result TaskResult
	var before models.WorkOrderTask
	changed := false

	err := e.transact(ctx, func(tx *gorm.DB) error {
		changed = false
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			result = rejected(errcode.Reject(errcode.ErrTaskNotFound, "task %d not found", taskID), nil)
			return nil
		}
		before = *task

		if g := CanAssign(task.Status); !g.Allowed {
			result = rejected(g.Outcome(), task)
			return nil
		}

		var eq models.Equipment
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&eq, equipmentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = rejected(errcode.Reject(errcode.ErrEquipmentNotFound, "equipment %d not found", equipmentID), task)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock equipment %d: %w", equipmentID, err)
		}
		if !eq.Schedulable() {
			result = rejected(errcode.Reject(errcode.ErrEquipmentUnavailable, "equipment %s is %s", eq.Code, eq.Status), task)
			return nil
		}

		capacity := task.RequiredCapacity
		if requiredCapacity != nil {
			capacity = requiredCapacity
		}

		if task.Status.IsActive() && sameUint(task.ScheduledEquipmentID, &eq.ID) && sameInt(task.RequiredCapacity, capacity) {
			result = TaskResult{Outcome: errcode.Accept(fmt.Sprintf("task already assigned to %s", eq.Code)), Task: task}
			return nil
		}

		if capacity != nil {
			check, err := e.ledger.WithDB(tx).ValidateCapacity(ctx, eq.ID, *capacity, &task.ID)
			if err != nil {
				return err
			}
			if !check.OK {
				result = rejected(check.Outcome, task)
				return nil
			}
		}

		status := task.Status
		if status == models.TaskUnassigned {
			status = models.TaskAssigned
		}
		updates := map[string]interface{}{
			"scheduled_equipment_id": eq.ID,
			"required_capacity":      capacity,
			"status":                 status,
		}
		if err := tx.Model(task).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to assign task %d: %w", task.ID, err)
		}

		updated, err := loadTask(tx, task.ID)
		if err != nil {
			return err
		}
		result = TaskResult{Outcome: errcode.Accept(fmt.Sprintf("task assigned to %s", eq.Code)), Task: updated}
		changed = true
		return nil
	})
	if err != nil {
		return e.conflictOr(err)
	}

	if changed {
		e.record(ctx, actor, "task.assign", &before, result.Task)
	}
	return result, nil
}

// UnassignTask releases the equipment reservation of an ASSIGNED task. The
// status change and the cleared equipment are written in one statement.
func (e *Engine) UnassignTask(ctx context.Context, actor audit.Actor, taskID uint) (TaskResult, error) {
	return e.transition(ctx, actor, taskID, "task.unassign", CanUnassign, func(*models.WorkOrderTask) map[string]interface{} {
		return map[string]interface{}{
			"status":                 models.TaskUnassigned,
			"scheduled_equipment_id": nil,
		}
	})
}

// StartTask moves an ASSIGNED task to IN_PROGRESS.
func (e *Engine) StartTask(ctx context.Context, actor audit.Actor, taskID uint) (TaskResult, error) {
	return e.transition(ctx, actor, taskID, "task.start", CanStart, func(*models.WorkOrderTask) map[string]interface{} {
		return map[string]interface{}{
			"status":     models.TaskInProgress,
			"started_at": e.now(),
		}
	})
}

// CompleteTask moves an IN_PROGRESS task to COMPLETED, freeing its capacity.
func (e *Engine) CompleteTask(ctx context.Context, actor audit.Actor, taskID uint) (TaskResult, error) {
	return e.transition(ctx, actor, taskID, "task.complete", CanComplete, func(*models.WorkOrderTask) map[string]interface{} {
		return map[string]interface{}{
			"status":       models.TaskCompleted,
			"completed_at": e.now(),
		}
	})
}

// CancelTask ends a non-terminal task, freeing any capacity it held. The
// scheduled equipment is kept as history.
func (e *Engine) CancelTask(ctx context.Context, actor audit.Actor, taskID uint) (TaskResult, error) {
	return e.transition(ctx, actor, taskID, "task.cancel", CanCancel, func(*models.WorkOrderTask) map[string]interface{} {
		return map[string]interface{}{
			"status": models.TaskCancelled,
		}
	})
}

// transition applies a guarded status change as a conditional update on the
// status that was read, so of two concurrent transitions only one applies.
func (e *Engine) transition(
	ctx context.Context,
	actor audit.Actor,
	taskID uint,
	action string,
	guard func(models.TaskStatus) GuardResult,
	updates func(*models.WorkOrderTask) map[string]interface{},
) (TaskResult, error) {
	var result TaskResult
	var before models.WorkOrderTask
	changed := false

	err := e.transact(ctx, func(tx *gorm.DB) error {
		changed = false
		task, err := loadTask(tx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			result = rejected(errcode.Reject(errcode.ErrTaskNotFound, "task %d not found", taskID), nil)
			return nil
		}
		before = *task

		if g := guard(task.Status); !g.Allowed {
			result = rejected(g.Outcome(), task)
			return nil
		}

		res := tx.Model(&models.WorkOrderTask{}).
			Where("id = ? AND status = ?", task.ID, task.Status).
			Updates(updates(task))
		if res.Error != nil {
			return fmt.Errorf("failed to update task %d: %w", task.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			result = rejected(errcode.Reject(errcode.ErrStaleStatus, "task %d changed status concurrently, re-fetch and retry", task.ID), task)
			return nil
		}

		updated, err := loadTask(tx, task.ID)
		if err != nil {
			return err
		}
		result = TaskResult{Outcome: errcode.Accept(fmt.Sprintf("task %s", strings.ToLower(string(updated.Status)))), Task: updated}
		changed = true
		return nil
	})
	if err != nil {
		return e.conflictOr(err)
	}

	if changed {
		e.record(ctx, actor, action, &before, result.Task)
	}
	return result, nil
}

// AssignPersonnel staffs a task. The person must be active, hold every skill
// the task's method requires and, when the task has a planned date, be on
// shift that day.
func (e *Engine) AssignPersonnel(ctx context.Context, actor audit.Actor, taskID, personnelID uint) (TaskResult, error) {
	var result TaskResult
	var before models.WorkOrderTask
	changed := false

	err := e.transact(ctx, func(tx *gorm.DB) error {
		changed = false
		task, err := lockTask(tx, taskID)
		if err != nil {
			return err
		}
		if task == nil {
			result = rejected(errcode.Reject(errcode.ErrTaskNotFound, "task %d not found", taskID), nil)
			return nil
		}
		before = *task

		if g := CanAssignPersonnel(task.Status); !g.Allowed {
			result = rejected(g.Outcome(), task)
			return nil
		}

		var person models.Personnel
		err = tx.Preload("Skills").First(&person, personnelID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			result = rejected(errcode.Reject(errcode.ErrPersonnelNotFound, "personnel %d not found", personnelID), task)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load personnel %d: %w", personnelID, err)
		}
		if !person.Active {
			result = rejected(errcode.Reject(errcode.ErrPersonnelInactive, "personnel %s is inactive", person.EmployeeNo), task)
			return nil
		}

		if missing := missingSkills(task.Method, person.Skills); len(missing) > 0 {
			result = rejected(errcode.Reject(errcode.ErrSkillMissing,
				"personnel %s lacks required skills: %s", person.EmployeeNo, strings.Join(missing, ", ")), task)
			return nil
		}

		if task.PlannedDate != nil {
			assignment, err := e.resolver.WithDB(tx).Resolve(ctx, person.ID, *task.PlannedDate)
			if err != nil {
				return err
			}
			if assignment == nil {
				result = rejected(errcode.Reject(errcode.ErrOffShift,
					"personnel %s has no shift on %s", person.EmployeeNo, task.PlannedDate.Format("2006-01-02")), task)
				return nil
			}
		}

		if err := tx.Model(task).Update("assigned_personnel_id", person.ID).Error; err != nil {
			return fmt.Errorf("failed to staff task %d: %w", task.ID, err)
		}
		updated, err := loadTask(tx, task.ID)
		if err != nil {
			return err
		}
		result = TaskResult{Outcome: errcode.Accept(fmt.Sprintf("task staffed by %s", person.EmployeeNo)), Task: updated}
		changed = true
		return nil
	})
	if err != nil {
		return e.conflictOr(err)
	}

	if changed {
		e.record(ctx, actor, "task.assign_personnel", &before, result.Task)
	}
	return result, nil
}

func missingSkills(method *models.Method, held []models.PersonnelSkill) []string {
	if method == nil {
		return nil
	}
	have := make(map[uint]bool, len(held))
	for _, s := range held {
		have[s.SkillID] = true
	}
	var missing []string
	for _, s := range method.RequiredSkills {
		if !have[s.ID] {
			missing = append(missing, s.Code)
		}
	}
	return missing
}

// CandidateEquipment suggests equipment in the task's laboratory whose
// category suits the task's method and that can take the task's requirement.
// The category table narrows suggestions only; AssignTask does not enforce it.
func (e *Engine) CandidateEquipment(ctx context.Context, taskID uint) (CandidateResult, error) {
	task, err := loadTask(e.db.WithContext(ctx), taskID)
	if err != nil {
		return CandidateResult{}, err
	}
	if task == nil {
		return CandidateResult{Outcome: errcode.Reject(errcode.ErrTaskNotFound, "task %d not found", taskID)}, nil
	}
	if task.WorkOrder == nil {
		return CandidateResult{Outcome: errcode.Reject(errcode.ErrWorkOrderNotFound, "work order %d not found", task.WorkOrderID)}, nil
	}

	methodCategory := ""
	if task.Method != nil {
		methodCategory = task.Method.Category
	}
	categories := EquipmentCategoriesFor(methodCategory)

	var equipment []models.Equipment
	err = e.db.WithContext(ctx).
		Where("laboratory_id = ?", task.WorkOrder.LaboratoryID).
		Where("category IN ?", categories).
		Where("status NOT IN ?", []models.EquipmentStatus{models.EquipmentMaintenance, models.EquipmentOutOfService}).
		Find(&equipment).Error
	if err != nil {
		return CandidateResult{}, fmt.Errorf("failed to search equipment: %w", err)
	}

	candidates := []Candidate{}
	for _, eq := range equipment {
		var total, available int
		if task.RequiredCapacity == nil {
			// Nothing to reserve: every candidate fits, report what is left.
			total, available, err = e.ledger.GetAvailableCapacity(ctx, eq.ID)
			if err != nil {
				return CandidateResult{}, err
			}
		} else {
			check, err := e.ledger.ValidateCapacity(ctx, eq.ID, *task.RequiredCapacity, &task.ID)
			if err != nil {
				return CandidateResult{}, err
			}
			if !check.OK {
				continue
			}
			total, available = check.Total, check.Available
		}
		candidates = append(candidates, Candidate{
			Equipment: eq,
			Unlimited: eq.Capacity == nil,
			Total:     total,
			Available: available,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Unlimited != b.Unlimited {
			return a.Unlimited
		}
		if a.Available != b.Available {
			return a.Available > b.Available
		}
		return a.Equipment.Code < b.Equipment.Code
	})

	return CandidateResult{
		Outcome:    errcode.Accept(fmt.Sprintf("%d candidates", len(candidates))),
		Categories: categories,
		Candidates: candidates,
	}, nil
}

// transact runs fn with the configured retry budget. fn must reset any state
// it captures because it may run more than once.
func (e *Engine) transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return database.Transact(ctx, e.db, e.attempts, fn)
}

// conflictOr turns exhausted retries into a conflict the caller may retry;
// anything else is an infrastructure failure.
func (e *Engine) conflictOr(err error) (TaskResult, error) {
	if errors.Is(err, database.ErrRetriesExhausted) {
		return rejected(errcode.Reject(errcode.ErrConflict, "concurrent scheduling conflict, re-fetch and retry"), nil), nil
	}
	return TaskResult{}, err
}

func (e *Engine) record(ctx context.Context, actor audit.Actor, action string, before, after *models.WorkOrderTask) {
	e.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: "work_order_task",
		EntityID:   after.ID,
		Before:     taskSnapshot(before),
		After:      taskSnapshot(after),
	})
}

func taskSnapshot(t *models.WorkOrderTask) map[string]interface{} {
	return map[string]interface{}{
		"status":                 t.Status,
		"scheduled_equipment_id": t.ScheduledEquipmentID,
		"required_capacity":      t.RequiredCapacity,
		"assigned_personnel_id":  t.AssignedPersonnelID,
	}
}

func lockTask(tx *gorm.DB, id uint) (*models.WorkOrderTask, error) {
	var task models.WorkOrderTask
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock task %d: %w", id, err)
	}
	if task.MethodID != nil {
		var method models.Method
		if err := tx.Preload("RequiredSkills").First(&method, *task.MethodID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load method %d: %w", *task.MethodID, err)
		} else if err == nil {
			task.Method = &method
		}
	}
	return &task, nil
}

func loadTask(db *gorm.DB, id uint) (*models.WorkOrderTask, error) {
	var task models.WorkOrderTask
	err := db.Preload("WorkOrder").Preload("Method.RequiredSkills").First(&task, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %d: %w", id, err)
	}
	return &task, nil
}

func sameUint(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
