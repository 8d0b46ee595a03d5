// Package scheduling assigns work-order tasks to equipment and personnel.
// All capacity arithmetic lives in Ledger; nothing else sums reservations.
package scheduling

import (
	"context"
	"errors"
	"fmt"

	"labsched/errcode"
	"labsched/models"

	"gorm.io/gorm"
)

// CapacityCheck answers whether a reservation fits on a piece of equipment.
// Total is 0 when no ceiling is configured.
type CapacityCheck struct {
	errcode.Outcome
	Total     int `json:"total"`
	Available int `json:"available"`
}

// Ledger derives equipment usage from the active task rows on every call;
// there is no stored counter to drift.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithDB returns a ledger reading through db, typically an open transaction
// holding the equipment row lock.
func (l *Ledger) WithDB(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// GetAvailableCapacity returns the configured capacity and what is left of
// it. Missing equipment and equipment without a ceiling both report (0, 0).
func (l *Ledger) GetAvailableCapacity(ctx context.Context, equipmentID uint) (total, available int, err error) {
	eq, err := l.equipment(ctx, equipmentID)
	if err != nil {
		return 0, 0, err
	}
	if eq == nil || eq.Capacity == nil {
		return 0, 0, nil
	}

	total = *eq.Capacity
	used, err := l.used(ctx, equipmentID, nil)
	if err != nil {
		return 0, 0, err
	}
	available = total - used
	if available < 0 {
		available = 0
	}
	return total, available, nil
}

// ValidateCapacity checks whether required more units fit on the equipment.
// excludeTaskID leaves that task's own reservation out of the usage sum so a
// task being reassigned is not counted twice. Equipment without a ceiling
// always accepts, unlike GetAvailableCapacity which reports it as (0, 0).
// required must be positive.
func (l *Ledger) ValidateCapacity(ctx context.Context, equipmentID uint, required int, excludeTaskID *uint) (CapacityCheck, error) {
	if required <= 0 {
		return CapacityCheck{Outcome: errcode.Reject(errcode.ErrValidation, "required capacity must be positive")}, nil
	}
	eq, err := l.equipment(ctx, equipmentID)
	if err != nil {
		return CapacityCheck{}, err
	}
	if eq == nil {
		return CapacityCheck{Outcome: errcode.Reject(errcode.ErrEquipmentNotFound, "equipment not found")}, nil
	}
	if eq.Capacity == nil {
		return CapacityCheck{
			Outcome:   errcode.Accept("equipment has no capacity limit"),
			Total:     0,
			Available: required,
		}, nil
	}

	total := *eq.Capacity
	if required > total {
		return CapacityCheck{
			Outcome: errcode.Reject(errcode.ErrCapacityExceeded,
				"required capacity %d exceeds equipment maximum %d", required, total),
			Total:     total,
			Available: 0,
		}, nil
	}

	used, err := l.used(ctx, equipmentID, excludeTaskID)
	if err != nil {
		return CapacityCheck{}, err
	}
	available := total - used
	if required > available {
		return CapacityCheck{
			Outcome: errcode.Reject(errcode.ErrCapacityExceeded,
				"insufficient capacity: required %d, available %d, total %d", required, available, total),
			Total:     total,
			Available: available,
		}, nil
	}

	return CapacityCheck{
		Outcome:   errcode.Accept(fmt.Sprintf("capacity available: required %d, available %d, total %d", required, available, total)),
		Total:     total,
		Available: available,
	}, nil
}

func (l *Ledger) equipment(ctx context.Context, id uint) (*models.Equipment, error) {
	var eq models.Equipment
	err := l.db.WithContext(ctx).First(&eq, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment %d: %w", id, err)
	}
	return &eq, nil
}

// used sums required_capacity over tasks holding a reservation on the equipment.
func (l *Ledger) used(ctx context.Context, equipmentID uint, excludeTaskID *uint) (int, error) {
	var used int64
	q := l.db.WithContext(ctx).
		Model(&models.WorkOrderTask{}).
		Select("COALESCE(SUM(required_capacity), 0)").
		Where("scheduled_equipment_id = ?", equipmentID).
		Where("status IN ?", models.ActiveTaskStatuses).
		Where("required_capacity IS NOT NULL")
	if excludeTaskID != nil {
		q = q.Where("id <> ?", *excludeTaskID)
	}
	if err := q.Scan(&used).Error; err != nil {
		return 0, fmt.Errorf("failed to sum capacity for equipment %d: %w", equipmentID, err)
	}
	return int(used), nil
}
