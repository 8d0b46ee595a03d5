// Package materials tracks consumable stock per laboratory. Every movement is
// written as a MaterialTransaction carrying the balance it produced.
package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labsched/audit"
	"labsched/database"
	"labsched/errcode"
	"labsched/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MovementRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	TaskID   *uint           `json:"task_id"`
	Note     string          `json:"note"`
}

type Result struct {
	errcode.Outcome
	Material    *models.Material            `json:"material,omitempty"`
	Transaction *models.MaterialTransaction `json:"transaction,omitempty"`
}

type Ledger struct {
	db       *gorm.DB
	audit    audit.Sink
	attempts int
}

func NewLedger(db *gorm.DB, sink audit.Sink, attempts int) *Ledger {
	if sink == nil {
		sink = audit.Nop{}
	}
	return &Ledger{db: db, audit: sink, attempts: attempts}
}

// Consume draws stock down. A draw larger than the balance is refused; the
// balance is never clamped at zero.
func (l *Ledger) Consume(ctx context.Context, actor audit.Actor, materialID uint, req MovementRequest) (Result, error) {
	return l.move(ctx, actor, materialID, models.MaterialConsume, req)
}

// Replenish adds stock.
func (l *Ledger) Replenish(ctx context.Context, actor audit.Actor, materialID uint, req MovementRequest) (Result, error) {
	return l.move(ctx, actor, materialID, models.MaterialReplenish, req)
}

func (l *Ledger) move(ctx context.Context, actor audit.Actor, materialID uint, kind models.MaterialTransactionType, req MovementRequest) (Result, error) {
	if !req.Quantity.IsPositive() {
		return Result{Outcome: errcode.Reject(errcode.ErrValidation, "quantity must be positive")}, nil
	}

	var (
		out    errcode.Outcome
		before decimal.Decimal
		mat    models.Material
		txn    models.MaterialTransaction
	)
	err := database.Transact(ctx, l.db, l.attempts, func(tx *gorm.DB) error {
		out = errcode.Outcome{}
		mat = models.Material{}

		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&mat, materialID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			out = errcode.Reject(errcode.ErrMaterialNotFound, "material %d not found", materialID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to lock material %d: %w", materialID, err)
		}

		if req.TaskID != nil {
			var count int64
			if err := tx.Model(&models.WorkOrderTask{}).Where("id = ?", *req.TaskID).Count(&count).Error; err != nil {
				return fmt.Errorf("failed to check task: %w", err)
			}
			if count == 0 {
				out = errcode.Reject(errcode.ErrTaskNotFound, "task %d not found", *req.TaskID)
				return nil
			}
		}

		before = mat.Quantity
		balance := mat.Quantity.Add(req.Quantity)
		if kind == models.MaterialConsume {
			balance = mat.Quantity.Sub(req.Quantity)
			if balance.IsNegative() {
				out = errcode.Reject(errcode.ErrInsufficientStock,
					"insufficient stock of %s: requested %s %s, available %s %s",
					mat.Code, req.Quantity.String(), mat.Unit, mat.Quantity.String(), mat.Unit)
				return nil
			}
		}

		if err := tx.Model(&mat).Update("quantity", balance).Error; err != nil {
			return fmt.Errorf("failed to update material %d: %w", materialID, err)
		}
		mat.Quantity = balance

		txn = models.MaterialTransaction{
			MaterialID:   mat.ID,
			Type:         kind,
			Quantity:     req.Quantity,
			BalanceAfter: balance,
			TaskID:       req.TaskID,
			ActorID:      actor.UserID,
			Note:         strings.TrimSpace(req.Note),
		}
		if err := tx.Create(&txn).Error; err != nil {
			return fmt.Errorf("failed to record material transaction: %w", err)
		}
		out = errcode.Accept(fmt.Sprintf("%s %s %s", strings.ToLower(string(kind)), req.Quantity.String(), mat.Unit))
		return nil
	})
	if errors.Is(err, database.ErrRetriesExhausted) {
		return Result{Outcome: errcode.Reject(errcode.ErrConflict, "concurrent stock update, re-fetch and retry")}, nil
	}
	if err != nil {
		return Result{}, err
	}
	if !out.OK {
		return Result{Outcome: out}, nil
	}

	l.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "material." + strings.ToLower(string(kind)),
		EntityType: "material",
		EntityID:   mat.ID,
		Before:     map[string]interface{}{"quantity": before},
		After:      map[string]interface{}{"quantity": mat.Quantity, "transaction_id": txn.ID},
	})
	return Result{Outcome: out, Material: &mat, Transaction: &txn}, nil
}

// LowStock lists a laboratory's materials at or below their reorder level.
func (l *Ledger) LowStock(ctx context.Context, laboratoryID uint) ([]models.Material, error) {
	var all []models.Material
	if err := l.db.WithContext(ctx).Where("laboratory_id = ?", laboratoryID).Order("code").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}
	low := make([]models.Material, 0, len(all))
	for i := range all {
		if all[i].NeedsReorder() {
			low = append(low, all[i])
		}
	}
	return low, nil
}

// History returns a material's transactions, newest first.
func (l *Ledger) History(ctx context.Context, materialID uint) ([]models.MaterialTransaction, error) {
	var list []models.MaterialTransaction
	err := l.db.WithContext(ctx).Where("material_id = ?", materialID).Order("created_at DESC, id DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for material %d: %w", materialID, err)
	}
	return list, nil
}
