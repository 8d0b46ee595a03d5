package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Material struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	LaboratoryID uint            `gorm:"not null;index" json:"laboratory_id"`
	Code         string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name         string          `gorm:"not null;size:200" json:"name"`
	Unit         string          `gorm:"not null;size:20" json:"unit"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"quantity"`
	ReorderLevel decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"reorder_level"`
}

// NeedsReorder reports whether stock is at or below the reorder level.
func (m *Material) NeedsReorder() bool {
	return m.Quantity.LessThanOrEqual(m.ReorderLevel)
}

type MaterialTransactionType string

const (
	MaterialConsume   MaterialTransactionType = "CONSUME"
	MaterialReplenish MaterialTransactionType = "REPLENISH"
)

type MaterialTransaction struct {
	ID           uint                    `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time               `json:"created_at"`
	MaterialID   uint                    `gorm:"not null;index" json:"material_id"`
	Type         MaterialTransactionType `gorm:"not null;size:20;check:type IN ('CONSUME', 'REPLENISH')" json:"type"`
	Quantity     decimal.Decimal         `gorm:"type:decimal(18,4);not null" json:"quantity"`
	BalanceAfter decimal.Decimal         `gorm:"type:decimal(18,4);not null" json:"balance_after"`
	TaskID       *uint                   `gorm:"index" json:"task_id"`
	ActorID      uint                    `gorm:"not null" json:"actor_id"`
	Note         string                  `gorm:"size:500" json:"note"`
}
