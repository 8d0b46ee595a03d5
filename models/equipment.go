package models

import (
	"time"
)

type EquipmentStatus string

const (
	EquipmentAvailable    EquipmentStatus = "AVAILABLE"
	EquipmentInUse        EquipmentStatus = "IN_USE"
	EquipmentMaintenance  EquipmentStatus = "MAINTENANCE"
	EquipmentOutOfService EquipmentStatus = "OUT_OF_SERVICE"
)

type Equipment struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	LaboratoryID uint        `gorm:"not null;index" json:"laboratory_id"`
	Laboratory   *Laboratory `gorm:"foreignKey:LaboratoryID" json:"laboratory,omitempty"`
	Code         string      `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name         string      `gorm:"not null;size:200" json:"name"`
	Category     string      `gorm:"not null;size:50;default:other;index" json:"category"`

	// Capacity is the ceiling on concurrently reserved task units; nil means
	// no ceiling is configured.
	Capacity *int            `json:"capacity"`
	Status   EquipmentStatus `gorm:"not null;size:20;default:AVAILABLE;check:status IN ('AVAILABLE', 'IN_USE', 'MAINTENANCE', 'OUT_OF_SERVICE')" json:"status"`
}

// Schedulable reports whether new work may be booked on the equipment.
func (e *Equipment) Schedulable() bool {
	return e.Status != EquipmentMaintenance && e.Status != EquipmentOutOfService
}
