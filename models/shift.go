package models

import (
	"time"
)

// Shift is a recurring time-of-day window. EndTime earlier than or equal to
// StartTime means the shift runs past midnight.
type Shift struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"not null;size:100" json:"name"`
	StartTime    string    `gorm:"not null;size:5" json:"start_time"`
	EndTime      string    `gorm:"not null;size:5" json:"end_time"`
	LaboratoryID *uint     `gorm:"index" json:"laboratory_id"`
}

// PersonnelShift assigns a person to a shift from EffectiveDate through
// EndDate inclusive. A nil EndDate is open-ended. Ranges for one person may
// overlap; see shifts.Resolve for the tie-break.
type PersonnelShift struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PersonnelID   uint       `gorm:"not null;index" json:"personnel_id"`
	Personnel     *Personnel `gorm:"foreignKey:PersonnelID" json:"personnel,omitempty"`
	ShiftID       uint       `gorm:"not null;index" json:"shift_id"`
	Shift         *Shift     `gorm:"foreignKey:ShiftID" json:"shift,omitempty"`
	EffectiveDate time.Time  `gorm:"not null;type:date" json:"effective_date"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date"`
}
