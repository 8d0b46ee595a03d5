package models

import (
	"time"
)

// Method is a test or analysis procedure. Category drives which equipment
// categories are suggested for tasks that use it.
type Method struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Code           string    `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name           string    `gorm:"not null;size:200" json:"name"`
	Category       string    `gorm:"size:50" json:"category"`
	RequiredSkills []Skill   `gorm:"many2many:method_skills" json:"required_skills,omitempty"`
}
