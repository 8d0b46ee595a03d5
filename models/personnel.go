package models

import (
	"time"
)

type Personnel struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	LaboratoryID uint             `gorm:"not null;index" json:"laboratory_id"`
	EmployeeNo   string           `gorm:"uniqueIndex;not null;size:50" json:"employee_no"`
	Name         string           `gorm:"not null;size:200" json:"name"`
	Active       bool             `gorm:"not null;default:true" json:"active"`
	Skills       []PersonnelSkill `gorm:"foreignKey:PersonnelID" json:"skills,omitempty"`
}

type Skill struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Code      string    `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name      string    `gorm:"not null;size:200" json:"name"`
}

type PersonnelSkill struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	PersonnelID uint      `gorm:"not null;uniqueIndex:idx_personnel_skill" json:"personnel_id"`
	SkillID     uint      `gorm:"not null;uniqueIndex:idx_personnel_skill" json:"skill_id"`
	Skill       *Skill    `gorm:"foreignKey:SkillID" json:"skill,omitempty"`
	Level       int       `gorm:"not null;default:1" json:"level"`
}
