package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleLabManager Role = "LAB_MANAGER"
	RoleEngineer   Role = "ENGINEER"
	RoleTechnician Role = "TECHNICIAN"
	RoleViewer     Role = "VIEWER"
)

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Username     string         `gorm:"uniqueIndex;not null;size:100" json:"username"`
	FullName     string         `gorm:"not null;size:200" json:"full_name"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         Role           `gorm:"not null;size:20;check:role IN ('ADMIN', 'LAB_MANAGER', 'ENGINEER', 'TECHNICIAN', 'VIEWER')" json:"role"`
	PersonnelID  *uint          `gorm:"index" json:"personnel_id"`
	Personnel    *Personnel     `gorm:"foreignKey:PersonnelID" json:"personnel,omitempty"`
}

func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanSchedule reports whether the user may assign equipment and personnel to tasks.
func (u *User) CanSchedule() bool {
	return u.Role == RoleAdmin || u.Role == RoleLabManager || u.Role == RoleEngineer
}

// CanManageStock reports whether the user may replenish materials.
func (u *User) CanManageStock() bool {
	return u.Role == RoleAdmin || u.Role == RoleLabManager
}
