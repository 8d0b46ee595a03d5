package models

import (
	"time"
)

type LaboratoryType string

const (
	LabFailureAnalysis LaboratoryType = "FAILURE_ANALYSIS"
	LabReliabilityTest LaboratoryType = "RELIABILITY_TEST"
)

type Site struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Code         string       `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name         string       `gorm:"not null;size:200" json:"name"`
	Laboratories []Laboratory `gorm:"foreignKey:SiteID" json:"laboratories,omitempty"`
}

type Laboratory struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	SiteID    uint           `gorm:"not null;index" json:"site_id"`
	Site      *Site          `gorm:"foreignKey:SiteID" json:"site,omitempty"`
	Code      string         `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Name      string         `gorm:"not null;size:200" json:"name"`
	Type      LaboratoryType `gorm:"not null;size:30;check:type IN ('FAILURE_ANALYSIS', 'RELIABILITY_TEST')" json:"type"`
}
