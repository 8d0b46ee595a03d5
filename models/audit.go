package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	EventID    uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"event_id"`
	ActorID    uint           `gorm:"index" json:"actor_id"`
	ActorRole  Role           `gorm:"size:20" json:"actor_role"`
	Action     string         `gorm:"not null;size:50" json:"action"`
	EntityType string         `gorm:"not null;size:50;index:idx_audit_entity" json:"entity_type"`
	EntityID   uint           `gorm:"index:idx_audit_entity" json:"entity_id"`
	Before     datatypes.JSON `json:"before,omitempty"`
	After      datatypes.JSON `json:"after,omitempty"`
}
