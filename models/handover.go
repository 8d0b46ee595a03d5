package models

import (
	"time"
)

type HandoverStatus string

const (
	HandoverCreated  HandoverStatus = "CREATED"
	HandoverAccepted HandoverStatus = "ACCEPTED"
	HandoverRejected HandoverStatus = "REJECTED"
)

type HandoverPriority string

const (
	PriorityLow    HandoverPriority = "LOW"
	PriorityNormal HandoverPriority = "NORMAL"
	PriorityHigh   HandoverPriority = "HIGH"
	PriorityUrgent HandoverPriority = "URGENT"
)

// TaskHandover records a transfer of responsibility for a task between
// technicians. Its status is independent of the task status.
type TaskHandover struct {
	ID                   uint             `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	TaskID               uint             `gorm:"not null;index" json:"task_id"`
	Task                 *WorkOrderTask   `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	WorkOrderID          uint             `gorm:"not null;index" json:"work_order_id"`
	FromTechnicianID     uint             `gorm:"not null;index" json:"from_technician_id"`
	ToTechnicianID       *uint            `gorm:"index" json:"to_technician_id"`
	FromShiftID          *uint            `json:"from_shift_id"`
	ToShiftID            *uint            `json:"to_shift_id"`
	Status               HandoverStatus   `gorm:"not null;size:20;default:CREATED;index;check:status IN ('CREATED', 'ACCEPTED', 'REJECTED')" json:"status"`
	Priority             HandoverPriority `gorm:"not null;size:20;default:NORMAL;check:priority IN ('LOW', 'NORMAL', 'HIGH', 'URGENT')" json:"priority"`
	TaskStatusAtHandover TaskStatus       `gorm:"not null;size:20" json:"task_status_at_handover"`
	ProgressSummary      string           `gorm:"type:text" json:"progress_summary"`
	PendingItems         string           `gorm:"type:text" json:"pending_items"`
	Instructions         string           `gorm:"type:text" json:"instructions"`
	AcceptedAt           *time.Time       `json:"accepted_at"`
	AcceptanceNotes      string           `gorm:"type:text" json:"acceptance_notes"`
	RejectedAt           *time.Time       `json:"rejected_at"`
	RejectionReason      string           `gorm:"type:text" json:"rejection_reason"`
	Notes                []HandoverNote   `gorm:"foreignKey:HandoverID;constraint:OnDelete:CASCADE" json:"notes,omitempty"`
}

// IsPendingAssignment reports whether the handover still waits for a receiving technician.
func (h *TaskHandover) IsPendingAssignment() bool {
	return h.Status == HandoverCreated && h.ToTechnicianID == nil
}

type HandoverNote struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	HandoverID  uint      `gorm:"not null;index" json:"handover_id"`
	AuthorID    uint      `gorm:"not null" json:"author_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsImportant bool      `gorm:"not null;default:false" json:"is_important"`
}
