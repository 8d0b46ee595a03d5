package models

import (
	"time"
)

type WorkOrderStatus string

const (
	WorkOrderOpen       WorkOrderStatus = "OPEN"
	WorkOrderInProgress WorkOrderStatus = "IN_PROGRESS"
	WorkOrderCompleted  WorkOrderStatus = "COMPLETED"
	WorkOrderCancelled  WorkOrderStatus = "CANCELLED"
)

type WorkOrder struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Code         string          `gorm:"uniqueIndex;not null;size:50" json:"code"`
	Title        string          `gorm:"not null;size:300" json:"title"`
	LaboratoryID uint            `gorm:"not null;index" json:"laboratory_id"`
	Priority     int             `gorm:"not null;default:0" json:"priority"`
	Status       WorkOrderStatus `gorm:"not null;size:20;default:OPEN;check:status IN ('OPEN', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED')" json:"status"`
	Tasks        []WorkOrderTask `gorm:"foreignKey:WorkOrderID" json:"tasks,omitempty"`
}

// TaskStatus values are stored verbatim and filtered on by external queries;
// never rename them.
type TaskStatus string

const (
	TaskUnassigned TaskStatus = "UNASSIGNED"
	TaskAssigned   TaskStatus = "ASSIGNED"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

// ActiveTaskStatuses are the statuses in which a task holds its capacity
// reservation on the scheduled equipment.
var ActiveTaskStatuses = []TaskStatus{TaskAssigned, TaskInProgress}

// IsTerminal reports whether no further transition is possible.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskCancelled
}

// IsActive reports whether the status holds capacity.
func (s TaskStatus) IsActive() bool {
	return s == TaskAssigned || s == TaskInProgress
}

type WorkOrderTask struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	WorkOrderID          uint       `gorm:"not null;index" json:"work_order_id"`
	WorkOrder            *WorkOrder `gorm:"foreignKey:WorkOrderID" json:"work_order,omitempty"`
	MethodID             *uint      `gorm:"index" json:"method_id"`
	Method               *Method    `gorm:"foreignKey:MethodID" json:"method,omitempty"`
	Name                 string     `gorm:"not null;size:200" json:"name"`
	Status               TaskStatus `gorm:"not null;size:20;default:UNASSIGNED;index;check:status IN ('UNASSIGNED', 'ASSIGNED', 'IN_PROGRESS', 'COMPLETED', 'CANCELLED')" json:"status"`
	ScheduledEquipmentID *uint      `gorm:"index" json:"scheduled_equipment_id"`
	ScheduledEquipment   *Equipment `gorm:"foreignKey:ScheduledEquipmentID" json:"scheduled_equipment,omitempty"`
	RequiredCapacity     *int       `json:"required_capacity"`
	AssignedPersonnelID  *uint      `gorm:"index" json:"assigned_personnel_id"`
	AssignedPersonnel    *Personnel `gorm:"foreignKey:AssignedPersonnelID" json:"assigned_personnel,omitempty"`
	PlannedDate          *time.Time `gorm:"type:date" json:"planned_date"`
	StartedAt            *time.Time `json:"started_at"`
	CompletedAt          *time.Time `json:"completed_at"`
}
