package scheduling

import (
	"fmt"

	"labsched/errcode"
	"labsched/models"
)

// Guards are pure checks of whether a task in a given status may undergo an
// operation. Allowed transitions:
//
//	UNASSIGNED -> ASSIGNED -> IN_PROGRESS -> COMPLETED
//	ASSIGNED -> UNASSIGNED
//	UNASSIGNED | ASSIGNED | IN_PROGRESS -> CANCELLED

// GuardResult is the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Outcome converts the guard result into a rejection outcome.
func (r GuardResult) Outcome() errcode.Outcome {
	if r.Allowed {
		return errcode.Accept("")
	}
	return errcode.Reject(errcode.ErrInvalidTransition, "%s", r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(format string, args ...interface{}) GuardResult {
	return GuardResult{Reason: fmt.Sprintf(format, args...)}
}

// CanAssign allows equipment assignment on any non-terminal task.
func CanAssign(status models.TaskStatus) GuardResult {
	if status.IsTerminal() {
		return deny("task is %s and cannot be assigned", status)
	}
	return allow()
}

// CanUnassign allows releasing equipment only from ASSIGNED.
func CanUnassign(status models.TaskStatus) GuardResult {
	if status != models.TaskAssigned {
		return deny("can only unassign ASSIGNED tasks (current status: %s)", status)
	}
	return allow()
}

// CanStart allows ASSIGNED -> IN_PROGRESS.
func CanStart(status models.TaskStatus) GuardResult {
	if status != models.TaskAssigned {
		return deny("can only start ASSIGNED tasks (current status: %s)", status)
	}
	return allow()
}

// CanComplete allows IN_PROGRESS -> COMPLETED.
func CanComplete(status models.TaskStatus) GuardResult {
	if status != models.TaskInProgress {
		return deny("can only complete IN_PROGRESS tasks (current status: %s)", status)
	}
	return allow()
}

// CanCancel allows cancellation from any non-terminal status.
func CanCancel(status models.TaskStatus) GuardResult {
	if status.IsTerminal() {
		return deny("task is already %s", status)
	}
	return allow()
}

// CanAssignPersonnel allows staffing changes on any non-terminal task.
func CanAssignPersonnel(status models.TaskStatus) GuardResult {
	if status.IsTerminal() {
		return deny("task is %s and cannot be staffed", status)
	}
	return allow()
}
