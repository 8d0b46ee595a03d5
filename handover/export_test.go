package handover

import (
	"context"
	"time"

	"labsched/audit"
	"labsched/models"
)

func (s *Service) SetNow(now func() time.Time) {
	s.now = now
}

// AcceptAs runs Accept against a previously loaded row, as if the row had been
// read just before a concurrent writer ran.
func (s *Service) AcceptAs(ctx context.Context, actor audit.Actor, loaded *models.TaskHandover, toTechnicianID uint) (Result, error) {
	return s.accept(ctx, actor, loaded, toTechnicianID, "")
}

func (s *Service) AssignTechnicianAs(ctx context.Context, actor audit.Actor, loaded *models.TaskHandover, toTechnicianID uint) (Result, error) {
	return s.assignTechnician(ctx, actor, loaded, toTechnicianID)
}
