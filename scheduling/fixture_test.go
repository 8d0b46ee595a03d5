package scheduling_test

import (
	"testing"

	"labsched/audit"
	"labsched/database/dbtest"
	"labsched/models"
	"labsched/scheduling"
	"labsched/shifts"

	"gorm.io/gorm"
)

var engineer = audit.Actor{UserID: 1, Role: models.RoleEngineer}

type fixture struct {
	db       *gorm.DB
	engine   *scheduling.Engine
	recorder *audit.Recorder
	lab      models.Laboratory
	wo       models.WorkOrder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)

	site := models.Site{Code: "HSC", Name: "Hsinchu"}
	dbtest.Create(t, db, &site)
	lab := models.Laboratory{SiteID: site.ID, Code: "FA-1", Name: "Failure Analysis 1", Type: models.LabFailureAnalysis}
	dbtest.Create(t, db, &lab)
	wo := models.WorkOrder{Code: "WO-001", Title: "Wafer lot 42 decap", LaboratoryID: lab.ID, Status: models.WorkOrderOpen}
	dbtest.Create(t, db, &wo)

	recorder := &audit.Recorder{}
	return &fixture{
		db:       db,
		engine:   scheduling.NewEngine(db, shifts.NewResolver(db), recorder, 3),
		recorder: recorder,
		lab:      lab,
		wo:       wo,
	}
}

func (f *fixture) equipment(t *testing.T, code, category string, capacity *int) models.Equipment {
	t.Helper()
	eq := models.Equipment{
		LaboratoryID: f.lab.ID,
		Code:         code,
		Name:         code,
		Category:     category,
		Capacity:     capacity,
		Status:       models.EquipmentAvailable,
	}
	dbtest.Create(t, f.db, &eq)
	return eq
}

func (f *fixture) task(t *testing.T, name string, capacity *int) models.WorkOrderTask {
	t.Helper()
	task := models.WorkOrderTask{
		WorkOrderID:      f.wo.ID,
		Name:             name,
		Status:           models.TaskUnassigned,
		RequiredCapacity: capacity,
	}
	dbtest.Create(t, f.db, &task)
	return task
}

// placed inserts a task already holding a reservation in the given status.
func (f *fixture) placed(t *testing.T, name string, eq models.Equipment, capacity *int, status models.TaskStatus) models.WorkOrderTask {
	t.Helper()
	task := models.WorkOrderTask{
		WorkOrderID:          f.wo.ID,
		Name:                 name,
		Status:               status,
		ScheduledEquipmentID: &eq.ID,
		RequiredCapacity:     capacity,
	}
	dbtest.Create(t, f.db, &task)
	return task
}

func (f *fixture) reload(t *testing.T, id uint) models.WorkOrderTask {
	t.Helper()
	var task models.WorkOrderTask
	if err := f.db.First(&task, id).Error; err != nil {
		t.Fatalf("reload task %d: %v", id, err)
	}
	return task
}
