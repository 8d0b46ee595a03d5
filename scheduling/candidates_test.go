package scheduling_test

import (
	"context"
	"reflect"
	"testing"

	"labsched/database/dbtest"
	"labsched/errcode"
	"labsched/models"
	"labsched/scheduling"
)

func TestCandidateEquipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	method := models.Method{Code: "M-ETCH", Name: "Wet etch", Category: "chemical"}
	dbtest.Create(t, f.db, &method)

	roomy := f.equipment(t, "POLISH-01", "mechanical", dbtest.IntPtr(10))
	tight := f.equipment(t, "SEM-01", "analytical", dbtest.IntPtr(4))
	f.placed(t, "tight load", tight, dbtest.IntPtr(1), models.TaskAssigned)
	full := f.equipment(t, "SEM-02", "analytical", dbtest.IntPtr(4))
	f.placed(t, "full load", full, dbtest.IntPtr(4), models.TaskAssigned)
	unlimited := f.equipment(t, "SAW-01", "mechanical", nil)
	maintenance := f.equipment(t, "SEM-03", "analytical", dbtest.IntPtr(10))
	f.db.Model(&maintenance).Update("status", models.EquipmentMaintenance)
	f.equipment(t, "OVEN-01", "thermal", dbtest.IntPtr(10))

	otherLab := models.Laboratory{SiteID: f.lab.SiteID, Code: "RT-1", Name: "Reliability", Type: models.LabReliabilityTest}
	dbtest.Create(t, f.db, &otherLab)
	dbtest.Create(t, f.db, &models.Equipment{LaboratoryID: otherLab.ID, Code: "SEM-RT", Name: "x", Category: "analytical", Status: models.EquipmentAvailable})

	res, err := f.engine.CreateTask(ctx, engineer, f.wo.ID, scheduling.CreateTaskRequest{
		Name:             "etch",
		MethodID:         &method.ID,
		RequiredCapacity: dbtest.IntPtr(2),
	})
	if err != nil || !res.OK {
		t.Fatalf("CreateTask failed: %v %s", err, res.Message)
	}

	got, err := f.engine.CandidateEquipment(ctx, res.Task.ID)
	if err != nil {
		t.Fatalf("CandidateEquipment failed: %v", err)
	}
	if !got.OK {
		t.Fatalf("unexpected rejection: %s", got.Message)
	}
	if !reflect.DeepEqual(got.Categories, []string{"mechanical", "analytical"}) {
		t.Errorf("Categories = %v", got.Categories)
	}

	var codes []string
	for _, c := range got.Candidates {
		codes = append(codes, c.Equipment.Code)
	}
	want := []string{unlimited.Code, roomy.Code, tight.Code}
	if !reflect.DeepEqual(codes, want) {
		t.Fatalf("candidates = %v, want %v", codes, want)
	}
	if got.Candidates[1].Available != 10 || got.Candidates[2].Available != 3 {
		t.Errorf("unexpected availability: %+v", got.Candidates)
	}
	if !got.Candidates[0].Unlimited {
		t.Error("SAW-01 should be reported as unlimited")
	}
}

func TestCandidateEquipment_FallbackCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.equipment(t, "MISC-01", "other", dbtest.IntPtr(1))
	f.equipment(t, "SEM-01", "analytical", dbtest.IntPtr(1))
	task := f.task(t, "no method", nil)

	got, err := f.engine.CandidateEquipment(ctx, task.ID)
	if err != nil {
		t.Fatalf("CandidateEquipment failed: %v", err)
	}
	if len(got.Candidates) != 1 || got.Candidates[0].Equipment.Code != "MISC-01" {
		t.Errorf("expected only MISC-01, got %+v", got.Candidates)
	}
}

func TestCandidateEquipment_UnknownTask(t *testing.T) {
	f := newFixture(t)

	got, err := f.engine.CandidateEquipment(context.Background(), 9999)
	if err != nil {
		t.Fatalf("CandidateEquipment failed: %v", err)
	}
	if got.OK || got.Code != errcode.ErrTaskNotFound {
		t.Errorf("got OK=%v code=%d", got.OK, got.Code)
	}
}

func TestCandidateEquipment_NoRequirementKeepsFullEquipment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	full := f.equipment(t, "MISC-01", "other", dbtest.IntPtr(2))
	f.placed(t, "full load", full, dbtest.IntPtr(2), models.TaskAssigned)
	open := f.equipment(t, "MISC-02", "other", dbtest.IntPtr(3))
	task := f.task(t, "visual inspection", nil)

	got, err := f.engine.CandidateEquipment(ctx, task.ID)
	if err != nil {
		t.Fatalf("CandidateEquipment failed: %v", err)
	}
	if len(got.Candidates) != 2 {
		t.Fatalf("expected both machines, got %+v", got.Candidates)
	}
	if got.Candidates[0].Equipment.ID != open.ID || got.Candidates[0].Available != 3 {
		t.Errorf("first candidate = %+v", got.Candidates[0])
	}
	if got.Candidates[1].Equipment.ID != full.ID || got.Candidates[1].Total != 2 || got.Candidates[1].Available != 0 {
		t.Errorf("second candidate = %+v", got.Candidates[1])
	}
}
