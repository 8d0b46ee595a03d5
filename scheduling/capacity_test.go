package scheduling_test

import (
	"context"
	"testing"

	"labsched/database/dbtest"
	"labsched/errcode"
	"labsched/models"
	"labsched/scheduling"
)

func TestLedger_GetAvailableCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger := scheduling.NewLedger(f.db)

	sem := f.equipment(t, "SEM-01", "analytical", dbtest.IntPtr(10))
	f.placed(t, "assigned", sem, dbtest.IntPtr(3), models.TaskAssigned)
	f.placed(t, "running", sem, dbtest.IntPtr(2), models.TaskInProgress)
	f.placed(t, "done", sem, dbtest.IntPtr(4), models.TaskCompleted)
	f.placed(t, "cancelled", sem, dbtest.IntPtr(1), models.TaskCancelled)
	f.placed(t, "no requirement", sem, nil, models.TaskAssigned)

	unlimited := f.equipment(t, "OVEN-01", "thermal", nil)
	f.placed(t, "baking", unlimited, dbtest.IntPtr(50), models.TaskAssigned)

	full := f.equipment(t, "FIB-01", "analytical", dbtest.IntPtr(2))
	f.placed(t, "legacy overbooking", full, dbtest.IntPtr(5), models.TaskInProgress)

	tests := []struct {
		name          string
		equipmentID   uint
		wantTotal     int
		wantAvailable int
	}{
		{"only active reservations count", sem.ID, 10, 5},
		{"no ceiling reports zero", unlimited.ID, 0, 0},
		{"missing equipment reports zero", 9999, 0, 0},
		{"overbooked never goes negative", full.ID, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, available, err := ledger.GetAvailableCapacity(ctx, tt.equipmentID)
			if err != nil {
				t.Fatalf("GetAvailableCapacity failed: %v", err)
			}
			if total != tt.wantTotal || available != tt.wantAvailable {
				t.Errorf("got (%d, %d), want (%d, %d)", total, available, tt.wantTotal, tt.wantAvailable)
			}
		})
	}
}

func TestLedger_ValidateCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger := scheduling.NewLedger(f.db)

	eq := f.equipment(t, "SEM-01", "analytical", dbtest.IntPtr(10))
	self := f.placed(t, "self", eq, dbtest.IntPtr(6), models.TaskAssigned)
	f.placed(t, "other", eq, dbtest.IntPtr(4), models.TaskInProgress)
	unlimited := f.equipment(t, "OVEN-01", "thermal", nil)

	tests := []struct {
		name          string
		equipmentID   uint
		required      int
		exclude       *uint
		wantOK        bool
		wantCode      int
		wantMessage   string
		wantTotal     int
		wantAvailable int
	}{
		{
			name:        "equipment not found",
			equipmentID: 9999, required: 1,
			wantCode: errcode.ErrEquipmentNotFound, wantMessage: "equipment not found",
		},
		{
			name:        "zero requirement",
			equipmentID: eq.ID, required: 0,
			wantCode: errcode.ErrValidation, wantMessage: "required capacity must be positive",
		},
		{
			name:        "negative requirement",
			equipmentID: unlimited.ID, required: -1,
			wantCode: errcode.ErrValidation, wantMessage: "required capacity must be positive",
		},
		{
			name:        "no ceiling always accepts",
			equipmentID: unlimited.ID, required: 1000,
			wantOK: true, wantCode: errcode.ErrSuccess, wantTotal: 0, wantAvailable: 1000,
		},
		{
			name:        "required above maximum fails before summing",
			equipmentID: eq.ID, required: 11,
			wantCode:    errcode.ErrCapacityExceeded,
			wantMessage: "required capacity 11 exceeds equipment maximum 10",
			wantTotal:   10, wantAvailable: 0,
		},
		{
			name:        "fully booked",
			equipmentID: eq.ID, required: 1,
			wantCode:    errcode.ErrCapacityExceeded,
			wantMessage: "insufficient capacity: required 1, available 0, total 10",
			wantTotal:   10, wantAvailable: 0,
		},
		{
			name:        "excluding self frees its own reservation",
			equipmentID: eq.ID, required: 6, exclude: &self.ID,
			wantOK: true, wantCode: errcode.ErrSuccess, wantTotal: 10, wantAvailable: 6,
		},
		{
			name:        "excluding self still bounded by others",
			equipmentID: eq.ID, required: 7, exclude: &self.ID,
			wantCode:    errcode.ErrCapacityExceeded,
			wantMessage: "insufficient capacity: required 7, available 6, total 10",
			wantTotal:   10, wantAvailable: 6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check, err := ledger.ValidateCapacity(ctx, tt.equipmentID, tt.required, tt.exclude)
			if err != nil {
				t.Fatalf("ValidateCapacity failed: %v", err)
			}
			if check.OK != tt.wantOK {
				t.Errorf("OK = %v, want %v (%s)", check.OK, tt.wantOK, check.Message)
			}
			if check.Code != tt.wantCode {
				t.Errorf("Code = %d, want %d", check.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && check.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", check.Message, tt.wantMessage)
			}
			if check.Total != tt.wantTotal || check.Available != tt.wantAvailable {
				t.Errorf("got total=%d available=%d, want %d/%d", check.Total, check.Available, tt.wantTotal, tt.wantAvailable)
			}
		})
	}
}

func TestLedger_NullCapacityAsymmetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ledger := scheduling.NewLedger(f.db)
	eq := f.equipment(t, "TRACER-01", "electrical", nil)

	for _, required := range []int{1, 10, 1 << 20} {
		check, err := ledger.ValidateCapacity(ctx, eq.ID, required, nil)
		if err != nil {
			t.Fatalf("ValidateCapacity failed: %v", err)
		}
		if !check.OK {
			t.Errorf("required %d rejected on equipment without ceiling: %s", required, check.Message)
		}
	}

	total, available, err := ledger.GetAvailableCapacity(ctx, eq.ID)
	if err != nil {
		t.Fatalf("GetAvailableCapacity failed: %v", err)
	}
	if total != 0 || available != 0 {
		t.Errorf("GetAvailableCapacity = (%d, %d), want (0, 0)", total, available)
	}
}
