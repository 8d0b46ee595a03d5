package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"labsched/audit"
	"labsched/config"
	"labsched/database"
	"labsched/database/dbtest"
	"labsched/errcode"
	"labsched/handlers"
	"labsched/middleware"
	"labsched/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type api struct {
	t        *testing.T
	db       *gorm.DB
	router   http.Handler
	recorder *audit.Recorder
	tokens   map[models.Role]string
	lab      models.Laboratory
	tech     models.Personnel
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := dbtest.New(t)
	database.DB = db
	middleware.SetJWTSecret("test-secret")

	cfg := &config.Config{JWTExpiration: time.Hour, AssignRetryAttempts: 3}
	a := &api{
		t:        t,
		db:       db,
		recorder: &audit.Recorder{},
		tokens:   map[models.Role]string{},
	}
	a.router = handlers.NewRouter(cfg, db, a.recorder)

	site := models.Site{Code: "HSC", Name: "Hsinchu"}
	dbtest.Create(t, db, &site)
	a.lab = models.Laboratory{SiteID: site.ID, Code: "FA-1", Name: "FA", Type: models.LabFailureAnalysis}
	dbtest.Create(t, db, &a.lab)
	a.tech = models.Personnel{LaboratoryID: a.lab.ID, EmployeeNo: "E-1", Name: "Tina", Active: true}
	dbtest.Create(t, db, &a.tech)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	for _, role := range []models.Role{models.RoleAdmin, models.RoleEngineer, models.RoleTechnician, models.RoleViewer} {
		user := models.User{Username: string(role), FullName: string(role), PasswordHash: string(hash), Role: role}
		if role == models.RoleTechnician {
			user.PersonnelID = &a.tech.ID
		}
		dbtest.Create(t, db, &user)
		token, err := middleware.GenerateToken(&user, time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		a.tokens[role] = token
	}
	return a
}

func (a *api) do(role models.Role, method, path string, body interface{}) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[role])
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		a.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
	}
	return rec.Code, env
}

func (a *api) must(role models.Role, method, path string, body interface{}, wantStatus int, out interface{}) {
	a.t.Helper()
	status, env := a.do(role, method, path, body)
	if status != wantStatus {
		a.t.Fatalf("%s %s: status %d (%d %s), want %d", method, path, status, env.Code, env.Message, wantStatus)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			a.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

func TestLogin(t *testing.T) {
	a := newAPI(t)

	var tok struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	a.must("", http.MethodPost, "/api/auth/login", map[string]string{"username": "ENGINEER", "password": "correct horse"}, http.StatusOK, &tok)
	if tok.Token == "" || tok.User.Role != models.RoleEngineer {
		t.Errorf("unexpected login response %+v", tok)
	}

	status, env := a.do("", http.MethodPost, "/api/auth/login", map[string]string{"username": "ENGINEER", "password": "wrong"})
	if status != http.StatusUnauthorized || env.Code != errcode.ErrCredentials {
		t.Errorf("bad password: status %d code %d", status, env.Code)
	}

	status, env = a.do("", http.MethodPost, "/api/auth/login", map[string]int{"username": 1})
	if status != http.StatusBadRequest || env.Code != errcode.ErrBind {
		t.Errorf("bad body: status %d code %d", status, env.Code)
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	a.must("", http.MethodGet, "/api/health", nil, http.StatusOK, nil)
}

func TestRoleGates(t *testing.T) {
	a := newAPI(t)

	status, env := a.do("", http.MethodGet, "/api/tasks/1", nil)
	if status != http.StatusUnauthorized || env.Code != errcode.ErrTokenInvalid {
		t.Errorf("anonymous: status %d code %d", status, env.Code)
	}
	status, env = a.do(models.RoleViewer, http.MethodPost, "/api/tasks/1/assign", map[string]int{"equipment_id": 1})
	if status != http.StatusForbidden || env.Code != errcode.ErrForbidden {
		t.Errorf("viewer assign: status %d code %d", status, env.Code)
	}
	status, _ = a.do(models.RoleTechnician, http.MethodPost, "/api/work-orders", map[string]string{"code": "x"})
	if status != http.StatusForbidden {
		t.Errorf("technician create work order: status %d", status)
	}
	status, _ = a.do(models.RoleEngineer, http.MethodGet, "/api/users", nil)
	if status != http.StatusForbidden {
		t.Errorf("engineer list users: status %d", status)
	}
	status, env = a.do(models.RoleViewer, http.MethodGet, "/api/tasks/999", nil)
	if status != http.StatusNotFound || env.Code != errcode.ErrTaskNotFound {
		t.Errorf("viewer read missing task: status %d code %d", status, env.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	a := newAPI(t)
	sem := models.Equipment{LaboratoryID: a.lab.ID, Code: "SEM-01", Name: "SEM", Category: "analytical", Capacity: dbtest.IntPtr(4), Status: models.EquipmentAvailable}
	dbtest.Create(t, a.db, &sem)

	var wo models.WorkOrder
	a.must(models.RoleEngineer, http.MethodPost, "/api/work-orders",
		map[string]interface{}{"code": "WO-9", "title": "Lot 9", "laboratory_id": a.lab.ID}, http.StatusCreated, &wo)

	var first, second models.WorkOrderTask
	a.must(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/work-orders/%d/tasks", wo.ID),
		map[string]interface{}{"name": "image", "required_capacity": 3}, http.StatusCreated, &first)
	a.must(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/work-orders/%d/tasks", wo.ID),
		map[string]interface{}{"name": "image again", "required_capacity": 2, "planned_date": "2025-05-01"}, http.StatusCreated, &second)
	if second.PlannedDate == nil || !second.PlannedDate.Equal(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("planned_date = %v", second.PlannedDate)
	}
	status, env := a.do(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/work-orders/%d/tasks", wo.ID),
		map[string]interface{}{"name": "bad date", "planned_date": "05/01/2025"})
	if status != http.StatusBadRequest || env.Code != errcode.ErrValidation {
		t.Errorf("bad planned_date: status %d code %d", status, env.Code)
	}

	a.must(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", first.ID),
		map[string]interface{}{"equipment_id": sem.ID}, http.StatusOK, &first)
	if first.Status != models.TaskAssigned {
		t.Fatalf("status after assign = %s", first.Status)
	}

	status, env = a.do(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", second.ID),
		map[string]interface{}{"equipment_id": sem.ID})
	if status != http.StatusBadRequest || env.Code != errcode.ErrCapacityExceeded {
		t.Fatalf("over capacity: status %d code %d %s", status, env.Code, env.Message)
	}

	var capacity struct {
		Total     int `json:"total"`
		Available int `json:"available"`
	}
	a.must(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/equipment/%d/capacity", sem.ID), nil, http.StatusOK, &capacity)
	if capacity.Total != 4 || capacity.Available != 1 {
		t.Errorf("capacity = %+v", capacity)
	}

	status, env = a.do(models.RoleViewer, http.MethodPost, fmt.Sprintf("/api/equipment/%d/capacity/validate", sem.ID),
		map[string]interface{}{"required_capacity": 2})
	if status != http.StatusBadRequest || env.Code != errcode.ErrCapacityExceeded {
		t.Errorf("validate: status %d code %d", status, env.Code)
	}
	if err := json.Unmarshal(env.Data, &capacity); err != nil || capacity.Available != 1 {
		t.Errorf("validate data = %s", env.Data)
	}
	status, env = a.do(models.RoleViewer, http.MethodPost, fmt.Sprintf("/api/equipment/%d/capacity/validate", sem.ID),
		map[string]interface{}{"required_capacity": 0})
	if status != http.StatusBadRequest || env.Code != errcode.ErrValidation {
		t.Errorf("validate zero: status %d code %d", status, env.Code)
	}

	a.must(models.RoleTechnician, http.MethodPost, fmt.Sprintf("/api/tasks/%d/start", first.ID), nil, http.StatusOK, &first)
	status, env = a.do(models.RoleTechnician, http.MethodPost, fmt.Sprintf("/api/tasks/%d/start", first.ID), nil)
	if status != http.StatusBadRequest || env.Code != errcode.ErrInvalidTransition {
		t.Errorf("double start: status %d code %d", status, env.Code)
	}
	a.must(models.RoleTechnician, http.MethodPost, fmt.Sprintf("/api/tasks/%d/complete", first.ID), nil, http.StatusOK, &first)
	if first.Status != models.TaskCompleted || first.CompletedAt == nil {
		t.Errorf("after complete: %+v", first)
	}

	a.must(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/tasks/%d/assign", second.ID),
		map[string]interface{}{"equipment_id": sem.ID}, http.StatusOK, nil)

	want := []string{"work_order.create", "task.create", "task.create", "task.assign", "task.start", "task.complete", "task.assign"}
	got := a.recorder.Actions()
	if len(got) != len(want) {
		t.Fatalf("audit actions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("audit[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestHandoverFlow(t *testing.T) {
	a := newAPI(t)
	other := models.Personnel{LaboratoryID: a.lab.ID, EmployeeNo: "E-2", Name: "Omar", Active: true}
	dbtest.Create(t, a.db, &other)
	wo := models.WorkOrder{Code: "WO-1", Title: "x", LaboratoryID: a.lab.ID, Status: models.WorkOrderOpen}
	dbtest.Create(t, a.db, &wo)
	task := models.WorkOrderTask{WorkOrderID: wo.ID, Name: "bake", Status: models.TaskInProgress}
	dbtest.Create(t, a.db, &task)

	var h models.TaskHandover
	a.must(models.RoleTechnician, http.MethodPost, "/api/handovers",
		map[string]interface{}{"task_id": task.ID, "to_technician_id": other.ID, "priority": "HIGH"}, http.StatusCreated, &h)
	if h.FromTechnicianID != a.tech.ID || h.Priority != models.PriorityHigh {
		t.Fatalf("unexpected handover %+v", h)
	}

	a.must(models.RoleTechnician, http.MethodPost, fmt.Sprintf("/api/handovers/%d/notes", h.ID),
		map[string]interface{}{"content": "oven at 150C", "is_important": true}, http.StatusCreated, nil)

	var pending []models.TaskHandover
	a.must(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/handovers/pending?technician_id=%d", other.ID), nil, http.StatusOK, &pending)
	if len(pending) != 1 {
		t.Errorf("pending = %+v", pending)
	}

	a.must(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/handovers/%d/accept", h.ID),
		map[string]interface{}{"to_technician_id": other.ID}, http.StatusOK, &h)
	if h.Status != models.HandoverAccepted {
		t.Errorf("status = %s", h.Status)
	}

	status, env := a.do(models.RoleEngineer, http.MethodPost, fmt.Sprintf("/api/handovers/%d/reject", h.ID), map[string]string{"reason": "late"})
	if status != http.StatusConflict || env.Code != errcode.ErrHandoverNotPending || env.Message != "handover is no longer pending" {
		t.Errorf("reject after accept: status %d code %d %q", status, env.Code, env.Message)
	}

	var full models.TaskHandover
	a.must(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/handovers/%d", h.ID), nil, http.StatusOK, &full)
	if len(full.Notes) != 1 || !full.Notes[0].IsImportant {
		t.Errorf("notes = %+v", full.Notes)
	}
}

func TestShiftRoutes(t *testing.T) {
	a := newAPI(t)
	day := models.Shift{Name: "Day", StartTime: "08:00", EndTime: "16:00"}
	dbtest.Create(t, a.db, &day)
	dbtest.Create(t, a.db, &models.PersonnelShift{PersonnelID: a.tech.ID, ShiftID: day.ID, EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})

	var assignment struct {
		ShiftID uint `json:"shift_id"`
		Minutes int  `json:"minutes"`
	}
	a.must(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/personnel/%d/shift?date=2025-03-01", a.tech.ID), nil, http.StatusOK, &assignment)
	if assignment.ShiftID != day.ID || assignment.Minutes != 8*60 {
		t.Errorf("shift = %+v", assignment)
	}

	_, env := a.do(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/personnel/%d/shift?date=2024-03-01", a.tech.ID), nil)
	if len(env.Data) != 0 && string(env.Data) != "null" {
		t.Errorf("expected no shift before effective date, got %s", env.Data)
	}

	status, _ := a.do(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/personnel/%d/shift?date=03/01/2025", a.tech.ID), nil)
	if status != http.StatusBadRequest {
		t.Errorf("bad date: status %d", status)
	}
	status, env = a.do(models.RoleViewer, http.MethodGet, "/api/personnel/999/shift", nil)
	if status != http.StatusNotFound || env.Code != errcode.ErrPersonnelNotFound {
		t.Errorf("unknown personnel: status %d code %d", status, env.Code)
	}

	a.must(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/laboratories/%d/roster?date=2025-03-01", a.lab.ID), nil, http.StatusOK, nil)
}

func TestMaterialRoutes(t *testing.T) {
	a := newAPI(t)
	resin := models.Material{LaboratoryID: a.lab.ID, Code: "RESIN", Name: "Resin", Unit: "g"}
	dbtest.Create(t, a.db, &resin)
	a.db.Model(&resin).Updates(map[string]interface{}{"quantity": 10, "reorder_level": 5})

	status, env := a.do(models.RoleTechnician, http.MethodPost, fmt.Sprintf("/api/materials/%d/consume", resin.ID), map[string]string{"quantity": "12"})
	if status != http.StatusBadRequest || env.Code != errcode.ErrInsufficientStock {
		t.Errorf("overdraw: status %d code %d", status, env.Code)
	}
	a.must(models.RoleTechnician, http.MethodPost, fmt.Sprintf("/api/materials/%d/consume", resin.ID), map[string]string{"quantity": "6"}, http.StatusOK, nil)

	status, _ = a.do(models.RoleTechnician, http.MethodPost, fmt.Sprintf("/api/materials/%d/replenish", resin.ID), map[string]string{"quantity": "6"})
	if status != http.StatusForbidden {
		t.Errorf("technician replenish: status %d", status)
	}

	var low []models.Material
	a.must(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/materials/low-stock?laboratory_id=%d", a.lab.ID), nil, http.StatusOK, &low)
	if len(low) != 1 || low[0].Code != "RESIN" {
		t.Errorf("low stock = %+v", low)
	}

	a.must(models.RoleAdmin, http.MethodPost, fmt.Sprintf("/api/materials/%d/replenish", resin.ID), map[string]string{"quantity": "6"}, http.StatusOK, nil)
	a.must(models.RoleViewer, http.MethodGet, fmt.Sprintf("/api/materials/low-stock?laboratory_id=%d", a.lab.ID), nil, http.StatusOK, &low)
	if len(low) != 0 {
		t.Errorf("expected no low stock after replenish, got %+v", low)
	}
}

func TestUserAdmin(t *testing.T) {
	a := newAPI(t)

	var created models.User
	a.must(models.RoleAdmin, http.MethodPost, "/api/users",
		map[string]interface{}{"username": "nina", "password": "long enough", "role": "TECHNICIAN", "personnel_id": a.tech.ID}, http.StatusCreated, &created)
	if created.Role != models.RoleTechnician || created.PersonnelID == nil {
		t.Errorf("created = %+v", created)
	}

	status, _ := a.do(models.RoleAdmin, http.MethodPost, "/api/users",
		map[string]interface{}{"username": "nina", "password": "long enough", "role": "TECHNICIAN"})
	if status != http.StatusBadRequest {
		t.Errorf("duplicate username: status %d", status)
	}

	a.must(models.RoleAdmin, http.MethodPatch, fmt.Sprintf("/api/users/%d", created.ID), map[string]string{"role": "ENGINEER"}, http.StatusOK, &created)
	if created.Role != models.RoleEngineer {
		t.Errorf("role = %s", created.Role)
	}

	a.must(models.RoleAdmin, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), nil, http.StatusOK, nil)
	status, _ = a.do("", http.MethodPost, "/api/auth/login", map[string]string{"username": "nina", "password": "long enough"})
	if status != http.StatusUnauthorized {
		t.Errorf("deleted user login: status %d", status)
	}
}
