package handlers

import (
	"net/http"

	"labsched/audit"
	"labsched/config"
	"labsched/handover"
	"labsched/materials"
	"labsched/middleware"
	"labsched/models"
	"labsched/scheduling"
	"labsched/shifts"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"
)

var (
	schedulers = []models.Role{models.RoleAdmin, models.RoleLabManager, models.RoleEngineer}
	operators  = []models.Role{models.RoleAdmin, models.RoleLabManager, models.RoleEngineer, models.RoleTechnician}
	stockists  = []models.Role{models.RoleAdmin, models.RoleLabManager}
)

// NewRouter builds the API on db. The auth middleware reads users through
// database.GetDB, so db must also be the package-level connection.
func NewRouter(cfg *config.Config, db *gorm.DB, sink audit.Sink) http.Handler {
	resolver := shifts.NewResolver(db)
	engine := scheduling.NewEngine(db, resolver, sink, cfg.AssignRetryAttempts)

	authHandler := NewAuthHandler(cfg)
	equipmentHandler := NewEquipmentHandler(engine.Ledger())
	taskHandler := NewTaskHandler(engine)
	shiftHandler := NewShiftHandler(resolver)
	handoverHandler := NewHandoverHandler(handover.NewService(db, resolver, sink, cfg.AssignRetryAttempts))
	materialHandler := NewMaterialHandler(materials.NewLedger(db, sink, cfg.AssignRetryAttempts))

	router := chi.NewRouter()
	router.Use(middleware.Correlate)
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)

	router.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", Health)
		r.Post("/auth/login", authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware)

			r.Get("/auth/me", authHandler.Me)
			r.Post("/auth/password", authHandler.ChangePassword)

			r.Get("/equipment/{id}/capacity", equipmentHandler.Capacity)
			r.Post("/equipment/{id}/capacity/validate", equipmentHandler.ValidateCapacity)
			r.Get("/tasks/{id}", taskHandler.Get)
			r.Get("/tasks/{id}/candidates", taskHandler.Candidates)
			r.Get("/tasks/{id}/handovers", handoverHandler.ListForTask)
			r.Get("/personnel/{id}/shift", shiftHandler.PersonnelShift)
			r.Get("/laboratories/{id}/roster", shiftHandler.Roster)
			r.Get("/handovers/pending", handoverHandler.ListPending)
			r.Get("/handovers/{id}", handoverHandler.Get)
			r.Get("/handovers/{id}/notes", handoverHandler.ListNotes)
			r.Get("/materials/low-stock", materialHandler.LowStock)
			r.Get("/materials/{id}/transactions", materialHandler.History)

			// Planning
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(schedulers...))
				r.Post("/work-orders", taskHandler.CreateWorkOrder)
				r.Post("/work-orders/{id}/tasks", taskHandler.CreateTask)
				r.Post("/tasks/{id}/assign", taskHandler.Assign)
				r.Post("/tasks/{id}/unassign", taskHandler.Transition(engine.UnassignTask))
				r.Post("/tasks/{id}/cancel", taskHandler.Transition(engine.CancelTask))
				r.Post("/tasks/{id}/personnel", taskHandler.AssignPersonnel)
				r.Post("/handovers/{id}/technician", handoverHandler.AssignTechnician)
			})

			// Bench work
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(operators...))
				r.Post("/tasks/{id}/start", taskHandler.Transition(engine.StartTask))
				r.Post("/tasks/{id}/complete", taskHandler.Transition(engine.CompleteTask))
				r.Post("/handovers", handoverHandler.Create)
				r.Post("/handovers/{id}/accept", handoverHandler.Accept)
				r.Post("/handovers/{id}/reject", handoverHandler.Reject)
				r.Post("/handovers/{id}/notes", handoverHandler.AddNote)
				r.Patch("/handovers/{id}/notes/{noteID}", handoverHandler.UpdateNote)
				r.Post("/materials/{id}/consume", materialHandler.Consume)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(stockists...))
				r.Post("/materials/{id}/replenish", materialHandler.Replenish)
			})

			// Admin only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/users", authHandler.ListUsers)
				r.Post("/users", authHandler.CreateUser)
				r.Patch("/users/{id}", authHandler.UpdateUser)
				r.Delete("/users/{id}", authHandler.DeleteUser)
			})
		})
	})

	return router
}
