// Package audit reports state transitions to the audit log. Recording is
// best-effort: a failed write is logged and never undoes the business change
// that triggered it.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"labsched/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Actor is the resolved identity behind a mutating call.
type Actor struct {
	UserID uint
	Role   models.Role
}

// Entry describes one transition.
type Entry struct {
	Actor      Actor
	Action     string
	EntityType string
	EntityID   uint
	Before     interface{}
	After      interface{}
}

// Sink receives audit entries after the business transaction has committed.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// DBSink writes entries to the audit_logs table.
type DBSink struct {
	db *gorm.DB
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Record(ctx context.Context, e Entry) {
	row := models.AuditLog{
		EventID:    uuid.New(),
		ActorID:    e.Actor.UserID,
		ActorRole:  e.Actor.Role,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Before:     snapshot(e.Before),
		After:      snapshot(e.After),
	}
	// The request context may already be cancelled once the response is
	// written; the entry is still worth keeping.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(&row).Error; err != nil {
		log.Printf("audit: failed to record %s %s/%d: %v", e.Action, e.EntityType, e.EntityID, err)
	}
}

func snapshot(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("audit: failed to marshal snapshot: %v", err)
		return nil
	}
	return datatypes.JSON(data)
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}

// Recorder keeps entries in memory; tests use it to assert what was reported.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func (r *Recorder) Record(_ context.Context, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Actions returns the recorded action names in order.
func (r *Recorder) Actions() []string {
	entries := r.Entries()
	actions := make([]string, len(entries))
	for i, e := range entries {
		actions[i] = e.Action
	}
	return actions
}
