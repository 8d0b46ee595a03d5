package handover

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"labsched/audit"
	"labsched/errcode"
	"labsched/models"

	"gorm.io/gorm"
)

// AddNote attaches a note to a handover in any state.
func (s *Service) AddNote(ctx context.Context, actor audit.Actor, handoverID uint, content string, important bool) (NoteResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return NoteResult{Outcome: errcode.Reject(errcode.ErrValidation, "note content is required")}, nil
	}
	h, err := s.load(ctx, handoverID)
	if err != nil {
		return NoteResult{}, err
	}
	if h == nil {
		return NoteResult{Outcome: errcode.Reject(errcode.ErrHandoverNotFound, "handover %d not found", handoverID)}, nil
	}

	note := &models.HandoverNote{
		HandoverID:  h.ID,
		AuthorID:    actor.UserID,
		Content:     content,
		IsImportant: important,
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return NoteResult{}, fmt.Errorf("failed to add note: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "handover.note.add",
		EntityType: "handover_note",
		EntityID:   note.ID,
		After:      note,
	})
	return NoteResult{Outcome: errcode.Accept("note added"), Note: note}, nil
}

type UpdateNoteRequest struct {
	Content     *string `json:"content"`
	IsImportant *bool   `json:"is_important"`
}

// UpdateNote edits a note's content and importance flag.
func (s *Service) UpdateNote(ctx context.Context, actor audit.Actor, handoverID, noteID uint, req UpdateNoteRequest) (NoteResult, error) {
	db := s.db.WithContext(ctx)
	var note models.HandoverNote
	err := db.Where("handover_id = ?", handoverID).First(&note, noteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NoteResult{Outcome: errcode.Reject(errcode.ErrNoteNotFound, "note %d not found", noteID)}, nil
	}
	if err != nil {
		return NoteResult{}, fmt.Errorf("failed to load note %d: %w", noteID, err)
	}
	before := note

	updates := map[string]interface{}{}
	if req.Content != nil {
		content := strings.TrimSpace(*req.Content)
		if content == "" {
			return NoteResult{Outcome: errcode.Reject(errcode.ErrValidation, "note content is required")}, nil
		}
		updates["content"] = content
	}
	if req.IsImportant != nil {
		updates["is_important"] = *req.IsImportant
	}
	if len(updates) == 0 {
		return NoteResult{Outcome: errcode.Accept("nothing to update"), Note: &note}, nil
	}

	if err := db.Model(&note).Updates(updates).Error; err != nil {
		return NoteResult{}, fmt.Errorf("failed to update note %d: %w", noteID, err)
	}
	if err := db.First(&note, noteID).Error; err != nil {
		return NoteResult{}, fmt.Errorf("failed to reload note %d: %w", noteID, err)
	}

	s.audit.Record(ctx, audit.Entry{
		Actor:      actor,
		Action:     "handover.note.update",
		EntityType: "handover_note",
		EntityID:   note.ID,
		Before:     before,
		After:      note,
	})
	return NoteResult{Outcome: errcode.Accept("note updated"), Note: &note}, nil
}

// ListNotes returns a handover's notes, oldest first. Important notes are not
// reordered.
func (s *Service) ListNotes(ctx context.Context, handoverID uint) ([]models.HandoverNote, error) {
	var notes []models.HandoverNote
	err := s.db.WithContext(ctx).Where("handover_id = ?", handoverID).Order("created_at, id").Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes for handover %d: %w", handoverID, err)
	}
	return notes, nil
}
