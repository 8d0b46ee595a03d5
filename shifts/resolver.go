// Package shifts determines which shift assignment applies to a person on a
// given date.
package shifts

import (
	"context"
	"fmt"
	"sort"
	"time"

	"labsched/models"

	"gorm.io/gorm"
)

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Applies reports whether the record covers date: effective on or before it
// and not ended before it.
func Applies(ps *models.PersonnelShift, date time.Time) bool {
	date = Date(date)
	if Date(ps.EffectiveDate).After(date) {
		return false
	}
	return ps.EndDate == nil || !Date(*ps.EndDate).Before(date)
}

// Pick returns the record that applies on date, or nil when the person is
// unscheduled. Overlapping records are ranked by latest effective date, then
// latest creation time, then highest id, so the answer never depends on the
// input order.
func Pick(records []models.PersonnelShift, date time.Time) *models.PersonnelShift {
	var candidates []*models.PersonnelShift
	for i := range records {
		if Applies(&records[i], date) {
			candidates = append(candidates, &records[i])
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return ranksBefore(candidates[i], candidates[j])
	})
	return candidates[0]
}

func ranksBefore(a, b *models.PersonnelShift) bool {
	ea, eb := Date(a.EffectiveDate), Date(b.EffectiveDate)
	if !ea.Equal(eb) {
		return ea.After(eb)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Resolver loads shift history from the database.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// WithDB returns a resolver reading through db, typically an open transaction.
func (r *Resolver) WithDB(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the shift assignment for personnelID on date with its Shift
// preloaded, or nil when the person is unscheduled that day.
func (r *Resolver) Resolve(ctx context.Context, personnelID uint, date time.Time) (*models.PersonnelShift, error) {
	var records []models.PersonnelShift
	err := r.db.WithContext(ctx).
		Preload("Shift").
		Where("personnel_id = ?", personnelID).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts for personnel %d: %w", personnelID, err)
	}
	return Pick(records, date), nil
}

// RosterEntry pairs a person with the shift that applies on the roster date.
// Minutes is the shift length, 0 when unscheduled.
type RosterEntry struct {
	Personnel models.Personnel       `json:"personnel"`
	Shift     *models.PersonnelShift `json:"shift"`
	Minutes   int                    `json:"minutes"`
}

// Assignment is a resolved shift record with its length.
type Assignment struct {
	*models.PersonnelShift
	Minutes int `json:"minutes"`
}

// Describe attaches the shift length to a resolved record. The Shift
// association must be loaded.
func Describe(ps *models.PersonnelShift) (Assignment, error) {
	if ps == nil || ps.Shift == nil {
		return Assignment{PersonnelShift: ps}, nil
	}
	d, err := Duration(ps.Shift)
	if err != nil {
		return Assignment{}, fmt.Errorf("shift %d: %w", ps.ShiftID, err)
	}
	return Assignment{PersonnelShift: ps, Minutes: int(d / time.Minute)}, nil
}

// Roster resolves every active member of a laboratory for date. Unscheduled
// people are included with a nil Shift.
func (r *Resolver) Roster(ctx context.Context, laboratoryID uint, date time.Time) ([]RosterEntry, error) {
	var people []models.Personnel
	err := r.db.WithContext(ctx).
		Where("laboratory_id = ? AND active = ?", laboratoryID, true).
		Order("name asc, id asc").
		Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load personnel: %w", err)
	}
	if len(people) == 0 {
		return []RosterEntry{}, nil
	}

	ids := make([]uint, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}
	var records []models.PersonnelShift
	err = r.db.WithContext(ctx).
		Preload("Shift").
		Where("personnel_id IN ?", ids).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts: %w", err)
	}

	byPerson := make(map[uint][]models.PersonnelShift)
	for _, rec := range records {
		byPerson[rec.PersonnelID] = append(byPerson[rec.PersonnelID], rec)
	}

	roster := make([]RosterEntry, len(people))
	for i, p := range people {
		a, err := Describe(Pick(byPerson[p.ID], date))
		if err != nil {
			return nil, err
		}
		roster[i] = RosterEntry{Personnel: p, Shift: a.PersonnelShift, Minutes: a.Minutes}
	}
	return roster, nil
}

// PersonnelExists reports whether id resolves to a personnel row.
func (r *Resolver) PersonnelExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Personnel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
