package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"drawerledger/internal/ledger"
	"drawerledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeRange bounds a ledger query; nil endpoints mean unbounded.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

// DrawerRepository is the persistence collaborator for sessions and entries.
// It is the only I/O boundary of the engine: every failure it returns wraps
// ledger.ErrPersistence so callers never mistake a storage fault for a
// business validation failure.
type DrawerRepository interface {
	CreateSession(ctx context.Context, s *model.DrawerSession) error
	FindOpenSessionByDrawer(ctx context.Context, drawer int) (*model.DrawerSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.DrawerSession, error)
	UpdateSession(ctx context.Context, s *model.DrawerSession) error
	ListSessions(ctx context.Context, page, limit int) ([]model.DrawerSession, int64, error)

	AppendEntry(ctx context.Context, e *model.LedgerEntry) error
	FindEntryByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error)
	// ListEntries returns the session's entries chronologically, insertion
	// order as tiebreak — the ordering the replay engine depends on.
	ListEntries(ctx context.Context, sessionID uuid.UUID, r TimeRange) ([]model.LedgerEntry, error)
	ListEntriesByCategory(ctx context.Context, sessionID uuid.UUID, category string, r TimeRange) ([]model.LedgerEntry, error)
	// MarkEntryVoided flips the voided flag — the single permitted mutation
	// of a persisted entry.
	MarkEntryVoided(ctx context.Context, id uuid.UUID) error
}

type drawerRepo struct{ db *gorm.DB }

func NewDrawerRepository(db *gorm.DB) DrawerRepository { return &drawerRepo{db: db} }

func (r *drawerRepo) CreateSession(ctx context.Context, s *model.DrawerSession) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("%w: create session: %v", ledger.ErrPersistence, err)
	}
	return nil
}

func (r *drawerRepo) FindOpenSessionByDrawer(ctx context.Context, drawer int) (*model.DrawerSession, error) {
	var s model.DrawerSession
	err := r.db.WithContext(ctx).
		Where("drawer = ? AND status = ?", drawer, model.SessionOpen).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find open session: %v", ledger.ErrPersistence, err)
	}
	return &s, nil
}

func (r *drawerRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.DrawerSession, error) {
	var s model.DrawerSession
	err := r.db.WithContext(ctx).First(&s, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find session: %v", ledger.ErrPersistence, err)
	}
	return &s, nil
}

func (r *drawerRepo) UpdateSession(ctx context.Context, s *model.DrawerSession) error {
	if err := r.db.WithContext(ctx).Save(s).Error; err != nil {
		return fmt.Errorf("%w: update session: %v", ledger.ErrPersistence, err)
	}
	return nil
}

func (r *drawerRepo) ListSessions(ctx context.Context, page, limit int) ([]model.DrawerSession, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.DrawerSession{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: count sessions: %v", ledger.ErrPersistence, err)
	}
	var sessions []model.DrawerSession
	err := r.db.WithContext(ctx).
		Order("opened_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: list sessions: %v", ledger.ErrPersistence, err)
	}
	return sessions, total, nil
}

func (r *drawerRepo) AppendEntry(ctx context.Context, e *model.LedgerEntry) error {
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("%w: append entry: %v", ledger.ErrPersistence, err)
	}
	return nil
}

func (r *drawerRepo) FindEntryByID(ctx context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := r.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find entry: %v", ledger.ErrPersistence, err)
	}
	return &e, nil
}

func (r *drawerRepo) ListEntries(ctx context.Context, sessionID uuid.UUID, tr TimeRange) ([]model.LedgerEntry, error) {
	return r.listEntries(ctx, sessionID, "", tr)
}

func (r *drawerRepo) ListEntriesByCategory(ctx context.Context, sessionID uuid.UUID, category string, tr TimeRange) ([]model.LedgerEntry, error) {
	return r.listEntries(ctx, sessionID, category, tr)
}

func (r *drawerRepo) listEntries(ctx context.Context, sessionID uuid.UUID, category string, tr TimeRange) ([]model.LedgerEntry, error) {
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	if tr.From != nil {
		q = q.Where("created_at >= ?", *tr.From)
	}
	if tr.To != nil {
		q = q.Where("created_at < ?", *tr.To)
	}
	var entries []model.LedgerEntry
	if err := q.Order("created_at ASC, seq ASC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: list entries: %v", ledger.ErrPersistence, err)
	}
	return entries, nil
}

func (r *drawerRepo) MarkEntryVoided(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&model.LedgerEntry{}).
		Where("id = ?", id).
		Update("voided", true)
	if res.Error != nil {
		return fmt.Errorf("%w: void entry: %v", ledger.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: entry %s not found", ledger.ErrValidation, id)
	}
	return nil
}
