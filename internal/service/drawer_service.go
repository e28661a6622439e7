package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"drawerledger/internal/dto"
	"drawerledger/internal/ledger"
	"drawerledger/internal/metrics"
	"drawerledger/internal/model"
	"drawerledger/internal/repository"
	"drawerledger/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OperatorIdentity is what the identity collaborator supplies for OpenSession.
// The engine does not authenticate; it only records who operated the drawer.
type OperatorIdentity struct {
	ID   uuid.UUID
	Name string
}

type DrawerService interface {
	Open(ctx context.Context, operator OperatorIdentity, req dto.OpenDrawerRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, req dto.CloseDrawerRequest) (*dto.CloseDrawerResponse, error)

	AddCash(ctx context.Context, req dto.CashMovementRequest) (*dto.EntryResponse, error)
	RecordSale(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error)
	RecordReturn(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error)
	RecordExpense(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error)
	RecordSupplierPayment(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error)
	RecordDebtCollection(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error)
	RecordSalaryWithdrawal(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error)
	AdjustBalance(ctx context.Context, req dto.AdjustBalanceRequest) (*dto.EntryResponse, error)
	VoidEntry(ctx context.Context, entryID uuid.UUID, reason string) error

	Snapshot(ctx context.Context, sessionID uuid.UUID, at *time.Time) (*dto.SnapshotResponse, error)
	Summary(ctx context.Context, sessionID uuid.UUID, daily bool) (*dto.SummaryResponse, error)
	Entries(ctx context.Context, sessionID uuid.UUID, category string, tr repository.TimeRange) ([]dto.EntryResponse, error)
	Active(ctx context.Context, drawer int) (*dto.SessionResponse, error)
	History(ctx context.Context, page, limit int) (*dto.SessionListResponse, error)
}

type drawerService struct {
	repo       repository.DrawerRepository
	cache      *SummaryCache      // nil disables caching
	dispatcher *worker.Dispatcher // nil disables close-report jobs

	// Mutating operations are serialized per drawer / per session so that
	// "replay balance, validate, append" is atomic. Lost updates between
	// validation and append are exactly the bug class this prevents.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewDrawerService(repo repository.DrawerRepository, cache *SummaryCache, dispatcher *worker.Dispatcher) DrawerService {
	return &drawerService{
		repo:       repo,
		cache:      cache,
		dispatcher: dispatcher,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *drawerService) lock(key string) func() {
	s.mu.Lock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	s.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *drawerService) Open(ctx context.Context, operator OperatorIdentity, req dto.OpenDrawerRequest) (*dto.SessionResponse, error) {
	defer s.lock(fmt.Sprintf("drawer:%d", req.Drawer))()

	if req.OpeningBalance.IsNegative() {
		return nil, fmt.Errorf("%w: opening balance must not be negative", ledger.ErrValidation)
	}
	existing, err := s.repo.FindOpenSessionByDrawer(ctx, req.Drawer)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: drawer %d already has an open session", ledger.ErrInvalidState, req.Drawer)
	}

	sess := &model.DrawerSession{
		Drawer:         req.Drawer,
		OperatorID:     operator.ID,
		OperatorName:   operator.Name,
		OpeningBalance: req.OpeningBalance,
		Status:         model.SessionOpen,
		Notes:          req.Notes,
		OpenedAt:       time.Now(),
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}

	// The opening entry seeds the replay: balance := openingBalance.
	opening := &model.LedgerEntry{
		SessionID:   sess.ID,
		Category:    ledger.CategoryOpen,
		Amount:      req.OpeningBalance,
		Description: "session opened",
	}
	if err := s.repo.AppendEntry(ctx, opening); err != nil {
		return nil, err
	}

	metrics.SessionsOpened.Inc()
	metrics.EntriesAppended.WithLabelValues(ledger.CategoryOpen).Inc()
	log.Info().
		Str("session_id", sess.ID.String()).
		Int("drawer", sess.Drawer).
		Str("operator", operator.Name).
		Str("opening_balance", req.OpeningBalance.String()).
		Msg("drawer session opened")

	return sessionResponse(sess), nil
}

// ── Categorized movements ────────────────────────────────────────────────────

func (s *drawerService) AddCash(ctx context.Context, req dto.CashMovementRequest) (*dto.EntryResponse, error) {
	category := ledger.CategoryCashIn
	if req.Direction == "out" {
		category = ledger.CategoryCashOut
	}
	return s.appendMovement(ctx, req.SessionID, category, req.Amount, req.Description, nil, false)
}

func (s *drawerService) RecordSale(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
	return s.appendMovement(ctx, req.SessionID, ledger.CategoryCashSale, req.Amount,
		orDefault(req.Description, "cash sale"), req.Reference, req.Correction)
}

func (s *drawerService) RecordReturn(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
	return s.appendMovement(ctx, req.SessionID, ledger.CategoryReturn, req.Amount,
		orDefault(req.Description, "customer return"), req.Reference, req.Correction)
}

// RecordExpense stores the expense category label in Reference.
func (s *drawerService) RecordExpense(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
	return s.appendMovement(ctx, req.SessionID, ledger.CategoryExpense, req.Amount,
		orDefault(req.Description, "expense"), req.Reference, req.Correction)
}

func (s *drawerService) RecordSupplierPayment(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
	return s.appendMovement(ctx, req.SessionID, ledger.CategorySupplierPayment, req.Amount,
		orDefault(req.Description, "supplier payment"), req.Reference, false)
}

func (s *drawerService) RecordDebtCollection(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
	return s.appendMovement(ctx, req.SessionID, ledger.CategoryCashReceipt, req.Amount,
		orDefault(req.Description, "debt collection"), req.Reference, false)
}

func (s *drawerService) RecordSalaryWithdrawal(ctx context.Context, req dto.MovementRequest) (*dto.EntryResponse, error) {
	return s.appendMovement(ctx, req.SessionID, ledger.CategorySalaryWithdrawal, req.Amount,
		orDefault(req.Description, "salary withdrawal"), req.Reference, false)
}

func (s *drawerService) AdjustBalance(ctx context.Context, req dto.AdjustBalanceRequest) (*dto.EntryResponse, error) {
	if req.Reason == "" {
		return nil, fmt.Errorf("%w: adjustment requires a reason", ledger.ErrValidation)
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session id: %v", ledger.ErrValidation, err)
	}
	defer s.lock("session:" + req.SessionID)()

	sess, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry := &model.LedgerEntry{
		SessionID:   sess.ID,
		Category:    ledger.CategoryAdjustment,
		Amount:      req.NewBalance,
		Description: req.Reason,
	}
	if err := s.append(ctx, sess, entry); err != nil {
		return nil, err
	}
	return entryResponse(entry), nil
}

// appendMovement validates and appends one categorized entry. Corrections
// carry their signed amount and the modification action tag; everything else
// is stored as a positive magnitude.
func (s *drawerService) appendMovement(ctx context.Context, rawSessionID, category string, amount decimal.Decimal, description string, reference *string, correction bool) (*dto.EntryResponse, error) {
	sessionID, err := uuid.Parse(rawSessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session id: %v", ledger.ErrValidation, err)
	}
	defer s.lock("session:" + rawSessionID)()

	sess, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if correction {
		if amount.IsZero() {
			return nil, fmt.Errorf("%w: correction amount must not be zero", ledger.ErrValidation)
		}
	} else if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ledger.ErrValidation)
	}

	if category == ledger.CategoryCashOut {
		entries, err := s.repo.ListEntries(ctx, sess.ID, repository.TimeRange{})
		if err != nil {
			return nil, err
		}
		if balance := ledger.Replay(entries); amount.GreaterThan(balance) {
			return nil, fmt.Errorf("%w: cash-out %s exceeds balance %s",
				ledger.ErrInsufficientBalance, amount, balance)
		}
	}

	entry := &model.LedgerEntry{
		SessionID:   sess.ID,
		Category:    category,
		Amount:      amount,
		Description: description,
		Reference:   reference,
	}
	if correction {
		action := ledger.ActionModification
		entry.Action = &action
	}
	if err := s.append(ctx, sess, entry); err != nil {
		return nil, err
	}
	return entryResponse(entry), nil
}

// append persists a validated entry and invalidates derived caches.
// All-or-nothing: a persistence failure leaves the ledger untouched.
func (s *drawerService) append(ctx context.Context, sess *model.DrawerSession, entry *model.LedgerEntry) error {
	if err := s.repo.AppendEntry(ctx, entry); err != nil {
		return err
	}
	metrics.EntriesAppended.WithLabelValues(entry.Category).Inc()
	if s.cache != nil {
		s.cache.Invalidate(ctx, sess.ID)
	}
	return nil
}

// ── VoidEntry ────────────────────────────────────────────────────────────────

// VoidEntry flips the voided flag, excluding the entry from replay and
// aggregation. The original entry is preserved for audit; the reason is
// recorded in the operational log.
func (s *drawerService) VoidEntry(ctx context.Context, entryID uuid.UUID, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: voiding requires a reason", ledger.ErrValidation)
	}
	entry, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%w: entry not found", ledger.ErrValidation)
	}
	defer s.lock("session:" + entry.SessionID.String())()

	if _, err := s.openSession(ctx, entry.SessionID); err != nil {
		return err
	}
	if entry.Voided {
		return fmt.Errorf("%w: entry already voided", ledger.ErrValidation)
	}
	if err := s.repo.MarkEntryVoided(ctx, entryID); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, entry.SessionID)
	}
	log.Info().
		Str("entry_id", entryID.String()).
		Str("session_id", entry.SessionID.String()).
		Str("reason", reason).
		Msg("ledger entry voided")
	return nil
}

// ── Close ────────────────────────────────────────────────────────────────────

func (s *drawerService) Close(ctx context.Context, req dto.CloseDrawerRequest) (*dto.CloseDrawerResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid session id: %v", ledger.ErrValidation, err)
	}
	defer s.lock("session:" + req.SessionID)()

	sess, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, sess.ID, repository.TimeRange{})
	if err != nil {
		return nil, err
	}

	snap := ledger.Reconcile(sess.OpeningBalance, entries)
	delta := ledger.CloseDelta(req.CountedAmount, snap.CurrentBalance)
	summary := ledger.Summarize(entries)

	// A discrepancy is recorded, never rejected: physical counts drift.
	now := time.Now()
	counted := req.CountedAmount
	current := snap.CurrentBalance
	sess.CountedAmount = &counted
	sess.ClosingBalance = &current
	sess.Difference = &delta
	sess.Status = model.SessionClosed
	sess.ClosedAt = &now
	if req.Notes != nil {
		sess.Notes = req.Notes
	}
	if err := s.repo.UpdateSession(ctx, sess); err != nil {
		return nil, err
	}

	metrics.SessionsClosed.Inc()
	if snap.HasDiscrepancy {
		metrics.DiscrepanciesDetected.Inc()
	}
	log.Info().
		Str("session_id", sess.ID.String()).
		Str("counted", counted.String()).
		Str("replayed", current.String()).
		Str("close_delta", delta.String()).
		Bool("discrepancy", snap.HasDiscrepancy).
		Msg("drawer session closed")

	if s.dispatcher != nil {
		job := worker.CloseReportJob{
			SessionID:     sess.ID.String(),
			Drawer:        sess.Drawer,
			OperatorName:  sess.OperatorName,
			CountedAmount: counted.String(),
			Balance:       current.String(),
			CloseDelta:    delta.String(),
		}
		if err := s.dispatcher.EnqueueCloseReport(ctx, job); err != nil {
			// Best effort: the ledger is already durable.
			log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("failed to enqueue close report")
		}
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, sess.ID)
	}

	return &dto.CloseDrawerResponse{
		Session:       *sessionResponse(sess),
		CountedAmount: counted,
		Balance:       snap,
		CloseDelta:    delta,
		Summary:       summary,
	}, nil
}

// ── Read-only queries ────────────────────────────────────────────────────────

func (s *drawerService) Snapshot(ctx context.Context, sessionID uuid.UUID, at *time.Time) (*dto.SnapshotResponse, error) {
	sess, entries, err := s.sessionWithEntries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := &dto.SnapshotResponse{SessionID: sess.ID.String()}
	if at != nil {
		resp.Balance = ledger.ReconcileAt(sess.OpeningBalance, entries, *at)
		asOf := at.Format(time.RFC3339)
		resp.AsOf = &asOf
	} else {
		resp.Balance = ledger.Reconcile(sess.OpeningBalance, entries)
	}
	return resp, nil
}

func (s *drawerService) Summary(ctx context.Context, sessionID uuid.UUID, daily bool) (*dto.SummaryResponse, error) {
	if daily && s.cache != nil {
		if cached, ok := s.cache.Get(ctx, sessionID, time.Now()); ok {
			return &dto.SummaryResponse{SessionID: sessionID.String(), Window: "daily", Totals: *cached}, nil
		}
	}

	sess, entries, err := s.sessionWithEntries(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	resp := &dto.SummaryResponse{SessionID: sess.ID.String(), Window: "session"}
	if daily {
		resp.Window = "daily"
		resp.Totals = ledger.SummarizeDay(entries, time.Now())
		if s.cache != nil {
			s.cache.Set(ctx, sessionID, time.Now(), resp.Totals)
		}
	} else {
		resp.Totals = ledger.Summarize(entries)
	}
	return resp, nil
}

func (s *drawerService) Entries(ctx context.Context, sessionID uuid.UUID, category string, tr repository.TimeRange) ([]dto.EntryResponse, error) {
	if category != "" && !ledger.ValidCategory(category) {
		return nil, fmt.Errorf("%w: unknown category %q", ledger.ErrValidation, category)
	}
	sess, err := s.repo.FindSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session not found", ledger.ErrValidation)
	}
	var entries []model.LedgerEntry
	if category != "" {
		entries, err = s.repo.ListEntriesByCategory(ctx, sessionID, category, tr)
	} else {
		entries, err = s.repo.ListEntries(ctx, sessionID, tr)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		resp[i] = *entryResponse(&entries[i])
	}
	return resp, nil
}

func (s *drawerService) Active(ctx context.Context, drawer int) (*dto.SessionResponse, error) {
	sess, err := s.repo.FindOpenSessionByDrawer(ctx, drawer)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return sessionResponse(sess), nil
}

func (s *drawerService) History(ctx context.Context, page, limit int) (*dto.SessionListResponse, error) {
	sessions, total, err := s.repo.ListSessions(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	resp := &dto.SessionListResponse{Page: page, Limit: limit, Total: total}
	resp.Data = make([]dto.SessionResponse, len(sessions))
	for i := range sessions {
		resp.Data[i] = *sessionResponse(&sessions[i])
	}
	return resp, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// openSession loads a session and rejects anything not in the Open state.
func (s *drawerService) openSession(ctx context.Context, id uuid.UUID) (*model.DrawerSession, error) {
	sess, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: session not found", ledger.ErrValidation)
	}
	if sess.Status != model.SessionOpen {
		return nil, fmt.Errorf("%w: session is closed", ledger.ErrInvalidState)
	}
	return sess, nil
}

func (s *drawerService) sessionWithEntries(ctx context.Context, id uuid.UUID) (*model.DrawerSession, []model.LedgerEntry, error) {
	sess, err := s.repo.FindSessionByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess == nil {
		return nil, nil, fmt.Errorf("%w: session not found", ledger.ErrValidation)
	}
	entries, err := s.repo.ListEntries(ctx, id, repository.TimeRange{})
	if err != nil {
		return nil, nil, err
	}
	return sess, entries, nil
}

func sessionResponse(s *model.DrawerSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		SessionID:      s.ID.String(),
		Drawer:         s.Drawer,
		OperatorID:     s.OperatorID.String(),
		OperatorName:   s.OperatorName,
		OpeningBalance: s.OpeningBalance,
		Status:         s.Status,
		Notes:          s.Notes,
		OpenedAt:       s.OpenedAt.Format(time.RFC3339),
		CountedAmount:  s.CountedAmount,
		ClosingBalance: s.ClosingBalance,
		Difference:     s.Difference,
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	return resp
}

func entryResponse(e *model.LedgerEntry) *dto.EntryResponse {
	return &dto.EntryResponse{
		ID:          e.ID.String(),
		SessionID:   e.SessionID.String(),
		Category:    e.Category,
		Amount:      e.Amount,
		Description: e.Description,
		Reference:   e.Reference,
		Action:      e.Action,
		Voided:      e.Voided,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
