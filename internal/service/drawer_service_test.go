package service_test

import (
	"context"
	"testing"
	"time"

	"drawerledger/internal/dto"
	"drawerledger/internal/ledger"
	"drawerledger/internal/model"
	"drawerledger/internal/repository"
	"drawerledger/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Full in-memory DrawerRepository ──────────────────────────────────────────

type fakeDrawerRepo struct {
	sessions map[uuid.UUID]*model.DrawerSession
	entries  []model.LedgerEntry
	seq      int64
}

func newFakeDrawerRepo() *fakeDrawerRepo {
	return &fakeDrawerRepo{sessions: make(map[uuid.UUID]*model.DrawerSession)}
}

func (r *fakeDrawerRepo) CreateSession(_ context.Context, s *model.DrawerSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeDrawerRepo) FindOpenSessionByDrawer(_ context.Context, drawer int) (*model.DrawerSession, error) {
	for _, s := range r.sessions {
		if s.Drawer == drawer && s.Status == model.SessionOpen {
			return s, nil
		}
	}
	return nil, nil
}

func (r *fakeDrawerRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.DrawerSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	return s, nil
}

func (r *fakeDrawerRepo) UpdateSession(_ context.Context, s *model.DrawerSession) error {
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeDrawerRepo) ListSessions(_ context.Context, page, limit int) ([]model.DrawerSession, int64, error) {
	all := make([]model.DrawerSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *fakeDrawerRepo) AppendEntry(_ context.Context, e *model.LedgerEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.seq++
	e.Seq = r.seq
	e.CreatedAt = time.Now()
	r.entries = append(r.entries, *e)
	return nil
}

func (r *fakeDrawerRepo) FindEntryByID(_ context.Context, id uuid.UUID) (*model.LedgerEntry, error) {
	for i := range r.entries {
		if r.entries[i].ID == id {
			e := r.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (r *fakeDrawerRepo) ListEntries(_ context.Context, sessionID uuid.UUID, tr repository.TimeRange) ([]model.LedgerEntry, error) {
	return r.list(sessionID, "", tr), nil
}

func (r *fakeDrawerRepo) ListEntriesByCategory(_ context.Context, sessionID uuid.UUID, category string, tr repository.TimeRange) ([]model.LedgerEntry, error) {
	return r.list(sessionID, category, tr), nil
}

func (r *fakeDrawerRepo) list(sessionID uuid.UUID, category string, tr repository.TimeRange) []model.LedgerEntry {
	var result []model.LedgerEntry
	for _, e := range r.entries {
		if e.SessionID != sessionID {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		if tr.From != nil && e.CreatedAt.Before(*tr.From) {
			continue
		}
		if tr.To != nil && !e.CreatedAt.Before(*tr.To) {
			continue
		}
		result = append(result, e)
	}
	return result
}

func (r *fakeDrawerRepo) MarkEntryVoided(_ context.Context, id uuid.UUID) error {
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries[i].Voided = true
			return nil
		}
	}
	return ledger.ErrValidation
}

var _ repository.DrawerRepository = (*fakeDrawerRepo)(nil)

// ── Helpers ──────────────────────────────────────────────────────────────────

func newService(repo repository.DrawerRepository) service.DrawerService {
	return service.NewDrawerService(repo, nil, nil)
}

func operator() service.OperatorIdentity {
	return service.OperatorIdentity{ID: uuid.New(), Name: "Test Operator"}
}

func openSession(t *testing.T, svc service.DrawerService, drawer int, opening float64) string {
	t.Helper()
	resp, err := svc.Open(context.Background(), operator(), dto.OpenDrawerRequest{
		Drawer:         drawer,
		OpeningBalance: decimal.NewFromFloat(opening),
	})
	require.NoError(t, err)
	return resp.SessionID
}

func balance(t *testing.T, svc service.DrawerService, sessionID string) decimal.Decimal {
	t.Helper()
	snap, err := svc.Snapshot(context.Background(), uuid.MustParse(sessionID), nil)
	require.NoError(t, err)
	return snap.Balance.CurrentBalance
}

// ── Open ─────────────────────────────────────────────────────────────────────

func TestOpenDrawer(t *testing.T) {
	svc := newService(newFakeDrawerRepo())

	resp, err := svc.Open(context.Background(), operator(), dto.OpenDrawerRequest{
		Drawer:         1,
		OpeningBalance: decimal.NewFromFloat(100),
	})

	require.NoError(t, err)
	assert.Equal(t, "open", resp.Status)
	assert.Equal(t, 1, resp.Drawer)
	assert.Equal(t, "100", resp.OpeningBalance.String())

	// Opening also seeds the replay.
	assert.Equal(t, "100", balance(t, svc, resp.SessionID).String())
}

func TestOpenDrawerDuplicate(t *testing.T) {
	svc := newService(newFakeDrawerRepo())

	openSession(t, svc, 1, 100)

	// Second open on the same drawer must be rejected.
	_, err := svc.Open(context.Background(), operator(), dto.OpenDrawerRequest{
		Drawer:         1,
		OpeningBalance: decimal.NewFromFloat(50),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidState)

	// A different drawer is fine.
	_, err = svc.Open(context.Background(), operator(), dto.OpenDrawerRequest{
		Drawer:         2,
		OpeningBalance: decimal.NewFromFloat(50),
	})
	assert.NoError(t, err)
}

func TestOpenDrawerNegativeBalance(t *testing.T) {
	svc := newService(newFakeDrawerRepo())

	_, err := svc.Open(context.Background(), operator(), dto.OpenDrawerRequest{
		Drawer:         1,
		OpeningBalance: decimal.NewFromFloat(-10),
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// ── Movements ────────────────────────────────────────────────────────────────

func TestAddCashInAndOut(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)

	_, err := svc.AddCash(context.Background(), dto.CashMovementRequest{
		SessionID: id, Direction: "in",
		Amount: decimal.NewFromFloat(50), Description: "change float",
	})
	require.NoError(t, err)

	_, err = svc.AddCash(context.Background(), dto.CashMovementRequest{
		SessionID: id, Direction: "out",
		Amount: decimal.NewFromFloat(30), Description: "bank deposit",
	})
	require.NoError(t, err)

	assert.Equal(t, "120", balance(t, svc, id).String())
}

func TestCashOutInsufficientBalance(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)

	_, err := svc.AddCash(context.Background(), dto.CashMovementRequest{
		SessionID: id, Direction: "out",
		Amount: decimal.NewFromFloat(150), Description: "bank deposit",
	})
	assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)

	// The rejected movement must not have touched the ledger.
	assert.Equal(t, "100", balance(t, svc, id).String())
}

func TestMovementNonPositiveAmount(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)

	_, err := svc.RecordSale(context.Background(), dto.MovementRequest{
		SessionID: id, Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.RecordExpense(context.Background(), dto.MovementRequest{
		SessionID: id, Amount: decimal.NewFromFloat(-5),
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestMovementOnClosedSession(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)

	_, err := svc.Close(context.Background(), dto.CloseDrawerRequest{
		SessionID: id, CountedAmount: decimal.NewFromFloat(100),
	})
	require.NoError(t, err)

	_, err = svc.RecordSale(context.Background(), dto.MovementRequest{
		SessionID: id, Amount: decimal.NewFromFloat(10),
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
}

func TestRecordCategorizedMovements(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(200)})
	require.NoError(t, err)
	_, err = svc.RecordReturn(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(40)})
	require.NoError(t, err)
	_, err = svc.RecordExpense(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(25), Description: "cleaning supplies"})
	require.NoError(t, err)
	_, err = svc.RecordSupplierPayment(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(60)})
	require.NoError(t, err)
	_, err = svc.RecordDebtCollection(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(35)})
	require.NoError(t, err)
	_, err = svc.RecordSalaryWithdrawal(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(15)})
	require.NoError(t, err)

	// 100 + 200 - 40 - 25 - 60 + 35 - 15 = 195
	assert.Equal(t, "195", balance(t, svc, id).String())

	summary, err := svc.Summary(ctx, uuid.MustParse(id), false)
	require.NoError(t, err)
	assert.Equal(t, "200", summary.Totals.Sales.String())
	assert.Equal(t, "40", summary.Totals.Returns.String())
	assert.Equal(t, "25", summary.Totals.Expenses.String())
	assert.Equal(t, "60", summary.Totals.SupplierPayments.String())
	assert.Equal(t, "35", summary.Totals.DebtCollections.String())
	assert.Equal(t, "15", summary.Totals.SalaryWithdrawals.String())
	assert.Equal(t, "160", summary.Totals.NetSales.String())
}

func TestCorrectionMovement(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(40)})
	require.NoError(t, err)

	// Retroactive fix: the sale was really 30, not 40.
	entry, err := svc.RecordSale(ctx, dto.MovementRequest{
		SessionID:   id,
		Amount:      decimal.NewFromFloat(-10),
		Description: "sale amount correction",
		Correction:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, entry.Action)
	assert.Equal(t, "modification", *entry.Action)

	// Corrections apply their signed amount: 100 + 40 - 10 = 130.
	assert.Equal(t, "130", balance(t, svc, id).String())
}

func TestCorrectionZeroAmountRejected(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)

	_, err := svc.RecordSale(context.Background(), dto.MovementRequest{
		SessionID: id, Amount: decimal.Zero, Correction: true,
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// ── Adjustment ───────────────────────────────────────────────────────────────

func TestAdjustOverridesBalance(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	_, err := svc.RecordSale(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(50)})
	require.NoError(t, err)

	_, err = svc.AdjustBalance(ctx, dto.AdjustBalanceRequest{
		SessionID:  id,
		NewBalance: decimal.NewFromFloat(140),
		Reason:     "recount after shift change",
	})
	require.NoError(t, err)

	assert.Equal(t, "140", balance(t, svc, id).String())
}

func TestAdjustRequiresReason(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)

	_, err := svc.AdjustBalance(context.Background(), dto.AdjustBalanceRequest{
		SessionID:  id,
		NewBalance: decimal.NewFromFloat(90),
	})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// ── Void ─────────────────────────────────────────────────────────────────────

func TestVoidEntryExcludedFromReplay(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	entry, err := svc.RecordExpense(ctx, dto.MovementRequest{
		SessionID: id, Amount: decimal.NewFromFloat(30), Description: "duplicate expense",
	})
	require.NoError(t, err)
	assert.Equal(t, "70", balance(t, svc, id).String())

	err = svc.VoidEntry(ctx, uuid.MustParse(entry.ID), "entered twice")
	require.NoError(t, err)

	// The voided entry is preserved but no longer affects the balance.
	assert.Equal(t, "100", balance(t, svc, id).String())

	entries, err := svc.Entries(ctx, uuid.MustParse(id), "expense", repository.TimeRange{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Voided)
}

func TestVoidEntryRequiresReason(t *testing.T) {
	svc := newService(newFakeDrawerRepo())

	err := svc.VoidEntry(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestVoidEntryTwice(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	entry, err := svc.RecordExpense(ctx, dto.MovementRequest{
		SessionID: id, Amount: decimal.NewFromFloat(10), Description: "misc expense",
	})
	require.NoError(t, err)

	require.NoError(t, svc.VoidEntry(ctx, uuid.MustParse(entry.ID), "wrong amount"))
	err = svc.VoidEntry(ctx, uuid.MustParse(entry.ID), "wrong amount")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

// ── Close ────────────────────────────────────────────────────────────────────

func TestCloseRecordsOutcome(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	_, err := svc.AddCash(ctx, dto.CashMovementRequest{
		SessionID: id, Direction: "in",
		Amount: decimal.NewFromFloat(50), Description: "change float",
	})
	require.NoError(t, err)
	_, err = svc.RecordExpense(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(20), Description: "cleaning supplies"})
	require.NoError(t, err)
	_, err = svc.RecordSalaryWithdrawal(ctx, dto.MovementRequest{SessionID: id, Amount: decimal.NewFromFloat(10)})
	require.NoError(t, err)

	// Replayed: 100 + 50 - 20 - 10 = 120. Counted matches exactly.
	resp, err := svc.Close(ctx, dto.CloseDrawerRequest{
		SessionID:     id,
		CountedAmount: decimal.NewFromFloat(120),
	})
	require.NoError(t, err)

	assert.Equal(t, "closed", resp.Session.Status)
	assert.NotNil(t, resp.Session.ClosedAt)
	assert.Equal(t, "120", resp.Balance.CurrentBalance.String())
	assert.True(t, resp.CloseDelta.IsZero())

	// Cash-only expectation: 100 + 50 = 150, replayed 120 → flagged.
	assert.Equal(t, "150", resp.Balance.ExpectedBalance.String())
	assert.Equal(t, "-30", resp.Balance.Difference.String())
	assert.True(t, resp.Balance.HasDiscrepancy)
}

func TestCloseWithShortage(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 200)

	resp, err := svc.Close(context.Background(), dto.CloseDrawerRequest{
		SessionID:     id,
		CountedAmount: decimal.NewFromFloat(195),
	})
	require.NoError(t, err)

	assert.Equal(t, "-5", resp.CloseDelta.String())
	require.NotNil(t, resp.Session.Difference)
	assert.Equal(t, "-5", resp.Session.Difference.String())
}

func TestCloseTwice(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	_, err := svc.Close(ctx, dto.CloseDrawerRequest{SessionID: id, CountedAmount: decimal.NewFromFloat(100)})
	require.NoError(t, err)

	_, err = svc.Close(ctx, dto.CloseDrawerRequest{SessionID: id, CountedAmount: decimal.NewFromFloat(100)})
	assert.ErrorIs(t, err, ledger.ErrInvalidState)
}

func TestCloseFreesDrawerForReopen(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)
	ctx := context.Background()

	_, err := svc.Close(ctx, dto.CloseDrawerRequest{SessionID: id, CountedAmount: decimal.NewFromFloat(100)})
	require.NoError(t, err)

	// Same drawer can host a new session once the previous one is closed.
	openSession(t, svc, 1, 50)
}

// ── Queries ──────────────────────────────────────────────────────────────────

func TestSnapshotUnknownSession(t *testing.T) {
	svc := newService(newFakeDrawerRepo())

	_, err := svc.Snapshot(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestEntriesRejectsUnknownCategory(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	id := openSession(t, svc, 1, 100)

	_, err := svc.Entries(context.Background(), uuid.MustParse(id), "bogus", repository.TimeRange{})
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestActiveSession(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	ctx := context.Background()

	resp, err := svc.Active(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, resp)

	id := openSession(t, svc, 1, 100)
	resp, err = svc.Active(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, id, resp.SessionID)
}

func TestHistoryPagination(t *testing.T) {
	svc := newService(newFakeDrawerRepo())
	ctx := context.Background()

	for drawer := 1; drawer <= 5; drawer++ {
		openSession(t, svc, drawer, 100)
	}

	resp, err := svc.History(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), resp.Total)
	assert.Len(t, resp.Data, 3)

	resp, err = svc.History(ctx, 2, 3)
	require.NoError(t, err)
	assert.Len(t, resp.Data, 2)
}
