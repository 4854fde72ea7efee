package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

type recordingLedger struct {
	inputs []journals.PostingInput
	err    error
}

func (l *recordingLedger) PostJournal(ctx context.Context, input journals.PostingInput) (journals.Entry, error) {
	if l.err != nil {
		return journals.Entry{}, l.err
	}
	l.inputs = append(l.inputs, input)
	return journals.Entry{Number: "JE000001"}, nil
}

type chartByCode map[string]int64

func (c chartByCode) GetByCode(ctx context.Context, code string) (accounts.Account, error) {
	id, ok := c[code]
	if !ok {
		return accounts.Account{}, shared.NotFound("account", code)
	}
	return accounts.Account{ID: id, Code: code}, nil
}

type fixedPeriod struct{ id int64 }

func (p fixedPeriod) FindActiveByDate(ctx context.Context, date time.Time) (periods.Period, error) {
	if p.id == 0 {
		return periods.Period{}, shared.NotFound("budget_period", date)
	}
	return periods.Period{ID: p.id}, nil
}

type memoryKeys map[string]string

func (m memoryKeys) CheckAndInsert(ctx context.Context, key, module string) error {
	if _, ok := m[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m[key] = module
	return nil
}

func (m memoryKeys) Delete(ctx context.Context, key string) error {
	delete(m, key)
	return nil
}

var chart = chartByCode{"1000": 1, "1010": 2, "1300": 13, "2410": 24, "4000": 40}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sums(lines []journals.LineInput) (decimal.Decimal, decimal.Decimal) {
	var dr, cr decimal.Decimal
	for _, l := range lines {
		dr = dr.Add(l.Debit)
		cr = cr.Add(l.Credit)
	}
	return dr, cr
}

var when = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func TestOrderCompletedPostsBalancedEntry(t *testing.T) {
	ledger := &recordingLedger{}
	h := NewHooks(ledger, fixedPeriod{id: 3}, chart, nil, memoryKeys{}, nil)
	evt := OrderCompleted{OrderNumber: "SO-1", CompletedAt: when, Subtotal: amount("100"), Tax: amount("11"), Total: amount("111"), ActorID: 9}

	require.NoError(t, h.HandleOrderCompleted(context.Background(), evt))
	require.Len(t, ledger.inputs, 1)
	in := ledger.inputs[0]
	assert.Equal(t, journals.EntryTypeAutomatic, in.Entry.EntryType)
	assert.Equal(t, journals.SourceOrder, in.Entry.SourceType)
	assert.Equal(t, uuid.NewSHA1(uuid.Nil, []byte("ORDER:SO-1")), in.Entry.SourceDocumentID)
	require.NotNil(t, in.Entry.BudgetPeriodID)
	assert.Equal(t, int64(3), *in.Entry.BudgetPeriodID)

	require.Len(t, in.Lines, 3)
	assert.Equal(t, int64(13), in.Lines[0].AccountID)
	assert.True(t, in.Lines[0].Debit.Equal(amount("111")))
	assert.Equal(t, int64(40), in.Lines[1].AccountID)
	assert.Equal(t, int64(24), in.Lines[2].AccountID)
	dr, cr := sums(in.Lines)
	assert.True(t, dr.Equal(cr))

	require.NoError(t, h.HandleOrderCompleted(context.Background(), evt), "replayed events are ignored")
	assert.Len(t, ledger.inputs, 1)
}

func TestOrderWithoutTaxOrPeriod(t *testing.T) {
	ledger := &recordingLedger{}
	h := NewHooks(ledger, fixedPeriod{}, chart, nil, nil, nil)
	evt := OrderCompleted{OrderNumber: "SO-2", CompletedAt: when, Subtotal: amount("50"), Total: amount("50")}
	require.NoError(t, h.HandleOrderCompleted(context.Background(), evt))
	in := ledger.inputs[0]
	assert.Len(t, in.Lines, 2)
	assert.Nil(t, in.Entry.BudgetPeriodID)
}

func TestOrderRejectsInconsistentAmounts(t *testing.T) {
	h := NewHooks(&recordingLedger{}, nil, chart, nil, nil, nil)
	err := h.HandleOrderCompleted(context.Background(), OrderCompleted{OrderNumber: "SO-3", CompletedAt: when, Subtotal: amount("10"), Tax: amount("1"), Total: amount("12")})
	assert.Error(t, err)
	err = h.HandleOrderCompleted(context.Background(), OrderCompleted{CompletedAt: when, Total: amount("1"), Subtotal: amount("1")})
	assert.Error(t, err)
}

func TestPaymentUsesBankAccountWhenGiven(t *testing.T) {
	ledger := &recordingLedger{}
	h := NewHooks(ledger, nil, chart, nil, nil, nil)
	require.NoError(t, h.HandlePaymentReceived(context.Background(), PaymentReceived{PaymentNumber: "PAY-1", OrderNumber: "SO-1", ReceivedAt: when, Amount: amount("111")}))
	require.NoError(t, h.HandlePaymentReceived(context.Background(), PaymentReceived{PaymentNumber: "PAY-2", OrderNumber: "SO-1", ReceivedAt: when, Amount: amount("5"), BankAccountCode: "1010"}))
	require.Len(t, ledger.inputs, 2)
	assert.Equal(t, int64(1), ledger.inputs[0].Lines[0].AccountID)
	assert.Equal(t, int64(2), ledger.inputs[1].Lines[0].AccountID)
	assert.Equal(t, int64(13), ledger.inputs[1].Lines[1].AccountID)
	assert.Equal(t, journals.SourcePayment, ledger.inputs[1].Entry.SourceType)

	err := h.HandlePaymentReceived(context.Background(), PaymentReceived{PaymentNumber: "PAY-3", ReceivedAt: when, Amount: amount("5"), BankAccountCode: "9999"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestReturnReversesOrderSides(t *testing.T) {
	ledger := &recordingLedger{}
	h := NewHooks(ledger, nil, chart, nil, nil, nil)
	evt := ReturnProcessed{ReturnNumber: "RT-1", OrderNumber: "SO-1", ProcessedAt: when, Subtotal: amount("20"), Tax: amount("2.2"), Total: amount("22.2")}
	require.NoError(t, h.HandleReturnProcessed(context.Background(), evt))
	lines := ledger.inputs[0].Lines
	require.Len(t, lines, 3)
	assert.True(t, lines[0].Debit.Equal(amount("20")))
	assert.True(t, lines[1].Debit.Equal(amount("2.2")))
	assert.True(t, lines[2].Credit.Equal(amount("22.2")))
	assert.Equal(t, int64(13), lines[2].AccountID)
}

func TestFailedPostReleasesKey(t *testing.T) {
	boom := errors.New("db down")
	ledger := &recordingLedger{err: boom}
	keys := memoryKeys{}
	h := NewHooks(ledger, nil, chart, nil, keys, nil)
	evt := PaymentReceived{PaymentNumber: "PAY-9", ReceivedAt: when, Amount: amount("1")}
	assert.ErrorIs(t, h.HandlePaymentReceived(context.Background(), evt), boom)
	assert.Empty(t, keys)

	ledger.err = nil
	require.NoError(t, h.HandlePaymentReceived(context.Background(), evt))
	assert.Len(t, ledger.inputs, 1)
}

func TestMissingMappedAccount(t *testing.T) {
	h := NewHooks(&recordingLedger{}, nil, chartByCode{"1300": 13}, nil, nil, nil)
	err := h.HandleOrderCompleted(context.Background(), OrderCompleted{OrderNumber: "SO-4", CompletedAt: when, Subtotal: amount("1"), Total: amount("1")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
