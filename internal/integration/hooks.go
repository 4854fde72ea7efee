package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-gl/internal/shared"
)

const idempotencyModule = "integration"

// Ledger exposes journal posting operations required by integrations.
type Ledger interface {
	PostJournal(ctx context.Context, input journals.PostingInput) (journals.Entry, error)
}

// PeriodLookup resolves the active period for an event date.
type PeriodLookup interface {
	FindActiveByDate(ctx context.Context, date time.Time) (periods.Period, error)
}

// AccountLookup resolves chart codes to accounts.
type AccountLookup interface {
	GetByCode(ctx context.Context, code string) (accounts.Account, error)
}

// CodeResolver maps module keys to account codes.
type CodeResolver interface {
	Code(ctx context.Context, module, key string) (string, error)
}

// Hooks wires business events from operational systems into the general ledger.
type Hooks struct {
	ledger   Ledger
	periods  PeriodLookup
	accounts AccountLookup
	codes    CodeResolver
	once     shared.IdempotencyPort
	logger   *slog.Logger
}

// NewHooks constructs integration hooks. once may be nil when the caller
// already deduplicates events.
func NewHooks(ledger Ledger, periodLookup PeriodLookup, accountLookup AccountLookup, codes CodeResolver, once shared.IdempotencyPort, logger *slog.Logger) *Hooks {
	if codes == nil {
		codes = mappings.NewResolver(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hooks{ledger: ledger, periods: periodLookup, accounts: accountLookup, codes: codes, once: once, logger: logger}
}

func (h *Hooks) resolveAccount(ctx context.Context, module, key string) (int64, error) {
	code, err := h.codes.Code(ctx, module, key)
	if err != nil {
		return 0, err
	}
	acct, err := h.accounts.GetByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("integration: %s/%s -> %s: %w", module, key, code, err)
	}
	return acct.ID, nil
}

func (h *Hooks) periodFor(ctx context.Context, date time.Time) (*int64, error) {
	if h.periods == nil {
		return nil, nil
	}
	p, err := h.periods.FindActiveByDate(ctx, date)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p.ID, nil
}

// post runs input through the engine at most once per source document. A
// document already processed is not an error.
func (h *Hooks) post(ctx context.Context, key string, input journals.PostingInput) error {
	if input.Entry.SourceDocumentID == uuid.Nil {
		return errors.New("integration: source id required")
	}
	run := func(ctx context.Context) error {
		entry, err := h.ledger.PostJournal(ctx, input)
		if err != nil {
			return err
		}
		h.logger.Info("integration posted",
			slog.String("source", key),
			slog.String("number", entry.Number),
			slog.String("total", entry.TotalDebit().StringFixed(2)))
		return nil
	}
	if h.once == nil {
		return run(ctx)
	}
	err := shared.Once(ctx, h.once, key, idempotencyModule, run)
	if errors.Is(err, shared.ErrIdempotencyConflict) {
		h.logger.Debug("integration skipped duplicate", slog.String("source", key))
		return nil
	}
	return err
}

// HandleOrderCompleted books the receivable, revenue and output VAT of a sale.
func (h *Hooks) HandleOrderCompleted(ctx context.Context, evt OrderCompleted) error {
	if err := evt.validate(); err != nil {
		return err
	}
	ar, err := h.resolveAccount(ctx, mappings.ModuleSales, mappings.KeyReceivable)
	if err != nil {
		return err
	}
	revenue, err := h.resolveAccount(ctx, mappings.ModuleSales, mappings.KeyRevenue)
	if err != nil {
		return err
	}
	vat, err := h.resolveAccount(ctx, mappings.ModuleSales, mappings.KeyVAT)
	if err != nil {
		return err
	}
	period, err := h.periodFor(ctx, evt.CompletedAt)
	if err != nil {
		return err
	}
	key := sourceKey(journals.SourceOrder, evt.OrderNumber)
	input := journals.PostingInput{
		Entry: entryInput(journals.SourceOrder, key, evt.OrderNumber, evt.CompletedAt, period,
			fmt.Sprintf("Sales order %s", evt.OrderNumber), evt.ActorID),
		Lines:   orderLines(ar, revenue, vat, evt),
		ActorID: evt.ActorID,
	}
	return h.post(ctx, key, input)
}

// HandlePaymentReceived moves a settled receivable into cash or the bank account.
func (h *Hooks) HandlePaymentReceived(ctx context.Context, evt PaymentReceived) error {
	if err := evt.validate(); err != nil {
		return err
	}
	var cash int64
	var err error
	if evt.BankAccountCode != "" {
		acct, lookupErr := h.accounts.GetByCode(ctx, evt.BankAccountCode)
		if lookupErr != nil {
			return fmt.Errorf("integration: bank account %s: %w", evt.BankAccountCode, lookupErr)
		}
		cash = acct.ID
	} else if cash, err = h.resolveAccount(ctx, mappings.ModulePayments, mappings.KeyCash); err != nil {
		return err
	}
	ar, err := h.resolveAccount(ctx, mappings.ModulePayments, mappings.KeyReceivable)
	if err != nil {
		return err
	}
	period, err := h.periodFor(ctx, evt.ReceivedAt)
	if err != nil {
		return err
	}
	key := sourceKey(journals.SourcePayment, evt.PaymentNumber)
	input := journals.PostingInput{
		Entry: entryInput(journals.SourcePayment, key, evt.PaymentNumber, evt.ReceivedAt, period,
			fmt.Sprintf("Payment %s for order %s", evt.PaymentNumber, evt.OrderNumber), evt.ActorID),
		Lines:   paymentLines(cash, ar, evt),
		ActorID: evt.ActorID,
	}
	return h.post(ctx, key, input)
}

// HandleReturnProcessed unwinds revenue and VAT against the receivable.
func (h *Hooks) HandleReturnProcessed(ctx context.Context, evt ReturnProcessed) error {
	if err := evt.validate(); err != nil {
		return err
	}
	ar, err := h.resolveAccount(ctx, mappings.ModuleSales, mappings.KeyReceivable)
	if err != nil {
		return err
	}
	revenue, err := h.resolveAccount(ctx, mappings.ModuleSales, mappings.KeyRevenue)
	if err != nil {
		return err
	}
	vat, err := h.resolveAccount(ctx, mappings.ModuleSales, mappings.KeyVAT)
	if err != nil {
		return err
	}
	period, err := h.periodFor(ctx, evt.ProcessedAt)
	if err != nil {
		return err
	}
	key := sourceKey(journals.SourceReturn, evt.ReturnNumber)
	input := journals.PostingInput{
		Entry: entryInput(journals.SourceReturn, key, evt.ReturnNumber, evt.ProcessedAt, period,
			fmt.Sprintf("Return %s for order %s", evt.ReturnNumber, evt.OrderNumber), evt.ActorID),
		Lines:   returnLines(revenue, vat, ar, evt),
		ActorID: evt.ActorID,
	}
	return h.post(ctx, key, input)
}
