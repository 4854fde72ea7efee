package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

// Status enumerates journal lifecycle values.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusValidated Status = "VALIDATED"
	StatusPosted    Status = "POSTED"
	StatusReversed  Status = "REVERSED"
	StatusDeleted   Status = "DELETED"
)

// EntryType classifies how an entry came to be.
type EntryType string

const (
	EntryTypeManual     EntryType = "MANUAL"
	EntryTypeAutomatic  EntryType = "AUTOMATIC"
	EntryTypeAdjustment EntryType = "ADJUSTMENT"
	EntryTypeClosing    EntryType = "CLOSING"
	EntryTypeOpening    EntryType = "OPENING"
	EntryTypeReversal   EntryType = "REVERSAL"
)

// SourceType names the business document behind an automatic entry.
type SourceType string

const (
	SourceOrder             SourceType = "ORDER"
	SourceInvoice           SourceType = "INVOICE"
	SourcePayment           SourceType = "PAYMENT"
	SourceReturn            SourceType = "RETURN"
	SourceCreditTransaction SourceType = "CREDIT_TRANSACTION"
	SourceInventory         SourceType = "INVENTORY"
	SourceManual            SourceType = "MANUAL"
)

// Entry is a journal entry aggregate. Totals are never stored on the struct;
// they are folded from Lines on demand.
type Entry struct {
	ID                   int64
	Number               string
	EntryDate            time.Time
	PostingDate          *time.Time
	EntryType            EntryType
	SourceType           SourceType
	SourceDocumentID     uuid.UUID
	SourceDocumentNumber string
	Description          string
	Notes                string
	Status               Status
	ReversalOfID         *int64
	ReversedByID         *int64
	BudgetPeriodID       *int64
	CreatedBy            int64
	PostedBy             *int64
	PostedAt             *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Lines                []Line
}

// Line stores a debit or credit amount for an account.
type Line struct {
	ID          int64
	EntryID     int64
	LineNumber  int
	AccountID   int64
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Dimensions  dimension.Set
	Description string
	Notes       string
}

// NetAmount is debit minus credit.
func (l Line) NetAmount() decimal.Decimal {
	return l.Debit.Sub(l.Credit)
}

// TotalDebit folds the debit side of every line.
func (e Entry) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredit folds the credit side of every line.
func (e Entry) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether both totals agree.
func (e Entry) IsBalanced() bool {
	return e.TotalDebit().Equal(e.TotalCredit())
}

// PostedLine is a ledger line together with the header fields the variance
// analyzer filters on.
type PostedLine struct {
	EntryID     int64
	EntryNumber string
	EntryDate   time.Time
	EntryStatus Status
	Line
}

// CountsAsActual reports whether the line belongs to a POSTED entry. Reversed
// originals stay out of actuals; their reversal entry is what remains posted.
func (p PostedLine) CountsAsActual() bool {
	return p.EntryStatus == StatusPosted
}

// TrialBalanceRow aggregates posted activity per account.
type TrialBalanceRow struct {
	AccountID      int64
	AccountCode    string
	NormalBalance  accounts.NormalBalance
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	CurrentBalance decimal.Decimal
}

// ExpectedBalance is the running balance implied by the posted activity.
func (r TrialBalanceRow) ExpectedBalance() decimal.Decimal {
	if r.NormalBalance == accounts.NormalCredit {
		return r.Credit.Sub(r.Debit)
	}
	return r.Debit.Sub(r.Credit)
}

// ListFilter narrows entry listings. Zero values are ignored.
type ListFilter struct {
	Status           Status
	From             time.Time
	To               time.Time
	SourceType       SourceType
	SourceDocumentID uuid.UUID
	Limit            int
}

// Imbalance is a posted entry whose stored lines disagree.
type Imbalance struct {
	EntryID int64
	Number  string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}
