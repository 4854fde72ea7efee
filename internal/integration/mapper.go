package integration

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
)

// OrderCompleted is emitted when a sales order is fulfilled.
type OrderCompleted struct {
	OrderNumber string
	CompletedAt time.Time
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
	ActorID     int64
}

func (e OrderCompleted) validate() error {
	if e.OrderNumber == "" {
		return errors.New("integration: order number required")
	}
	if e.CompletedAt.IsZero() {
		return errors.New("integration: order completion date required")
	}
	return checkSplit(e.Subtotal, e.Tax, e.Total)
}

// PaymentReceived is emitted when a customer payment clears.
type PaymentReceived struct {
	PaymentNumber   string
	OrderNumber     string
	ReceivedAt      time.Time
	Amount          decimal.Decimal
	BankAccountCode string
	ActorID         int64
}

func (e PaymentReceived) validate() error {
	if e.PaymentNumber == "" {
		return errors.New("integration: payment number required")
	}
	if e.ReceivedAt.IsZero() {
		return errors.New("integration: payment date required")
	}
	if !e.Amount.IsPositive() {
		return errors.New("integration: payment amount must be positive")
	}
	return nil
}

// ReturnProcessed is emitted when returned goods are credited to the customer.
type ReturnProcessed struct {
	ReturnNumber string
	OrderNumber  string
	ProcessedAt  time.Time
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	ActorID      int64
}

func (e ReturnProcessed) validate() error {
	if e.ReturnNumber == "" {
		return errors.New("integration: return number required")
	}
	if e.ProcessedAt.IsZero() {
		return errors.New("integration: return date required")
	}
	return checkSplit(e.Subtotal, e.Tax, e.Total)
}

func checkSplit(subtotal, tax, total decimal.Decimal) error {
	if !total.IsPositive() || subtotal.IsNegative() || tax.IsNegative() {
		return errors.New("integration: amounts must be positive")
	}
	if !subtotal.Add(tax).Equal(total) {
		return errors.New("integration: subtotal plus tax must equal total")
	}
	return nil
}

func sourceKey(source journals.SourceType, number string) string {
	return string(source) + ":" + number
}

func entryInput(source journals.SourceType, key, number string, date time.Time, period *int64, description string, actor int64) journals.CreateEntryInput {
	return journals.CreateEntryInput{
		EntryDate:            date,
		EntryType:            journals.EntryTypeAutomatic,
		SourceType:           source,
		SourceDocumentID:     uuid.NewSHA1(uuid.Nil, []byte(key)),
		SourceDocumentNumber: number,
		Description:          description,
		BudgetPeriodID:       period,
		CreatedBy:            actor,
	}
}

func debit(account int64, amount decimal.Decimal, description string) journals.LineInput {
	return journals.LineInput{AccountID: account, Debit: round2(amount), Description: description}
}

func credit(account int64, amount decimal.Decimal, description string) journals.LineInput {
	return journals.LineInput{AccountID: account, Credit: round2(amount), Description: description}
}

// orderLines skips the VAT line on tax exempt orders.
func orderLines(ar, revenue, vat int64, e OrderCompleted) []journals.LineInput {
	lines := []journals.LineInput{
		debit(ar, e.Total, "Receivable "+e.OrderNumber),
		credit(revenue, e.Subtotal, "Revenue "+e.OrderNumber),
	}
	if e.Tax.IsPositive() {
		lines = append(lines, credit(vat, e.Tax, "Output VAT "+e.OrderNumber))
	}
	return lines
}

func paymentLines(cash, ar int64, e PaymentReceived) []journals.LineInput {
	return []journals.LineInput{
		debit(cash, e.Amount, "Payment "+e.PaymentNumber),
		credit(ar, e.Amount, "Settle "+e.OrderNumber),
	}
}

func returnLines(revenue, vat, ar int64, e ReturnProcessed) []journals.LineInput {
	lines := []journals.LineInput{debit(revenue, e.Subtotal, "Return "+e.ReturnNumber)}
	if e.Tax.IsPositive() {
		lines = append(lines, debit(vat, e.Tax, "VAT reversal "+e.ReturnNumber))
	}
	return append(lines, credit(ar, e.Total, "Credit "+e.OrderNumber))
}

func round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
