package journals

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateEntryInput opens a draft entry.
type CreateEntryInput struct {
	EntryDate            time.Time  `validate:"required"`
	EntryType            EntryType  `validate:"required,oneof=MANUAL AUTOMATIC ADJUSTMENT CLOSING OPENING"`
	SourceType           SourceType `validate:"omitempty,oneof=ORDER INVOICE PAYMENT RETURN CREDIT_TRANSACTION INVENTORY MANUAL"`
	SourceDocumentID     uuid.UUID
	SourceDocumentNumber string `validate:"max=64"`
	Description          string `validate:"max=500"`
	Notes                string
	BudgetPeriodID       *int64 `validate:"omitempty,gt=0"`
	CreatedBy            int64  `validate:"gte=0"`
}

// Validate checks structural constraints before a transaction opens.
func (in CreateEntryInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("journals: invalid entry input: %w", err)
	}
	return nil
}

// LineInput describes a line to add to a draft.
type LineInput struct {
	AccountID   int64 `validate:"required,gt=0"`
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Dimensions  dimension.Set
	Description string `validate:"max=500"`
	Notes       string
}

// Validate checks structural constraints; amount rules live on Entry.AddLine.
func (in LineInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("journals: invalid line input: %w", err)
	}
	return nil
}

// PostingInput creates, fills, validates and posts an entry in one unit.
// Posting adapters use it for automatic entries.
type PostingInput struct {
	Entry   CreateEntryInput
	Lines   []LineInput `validate:"required,min=1,dive"`
	ActorID int64
}

// Validate checks the header and every line.
func (in PostingInput) Validate() error {
	if err := in.Entry.Validate(); err != nil {
		return err
	}
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("journals: invalid posting input: %w", err)
	}
	return nil
}

// ReverseInput wraps parameters for reversal.
type ReverseInput struct {
	EntryID int64  `validate:"required,gt=0"`
	Reason  string `validate:"required,max=500"`
	ActorID int64
	// Date of the reversing entry; defaults to the service clock.
	Date *time.Time
}

// Validate checks the reversal request.
func (in ReverseInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("journals: invalid reverse input: %w", err)
	}
	return nil
}
