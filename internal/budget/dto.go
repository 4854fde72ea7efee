package budget

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CreateInput opens a DRAFT budget. An empty Code is generated from the
// budget sequence.
type CreateInput struct {
	Code        string `validate:"max=64"`
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=1000"`
	PeriodID    int64  `validate:"required,gt=0"`
	Type        Type   `validate:"required,oneof=REVENUE EXPENSE CAPITAL CASH_FLOW COMPREHENSIVE"`
	Notes       string
	ActorID     int64
}

// Validate checks structural constraints.
func (in CreateInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("budget: invalid create input: %w", err)
	}
	return nil
}

// LineInput plans an amount on an account.
type LineInput struct {
	AccountID  int64 `validate:"required,gt=0"`
	Amount     decimal.Decimal
	Dimensions dimension.Set
	Notes      string
}

// Validate checks structural constraints.
func (in LineInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("budget: invalid line input: %w", err)
	}
	return nil
}

// HeaderInput carries optional header changes; nil fields stay untouched.
type HeaderInput struct {
	Name        *string `validate:"omitempty,min=1,max=200"`
	Description *string `validate:"omitempty,max=1000"`
	Type        *Type   `validate:"omitempty,oneof=REVENUE EXPENSE CAPITAL CASH_FLOW COMPREHENSIVE"`
	Notes       *string
}

// Validate checks structural constraints.
func (in HeaderInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("budget: invalid header input: %w", err)
	}
	return nil
}
