package variance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

// Type classifies a variance from the organisation's point of view.
type Type string

const (
	Favorable   Type = "FAVORABLE"
	Unfavorable Type = "UNFAVORABLE"
	Neutral     Type = "NEUTRAL"
)

// Variance compares one budget line with the ledger on a given day.
type Variance struct {
	ID                 int64
	BudgetID           int64
	BudgetLineID       *int64
	AccountID          int64
	AccountCode        string
	VarianceDate       time.Time
	BudgetedAmount     decimal.Decimal
	ActualAmount       decimal.Decimal
	VarianceAmount     decimal.Decimal
	VariancePercentage decimal.Decimal
	Type               Type
	Dimensions         dimension.Set
	CreatedAt          time.Time
}

// Summary aggregates the variances of a budget. It is derived, never stored.
type Summary struct {
	BudgetID           int64
	VarianceDate       time.Time
	TotalBudgeted      decimal.Decimal
	TotalActual        decimal.Decimal
	TotalVariance      decimal.Decimal
	VariancePercentage decimal.Decimal
	Utilization        decimal.Decimal
	Favorable          int
	Unfavorable        int
	Neutral            int
	Lines              int
}

// Filter narrows stored variances. Zero values are ignored.
type Filter struct {
	BudgetID     int64
	AccountID    int64
	Type         Type
	DimensionKey dimension.Key
	DimensionRef int64
}
