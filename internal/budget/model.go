package budget

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

// Type classifies what a budget plans for.
type Type string

const (
	TypeRevenue       Type = "REVENUE"
	TypeExpense       Type = "EXPENSE"
	TypeCapital       Type = "CAPITAL"
	TypeCashFlow      Type = "CASH_FLOW"
	TypeComprehensive Type = "COMPREHENSIVE"
)

// Status enumerates budget lifecycle values.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Budget plans amounts per account and dimension for one period.
type Budget struct {
	ID          int64
	Code        string
	Name        string
	Description string
	PeriodID    int64
	Type        Type
	Status      Status
	Version     int
	Notes       string
	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Lines       []Line
}

// Line is a planned amount on one account.
type Line struct {
	ID          int64
	BudgetID    int64
	LineNumber  int
	AccountID   int64
	AccountCode string
	Amount      decimal.Decimal
	Dimensions  dimension.Set
	Notes       string
}

// TotalAmount folds the line amounts.
func (b Budget) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range b.Lines {
		total = total.Add(l.Amount)
	}
	return total
}

// Line returns the line with the given number.
func (b Budget) Line(n int) (Line, bool) {
	for _, l := range b.Lines {
		if l.LineNumber == n {
			return l, true
		}
	}
	return Line{}, false
}
