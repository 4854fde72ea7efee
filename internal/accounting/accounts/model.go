package accounts

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset       AccountType = "ASSET"
	AccountTypeLiability   AccountType = "LIABILITY"
	AccountTypeEquity      AccountType = "EQUITY"
	AccountTypeRevenue     AccountType = "REVENUE"
	AccountTypeExpense     AccountType = "EXPENSE"
	AccountTypeCostOfSales AccountType = "COST_OF_SALES"
)

// Category refines AccountType for reporting.
type Category string

const (
	CategoryCurrentAsset      Category = "CURRENT_ASSET"
	CategoryFixedAsset        Category = "FIXED_ASSET"
	CategoryCurrentLiability  Category = "CURRENT_LIABILITY"
	CategoryLongTermLiability Category = "LONG_TERM_LIABILITY"
	CategoryEquity            Category = "EQUITY"
	CategoryOperatingRevenue  Category = "OPERATING_REVENUE"
	CategoryOtherRevenue      Category = "OTHER_REVENUE"
	CategoryOperatingExpense  Category = "OPERATING_EXPENSE"
	CategoryFinancialExpense  Category = "FINANCIAL_EXPENSE"
	CategoryOtherExpense      Category = "OTHER_EXPENSE"
)

// NormalBalance is the side on which an account grows.
type NormalBalance string

const (
	NormalDebit  NormalBalance = "DEBIT"
	NormalCredit NormalBalance = "CREDIT"
)

// Account models a chart of accounts node.
type Account struct {
	ID                    int64
	Code                  string
	Name                  string
	Description           string
	Type                  AccountType
	Category              Category
	NormalBalance         NormalBalance
	ParentID              *int64
	AllowDirectPosting    bool
	RequireDepartment     bool
	RequireCostCenter     bool
	RequireBusinessObject bool
	CurrentBalance        decimal.Decimal
	IsActive              bool
	SortOrder             int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RequiredDimensions lists the dimensions every line on this account must carry.
func (a Account) RequiredDimensions() []dimension.Key {
	var keys []dimension.Key
	if a.RequireDepartment {
		keys = append(keys, dimension.Department)
	}
	if a.RequireCostCenter {
		keys = append(keys, dimension.CostCenter)
	}
	if a.RequireBusinessObject {
		keys = append(keys, dimension.BusinessObject)
	}
	return keys
}

// BalanceDelta converts a line's net amount (debit - credit) into the change
// applied to CurrentBalance given the account's normal side.
func (a Account) BalanceDelta(net decimal.Decimal) decimal.Decimal {
	if a.NormalBalance == NormalCredit {
		return net.Neg()
	}
	return net
}

// IsExpenseLike reports whether actuals are compared in absolute terms.
func (a Account) IsExpenseLike() bool {
	return a.Type == AccountTypeExpense || a.Type == AccountTypeCostOfSales
}

// DefaultNormalBalance returns the conventional normal side for t.
func DefaultNormalBalance(t AccountType) NormalBalance {
	switch t {
	case AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue:
		return NormalCredit
	default:
		return NormalDebit
	}
}
