package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
)

// ProfitAndLossAccount represents a revenue or expense account summary.
type ProfitAndLossAccount struct {
	Code   string
	Name   string
	Amount decimal.Decimal
}

// ProfitAndLossSection groups accounts by nature.
type ProfitAndLossSection struct {
	Label    string
	Accounts []ProfitAndLossAccount
	Total    decimal.Decimal
}

func (s *ProfitAndLossSection) add(acc AccountBalance, amount decimal.Decimal) {
	s.Accounts = append(s.Accounts, ProfitAndLossAccount{Code: acc.Code, Name: acc.Name, Amount: amount})
	s.Total = s.Total.Add(amount)
}

func (s *ProfitAndLossSection) sort() {
	sort.Slice(s.Accounts, func(i, j int) bool { return s.Accounts[i].Code < s.Accounts[j].Code })
}

// ProfitAndLoss contains the structured output for the report.
type ProfitAndLoss struct {
	Revenue     ProfitAndLossSection
	CostOfSales ProfitAndLossSection
	Expense     ProfitAndLossSection
	GrossProfit decimal.Decimal
	NetIncome   decimal.Decimal
}

// BuildProfitAndLoss aggregates accounts into revenue, cost of sales and expense sections.
func BuildProfitAndLoss(balances []AccountBalance) ProfitAndLoss {
	pl := ProfitAndLoss{
		Revenue:     ProfitAndLossSection{Label: "Revenue"},
		CostOfSales: ProfitAndLossSection{Label: "Cost of Sales"},
		Expense:     ProfitAndLossSection{Label: "Expense"},
	}
	for _, acc := range balances {
		switch acc.Type {
		case accounts.AccountTypeRevenue:
			pl.Revenue.add(acc, acc.Credit.Sub(acc.Debit))
		case accounts.AccountTypeCostOfSales:
			pl.CostOfSales.add(acc, acc.Debit.Sub(acc.Credit))
		case accounts.AccountTypeExpense:
			pl.Expense.add(acc, acc.Debit.Sub(acc.Credit))
		}
	}
	pl.Revenue.sort()
	pl.CostOfSales.sort()
	pl.Expense.sort()
	pl.GrossProfit = pl.Revenue.Total.Sub(pl.CostOfSales.Total)
	pl.NetIncome = pl.GrossProfit.Sub(pl.Expense.Total)
	return pl
}
