package variance

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-gl/internal/budget"
	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

var hundred = decimal.NewFromInt(100)

// DefaultMatchKeys are the dimensions compared between budget and ledger lines.
var DefaultMatchKeys = []dimension.Key{dimension.Department, dimension.CostCenter}

// Classify labels a variance for the given account type. Revenue above plan is
// favorable; expense and cost of sales above plan is not.
func Classify(t accounts.AccountType, variance decimal.Decimal) Type {
	if variance.IsZero() {
		return Neutral
	}
	switch t {
	case accounts.AccountTypeRevenue:
		if variance.IsPositive() {
			return Favorable
		}
		return Unfavorable
	case accounts.AccountTypeExpense, accounts.AccountTypeCostOfSales:
		if variance.IsPositive() {
			return Unfavorable
		}
		return Favorable
	default:
		return Neutral
	}
}

// Percentage is variance / budgeted rounded half-up to 4 places, times 100.
// A zero budget yields zero.
func Percentage(variance, budgeted decimal.Decimal) decimal.Decimal {
	if budgeted.IsZero() {
		return decimal.Zero
	}
	return variance.DivRound(budgeted, 4).Mul(hundred)
}

// MatchLines keeps the POSTED ledger lines whose dimensions agree with filter
// on keys.
func MatchLines(lines []journals.PostedLine, filter dimension.Set, keys []dimension.Key) []journals.PostedLine {
	out := make([]journals.PostedLine, 0, len(lines))
	for _, l := range lines {
		if l.CountsAsActual() && filter.Matches(l.Dimensions, keys) {
			out = append(out, l)
		}
	}
	return out
}

// Actual folds net amounts. Expense-like accounts report the magnitude.
func Actual(acct accounts.Account, lines []journals.PostedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.NetAmount())
	}
	if acct.IsExpenseLike() {
		return total.Abs()
	}
	return total
}

// Evaluate builds the variance of one budget line against matching ledger lines.
func Evaluate(b budget.Budget, line budget.Line, acct accounts.Account, ledger []journals.PostedLine, keys []dimension.Key, date time.Time) Variance {
	actual := Actual(acct, MatchLines(ledger, line.Dimensions, keys))
	diff := actual.Sub(line.Amount)
	v := Variance{
		BudgetID:           b.ID,
		AccountID:          acct.ID,
		AccountCode:        acct.Code,
		VarianceDate:       date,
		BudgetedAmount:     line.Amount,
		ActualAmount:       actual,
		VarianceAmount:     diff,
		VariancePercentage: Percentage(diff, line.Amount),
		Type:               Classify(acct.Type, diff),
		Dimensions:         line.Dimensions.Clone(),
	}
	if line.ID != 0 {
		id := line.ID
		v.BudgetLineID = &id
	}
	return v
}

// Latest keeps the records of the most recent variance date.
func Latest(rows []Variance) []Variance {
	var last time.Time
	for _, r := range rows {
		if r.VarianceDate.After(last) {
			last = r.VarianceDate
		}
	}
	out := make([]Variance, 0, len(rows))
	for _, r := range rows {
		if r.VarianceDate.Equal(last) {
			out = append(out, r)
		}
	}
	return out
}

// Summarize aggregates rows into budget-level totals.
func Summarize(budgetID int64, rows []Variance) Summary {
	s := Summary{
		BudgetID:      budgetID,
		TotalBudgeted: decimal.Zero,
		TotalActual:   decimal.Zero,
		TotalVariance: decimal.Zero,
		Lines:         len(rows),
	}
	for _, r := range rows {
		s.TotalBudgeted = s.TotalBudgeted.Add(r.BudgetedAmount)
		s.TotalActual = s.TotalActual.Add(r.ActualAmount)
		s.TotalVariance = s.TotalVariance.Add(r.VarianceAmount)
		if r.VarianceDate.After(s.VarianceDate) {
			s.VarianceDate = r.VarianceDate
		}
		switch r.Type {
		case Favorable:
			s.Favorable++
		case Unfavorable:
			s.Unfavorable++
		default:
			s.Neutral++
		}
	}
	s.VariancePercentage = Percentage(s.TotalVariance, s.TotalBudgeted)
	s.Utilization = Percentage(s.TotalActual, s.TotalBudgeted)
	return s
}

// SortByMagnitude orders rows by absolute variance, largest first.
func SortByMagnitude(rows []Variance) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].VarianceAmount.Abs().GreaterThan(rows[j].VarianceAmount.Abs())
	})
}

// ExportRows formats rows into CSV-ready strings.
func ExportRows(rows []Variance) [][]string {
	out := make([][]string, 0, len(rows)+1)
	out = append(out, []string{"Date", "Account", "Dimensions", "Budgeted", "Actual", "Variance", "Variance %", "Type"})
	for _, r := range rows {
		out = append(out, []string{
			r.VarianceDate.Format("2006-01-02"),
			r.AccountCode,
			formatDimensions(r.Dimensions),
			r.BudgetedAmount.StringFixed(2),
			r.ActualAmount.StringFixed(2),
			r.VarianceAmount.StringFixed(2),
			r.VariancePercentage.StringFixed(2),
			string(r.Type),
		})
	}
	return out
}

func formatDimensions(s dimension.Set) string {
	parts := make([]string, 0, len(s))
	for _, k := range s.Keys() {
		v, _ := s.Get(k)
		parts = append(parts, string(k)+"="+strconv.FormatInt(v, 10))
	}
	return strings.Join(parts, ";")
}
