package variance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-gl/internal/budget"
	"github.com/odyssey-erp/odyssey-gl/internal/dimension"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestClassifyExamples(t *testing.T) {
	cases := []struct {
		name     string
		acctType accounts.AccountType
		budgeted string
		actual   string
		variance string
		want     Type
	}{
		{"revenue above plan", accounts.AccountTypeRevenue, "1000", "1200", "200", Favorable},
		{"revenue below plan", accounts.AccountTypeRevenue, "1000", "900", "-100", Unfavorable},
		{"expense above plan", accounts.AccountTypeExpense, "1000", "1200", "200", Unfavorable},
		{"expense below plan", accounts.AccountTypeExpense, "1000", "800", "-200", Favorable},
		{"cost of sales above plan", accounts.AccountTypeCostOfSales, "500", "650", "150", Unfavorable},
		{"on plan", accounts.AccountTypeExpense, "1000", "1000", "0", Neutral},
		{"asset ignored", accounts.AccountTypeAsset, "1000", "1500", "500", Neutral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			diff := dec(tc.actual).Sub(dec(tc.budgeted))
			assert.True(t, diff.Equal(dec(tc.variance)))
			assert.Equal(t, tc.want, Classify(tc.acctType, diff))
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.True(t, Percentage(dec("200"), dec("1000")).Equal(dec("20")))
	assert.True(t, Percentage(dec("-200"), dec("1000")).Equal(dec("-20")))
	assert.True(t, Percentage(dec("1"), dec("3")).Equal(dec("33.33")), "rounded to four places before scaling")
	assert.True(t, Percentage(dec("2"), dec("3")).Equal(dec("66.67")), "half-up")
	assert.True(t, Percentage(dec("50"), decimal.Zero).IsZero())
}

func posted(net int64, dims dimension.Set) journals.PostedLine {
	l := journals.PostedLine{EntryStatus: journals.StatusPosted, Line: journals.Line{Dimensions: dims}}
	if net >= 0 {
		l.Debit = decimal.NewFromInt(net)
	} else {
		l.Credit = decimal.NewFromInt(-net)
	}
	return l
}

func TestActualUsesMagnitudeForExpenses(t *testing.T) {
	lines := []journals.PostedLine{posted(-700, nil), posted(-500, nil)}
	revenue := accounts.Account{Type: accounts.AccountTypeRevenue}
	expense := accounts.Account{Type: accounts.AccountTypeExpense}
	assert.True(t, Actual(revenue, lines).Equal(dec("-1200")))
	assert.True(t, Actual(expense, lines).Equal(dec("1200")))
	assert.True(t, Actual(expense, nil).IsZero())
}

func TestMatchLinesSkipsReversedEntries(t *testing.T) {
	original := posted(1000, nil)
	original.EntryStatus = journals.StatusReversed
	reversal := posted(-1000, nil)
	lines := MatchLines([]journals.PostedLine{original, reversal}, nil, DefaultMatchKeys)
	require.Len(t, lines, 1)
	expense := accounts.Account{Type: accounts.AccountTypeExpense}
	assert.True(t, Actual(expense, lines).Equal(dec("1000")))

	draft := posted(50, nil)
	draft.EntryStatus = journals.StatusDraft
	assert.Empty(t, MatchLines([]journals.PostedLine{draft}, nil, DefaultMatchKeys))
}

func TestEvaluateTinyBudgetLargeActual(t *testing.T) {
	acct := accounts.Account{ID: 5, Code: "6100", Type: accounts.AccountTypeExpense}
	ledger := []journals.PostedLine{posted(2000000, nil)}
	v := Evaluate(budget.Budget{ID: 1}, budget.Line{Amount: dec("1.00")}, acct, ledger, DefaultMatchKeys, time.Now())
	assert.True(t, v.VarianceAmount.Equal(dec("1999999")))
	assert.True(t, v.VariancePercentage.Equal(dec("199999900")))
	assert.Equal(t, Unfavorable, v.Type)
	// budget_variances.variance_percentage holds 20 integer digits.
	assert.LessOrEqual(t, len(v.VariancePercentage.Truncate(0).Abs().String()), 20)
}

func TestEvaluateFiltersByDimension(t *testing.T) {
	ledger := []journals.PostedLine{
		posted(300, dimension.Set{dimension.Department: 1}),
		posted(200, dimension.Set{dimension.Department: 1, dimension.CostCenter: 4}),
		posted(900, dimension.Set{dimension.Department: 2}),
		posted(50, nil),
	}
	acct := accounts.Account{ID: 5, Code: "6100", Type: accounts.AccountTypeExpense}
	date := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	b := budget.Budget{ID: 1}

	dept1 := Evaluate(b, budget.Line{ID: 3, Amount: dec("1000"), Dimensions: dimension.Set{dimension.Department: 1}}, acct, ledger, DefaultMatchKeys, date)
	assert.True(t, dept1.ActualAmount.Equal(dec("500")))
	assert.True(t, dept1.VarianceAmount.Equal(dec("-500")))
	assert.True(t, dept1.VariancePercentage.Equal(dec("-50")))
	assert.Equal(t, Favorable, dept1.Type)
	require.NotNil(t, dept1.BudgetLineID)
	assert.Equal(t, int64(3), *dept1.BudgetLineID)
	assert.Equal(t, "6100", dept1.AccountCode)

	everything := Evaluate(b, budget.Line{Amount: dec("1000")}, acct, ledger, DefaultMatchKeys, date)
	assert.True(t, everything.ActualAmount.Equal(dec("1450")), "an untagged budget line matches every department")
	assert.Equal(t, Unfavorable, everything.Type)
	assert.Nil(t, everything.BudgetLineID)

	narrowKeys := Evaluate(b, budget.Line{Amount: dec("1000"), Dimensions: dimension.Set{dimension.CostCenter: 4}}, acct, ledger, []dimension.Key{dimension.Department}, date)
	assert.True(t, narrowKeys.ActualAmount.Equal(dec("1450")), "keys outside the match set are ignored")
}

func TestSummarizeAndLatest(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	rows := []Variance{
		{VarianceDate: day1, BudgetedAmount: dec("1"), ActualAmount: dec("1"), Type: Neutral},
		{VarianceDate: day2, BudgetedAmount: dec("1000"), ActualAmount: dec("1200"), VarianceAmount: dec("200"), Type: Favorable},
		{VarianceDate: day2, BudgetedAmount: dec("3000"), ActualAmount: dec("2400"), VarianceAmount: dec("-600"), Type: Favorable},
		{VarianceDate: day2, BudgetedAmount: dec("0"), ActualAmount: dec("0"), VarianceAmount: dec("0"), Type: Neutral},
		{VarianceDate: day2, BudgetedAmount: dec("1000"), ActualAmount: dec("1100"), VarianceAmount: dec("100"), Type: Unfavorable},
	}
	latest := Latest(rows)
	require.Len(t, latest, 4)

	s := Summarize(9, latest)
	assert.Equal(t, int64(9), s.BudgetID)
	assert.Equal(t, day2, s.VarianceDate)
	assert.True(t, s.TotalBudgeted.Equal(dec("5000")))
	assert.True(t, s.TotalActual.Equal(dec("4700")))
	assert.True(t, s.TotalVariance.Equal(dec("-300")))
	assert.True(t, s.VariancePercentage.Equal(dec("-6")))
	assert.True(t, s.Utilization.Equal(dec("94")))
	assert.Equal(t, 2, s.Favorable)
	assert.Equal(t, 1, s.Unfavorable)
	assert.Equal(t, 1, s.Neutral)
	assert.Equal(t, 4, s.Lines)

	empty := Summarize(1, nil)
	assert.True(t, empty.Utilization.IsZero())
}

func TestExportRows(t *testing.T) {
	rows := []Variance{
		{AccountCode: "6100", VarianceDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), BudgetedAmount: dec("10"), ActualAmount: dec("30"), VarianceAmount: dec("20"), VariancePercentage: dec("200"), Type: Unfavorable, Dimensions: dimension.Set{dimension.Department: 2, dimension.CostCenter: 7}},
		{AccountCode: "4000", VarianceDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), BudgetedAmount: dec("100"), ActualAmount: dec("50"), VarianceAmount: dec("-50"), VariancePercentage: dec("-50"), Type: Unfavorable},
	}
	SortByMagnitude(rows)
	out := ExportRows(rows)
	require.Len(t, out, 3)
	assert.Equal(t, "Variance %", out[0][6])
	assert.Equal(t, []string{"2025-06-02", "4000", "", "100.00", "50.00", "-50.00", "-50.00", "UNFAVORABLE"}, out[1])
	assert.Equal(t, "cost_center=7;department=2", out[2][2])
}
