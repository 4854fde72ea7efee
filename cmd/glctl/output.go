package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-gl/internal/variance"
	"github.com/odyssey-erp/odyssey-gl/jobs"
)

type summaryJSON struct {
	BudgetID           int64  `json:"budget_id"`
	VarianceDate       string `json:"variance_date"`
	TotalBudgeted      string `json:"total_budgeted"`
	TotalActual        string `json:"total_actual"`
	TotalVariance      string `json:"total_variance"`
	VariancePercentage string `json:"variance_percentage"`
	Utilization        string `json:"utilization"`
	Favorable          int    `json:"favorable"`
	Unfavorable        int    `json:"unfavorable"`
	Neutral            int    `json:"neutral"`
	Lines              int    `json:"lines"`
}

func writeSummary(w io.Writer, s variance.Summary, asJSON bool) error {
	date := ""
	if !s.VarianceDate.IsZero() {
		date = s.VarianceDate.Format(time.DateOnly)
	}
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summaryJSON{
			BudgetID:           s.BudgetID,
			VarianceDate:       date,
			TotalBudgeted:      s.TotalBudgeted.StringFixed(2),
			TotalActual:        s.TotalActual.StringFixed(2),
			TotalVariance:      s.TotalVariance.StringFixed(2),
			VariancePercentage: s.VariancePercentage.StringFixed(2),
			Utilization:        s.Utilization.StringFixed(2),
			Favorable:          s.Favorable,
			Unfavorable:        s.Unfavorable,
			Neutral:            s.Neutral,
			Lines:              s.Lines,
		})
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Budget\t%d\n", s.BudgetID)
	fmt.Fprintf(tw, "Date\t%s\n", date)
	fmt.Fprintf(tw, "Budgeted\t%s\n", s.TotalBudgeted.StringFixed(2))
	fmt.Fprintf(tw, "Actual\t%s\n", s.TotalActual.StringFixed(2))
	fmt.Fprintf(tw, "Variance\t%s (%s%%)\n", s.TotalVariance.StringFixed(2), s.VariancePercentage.StringFixed(2))
	fmt.Fprintf(tw, "Utilization\t%s%%\n", s.Utilization.StringFixed(2))
	fmt.Fprintf(tw, "Lines\t%d favorable, %d unfavorable, %d neutral\n", s.Favorable, s.Unfavorable, s.Neutral)
	return tw.Flush()
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeIntegrity(w io.Writer, r jobs.IntegrityReport) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Accounts\t%d\n", r.Accounts)
	fmt.Fprintf(tw, "Debit\t%s\n", r.TotalDebit.StringFixed(2))
	fmt.Fprintf(tw, "Credit\t%s\n", r.TotalCredit.StringFixed(2))
	if r.OK() {
		fmt.Fprintln(tw, "Status\tOK")
		return tw.Flush()
	}
	fmt.Fprintf(tw, "Status\t%d violation(s)\n", len(r.Violations))
	for _, v := range r.Violations {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Check, v.Subject, v.Detail)
	}
	return tw.Flush()
}

func writeReport(w io.Writer, kind string, balances []reports.AccountBalance) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	switch kind {
	case "pl":
		pl := reports.BuildProfitAndLoss(balances)
		for _, sec := range []reports.ProfitAndLossSection{pl.Revenue, pl.CostOfSales, pl.Expense} {
			fmt.Fprintf(tw, "%s\t\t\n", sec.Label)
			for _, a := range sec.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Code, a.Name, a.Amount.StringFixed(2))
			}
			fmt.Fprintf(tw, "\tTotal\t%s\n", sec.Total.StringFixed(2))
		}
		fmt.Fprintf(tw, "\tGross profit\t%s\n", pl.GrossProfit.StringFixed(2))
		fmt.Fprintf(tw, "\tNet income\t%s\n", pl.NetIncome.StringFixed(2))
	case "bs":
		bs := reports.BuildBalanceSheet(balances)
		for _, sec := range []reports.BalanceSheetSection{bs.Assets, bs.Liabilities, bs.Equity} {
			fmt.Fprintf(tw, "%s\t\t\n", sec.Label)
			for _, a := range sec.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", a.Code, a.Name, a.Balance.StringFixed(2))
			}
			fmt.Fprintf(tw, "\tTotal\t%s\n", sec.Total.StringFixed(2))
		}
		fmt.Fprintf(tw, "\tCurrent earnings\t%s\n", bs.CurrentEarnings.StringFixed(2))
		fmt.Fprintf(tw, "\tLiabilities and equity\t%s\n", bs.TotalLiabilitiesAndEquity.StringFixed(2))
	default:
		tb := reports.BuildTrialBalance(balances)
		fmt.Fprintln(tw, "Code\tName\tDebit\tCredit\t")
		for _, g := range tb.Groups {
			for _, a := range g.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", a.Code, a.Name, a.Debit.StringFixed(2), a.Credit.StringFixed(2))
			}
		}
		fmt.Fprintf(tw, "\tTotal\t%s\t%s\t\n", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
	}
	return tw.Flush()
}
