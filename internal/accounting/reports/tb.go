// Package reports shapes posted ledger activity into trial balance, profit
// and loss and balance sheet views.
package reports

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
)

// AccountBalance models a general ledger account with aggregated activity.
type AccountBalance struct {
	Code   string
	Name   string
	Type   accounts.AccountType
	Normal accounts.NormalBalance
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Closing is the debit-positive net of the account.
func (a AccountBalance) Closing() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// Natural is the balance signed by the account's normal side.
func (a AccountBalance) Natural() decimal.Decimal {
	if a.Normal == accounts.NormalCredit {
		return a.Credit.Sub(a.Debit)
	}
	return a.Debit.Sub(a.Credit)
}

// GroupKey returns a key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if idx := strings.Index(a.Code, "."); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}

// Balances joins trial balance rows with the chart to pick up names and types.
// Rows for accounts missing from the chart keep their code only.
func Balances(rows []journals.TrialBalanceRow, chart []accounts.Account) []AccountBalance {
	byID := make(map[int64]accounts.Account, len(chart))
	for _, a := range chart {
		byID[a.ID] = a
	}
	out := make([]AccountBalance, 0, len(rows))
	for _, r := range rows {
		acct := byID[r.AccountID]
		out = append(out, AccountBalance{
			Code:   r.AccountCode,
			Name:   acct.Name,
			Type:   acct.Type,
			Normal: r.NormalBalance,
			Debit:  r.Debit,
			Credit: r.Credit,
		})
	}
	return out
}

// TrialBalanceAccount represents a row inside a trial balance group.
type TrialBalanceAccount struct {
	Code    string
	Name    string
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Closing decimal.Decimal
}

// TrialBalanceGroup aggregates accounts sharing a code prefix.
type TrialBalanceGroup struct {
	Key      string
	Accounts []TrialBalanceAccount
	Debit    decimal.Decimal
	Credit   decimal.Decimal
	Closing  decimal.Decimal
}

// TrialBalance is the grouped report.
type TrialBalance struct {
	Groups       []TrialBalanceGroup
	TotalDebit   decimal.Decimal
	TotalCredit  decimal.Decimal
	TotalClosing decimal.Decimal
}

// Balanced reports whether total debits equal total credits.
func (tb TrialBalance) Balanced() bool {
	return tb.TotalDebit.Equal(tb.TotalCredit)
}

// BuildTrialBalance converts account balances into grouped trial balance data.
func BuildTrialBalance(balances []AccountBalance) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range balances {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{
			Code:    acc.Code,
			Name:    acc.Name,
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Closing: acc.Closing(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
		grp.Closing = grp.Closing.Add(row.Closing)
	}

	sort.Strings(keys)
	result := TrialBalance{}
	for _, key := range keys {
		grp := groups[key]
		sort.Slice(grp.Accounts, func(i, j int) bool {
			return grp.Accounts[i].Code < grp.Accounts[j].Code
		})
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
		result.TotalClosing = result.TotalClosing.Add(grp.Closing)
	}
	return result
}
