package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	jobmetrics "github.com/odyssey-erp/odyssey-gl/internal/jobs"
)

type stubLedger struct {
	imbalances []journals.Imbalance
	rows       []journals.TrialBalanceRow
	err        error
}

func (s stubLedger) Imbalances(ctx context.Context) ([]journals.Imbalance, error) {
	return s.imbalances, s.err
}

func (s stubLedger) TrialBalance(ctx context.Context) ([]journals.TrialBalanceRow, error) {
	return s.rows, nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func healthyRows() []journals.TrialBalanceRow {
	return []journals.TrialBalanceRow{
		{AccountCode: "1000", NormalBalance: accounts.NormalDebit, Debit: d(500), Credit: d(100), CurrentBalance: d(400)},
		{AccountCode: "4000", NormalBalance: accounts.NormalCredit, Debit: d(100), Credit: d(500), CurrentBalance: d(400)},
	}
}

func newJob(ledger stubLedger) *GLIntegrityJob {
	return NewGLIntegrityJob(ledger, ledger, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
}

func TestIntegrityCleanLedger(t *testing.T) {
	report, err := newJob(stubLedger{rows: healthyRows()}).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 2, report.Accounts)
	assert.True(t, report.TotalDebit.Equal(report.TotalCredit))
}

func TestIntegrityReportsEveryCheck(t *testing.T) {
	rows := healthyRows()
	rows[0].CurrentBalance = d(450)
	rows[1].Credit = d(510)
	rows[1].CurrentBalance = d(410)
	ledger := stubLedger{
		imbalances: []journals.Imbalance{{EntryID: 7, Number: "JE000007", Debit: d(10), Credit: d(9)}},
		rows:       rows,
	}
	report, err := newJob(ledger).Run(context.Background())
	require.NoError(t, err)
	checks := map[string]int{}
	for _, v := range report.Violations {
		checks[v.Check]++
	}
	assert.Equal(t, map[string]int{CheckEntryImbalance: 1, CheckBalanceDrift: 1, CheckTrialBalance: 1}, checks)
}

func TestIntegrityHandle(t *testing.T) {
	ledger := stubLedger{imbalances: []journals.Imbalance{{Number: "JE000001", Debit: d(1), Credit: d(2)}}, rows: healthyRows()}
	job := newJob(ledger)

	lenient, err := NewGLIntegrityTask(GLIntegrityPayload{})
	require.NoError(t, err)
	assert.NoError(t, job.Handle(context.Background(), lenient))

	strict, err := NewGLIntegrityTask(GLIntegrityPayload{FailOnViolation: true})
	require.NoError(t, err)
	assert.ErrorIs(t, job.Handle(context.Background(), strict), ErrIntegrityViolation)

	garbage := asynq.NewTask(TaskGLIntegrity, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), garbage), asynq.SkipRetry)

	boom := errors.New("db down")
	assert.ErrorIs(t, newJob(stubLedger{err: boom}).Handle(context.Background(), lenient), boom)
}
