package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/journals"
	jobmetrics "github.com/odyssey-erp/odyssey-gl/internal/jobs"
)

// Integrity check names, used as metric labels.
const (
	CheckEntryImbalance = "entry_imbalance"
	CheckTrialBalance   = "trial_balance"
	CheckBalanceDrift   = "balance_drift"
)

// ImbalanceLister finds posted entries whose lines disagree.
type ImbalanceLister interface {
	Imbalances(ctx context.Context) ([]journals.Imbalance, error)
}

// TrialBalancer aggregates posted activity per account.
type TrialBalancer interface {
	TrialBalance(ctx context.Context) ([]journals.TrialBalanceRow, error)
}

// Violation describes one integrity failure.
type Violation struct {
	Check   string
	Subject string
	Detail  string
}

// IntegrityReport summarises an integrity run.
type IntegrityReport struct {
	CheckedAt   time.Time
	Accounts    int
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Violations  []Violation
}

// OK reports whether no violation was found.
func (r IntegrityReport) OK() bool {
	return len(r.Violations) == 0
}

// ErrIntegrityViolation is returned when a run configured to fail finds violations.
var ErrIntegrityViolation = errors.New("gl integrity violation")

// GLIntegrityJob checks that posted entries balance, that the trial balance
// balances and that running balances match posted activity.
type GLIntegrityJob struct {
	Entries ImbalanceLister
	Trial   TrialBalancer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewGLIntegrityJob initialises the integrity handler.
func NewGLIntegrityJob(entries ImbalanceLister, trial TrialBalancer, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{
		Entries: entries,
		Trial:   trial,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	report, err := j.Run(ctx)
	if err != nil {
		return err
	}
	if payload.FailOnViolation && !report.OK() {
		return fmt.Errorf("%w: %d found", ErrIntegrityViolation, len(report.Violations))
	}
	return nil
}

// Run executes every check once.
func (j *GLIntegrityJob) Run(ctx context.Context) (report IntegrityReport, resultErr error) {
	tracker := j.metrics().Track(TaskGLIntegrity)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	logger := j.logger()
	start := j.now()
	report = IntegrityReport{CheckedAt: start, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}

	if j.Entries == nil || j.Trial == nil {
		return report, errors.New("gl integrity: sources not configured")
	}
	imbalances, err := j.Entries.Imbalances(ctx)
	if err != nil {
		logger.Error("load imbalances", slog.Any("error", err))
		return report, err
	}
	for _, im := range imbalances {
		report.Violations = append(report.Violations, Violation{
			Check:   CheckEntryImbalance,
			Subject: im.Number,
			Detail:  fmt.Sprintf("debit %s credit %s", im.Debit.StringFixed(4), im.Credit.StringFixed(4)),
		})
	}

	rows, err := j.Trial.TrialBalance(ctx)
	if err != nil {
		logger.Error("load trial balance", slog.Any("error", err))
		return report, err
	}
	report.Accounts = len(rows)
	for _, row := range rows {
		report.TotalDebit = report.TotalDebit.Add(row.Debit)
		report.TotalCredit = report.TotalCredit.Add(row.Credit)
		if expected := row.ExpectedBalance(); !expected.Equal(row.CurrentBalance) {
			report.Violations = append(report.Violations, Violation{
				Check:   CheckBalanceDrift,
				Subject: row.AccountCode,
				Detail:  fmt.Sprintf("balance %s expected %s", row.CurrentBalance.StringFixed(4), expected.StringFixed(4)),
			})
		}
	}
	if !report.TotalDebit.Equal(report.TotalCredit) {
		report.Violations = append(report.Violations, Violation{
			Check:   CheckTrialBalance,
			Subject: "ledger",
			Detail:  fmt.Sprintf("debit %s credit %s", report.TotalDebit.StringFixed(4), report.TotalCredit.StringFixed(4)),
		})
	}

	counts := make(map[string]int)
	for _, v := range report.Violations {
		counts[v.Check]++
		logger.Error("gl integrity violation",
			slog.String("check", v.Check),
			slog.String("subject", v.Subject),
			slog.String("detail", v.Detail),
		)
	}
	for check, n := range counts {
		j.metrics().AddViolations(check, n)
	}
	logger.Info("GL integrity check executed",
		slog.Int("accounts", report.Accounts),
		slog.Int("violations", len(report.Violations)),
		slog.Duration("duration", time.Since(start)),
	)
	return report, nil
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGLIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskGLIntegrity))
}

func (j *GLIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *GLIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
