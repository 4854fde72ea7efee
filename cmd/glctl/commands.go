package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-gl/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-gl/internal/platform/db"
	"github.com/odyssey-erp/odyssey-gl/jobs"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string             { return "migrate" }
func (*migrateCmd) Synopsis() string         { return "apply the ledger schema" }
func (*migrateCmd) Usage() string            { return "glctl migrate\n" }
func (*migrateCmd) SetFlags(f *flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx, false)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer e.close()
	if err := db.Migrate(ctx, e.pool); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Println("schema up to date")
	return subcommands.ExitSuccess
}

type varianceRefreshCmd struct {
	budget int64
	async  bool
}

func (*varianceRefreshCmd) Name() string     { return "variance-refresh" }
func (*varianceRefreshCmd) Synopsis() string { return "recompute variance records of a budget" }
func (*varianceRefreshCmd) Usage() string {
	return `glctl variance-refresh [-budget <id>] [-async]

  Replaces every stored variance record of the budget with a fresh
  computation. Without -budget all ACTIVE budgets are refreshed. -async
  enqueues the work for the worker instead of running it here.
`
}

func (c *varianceRefreshCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.budget, "budget", 0, "budget id, 0 refreshes every ACTIVE budget")
	f.BoolVar(&c.async, "async", false, "enqueue instead of running inline")
}

func (c *varianceRefreshCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.async {
		return enqueue(ctx, jobs.TaskVarianceRefresh, c.budget)
	}
	e, err := openEnv(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer e.close()
	if c.budget == 0 {
		n, err := e.ledger.Variance.RefreshActive(ctx)
		fmt.Printf("refreshed %d budget(s)\n", n)
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	rows, err := e.ledger.Variance.Refresh(ctx, c.budget)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("budget %d: %d variance record(s)\n", c.budget, len(rows))
	return subcommands.ExitSuccess
}

type varianceSummaryCmd struct {
	budget int64
	json   bool
}

func (*varianceSummaryCmd) Name() string     { return "variance-summary" }
func (*varianceSummaryCmd) Synopsis() string { return "print the latest variance summary of a budget" }
func (*varianceSummaryCmd) Usage() string    { return "glctl variance-summary -budget <id> [-json]\n" }

func (c *varianceSummaryCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.budget, "budget", 0, "budget id")
	f.BoolVar(&c.json, "json", false, "emit JSON")
}

func (c *varianceSummaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.budget <= 0 {
		fail(errors.New("glctl: -budget is required"))
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer e.close()
	summary, err := e.ledger.Variance.Summary(ctx, c.budget)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if err := writeSummary(os.Stdout, summary, c.json); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type varianceExportCmd struct {
	budget int64
	out    string
}

func (*varianceExportCmd) Name() string     { return "variance-export" }
func (*varianceExportCmd) Synopsis() string { return "write stored variance records as CSV" }
func (*varianceExportCmd) Usage() string    { return "glctl variance-export -budget <id> [-o file.csv]\n" }

func (c *varianceExportCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.budget, "budget", 0, "budget id")
	f.StringVar(&c.out, "o", "", "output file, stdout when empty")
}

func (c *varianceExportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.budget <= 0 {
		fail(errors.New("glctl: -budget is required"))
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer e.close()
	rows, err := e.ledger.Variance.Export(ctx, c.budget)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	w := os.Stdout
	if c.out != "" {
		f, err := os.Create(c.out)
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		defer f.Close()
		w = f
	}
	if err := writeCSV(w, rows); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type integrityCmd struct {
	async bool
}

func (*integrityCmd) Name() string     { return "gl-integrity" }
func (*integrityCmd) Synopsis() string { return "check entry balance and trial balance consistency" }
func (*integrityCmd) Usage() string    { return "glctl gl-integrity [-async]\n" }

func (c *integrityCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.async, "async", false, "enqueue instead of running inline")
}

func (c *integrityCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.async {
		return enqueue(ctx, jobs.TaskGLIntegrity, 0)
	}
	e, err := openEnv(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer e.close()
	report, err := e.ledger.Integrity.Run(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if err := writeIntegrity(os.Stdout, report); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if !report.OK() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type reportCmd struct {
	kind string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print the trial balance, profit and loss or balance sheet" }
func (*reportCmd) Usage() string    { return "glctl report [-kind tb|pl|bs]\n" }

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "tb", "tb, pl or bs")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.kind {
	case "tb", "pl", "bs":
	default:
		fail(fmt.Errorf("glctl: unknown report %q", c.kind))
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx, true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer e.close()
	rows, err := e.ledger.Journals.TrialBalance(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	chart, err := e.ledger.Accounts.List(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if err := writeReport(os.Stdout, c.kind, reports.Balances(rows, chart)); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type jobsStatsCmd struct{}

func (*jobsStatsCmd) Name() string             { return "jobs-stats" }
func (*jobsStatsCmd) Synopsis() string         { return "show queue depth of the ledger worker" }
func (*jobsStatsCmd) Usage() string            { return "glctl jobs-stats\n" }
func (*jobsStatsCmd) SetFlags(f *flag.FlagSet) {}

func (*jobsStatsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cli, err := jobsCLI()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer cli.Close()
	stats, err := cli.InspectQueue(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d archived=%d\n",
		stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Archived)
	return subcommands.ExitSuccess
}

func jobsCLI() (*JobsCLI, error) {
	e, err := loadOnlyConfig()
	if err != nil {
		return nil, err
	}
	return NewJobsCLI(asynq.RedisClientOpt{Addr: e.RedisAddr, Password: e.RedisPassword, DB: e.RedisDB})
}

func enqueue(ctx context.Context, task string, budgetID int64) subcommands.ExitStatus {
	cli, err := jobsCLI()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer cli.Close()
	info, err := cli.Trigger(ctx, task, budgetID)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		fmt.Println("already queued")
		return subcommands.ExitSuccess
	}
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("enqueued %s as %s\n", info.Type, info.ID)
	return subcommands.ExitSuccess
}
