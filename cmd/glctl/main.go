// Command glctl runs ledger maintenance tasks: schema migration, variance
// refresh and reporting, integrity checks and queue inspection.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&migrateCmd{}, "database")
	commander.Register(&varianceRefreshCmd{}, "variance")
	commander.Register(&varianceSummaryCmd{}, "variance")
	commander.Register(&varianceExportCmd{}, "variance")
	commander.Register(&integrityCmd{}, "ledger")
	commander.Register(&reportCmd{}, "ledger")
	commander.Register(&jobsStatsCmd{}, "jobs")

	flag.Parse()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commander.Execute(ctx)
	stop()
	os.Exit(int(code))
}
