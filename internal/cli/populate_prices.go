package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"hotel_revenue/internal/app"
)

type populatePricesCmd struct {
	env  Env
	opts app.PopulateOptions
}

func (*populatePricesCmd) Name() string { return "populate-prices" }
func (*populatePricesCmd) Synopsis() string {
	return "generate historical competitor prices for active properties"
}
func (*populatePricesCmd) Usage() string {
	return `revctl populate-prices [-dry-run] [-delete-existing] [-days-back n] [-days-forward n]
                       [-competitors n] [-batch-size n] [-property id]

  Ensures every active property has its generated competitors and fills
  one price per competitor per day around today. Reruns reuse the same
  competitors; use -delete-existing to replace previously generated data.
`
}

func (c *populatePricesCmd) SetFlags(f *flag.FlagSet) {
	d := app.DefaultPopulateOptions()
	f.BoolVar(&c.opts.DryRun, "dry-run", false, "Report what would be written without writing.")
	f.BoolVar(&c.opts.DeleteExisting, "delete-existing", false, "Delete previously generated competitors, links and prices first.")
	f.IntVar(&c.opts.DaysBack, "days-back", d.DaysBack, "Days before today to generate.")
	f.IntVar(&c.opts.DaysForward, "days-forward", d.DaysForward, "Days from today (inclusive) to generate.")
	f.IntVar(&c.opts.Competitors, "competitors", d.Competitors, "Generated competitors per property.")
	f.IntVar(&c.opts.BatchSize, "batch-size", d.BatchSize, "Rows per INSERT statement.")
	f.Int64Var(&c.opts.PropertyID, "property", 0, "Only populate this property id.")
}

func (c *populatePricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 0 {
		fmt.Fprintf(c.env.Stderr, "Error: unexpected arguments %v\n", f.Args())
		return subcommands.ExitUsageError
	}
	if c.opts.BatchSize < 1 {
		fmt.Fprintln(c.env.Stderr, "Error: -batch-size must be at least 1")
		return subcommands.ExitUsageError
	}

	store, closeStore, err := c.env.Open(ctx)
	if err != nil {
		fmt.Fprintf(c.env.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	if _, err := app.NewPricePopulator(store, c.env.Stdout).Run(ctx, c.opts); err != nil {
		fmt.Fprintf(c.env.Stderr, "Error: %+v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
