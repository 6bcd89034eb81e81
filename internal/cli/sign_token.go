package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"hotel_revenue/internal/auth"
)

// signTokenCmd mints a bearer token for an existing user. Operators use it
// for smoke tests; there is no login endpoint.
type signTokenCmd struct {
	env    Env
	userID int64
	ttl    time.Duration
}

func (*signTokenCmd) Name() string     { return "sign-token" }
func (*signTokenCmd) Synopsis() string { return "print a bearer token for a user id" }
func (*signTokenCmd) Usage() string {
	return `revctl sign-token -user <id> [-ttl 1h]

  Prints an HS256 token signed with JWT_SECRET.
`
}

func (c *signTokenCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.userID, "user", 0, "User id to put in the token.")
	f.DurationVar(&c.ttl, "ttl", time.Hour, "Token lifetime.")
}

func (c *signTokenCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.userID <= 0 || c.ttl <= 0 {
		fmt.Fprintln(c.env.Stderr, "Error: -user and a positive -ttl are required")
		return subcommands.ExitUsageError
	}
	if c.env.JWTSecret == "" {
		fmt.Fprintln(c.env.Stderr, "Error: JWT_SECRET is not set")
		return subcommands.ExitFailure
	}
	tok, err := auth.Sign(c.env.JWTSecret, c.userID, c.ttl)
	if err != nil {
		fmt.Fprintf(c.env.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(c.env.Stdout, tok)
	return subcommands.ExitSuccess
}
