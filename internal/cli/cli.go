// Package cli holds the revctl subcommands.
package cli

import (
	"context"
	"io"

	"github.com/google/subcommands"

	"hotel_revenue/internal/domain"
)

// StoreOpener connects to the database. The returned func releases it.
type StoreOpener func(ctx context.Context) (domain.PriceStore, func(), error)

// Env is what commands need from the process.
type Env struct {
	Open      StoreOpener
	JWTSecret string
	Stdout    io.Writer
	Stderr    io.Writer
}

func Commands(env Env) []subcommands.Command {
	return []subcommands.Command{
		&populatePricesCmd{env: env},
		&signTokenCmd{env: env},
	}
}
