package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"hotel_revenue/internal/adapters/observability"
	"hotel_revenue/internal/cli"
	"hotel_revenue/internal/domain"
	"hotel_revenue/internal/shared"
	mysqlrepo "hotel_revenue/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv, "revctl")

	open := func(ctx context.Context) (domain.PriceStore, func(), error) {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(cli.Env{Open: open, JWTSecret: cfg.JWTSecret, Stdout: os.Stdout, Stderr: os.Stderr}) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
