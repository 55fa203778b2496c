package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresBackend struct {
	sqlBackend
}

func postgresDSN(opts Options) string {
	u := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(opts.User, opts.Password),
		Host:   net.JoinHostPort(opts.Host, "5432"),
		Path:   "/" + opts.Name,
	}
	return u.String()
}

func openPostgres(opts Options) (*postgresBackend, error) {
	db, err := sql.Open("pgx", postgresDSN(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(2)

	return &postgresBackend{
		sqlBackend: sqlBackend{
			db:            db,
			insertFortune: "INSERT INTO fortune (id, message) VALUES ($1, $2)",
			selectWorld:   "SELECT id, randomnumber FROM world",
		},
	}, nil
}

func (b *postgresBackend) Name() string { return "postgres" }

func (b *postgresBackend) Margin() float64 { return 1 }

// tablePattern matches statements naming table as a whole word
func tablePattern(table string) string {
	return "[[:<:]]" + table + "[[:>:]]"
}

func (b *postgresBackend) CountAllQueries(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	n, err := queryInt(ctx, b.db,
		"SELECT COALESCE(SUM(calls), 0)::BIGINT FROM pg_stat_statements WHERE query ~* $1",
		tablePattern(table))
	if err != nil {
		return 0, fmt.Errorf("failed to read pg_stat_statements: %w", err)
	}
	return n, nil
}

func (b *postgresBackend) CountRowsSelected(ctx context.Context, table string) (int64, error) {
	return b.sumRows(ctx, table, "select")
}

func (b *postgresBackend) CountRowsUpdated(ctx context.Context, table string) (int64, error) {
	return b.sumRows(ctx, table, "update")
}

func (b *postgresBackend) sumRows(ctx context.Context, table, verb string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	n, err := queryInt(ctx, b.db,
		"SELECT COALESCE(SUM(rows), 0)::BIGINT FROM pg_stat_statements WHERE query ~* $1 AND query ~* $2",
		tablePattern(table), verb)
	if err != nil {
		return 0, fmt.Errorf("failed to read pg_stat_statements: %w", err)
	}
	return n, nil
}
