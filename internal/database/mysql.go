package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// mysqlMargin compensates for no-op updates, which MySQL does not count
const mysqlMargin = 1.015

type mysqlBackend struct {
	sqlBackend
}

func mysqlDSN(opts Options) string {
	cfg := mysql.NewConfig()
	cfg.User = opts.User
	cfg.Passwd = opts.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(opts.Host, "3306")
	cfg.DBName = opts.Name
	return cfg.FormatDSN()
}

func openMySQL(opts Options) (*mysqlBackend, error) {
	db, err := sql.Open("mysql", mysqlDSN(opts))
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql: %w", err)
	}
	db.SetMaxOpenConns(2)

	return &mysqlBackend{
		sqlBackend: sqlBackend{
			db:            db,
			insertFortune: "INSERT INTO fortune (id, message) VALUES (?, ?)",
			selectWorld:   "SELECT id, randomNumber FROM world",
		},
	}, nil
}

func (b *mysqlBackend) Name() string { return "mysql" }

func (b *mysqlBackend) Margin() float64 { return mysqlMargin }

// globalStatus reads the named server status counters. MySQL counters
// are server-wide, so the table is only validated.
func (b *mysqlBackend) globalStatus(ctx context.Context, names ...string) (map[string]int64, error) {
	args := make([]any, len(names))
	placeholders := ""
	for i, name := range names {
		args[i] = name
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
	}

	rows, err := b.db.QueryContext(ctx, "SHOW GLOBAL STATUS WHERE Variable_name IN ("+placeholders+")", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read mysql status: %w", err)
	}
	defer rows.Close()

	status := make(map[string]int64, len(names))
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan mysql status: %w", err)
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("status %s is not an integer: %w", name, err)
		}
		status[name] = n
	}
	return status, rows.Err()
}

func (b *mysqlBackend) CountAllQueries(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	status, err := b.globalStatus(ctx, "Com_select", "Com_update")
	if err != nil {
		return 0, err
	}
	return status["Com_select"] + status["Com_update"], nil
}

func (b *mysqlBackend) CountRowsSelected(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	status, err := b.globalStatus(ctx, "Innodb_rows_read", "Innodb_rows_updated")
	if err != nil {
		return 0, err
	}
	// Updates read the row before writing it
	return status["Innodb_rows_read"] - status["Innodb_rows_updated"], nil
}

func (b *mysqlBackend) CountRowsUpdated(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}
	status, err := b.globalStatus(ctx, "Innodb_rows_updated")
	if err != nil {
		return 0, err
	}
	return status["Innodb_rows_updated"], nil
}
