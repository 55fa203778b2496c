package database

import (
	"context"
	"database/sql"
	"fmt"
)

// sqlBackend holds the parts shared by the database/sql vendors
type sqlBackend struct {
	db *sql.DB
	// insertFortune has the vendor placeholder syntax
	insertFortune string
	selectWorld   string
}

func (b *sqlBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) Close() error {
	return b.db.Close()
}

func (b *sqlBackend) SnapshotWorldTable(ctx context.Context) (map[int32]int32, error) {
	rows, err := b.db.QueryContext(ctx, b.selectWorld)
	if err != nil {
		return nil, fmt.Errorf("failed to read world table: %w", err)
	}
	defer rows.Close()

	world := make(map[int32]int32, 10000)
	for rows.Next() {
		var id, randomNumber int32
		if err := rows.Scan(&id, &randomNumber); err != nil {
			return nil, fmt.Errorf("failed to scan world row: %w", err)
		}
		world[id] = randomNumber
	}
	return world, rows.Err()
}

func (b *sqlBackend) InsertFixtureFortunes(ctx context.Context, count int) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, b.insertFortune)
	if err != nil {
		return fmt.Errorf("failed to prepare fortune insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < count; i++ {
		if _, err := stmt.ExecContext(ctx, FixtureFortuneFirstID+i, FixtureFortuneMessage); err != nil {
			return fmt.Errorf("failed to insert fortune %d: %w", FixtureFortuneFirstID+i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fortunes: %w", err)
	}
	return nil
}

func queryInt(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	var n sql.NullInt64
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n.Int64, nil
}
