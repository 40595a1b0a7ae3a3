package tablestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// SQLBackend stores every table's rows in one generic relation,
// preserving the load/save-wholesale contract while letting deployments
// swap the CSV blobs for a real database.
type SQLBackend struct {
	db *sql.DB
}

// OpenSQL opens the DB and ensures the schema exists.
func OpenSQL(ctx context.Context, driver Driver, dsn string) (*SQLBackend, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:examportal.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/examportal?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, err
	}
	return &SQLBackend{db: db}, nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS table_rows (
  tbl TEXT NOT NULL,
  seq INTEGER NOT NULL,
  row TEXT NOT NULL,
  PRIMARY KEY (tbl, seq)
);
`

func (b *SQLBackend) Load(ctx context.Context, table string) ([]Row, error) {
	rs, err := b.db.QueryContext(ctx,
		`SELECT row FROM table_rows WHERE tbl=$1 ORDER BY seq`, table)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var rows []Row
	for rs.Next() {
		var raw string
		if err := rs.Scan(&raw); err != nil {
			return nil, err
		}
		var row Row
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, rs.Err()
}

func (b *SQLBackend) Save(ctx context.Context, table string, rows []Row) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM table_rows WHERE tbl=$1`, table); err != nil {
		return err
	}
	for i, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO table_rows (tbl, seq, row) VALUES ($1, $2, $3)`,
			table, i, string(raw)); err != nil {
			return err
		}
	}
	return tx.Commit()
}
