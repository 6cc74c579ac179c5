package gateway

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// sqlColumns maps table header names onto the fixed SQL schema. Header
// columns outside this list are not persisted by the SQL backend.
var sqlColumns = []struct {
	header string
	column string
}{
	{"ID", "id"},
	{"Task", "task"},
	{"Due Date", "due_date"},
	{"Recurrence", "recurrence"},
	{"Notes", "notes"},
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type sqlRow struct {
	Pos        int    `db:"row_pos"`
	ID         string `db:"id"`
	Task       string `db:"task"`
	DueDate    string `db:"due_date"`
	Recurrence string `db:"recurrence"`
	Notes      string `db:"notes"`
}

// SQLGateway keeps the table in a SQL database, one row per table row,
// every cell stored as text. Update replaces the content in a single
// transaction.
type SQLGateway struct {
	db    *sqlx.DB
	table string
}

// OpenSQL connects with driver "sqlite" or "postgres" and ensures the
// table exists.
func OpenSQL(ctx context.Context, driver, dsn, table string) (*SQLGateway, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("%w: sql driver %q", ErrUnsupportedBackend, driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	g, err := NewSQL(ctx, db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return g, nil
}

func NewSQL(ctx context.Context, db *sqlx.DB, table string) (*SQLGateway, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		table = "tasks"
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("sql gateway: invalid table name %q", table)
	}
	g := &SQLGateway{db: db, table: table}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	row_pos INTEGER NOT NULL,
	id TEXT NOT NULL DEFAULT '',
	task TEXT NOT NULL DEFAULT '',
	due_date TEXT NOT NULL DEFAULT '',
	recurrence TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT ''
)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}
	return g, nil
}

func (g *SQLGateway) Close() error {
	return g.db.Close()
}

func (g *SQLGateway) Read(ctx context.Context) (Table, error) {
	var rows []sqlRow
	q := fmt.Sprintf(`SELECT row_pos, id, task, due_date, recurrence, notes FROM %s ORDER BY row_pos`, g.table)
	if err := g.db.SelectContext(ctx, &rows, q); err != nil {
		return Table{}, err
	}

	t := Table{Rows: make([][]string, 0, len(rows))}
	for _, c := range sqlColumns {
		t.Columns = append(t.Columns, c.header)
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.ID, r.Task, r.DueDate, r.Recurrence, r.Notes})
	}
	return t, nil
}

func (g *SQLGateway) Update(ctx context.Context, t Table) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, g.table)); err != nil {
		return err
	}

	insert := tx.Rebind(fmt.Sprintf(
		`INSERT INTO %s (row_pos, id, task, due_date, recurrence, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		g.table,
	))
	for i := range t.Rows {
		args := []any{i}
		for _, c := range sqlColumns {
			args = append(args, t.Cell(i, c.header))
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
