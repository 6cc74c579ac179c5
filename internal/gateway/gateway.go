package gateway

import (
	"context"
	"errors"
	"io"
	"slices"
)

var ErrUnsupportedBackend = errors.New("unsupported store backend")

// Table is the whole content of the backing store: a header row and string
// cells. Rows may be shorter than Columns; missing cells read as "".
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Gateway reads and fully overwrites one external table.
type Gateway interface {
	Read(ctx context.Context) (Table, error)
	Update(ctx context.Context, t Table) error
}

// Index returns the position of col in the header, or -1.
func (t Table) Index(col string) int {
	return slices.Index(t.Columns, col)
}

func (t Table) HasColumn(col string) bool {
	return t.Index(col) >= 0
}

// Cell returns the value of col in row i, or "" when the row is short or the
// column is absent.
func (t Table) Cell(i int, col string) string {
	j := t.Index(col)
	if j < 0 || i < 0 || i >= len(t.Rows) || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

func (t Table) Clone() Table {
	out := Table{Columns: slices.Clone(t.Columns)}
	if t.Rows != nil {
		out.Rows = make([][]string, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = slices.Clone(r)
		}
	}
	return out
}

// Close releases the gateway's resources if it holds any.
func Close(g Gateway) error {
	if c, ok := g.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
