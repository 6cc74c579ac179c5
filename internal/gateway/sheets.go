package gateway

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsGateway reads and overwrites a range of a Google spreadsheet. The
// first row of the range is the header.
type SheetsGateway struct {
	svc           *sheets.Service
	spreadsheetID string
	rng           string
}

func NewSheets(ctx context.Context, spreadsheetID, rng string, opts ...option.ClientOption) (*SheetsGateway, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, fmt.Errorf("sheets gateway: spreadsheet id is required")
	}
	rng = strings.TrimSpace(rng)
	if rng == "" {
		rng = "Sheet1"
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets gateway: %w", err)
	}
	return &SheetsGateway{svc: svc, spreadsheetID: spreadsheetID, rng: rng}, nil
}

func (g *SheetsGateway) Read(ctx context.Context) (Table, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, g.rng).Context(ctx).Do()
	if err != nil {
		return Table{}, err
	}
	if len(resp.Values) == 0 {
		return Table{}, nil
	}

	t := Table{Rows: make([][]string, 0, len(resp.Values)-1)}
	for _, v := range resp.Values[0] {
		t.Columns = append(t.Columns, cellString(v))
	}
	for _, raw := range resp.Values[1:] {
		row := make([]string, len(t.Columns))
		for j, v := range raw {
			if j < len(row) {
				row[j] = cellString(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Update clears the range and writes the table from its top-left cell. The
// Sheets API offers no transaction, so a failure between the two calls
// leaves the range empty.
func (g *SheetsGateway) Update(ctx context.Context, t Table) error {
	if _, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, g.rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear range: %w", err)
	}

	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := make([]interface{}, len(t.Columns))
	for j, c := range t.Columns {
		header[j] = c
	}
	values = append(values, header)
	for i := range t.Rows {
		row := make([]interface{}, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = t.Cell(i, c)
		}
		values = append(values, row)
	}

	_, err := g.svc.Spreadsheets.Values.Update(g.spreadsheetID, g.rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update range: %w", err)
	}
	return nil
}

func cellString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
