package gateway

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type fileFormat string

const (
	formatCSV  fileFormat = "csv"
	formatJSON fileFormat = "json"
	formatYAML fileFormat = "yaml"
)

// FileGateway stores the table in a single local file. The format follows
// the extension: .csv, .json, .yaml or .yml.
type FileGateway struct {
	mu     sync.Mutex
	path   string
	format fileFormat
}

func NewFile(path string) (*FileGateway, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		return nil, fmt.Errorf("file gateway: path is required")
	}
	var format fileFormat
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		format = formatCSV
	case ".json":
		format = formatJSON
	case ".yaml", ".yml":
		format = formatYAML
	default:
		return nil, fmt.Errorf("file gateway: unsupported extension %q", filepath.Ext(path))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &FileGateway{path: path, format: format}, nil
}

func (g *FileGateway) Path() string { return g.path }

// Read returns an empty table when the file does not exist yet.
func (g *FileGateway) Read(ctx context.Context) (Table, error) {
	if err := ctx.Err(); err != nil {
		return Table{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	b, err := os.ReadFile(g.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, nil
		}
		return Table{}, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return Table{}, nil
	}

	switch g.format {
	case formatCSV:
		return decodeCSV(b)
	case formatJSON:
		var t Table
		if err := json.Unmarshal(b, &t); err != nil {
			return Table{}, err
		}
		return t, nil
	default:
		var t Table
		if err := yaml.Unmarshal(b, &t); err != nil {
			return Table{}, err
		}
		return t, nil
	}
}

func (g *FileGateway) Update(ctx context.Context, t Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	var (
		b   []byte
		err error
	)
	switch g.format {
	case formatCSV:
		b, err = encodeCSV(t)
	case formatJSON:
		b, err = json.MarshalIndent(t, "", "  ")
	default:
		b, err = yaml.Marshal(t)
	}
	if err != nil {
		return err
	}
	return writeFileAtomic(g.path, b)
}

func decodeCSV(b []byte) (Table, error) {
	r := csv.NewReader(bytes.NewReader(b))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, nil
	}
	t := Table{Columns: records[0], Rows: [][]string{}}
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// EncodeCSV writes the header followed by every row.
func EncodeCSV(t Table) ([]byte, error) {
	return encodeCSV(t)
}

// DecodeCSV parses a header row followed by data rows.
func DecodeCSV(b []byte) (Table, error) {
	return decodeCSV(b)
}

func encodeCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFileAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
