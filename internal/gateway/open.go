package gateway

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
)

// Options selects and configures a backend.
type Options struct {
	Backend string // memory | file | sqlite | postgres | sheets
	Path    string // file path for "file", database file for "sqlite"
	DSN     string // overrides Path for "sqlite"; required for "postgres"
	Table   string // SQL table name

	SpreadsheetID   string
	Range           string
	CredentialsFile string
}

// Open builds the gateway described by opts. Callers release it with Close.
func Open(ctx context.Context, opts Options) (Gateway, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "memory":
		return NewMemory(Table{}), nil
	case "", "file":
		return NewFile(opts.Path)
	case "sqlite":
		dsn := opts.DSN
		if dsn == "" {
			dsn = opts.Path
		}
		if dsn == "" {
			return nil, fmt.Errorf("sqlite backend: path or dsn is required")
		}
		return OpenSQL(ctx, "sqlite", dsn, opts.Table)
	case "postgres":
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres backend: dsn is required")
		}
		return OpenSQL(ctx, "postgres", opts.DSN, opts.Table)
	case "sheets":
		var clientOpts []option.ClientOption
		if opts.CredentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
		}
		return NewSheets(ctx, opts.SpreadsheetID, opts.Range, clientOpts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, opts.Backend)
	}
}
