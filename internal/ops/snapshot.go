package ops

import (
	"archive/tar"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/zeebo/blake3"

	"hometasks/internal/gateway"
)

const (
	tableEntry    = "tasks.csv"
	manifestEntry = "manifest.json"
)

var ErrDigestMismatch = errors.New("snapshot digest mismatch")

// Manifest describes a snapshot archive.
type Manifest struct {
	CreatedAt time.Time `json:"createdAt"`
	Columns   []string  `json:"columns"`
	Rows      int       `json:"rows"`
	Digest    string    `json:"digest"`
}

// Digest is a BLAKE3 hash over the table's columns and cells. Two tables
// with equal content have equal digests regardless of backend.
func Digest(t gateway.Table) string {
	h := blake3.New()
	writeField := func(s string) {
		_, _ = fmt.Fprintf(h, "%d:", len(s))
		_, _ = io.WriteString(h, s)
	}
	_, _ = fmt.Fprintf(h, "c%d\n", len(t.Columns))
	for _, c := range t.Columns {
		writeField(c)
	}
	for _, row := range t.Rows {
		_, _ = fmt.Fprintf(h, "\nr%d\n", len(t.Columns))
		for j := range t.Columns {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			writeField(cell)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeEntry(tw *tar.Writer, name string, body []byte, mod time.Time) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(body)),
		ModTime:  mod,
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(body)
	return err
}

// WriteSnapshot writes t as a gzip-compressed tar holding the table as CSV
// and a manifest.
func WriteSnapshot(w io.Writer, t gateway.Table, now time.Time) (Manifest, error) {
	csvBody, err := gateway.EncodeCSV(t)
	if err != nil {
		return Manifest{}, err
	}
	m := Manifest{
		CreatedAt: now.UTC(),
		Columns:   append([]string(nil), t.Columns...),
		Rows:      len(t.Rows),
		Digest:    Digest(t),
	}
	mb, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, err
	}

	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	if err := writeEntry(tw, manifestEntry, mb, m.CreatedAt); err != nil {
		return Manifest{}, err
	}
	if err := writeEntry(tw, tableEntry, csvBody, m.CreatedAt); err != nil {
		return Manifest{}, err
	}
	if err := tw.Close(); err != nil {
		return Manifest{}, err
	}
	if err := gz.Close(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// ReadSnapshot decodes an archive written by WriteSnapshot and checks the
// table against the manifest digest.
func ReadSnapshot(r io.Reader) (gateway.Table, Manifest, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return gateway.Table{}, Manifest{}, err
	}
	defer gz.Close()

	var (
		m        Manifest
		t        gateway.Table
		gotMan   bool
		gotTable bool
	)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return gateway.Table{}, Manifest{}, err
		}
		name, err := sanitizeArchiveRelPath(hdr.Name)
		if err != nil {
			return gateway.Table{}, Manifest{}, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		switch name {
		case manifestEntry:
			if err := json.NewDecoder(tr).Decode(&m); err != nil {
				return gateway.Table{}, Manifest{}, fmt.Errorf("decode manifest: %w", err)
			}
			gotMan = true
		case tableEntry:
			body, err := io.ReadAll(tr)
			if err != nil {
				return gateway.Table{}, Manifest{}, err
			}
			t, err = gateway.DecodeCSV(body)
			if err != nil {
				return gateway.Table{}, Manifest{}, fmt.Errorf("decode table: %w", err)
			}
			gotTable = true
		default:
			// Ignore unknown entries.
		}
	}
	if !gotMan || !gotTable {
		return gateway.Table{}, Manifest{}, fmt.Errorf("snapshot is missing %s or %s", manifestEntry, tableEntry)
	}
	if got := Digest(t); got != m.Digest {
		return gateway.Table{}, Manifest{}, fmt.Errorf("%w: manifest=%s table=%s", ErrDigestMismatch, m.Digest, got)
	}
	return t, m, nil
}

// Backup reads the whole table from gw and writes it as a snapshot.
func Backup(ctx context.Context, gw gateway.Gateway, w io.Writer) (Manifest, error) {
	t, err := gw.Read(ctx)
	if err != nil {
		return Manifest{}, fmt.Errorf("read table: %w", err)
	}
	return WriteSnapshot(w, t, time.Now())
}

// Restore overwrites gw with the table in the snapshot.
func Restore(ctx context.Context, gw gateway.Gateway, r io.Reader) (Manifest, error) {
	t, m, err := ReadSnapshot(r)
	if err != nil {
		return Manifest{}, err
	}
	if err := gw.Update(ctx, t); err != nil {
		return Manifest{}, fmt.Errorf("write table: %w", err)
	}
	return m, nil
}

func BackupFile(ctx context.Context, gw gateway.Gateway, archivePath string) (Manifest, error) {
	archivePath = filepath.Clean(strings.TrimSpace(archivePath))
	if archivePath == "" || archivePath == "." {
		return Manifest{}, fmt.Errorf("archivePath is required")
	}
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return Manifest{}, err
	}
	f, err := os.Create(archivePath)
	if err != nil {
		return Manifest{}, err
	}
	m, err := Backup(ctx, gw, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(archivePath)
		return Manifest{}, err
	}
	return m, nil
}

func RestoreFile(ctx context.Context, gw gateway.Gateway, archivePath string) (Manifest, error) {
	f, err := os.Open(filepath.Clean(strings.TrimSpace(archivePath)))
	if err != nil {
		return Manifest{}, err
	}
	defer f.Close()
	return Restore(ctx, gw, f)
}

// Copy overwrites to with the current contents of from and returns the
// number of rows copied.
func Copy(ctx context.Context, from, to gateway.Gateway) (int, error) {
	t, err := from.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	if err := to.Update(ctx, t); err != nil {
		return 0, fmt.Errorf("write target: %w", err)
	}
	return len(t.Rows), nil
}

type DrillResult struct {
	Archive string
	Digest  string
	Rows    int
}

// Drill backs gw up into workDir, restores the archive into a scratch
// in-memory gateway and checks that the content survived unchanged. gw is
// only read.
func Drill(ctx context.Context, gw gateway.Gateway, workDir string) (DrillResult, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return DrillResult{}, err
	}
	ts := time.Now().UTC().Format("20060102T150405Z")
	archive := filepath.Join(workDir, "hometasks-drill-"+ts+".tar.gz")

	src, err := gw.Read(ctx)
	if err != nil {
		return DrillResult{}, fmt.Errorf("read table: %w", err)
	}
	if _, err := BackupFile(ctx, gateway.NewMemory(src), archive); err != nil {
		return DrillResult{}, err
	}

	scratch := gateway.NewMemory(gateway.Table{})
	if _, err := RestoreFile(ctx, scratch, archive); err != nil {
		return DrillResult{}, err
	}
	restored, err := scratch.Read(ctx)
	if err != nil {
		return DrillResult{}, err
	}

	want, got := Digest(src), Digest(restored)
	if want != got {
		return DrillResult{}, fmt.Errorf("%w after restore: src=%s restored=%s", ErrDigestMismatch, want, got)
	}
	return DrillResult{Archive: archive, Digest: want, Rows: len(src.Rows)}, nil
}

func sanitizeArchiveRelPath(name string) (string, error) {
	name = filepath.Clean(strings.TrimSpace(name))
	if name == "." || name == "" {
		return "", fmt.Errorf("invalid archive entry path")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("invalid absolute archive entry path: %s", name)
	}
	if strings.HasPrefix(name, ".."+string(filepath.Separator)) || name == ".." {
		return "", fmt.Errorf("invalid archive entry path traversal: %s", name)
	}
	return filepath.ToSlash(name), nil
}
