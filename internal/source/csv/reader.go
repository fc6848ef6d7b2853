// Package csv implements the row-batch source: a chunked reader over a local
// delimited sales file. Structural problems with the file are fatal and
// reported with a specific error kind; data-level defects are left for the
// cleaner.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BlackSwan-06/Findem-data-pipeline/internal/records"
)

// Error kinds for structural/environmental failures. Callers match them with
// errors.Is; none of them is retryable.
var (
	// ErrNotFound means the input file does not exist.
	ErrNotFound = errors.New("input file not found")

	// ErrEmptyInput means the file has zero bytes, a blank first line, or no
	// data row beyond the header.
	ErrEmptyInput = errors.New("input file has no data")

	// ErrMalformedInput means the header or a data row could not be parsed,
	// or the header lacks a required column.
	ErrMalformedInput = errors.New("malformed input")
)

const utf8BOM = "\uFEFF"

// Info describes the opened file for the orchestrator's start-of-run log.
type Info struct {
	Path      string
	SizeBytes int64
	Columns   []string
}

// Reader yields bounded-size batches of raw rows in file order. It is not
// restartable; reopen to iterate again.
type Reader struct {
	f         *os.File
	cr        *csv.Reader
	info      Info
	batchSize int

	// colIdx maps canonical column name -> source field index.
	colIdx map[string]int

	// peeked holds the first data row, read during Open to prove the file
	// has data beyond the header.
	peeked []string
	line   int
	done   bool
}

// Open validates the file and prepares batch iteration. It fails with
// ErrNotFound, ErrEmptyInput, or ErrMalformedInput (all wrapped with the
// path) before any batch is produced.
func Open(path string, batchSize int) (*Reader, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("open %s: batch size must be positive, got %d", path, batchSize)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if st.Size() == 0 {
		f.Close()
		return nil, fmt.Errorf("open %s: %w", path, ErrEmptyInput)
	}

	cr := csv.NewReader(f)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	r := &Reader{
		f:         f,
		cr:        cr,
		batchSize: batchSize,
		info:      Info{Path: path, SizeBytes: st.Size()},
	}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	if err := r.peekFirstRow(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	hdr, err := r.cr.Read()
	r.line++
	if err == io.EOF {
		return fmt.Errorf("read header of %s: %w", r.info.Path, ErrEmptyInput)
	}
	if err != nil {
		return fmt.Errorf("read header of %s: %v: %w", r.info.Path, err, ErrMalformedInput)
	}

	r.colIdx = make(map[string]int, len(hdr))
	cols := make([]string, 0, len(hdr))
	for i, h := range hdr {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		name := canonicalName(h)
		if name == "" {
			continue
		}
		cols = append(cols, name)
		r.colIdx[name] = i
	}
	r.info.Columns = cols
	if len(cols) == 0 {
		return fmt.Errorf("header of %s is blank: %w", r.info.Path, ErrEmptyInput)
	}

	for _, want := range records.Required {
		if _, ok := r.colIdx[want]; !ok {
			return fmt.Errorf("header of %s lacks column %q: %w", r.info.Path, want, ErrMalformedInput)
		}
	}
	return nil
}

func (r *Reader) peekFirstRow() error {
	rec, err := r.cr.Read()
	r.line++
	if err == io.EOF {
		return fmt.Errorf("%s has only a header row: %w", r.info.Path, ErrEmptyInput)
	}
	if err != nil {
		return fmt.Errorf("row %d of %s: %v: %w", r.line, r.info.Path, err, ErrMalformedInput)
	}
	// ReuseRecord is on; keep a copy.
	r.peeked = append([]string(nil), rec...)
	return nil
}

// Info returns size and column details gathered at open time.
func (r *Reader) Info() Info { return r.info }

// Next returns the next batch of at most batchSize rows, or io.EOF when the
// file is exhausted. A row the CSV layer cannot parse fails the whole run
// with ErrMalformedInput; there is no partial salvage.
func (r *Reader) Next(ctx context.Context) ([]records.Raw, error) {
	if r.done {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := make([]records.Raw, 0, r.batchSize)
	if r.peeked != nil {
		batch = append(batch, r.toRaw(r.peeked))
		r.peeked = nil
	}

	for len(batch) < r.batchSize {
		rec, err := r.cr.Read()
		r.line++
		if err == io.EOF {
			r.done = true
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d of %s: %v: %w", r.line, r.info.Path, err, ErrMalformedInput)
		}
		batch = append(batch, r.toRaw(rec))
	}

	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// toRaw maps a parsed CSV record onto the canonical column set. Empty cells
// become nil; unknown source columns are ignored.
func (r *Reader) toRaw(rec []string) records.Raw {
	row := make(records.Raw, len(records.Columns))
	for _, col := range records.Columns {
		i, ok := r.colIdx[col]
		if !ok || i >= len(rec) {
			row[col] = nil
			continue
		}
		v := strings.TrimSpace(rec[i])
		if v == "" || isNullToken(v) {
			row[col] = nil
		} else {
			row[col] = v
		}
	}
	return row
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// canonicalName folds a header cell to the canonical snake_case form.
func canonicalName(h string) string {
	h = strings.TrimSpace(h)
	return strings.ReplaceAll(strings.ToLower(h), " ", "_")
}

// isNullToken reports the textual null spellings that count as missing.
func isNullToken(s string) bool {
	switch s {
	case "NULL", "null", "NA", "N/A":
		return true
	}
	return false
}
