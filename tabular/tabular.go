// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package tabular writes and reads the delimited mapping files: one record
// per line, fields separated by a single delimiter, no header row.
package tabular

import (
	"encoding/csv"
	"io"
	"unicode/utf8"

	"github.com/molecula/triplemap"
	"github.com/molecula/triplemap/errors"
	"go.uber.org/multierr"
)

// DefaultDelimiter separates fields unless configured otherwise.
const DefaultDelimiter = '\t'

// ParseDelimiter accepts a single character or one of the names "tab",
// "comma", "semicolon", "pipe", "space". The escape `\t` is also accepted.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	case "space":
		return ' ', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError {
		return 0, errors.Newf(errors.ErrUsage, "delimiter must be a single character, got %q", s)
	}
	if r == '"' || r == '\r' || r == '\n' {
		return 0, errors.Newf(errors.ErrUsage, "invalid delimiter %q", s)
	}
	return r, nil
}

// Writer is a triplemap.RecordSink writing delimited records.
type Writer struct {
	w      *csv.Writer
	c      io.Closer
	n      uint64
	closed bool
}

var _ triplemap.RecordSink = &Writer{}

// NewWriter returns a Writer over wc. Close closes wc.
func NewWriter(wc io.WriteCloser, delim rune) *Writer {
	w := csv.NewWriter(wc)
	w.Comma = delim
	return &Writer{w: w, c: wc}
}

// UseCRLF ends records with \r\n instead of \n.
func (w *Writer) UseCRLF(v bool) {
	w.w.UseCRLF = v
}

// Append writes one record. Errors from the underlying writer may surface
// here or only on Close, depending on buffering.
func (w *Writer) Append(fields ...string) error {
	if w.closed {
		return errors.New(errors.ErrSinkWrite, "append to closed writer")
	}
	if err := w.w.Write(fields); err != nil {
		return err
	}
	w.n++
	return nil
}

// Records returns the number of records appended.
func (w *Writer) Records() uint64 {
	return w.n
}

// Close flushes buffered records and closes the underlying writer. Calls
// after the first are no-ops.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.w.Flush()
	return multierr.Append(w.w.Error(), w.c.Close())
}

// Reader reads delimited records.
type Reader struct {
	r    *csv.Reader
	c    io.Closer
	line int
}

// NewReader returns a Reader over rc expecting fields fields per record.
// Close closes rc.
func NewReader(rc io.ReadCloser, delim rune, fields int) *Reader {
	r := csv.NewReader(rc)
	r.Comma = delim
	r.FieldsPerRecord = fields
	return &Reader{r: r, c: rc}
}

// Read returns the next record or io.EOF. The returned slice is owned by
// the caller.
func (r *Reader) Read() ([]string, error) {
	rec, err := r.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	} else if err != nil {
		return nil, errors.Wrapf(err, "reading record %d", r.line+1)
	}
	r.line++
	return rec, nil
}

// Line returns the number of records read so far.
func (r *Reader) Line() int {
	return r.line
}

func (r *Reader) Close() error {
	return r.c.Close()
}
