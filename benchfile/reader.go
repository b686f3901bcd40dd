// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchfile finds and reads Snakemake benchmark files.
//
// A benchmark file is a tab-separated table written by Snakemake for
// each execution of a rule with a "benchmark" directive. The first
// line names the columns and each following line holds one
// measurement:
//
//	s	h:m:s	max_rss	max_vms	max_uss	max_pss	io_in	io_out	mean_load	cpu_time
//	1.0312	0:00:01	58.16	289.41	52.32	53.15	0.00	0.02	0.00	0.93
//
// Every column holds a number, except "h:m:s", which repeats the
// elapsed time in a display format and is always dropped.
package benchfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ElapsedColumn is the name of the elapsed wall-clock column, which
// is formatted as h:m:s and never reported.
const ElapsedColumn = "h:m:s"

// A Reader reads records from a benchmark file.
//
// Its API is modeled on bufio.Scanner. A Reader retains ownership of
// the Record it returns; a caller should Clone anything it needs to
// retain.
//
// To construct a new Reader, either call NewReader, or call Reset on
// a zeroed Reader.
type Reader struct {
	// Ignore lists additional columns to drop from every record.
	Ignore []string

	cr       *csv.Reader
	fileName string
	header   []string
	keep     []int // indexes of header columns that become Stats
	hasHMS   bool
	line     int

	rec Record
	err error
}

// A Record is one row of a benchmark file. Stats are in the order of
// the file's columns.
type Record struct {
	Stats []Stat

	fileName string
	line     int
}

// A Stat is a single named measurement.
type Stat struct {
	Name  string
	Value float64
}

// A SyntaxError represents a malformed line of a benchmark file.
type SyntaxError struct {
	FileName string
	Line     int
	Msg      string
}

func (e *SyntaxError) Pos() (fileName string, line int) {
	return e.FileName, e.Line
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.FileName, e.Line, e.Msg)
}

// NewReader constructs a reader for the benchmark file r. fileName is
// used in error messages; it is purely diagnostic.
func NewReader(r io.Reader, fileName string) *Reader {
	reader := new(Reader)
	reader.Reset(r, fileName)
	return reader
}

// Reset resets the reader to begin reading from a new input. It keeps
// Ignore.
func (r *Reader) Reset(ior io.Reader, fileName string) {
	if fileName == "" {
		fileName = "<unknown>"
	}
	r.cr = csv.NewReader(ior)
	r.cr.Comma = '\t'
	// Fields are never quoted.
	r.cr.LazyQuotes = true
	r.cr.ReuseRecord = true
	r.fileName = fileName
	r.header = nil
	r.keep = r.keep[:0]
	r.hasHMS = false
	r.line = 0
	r.rec.Stats = r.rec.Stats[:0]
	r.rec.fileName = fileName
	r.rec.line = 0
	r.err = nil
}

func (r *Reader) newSyntaxError(msg string) *SyntaxError {
	return &SyntaxError{r.fileName, r.line, msg}
}

// wrapError annotates an I/O error with the file name and, once a
// line has been read, the line number.
func (r *Reader) wrapError(err error) error {
	if r.line == 0 {
		return fmt.Errorf("%s: %w", r.fileName, err)
	}
	return fmt.Errorf("%s:%d: %w", r.fileName, r.line, err)
}

// Scan advances the reader to the next record and reports whether a
// record was read. The caller should use the Record method to get the
// record. If Scan reaches EOF or encounters an error, it returns
// false, in which case the caller should use the Err method to check
// for errors.
//
// Unlike the Go benchmark format, every error in a benchmark file is
// fatal: a value that is not a number means the file does not have
// the expected schema.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}

	for {
		fields, err := r.cr.Read()
		if err == io.EOF {
			return false
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				r.line = perr.Line
				r.err = r.newSyntaxError(perr.Err.Error())
			} else {
				r.err = r.wrapError(err)
			}
			return false
		}
		r.line, _ = r.cr.FieldPos(0)

		if r.header == nil {
			r.setHeader(fields)
			continue
		}
		if err := r.parseRow(fields); err != nil {
			r.err = err
			return false
		}
		return true
	}
}

func (r *Reader) setHeader(fields []string) {
	r.header = make([]string, len(fields))
	for i, f := range fields {
		r.header[i] = strings.TrimSpace(f)
	}
	r.keep = r.keep[:0]
	for i, name := range r.header {
		if name == ElapsedColumn {
			r.hasHMS = true
			continue
		}
		if r.ignored(name) {
			continue
		}
		r.keep = append(r.keep, i)
	}
}

func (r *Reader) ignored(name string) bool {
	for _, ig := range r.Ignore {
		if ig == name {
			return true
		}
	}
	return false
}

// parseRow converts a data row into r.rec.
func (r *Reader) parseRow(fields []string) error {
	if !r.hasHMS {
		return r.newSyntaxError(fmt.Sprintf("missing %q column", ElapsedColumn))
	}
	r.rec.Stats = r.rec.Stats[:0]
	r.rec.line = r.line
	for _, i := range r.keep {
		val, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
		if err != nil {
			if nerr, ok := err.(*strconv.NumError); ok {
				err = nerr.Err
			}
			return r.newSyntaxError(fmt.Sprintf("column %s: parsing %q: %v", r.header[i], fields[i], err))
		}
		r.rec.Stats = append(r.rec.Stats, Stat{r.header[i], val})
	}
	return nil
}

// Record returns the record read by the last call to Scan. The
// record is overwritten by the next call to Scan.
func (r *Reader) Record() *Record {
	return &r.rec
}

// Header returns the column names of the file, including dropped
// columns, or nil if no header has been read.
func (r *Reader) Header() []string {
	return r.header
}

// Err returns the first error that stopped Scan, or nil if Scan
// reached EOF.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the file name and 1-based line number of the record.
func (rec *Record) Pos() (fileName string, line int) {
	return rec.fileName, rec.line
}

// Get returns the value of the named statistic.
func (rec *Record) Get(name string) (float64, bool) {
	for _, s := range rec.Stats {
		if s.Name == name {
			return s.Value, true
		}
	}
	return 0, false
}

// Map returns the record as a map from statistic name to value.
func (rec *Record) Map() map[string]float64 {
	m := make(map[string]float64, len(rec.Stats))
	for _, s := range rec.Stats {
		m[s.Name] = s.Value
	}
	return m
}

// Clone makes a copy of rec that does not share storage with the
// Reader.
func (rec *Record) Clone() *Record {
	r := &Record{
		Stats:    append([]Stat(nil), rec.Stats...),
		fileName: rec.fileName,
		line:     rec.line,
	}
	return r
}
