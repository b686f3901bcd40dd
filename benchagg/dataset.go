// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"math"

	"github.com/aclements/go-gg/table"
)

// PathColumn is the name of the column holding each row's benchmark
// file path.
const PathColumn = "path"

// A Dataset is the aggregated content of a set of benchmark files.
//
// Each Row combines the path and labels of one benchmark file with
// one record of that file. Labels are string-valued (wildcard values,
// and keys like "rule" added by the caller); statistics are numeric.
//
// Rows from different files need not have the same labels or
// statistics. A label a row lacks is "" and a statistic a row lacks
// is NaN.
type Dataset struct {
	// Labels lists label columns in order of first appearance.
	Labels []string

	// Stats lists statistic columns in order of first appearance.
	Stats []string

	// Rows holds the rows in the order they were found.
	Rows []Row
}

// A Row is a single record of a benchmark file. Rows read from the
// same file share their Labels map.
type Row struct {
	Path   string
	Labels map[string]string
	Stats  map[string]float64
}

// Len returns the number of rows in d.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Columns returns the names of all columns of d: the path column,
// then labels, then statistics.
func (d *Dataset) Columns() []string {
	cols := make([]string, 0, 1+len(d.Labels)+len(d.Stats))
	cols = append(cols, PathColumn)
	cols = append(cols, d.Labels...)
	return append(cols, d.Stats...)
}

// Label returns the value of label col in row i, or "" if row i has
// no such label.
func (d *Dataset) Label(i int, col string) string {
	if col == PathColumn {
		return d.Rows[i].Path
	}
	return d.Rows[i].Labels[col]
}

// Float returns the value of statistic col in row i, or NaN if row i
// has no such statistic.
func (d *Dataset) Float(i int, col string) float64 {
	if v, ok := d.Rows[i].Stats[col]; ok {
		return v
	}
	return math.NaN()
}

// IsLabel reports whether col is the path column or a label column
// of d.
func (d *Dataset) IsLabel(col string) bool {
	return col == PathColumn || contains(d.Labels, col)
}

// IsStat reports whether col is a statistic column of d.
func (d *Dataset) IsStat(col string) bool {
	return contains(d.Stats, col)
}

// Table returns d as a table with one string column for the path and
// each label and one float64 column for each statistic, in the order
// of Columns.
//
// If a label and a statistic have the same name, the statistic
// replaces the label. An empty Dataset produces a table with
// columns but no rows.
func (d *Dataset) Table() *table.Table {
	var b table.Builder
	n := len(d.Rows)

	paths := make([]string, n)
	for i := range d.Rows {
		paths[i] = d.Rows[i].Path
	}
	b.Add(PathColumn, paths)

	for _, col := range d.Labels {
		vals := make([]string, n)
		for i := range d.Rows {
			vals[i] = d.Rows[i].Labels[col]
		}
		b.Add(col, vals)
	}
	for _, col := range d.Stats {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = d.Float(i, col)
		}
		b.Add(col, vals)
	}
	return b.Done()
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
