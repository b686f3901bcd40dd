// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"fmt"

	"github.com/aclements/go-gg/ggstat"
	"github.com/aclements/go-gg/table"
	"github.com/aclements/go-moremath/stats"
)

// Summarize groups the rows of ds by the label columns in by and
// computes summary statistics of each statistic column in cols. If
// cols is empty, it summarizes every statistic of ds.
//
// The result has one row per distinct combination of by values, in
// order of first appearance, with a "count" column followed by
// "mean <col>", "min <col>", "median <col>", "max <col>", and
// "stddev <col>" for each col. Missing values (NaN) propagate into
// the summaries of their group.
func Summarize(ds *Dataset, by []string, cols []string) (table.Grouping, error) {
	for _, col := range by {
		if !ds.IsLabel(col) {
			return nil, fmt.Errorf("cannot group by %q: not a label column", col)
		}
	}
	if len(cols) == 0 {
		cols = ds.Stats
	}
	for _, col := range cols {
		if !ds.IsStat(col) {
			return nil, fmt.Errorf("cannot summarize %q: not a statistic column", col)
		}
	}
	if ds.Len() == 0 {
		return new(table.Table), nil
	}

	var b table.Builder
	for _, col := range by {
		vals := make([]string, ds.Len())
		for i := range vals {
			vals[i] = ds.Label(i, col)
		}
		b.Add(col, vals)
	}
	for _, col := range cols {
		vals := make([]float64, ds.Len())
		for i := range vals {
			vals[i] = ds.Float(i, col)
		}
		b.Add(col, vals)
	}

	aggs := []ggstat.Aggregator{ggstat.AggCount("count")}
	for _, col := range cols {
		aggs = append(aggs,
			ggstat.AggMean(col),
			ggstat.AggMin(col),
			ggstat.AggQuantile("median", 0.5, col),
			ggstat.AggMax(col),
			aggStdDev(col),
		)
	}
	g := ggstat.Agg(by...)(aggs...).F(b.Done())

	// Agg keeps input columns that are constant within every
	// group. Only the summaries are wanted.
	for _, col := range cols {
		if hasColumn(g, col) && !contains(by, col) {
			g = table.Remove(g, col)
		}
	}
	return g, nil
}

// aggStdDev returns an aggregator computing the standard deviation of
// col in a column named "stddev <col>".
func aggStdDev(col string) ggstat.Aggregator {
	return func(input table.Grouping, b *table.Builder) {
		sds := make([]float64, 0, len(input.Tables()))
		for _, gid := range input.Tables() {
			xs := input.Table(gid).MustColumn(col).([]float64)
			sds = append(sds, stats.StdDev(xs))
		}
		b.Add("stddev "+col, sds)
	}
}

func hasColumn(g table.Grouping, col string) bool {
	return contains(g.Columns(), col)
}
