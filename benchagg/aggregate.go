// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchagg aggregates Snakemake benchmark files into a single
// Dataset.
//
// The benchmark files of a rule are described by the pattern given to
// the rule's "benchmark" directive, for example
//
//	benchmarks/{sample}.bwa.benchmark.txt
//
// Aggregate finds every file below a directory whose path matches the
// pattern, recovers the wildcard values from each path, and combines
// them with the statistics in the file. The resulting Dataset has one
// row per line of each benchmark file and can be summarized,
// formatted, stored, or plotted.
package benchagg

import (
	"fmt"
	"os"

	"github.com/smkbench/smkbench/benchfile"
	"github.com/smkbench/smkbench/wildcard"
)

// Aggregate collects every benchmark file below root that matches
// pattern into a Dataset. The labels of the Dataset are the wildcard
// names of pattern.
//
// Files whose path matches the glob form of pattern but not its
// regular expression are still included, with every wildcard set to
// "".
//
// If the pattern is malformed, a directory or file cannot be read, or
// a file contains a value that is not a number, Aggregate returns the
// error and no Dataset.
func Aggregate(root, pattern string) (*Dataset, error) {
	var b Builder
	if err := b.Add(root, pattern); err != nil {
		return nil, err
	}
	return b.Dataset(), nil
}

// A Builder accumulates the benchmark files of one or more patterns
// into a Dataset.
//
// The zero value of a Builder is an empty Builder ready to use.
type Builder struct {
	// Ignore lists additional statistic columns to drop from every
	// benchmark file.
	Ignore []string

	// Warn, if non-nil, is called for problems that don't stop
	// aggregation, such as a path that doesn't match its pattern's
	// regular expression.
	Warn func(format string, args ...interface{})

	ds       Dataset
	labelSet map[string]bool
	statSet  map[string]bool
	reader   benchfile.Reader
}

// Add adds the benchmark files below root that match pattern.
//
// labels is an alternating sequence of keys and values. Add sets
// these labels on every row it adds, ahead of the wildcard values.
// A wildcard with the same name as a label overrides it. Neither a
// label nor a wildcard may be named "path", which names the file path
// column.
//
// Errors reading a benchmark file are prefixed with pattern. If Add
// returns an error, b is unchanged.
func (b *Builder) Add(root, pattern string, labels ...string) error {
	if len(labels)%2 != 0 {
		panic("len(labels) must be a multiple of 2")
	}
	p, err := wildcard.Translate(pattern)
	if err != nil {
		return fmt.Errorf("benchmark pattern: %w", err)
	}

	var rows []Row
	var labelNames, statNames []string
	seenLabel := make(map[string]bool)
	seenStat := make(map[string]bool)
	addName := func(names *[]string, seen map[string]bool, name string) {
		if !seen[name] {
			seen[name] = true
			*names = append(*names, name)
		}
	}
	for i := 0; i < len(labels); i += 2 {
		if labels[i] == PathColumn {
			return fmt.Errorf("label %q is reserved for the file path", PathColumn)
		}
		addName(&labelNames, seenLabel, labels[i])
	}
	for _, name := range p.Names {
		if name == PathColumn {
			return fmt.Errorf("benchmark pattern %s: wildcard {%s} is reserved for the file path", pattern, PathColumn)
		}
		addName(&labelNames, seenLabel, name)
	}

	files := benchfile.Files{Root: root, Filter: p.Glob}
	for files.Scan() {
		path := files.Path()

		base := make(map[string]string, len(labelNames))
		for i := 0; i < len(labels); i += 2 {
			base[labels[i]] = labels[i+1]
		}
		vals, ok := p.Extract(path)
		if !ok && b.Warn != nil {
			b.Warn("%s: path does not match %s; wildcards left empty\n", path, p.Regexp)
		}
		for k, v := range vals {
			base[k] = v
		}

		err := b.readFile(path, func(rec *benchfile.Record) {
			row := Row{Path: path, Labels: base, Stats: make(map[string]float64, len(rec.Stats))}
			for _, s := range rec.Stats {
				row.Stats[s.Name] = s.Value
				addName(&statNames, seenStat, s.Name)
			}
			rows = append(rows, row)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", pattern, err)
		}
	}
	if err := files.Err(); err != nil {
		return fmt.Errorf("finding %s below %s: %w", pattern, root, err)
	}

	// Commit.
	if b.labelSet == nil {
		b.labelSet = make(map[string]bool)
		b.statSet = make(map[string]bool)
	}
	for _, name := range labelNames {
		addName(&b.ds.Labels, b.labelSet, name)
	}
	for _, name := range statNames {
		addName(&b.ds.Stats, b.statSet, name)
	}
	b.ds.Rows = append(b.ds.Rows, rows...)
	return nil
}

// readFile calls f for each record of the benchmark file path.
func (b *Builder) readFile(path string, f func(rec *benchfile.Record)) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	b.reader.Reset(file, path)
	b.reader.Ignore = b.Ignore
	for b.reader.Scan() {
		f(b.reader.Record())
	}
	return b.reader.Err()
}

// Dataset returns the Dataset built so far and resets b.
func (b *Builder) Dataset() *Dataset {
	ds := b.ds
	b.ds = Dataset{}
	b.labelSet, b.statSet = nil, nil
	return &ds
}
