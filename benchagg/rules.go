// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RuleColumn is the label column that records which rule of a
// RuleSet produced a row.
const RuleColumn = "rule"

// A RuleSet describes the benchmark files of several workflow rules.
//
// A RuleSet is usually read from a YAML file:
//
//	root: results
//	rules:
//	  - name: bwa_map
//	    benchmark: benchmarks/{sample}.bwa.benchmark.txt
//	  - name: call_variants
//	    benchmark: benchmarks/{sample}/calls.tsv
//	    root: calling
type RuleSet struct {
	// Root is the directory benchmark files are found under,
	// relative to the directory passed to Aggregate. It may be
	// empty.
	Root string `yaml:"root"`

	Rules []Rule `yaml:"rules"`
}

// A Rule is a single workflow rule.
type Rule struct {
	// Name is the rule name, recorded in the "rule" column.
	Name string `yaml:"name"`

	// Benchmark is the rule's benchmark pattern, exactly as
	// written in the workflow.
	Benchmark string `yaml:"benchmark"`

	// Root, if set, overrides the RuleSet's Root for this rule.
	Root string `yaml:"root"`
}

// LoadRules reads a RuleSet from a YAML file.
func LoadRules(file string) (*RuleSet, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return rs, nil
}

// ParseRules parses a YAML RuleSet and checks that it names at least
// one rule, and that every rule has a unique name and a benchmark
// pattern.
func ParseRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("no rules")
	}
	seen := make(map[string]bool)
	for i, r := range rs.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: missing name", i+1)
		}
		if r.Benchmark == "" {
			return nil, fmt.Errorf("rule %s: missing benchmark pattern", r.Name)
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("rule %s: duplicate rule name", r.Name)
		}
		seen[r.Name] = true
	}
	return &rs, nil
}

// Aggregate collects the benchmark files of every rule in rs, found
// below dir, into one Dataset. The first label column is "rule".
//
// ignore and warn are used as in Builder.
func (rs *RuleSet) Aggregate(dir string, ignore []string, warn func(string, ...interface{})) (*Dataset, error) {
	b := Builder{Ignore: ignore, Warn: warn}
	for _, r := range rs.Rules {
		root := rs.Root
		if r.Root != "" {
			root = r.Root
		}
		if !filepath.IsAbs(root) {
			root = filepath.Join(dir, root)
		}
		if err := b.Add(root, r.Benchmark, RuleColumn, r.Name); err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.Name, err)
		}
	}
	return b.Dataset(), nil
}
