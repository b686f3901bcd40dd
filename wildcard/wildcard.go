// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wildcard translates Snakemake-style path patterns into a
// glob filter and a regular expression that recovers wildcard values
// from matching paths.
//
// A pattern is an ordinary path in which wildcards are written as
// {name} or {name,regex}. For example,
//
//	benchmarks/{sample}/{threads,\d+}.tsv
//
// translates to the glob
//
//	benchmarks/*/*.tsv
//
// and the regular expression
//
//	benchmarks/(?P<sample>.+)/(?P<threads>\d+).tsv
//
// Text outside of wildcards is copied as-is into both the glob and
// the regular expression. In particular, it is not escaped.
package wildcard

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// placeholder matches a single wildcard. A wildcard without a regex
// has an empty "regex" submatch.
var placeholder = regexp.MustCompile(`\{(?P<name>[^},]+),?(?P<regex>[^}]+)?\}`)

// defaultRegex is the regular expression of a wildcard that doesn't
// specify one.
const defaultRegex = ".+"

// A Pattern is a translated wildcard pattern. Patterns are immutable.
type Pattern struct {
	// Glob is the pattern with every wildcard replaced by "*".
	Glob string

	// Regexp matches paths produced by the pattern. Each wildcard
	// is a named capture group.
	Regexp *regexp.Regexp

	// Names lists wildcard names in order of appearance.
	// Repeated wildcards appear once per occurrence.
	Names []string

	src   string
	index []int // submatch index of each wildcard
}

// A SyntaxError is an error in a wildcard pattern.
type SyntaxError struct {
	Pattern string // The original pattern
	Off     int    // Byte offset of the error in Pattern
	Msg     string // Error message
}

func (e *SyntaxError) Error() string {
	// Translate byte offset to a rune offset.
	pos := 0
	for i, r := range e.Pattern {
		if i >= e.Off {
			break
		}
		if unicode.IsGraphic(r) {
			pos++
		}
	}
	return fmt.Sprintf("syntax error: %s\n\t%s\n\t%*s^", e.Msg, e.Pattern, pos, "")
}

// Translate parses pattern and returns its glob filter, regular
// expression, and wildcard names.
//
// Regex fragments are used verbatim. If a fragment is not a valid
// regular expression, or a wildcard name is not a valid capture
// group name, Translate returns a *SyntaxError.
func Translate(pattern string) (*Pattern, error) {
	var glob, re strings.Builder
	var names []string

	last := 0
	for _, m := range placeholder.FindAllStringSubmatchIndex(pattern, -1) {
		start, end := m[0], m[1]
		name := pattern[m[2]:m[3]]
		frag := defaultRegex
		if m[4] >= 0 {
			frag = pattern[m[4]:m[5]]
		}

		if !isGroupName(name) {
			return nil, &SyntaxError{pattern, start, fmt.Sprintf("invalid wildcard name %q", name)}
		}
		if _, err := regexp.Compile(frag); err != nil {
			return nil, &SyntaxError{pattern, start, fmt.Sprintf("wildcard %s: %v", name, err)}
		}

		names = append(names, name)

		glob.WriteString(pattern[last:start])
		glob.WriteByte('*')

		re.WriteString(pattern[last:start])
		fmt.Fprintf(&re, "(?P<%s>%s)", name, frag)

		last = end
	}
	glob.WriteString(pattern[last:])
	re.WriteString(pattern[last:])

	// The literal text between wildcards is regexp syntax, too, so
	// the whole expression can still fail to compile.
	rx, err := regexp.Compile(re.String())
	if err != nil {
		return nil, &SyntaxError{pattern, 0, err.Error()}
	}

	// Regex fragments and literal text may contain groups of
	// their own, so locate each wildcard's group by name, in order.
	index := make([]int, 0, len(names))
	for i, sub := range rx.SubexpNames() {
		if len(index) < len(names) && sub == names[len(index)] {
			index = append(index, i)
		}
	}

	return &Pattern{
		Glob:   glob.String(),
		Regexp: rx,
		Names:  names,
		src:    pattern,
		index:  index,
	}, nil
}

// MustTranslate is like Translate but panics if pattern cannot be
// translated.
func MustTranslate(pattern string) *Pattern {
	p, err := Translate(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.src
}

// Extract returns the wildcard values encoded in path. The regular
// expression may match anywhere in path; the leftmost match wins.
//
// If path does not match, every wildcard maps to "" and ok is false.
// Repeated wildcards report the value of their first occurrence.
func (p *Pattern) Extract(path string) (vals map[string]string, ok bool) {
	vals = make(map[string]string, len(p.Names))
	list, ok := p.Values(path)
	for i, name := range p.Names {
		if _, dup := vals[name]; !dup {
			vals[name] = list[i]
		}
	}
	return vals, ok
}

// Values is like Extract, but returns the values in the order of
// p.Names.
func (p *Pattern) Values(path string) (vals []string, ok bool) {
	vals = make([]string, len(p.Names))
	m := p.Regexp.FindStringSubmatch(path)
	if m == nil {
		return vals, false
	}
	for i, sub := range p.index {
		vals[i] = m[sub]
	}
	return vals, true
}

// isGroupName reports whether name can be used as a regexp capture
// group name.
func isGroupName(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range name {
		if c != '_' && !('0' <= c && c <= '9') && !('A' <= c && c <= 'Z') && !('a' <= c && c <= 'z') {
			return false
		}
	}
	return true
}
