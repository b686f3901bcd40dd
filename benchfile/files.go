// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchfile

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// A Walker enumerates every file below a root directory.
//
// Its API is modeled on bufio.Scanner. The walk is depth-first: when
// Scan reaches a directory it descends into it before continuing with
// the directory's later siblings. Entries of each directory are
// visited in lexical order. Symbolic links are followed: a link to a
// directory is walked like the directory itself, unless it leads back
// to a directory already being walked, in which case it is skipped.
// Any other entry, including special files and broken links, is
// reported as a file.
//
// A Walker reads one directory at a time and does not hold a
// directory open between calls to Scan. A Walker cannot be rewound;
// to walk the tree again, use a new Walker.
type Walker struct {
	// Root is the directory to walk.
	Root string

	// stack holds the unvisited entries of each directory being
	// walked, innermost last. It is nil before the first Scan.
	stack []dirFrame

	path string
	err  error
}

type dirFrame struct {
	dir     string
	info    fs.FileInfo
	entries []os.DirEntry
}

// Scan advances the walker to the next file, which will then be
// available through the Path method. It returns false when the walk
// is complete or when it fails to read a directory. After Scan
// returns false, the Err method will return any error that occurred.
func (w *Walker) Scan() bool {
	if w.err != nil {
		return false
	}
	if w.stack == nil {
		w.stack = []dirFrame{}
		if !w.push(w.Root, nil) {
			return false
		}
	}

	for len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if len(top.entries) == 0 {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		ent := top.entries[0]
		top.entries = top.entries[1:]

		p := filepath.Join(top.dir, ent.Name())
		if ent.IsDir() {
			if !w.push(p, nil) {
				return false
			}
			continue
		}
		if ent.Type()&fs.ModeSymlink != 0 {
			if fi, err := os.Stat(p); err == nil && fi.IsDir() {
				if w.walking(fi) {
					continue
				}
				if !w.push(p, fi) {
					return false
				}
				continue
			}
		}
		w.path = p
		return true
	}
	w.path = ""
	return false
}

// push reads directory dir and makes it the innermost directory of
// the walk. info describes dir; if nil, push stats dir itself.
func (w *Walker) push(dir string, info fs.FileInfo) bool {
	if info == nil {
		var err error
		if info, err = os.Stat(dir); err != nil {
			return w.fail(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return w.fail(err)
	}
	w.stack = append(w.stack, dirFrame{dir, info, entries})
	return true
}

func (w *Walker) fail(err error) bool {
	w.err = err
	w.path = ""
	return false
}

// walking reports whether fi is one of the directories being walked,
// that is, the current directory or one of its ancestors.
func (w *Walker) walking(fi fs.FileInfo) bool {
	for _, f := range w.stack {
		if os.SameFile(f.info, fi) {
			return true
		}
	}
	return false
}

// Path returns the path of the file found by the last call to Scan.
// The path is Root joined with the file's path relative to Root.
func (w *Walker) Path() string {
	return w.path
}

// Err returns the first error encountered by the walk, if any.
func (w *Walker) Err() error {
	return w.err
}

// Files enumerates the files below Root whose path matches a glob
// filter.
//
// The filter is matched as a suffix: a path is reported if it
// matches "*" + Filter according to Match. Because Match works on
// whole path components, Filter may constrain parent directories
// as well as file names.
type Files struct {
	// Root is the directory to search.
	Root string

	// Filter is the glob suffix that file paths must match.
	Filter string

	w    Walker
	glob string
	path string
	err  error
}

// Scan advances to the next matching file. It returns false at the
// end of the walk or when an error occurs, in which case Err
// reports the error.
func (f *Files) Scan() bool {
	if f.err != nil {
		return false
	}
	if f.glob == "" {
		f.glob = "*" + f.Filter
		f.w = Walker{Root: f.Root}
	}
	for f.w.Scan() {
		ok, err := Match(f.w.Path(), f.glob)
		if err != nil {
			f.err = err
			return false
		}
		if ok {
			f.path = f.w.Path()
			return true
		}
	}
	f.path = ""
	f.err = f.w.Err()
	return false
}

// Path returns the path of the file found by the last call to Scan.
func (f *Files) Path() string {
	return f.path
}

// Err returns the first error encountered while finding files.
func (f *Files) Err() error {
	return f.err
}

// Find returns every file below root whose path matches "*" + filter,
// in walk order.
func Find(root, filter string) ([]string, error) {
	var paths []string
	f := Files{Root: root, Filter: filter}
	for f.Scan() {
		paths = append(paths, f.Path())
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Match reports whether name matches the glob pattern.
//
// Matching works on slash-separated components from the right: if
// pattern has N components, the last N components of name must each
// match the corresponding component of pattern. Components are
// matched with path.Match, so "*" never matches a separator. If
// pattern begins with "/", name must have exactly N components.
// Empty components are ignored on both sides.
//
// The only possible returned error is path.ErrBadPattern, when a
// component of pattern is malformed.
func Match(name, pattern string) (bool, error) {
	absolute := strings.HasPrefix(pattern, "/")
	pats := components(pattern)
	names := components(filepath.ToSlash(name))
	if len(pats) == 0 {
		return false, nil
	}
	if len(names) < len(pats) || absolute && len(names) != len(pats) {
		// Still check the pattern so malformed patterns are
		// reported consistently.
		for _, p := range pats {
			if _, err := path.Match(p, ""); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	names = names[len(names)-len(pats):]
	match := true
	for i, p := range pats {
		ok, err := path.Match(p, names[i])
		if err != nil {
			return false, err
		}
		match = match && ok
	}
	return match, nil
}

func components(s string) []string {
	parts := strings.Split(s, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
