// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestAggregate(t *testing.T) {
	golden(t, "aggregate", "-format", "csv", "benchmarks/{sample}.bwa.tsv", "tree")
	golden(t, "ignore", "-format", "tsv", "-ignore", "max_rss", "benchmarks/{sample}.bwa.tsv", "tree")
}

func TestRules(t *testing.T) {
	golden(t, "rules", "-format", "csv", "-rules", "rules.yaml")
}

func TestMismatch(t *testing.T) {
	// The wildcard constraint fails for every file, so all rows
	// are kept with an empty sample and a warning per file.
	golden(t, "mismatch", "-format", "csv", `benchmarks/{sample,x\d}.bwa.tsv`, "tree")

	_, stderr, err := run(t, "-q", "-format", "csv", `benchmarks/{sample,x\d}.bwa.tsv`, "tree")
	if err != nil {
		t.Fatal(err)
	}
	if stderr != "" {
		t.Errorf("-q printed warnings:\n%s", stderr)
	}
}

func TestSummary(t *testing.T) {
	stdout, _, err := run(t, "-format", "csv", "-summary", "-by", "sample", "-stats", "s", "benchmarks/{sample}.bwa.tsv", "tree")
	if err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"sample", "count", "mean s", "min s", "median s", "max s", "stddev s"}
	if len(recs) != 3 || !reflect.DeepEqual(recs[0], want) {
		t.Fatalf("got\n%s\nwant header %q and 2 rows", stdout, want)
	}
	for i, w := range [][]string{{"s1", "2", "2", "1.5"}, {"s2", "1", "4", "4"}} {
		if !reflect.DeepEqual(recs[i+1][:4], w) {
			t.Errorf("row %d = %q, want prefix %q", i+1, recs[i+1], w)
		}
	}
}

func TestPlot(t *testing.T) {
	dir := t.TempDir()
	for _, args := range [][]string{
		{"-x", "sample", "-y", "s"},
		{"-x", "max_rss", "-y", "s", "-group", "sample", "-highlight", "s2", "-title", "bwa"},
	} {
		file := filepath.Join(dir, "chart.png")
		os.Remove(file)
		args = append(append([]string{"-plot", file}, args...), "benchmarks/{sample}.bwa.tsv", "tree")
		if _, _, err := run(t, args...); err != nil {
			t.Errorf("%q: %v", args, err)
			continue
		}
		if fi, err := os.Stat(file); err != nil || fi.Size() == 0 {
			t.Errorf("%q: chart not written (%v)", args, err)
		}
	}
}

func TestOutputFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.csv")
	stdout, _, err := run(t, "-format", "csv", "-o", file, "benchmarks/{sample}.bwa.tsv", "tree")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("got output on stdout with -o:\n%s", stdout)
	}
	got, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "aggregate.stdout"))
	if err != nil {
		t.Fatal(err)
	}
	diff(t, want, got)
}

func TestStoreLoad(t *testing.T) {
	dsn := "sqlite3:" + filepath.Join(t.TempDir(), "runs.db")

	_, stderr, err := run(t, "-db", dsn, "-store", "-format", "csv", "benchmarks/{sample}.bwa.tsv", "tree")
	if err != nil {
		t.Fatal(err)
	}
	if want := "smkbench: stored run 1\n"; stderr != want {
		t.Errorf("stderr = %q, want %q", stderr, want)
	}

	stdout, _, err := run(t, "-db", dsn, "-load", "1", "-format", "csv")
	if err != nil {
		t.Fatal(err)
	}
	want, err := os.ReadFile(filepath.Join("testdata", "aggregate.stdout"))
	if err != nil {
		t.Fatal(err)
	}
	diff(t, want, []byte(stdout))

	stdout, _, err = run(t, "-db", dsn, "-list", "-format", "csv")
	if err != nil {
		t.Fatal(err)
	}
	recs, err := csv.NewReader(strings.NewReader(stdout)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1][0] != "1" || recs[1][2] != "benchmarks/{sample}.bwa.tsv" || recs[1][4] != "3" {
		t.Errorf("-list printed:\n%s", stdout)
	}

	if _, _, err := run(t, "-db", dsn, "-load", "2"); err == nil {
		t.Error("loading a missing run: want error")
	}
}

func TestUsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{},
		{"-nope", "p"},
		{"-format", "xml", "p"},
		{"p", "dir", "extra"},
		{"-rules", "rules.yaml", "a", "b"},
		{"-load", "1"},
		{"-list"},
		{"-db", "sqlite3:x.db", "-list", "p"},
		{"-plot", "x.png", "p"},
		{"-db", "nodriver", "p"},
	} {
		_, _, err := run(t, args...)
		if err != errUsage {
			t.Errorf("%q: got %v, want usage error", args, err)
		}
	}
}

func TestErrors(t *testing.T) {
	for _, args := range [][]string{
		{"benchmarks/{sample,(}.bwa.tsv", "tree"},
		{"benchmarks/{sample}.bwa.tsv", "missing"},
		{"-rules", "missing.yaml"},
		{"-summary", "-by", "s", "benchmarks/{sample}.bwa.tsv", "tree"},
		{"-plot", "chart.png", "-x", "nope", "-y", "s", "benchmarks/{sample}.bwa.tsv", "tree"},
	} {
		_, _, err := run(t, args...)
		if err == nil || err == errUsage {
			t.Errorf("%q: got %v, want error", args, err)
		}
	}
}

// run runs smkbench in the testdata directory.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	if err := os.Chdir("testdata"); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir("..")

	var out, outErr bytes.Buffer
	t.Logf("smkbench %s", strings.Join(args, " "))
	err = smkbench(&out, &outErr, args)
	return out.String(), outErr.String(), err
}

func golden(t *testing.T, name string, args ...string) {
	t.Helper()
	got, gotErr, err := run(t, args...)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// Compare to the golden output.
	compare(t, name, "stdout", []byte(got))
	compare(t, name, "stderr", []byte(gotErr))
}

func compare(t *testing.T, name, sub string, got []byte) {
	t.Helper()

	wantPath := filepath.Join("testdata", name+"."+sub)
	want, err := os.ReadFile(wantPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Treat a missing file as empty.
			want = nil
		} else {
			t.Fatal(err)
		}
	}

	if !diff(t, want, got) {
		return
	}
	// diff printed the error.

	// Write a "got" file for reference.
	gotPath := filepath.Join("testdata", name+".got-"+sub)
	if err := os.WriteFile(gotPath, got, 0666); err != nil {
		t.Fatalf("error writing %s: %s", gotPath, err)
	}
}

func diff(t *testing.T, want, got []byte) bool {
	t.Helper()
	if bytes.Equal(want, got) {
		return false
	}

	d := t.TempDir()
	wantPath, gotPath := filepath.Join(d, "want"), filepath.Join(d, "got")
	if err := os.WriteFile(wantPath, want, 0666); err != nil {
		t.Fatalf("error writing %s: %s", wantPath, err)
	}
	if err := os.WriteFile(gotPath, got, 0666); err != nil {
		t.Fatalf("error writing %s: %s", gotPath, err)
	}

	cmd := exec.Command("diff", "-Nu", "want", "got")
	cmd.Dir = d
	data, _ := cmd.CombinedOutput()
	if len(data) > 0 {
		t.Errorf("\n%s", data)
	} else {
		// Most likely, "diff not found" so print the bad
		// output so there is something.
		t.Errorf("want:\n%sgot:\n%s", want, got)
	}
	return true
}
