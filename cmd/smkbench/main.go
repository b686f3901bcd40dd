// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Smkbench collects the benchmark files written by Snakemake rules
// into a single table.
//
// Usage:
//
//	smkbench [flags] pattern [dir]
//	smkbench [flags] -rules rules.yaml [dir]
//	smkbench [flags] -db driver:dsn -load id
//	smkbench -db driver:dsn -list
//
// The pattern is the path given to a rule's "benchmark" directive,
// for example
//
//	benchmarks/{sample}.bwa.benchmark.txt
//
// smkbench finds every file below dir (default ".") whose path ends
// in a match of the pattern, and prints one row per line of each
// benchmark file. Each row has the file's path, the value of every
// wildcard of the pattern, and the statistics recorded in the file
// (s, max_rss, io_in, cpu_time, ...). The "h:m:s" column is dropped,
// since it repeats the "s" column.
//
// A file that matches the pattern's glob form but not its regular
// expression, for example because a wildcard constraint like
// {threads,\d+} fails, is still included with empty wildcard values,
// and smkbench prints a warning. -q silences warnings.
//
// The -rules flag reads the patterns of several rules from a YAML
// file:
//
//	root: results
//	rules:
//	  - name: bwa_map
//	    benchmark: benchmarks/{sample}.bwa.benchmark.txt
//	  - name: call_variants
//	    benchmark: benchmarks/{sample}.calls.benchmark.txt
//
// and adds a "rule" column naming each row's rule.
//
// The -summary flag replaces the rows with summary statistics (count,
// mean, min, median, max, and standard deviation) of each statistic,
// or only of the -stats statistics, grouped by the -by labels.
//
// The -format flag selects the output format: text, csv, tsv, json,
// or html.
//
// The -plot flag writes a scatter chart of the -x and -y columns to a
// file, in the format named by the file's extension (png, svg, pdf,
// eps, ...). With -group, points are colored by that column, and
// -highlight dims every group except the listed ones.
//
// The -db flag names a SQL database as driver:dsn, where driver is
// sqlite3 or mysql. With -store, the collected rows are saved as a new
// run; -list lists stored runs and -load prints a stored run instead of
// reading benchmark files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	_ "github.com/go-sql-driver/mysql"
	"github.com/smkbench/smkbench/benchagg"
	"github.com/smkbench/smkbench/benchplot"
	"github.com/smkbench/smkbench/storage/db"
	_ "github.com/smkbench/smkbench/storage/db/sqlite3"
	"gonum.org/v1/plot/vg"
)

// errUsage reports a command line error. The usage message has
// already been printed.
var errUsage = errors.New("usage error")

func usage(w io.Writer, flags *flag.FlagSet) {
	fmt.Fprintf(w, `Usage: smkbench [flags] pattern [dir]
       smkbench [flags] -rules rules.yaml [dir]
       smkbench [flags] -db driver:dsn -load id
       smkbench -db driver:dsn -list

smkbench collects the Snakemake benchmark files below dir whose path
matches pattern, and prints their rows as one table.

Flags:
`)
	flags.PrintDefaults()
}

func main() {
	log.SetPrefix("smkbench: ")
	log.SetFlags(0)

	if err := smkbench(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		if err == errUsage {
			os.Exit(2)
		}
		log.Print(err)
		os.Exit(1)
	}
}

func smkbench(w, wErr io.Writer, args []string) error {
	flags := flag.NewFlagSet("smkbench", flag.ContinueOnError)
	flags.SetOutput(wErr)
	flags.Usage = func() { usage(flags.Output(), flags) }

	flagFormat := flags.String("format", "text", "print results in `format`: text, csv, tsv, json, or html")
	flagOut := flags.String("o", "", "write results to `file` instead of standard output")
	flagIgnore := flags.String("ignore", "", "ignore comma-separated statistic `columns` of benchmark files")
	flagRules := flags.String("rules", "", "read rule names and benchmark patterns from YAML `file`")
	flagQuiet := flags.Bool("q", false, "do not print warnings")

	flagSummary := flags.Bool("summary", false, "print summary statistics instead of rows")
	flagBy := flags.String("by", "", "group summaries by comma-separated label `columns`")
	flagStats := flags.String("stats", "", "summarize only comma-separated statistic `columns`")

	flagPlot := flags.String("plot", "", "write a scatter chart to `file`")
	flagX := flags.String("x", "", "plot `column` on the horizontal axis")
	flagY := flags.String("y", "", "plot `column` on the vertical axis")
	flagGroup := flags.String("group", "", "color points by `column`")
	flagHighlight := flags.String("highlight", "", "dim all groups but comma-separated `values`")
	flagTitle := flags.String("title", "", "chart `title`")
	flagWidth := flags.Float64("width", 8, "chart width in `inches`")
	flagHeight := flags.Float64("height", 6, "chart height in `inches`")

	flagDB := flags.String("db", "", "use the SQL database `driver:dsn` (driver is sqlite3 or mysql)")
	flagStore := flags.Bool("store", false, "store the collected rows as a new run in the -db database")
	flagLoad := flags.Int64("load", 0, "print stored run `id` instead of reading benchmark files")
	flagList := flags.Bool("list", false, "list the runs stored in the -db database")

	if err := flags.Parse(args); err != nil {
		return errUsage
	}

	format, err := benchagg.ParseFormat(*flagFormat)
	if err != nil {
		fmt.Fprintf(wErr, "smkbench: %s\n", err)
		return errUsage
	}
	usageErr := func(msg string) error {
		fmt.Fprintf(wErr, "smkbench: %s\n", msg)
		flags.Usage()
		return errUsage
	}
	reading := *flagLoad == 0 && !*flagList
	switch {
	case reading && *flagRules == "" && (flags.NArg() < 1 || flags.NArg() > 2):
		return usageErr("expected a pattern and an optional directory")
	case reading && *flagRules != "" && flags.NArg() > 1:
		return usageErr("expected at most one directory with -rules")
	case !reading && flags.NArg() > 0:
		return usageErr("unexpected arguments with -load or -list")
	case (*flagLoad != 0 || *flagList || *flagStore) && *flagDB == "":
		return usageErr("-load, -list, and -store require -db")
	case *flagPlot != "" && (*flagX == "" || *flagY == ""):
		return usageErr("-plot requires -x and -y")
	}

	ctx := context.Background()
	var store *db.DB
	if *flagDB != "" {
		driver, dsn, ok := strings.Cut(*flagDB, ":")
		if !ok {
			return usageErr("-db must have the form driver:dsn")
		}
		store, err = db.OpenSQL(driver, dsn)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer store.Close()
	}

	out := w
	var outFile *os.File
	if *flagOut != "" {
		outFile, err = os.Create(*flagOut)
		if err != nil {
			return err
		}
		defer outFile.Close()
		out = outFile
	}

	if *flagList {
		runs, err := store.Runs(ctx)
		if err != nil {
			return err
		}
		return benchagg.Write(out, runTable(runs), format)
	}

	warn := func(format string, args ...interface{}) {
		if !*flagQuiet {
			fmt.Fprintf(wErr, "smkbench: "+format, args...)
		}
	}
	ignore := splitList(*flagIgnore)

	var ds *benchagg.Dataset
	var run db.Run
	switch {
	case *flagLoad != 0:
		ds, err = store.Load(ctx, *flagLoad)
		if err != nil {
			return fmt.Errorf("run %d: %w", *flagLoad, err)
		}
	case *flagRules != "":
		rs, err := benchagg.LoadRules(*flagRules)
		if err != nil {
			return err
		}
		dir := "."
		if flags.NArg() > 0 {
			dir = flags.Arg(0)
		}
		ds, err = rs.Aggregate(dir, ignore, warn)
		if err != nil {
			return err
		}
		run = db.Run{Root: dir, Pattern: *flagRules}
	default:
		pattern, dir := flags.Arg(0), "."
		if flags.NArg() > 1 {
			dir = flags.Arg(1)
		}
		b := benchagg.Builder{Ignore: ignore, Warn: warn}
		if err := b.Add(dir, pattern); err != nil {
			return err
		}
		ds = b.Dataset()
		run = db.Run{Root: dir, Pattern: pattern}
	}
	if ds.Len() == 0 {
		warn("no benchmark rows found\n")
	}

	if *flagStore && *flagLoad == 0 {
		id, err := store.Store(ctx, run, ds)
		if err != nil {
			return fmt.Errorf("storing run: %w", err)
		}
		fmt.Fprintf(wErr, "smkbench: stored run %d\n", id)
	}

	var g table.Grouping = ds.Table()
	if *flagSummary {
		g, err = benchagg.Summarize(ds, splitList(*flagBy), splitList(*flagStats))
		if err != nil {
			return err
		}
	}

	if *flagPlot != "" {
		p, err := benchplot.Scatter(g, benchplot.Options{
			X:         *flagX,
			Y:         *flagY,
			Group:     *flagGroup,
			Highlight: splitList(*flagHighlight),
			Title:     *flagTitle,
		})
		if err != nil {
			return err
		}
		width, height := vg.Length(*flagWidth)*vg.Inch, vg.Length(*flagHeight)*vg.Inch
		if err := benchplot.Save(p, width, height, *flagPlot); err != nil {
			return err
		}
	}

	if err := benchagg.Write(out, g, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if outFile != nil {
		return outFile.Close()
	}
	return nil
}

// runTable returns a table describing runs.
func runTable(runs []db.Run) *table.Table {
	ids := []string{}
	roots := []string{}
	patterns := []string{}
	created := []string{}
	rows := []int{}
	for _, r := range runs {
		ids = append(ids, strconv.FormatInt(r.ID, 10))
		roots = append(roots, r.Root)
		patterns = append(patterns, r.Pattern)
		created = append(created, r.Created.UTC().Format("2006-01-02 15:04:05"))
		rows = append(rows, r.Rows)
	}
	var b table.Builder
	b.Add("id", ids).Add("root", roots).Add("pattern", patterns).Add("created", created).Add("rows", rows)
	return b.Done()
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
