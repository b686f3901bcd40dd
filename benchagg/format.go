// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/table"
	"github.com/google/safehtml/template"
)

// A Format is an output format for tables.
type Format int

const (
	Text Format = iota // aligned columns
	CSV
	TSV
	JSON // array of objects, one per row
	HTML // a <table> element
)

var formatNames = map[string]Format{
	"text": Text,
	"csv":  CSV,
	"tsv":  TSV,
	"json": JSON,
	"html": HTML,
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	if f, ok := formatNames[strings.ToLower(s)]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("unknown format %q: want text, csv, tsv, json, or html", s)
}

func (f Format) String() string {
	for name, f2 := range formatNames {
		if f == f2 {
			return name
		}
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Write writes every table of g to w in format f. Rows of different
// groups are written one after the other under a single header.
//
// Missing statistics (NaN) are printed as "NaN" in Text format, as
// empty cells in CSV, TSV, and HTML, and are omitted from JSON
// objects.
func Write(w io.Writer, g table.Grouping, f Format) error {
	switch f {
	case Text:
		return table.Fprint(w, g)
	case CSV, TSV:
		cw := csv.NewWriter(w)
		if f == TSV {
			cw.Comma = '\t'
		}
		cols := g.Columns()
		if cols == nil {
			return nil
		}
		if err := cw.Write(cols); err != nil {
			return err
		}
		err := eachRow(g, func(row []interface{}) error {
			rec := make([]string, len(row))
			for i, v := range row {
				rec[i] = cell(v)
			}
			return cw.Write(rec)
		})
		if err != nil {
			return err
		}
		cw.Flush()
		return cw.Error()
	case JSON:
		cols := g.Columns()
		objs := []map[string]interface{}{}
		eachRow(g, func(row []interface{}) error {
			obj := make(map[string]interface{}, len(row))
			for i, v := range row {
				if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
					continue
				}
				obj[cols[i]] = v
			}
			objs = append(objs, obj)
			return nil
		})
		enc := json.NewEncoder(w)
		enc.SetIndent("", "\t")
		return enc.Encode(objs)
	case HTML:
		var data htmlTable
		data.Columns = g.Columns()
		eachRow(g, func(row []interface{}) error {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = cell(v)
			}
			data.Rows = append(data.Rows, cells)
			return nil
		})
		return htmlTemplate.Execute(w, data)
	}
	return fmt.Errorf("unknown format %v", f)
}

// eachRow calls f with the values of each row of g, in the column
// order of g.
func eachRow(g table.Grouping, f func(row []interface{}) error) error {
	cols := g.Columns()
	for _, gid := range g.Tables() {
		t := g.Table(gid)
		seqs := make([]reflect.Value, len(cols))
		for i, col := range cols {
			seqs[i] = reflect.ValueOf(t.MustColumn(col))
		}
		row := make([]interface{}, len(cols))
		for r := 0; r < t.Len(); r++ {
			for i := range cols {
				row[i] = seqs[i].Index(r).Interface()
			}
			if err := f(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// cell formats a single value for CSV and HTML output.
func cell(v interface{}) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if math.IsNaN(v) {
			return ""
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return fmt.Sprint(v)
}

type htmlTable struct {
	Columns []string
	Rows    [][]string
}

var htmlTemplate = template.Must(template.New("").Parse(`<table class="smkbench">
<thead>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
`))
