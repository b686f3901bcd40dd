// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package benchagg

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/aclements/go-gg/table"
)

func testTable() *table.Table {
	return new(table.Builder).
		Add("rule", []string{"a", "b<c"}).
		Add("A", []float64{1.5, math.NaN()}).
		Done()
}

func TestWrite(t *testing.T) {
	for _, test := range []struct {
		f    Format
		want string
	}{
		{Text, "rule    A\na     1.5\nb<c   NaN\n"},
		{CSV, "rule,A\na,1.5\nb<c,\n"},
		{TSV, "rule\tA\na\t1.5\nb<c\t\n"},
		{JSON, "[\n\t{\n\t\t\"A\": 1.5,\n\t\t\"rule\": \"a\"\n\t},\n\t{\n\t\t\"rule\": \"b\\u003cc\"\n\t}\n]\n"},
	} {
		var buf bytes.Buffer
		if err := Write(&buf, testTable(), test.f); err != nil {
			t.Errorf("%v: %v", test.f, err)
			continue
		}
		if got := buf.String(); got != test.want {
			t.Errorf("%v: got\n%s\nwant\n%s", test.f, got, test.want)
		}
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testTable(), HTML); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{
		"<th>rule</th><th>A</th>",
		"<tr><td>a</td><td>1.5</td></tr>",
		"<tr><td>b&lt;c</td><td></td></tr>",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	empty := new(table.Table)
	for f := Text; f <= HTML; f++ {
		var buf bytes.Buffer
		if err := Write(&buf, empty, f); err != nil {
			t.Errorf("%v: %v", f, err)
		}
	}
	var buf bytes.Buffer
	Write(&buf, empty, JSON)
	if got := buf.String(); got != "[]\n" {
		t.Errorf("JSON: got %q, want %q", got, "[]\n")
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "csv", "tsv", "json", "html"} {
		f, err := ParseFormat(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if f.String() != name {
			t.Errorf("ParseFormat(%q).String() = %q", name, f.String())
		}
	}
	if f, err := ParseFormat("CSV"); err != nil || f != CSV {
		t.Errorf("ParseFormat(\"CSV\") = %v, %v; want csv", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(\"xml\"): want error")
	}
}
