// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package benchplot draws charts of aggregated benchmark data.
package benchplot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/generic/slice"
	"github.com/aclements/go-gg/table"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/brewer"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Options selects what a chart shows.
type Options struct {
	// X and Y name the columns of the horizontal and vertical axes.
	X, Y string

	// Group, if non-empty, names a column whose values partition
	// the points into colored series with a legend entry each.
	Group string

	// Highlight lists values of Group to draw opaque. The other
	// series are dimmed. If Highlight is empty, every series is
	// opaque.
	Highlight []string

	// Title is the chart title.
	Title string
}

// dimAlpha is the alpha of series that are not highlighted.
const dimAlpha = 0x1a

const pointRadius = 3

// Scatter returns a scatter chart of columns opts.X and opts.Y of g.
//
// Numeric columns are plotted by value. A string column is plotted by
// value if every non-empty string in it is a number, and otherwise
// each distinct string gets its own position, in order of first
// appearance. Points with a missing coordinate are left out.
func Scatter(g table.Grouping, opts Options) (*plot.Plot, error) {
	if opts.X == "" || opts.Y == "" {
		return nil, fmt.Errorf("both X and Y columns are required")
	}
	for _, col := range []string{opts.X, opts.Y, opts.Group} {
		if col != "" && !hasColumn(g, col) {
			return nil, fmt.Errorf("unknown column %q", col)
		}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.X
	p.Y.Label.Text = opts.Y
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	tab := table.Flatten(g)
	if tab.Len() == 0 {
		return p, nil
	}
	xa, err := newAxis(tab, opts.X)
	if err != nil {
		return nil, err
	}
	ya, err := newAxis(tab, opts.Y)
	if err != nil {
		return nil, err
	}

	ss, err := scatters(tab, opts, xa, ya)
	if err != nil {
		return nil, err
	}
	for _, s := range ss {
		p.Add(s.Scatter)
		if opts.Group != "" {
			p.Legend.Add(s.name, s.Scatter)
		}
	}

	if xa.nominal != nil {
		p.NominalX(xa.nominal...)
	}
	if ya.nominal != nil {
		p.NominalY(ya.nominal...)
	}
	return p, nil
}

// A series is the points of one group.
type series struct {
	name string
	*plotter.Scatter
}

// scatters returns the points of tab, split by opts.Group if set.
// Groups without any plottable point are left out.
func scatters(tab *table.Table, opts Options, xa, ya *axis) ([]series, error) {
	if opts.Group == "" {
		s, err := scatter(tab, xa, ya)
		if s == nil || err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = color.Black
		return []series{{"", s}}, nil
	}

	groups := table.GroupBy(tab, opts.Group)
	pal, err := colors(len(groups.Tables()))
	if err != nil {
		return nil, err
	}
	highlight := make(map[string]bool)
	for _, h := range opts.Highlight {
		highlight[h] = true
	}
	var out []series
	for i, gid := range groups.Tables() {
		s, err := scatter(groups.Table(gid), xa, ya)
		if err != nil {
			return nil, err
		}
		if s == nil {
			continue
		}
		name := fmt.Sprint(gid.Label())
		c := pal[i%len(pal)]
		if len(highlight) > 0 && !highlight[name] {
			c = dim(c)
		}
		s.GlyphStyle.Color = c
		out = append(out, series{name, s})
	}
	return out, nil
}

// scatter returns the points of t as a Scatter, or nil if no row of t
// has both coordinates.
func scatter(t *table.Table, xa, ya *axis) (*plotter.Scatter, error) {
	xs := xa.values(t)
	ys := ya.values(t)
	var xys plotter.XYs
	for i := range xs {
		if isFinite(xs[i]) && isFinite(ys[i]) {
			xys = append(xys, plotter.XY{X: xs[i], Y: ys[i]})
		}
	}
	if len(xys) == 0 {
		return nil, nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Radius = vg.Points(pointRadius)
	return s, nil
}

// An axis maps the values of one column to plot coordinates.
type axis struct {
	col string

	// nominal, if non-nil, lists the distinct strings of a
	// non-numeric column. Each is plotted at its index.
	nominal []string
	pos     map[string]float64
}

func newAxis(t *table.Table, col string) (*axis, error) {
	a := &axis{col: col}
	switch table.ColType(t, col).Elem().Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return a, nil
	case reflect.String:
	default:
		return nil, fmt.Errorf("column %q has type %s, which cannot be plotted", col, table.ColType(t, col).Elem())
	}

	strs := t.MustColumn(col).([]string)
	numeric := true
	for _, s := range strs {
		if _, err := parseFloat(s); err != nil {
			numeric = false
			break
		}
	}
	if numeric {
		return a, nil
	}
	a.nominal = []string{}
	a.pos = make(map[string]float64)
	for _, s := range strs {
		if _, ok := a.pos[s]; !ok {
			a.pos[s] = float64(len(a.nominal))
			a.nominal = append(a.nominal, s)
		}
	}
	return a, nil
}

// values returns the coordinates of column a.col of t. Missing values
// are NaN.
func (a *axis) values(t *table.Table) []float64 {
	col := t.MustColumn(a.col)
	strs, ok := col.([]string)
	if !ok {
		var xs []float64
		slice.Convert(&xs, col)
		return xs
	}
	xs := make([]float64, len(strs))
	for i, s := range strs {
		if a.nominal != nil {
			xs[i] = a.pos[s]
		} else {
			xs[i], _ = parseFloat(s)
		}
	}
	return xs
}

// parseFloat parses a numeric string. The empty string is NaN.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// colors returns a qualitative palette for n series. The palette has
// between 3 and 12 colors; callers cycle through it.
func colors(n int) ([]color.Color, error) {
	const name = "Paired"
	const min, max = 3, 12
	if n < min {
		n = min
	} else if n > max {
		n = max
	}
	pal, err := brewer.GetPalette(brewer.TypeQualitative, name, n)
	if err != nil {
		return nil, err
	}
	return pal.Colors(), nil
}

func dim(c color.Color) color.Color {
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	nc.A = dimAlpha
	return nc
}

func hasColumn(g table.Grouping, col string) bool {
	for _, c := range g.Columns() {
		if c == col {
			return true
		}
	}
	return false
}

// DPI is the resolution of PNG output.
const DPI = 150

// Save writes p to file with the given size. The format is chosen by
// the file's extension, as in (*plot.Plot).Save. PNG files get a white
// background.
func Save(p *plot.Plot, w, h vg.Length, file string) error {
	if strings.ToLower(filepath.Ext(file)) != ".png" {
		return p.Save(w, h, file)
	}

	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(DPI), vgimg.UseBackgroundColor(color.White))
	p.Draw(draw.New(c))

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
