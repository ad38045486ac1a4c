/*
 * plot.go, part of gomsd.
 *
 * Copyright 2026 Raul Mera A. (raulpuntomeraatusachpuntocl)
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/rmera/gomsd/dispstat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

//linePlot returns a plot with a line and points for y against x.
func linePlot(title, xlabel, ylabel string, x, y []float64, logscale bool) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Padding = 3 * vg.Millimeter
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	pts := make(plotter.XYs, 0, len(x))
	for i := range x {
		//log axes can't take non-positive values
		if logscale && (x[i] <= 0 || y[i] <= 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x[i], Y: y[i]})
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("nothing to plot for %s", title)
	}
	l, s, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, err
	}
	l.Color = color.RGBA{B: 200, A: 255}
	s.GlyphStyle.Color = color.RGBA{B: 200, A: 255}
	s.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(l, s)
	if logscale {
		p.X.Scale = plot.LogScale{}
		p.Y.Scale = plot.LogScale{}
		p.X.Tick.Marker = plot.LogTicks{Prec: -1}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return p, nil
}

//Plot writes prefix_msd.png, with the MSD against time on log-log axes, and prefix_alpha2.png,
//with α₂ against time. It returns the names of the files written.
func Plot(prefix string, T *dispstat.Table) ([]string, error) {
	if len(T.Rows) == 0 {
		return nil, fmt.Errorf("Plot: empty table")
	}
	if err := os.MkdirAll(filepath.Dir(prefix), 0o755); err != nil {
		return nil, err
	}
	t := make([]float64, len(T.Rows))
	msd := make([]float64, len(T.Rows))
	a2 := make([]float64, len(T.Rows))
	for i, r := range T.Rows {
		t[i], msd[i], a2[i] = r.Time, r.MSD, r.Alpha2
	}
	var names []string
	p, err := linePlot("Mean square displacement", "time", "MSD", t, msd, true)
	if err != nil {
		return nil, err
	}
	name := prefix + "_msd.png"
	if err := p.Save(5*vg.Inch, 4*vg.Inch, name); err != nil {
		return nil, err
	}
	names = append(names, name)
	p, err = linePlot("Non-Gaussian parameter", "time", "alpha2", t, a2, false)
	if err != nil {
		return names, err
	}
	name = prefix + "_alpha2.png"
	if err := p.Save(5*vg.Inch, 4*vg.Inch, name); err != nil {
		return names, err
	}
	return append(names, name), nil
}
