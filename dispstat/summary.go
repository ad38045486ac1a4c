/*
 * summary.go, part of gomsd.
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

package dispstat

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//Summary contains a few numbers to judge the quality of a Table at a glance.
type Summary struct {
	Lags        int        `json:"lags"`
	MeanMSD     float64    `json:"mean_msd"`
	MaxMSD      float64    `json:"max_msd"`
	MeanAlpha2  float64    `json:"mean_alpha2"`
	Alpha2Range [2]float64 `json:"alpha2_range"`
	MeanPairs   [3]float64 `json:"mean_alpha_pairs"`
	MeanAniso   float64    `json:"mean_anisotropy"`
	MinSamples  int64      `json:"min_samples"`
}

//Summarize returns the Summary for T. A table without rows gives a zero Summary.
func (T *Table) Summarize() Summary {
	var s Summary
	n := len(T.Rows)
	s.Lags = n
	if n == 0 {
		return s
	}
	msds := make([]float64, n)
	a2 := make([]float64, n)
	aniso := make([]float64, n)
	pairs := [3][]float64{make([]float64, n), make([]float64, n), make([]float64, n)}
	s.MinSamples = T.Rows[0].Samples
	for i, r := range T.Rows {
		msds[i] = r.MSD
		a2[i] = r.Alpha2
		aniso[i] = r.Anisotropy
		for p := range pairs {
			pairs[p][i] = r.Pair[p]
		}
		if r.Samples < s.MinSamples {
			s.MinSamples = r.Samples
		}
	}
	s.MeanMSD = stat.Mean(msds, nil)
	s.MaxMSD = floats.Max(msds)
	s.MeanAlpha2 = stat.Mean(a2, nil)
	s.Alpha2Range = [2]float64{floats.Min(a2), floats.Max(a2)}
	for p := range pairs {
		s.MeanPairs[p] = stat.Mean(pairs[p], nil)
	}
	s.MeanAniso = stat.Mean(aniso, nil)
	return s
}
