/*
 * finalize.go, part of gomsd.
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
	"fmt"
	"math"
	"strings"
)

//AxisPair selects one of the cross-axis non-Gaussian parameters.
type AxisPair int

const (
	XY AxisPair = iota
	XZ
	YZ
)

//Axes returns the indexes of the two axes in the pair.
func (P AxisPair) Axes() (int, int) {
	switch P {
	case XY:
		return 0, 1
	case YZ:
		return 1, 2
	}
	return 0, 2
}

func (P AxisPair) String() string {
	switch P {
	case XY:
		return "xy"
	case YZ:
		return "yz"
	}
	return "xz"
}

//ParseAxisPair returns the pair named by s, in any order and case ("xz", "ZX").
//An empty string gives XZ.
func ParseAxisPair(s string) (AxisPair, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xz", "zx":
		return XZ, nil
	case "xy", "yx":
		return XY, nil
	case "yz", "zy":
		return YZ, nil
	}
	return XZ, fmt.Errorf("invalid axis pair %q, use xy, xz or yz", s)
}

//MarshalText allows using the pair in JSON and config files.
func (P AxisPair) MarshalText() ([]byte, error) {
	return []byte(P.String()), nil
}

//UnmarshalText parses the pair from text.
func (P *AxisPair) UnmarshalText(b []byte) error {
	p, err := ParseAxisPair(string(b))
	if err != nil {
		return err
	}
	*P = p
	return nil
}

//Row contains the final statistics for one lag.
type Row struct {
	Lag        int        `json:"lag"`
	Time       float64    `json:"time"`
	Samples    int64      `json:"samples"`
	MSD        float64    `json:"msd"`
	Alpha2     float64    `json:"alpha2"`
	Pair       [3]float64 `json:"alpha_pairs"` //α_xy, α_xz, α_yz
	Anisotropy float64    `json:"anisotropy"`  //mean of the pair parameters that are not guarded, 0 if none
}

//Table is the finalized result, one Row per lag with samples.
type Table struct {
	Rows     []Row      `json:"rows"`
	Pair     AxisPair   `json:"axis_pair"`
	Stride   int        `json:"stride"`
	Origins  OriginMode `json:"origins"`
	Dt       float64    `json:"dt"`
	Segments int        `json:"segments"`
	Frames   int        `json:"frames"`
}

//Alpha returns the cross-axis parameter for the selected pair in row i.
func (T *Table) Alpha(i int) float64 {
	return T.Rows[i].Pair[T.Pair]
}

//Guard records a value that was replaced by 0 because it could not be computed reliably.
type Guard struct {
	Lag      int    `json:"lag"`
	Quantity string `json:"quantity"`
	Reason   string `json:"reason"`
}

func (G Guard) String() string {
	return fmt.Sprintf("lag %d: %s set to 0 (%s)", G.Lag, G.Quantity, G.Reason)
}

//finite returns v, or 0 and a guard if v is not finite.
func finite(v float64, lag int, q string, guards *[]Guard) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		*guards = append(*guards, Guard{Lag: lag, Quantity: q, Reason: "non-finite value"})
		return 0
	}
	return v
}

//Finalize turns the sums into averages. dt is the time between frames, used to fill
//the Time column. Lags without samples are left out, and reported as guards.
//Values with a denominator below the epsilon in o, or not finite, are set to 0 and also reported.
//S is not modified.
func (S *State) Finalize(pair AxisPair, dt float64, o *Options) (*Table, []Guard) {
	if o == nil {
		o = DefaultOptions()
	}
	eps := o.Epsilon()
	T := &Table{Pair: pair, Stride: S.Stride, Origins: S.Origins, Dt: dt, Segments: S.Segments, Frames: S.Frames}
	var guards []Guard
	pairnames := [3]string{"alpha_xy", "alpha_xz", "alpha_yz"}
	for i := range S.Lags {
		M := &S.Lags[i]
		lag := i + 1
		if M.N == 0 {
			guards = append(guards, Guard{Lag: lag, Quantity: "all", Reason: "no samples"})
			continue
		}
		n := float64(M.N)
		r := Row{Lag: lag, Time: float64(lag) * dt, Samples: M.N}
		r.MSD = finite(M.R2/n, lag, "msd", &guards)
		r4 := M.R4 / n
		if r.MSD*r.MSD < eps {
			guards = append(guards, Guard{Lag: lag, Quantity: "alpha2", Reason: "near-zero MSD"})
		} else {
			r.Alpha2 = finite(3*r4/(5*r.MSD*r.MSD)-1, lag, "alpha2", &guards)
		}
		var sum float64
		valid := 0
		for _, p := range []AxisPair{XY, XZ, YZ} {
			a, b := p.Axes()
			den := (M.A2[a] / n) * (M.A2[b] / n)
			if !(math.Abs(den) >= eps) {
				guards = append(guards, Guard{Lag: lag, Quantity: pairnames[p], Reason: "near-zero denominator"})
				continue
			}
			v := (M.C[p]/n)/den - 1
			r.Pair[p] = finite(v, lag, pairnames[p], &guards)
			if r.Pair[p] == v {
				sum += v
				valid++
			}
		}
		//guarded pairs are left out of the mean
		if valid > 0 {
			r.Anisotropy = sum / float64(valid)
		}
		T.Rows = append(T.Rows, r)
	}
	return T, guards
}
