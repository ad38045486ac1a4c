/*
 * dipole.go, part of gomsd.
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

//Package dipole obtains molecular dipole moments, in Debye, from atomic coordinates
//and fixed partial charges.
package dipole

import (
	"math"

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/com"
	v3 "github.com/rmera/gomsd/v3"
	"gonum.org/v1/gonum/stat"
)

//DebyeConversion is the value of 1 Debye in e·Å
const DebyeConversion = 0.2081943

//Options for the dipole calculation.
type Options struct {
	recenter   bool
	conversion float64
	molecules  int
	collective bool
	subset     []int
}

//DefaultOptions re-centers each molecule on its center of mass, reports Debye and
//uses all the molecules, one dipole each.
func DefaultOptions() *Options {
	return &Options{recenter: true, conversion: DebyeConversion}
}

//Recenter sets whether positions are taken relative to the center of mass of each molecule.
//This matters only for charged molecules.
func (O *Options) Recenter(r ...bool) bool {
	if len(r) > 0 {
		O.recenter = r[0]
	}
	return O.recenter
}

//Conversion sets the factor dividing Σqr (in e·Å) to obtain the reported unit, and returns the current value.
func (O *Options) Conversion(c ...float64) float64 {
	if len(c) > 0 && c[0] > 0 {
		O.conversion = c[0]
	}
	return O.conversion
}

//Molecules limits the calculation to the first n molecules. 0 means all.
func (O *Options) Molecules(n ...int) int {
	if len(n) > 0 && n[0] >= 0 {
		O.molecules = n[0]
	}
	return O.molecules
}

//Collective sets whether the sum of the molecular dipoles is reported instead
//of each dipole, and returns the current value.
func (O *Options) Collective(c ...bool) bool {
	if len(c) > 0 {
		O.collective = c[0]
	}
	return O.collective
}

//Subset sets the molecules added up in the collective dipole. nil means all.
func (O *Options) Subset(s ...[]int) []int {
	if len(s) > 0 {
		O.subset = s[0]
	}
	return O.subset
}

//Calculator obtains the dipoles of all molecules in a frame.
type Calculator struct {
	g       *com.Grouping
	charges []float64
	center  *com.Reducer
	o       *Options
}

//NewCalculator returns a calculator for the molecules in g. charges are the partial charges (in e)
//of the atoms of one molecule, in grouping order. masses are used to obtain the center of mass for
//re-centering. If nil, the geometric center is used.
func NewCalculator(g *com.Grouping, charges, masses []float64, o *Options) (*Calculator, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if g == nil {
		return nil, msd.Errorf(msd.KindConfig, "NewCalculator", "nil grouping")
	}
	if len(charges) != g.K() {
		return nil, msd.Errorf(msd.KindConfig, "NewCalculator", "%d charges given for molecules of %d atoms", len(charges), g.K())
	}
	if masses == nil {
		masses = com.Ones(g.K())
	}
	sub := g.Subset(o.Molecules())
	center, err := com.NewReducer(sub, masses)
	if err != nil {
		return nil, msd.ErrDecorate(err, "NewCalculator")
	}
	for _, m := range o.Subset() {
		if m < 0 || m >= sub.Molecules() {
			return nil, msd.Errorf(msd.KindConfig, "NewCalculator", "molecule %d in the collective subset, but only %d molecules are used", m, sub.Molecules())
		}
	}
	return &Calculator{g: sub, charges: append([]float64(nil), charges...), center: center, o: o}, nil
}

//Molecules returns the number of molecules whose dipole is obtained.
func (C *Calculator) Molecules() int {
	return C.g.Molecules()
}

//Options returns the options of the calculator. They should not be modified.
func (C *Calculator) Options() *Options {
	return C.o
}

//Frame contains the dipoles of a frame.
type Frame struct {
	Vectors    *v3.Matrix
	Magnitudes []float64
}

//Collective returns the sum of the dipoles of the molecules in subset, and its magnitude.
//A nil subset means all molecules.
func (F *Frame) Collective(subset []int) ([3]float64, float64) {
	var t [3]float64
	add := func(m int) {
		v := F.Vectors.Vec(m)
		t[0] += v[0]
		t[1] += v[1]
		t[2] += v[2]
	}
	if subset == nil {
		for m := 0; m < F.Vectors.NVecs(); m++ {
			add(m)
		}
	} else {
		for _, m := range subset {
			add(m)
		}
	}
	return t, norm(t)
}

func norm(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

//Frame returns the dipoles of the molecules in the frame atoms. dst can be nil, or a
//Frame returned by a previous call, which is then reused.
func (C *Calculator) Frame(atoms *v3.Matrix, dst *Frame) (*Frame, error) {
	if err := C.g.Check(atoms.NVecs()); err != nil {
		return nil, msd.ErrDecorate(err, "Frame")
	}
	nmol := C.g.Molecules()
	if dst == nil || dst.Vectors.NVecs() != nmol {
		dst = &Frame{Vectors: v3.Zeros(nmol), Magnitudes: make([]float64, nmol)}
	}
	for m := 0; m < nmol; m++ {
		var c, mu [3]float64
		if C.o.Recenter() {
			c = C.center.Center(atoms, m)
		}
		for j, a := range C.g.Atoms(m) {
			q := C.charges[j]
			for k := 0; k < 3; k++ {
				mu[k] += q * (atoms.At(a, k) - c[k])
			}
		}
		for k := 0; k < 3; k++ {
			mu[k] /= C.o.Conversion()
		}
		dst.Vectors.SetVec(m, mu)
		dst.Magnitudes[m] = dst.Vectors.Norm(m)
	}
	return dst, nil
}

//Stats collects the average dipole magnitude of each frame, to summarize a series.
type Stats struct {
	perFrame   []float64
	collective []float64
}

//Add includes the frame F in the statistics. subset is used for the collective dipole.
func (S *Stats) Add(F *Frame, subset []int) {
	S.perFrame = append(S.perFrame, stat.Mean(F.Magnitudes, nil))
	_, c := F.Collective(subset)
	S.collective = append(S.collective, c)
}

//Summary of a dipole series.
type Summary struct {
	Frames         int     `json:"frames"`
	MeanMagnitude  float64 `json:"mean_magnitude_debye"`
	StdMagnitude   float64 `json:"std_magnitude_debye"`
	MeanCollective float64 `json:"mean_collective_debye"`
	StdCollective  float64 `json:"std_collective_debye"`
}

//Summary returns the mean and standard deviation (over frames) of the average molecular dipole
//magnitude and of the collective dipole magnitude.
func (S *Stats) Summary() Summary {
	s := Summary{Frames: len(S.perFrame)}
	if s.Frames == 0 {
		return s
	}
	s.MeanMagnitude, s.StdMagnitude = stat.MeanStdDev(S.perFrame, nil)
	s.MeanCollective, s.StdCollective = stat.MeanStdDev(S.collective, nil)
	if s.Frames == 1 {
		s.StdMagnitude, s.StdCollective = 0, 0
	}
	return s
}
