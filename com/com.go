/*
 * com.go, part of gomsd.
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

package com

import (
	msd "github.com/rmera/gomsd"
	v3 "github.com/rmera/gomsd/v3"
)

//Reducer turns each frame of atoms into a frame of molecular centers of mass.
type Reducer struct {
	g      *Grouping
	masses []float64
	total  float64
}

//NewReducer returns a reducer for the grouping g. masses contains the mass of each atom
//of a molecule, in the order of the grouping, so len(masses) must be equal to g.K().
func NewReducer(g *Grouping, masses []float64) (*Reducer, error) {
	if g == nil {
		return nil, msd.Errorf(msd.KindConfig, "NewReducer", "nil grouping")
	}
	if len(masses) != g.K() {
		return nil, msd.Errorf(msd.KindConfig, "NewReducer", "%d masses given for molecules of %d atoms", len(masses), g.K())
	}
	R := &Reducer{g: g, masses: append([]float64(nil), masses...)}
	for i, m := range masses {
		if m < 0 {
			return nil, msd.Errorf(msd.KindConfig, "NewReducer", "mass %d is negative (%g)", i, m)
		}
		R.total += m
	}
	if R.total <= 0 {
		return nil, msd.Errorf(msd.KindConfig, "NewReducer", "the total mass of a molecule must be positive")
	}
	return R, nil
}

//Ones returns k unit masses, which give geometric centers.
func Ones(k int) []float64 {
	ret := make([]float64, k)
	for i := range ret {
		ret[i] = 1
	}
	return ret
}

//Grouping returns the grouping used by R
func (R *Reducer) Grouping() *Grouping { return R.g }

//Molecules returns the number of vectors in the frames produced by R.
func (R *Reducer) Molecules() int { return R.g.Molecules() }

//Center returns the center of mass of molecule m in the frame atoms.
func (R *Reducer) Center(atoms *v3.Matrix, m int) [3]float64 {
	var c [3]float64
	for j, a := range R.g.Atoms(m) {
		w := R.masses[j]
		c[0] += w * atoms.At(a, 0)
		c[1] += w * atoms.At(a, 1)
		c[2] += w * atoms.At(a, 2)
	}
	c[0] /= R.total
	c[1] /= R.total
	c[2] /= R.total
	return c
}

//Reduce puts in dst, which must have Molecules() vectors, the centers of mass of the molecules in atoms.
func (R *Reducer) Reduce(atoms, dst *v3.Matrix) error {
	if err := R.g.Check(atoms.NVecs()); err != nil {
		return msd.ErrDecorate(err, "Reduce")
	}
	if dst.NVecs() != R.g.Molecules() {
		return msd.Errorf(msd.KindConfig, "Reduce", "destination has %d vectors for %d molecules", dst.NVecs(), R.g.Molecules())
	}
	for m := 0; m < R.g.Molecules(); m++ {
		dst.SetVec(m, R.Center(atoms, m))
	}
	return nil
}
