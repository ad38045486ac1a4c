/*
 * grouping.go, part of gomsd.
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
	"fmt"
	"strings"

	msd "github.com/rmera/gomsd"
)

//Scheme is the way the atoms of a frame are assigned to molecules.
type Scheme int

const (
	//Atoms of molecule m are m*k, m*k+1 ... m*k+k-1
	Contiguous Scheme = iota
	//Atom j of molecule m is j*M+m, where M is the number of molecules (all first atoms, then all second atoms, etc).
	Strided
	//Given by an explicit table.
	Explicit
)

func (s Scheme) String() string {
	switch s {
	case Strided:
		return "strided"
	case Explicit:
		return "explicit"
	}
	return "contiguous"
}

//ParseScheme returns the scheme named by s. An empty string means Contiguous.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "contiguous":
		return Contiguous, nil
	case "strided", "interleaved":
		return Strided, nil
	case "explicit", "table":
		return Explicit, nil
	}
	return Contiguous, fmt.Errorf("unknown grouping scheme %q", s)
}

//Grouping assigns the atoms of a frame to molecules, all with the same number of atoms.
//It is fixed for a whole run.
type Grouping struct {
	natoms int
	k      int
	scheme Scheme
	groups [][]int
}

//NewGrouping returns a Contiguous or Strided grouping of natoms atoms into molecules of k atoms.
//natoms must be an exact multiple of k, otherwise a configuration error is returned.
func NewGrouping(scheme Scheme, natoms, k int) (*Grouping, error) {
	if k <= 0 {
		return nil, msd.Errorf(msd.KindConfig, "NewGrouping", "atoms per molecule must be positive, got %d", k)
	}
	if natoms <= 0 || natoms%k != 0 {
		return nil, msd.Errorf(msd.KindConfig, "NewGrouping", "%d atoms can't be split in molecules of %d atoms", natoms, k)
	}
	nmol := natoms / k
	G := &Grouping{natoms: natoms, k: k, scheme: scheme, groups: make([][]int, nmol)}
	for m := range G.groups {
		G.groups[m] = make([]int, k)
		for j := 0; j < k; j++ {
			switch scheme {
			case Strided:
				G.groups[m][j] = j*nmol + m
			case Contiguous:
				G.groups[m][j] = m*k + j
			default:
				return nil, msd.Errorf(msd.KindConfig, "NewGrouping", "use NewExplicit for explicit groupings")
			}
		}
	}
	return G, nil
}

//NewExplicit returns a grouping given by table, where table[m] contains the atom indexes of molecule m.
//All rows must have the same length, and the indexes must be valid for frames of natoms atoms.
//An atom can't belong to two molecules.
func NewExplicit(natoms int, table [][]int) (*Grouping, error) {
	if len(table) == 0 {
		return nil, msd.Errorf(msd.KindConfig, "NewExplicit", "empty molecule table")
	}
	k := len(table[0])
	if k == 0 {
		return nil, msd.Errorf(msd.KindConfig, "NewExplicit", "molecule 0 has no atoms")
	}
	seen := make(map[int]int, len(table)*k)
	G := &Grouping{natoms: natoms, k: k, scheme: Explicit, groups: make([][]int, len(table))}
	for m, row := range table {
		if len(row) != k {
			return nil, msd.Errorf(msd.KindConfig, "NewExplicit", "molecule %d has %d atoms, %d expected", m, len(row), k)
		}
		for _, a := range row {
			if a < 0 || a >= natoms {
				return nil, msd.Errorf(msd.KindConfig, "NewExplicit", "atom index %d of molecule %d out of range for %d atoms", a, m, natoms)
			}
			if prev, ok := seen[a]; ok {
				return nil, msd.Errorf(msd.KindConfig, "NewExplicit", "atom %d is in molecules %d and %d", a, prev, m)
			}
			seen[a] = m
		}
		G.groups[m] = append([]int(nil), row...)
	}
	return G, nil
}

//Molecules returns the number of molecules.
func (G *Grouping) Molecules() int { return len(G.groups) }

//K returns the number of atoms per molecule.
func (G *Grouping) K() int { return G.k }

//NAtoms returns the number of atoms per frame the grouping is meant for.
func (G *Grouping) NAtoms() int { return G.natoms }

//Scheme returns the grouping scheme.
func (G *Grouping) Scheme() Scheme { return G.scheme }

//Atoms returns the atom indexes of molecule m. The slice must not be modified.
func (G *Grouping) Atoms(m int) []int { return G.groups[m] }

//Subset returns a grouping with only the first n molecules. n <= 0 or n larger than the
//number of molecules gives G itself.
func (G *Grouping) Subset(n int) *Grouping {
	if n <= 0 || n >= len(G.groups) {
		return G
	}
	return &Grouping{natoms: G.natoms, k: G.k, scheme: G.scheme, groups: G.groups[:n]}
}

//Check returns a configuration error if frames of natoms atoms can't be used with G.
func (G *Grouping) Check(natoms int) error {
	if natoms != G.natoms {
		return msd.Errorf(msd.KindConfig, "Check", "grouping is for %d atoms, frame has %d", G.natoms, natoms)
	}
	return nil
}
