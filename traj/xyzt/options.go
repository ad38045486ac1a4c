/*
 * options.go, part of gomsd.
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

package xyzt

import (
	"fmt"
	"strings"
)

//Layout is the way coordinates are arranged in a segment file.
type Layout int

const (
	//One particle per line: index x y z
	Records Layout = iota
	//One frame per line: x1 y1 z1 x2 y2 z2 ...
	Flat
)

func (L Layout) String() string {
	if L == Flat {
		return "flat"
	}
	return "records"
}

//ParseLayout returns the Layout named by s ("records" or "flat", case insensitive).
//An empty string gives Records.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "records", "record":
		return Records, nil
	case "flat":
		return Flat, nil
	}
	return Records, fmt.Errorf("xyzt: unknown layout %q", s)
}

//Options contains the options for reading and writing segments.
//the zero value is not useful, use DefaultOptions
type Options struct {
	layout Layout
	mmap   bool
	prec   int
	base   int
}

//DefaultOptions returns options for the records layout, no memory mapping,
//shortest exact float representation and particle indexes starting from 0.
func DefaultOptions() *Options {
	return &Options{layout: Records, prec: -1}
}

//Layout sets the layout if a value is given, and returns the current one.
func (O *Options) Layout(l ...Layout) Layout {
	if len(l) > 0 {
		O.layout = l[0]
	}
	return O.layout
}

//Mmap sets whether the input files are memory-mapped, and returns the current value.
func (O *Options) Mmap(m ...bool) bool {
	if len(m) > 0 {
		O.mmap = m[0]
	}
	return O.mmap
}

//Prec sets the number of decimal places used when writing, and returns the current value.
//A negative number means the shortest representation that reads back to the same float64.
func (O *Options) Prec(p ...int) int {
	if len(p) > 0 {
		O.prec = p[0]
	}
	return O.prec
}

//Base sets the index given to the first particle when writing records, and returns the current value.
func (O *Options) Base(b ...int) int {
	if len(b) > 0 {
		O.base = b[0]
	}
	return O.base
}
