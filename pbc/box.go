/*
 * box.go, part of gomsd.
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

package pbc

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	msd "github.com/rmera/gomsd"
)

//BoxSource gives the lengths of an orthorhombic simulation box for
//each frame of a segment.
type BoxSource interface {
	Box(frame int) ([3]float64, error)
}

//ConstBox is a box that doesn't change along the segment.
type ConstBox [3]float64

//Box returns the box lengths, which are the same for all frames.
func (C ConstBox) Box(frame int) ([3]float64, error) {
	return [3]float64(C), nil
}

//FrameBoxes contains one box per frame.
type FrameBoxes [][3]float64

//Box returns the box for the given frame. Asking for a frame beyond the end
//is an input error.
func (F FrameBoxes) Box(frame int) ([3]float64, error) {
	if frame < 0 || frame >= len(F) {
		return [3]float64{}, msd.Errorf(msd.KindInput, "FrameBoxes.Box", "no box for frame %d, only %d boxes available", frame, len(F))
	}
	return F[frame], nil
}

//CheckBox returns an error if any of the lengths in b is not positive.
func CheckBox(b [3]float64) error {
	for i, v := range b {
		if !(v > 0) {
			return msd.Errorf(msd.KindInput, "CheckBox", "box length %d is %g, it must be positive", i, v)
		}
	}
	return nil
}

//xsLines returns the box lengths in every data line of a NAMD extended system
//file (.xsc or .xst). The lengths are the diagonal of the cell matrix, fields 1, 5 and 9 of each line.
func xsLines(name string) ([][3]float64, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, msd.NewError(msd.KindInput, "xsLines", err, "can't open extended system file %s", name)
	}
	defer f.Close()
	var ret [][3]float64
	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 4096), 1<<20)
	line := 0
	for s.Scan() {
		line++
		t := strings.TrimSpace(s.Text())
		if t == "" || strings.HasPrefix(t, "#") {
			continue
		}
		fields := strings.Fields(t)
		if len(fields) < 10 {
			return nil, msd.Errorf(msd.KindInput, "xsLines", "%s:%d: %d fields, at least 10 expected", name, line, len(fields))
		}
		var b [3]float64
		for i, col := range []int{1, 5, 9} {
			b[i], err = strconv.ParseFloat(fields[col], 64)
			if err != nil {
				return nil, msd.NewError(msd.KindInput, "xsLines", err, "%s:%d: invalid box length", name, line)
			}
		}
		if err := CheckBox(b); err != nil {
			return nil, msd.NewError(msd.KindInput, "xsLines", err, "%s:%d", name, line)
		}
		ret = append(ret, b)
	}
	if err := s.Err(); err != nil {
		return nil, msd.NewError(msd.KindInput, "xsLines", err, "reading %s", name)
	}
	if len(ret) == 0 {
		return nil, msd.Errorf(msd.KindInput, "xsLines", "no box data in %s", name)
	}
	return ret, nil
}

//ReadXSC reads the box from a NAMD .xsc file. Only the last data line is used.
func ReadXSC(name string) (ConstBox, error) {
	l, err := xsLines(name)
	if err != nil {
		return ConstBox{}, msd.ErrDecorate(err, "ReadXSC")
	}
	return ConstBox(l[len(l)-1]), nil
}

//ReadXST reads one box per frame from a NAMD .xst file.
func ReadXST(name string) (FrameBoxes, error) {
	l, err := xsLines(name)
	if err != nil {
		return nil, msd.ErrDecorate(err, "ReadXST")
	}
	return FrameBoxes(l), nil
}

//String returns the box lengths in a human-readable form.
func (C ConstBox) String() string {
	return fmt.Sprintf("%.4f x %.4f x %.4f", C[0], C[1], C[2])
}
