/*
 * accum.go, part of gomsd.
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
	msd "github.com/rmera/gomsd"
	v3 "github.com/rmera/gomsd/v3"
)

//Accumulator collects the center-of-mass frames of one segment and obtains
//its State. Only the frames of one segment are kept in memory.
type Accumulator struct {
	nmol   int
	o      *Options
	frames [][]float64
}

//NewAccumulator returns an accumulator for frames of nmol molecules.
//A nil o means DefaultOptions().
func NewAccumulator(nmol int, o *Options) *Accumulator {
	if o == nil {
		o = DefaultOptions()
	}
	return &Accumulator{nmol: nmol, o: o}
}

//Add appends a copy of frame to the segment.
func (A *Accumulator) Add(frame *v3.Matrix) error {
	if frame.NVecs() != A.nmol {
		return msd.Errorf(msd.KindInput, "Add", "frame %d has %d molecules, %d expected", len(A.frames), frame.NVecs(), A.nmol)
	}
	f := make([]float64, 3*A.nmol)
	copy(f, frame.RawData())
	A.frames = append(A.frames, f)
	return nil
}

//Frames returns the number of frames added so far.
func (A *Accumulator) Frames() int {
	return len(A.frames)
}

//Reset drops the frames, so the accumulator can be used for another segment.
func (A *Accumulator) Reset() {
	A.frames = A.frames[:0]
}

//State returns the sums for all the lags the segment allows (up to MaxLag, if set).
//A segment with less than 2 frames gives an empty state that still counts as a segment.
func (A *Accumulator) State() *State {
	S := NewState(A.o)
	S.Segments = 1
	T := len(A.frames)
	S.Frames = T
	maxlag := T - 1
	if ml := A.o.MaxLag(); ml > 0 && ml < maxlag {
		maxlag = ml
	}
	if maxlag < 1 {
		return S
	}
	S.Lags = make([]Moments, maxlag)
	stride := A.o.Stride()
	for d := 1; d <= maxlag; d++ {
		M := &S.Lags[d-1]
		for t0 := 0; t0+d < T; t0 += stride {
			o, e := A.frames[t0], A.frames[t0+d]
			for i := 0; i < 3*A.nmol; i += 3 {
				M.sample(e[i]-o[i], e[i+1]-o[i+1], e[i+2]-o[i+2])
			}
			if A.o.Origins() == FirstFrame {
				break
			}
		}
	}
	return S
}
