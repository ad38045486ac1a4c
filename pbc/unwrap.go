/*
 * unwrap.go, part of gomsd.
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
	"fmt"
	"runtime"
	"sync"

	msd "github.com/rmera/gomsd"
	v3 "github.com/rmera/gomsd/v3"
)

//State is what the unwrapper needs to remember between frames: the cumulative image
//shift of each particle and the last wrapped position seen for it.
//It can be serialized, and passed from the end of a segment to the beginning of the next.
type State struct {
	Shift  [][3]float64 `json:"shift"`
	Last   [][3]float64 `json:"last"`
	Frames int          `json:"frames"`
}

//NewState returns a fresh state for natoms particles. No frame has been seen.
func NewState(natoms int) *State {
	return &State{Shift: make([][3]float64, natoms), Last: make([][3]float64, natoms)}
}

//Len returns the number of particles in the state.
func (S *State) Len() int {
	return len(S.Shift)
}

//Copy returns a deep copy of S.
func (S *State) Copy() *State {
	if S == nil {
		return nil
	}
	ret := &State{Shift: make([][3]float64, len(S.Shift)), Last: make([][3]float64, len(S.Last)), Frames: S.Frames}
	copy(ret.Shift, S.Shift)
	copy(ret.Last, S.Last)
	return ret
}

//Options for the unwrapper.
type Options struct {
	cpus      int
	threshold int
}

//DefaultOptions uses all the CPUs available, for frames of more than
//4096 particles.
func DefaultOptions() *Options {
	return &Options{cpus: runtime.NumCPU(), threshold: 4096}
}

//Cpus sets the number of goroutines used for each frame, if a value is given,
//and returns the current value.
func (O *Options) Cpus(cpus ...int) int {
	if len(cpus) > 0 && cpus[0] > 0 {
		O.cpus = cpus[0]
	}
	return O.cpus
}

//Threshold sets the number of particles above which a frame is split among goroutines,
//and returns the current value.
func (O *Options) Threshold(t ...int) int {
	if len(t) > 0 {
		O.threshold = t[0]
	}
	return O.threshold
}

//Unwrapper removes the jumps that periodic boundary conditions produce in a trajectory,
//so the displacement of each particle between consecutive frames is never larger than
//half the box. Frames must be given in order.
type Unwrapper struct {
	state *State
	box   BoxSource
	frame int
	o     *Options
}

//NewUnwrapper returns an unwrapper for frames of natoms particles. If carry is not nil, the
//unwrapping continues from that state (normally, the end of the previous segment), otherwise
//it starts from scratch. carry is not modified. A nil o means DefaultOptions().
func NewUnwrapper(natoms int, box BoxSource, carry *State, o *Options) (*Unwrapper, error) {
	if o == nil {
		o = DefaultOptions()
	}
	if box == nil {
		return nil, msd.Errorf(msd.KindConfig, "NewUnwrapper", "no box source given")
	}
	U := &Unwrapper{box: box, o: o}
	if carry != nil {
		if carry.Len() != natoms {
			return nil, msd.Errorf(msd.KindInput, "NewUnwrapper", "carried state has %d particles, %d expected", carry.Len(), natoms)
		}
		U.state = carry.Copy()
	} else {
		U.state = NewState(natoms)
	}
	return U, nil
}

//State returns a copy of the current state of the unwrapper.
func (U *Unwrapper) State() *State {
	return U.state.Copy()
}

//Frames returns the number of frames unwrapped by U (not counting the ones in a carried state).
func (U *Unwrapper) Frames() int {
	return U.frame
}

//Unwrap takes the next wrapped frame and puts the unwrapped coordinates in out.
//out can be the same matrix as wrapped.
func (U *Unwrapper) Unwrap(wrapped, out *v3.Matrix) error {
	n := U.state.Len()
	if wrapped.NVecs() != n || out.NVecs() != n {
		return msd.Errorf(msd.KindInput, "Unwrap", "frame %d has %d particles, %d expected", U.frame, wrapped.NVecs(), n)
	}
	box, err := U.box.Box(U.frame)
	if err != nil {
		return msd.ErrDecorate(err, "Unwrap")
	}
	if err := CheckBox(box); err != nil {
		return msd.ErrDecorate(err, "Unwrap")
	}
	first := U.state.Frames == 0
	cpus := U.o.Cpus()
	if cpus <= 1 || n <= U.o.Threshold() {
		unwrapBlock(U.state, wrapped, out, box, first, 0, n)
	} else {
		if cpus > n {
			cpus = n
		}
		var wg sync.WaitGroup
		block := (n + cpus - 1) / cpus
		for start := 0; start < n; start += block {
			end := start + block
			if end > n {
				end = n
			}
			wg.Add(1)
			go func(start, end int) {
				defer wg.Done()
				unwrapBlock(U.state, wrapped, out, box, first, start, end)
			}(start, end)
		}
		wg.Wait()
	}
	U.state.Frames++
	U.frame++
	return nil
}

//unwrapBlock processes the particles from start to end-1. Different blocks touch
//disjoint parts of the state and the matrices.
func unwrapBlock(S *State, wrapped, out *v3.Matrix, box [3]float64, first bool, start, end int) {
	for i := start; i < end; i++ {
		w := wrapped.Vec(i)
		if !first {
			for k := 0; k < 3; k++ {
				d := w[k] - S.Last[i][k]
				half := box[k] / 2
				if d > half {
					S.Shift[i][k] -= box[k]
				} else if d < -half {
					S.Shift[i][k] += box[k]
				}
			}
		}
		S.Last[i] = w
		for k := 0; k < 3; k++ {
			out.Set(i, k, w[k]+S.Shift[i][k])
		}
	}
}

//UnwrapTraj unwraps a whole segment, read from in. The unwrapped frames are
//written to out, if not nil, and passed to each, if not nil, in order.
//The matrix given to each is reused, each must not keep a reference to it.
//It returns the state at the end of the segment.
func UnwrapTraj(in msd.Traj, out msd.TrajWriter, box BoxSource, carry *State, o *Options, each func(frame int, coords *v3.Matrix) error) (*State, error) {
	U, err := NewUnwrapper(in.Len(), box, carry, o)
	if err != nil {
		return nil, msd.ErrDecorate(err, "UnwrapTraj")
	}
	coords := v3.Zeros(in.Len())
	for i := 0; ; i++ {
		err := in.Next(coords)
		if err != nil {
			if msd.IsLastFrame(err) {
				break
			}
			return nil, msd.ErrDecorate(err, "UnwrapTraj")
		}
		if err := U.Unwrap(coords, coords); err != nil {
			return nil, msd.ErrDecorate(err, "UnwrapTraj")
		}
		if out != nil {
			if err := out.WNext(coords); err != nil {
				return nil, msd.ErrDecorate(err, "UnwrapTraj")
			}
		}
		if each != nil {
			if err := each(i, coords); err != nil {
				return nil, fmt.Errorf("frame %d: %w", i, err)
			}
		}
	}
	return U.State(), nil
}
