/*
 * state.go, part of gomsd.
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
)

//Moments are the sums accumulated for one lag.
type Moments struct {
	N  int64      `json:"n"`  //number of (origin, molecule) samples
	R2 float64    `json:"r2"` //Σ|Δr|²
	R4 float64    `json:"r4"` //Σ|Δr|⁴
	A2 [3]float64 `json:"a2"` //ΣΔx², ΣΔy², ΣΔz²
	C  [3]float64 `json:"c"`  //ΣΔx²Δy², ΣΔx²Δz², ΣΔy²Δz², indexed by AxisPair
}

func (M *Moments) add(o *Moments) {
	M.N += o.N
	M.R2 += o.R2
	M.R4 += o.R4
	for i := 0; i < 3; i++ {
		M.A2[i] += o.A2[i]
		M.C[i] += o.C[i]
	}
}

//sample adds one displacement.
func (M *Moments) sample(dx, dy, dz float64) {
	x2, y2, z2 := dx*dx, dy*dy, dz*dz
	r2 := x2 + y2 + z2
	M.N++
	M.R2 += r2
	M.R4 += r2 * r2
	M.A2[0] += x2
	M.A2[1] += y2
	M.A2[2] += z2
	M.C[XY] += x2 * y2
	M.C[XZ] += x2 * z2
	M.C[YZ] += y2 * z2
}

//State contains the accumulated sums for lags 1, 2 ... len(Lags). Lags[d-1] holds lag d.
//Two states can be merged only if they were obtained with the same stride and origin mode.
type State struct {
	Lags     []Moments  `json:"lags"`
	Stride   int        `json:"stride"`
	Origins  OriginMode `json:"origins"`
	Segments int        `json:"segments"`
	Frames   int        `json:"frames"`
}

//NewState returns an empty state, which is the identity for Merge.
func NewState(o *Options) *State {
	if o == nil {
		o = DefaultOptions()
	}
	return &State{Stride: o.Stride(), Origins: o.Origins()}
}

//MaxLag returns the largest lag with data in S.
func (S *State) MaxLag() int {
	return len(S.Lags)
}

//Copy returns a deep copy of S
func (S *State) Copy() *State {
	ret := *S
	ret.Lags = append([]Moments(nil), S.Lags...)
	return &ret
}

//Merge adds the sums of o to those of S. The lags that o has and S lacks are appended.
//It returns a configuration error if the states were accumulated with different settings.
func (S *State) Merge(o *State) error {
	if o == nil {
		return nil
	}
	if S.Stride != o.Stride || S.Origins != o.Origins {
		return msd.Errorf(msd.KindConfig, "Merge", "can't merge states with stride %d, %s origins and stride %d, %s origins", S.Stride, S.Origins, o.Stride, o.Origins)
	}
	if len(o.Lags) > len(S.Lags) {
		S.Lags = append(S.Lags, make([]Moments, len(o.Lags)-len(S.Lags))...)
	}
	for i := range o.Lags {
		S.Lags[i].add(&o.Lags[i])
	}
	S.Segments += o.Segments
	S.Frames += o.Frames
	return nil
}

//Merge returns a new state with the sums of all the given states, added in order.
//nil states are skipped. With no states, it returns nil.
func Merge(states ...*State) (*State, error) {
	var ret *State
	for _, s := range states {
		if s == nil {
			continue
		}
		if ret == nil {
			ret = &State{Stride: s.Stride, Origins: s.Origins}
		}
		if err := ret.Merge(s); err != nil {
			return nil, msd.ErrDecorate(err, "Merge")
		}
	}
	return ret, nil
}
