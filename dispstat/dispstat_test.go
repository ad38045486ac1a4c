/*
 * dispstat_test.go, part of gomsd.
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
	"encoding/json"
	"math"
	"math/rand"
	"testing"

	v3 "github.com/rmera/gomsd/v3"
)

func closeTo(a, b, rtol float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= rtol*math.Max(math.Abs(a), math.Abs(b))
}

//brownian returns nseg segments of nframes frames of nmol molecules doing a random walk
//with unit Gaussian steps in each axis.
func brownian(nseg, nframes, nmol int, seed int64) [][]*v3.Matrix {
	r := rand.New(rand.NewSource(seed))
	ret := make([][]*v3.Matrix, nseg)
	for s := range ret {
		pos := make([]float64, 3*nmol)
		for f := 0; f < nframes; f++ {
			m := v3.Zeros(nmol)
			for i := range pos {
				if f > 0 {
					pos[i] += r.NormFloat64()
				}
				m.Set(i/3, i%3, pos[i])
			}
			ret[s] = append(ret[s], m)
		}
	}
	return ret
}

func segState(Te *testing.T, frames []*v3.Matrix, o *Options) *State {
	A := NewAccumulator(frames[0].NVecs(), o)
	for _, f := range frames {
		if err := A.Add(f); err != nil {
			Te.Fatal(err)
		}
	}
	return A.State()
}

func TestBallistic(Te *testing.T) {
	var frames []*v3.Matrix
	for t := 0; t < 6; t++ {
		m, _ := v3.NewMatrix([]float64{2 * float64(t), float64(t), 0})
		frames = append(frames, m)
	}
	S := segState(Te, frames, nil)
	if S.MaxLag() != 5 {
		Te.Fatalf("expected 5 lags, got %d", S.MaxLag())
	}
	T, guards := S.Finalize(XY, 0.5, nil)
	for _, r := range T.Rows {
		d := float64(r.Lag)
		if !closeTo(r.MSD, 5*d*d, 1e-12) {
			Te.Errorf("lag %d: MSD %g, expected %g", r.Lag, r.MSD, 5*d*d)
		}
		if !closeTo(r.Alpha2, -0.4, 1e-12) {
			Te.Errorf("lag %d: alpha2 %g, expected -0.4", r.Lag, r.Alpha2)
		}
		//all displacements for a lag are the same, so ⟨Δx²Δy²⟩ = ⟨Δx²⟩⟨Δy²⟩
		if math.Abs(r.Pair[XY]) > 1e-12 {
			Te.Errorf("lag %d: alpha_xy %g, expected 0", r.Lag, r.Pair[XY])
		}
		if r.Samples != int64(6-r.Lag) {
			Te.Errorf("lag %d: %d samples, expected %d", r.Lag, r.Samples, 6-r.Lag)
		}
		if r.Time != 0.5*d {
			Te.Errorf("lag %d: time %g", r.Lag, r.Time)
		}
	}
	//no motion along z, so the xz and yz parameters are guarded at every lag.
	if len(guards) != 10 {
		Te.Errorf("expected 10 guard events, got %d: %v", len(guards), guards)
	}
}

//TestWorkedExample follows one particle through (0,0,0), (1,0,0) and (1,1,0).
func TestWorkedExample(Te *testing.T) {
	var frames []*v3.Matrix
	for _, p := range [][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}} {
		m, _ := v3.NewMatrix(p)
		frames = append(frames, m)
	}
	T, _ := segState(Te, frames, nil).Finalize(XZ, 1, nil)
	cases := []struct {
		name       string
		lag        int
		samples    int64
		msd        float64
		alpha2     float64
		alphaxy    float64
		anisotropy float64
	}{
		//displacements (1,0,0) and (0,1,0): ⟨Δx²Δy²⟩ = 0, so α_xy = -1. The other pairs have no z motion.
		{"lag 1", 1, 2, 1, -0.4, -1, -1},
		{"lag 2", 2, 1, 2, -0.4, 0, 0},
	}
	if len(T.Rows) != len(cases) {
		Te.Fatalf("%d rows, expected %d", len(T.Rows), len(cases))
	}
	for i, c := range cases {
		r := T.Rows[i]
		if r.Lag != c.lag || r.Samples != c.samples {
			Te.Errorf("%s: lag %d with %d samples", c.name, r.Lag, r.Samples)
		}
		if !closeTo(r.MSD, c.msd, 1e-12) || !closeTo(r.Alpha2, c.alpha2, 1e-12) {
			Te.Errorf("%s: msd %g alpha2 %g, expected %g %g", c.name, r.MSD, r.Alpha2, c.msd, c.alpha2)
		}
		if !closeTo(r.Pair[XY], c.alphaxy, 1e-12) || r.Pair[XZ] != 0 || r.Pair[YZ] != 0 {
			Te.Errorf("%s: pair parameters %v", c.name, r.Pair)
		}
		//the guarded xz and yz pairs are not averaged in.
		if !closeTo(r.Anisotropy, c.anisotropy, 1e-12) {
			Te.Errorf("%s: anisotropy %g, expected %g", c.name, r.Anisotropy, c.anisotropy)
		}
	}
}

func TestReset(Te *testing.T) {
	segs := brownian(2, 8, 3, 4)
	A := NewAccumulator(3, nil)
	for _, f := range segs[0] {
		A.Add(f)
	}
	A.Reset()
	if A.Frames() != 0 {
		Te.Fatalf("%d frames after Reset", A.Frames())
	}
	for _, f := range segs[1] {
		A.Add(f)
	}
	got, err := json.Marshal(A.State())
	if err != nil {
		Te.Fatal(err)
	}
	want, _ := json.Marshal(segState(Te, segs[1], nil))
	if string(got) != string(want) {
		Te.Errorf("a reused accumulator gives a different state:\n%s\n%s", got, want)
	}
}

func TestStationary(Te *testing.T) {
	var frames []*v3.Matrix
	for t := 0; t < 4; t++ {
		m, _ := v3.NewMatrix([]float64{1, 2, 3, 4, 5, 6})
		frames = append(frames, m)
	}
	T, guards := segState(Te, frames, nil).Finalize(XZ, 1, nil)
	for _, r := range T.Rows {
		if r.MSD != 0 || r.Alpha2 != 0 || r.Pair != [3]float64{} {
			Te.Errorf("lag %d: no motion should give zeros, got %+v", r.Lag, r)
		}
	}
	if len(guards) != 3*4 {
		Te.Errorf("expected 12 guard events, got %d", len(guards))
	}
}

func TestNonFinite(Te *testing.T) {
	a, _ := v3.NewMatrix([]float64{0, 0, 0})
	b, _ := v3.NewMatrix([]float64{math.NaN(), 1, 1})
	T, guards := segState(Te, []*v3.Matrix{a, b}, nil).Finalize(XZ, 1, nil)
	r := T.Rows[0]
	if r.MSD != 0 || r.Alpha2 != 0 || r.Pair[XZ] != 0 {
		Te.Errorf("non-finite values should be clamped to 0, got %+v", r)
	}
	if len(guards) == 0 {
		Te.Error("non-finite values should be reported")
	}
}

func TestStrideAndOrigins(Te *testing.T) {
	segs := brownian(1, 10, 3, 7)
	o := DefaultOptions()
	o.Stride(3)
	S := segState(Te, segs[0], o)
	//lags 1 to 3: origins 0, 3, 6; lag 4: 0, 3; lags 7 to 9: 0 only.
	want := map[int]int64{1: 9, 2: 9, 3: 9, 4: 6, 7: 3, 9: 3}
	for lag, n := range want {
		if S.Lags[lag-1].N != n {
			Te.Errorf("stride 3, lag %d: %d samples, expected %d", lag, S.Lags[lag-1].N, n)
		}
	}
	o = DefaultOptions()
	o.Origins(FirstFrame)
	o.MaxLag(4)
	S = segState(Te, segs[0], o)
	if S.MaxLag() != 4 {
		Te.Errorf("MaxLag 4 gave %d lags", S.MaxLag())
	}
	for i := range S.Lags {
		if S.Lags[i].N != 3 {
			Te.Errorf("first-frame origins, lag %d: %d samples", i+1, S.Lags[i].N)
		}
	}
	if err := S.Merge(NewState(nil)); err == nil {
		Te.Error("merging states with different origin modes should fail")
	}
}

//TestMerge checks that the result does not depend on how the segments are grouped or in which order they are merged.
func TestMerge(Te *testing.T) {
	segs := brownian(6, 30, 4, 11)
	states := make([]*State, len(segs))
	for i, s := range segs {
		states[i] = segState(Te, s[:10+3*i], nil)
	}
	ref, err := Merge(states...)
	if err != nil {
		Te.Fatal(err)
	}
	rev, _ := Merge(states[5], states[4], states[3], states[2], states[1], states[0])
	left, _ := Merge(states[0], states[1], states[2])
	right, _ := Merge(states[3], states[4], states[5])
	grouped, _ := Merge(right, left)
	swapped, _ := Merge(states[1], states[0])
	pair, _ := Merge(states[0], states[1])
	for i := range ref.Lags {
		for _, o := range []*State{rev, grouped} {
			a, b := ref.Lags[i], o.Lags[i]
			if a.N != b.N || !closeTo(a.R2, b.R2, 1e-12) || !closeTo(a.R4, b.R4, 1e-12) || !closeTo(a.C[XZ], b.C[XZ], 1e-12) {
				Te.Fatalf("lag %d differs: %+v vs %+v", i+1, a, b)
			}
		}
	}
	for i := range pair.Lags {
		if pair.Lags[i] != swapped.Lags[i] {
			Te.Fatalf("merging two states must be exactly commutative, lag %d differs", i+1)
		}
	}
	if ref.Segments != 6 || ref.MaxLag() != 24 {
		Te.Errorf("merged state has %d segments and %d lags", ref.Segments, ref.MaxLag())
	}
	//a state survives serialization, so it can be checkpointed.
	b, err := json.Marshal(states[2])
	if err != nil {
		Te.Fatal(err)
	}
	var back State
	if err := json.Unmarshal(b, &back); err != nil {
		Te.Fatal(err)
	}
	if back.Origins != states[2].Origins || len(back.Lags) != len(states[2].Lags) || back.Lags[3] != states[2].Lags[3] {
		Te.Error("state changed after a JSON round trip")
	}
	empty, _ := Merge()
	if empty != nil {
		Te.Error("merging nothing should give nil")
	}
}

//TestGaussian checks that free diffusion gives MSD = 3Δt and vanishing non-Gaussian parameters.
func TestGaussian(Te *testing.T) {
	segs := brownian(4, 11, 1500, 3)
	var states []*State
	for _, s := range segs {
		states = append(states, segState(Te, s, nil))
	}
	S, _ := Merge(states...)
	T, guards := S.Finalize(XZ, 1, nil)
	if len(guards) != 0 {
		Te.Errorf("no guards expected, got %v", guards)
	}
	for _, r := range T.Rows {
		d := float64(r.Lag)
		if !closeTo(r.MSD, 3*d, 0.05) {
			Te.Errorf("lag %d: MSD %g, expected about %g", r.Lag, r.MSD, 3*d)
		}
		if math.Abs(r.Alpha2) > 0.1 || math.Abs(T.Alpha(r.Lag-1)) > 0.15 || math.Abs(r.Anisotropy) > 0.15 {
			Te.Errorf("lag %d: non-Gaussian parameters too large: %+v", r.Lag, r)
		}
	}
	sum := T.Summarize()
	if sum.Lags != 10 || sum.MaxMSD < sum.MeanMSD || sum.Alpha2Range[0] > sum.Alpha2Range[1] {
		Te.Errorf("inconsistent summary %+v", sum)
	}
}
