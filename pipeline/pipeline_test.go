/*
 * pipeline_test.go, part of gomsd.
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

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/com"
	"github.com/rmera/gomsd/config"
	"github.com/rmera/gomsd/dispstat"
	"github.com/rmera/gomsd/metrics"
	"github.com/rmera/gomsd/pbc"
	"github.com/rmera/gomsd/store"
	"github.com/rmera/gomsd/traj/xyzt"
	v3 "github.com/rmera/gomsd/v3"
)

var quiet = WithLogger(log.New(io.Discard, "", 0))

//walk returns nframes frames of a random walk of natoms particles.
func walk(rng *rand.Rand, nframes, natoms int, step float64) [][][3]float64 {
	ret := make([][][3]float64, nframes)
	pos := make([][3]float64, natoms)
	for i := range pos {
		pos[i] = [3]float64{10 + rng.Float64(), 10 + rng.Float64(), 10 + rng.Float64()}
	}
	for f := range ret {
		ret[f] = make([][3]float64, natoms)
		for i := range pos {
			for k := 0; k < 3; k++ {
				pos[i][k] += step * rng.NormFloat64()
			}
			ret[f][i] = pos[i]
		}
	}
	return ret
}

func writeFrames(name string, frames [][][3]float64) error {
	W, err := xyzt.NewWriter(name, len(frames[0]), nil)
	if err != nil {
		return err
	}
	m := v3.Zeros(len(frames[0]))
	for _, f := range frames {
		for i, v := range f {
			m.SetVec(i, v)
		}
		if err := W.WNext(m); err != nil {
			W.Close()
			return err
		}
	}
	return W.Close()
}

func writeSegment(Te *testing.T, name string, frames [][][3]float64) {
	Te.Helper()
	if err := writeFrames(name, frames); err != nil {
		Te.Fatal(err)
	}
}

func testConfig(dir string, segments, atoms, k int) *config.Config {
	c := config.Default()
	c.BaseDir = dir
	c.Input = "seg{i}.xyz"
	c.Segments = segments
	c.Atoms = atoms
	c.AtomsPerMolecule = k
	c.Box.Lengths = []float64{1000, 1000, 1000}
	c.MaxWorkers = 4
	c.ChunkSize = 3
	return c
}

//direct obtains the statistics of the segment files without the coordinator.
func direct(Te *testing.T, c *config.Config, files []string) *dispstat.Table {
	Te.Helper()
	g, err := c.MakeGrouping()
	if err != nil {
		Te.Fatal(err)
	}
	R, err := com.NewReducer(g, c.MassTable())
	if err != nil {
		Te.Fatal(err)
	}
	o := dispstat.DefaultOptions()
	o.Stride(c.Stride)
	var states []*dispstat.State
	for _, f := range files {
		frames, err := xyzt.ReadAll(f, c.Atoms, nil)
		if err != nil {
			Te.Fatal(err)
		}
		acc := dispstat.NewAccumulator(g.Molecules(), o)
		centers := v3.Zeros(g.Molecules())
		for _, fr := range frames {
			if err := R.Reduce(fr, centers); err != nil {
				Te.Fatal(err)
			}
			if err := acc.Add(centers); err != nil {
				Te.Fatal(err)
			}
		}
		states = append(states, acc.State())
	}
	m, err := dispstat.Merge(states...)
	if err != nil {
		Te.Fatal(err)
	}
	T, _ := m.Finalize(dispstat.XZ, c.Stats.Dt, o)
	return T
}

func sameTable(Te *testing.T, got, want *dispstat.Table) {
	Te.Helper()
	if got == nil {
		Te.Fatal("no table")
	}
	if len(got.Rows) != len(want.Rows) {
		Te.Fatalf("%d rows, expected %d", len(got.Rows), len(want.Rows))
	}
	for i, r := range got.Rows {
		w := want.Rows[i]
		if r.Lag != w.Lag || r.Samples != w.Samples {
			Te.Errorf("row %d: lag %d with %d samples, expected lag %d with %d", i, r.Lag, r.Samples, w.Lag, w.Samples)
		}
		if math.Abs(r.MSD-w.MSD) > 1e-9*math.Abs(w.MSD) || math.Abs(r.Alpha2-w.Alpha2) > 1e-6 {
			Te.Errorf("lag %d: msd %g alpha2 %g, expected %g %g", r.Lag, r.MSD, r.Alpha2, w.MSD, w.Alpha2)
		}
	}
}

//TestMergeMatchesDirect checks that the parallel, chunked processing gives the same
//statistics as accumulating the segments one by one.
func TestMergeMatchesDirect(Te *testing.T) {
	dir := Te.TempDir()
	rng := rand.New(rand.NewSource(7))
	var files []string
	for i := 0; i < 4; i++ {
		name := filepath.Join(dir, fmt.Sprintf("seg%d.xyz", i))
		writeSegment(Te, name, walk(rng, 12+i, 8, 0.1))
		files = append(files, name)
	}
	c := testConfig(dir, 4, 8, 2)
	m := metrics.New()
	C, err := New(c, quiet, WithMetrics(m))
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if len(rep.Succeeded) != 4 || len(rep.Failures) != 0 || rep.Partial() {
		Te.Fatalf("unexpected outcome: %+v", rep)
	}
	if rep.Frames != 12+13+14+15 {
		Te.Errorf("%d frames counted", rep.Frames)
	}
	sameTable(Te, rep.Table, direct(Te, c, files))
	if rep.Table.Segments != 4 || rep.Summary.Lags != len(rep.Table.Rows) {
		Te.Errorf("wrong metadata: %d segments, summary with %d lags", rep.Table.Segments, rep.Summary.Lags)
	}
	//the order in which the workers finish must not matter.
	c.MaxWorkers = 1
	C, err = New(c, quiet)
	if err != nil {
		Te.Fatal(err)
	}
	rep1, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	for i := range rep1.Table.Rows {
		if rep1.Table.Rows[i] != rep.Table.Rows[i] {
			Te.Errorf("row %d differs between 1 and %d workers: %+v %+v", i, rep.Workers, rep1.Table.Rows[i], rep.Table.Rows[i])
		}
	}
}

//TestFailureIsolation checks that a truncated and a missing segment are reported without
//affecting the others.
func TestFailureIsolation(Te *testing.T) {
	dir := Te.TempDir()
	rng := rand.New(rand.NewSource(3))
	var good []string
	for i := 0; i < 4; i++ {
		name := filepath.Join(dir, fmt.Sprintf("seg%d.xyz", i))
		if i == 3 {
			continue //missing
		}
		writeSegment(Te, name, walk(rng, 10, 4, 0.2))
		if i == 1 {
			b, err := os.ReadFile(name)
			if err != nil {
				Te.Fatal(err)
			}
			lines := strings.SplitAfter(string(b), "\n")
			//the last frame loses 2 of its 4 records (the last element is empty)
			if err := os.WriteFile(name, []byte(strings.Join(lines[:len(lines)-3], "")), 0o644); err != nil {
				Te.Fatal(err)
			}
			continue
		}
		good = append(good, name)
	}
	c := testConfig(dir, 4, 4, 1)
	C, err := New(c, quiet)
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(rep.Succeeded) != "[0 2]" {
		Te.Errorf("succeeded: %v", rep.Succeeded)
	}
	if len(rep.Failures) != 2 {
		Te.Fatalf("failures: %v", rep.Failures)
	}
	for _, f := range rep.Failures {
		if f.Stage != StageRead || f.Attempts != 1 || f.Cause == "" {
			Te.Errorf("unexpected failure record %+v", f)
		}
		if !errors.Is(f, msd.ErrInput) || f.Kind != "input" {
			Te.Errorf("failure of segment %d is not an input error: %v (kind %q)", f.Segment, f, f.Kind)
		}
	}
	if rep.Failures[0].Segment != 1 || rep.Failures[1].Segment != 3 {
		Te.Errorf("failures not in segment order: %v", rep.Failures)
	}
	sameTable(Te, rep.Table, direct(Te, c, good))
	if rep.Coverage() != 0.5 {
		Te.Errorf("coverage %g", rep.Coverage())
	}
}

//flaky is an extractor that times out a given number of times before writing the segment.
//A negative number means it never succeeds.
type flaky struct {
	mu     sync.Mutex
	calls  map[int]int
	fails  map[int]int
	frames [][][3]float64
}

func (F *flaky) Run(ctx context.Context, i int, out string) error {
	F.mu.Lock()
	F.calls[i]++
	n := F.calls[i]
	F.mu.Unlock()
	if f := F.fails[i]; f < 0 || n <= f {
		return msd.Errorf(msd.KindTransient, "flaky.Run", "segment %d timed out", i)
	}
	return writeFrames(out, F.frames)
}

func TestRetry(Te *testing.T) {
	dir := Te.TempDir()
	F := &flaky{calls: map[int]int{}, fails: map[int]int{0: 0, 1: 1, 2: -1}, frames: walk(rand.New(rand.NewSource(1)), 6, 2, 0.1)}
	m := metrics.New()
	C, err := New(testConfig(dir, 3, 2, 1), quiet, WithExtractor(F), WithMetrics(m))
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(rep.Succeeded) != "[0 1]" {
		Te.Errorf("succeeded: %v", rep.Succeeded)
	}
	if F.calls[0] != 1 || F.calls[1] != 2 || F.calls[2] != 2 {
		Te.Errorf("wrong number of calls: %v", F.calls)
	}
	if len(rep.Failures) != 1 {
		Te.Fatalf("failures: %v", rep.Failures)
	}
	f := rep.Failures[0]
	if f.Segment != 2 || f.Stage != StageExtract || f.Attempts != 2 || !errors.Is(f, msd.ErrTransient) {
		Te.Errorf("unexpected failure %+v", f)
	}
	if f.Kind != "transient" || !strings.HasPrefix(f.Trace, "flaky.Run") {
		Te.Errorf("failure kind %q trace %q", f.Kind, f.Trace)
	}
}

func TestNoChunks(Te *testing.T) {
	dir := Te.TempDir()
	C, err := New(testConfig(dir, 2, 2, 1), quiet)
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if !errors.Is(err, msd.ErrNoChunks) {
		Te.Fatalf("expected ErrNoChunks, got %v", err)
	}
	if rep == nil || len(rep.Failures) != 2 {
		Te.Errorf("the report must list the failures: %+v", rep)
	}
}

func TestConfigErrorBeforeDispatch(Te *testing.T) {
	c := testConfig(Te.TempDir(), 2, 5, 2) //5 atoms can't make molecules of 2
	if _, err := New(c, quiet); !errors.Is(err, msd.ErrConfig) {
		Te.Errorf("expected a configuration error, got %v", err)
	}
}

func TestCancel(Te *testing.T) {
	dir := Te.TempDir()
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 3; i++ {
		writeSegment(Te, filepath.Join(dir, fmt.Sprintf("seg%d.xyz", i)), walk(rng, 5, 2, 0.1))
	}
	C, err := New(testConfig(dir, 3, 2, 1), quiet)
	if err != nil {
		Te.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := C.Run(ctx)
	if !errors.Is(err, msd.ErrNoChunks) {
		Te.Errorf("expected ErrNoChunks, got %v", err)
	}
	if len(rep.Cancelled) != 3 {
		Te.Errorf("cancelled: %v", rep.Cancelled)
	}
	for _, f := range rep.Failures {
		if f.Stage != StageCancelled || f.Attempts != 0 {
			Te.Errorf("unexpected failure %+v", f)
		}
	}
}

func TestMinFrames(Te *testing.T) {
	dir := Te.TempDir()
	rng := rand.New(rand.NewSource(9))
	writeSegment(Te, filepath.Join(dir, "seg0.xyz"), walk(rng, 10, 2, 0.1))
	writeSegment(Te, filepath.Join(dir, "seg1.xyz"), walk(rng, 3, 2, 0.1))
	c := testConfig(dir, 2, 2, 1)
	c.Stats.MinFrames = 5
	C, err := New(c, quiet)
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(rep.Skipped) != "[1]" || fmt.Sprint(rep.Succeeded) != "[0]" || len(rep.Failures) != 0 {
		Te.Errorf("skipped %v succeeded %v failures %v", rep.Skipped, rep.Succeeded, rep.Failures)
	}
	if rep.Table.Segments != 1 || len(rep.Table.Rows) != 9 {
		Te.Errorf("the short segment was included: %d segments, %d lags", rep.Table.Segments, len(rep.Table.Rows))
	}
}

//glide returns a particle moving along x by 0.3 per frame, wrapped in a box of length 1.
func glide(from, to int) (wrapped [][][3]float64, real []float64) {
	for f := from; f < to; f++ {
		x := 0.3 * float64(f)
		wrapped = append(wrapped, [][3]float64{{math.Mod(x, 1), 0.5, 0.5}})
		real = append(real, x)
	}
	return wrapped, real
}

func TestCarry(Te *testing.T) {
	for _, carry := range []bool{true, false} {
		dir := Te.TempDir()
		w0, r0 := glide(0, 10)
		w1, r1 := glide(10, 20)
		writeSegment(Te, filepath.Join(dir, "seg0.xyz"), w0)
		writeSegment(Te, filepath.Join(dir, "seg1.xyz"), w1)
		c := testConfig(dir, 2, 1, 1)
		c.Box.Lengths = []float64{1, 1, 1}
		c.Unwrap.Carry = carry
		c.Unwrap.Output = "unwrapped/seg{i}.xyz"
		C, err := New(c, quiet)
		if err != nil {
			Te.Fatal(err)
		}
		rep, err := C.Run(context.Background())
		if err != nil {
			Te.Fatal(err)
		}
		if len(rep.ContinuityBreaks) != 0 {
			Te.Errorf("carry %v: unexpected breaks %v", carry, rep.ContinuityBreaks)
		}
		u0, err := xyzt.ReadAll(filepath.Join(dir, "unwrapped/seg0.xyz"), 1, nil)
		if err != nil {
			Te.Fatal(err)
		}
		u1, err := xyzt.ReadAll(filepath.Join(dir, "unwrapped/seg1.xyz"), 1, nil)
		if err != nil {
			Te.Fatal(err)
		}
		for f, x := range r0 {
			if math.Abs(u0[f].At(0, 0)-x) > 1e-9 {
				Te.Errorf("carry %v: segment 0 frame %d at %g, expected %g", carry, f, u0[f].At(0, 0), x)
			}
		}
		//without carry, the second segment starts again from its wrapped position.
		offset := r1[0] - w1[0][0][0]
		if carry {
			offset = 0
		}
		for f, x := range r1 {
			if math.Abs(u1[f].At(0, 0)+offset-x) > 1e-9 {
				Te.Errorf("carry %v: segment 1 frame %d at %g, expected %g", carry, f, u1[f].At(0, 0), x-offset)
			}
		}
	}
}

func TestContinuityBreak(Te *testing.T) {
	dir := Te.TempDir()
	w, _ := glide(0, 10)
	writeSegment(Te, filepath.Join(dir, "seg1.xyz"), w)
	writeSegment(Te, filepath.Join(dir, "seg2.xyz"), w)
	c := testConfig(dir, 3, 1, 1)
	c.Box.Lengths = []float64{1, 1, 1}
	c.Unwrap.Carry = true
	m := metrics.New()
	C, err := New(c, quiet, WithMetrics(m))
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(rep.ContinuityBreaks) != "[1]" || fmt.Sprint(rep.Succeeded) != "[1 2]" {
		Te.Errorf("breaks %v succeeded %v", rep.ContinuityBreaks, rep.Succeeded)
	}
}

//TestCheckpoint runs twice with a checkpoint database. The second run must only
//process the segment that failed in the first one, and give the same result as a run
//without checkpoints.
func TestCheckpoint(Te *testing.T) {
	dir := Te.TempDir()
	rng := rand.New(rand.NewSource(11))
	segs := [][][][3]float64{walk(rng, 8, 4, 0.1), walk(rng, 9, 4, 0.1), walk(rng, 10, 4, 0.1)}
	writeSegment(Te, filepath.Join(dir, "seg0.xyz"), segs[0])
	writeSegment(Te, filepath.Join(dir, "seg2.xyz"), segs[2])
	db, err := store.Open(filepath.Join(dir, "cp.db"))
	if err != nil {
		Te.Fatal(err)
	}
	defer db.Close()
	c := testConfig(dir, 3, 4, 2)
	C, err := New(c, quiet, WithStore(db))
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if len(rep.Failures) != 1 || len(rep.Cached) != 0 {
		Te.Fatalf("first run: failures %v cached %v", rep.Failures, rep.Cached)
	}
	failed, err := db.Failed(c.Fingerprint())
	if err != nil || fmt.Sprint(failed) != "[1]" {
		Te.Errorf("failed segments in the database: %v %v", failed, err)
	}
	writeSegment(Te, filepath.Join(dir, "seg1.xyz"), segs[1])
	rep, err = C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(rep.Cached) != "[0 2]" || fmt.Sprint(rep.Succeeded) != "[0 1 2]" {
		Te.Errorf("second run: cached %v succeeded %v", rep.Cached, rep.Succeeded)
	}
	var files []string
	for i := range segs {
		files = append(files, filepath.Join(dir, fmt.Sprintf("seg%d.xyz", i)))
	}
	sameTable(Te, rep.Table, direct(Te, c, files))
}

func TestDipoles(Te *testing.T) {
	dir := Te.TempDir()
	writeSegment(Te, filepath.Join(dir, "seg0.xyz"), walk(rand.New(rand.NewSource(2)), 6, 6, 0.05))
	c := testConfig(dir, 1, 6, 3)
	c.Charges = []float64{-0.8, 0.4, 0.4}
	c.Dipole.Enabled = true
	c.Dipole.Output = "dip{i}.dat"
	c.Dipole.FrameStride = 2
	C, err := New(c, quiet)
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if len(rep.Dipoles) != 1 || rep.Dipoles[0].Summary.Frames != 3 {
		Te.Fatalf("dipole summaries: %+v", rep.Dipoles)
	}
	b, err := os.ReadFile(filepath.Join(dir, "dip0.dat"))
	if err != nil {
		Te.Fatal(err)
	}
	if !strings.HasPrefix(string(b), "# units: Debye") {
		Te.Errorf("no units in the dipole file: %q", string(b[:20]))
	}
	//header, column description and one line per written frame
	if n := strings.Count(string(b), "\n"); n != 5 {
		Te.Errorf("%d lines in the dipole file", n)
	}
}

func TestWorkers(Te *testing.T) {
	c := testConfig(Te.TempDir(), 8, 100000, 1)
	c.MemoryBudgetMB = 1
	C, err := New(c, quiet)
	if err != nil {
		Te.Fatal(err)
	}
	if w := C.Workers(8); w != 1 {
		Te.Errorf("%d workers fit in 1 MB", w)
	}
	c.MemoryBudgetMB = 0
	c.MaxWorkers = 2
	if w := C.Workers(1); w != 1 {
		Te.Errorf("%d workers for one task", w)
	}
	if w := C.Workers(8); w > 2 {
		Te.Errorf("%d workers with max_workers 2", w)
	}
}

//TestFrameSelection uses frames 2, 5 and 8 of each segment. The particle crosses the box
//between selected frames, so they must still be unwrapped from every frame read.
func TestFrameSelection(Te *testing.T) {
	for _, carry := range []bool{false, true} {
		dir := Te.TempDir()
		w0, r0 := glide(0, 12)
		w1, r1 := glide(12, 24)
		writeSegment(Te, filepath.Join(dir, "seg0.xyz"), w0)
		writeSegment(Te, filepath.Join(dir, "seg1.xyz"), w1)
		c := testConfig(dir, 2, 1, 1)
		c.Box.Lengths = []float64{1, 1, 1}
		c.Frames = config.FramesConfig{Start: 2, Stop: 10, Step: 3}
		c.Unwrap.Carry = carry
		c.Unwrap.Output = "unwrapped/seg{i}.xyz"
		C, err := New(c, quiet)
		if err != nil {
			Te.Fatal(err)
		}
		rep, err := C.Run(context.Background())
		if err != nil {
			Te.Fatal(err)
		}
		if rep.Frames != 6 || len(rep.Succeeded) != 2 {
			Te.Fatalf("carry %v: %d frames used, succeeded %v", carry, rep.Frames, rep.Succeeded)
		}
		u0, err := xyzt.ReadAll(filepath.Join(dir, "unwrapped/seg0.xyz"), 1, nil)
		if err != nil {
			Te.Fatal(err)
		}
		u1, err := xyzt.ReadAll(filepath.Join(dir, "unwrapped/seg1.xyz"), 1, nil)
		if err != nil {
			Te.Fatal(err)
		}
		if len(u0) != 3 || len(u1) != 3 {
			Te.Fatalf("carry %v: %d and %d frames written", carry, len(u0), len(u1))
		}
		offset := r1[0] - w1[0][0][0]
		if carry {
			offset = 0
		}
		for k, f := range []int{2, 5, 8} {
			if math.Abs(u0[k].At(0, 0)-r0[f]) > 1e-9 {
				Te.Errorf("carry %v: segment 0 frame %d at %g, expected %g", carry, f, u0[k].At(0, 0), r0[f])
			}
			if math.Abs(u1[k].At(0, 0)+offset-r1[f]) > 1e-9 {
				Te.Errorf("carry %v: segment 1 frame %d at %g, expected %g", carry, f, u1[k].At(0, 0), r1[f]-offset)
			}
		}
		//the selected positions are 0.9 apart, so the MSD at lag 1 is 0.81.
		if r := rep.Table.Rows[0]; r.Lag != 1 || math.Abs(r.MSD-0.81) > 1e-9 {
			Te.Errorf("carry %v: first row %+v", carry, r)
		}
	}
}

func TestFrameSelectionConfig(Te *testing.T) {
	f := config.FramesConfig{Start: 2, Stop: 10, Step: 3}
	var got []int
	for i := 0; i < 12; i++ {
		if f.Selected(i) {
			got = append(got, i)
		}
	}
	if fmt.Sprint(got) != "[2 5 8]" || f.Past(9) || !f.Past(10) {
		Te.Errorf("selected %v", got)
	}
	c := testConfig(Te.TempDir(), 1, 1, 1)
	c.Frames = config.FramesConfig{Start: 5, Stop: 3, Step: 1}
	if _, err := New(c, quiet); !errors.Is(err, msd.ErrConfig) {
		Te.Errorf("expected a configuration error, got %v", err)
	}
}

//TestCarryMismatch hands a segment a carried state for the wrong number of particles.
func TestCarryMismatch(Te *testing.T) {
	dir := Te.TempDir()
	w, _ := glide(0, 5)
	writeSegment(Te, filepath.Join(dir, "seg0.xyz"), w)
	c := testConfig(dir, 1, 1, 1)
	c.Box.Lengths = []float64{1, 1, 1}
	C, err := New(c, quiet)
	if err != nil {
		Te.Fatal(err)
	}
	_, err = C.segment(context.Background(), Tasks(c)[0], pbc.NewState(2))
	if err == nil || stageOf(err) != StageCarry || !errors.Is(err, msd.ErrInput) {
		Te.Errorf("expected an input error at the carry stage, got %v", err)
	}
}

//TestCheckpointFailure checks that a broken checkpoint database is logged and does not
//change the outcome of the run.
func TestCheckpointFailure(Te *testing.T) {
	dir := Te.TempDir()
	writeSegment(Te, filepath.Join(dir, "seg0.xyz"), walk(rand.New(rand.NewSource(5)), 6, 2, 0.1))
	db, err := store.Open(filepath.Join(dir, "cp.db"))
	if err != nil {
		Te.Fatal(err)
	}
	db.Close()
	var buf bytes.Buffer
	C, err := New(testConfig(dir, 1, 2, 1), WithLogger(log.New(&buf, "", 0)), WithStore(db))
	if err != nil {
		Te.Fatal(err)
	}
	rep, err := C.Run(context.Background())
	if err != nil {
		Te.Fatal(err)
	}
	if fmt.Sprint(rep.Succeeded) != "[0]" {
		Te.Errorf("succeeded %v", rep.Succeeded)
	}
	if !strings.Contains(buf.String(), ": "+string(StageCheckpoint)+": ") {
		Te.Errorf("the store failure was not logged: %q", buf.String())
	}
}
