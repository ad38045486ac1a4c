/*
 * segment.go, part of gomsd.
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
	"context"
	"fmt"
	"strings"
	"time"

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/dipole"
	"github.com/rmera/gomsd/dispstat"
	"github.com/rmera/gomsd/pbc"
	"github.com/rmera/gomsd/store"
	"github.com/rmera/gomsd/traj/xyzt"
	v3 "github.com/rmera/gomsd/v3"
)

//result is what a worker hands back to the coordinator for one task.
type result struct {
	task     Task
	status   string
	stats    *dispstat.State
	end      *pbc.State
	dipole   *dipole.Summary
	frames   int
	attempts int
	broken   bool
	cached   bool
	failure  *Failure
}

type frameMsg struct {
	coords *v3.Matrix
	err    error
}

//stream reads frames from R into the buffers it takes from free, and sends them to full.
//It returns after the first error (end of file included) or when stop is closed.
func stream(R msd.Traj, free <-chan *v3.Matrix, full chan<- frameMsg, stop <-chan struct{}) {
	defer close(full)
	for {
		var m *v3.Matrix
		select {
		case m = <-free:
		case <-stop:
			return
		}
		err := R.Next(m)
		select {
		case full <- frameMsg{coords: m, err: err}:
		case <-stop:
			return
		}
		if err != nil {
			return
		}
	}
}

//writers holds the optional outputs of a segment.
type writers struct {
	unwrapped *xyzt.Writer
	com       *xyzt.Writer
	dipole    *dipole.Writer
}

func (C *Coordinator) openWriters(t Task) (*writers, error) {
	w := new(writers)
	var err error
	if t.Unwrapped != "" {
		if w.unwrapped, err = xyzt.NewWriter(t.Unwrapped, C.cfg.Atoms, C.writeOpts); err != nil {
			return w, err
		}
		if err = w.unwrapped.Comment(fmt.Sprintf("segment %d unwrapped, from %s", t.Segment, t.Input)); err != nil {
			return w, err
		}
	}
	if t.COM != "" {
		if w.com, err = xyzt.NewWriter(t.COM, C.reducer.Molecules(), C.writeOpts); err != nil {
			return w, err
		}
		if err = w.com.Comment(fmt.Sprintf("segment %d centers of mass, %d molecules", t.Segment, C.reducer.Molecules())); err != nil {
			return w, err
		}
	}
	if t.Dipole != "" && C.dipoles != nil {
		if w.dipole, err = dipole.NewWriter(t.Dipole, C.dipoles); err != nil {
			return w, err
		}
	}
	return w, nil
}

//close closes every open writer and returns the first error. It can be called more than once.
func (w *writers) close() error {
	var ret error
	keep := func(err error) {
		if err != nil && ret == nil {
			ret = err
		}
	}
	if w.unwrapped != nil {
		keep(w.unwrapped.Close())
		w.unwrapped = nil
	}
	if w.com != nil {
		keep(w.com.Close())
		w.com = nil
	}
	if w.dipole != nil {
		keep(w.dipole.Close())
		w.dipole = nil
	}
	return ret
}

//box returns the box source for task t.
func (C *Coordinator) box(t Task) (pbc.BoxSource, error) {
	switch strings.ToLower(C.cfg.Box.Kind) {
	case "xsc":
		return pbc.ReadXSC(t.Box)
	case "xst":
		return pbc.ReadXST(t.Box)
	}
	l := C.cfg.Box.Lengths
	return pbc.ConstBox{l[0], l[1], l[2]}, nil
}

//segment runs all the stages for task t, continuing the unwrapping from carry, if not nil.
//Errors are returned wrapped with the stage where they happened.
func (C *Coordinator) segment(ctx context.Context, t Task, carry *pbc.State) (*result, error) {
	start := time.Now()
	if C.extractor != nil {
		if err := C.extractor.Run(ctx, t.Segment, t.Input); err != nil {
			return nil, at(StageExtract, err)
		}
		C.metrics.Since(string(StageExtract), start)
		start = time.Now()
	}
	R, err := xyzt.New(t.Input, C.cfg.Atoms, C.readOpts)
	if err != nil {
		return nil, at(StageRead, err)
	}
	defer R.Close()
	var U *pbc.Unwrapper
	if !C.cfg.Unwrap.Disabled {
		box, err := C.box(t)
		if err != nil {
			return nil, at(StageUnwrap, err)
		}
		if U, err = pbc.NewUnwrapper(C.cfg.Atoms, box, carry, C.unwrapOpts); err != nil {
			if carry != nil {
				return nil, at(StageCarry, err)
			}
			return nil, at(StageUnwrap, err)
		}
	}
	w, err := C.openWriters(t)
	defer w.close()
	if err != nil {
		return nil, at(StageWrite, err)
	}
	nmol := C.reducer.Molecules()
	var acc *dispstat.Accumulator
	if !C.cfg.Stats.Disabled {
		acc = dispstat.NewAccumulator(nmol, C.statOpts)
	}
	var dstats dipole.Stats
	var dframe *dipole.Frame
	centers := v3.Zeros(nmol)

	//Only chunk_size frames of the segment are in memory at any time.
	n := C.cfg.ChunkSize
	free := make(chan *v3.Matrix, n)
	for i := 0; i < n; i++ {
		free <- v3.Zeros(C.cfg.Atoms)
	}
	full := make(chan frameMsg, n)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		stream(R, free, full, stop)
		close(done)
	}()
	defer func() {
		close(stop)
		<-done
	}()

	sel := C.cfg.Frames
	//In carry mode the frames after the selection are still unwrapped, as the next
	//segment starts from the state at the end of this one.
	tail := U != nil && C.cfg.Unwrap.Carry
	frame, used := 0, 0
	for msg := range full {
		if msg.err != nil {
			if msd.IsLastFrame(msg.err) {
				break
			}
			return nil, at(StageRead, fmt.Errorf("frame %d: %w", frame, msg.err))
		}
		if sel.Past(frame) && !tail {
			break
		}
		coords := msg.coords
		if U != nil {
			if err := U.Unwrap(coords, coords); err != nil {
				return nil, at(StageUnwrap, err)
			}
		}
		if !sel.Selected(frame) {
			frame++
			free <- coords
			continue
		}
		if w.unwrapped != nil {
			if err := w.unwrapped.WNext(coords); err != nil {
				return nil, at(StageWrite, err)
			}
		}
		if err := C.reducer.Reduce(coords, centers); err != nil {
			return nil, at(StageCOM, err)
		}
		if w.com != nil {
			if err := w.com.WNext(centers); err != nil {
				return nil, at(StageWrite, err)
			}
		}
		if acc != nil {
			if err := acc.Add(centers); err != nil {
				return nil, at(StageStats, err)
			}
		}
		if C.dipoles != nil && used%C.cfg.Dipole.FrameStride == 0 {
			if dframe, err = C.dipoles.Frame(coords, dframe); err != nil {
				return nil, at(StageDipole, err)
			}
			dstats.Add(dframe, C.dipoles.Options().Subset())
			if w.dipole != nil {
				if err := w.dipole.Write(frame, dframe); err != nil {
					return nil, at(StageWrite, err)
				}
			}
		}
		frame++
		used++
		free <- coords
	}
	if err := w.close(); err != nil {
		return nil, at(StageWrite, err)
	}
	C.metrics.Since(string(StageRead), start)
	C.metrics.Frames(used)
	res := &result{task: t, status: store.StatusDone, frames: used}
	if U != nil {
		res.end = U.State()
	}
	if C.dipoles != nil {
		s := dstats.Summary()
		res.dipole = &s
	}
	if used < C.cfg.Stats.MinFrames {
		res.status = store.StatusSkipped
		return res, nil
	}
	if acc != nil {
		start = time.Now()
		res.stats = acc.State()
		C.metrics.Since(string(StageStats), start)
	}
	return res, nil
}
