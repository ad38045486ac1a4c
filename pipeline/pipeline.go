/*
 * pipeline.go, part of gomsd.
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
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/com"
	"github.com/rmera/gomsd/config"
	"github.com/rmera/gomsd/dipole"
	"github.com/rmera/gomsd/dispstat"
	"github.com/rmera/gomsd/extract"
	"github.com/rmera/gomsd/metrics"
	"github.com/rmera/gomsd/pbc"
	"github.com/rmera/gomsd/store"
	"github.com/rmera/gomsd/traj/xyzt"
)

//Coordinator runs all the segments of a configuration on a pool of workers
//and merges their statistics.
type Coordinator struct {
	cfg         *config.Config
	fingerprint string
	logger      *log.Logger
	metrics     *metrics.Metrics
	store       *store.DB
	extractor   Extractor
	progress    func(done, total int)

	reducer    *com.Reducer
	dipoles    *dipole.Calculator
	statOpts   *dispstat.Options
	unwrapOpts *pbc.Options
	readOpts   *xyzt.Options
	writeOpts  *xyzt.Options
	pair       dispstat.AxisPair
}

//Option changes the defaults of a Coordinator.
type Option func(*Coordinator)

//WithLogger sets the logger for heads-up messages. The default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(C *Coordinator) { C.logger = l }
}

//WithMetrics makes the coordinator count what it does in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(C *Coordinator) { C.metrics = m }
}

//WithStore makes the coordinator reuse the segments already finished in db,
//and store the ones it finishes.
func WithStore(db *store.DB) Option {
	return func(C *Coordinator) { C.store = db }
}

//WithExtractor replaces the extraction tool given in the configuration.
//A nil e means the coordinate files already exist.
func WithExtractor(e Extractor) Option {
	return func(C *Coordinator) { C.extractor = e }
}

//WithProgress sets a function called each time a segment is finished. Calls are serialized.
func WithProgress(f func(done, total int)) Option {
	return func(C *Coordinator) { C.progress = f }
}

//New checks cfg and prepares everything that is shared, read-only, by the workers.
//Any problem with the configuration is returned here, before any work starts.
func New(cfg *config.Config, opts ...Option) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, msd.ErrDecorate(err, "pipeline.New")
	}
	C := &Coordinator{cfg: cfg, fingerprint: cfg.Fingerprint(), logger: log.Default()}
	g, err := cfg.MakeGrouping()
	if err != nil {
		return nil, msd.ErrDecorate(err, "pipeline.New")
	}
	if C.reducer, err = com.NewReducer(g, cfg.MassTable()); err != nil {
		return nil, msd.ErrDecorate(err, "pipeline.New")
	}
	if cfg.Dipole.Enabled {
		o := dipole.DefaultOptions()
		o.Recenter(!cfg.Dipole.NoRecenter)
		o.Conversion(cfg.Dipole.Conversion)
		o.Molecules(cfg.Dipole.Molecules)
		o.Collective(cfg.Dipole.Collective)
		if len(cfg.Dipole.Subset) > 0 {
			o.Subset(cfg.Dipole.Subset)
		}
		if C.dipoles, err = dipole.NewCalculator(g, cfg.Charges, cfg.MassTable(), o); err != nil {
			return nil, msd.ErrDecorate(err, "pipeline.New")
		}
	}
	C.statOpts = dispstat.DefaultOptions()
	C.statOpts.Stride(cfg.Stride)
	C.statOpts.MaxLag(cfg.Stats.MaxLag)
	origins, _ := dispstat.ParseOriginMode(cfg.Stats.Origins) //already validated
	C.statOpts.Origins(origins)
	C.pair, _ = dispstat.ParseAxisPair(cfg.AxisPair)

	C.unwrapOpts = pbc.DefaultOptions()
	C.unwrapOpts.Cpus(cfg.Unwrap.Threads)
	layout, _ := xyzt.ParseLayout(cfg.Layout)
	C.readOpts = xyzt.DefaultOptions()
	C.readOpts.Layout(layout)
	C.readOpts.Mmap(cfg.UseMmap)
	C.writeOpts = xyzt.DefaultOptions()
	C.writeOpts.Layout(layout)

	r, err := extract.FromConfig(cfg)
	if err != nil {
		return nil, msd.ErrDecorate(err, "pipeline.New")
	}
	if r != nil {
		C.extractor = r
	}
	for _, o := range opts {
		o(C)
	}
	if C.logger == nil {
		C.logger = log.Default()
	}
	if r != nil {
		r.SetLogger(C.logger)
	}
	return C, nil
}

//TaskMemory estimates the bytes a worker needs for one segment of the configuration c,
//not counting the centers of mass kept for the statistics.
func TaskMemory(c *config.Config) int64 {
	frame := int64(c.Atoms) * 3 * 8
	return int64(c.ChunkSize+1)*frame + 2*frame
}

//Workers returns the size of the worker pool used for ntasks tasks: the smallest of
//max_workers, the number of CPUs, ntasks and what fits in the memory budget, but at least 1.
func (C *Coordinator) Workers(ntasks int) int {
	w := C.cfg.MaxWorkers
	if n := runtime.NumCPU(); n < w {
		w = n
	}
	if ntasks < w {
		w = ntasks
	}
	if b := C.cfg.MemoryBudgetMB; b > 0 {
		if m := int((int64(b) << 20) / TaskMemory(C.cfg)); m < w {
			w = m
		}
	}
	if w < 1 {
		w = 1
	}
	return w
}

//stageOf returns the stage attached to err, or StageRead if there is none.
func stageOf(err error) Stage {
	var se *stageError
	if errors.As(err, &se) {
		return se.stage
	}
	return StageRead
}

//cached returns the result stored for t in a previous run, if there is one.
func (C *Coordinator) cached(t Task) (*result, bool) {
	if C.store == nil {
		return nil, false
	}
	cp, ok, err := C.store.Load(C.fingerprint, t.Segment)
	if err != nil {
		C.logger.Printf("pipeline: can't read checkpoint for %v, processing it again: %v", t, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if C.cfg.Unwrap.Carry && cp.End == nil {
		return nil, false
	}
	return &result{task: t, status: cp.Status, stats: cp.Stats, end: cp.End, dipole: cp.Dipole, frames: cp.Frames, cached: true}, true
}

//checkpoint stores the outcome of a task. Problems with the store are logged, they
//don't change the outcome.
func (C *Coordinator) checkpoint(id uuid.UUID, r *result) {
	if C.store == nil || r.cached {
		return
	}
	var err error
	if r.failure != nil {
		err = C.store.SaveFailure(C.fingerprint, id, r.task.Segment, string(r.failure.Stage), r.failure.Cause, r.failure.Attempts)
	} else {
		err = C.store.Save(C.fingerprint, id, &store.Checkpoint{Segment: r.task.Segment, Status: r.status,
			Frames: r.frames, Stats: r.stats, End: r.end, Dipole: r.dipole})
	}
	if err != nil {
		C.logger.Printf("pipeline: can't store %v: %v", r.task, at(StageCheckpoint, err))
	}
}

//runTask processes t, retrying once after a transient error. In carry mode, in
//gives the end state of the previous segment and out takes the end state of this
//one (nil if it failed). Both are nil otherwise.
func (C *Coordinator) runTask(ctx context.Context, id uuid.UUID, t Task, in <-chan *pbc.State, out chan<- *pbc.State) *result {
	if r, ok := C.cached(t); ok {
		if out != nil {
			out <- r.end
		}
		return r
	}
	var carry *pbc.State
	broken := false
	if in != nil {
		carry = <-in
		if carry == nil {
			broken = true
			C.metrics.ContinuityBreak()
			C.logger.Printf("pipeline: the segment before %v did not finish, its unwrapping starts from scratch", t)
		}
	}
	var res *result
	var err error
	attempts := 0
	for {
		attempts++
		res, err = C.segment(ctx, t, carry)
		if err == nil || attempts >= 2 || !errors.Is(err, msd.ErrTransient) {
			break
		}
		C.metrics.Retry()
		C.logger.Printf("pipeline: %v: %v. Retrying", t, err)
	}
	if err != nil {
		C.logger.Printf("pipeline: %v failed: %v", t, err)
		res = &result{task: t, status: store.StatusFailed, failure: newFailure(t, err, attempts)}
	}
	res.attempts = attempts
	res.broken = broken
	if out != nil {
		out <- res.end
	}
	C.checkpoint(id, res)
	return res
}

//Run processes every segment and returns the merged statistics in a Report.
//Failed segments don't stop the others; they are listed in the report. Cancelling ctx
//stops the dispatch of new segments, but the ones already started are finished.
//The only error after the work starts is msd.ErrNoChunks, when no segment succeeds
//(the report is returned anyway, so the failures can be inspected) or a failure to merge.
func (C *Coordinator) Run(ctx context.Context) (*Report, error) {
	tasks := Tasks(C.cfg)
	id := uuid.New()
	workers := C.Workers(len(tasks))
	rep := &Report{RunID: id.String(), Fingerprint: C.fingerprint, Workers: workers, Segments: len(tasks),
		Stride: C.statOpts.Stride(), Origins: C.statOpts.Origins(), Carry: C.cfg.Unwrap.Carry, Started: time.Now()}
	if C.store != nil {
		if err := C.store.BeginRun(id, C.fingerprint); err != nil {
			C.logger.Printf("pipeline: can't record run in the checkpoint database: %v", err)
		}
	}
	//links[i] carries the end state of task i-1 to task i.
	var links []chan *pbc.State
	if C.cfg.Unwrap.Carry {
		links = make([]chan *pbc.State, len(tasks)+1)
		for i := range links {
			links[i] = make(chan *pbc.State, 1)
		}
	}
	results := make([]*result, len(tasks))
	jobs := make(chan int)
	var wg sync.WaitGroup
	var mu sync.Mutex
	finished := 0
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				var in <-chan *pbc.State
				var out chan<- *pbc.State
				if links != nil {
					if i > 0 {
						in = links[i]
					}
					out = links[i+1]
				}
				results[i] = C.runTask(ctx, id, tasks[i], in, out)
				if C.progress != nil {
					mu.Lock()
					finished++
					C.progress(finished, len(tasks))
					mu.Unlock()
				}
			}
		}()
	}
	dispatched := 0
dispatch:
	for i := range tasks {
		if ctx.Err() != nil {
			break
		}
		select {
		case jobs <- i:
			dispatched++
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	for i := dispatched; i < len(tasks); i++ {
		t := tasks[i]
		results[i] = &result{task: t, status: "cancelled", failure: &Failure{Chunk: t.Chunk, Segment: t.Segment,
			Input: t.Input, Stage: StageCancelled, Cause: "not started: run cancelled"}}
	}
	if dispatched < len(tasks) {
		C.logger.Printf("pipeline: run cancelled, %d of %d segments not started", len(tasks)-dispatched, len(tasks))
	}
	return C.finish(id, rep, results)
}

//finish fills the report and merges the partial states, in chunk order.
func (C *Coordinator) finish(id uuid.UUID, rep *Report, results []*result) (*Report, error) {
	var states []*dispstat.State
	for _, r := range results {
		t := r.task
		status := r.status
		switch {
		case r.failure != nil:
			rep.Failures = append(rep.Failures, *r.failure)
			if r.failure.Stage == StageCancelled {
				rep.Cancelled = append(rep.Cancelled, t.Segment)
			}
		case r.status == store.StatusSkipped:
			rep.Skipped = append(rep.Skipped, t.Segment)
		default:
			rep.Succeeded = append(rep.Succeeded, t.Segment)
			states = append(states, r.stats)
			if r.cached {
				rep.Cached = append(rep.Cached, t.Segment)
				status = "cached"
			}
		}
		if r.broken {
			rep.ContinuityBreaks = append(rep.ContinuityBreaks, t.Segment)
		}
		if r.dipole != nil && r.failure == nil {
			rep.Dipoles = append(rep.Dipoles, SegmentDipole{Segment: t.Segment, Summary: *r.dipole})
		}
		rep.Frames += r.frames
		C.metrics.Segment(status)
	}
	rep.Finished = time.Now()
	if C.store != nil {
		status := "done"
		if len(rep.Succeeded) == 0 {
			status = "failed"
		} else if len(rep.Failures) > 0 {
			status = "partial"
		}
		if err := C.store.FinishRun(id, status, len(rep.Succeeded), len(rep.Failures)); err != nil {
			C.logger.Printf("pipeline: can't record the end of the run: %v", err)
		}
	}
	if len(rep.Succeeded) == 0 {
		return rep, fmt.Errorf("%w: %d failed, %d skipped of %d", msd.ErrNoChunks, len(rep.Failures), len(rep.Skipped), len(results))
	}
	if C.cfg.Stats.Disabled {
		return rep, nil
	}
	merged, err := dispstat.Merge(states...)
	if err != nil {
		return rep, msd.ErrDecorate(err, "pipeline.Run")
	}
	if merged == nil {
		merged = dispstat.NewState(C.statOpts)
	}
	rep.Table, rep.Guards = merged.Finalize(C.pair, C.cfg.Stats.Dt, C.statOpts)
	for _, g := range rep.Guards {
		C.metrics.Guard(g.Quantity)
	}
	rep.Summary = rep.Table.Summarize()
	return rep, nil
}
