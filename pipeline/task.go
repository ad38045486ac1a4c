/*
 * task.go, part of gomsd.
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

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/config"
)

//Stage names the step of a segment where something happened.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageRead       Stage = "read"
	StageUnwrap     Stage = "unwrap"
	StageCOM        Stage = "com"
	StageStats      Stage = "stats"
	StageDipole     Stage = "dipole"
	StageWrite      Stage = "write"
	StageCheckpoint Stage = "checkpoint"
	StageCarry      Stage = "carry"
	StageCancelled  Stage = "cancelled"
)

//Task is the work for one trajectory segment. All paths are already expanded.
type Task struct {
	Chunk     int    `json:"chunk"`   //position in the run, 0-based
	Segment   int    `json:"segment"` //segment index, as used in the path patterns
	Input     string `json:"input"`
	Box       string `json:"box,omitempty"`
	Unwrapped string `json:"unwrapped,omitempty"`
	COM       string `json:"com,omitempty"`
	Dipole    string `json:"dipole,omitempty"`
}

func (T Task) String() string {
	return fmt.Sprintf("chunk %d (segment %d, %s)", T.Chunk, T.Segment, T.Input)
}

//Tasks returns the tasks for the segments in c, in input order.
func Tasks(c *config.Config) []Task {
	idx := c.Indices()
	ret := make([]Task, len(idx))
	for k, i := range idx {
		ret[k] = Task{
			Chunk:     k,
			Segment:   i,
			Input:     c.Path(c.Input, i),
			Box:       c.Path(c.Box.File, i),
			Unwrapped: c.Path(c.Unwrap.Output, i),
			COM:       c.Path(c.COM.Output, i),
		}
		if c.Dipole.Enabled {
			ret[k].Dipole = c.Path(c.Dipole.Output, i)
		}
	}
	return ret
}

//Extractor produces the coordinate file out for segment i. *extract.Runner implements it.
type Extractor interface {
	Run(ctx context.Context, i int, out string) error
}

//Failure describes a segment that could not be processed, with enough detail
//to run it again by itself.
type Failure struct {
	Chunk    int    `json:"chunk"`
	Segment  int    `json:"segment"`
	Input    string `json:"input"`
	Stage    Stage  `json:"stage"`
	Kind     string `json:"kind,omitempty"`
	Cause    string `json:"cause"`
	Trace    string `json:"trace,omitempty"` //functions the error went through, innermost first
	Attempts int    `json:"attempts"`
	err      error
}

func (F Failure) Error() string {
	return fmt.Sprintf("chunk %d (segment %d, %s) failed at %s after %d attempt(s): %s", F.Chunk, F.Segment, F.Input, F.Stage, F.Attempts, F.Cause)
}

//Unwrap returns the original error, if there is one (cancelled tasks have none).
func (F Failure) Unwrap() error {
	return F.err
}

//stageError attaches the stage where err happened.
type stageError struct {
	stage Stage
	err   error
}

func (E *stageError) Error() string { return string(E.stage) + ": " + E.err.Error() }
func (E *stageError) Unwrap() error { return E.err }

//newFailure returns the Failure for task t after attempts tries that ended with err.
func newFailure(t Task, err error, attempts int) *Failure {
	f := &Failure{Chunk: t.Chunk, Segment: t.Segment, Input: t.Input, Stage: stageOf(err),
		Kind: msd.KindOf(err).String(), Cause: err.Error(), Attempts: attempts, err: err}
	var ce *msd.CError
	if errors.As(err, &ce) {
		f.Trace = ce.Trace()
	}
	return f
}

func at(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	return &stageError{stage: stage, err: err}
}
