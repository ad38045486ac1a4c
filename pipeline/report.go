/*
 * report.go, part of gomsd.
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
	"time"

	"github.com/rmera/gomsd/dipole"
	"github.com/rmera/gomsd/dispstat"
)

//SegmentDipole is the dipole summary of one segment.
type SegmentDipole struct {
	Segment int            `json:"segment"`
	Summary dipole.Summary `json:"summary"`
}

//Report is the outcome of a run. Segments are given by their index.
type Report struct {
	RunID       string              `json:"run_id"`
	Fingerprint string              `json:"fingerprint"`
	Workers     int                 `json:"workers"`
	Segments    int                 `json:"segments"`
	Stride      int                 `json:"stride"`
	Origins     dispstat.OriginMode `json:"origins"`
	Carry       bool                `json:"carry"`
	Frames      int                 `json:"frames"`

	Succeeded        []int     `json:"succeeded"`
	Cached           []int     `json:"cached,omitempty"`
	Skipped          []int     `json:"skipped,omitempty"`
	Cancelled        []int     `json:"cancelled,omitempty"`
	ContinuityBreaks []int     `json:"continuity_breaks,omitempty"`
	Failures         []Failure `json:"failures,omitempty"`

	Table   *dispstat.Table  `json:"-"`
	Guards  []dispstat.Guard `json:"guards,omitempty"`
	Summary dispstat.Summary `json:"summary"`
	Dipoles []SegmentDipole  `json:"dipoles,omitempty"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

//Partial returns true if some segment did not contribute to the statistics.
func (R *Report) Partial() bool {
	return len(R.Succeeded) < R.Segments
}

//Elapsed returns the duration of the run.
func (R *Report) Elapsed() time.Duration {
	return R.Finished.Sub(R.Started)
}

//Coverage returns the fraction of the segments that contributed to the statistics.
func (R *Report) Coverage() float64 {
	if R.Segments == 0 {
		return 0
	}
	return float64(len(R.Succeeded)) / float64(R.Segments)
}
