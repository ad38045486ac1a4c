/*
 * quality.go, part of gomsd.
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

package report

import (
	"encoding/json"
	"io"

	"github.com/rmera/gomsd/pipeline"
)

//LagSamples is the number of samples behind one lag, after striding.
type LagSamples struct {
	Lag     int   `json:"lag"`
	Samples int64 `json:"samples"`
}

//Quality is the data-quality report of a run: which segments failed, where the
//numerical guards triggered and how many samples each lag really has.
type Quality struct {
	*pipeline.Report
	Coverage  float64      `json:"coverage"`
	Partial   bool         `json:"partial"`
	Elapsed   string       `json:"elapsed"`
	Effective []LagSamples `json:"effective_samples,omitempty"`
}

//NewQuality builds the quality report for rep.
func NewQuality(rep *pipeline.Report) *Quality {
	Q := &Quality{Report: rep, Coverage: rep.Coverage(), Partial: rep.Partial(), Elapsed: rep.Elapsed().String()}
	if rep.Table != nil {
		Q.Effective = make([]LagSamples, len(rep.Table.Rows))
		for i, r := range rep.Table.Rows {
			Q.Effective[i] = LagSamples{Lag: r.Lag, Samples: r.Samples}
		}
	}
	return Q
}

//WriteQuality writes the quality report of rep as indented JSON.
func WriteQuality(w io.Writer, rep *pipeline.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewQuality(rep))
}

//WriteQualityFile writes the quality report of rep to the file name.
func WriteQualityFile(name string, rep *pipeline.Report) error {
	return writeFile(name, func(w io.Writer) error { return WriteQuality(w, rep) })
}
