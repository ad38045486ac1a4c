/*
 * table.go, part of gomsd.
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

//Package report writes the results of a run: the lag tables, a data-quality
//report in JSON and, optionally, plots of the MSD and the non-Gaussian parameter.
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rmera/gomsd/dispstat"
)

//header writes the metadata of T as comment lines.
func header(w io.Writer, T *dispstat.Table) {
	fmt.Fprintf(w, "# %d segments, %d frames, dt %g\n", T.Segments, T.Frames, T.Dt)
	fmt.Fprintf(w, "# time origins: %s, stride %d", T.Origins, T.Stride)
	if T.Stride > 1 {
		fmt.Fprintf(w, " (only every %d-th origin is used, sample counts are reduced accordingly)", T.Stride)
	}
	fmt.Fprintln(w)
}

func appendFloat(b []byte, f float64) []byte {
	return strconv.AppendFloat(b, f, 'g', 10, 64)
}

//WriteTable writes lag, time, MSD, α₂ and the sample count, one row per lag.
func WriteTable(w io.Writer, T *dispstat.Table) error {
	h := bufio.NewWriter(w)
	header(h, T)
	fmt.Fprintln(h, "# lag time msd alpha2 samples")
	var b []byte
	for _, r := range T.Rows {
		b = b[:0]
		b = strconv.AppendInt(b, int64(r.Lag), 10)
		for _, v := range []float64{r.Time, r.MSD, r.Alpha2} {
			b = append(b, ' ')
			b = appendFloat(b, v)
		}
		b = append(b, ' ')
		b = strconv.AppendInt(b, r.Samples, 10)
		b = append(b, '\n')
		if _, err := h.Write(b); err != nil {
			return err
		}
	}
	return h.Flush()
}

//WritePairTable writes lag, time, the three cross-axis parameters, the mean of
//those not guarded and the sample count. The selected pair is marked in the column header.
func WritePairTable(w io.Writer, T *dispstat.Table) error {
	h := bufio.NewWriter(w)
	header(h, T)
	cols := [3]string{"alpha_xy", "alpha_xz", "alpha_yz"}
	cols[T.Pair] += "*"
	fmt.Fprintln(h, "# pairs that can't be computed are written as 0 and left out of the anisotropy")
	fmt.Fprintf(h, "# lag time %s %s %s anisotropy samples (* selected pair)\n", cols[0], cols[1], cols[2])
	var b []byte
	for _, r := range T.Rows {
		b = b[:0]
		b = strconv.AppendInt(b, int64(r.Lag), 10)
		b = append(b, ' ')
		b = appendFloat(b, r.Time)
		for _, v := range r.Pair {
			b = append(b, ' ')
			b = appendFloat(b, v)
		}
		b = append(b, ' ')
		b = appendFloat(b, r.Anisotropy)
		b = append(b, ' ')
		b = strconv.AppendInt(b, r.Samples, 10)
		b = append(b, '\n')
		if _, err := h.Write(b); err != nil {
			return err
		}
	}
	return h.Flush()
}

//writeFile creates name, and its directory if needed, and writes to it with f.
func writeFile(name string, f func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	out, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := f(out); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return out.Close()
}

//WriteTableFile writes the lag table of T to the file name.
func WriteTableFile(name string, T *dispstat.Table) error {
	return writeFile(name, func(w io.Writer) error { return WriteTable(w, T) })
}

//WritePairTableFile writes the cross-axis table of T to the file name.
func WritePairTableFile(name string, T *dispstat.Table) error {
	return writeFile(name, func(w io.Writer) error { return WritePairTable(w, T) })
}
