/*
 * writer.go, part of gomsd.
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

package dipole

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

//Writer writes a dipole time series as text, one line per frame. Per-molecule lines have
//the frame number and then mx my mz |m| for each molecule. Collective lines have the frame
//number and the components and magnitude of the total dipole.
type Writer struct {
	f          *os.File
	h          *bufio.Writer
	name       string
	collective bool
	subset     []int
	buf        []byte
}

//NewWriter creates the file name for the output of C. A header with the units is written.
func NewWriter(name string, C *Calculator) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	W := &Writer{f: f, h: bufio.NewWriter(f), name: name, collective: C.o.Collective(), subset: C.o.Subset()}
	units := "Debye"
	if C.o.Conversion() != DebyeConversion {
		units = fmt.Sprintf("e*Angstrom/%g", C.o.Conversion())
	}
	fmt.Fprintf(W.h, "# units: %s\n", units)
	if W.collective {
		fmt.Fprintf(W.h, "# frame mx my mz |m| (sum over %s)\n", subsetString(W.subset, C.Molecules()))
	} else {
		fmt.Fprintf(W.h, "# frame then mx my mz |m| for each of %d molecules\n", C.Molecules())
	}
	return W, nil
}

func subsetString(s []int, n int) string {
	if s == nil {
		return fmt.Sprintf("all %d molecules", n)
	}
	return fmt.Sprintf("%d selected molecules", len(s))
}

func (W *Writer) appendVec(v [3]float64, m float64) {
	for _, x := range v {
		W.buf = append(W.buf, ' ')
		W.buf = strconv.AppendFloat(W.buf, x, 'f', 6, 64)
	}
	W.buf = append(W.buf, ' ')
	W.buf = strconv.AppendFloat(W.buf, m, 'f', 6, 64)
}

//Write writes the dipoles of frame number frame.
func (W *Writer) Write(frame int, F *Frame) error {
	W.buf = strconv.AppendInt(W.buf[:0], int64(frame), 10)
	if W.collective {
		v, m := F.Collective(W.subset)
		W.appendVec(v, m)
	} else {
		for i := 0; i < F.Vectors.NVecs(); i++ {
			W.appendVec(F.Vectors.Vec(i), F.Magnitudes[i])
		}
	}
	W.buf = append(W.buf, '\n')
	_, err := W.h.Write(W.buf)
	return err
}

//Close flushes the output and closes the file.
func (W *Writer) Close() error {
	err := W.h.Flush()
	if err2 := W.f.Close(); err == nil {
		err = err2
	}
	return err
}
