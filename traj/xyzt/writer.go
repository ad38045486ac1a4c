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

package xyzt

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	v3 "github.com/rmera/gomsd/v3"
)

//Writer writes frames to a segment file. It implements msd.TrajWriter
type Writer struct {
	f         *os.File
	z         io.WriteCloser
	h         *bufio.Writer
	natoms    int
	filename  string
	layout    Layout
	prec      int
	base      int
	writeable bool
	frames    int
	buf       []byte
}

//NewWriter creates the file name and returns a Writer for frames of natoms particles.
//The compression is chosen by the extension of name, as in New.
func NewWriter(name string, natoms int, o *Options) (*Writer, error) {
	if o == nil {
		o = DefaultOptions()
	}
	W := &Writer{filename: name, natoms: natoms, layout: o.Layout(), prec: o.Prec(), base: o.Base()}
	var err error
	if err = os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return nil, Error{"Can't create directory: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	W.f, err = os.Create(name)
	if err != nil {
		return nil, Error{"Can't create file: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	var out io.Writer = W.f
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst":
		W.z, err = zstd.NewWriter(W.f, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	case ".gz":
		W.z, err = gzip.NewWriterLevel(W.f, gzip.DefaultCompression)
	}
	if err != nil {
		W.f.Close()
		return nil, Error{"Can't set compression: " + err.Error(), name, []string{"NewWriter"}, true}
	}
	if W.z != nil {
		out = W.z
	}
	W.h = bufio.NewWriterSize(out, 1<<20)
	W.writeable = true
	return W, nil
}

//Len returns the number of particles per frame.
func (W *Writer) Len() int {
	return W.natoms
}

//Frames returns the number of frames written so far.
func (W *Writer) Frames() int {
	return W.frames
}

//Comment writes a comment line. Readers ignore them.
func (W *Writer) Comment(text string) error {
	if !W.writeable {
		return Error{TrajUnIniWrite, W.filename, []string{"Comment"}, true}
	}
	for _, l := range strings.Split(text, "\n") {
		if _, err := W.h.WriteString("# " + l + "\n"); err != nil {
			return Error{err.Error(), W.filename, []string{"Comment"}, true}
		}
	}
	return nil
}

func (W *Writer) appendFloat(b []byte, f float64) []byte {
	if W.prec < 0 {
		return strconv.AppendFloat(b, f, 'g', -1, 64)
	}
	return strconv.AppendFloat(b, f, 'f', W.prec, 64)
}

//WNext writes a frame.
func (W *Writer) WNext(coords *v3.Matrix) error {
	if !W.writeable {
		return Error{TrajUnIniWrite, W.filename, []string{"WNext"}, true}
	}
	if coords == nil {
		return Error{NilCoordinates, W.filename, []string{"WNext"}, true}
	}
	if v := coords.NVecs(); v != W.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, W.natoms), W.filename, []string{"WNext"}, true}
	}
	for i := 0; i < W.natoms; i++ {
		if W.layout == Records {
			W.buf = strconv.AppendInt(W.buf, int64(W.base+i), 10)
			W.buf = append(W.buf, ' ')
		}
		for j := 0; j < 3; j++ {
			W.buf = W.appendFloat(W.buf, coords.At(i, j))
			if j < 2 {
				W.buf = append(W.buf, ' ')
			}
		}
		if W.layout == Records {
			W.buf = append(W.buf, '\n')
		} else if i < W.natoms-1 {
			W.buf = append(W.buf, ' ')
		}
		//we don't want the buffer to grow too much for large flat frames.
		if len(W.buf) > 1<<16 {
			if err := W.flushBuf(); err != nil {
				return err
			}
		}
	}
	if W.layout == Flat {
		W.buf = append(W.buf, '\n')
	}
	if err := W.flushBuf(); err != nil {
		return err
	}
	W.frames++
	return nil
}

func (W *Writer) flushBuf() error {
	_, err := W.h.Write(W.buf)
	W.buf = W.buf[:0]
	if err != nil {
		W.writeable = false
		return Error{err.Error(), W.filename, []string{"WNext"}, true}
	}
	return nil
}

//Close flushes everything and closes the file. The Writer can't be used after this.
func (W *Writer) Close() error {
	if W == nil || !W.writeable && W.f == nil {
		return nil
	}
	W.writeable = false
	var ret error
	if err := W.h.Flush(); err != nil {
		ret = err
	}
	if W.z != nil {
		if err := W.z.Close(); err != nil && ret == nil {
			ret = err
		}
	}
	if err := W.f.Close(); err != nil && ret == nil {
		ret = err
	}
	W.f = nil
	if ret != nil {
		return Error{ret.Error(), W.filename, []string{"Close"}, true}
	}
	return nil
}
