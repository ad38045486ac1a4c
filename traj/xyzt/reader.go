/*
 * reader.go, part of gomsd.
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
	"golang.org/x/exp/mmap"
)

//Reader reads a segment, one frame at a time. It implements msd.Traj
type Reader struct {
	closers  []io.Closer
	h        *bufio.Reader
	natoms   int
	base     int
	filename string
	layout   Layout
	readable bool
	frames   int
	line     int
	first    *v3.Matrix //the first frame, when it had to be read to count the particles.
	pending  []string
}

//Why couldn't *zstd.Decoder implement io.ReadCloser? :-(
type zstdCloser struct {
	*zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.Decoder.Close()
	return nil
}

//openInput returns a reader for the decompressed contents of name, and the things that need
//to be closed once we are done.
func openInput(name string, usemmap bool) (io.Reader, []io.Closer, error) {
	var raw io.Reader
	var closers []io.Closer
	if usemmap {
		ra, err := mmap.Open(name)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, ra)
		raw = io.NewSectionReader(ra, 0, int64(ra.Len()))
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, f)
		raw = f
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst":
		d, err := zstd.NewReader(raw)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		//The decoder goes first, so it is closed before the file.
		closers = append([]io.Closer{zstdCloser{d}}, closers...)
		return d, closers, nil
	case ".gz":
		g, err := gzip.NewReader(raw)
		if err != nil {
			closeAll(closers)
			return nil, nil, err
		}
		closers = append([]io.Closer{g}, closers...)
		return g, closers, nil
	}
	return raw, closers, nil
}

func closeAll(c []io.Closer) error {
	var ret error
	for _, v := range c {
		if err := v.Close(); err != nil && ret == nil {
			ret = err
		}
	}
	return ret
}

//New opens the segment in the file name for reading.
//If natoms is 0 or less, the number of particles is obtained from the first frame.
//A nil o means DefaultOptions().
func New(name string, natoms int, o *Options) (*Reader, error) {
	if o == nil {
		o = DefaultOptions()
	}
	in, closers, err := openInput(name, o.Mmap())
	if err != nil {
		return nil, Error{"Can't open file: " + err.Error(), name, []string{"New"}, true}
	}
	R := &Reader{closers: closers, filename: name, layout: o.Layout(), natoms: natoms, base: -1}
	R.h = bufio.NewReaderSize(in, 1<<20)
	R.readable = true
	if natoms <= 0 {
		if err := R.infer(); err != nil {
			R.Close()
			return nil, errDecorate(err, "New")
		}
	}
	return R, nil
}

//Readable returns true if the segment can still be read.
func (R *Reader) Readable() bool {
	return R.readable
}

//Len returns the number of particles per frame.
func (R *Reader) Len() int {
	return R.natoms
}

//Frames returns the number of frames read so far.
func (R *Reader) Frames() int {
	return R.frames
}

//FileName returns the name of the file being read
func (R *Reader) FileName() string {
	return R.filename
}

//Close closes the reader. It can not be used after this call.
func (R *Reader) Close() error {
	if R == nil || R.closers == nil {
		return nil
	}
	R.readable = false
	err := closeAll(R.closers)
	R.closers = nil
	return err
}

//fields returns the fields in the next line with data, or io.EOF
func (R *Reader) fields() ([]string, error) {
	if R.pending != nil {
		f := R.pending
		R.pending = nil
		return f, nil
	}
	for {
		s, err := R.h.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if s == "" && err == io.EOF {
			return nil, io.EOF
		}
		R.line++
		s = strings.TrimSpace(s)
		if s != "" && !strings.HasPrefix(s, "#") {
			return strings.Fields(s), nil
		}
		if err == io.EOF {
			return nil, io.EOF
		}
	}
}

func (R *Reader) errorf(critical bool, format string, args ...any) Error {
	msg := fmt.Sprintf(format, args...)
	return Error{fmt.Sprintf("line %d: %s", R.line, msg), R.filename, []string{"Next"}, critical}
}

//parseRecord parses a "index x y z" line into its index and coordinates.
func (R *Reader) parseRecord(f []string, out *[3]float64) (int, error) {
	if len(f) != 4 {
		return 0, R.errorf(true, "expected 4 fields (index x y z), found %d", len(f))
	}
	idx, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, R.errorf(true, "invalid particle index %q", f[0])
	}
	for i := 0; i < 3; i++ {
		out[i], err = strconv.ParseFloat(f[i+1], 64)
		if err != nil {
			return 0, R.errorf(true, "invalid coordinate %q", f[i+1])
		}
	}
	return idx, nil
}

//infer reads the first frame to obtain the number of particles.
func (R *Reader) infer() error {
	if R.layout == Flat {
		f, err := R.fields()
		if err == io.EOF {
			return Error{"Empty segment, can't obtain the number of particles", R.filename, []string{"infer"}, true}
		}
		if err != nil {
			return Error{err.Error(), R.filename, []string{"infer"}, true}
		}
		if len(f)%3 != 0 || len(f) == 0 {
			return R.errorf(true, "%d values in a frame, not divisible by 3", len(f))
		}
		R.natoms = len(f) / 3
		R.pending = f
		return nil
	}
	var coords []float64
	var v [3]float64
	for {
		f, err := R.fields()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Error{err.Error(), R.filename, []string{"infer"}, true}
		}
		idx, err := R.parseRecord(f, &v)
		if err != nil {
			return err
		}
		if R.base < 0 {
			R.base = idx
		} else if idx == R.base {
			R.pending = f
			break
		}
		if expected := R.base + len(coords)/3; idx != expected {
			return R.errorf(true, "particle index %d found, %d expected", idx, expected)
		}
		coords = append(coords, v[:]...)
	}
	if len(coords) == 0 {
		return Error{"Empty segment, can't obtain the number of particles", R.filename, []string{"infer"}, true}
	}
	R.natoms = len(coords) / 3
	R.first, _ = v3.NewMatrix(coords)
	return nil
}

//Next reads the next frame into output, which needs to have Len() vectors.
//If output is nil, the frame is read and validated, but discarded.
//At the end of the segment, Next returns an error implementing msd.LastFrameError
//A frame cut in the middle, or with malformed lines, gives a critical error.
func (R *Reader) Next(output *v3.Matrix) error {
	if !R.readable {
		return Error{TrajUnIniRead, R.filename, []string{"Next"}, true}
	}
	if output != nil && output.NVecs() != R.natoms {
		return Error{fmt.Sprintf("output matrix has %d vectors, %d needed", output.NVecs(), R.natoms), R.filename, []string{"Next"}, true}
	}
	if R.first != nil {
		if output != nil {
			output.Copy(R.first)
		}
		R.first = nil
		R.frames++
		return nil
	}
	var err error
	if R.layout == Flat {
		err = R.nextFlat(output)
	} else {
		err = R.nextRecords(output)
	}
	if err != nil {
		R.readable = false
		return err
	}
	R.frames++
	return nil
}

func (R *Reader) nextRecords(output *v3.Matrix) error {
	var v [3]float64
	for i := 0; i < R.natoms; i++ {
		f, err := R.fields()
		if err == io.EOF {
			if i == 0 {
				return newLastFrameError(R.filename, "Next")
			}
			return R.errorf(true, "truncated frame %d: %d of %d particles read", R.frames, i, R.natoms)
		}
		if err != nil {
			return Error{err.Error(), R.filename, []string{"Next"}, true}
		}
		idx, err := R.parseRecord(f, &v)
		if err != nil {
			return err
		}
		if R.base < 0 {
			R.base = idx
		}
		if idx != R.base+i {
			return R.errorf(true, "particle index %d found, %d expected in frame %d", idx, R.base+i, R.frames)
		}
		if output != nil {
			output.SetVec(i, v)
		}
	}
	return nil
}

func (R *Reader) nextFlat(output *v3.Matrix) error {
	f, err := R.fields()
	if err == io.EOF {
		return newLastFrameError(R.filename, "Next")
	}
	if err != nil {
		return Error{err.Error(), R.filename, []string{"Next"}, true}
	}
	if len(f) != 3*R.natoms {
		return R.errorf(true, "frame %d has %d values, %d expected", R.frames, len(f), 3*R.natoms)
	}
	for i, s := range f {
		c, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return R.errorf(true, "invalid coordinate %q", s)
		}
		if output != nil {
			output.Set(i/3, i%3, c)
		}
	}
	return nil
}

//ReadAll reads all the frames of the segment in name.
func ReadAll(name string, natoms int, o *Options) ([]*v3.Matrix, error) {
	R, err := New(name, natoms, o)
	if err != nil {
		return nil, errDecorate(err, "ReadAll")
	}
	defer R.Close()
	var frames []*v3.Matrix
	for {
		c := v3.Zeros(R.Len())
		err := R.Next(c)
		if err != nil {
			if _, ok := err.(*lastFrameError); ok {
				break
			}
			return nil, errDecorate(err, "ReadAll")
		}
		frames = append(frames, c)
	}
	return frames, nil
}

//errDecorate is a helper function that decorates errors of this package with the
//caller's name. Other errors are returned unchanged.
func errDecorate(err error, caller string) error {
	switch e := err.(type) {
	case Error:
		e.deco = append(e.deco, caller)
		return e
	case *lastFrameError:
		e.Decorate(caller)
		return e
	}
	return err
}
