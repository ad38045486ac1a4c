/*
 * matrix.go, part of gomsd.
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

package v3

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

//Matrix is a set of vectors in 3D space. The underlying gonum Dense always has
//3 columns.
type Matrix struct {
	*mat.Dense
}

//Zeros returns a zero-filled Matrix with vecs vectors.
func Zeros(vecs int) *Matrix {
	const cols int = 3
	f := make([]float64, cols*vecs)
	return &Matrix{mat.NewDense(vecs, cols, f)}
}

//NewMatrix returns a Matrix with len(data)/3 vectors, using data as backing
//slice. It returns an error if len(data) is not divisible by 3.
func NewMatrix(data []float64) (*Matrix, error) {
	const cols int = 3
	l := len(data)
	if l%cols != 0 || l == 0 {
		return nil, Error{fmt.Sprintf("Input slice lenght %d not divisible by %d", l, cols), []string{"NewMatrix"}, true}
	}
	return &Matrix{mat.NewDense(l/cols, cols, data)}, nil
}

//NVecs returns the number of vectors in F.
func (F *Matrix) NVecs() int {
	r, c := F.Dims()
	if c != 3 {
		panic(ErrNotXx3Matrix)
	}
	return r
}

//VecView returns a view of the ith vector of F.
func (F *Matrix) VecView(i int) *Matrix {
	r := F.Dense.Slice(i, i+1, 0, 3).(*mat.Dense)
	return &Matrix{r}
}

//Vec copies the ith vector of F into an array.
func (F *Matrix) Vec(i int) [3]float64 {
	return [3]float64{F.At(i, 0), F.At(i, 1), F.At(i, 2)}
}

//SetVec sets the ith vector of F to v.
func (F *Matrix) SetVec(i int, v [3]float64) {
	F.Set(i, 0, v[0])
	F.Set(i, 1, v[1])
	F.Set(i, 2, v[2])
}

//RawData returns the row-major backing slice of F. It only makes sense for
//matrices that are not views with a stride larger than 3.
func (F *Matrix) RawData() []float64 {
	raw := F.RawMatrix()
	if raw.Stride != 3 {
		panic(ErrStride)
	}
	return raw.Data[:raw.Rows*3]
}

//Norm returns the Euclidean norm of the ith vector of F.
func (F *Matrix) Norm(i int) float64 {
	return mat.Norm(F.VecView(i), 2)
}

//String returns a neat string representation of F, one vector per line.
func (F *Matrix) String() string {
	var b strings.Builder
	r := F.NVecs()
	b.WriteString("[")
	for i := 0; i < r; i++ {
		if i > 0 {
			b.WriteString("\n ")
		}
		fmt.Fprintf(&b, "%8.3f %8.3f %8.3f", F.At(i, 0), F.At(i, 1), F.At(i, 2))
	}
	b.WriteString("]\n")
	return b.String()
}

//Error is the error type returned by this package.
type Error struct {
	message  string
	deco     []string
	critical bool
}

//Error returns a string with an error message.
func (err Error) Error() string {
	return err.message
}

//Decorate will add the dec string to the decoration slice of strings of the error,
//and return the resulting slice.
func (err Error) Decorate(dec string) []string {
	err.deco = append(err.deco, dec)
	return err.deco
}

//Critical return whether the error is critical or it can be ignored
func (err Error) Critical() bool { return err.critical }

//PanicMsg is a message used for panics, even though it does satisfy the error interface.
//for errors use Error.
type PanicMsg string

func (v PanicMsg) Error() string { return string(v) }

const (
	ErrNotXx3Matrix = PanicMsg("goMSD/v3: A Matrix should have 3 columns")
	ErrStride       = PanicMsg("goMSD/v3: Matrix data is not contiguous")
)
