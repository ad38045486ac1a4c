package v3

import (
	"math"
	"testing"
)

func TestNewMatrix(Te *testing.T) {
	A, err := NewMatrix([]float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		Te.Fatal(err)
	}
	if A.NVecs() != 2 {
		Te.Errorf("expected 2 vectors, got %d", A.NVecs())
	}
	if v := A.Vec(1); v != [3]float64{4, 5, 6} {
		Te.Errorf("unexpected second vector %v", v)
	}
	if _, err := NewMatrix([]float64{1, 2}); err == nil {
		Te.Error("expected error for a slice not divisible by 3")
	}
}

func TestNorm(Te *testing.T) {
	A, _ := NewMatrix([]float64{1, 2, 3, -1, -2, -3})
	if n := A.Norm(1); math.Abs(n-math.Sqrt(14)) > 1e-12 {
		Te.Errorf("Norm gave %f", n)
	}
	v := A.VecView(0)
	v.Dense.Scale(2, v.Dense)
	if A.Vec(0) != [3]float64{2, 4, 6} {
		Te.Errorf("VecView does not share the data: %v", A)
	}
}

func TestRawData(Te *testing.T) {
	A := Zeros(3)
	A.SetVec(2, [3]float64{7, 8, 9})
	d := A.RawData()
	if len(d) != 9 || d[8] != 9 {
		Te.Errorf("RawData gave %v", d)
	}
	//a row view keeps a stride of 3
	if v := A.VecView(2).RawData(); len(v) != 3 || v[0] != 7 {
		Te.Errorf("RawData of a view gave %v", v)
	}
}
