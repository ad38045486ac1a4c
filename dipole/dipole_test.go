package dipole

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	msd "github.com/rmera/gomsd"
	"github.com/rmera/gomsd/com"
	v3 "github.com/rmera/gomsd/v3"
)

var charges = []float64{-0.8, 0.4, 0.4}
var masses = []float64{15.999, 1.008, 1.008}

//two "waters" pointing in opposite directions, and a third one translated from the first.
func waters() *v3.Matrix {
	m, _ := v3.NewMatrix([]float64{
		0, 0, 0, 1, 0, 0, 0, 1, 0,
		5, 5, 5, 4, 5, 5, 5, 4, 5,
		10, 0, 0, 11, 0, 0, 10, 1, 0,
	})
	return m
}

func calculator(Te *testing.T, ch []float64, o *Options) *Calculator {
	g, err := com.NewGrouping(com.Contiguous, 9, 3)
	if err != nil {
		Te.Fatal(err)
	}
	C, err := NewCalculator(g, ch, masses, o)
	if err != nil {
		Te.Fatal(err)
	}
	return C
}

func TestWater(Te *testing.T) {
	C := calculator(Te, charges, nil)
	F, err := C.Frame(waters(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	want := 0.4 / DebyeConversion
	v := F.Vectors.Vec(0)
	if math.Abs(v[0]-want) > 1e-12 || math.Abs(v[1]-want) > 1e-12 || v[2] != 0 {
		Te.Errorf("dipole of molecule 0: %v, expected (%g, %g, 0)", v, want, want)
	}
	if math.Abs(F.Magnitudes[0]-want*math.Sqrt2) > 1e-12 {
		Te.Errorf("magnitude %g, expected %g", F.Magnitudes[0], want*math.Sqrt2)
	}
	//a neutral molecule does not care about where it is.
	if math.Abs(F.Magnitudes[2]-F.Magnitudes[0]) > 1e-12 {
		Te.Error("translated molecule has a different dipole")
	}
	tot, mag := F.Collective([]int{0, 1})
	if mag > 1e-12 {
		Te.Errorf("opposite dipoles should cancel, got %v", tot)
	}
	_, all := F.Collective(nil)
	if math.Abs(all-F.Magnitudes[2]) > 1e-12 {
		Te.Errorf("collective dipole of all molecules is %g", all)
	}
}

func TestRecenter(Te *testing.T) {
	charged := []float64{0.2, 0.4, 0.4}
	F1, _ := calculator(Te, charged, nil).Frame(waters(), nil)
	if math.Abs(F1.Magnitudes[2]-F1.Magnitudes[0]) > 1e-12 {
		Te.Error("re-centered dipoles of a charged molecule should not depend on position")
	}
	o := DefaultOptions()
	o.Recenter(false)
	F2, _ := calculator(Te, charged, o).Frame(waters(), nil)
	if math.Abs(F2.Magnitudes[2]-F2.Magnitudes[0]) < 1 {
		Te.Error("without re-centering a charged molecule far from the origin should have a larger dipole")
	}
}

func TestLimits(Te *testing.T) {
	o := DefaultOptions()
	o.Molecules(2)
	C := calculator(Te, charges, o)
	F, err := C.Frame(waters(), nil)
	if err != nil {
		Te.Fatal(err)
	}
	if F.Vectors.NVecs() != 2 || C.Molecules() != 2 {
		Te.Errorf("limited to 2 molecules, got %d", F.Vectors.NVecs())
	}
	g, _ := com.NewGrouping(com.Contiguous, 9, 3)
	if _, err := NewCalculator(g, []float64{1, -1}, nil, nil); !errors.Is(err, msd.ErrConfig) {
		Te.Errorf("wrong number of charges should be a config error, got %v", err)
	}
	o = DefaultOptions()
	o.Molecules(2)
	o.Subset([]int{0, 2})
	if _, err := NewCalculator(g, charges, nil, o); !errors.Is(err, msd.ErrConfig) {
		Te.Errorf("a subset outside the used molecules should be a config error, got %v", err)
	}
}

func TestWriter(Te *testing.T) {
	dir := Te.TempDir()
	o := DefaultOptions()
	o.Collective(true)
	C := calculator(Te, charges, o)
	name := filepath.Join(dir, "out", "dipole_0.dat")
	W, err := NewWriter(name, C)
	if err != nil {
		Te.Fatal(err)
	}
	var F *Frame
	var S Stats
	for i := 0; i < 3; i++ {
		F, err = C.Frame(waters(), F)
		if err != nil {
			Te.Fatal(err)
		}
		S.Add(F, nil)
		if err := W.Write(i, F); err != nil {
			Te.Fatal(err)
		}
	}
	if err := W.Close(); err != nil {
		Te.Fatal(err)
	}
	b, err := os.ReadFile(name)
	if err != nil {
		Te.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 5 || lines[0] != "# units: Debye" {
		Te.Errorf("unexpected output:\n%s", b)
	}
	if f := strings.Fields(lines[4]); len(f) != 5 || f[0] != "2" {
		Te.Errorf("unexpected collective line %q", lines[4])
	}
	sum := S.Summary()
	if sum.Frames != 3 || sum.StdMagnitude > 1e-12 || math.Abs(sum.MeanCollective-F.Magnitudes[2]) > 1e-9 {
		Te.Errorf("unexpected summary %+v", sum)
	}
}
