package store

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rmera/gomsd/dipole"
	"github.com/rmera/gomsd/dispstat"
	"github.com/rmera/gomsd/pbc"
)

func TestCheckpoints(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "ck", "run.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	run := uuid.New()
	if err := d.BeginRun(run, "fp"); err != nil {
		t.Fatal(err)
	}
	st := dispstat.NewState(nil)
	st.Lags = []dispstat.Moments{{N: 3, R2: 1.5, R4: 2.25}}
	st.Segments = 1
	end := pbc.NewState(2)
	end.Shift[1] = [3]float64{10, 0, -10}
	cp := &Checkpoint{Segment: 4, Frames: 20, Stats: st, End: end, Dipole: &dipole.Summary{Frames: 20, MeanMagnitude: 1.8}}
	if err := d.Save("fp", run, cp); err != nil {
		t.Fatal(err)
	}
	if err := d.SaveFailure("fp", run, 5, "read", "truncated frame", 1); err != nil {
		t.Fatal(err)
	}
	got, ok, err := d.Load("fp", 4)
	if err != nil || !ok {
		t.Fatalf("checkpoint not found: %v", err)
	}
	if got.Frames != 20 || got.Stats.Lags[0] != st.Lags[0] || got.End.Shift[1] != end.Shift[1] || got.Dipole.MeanMagnitude != 1.8 {
		t.Errorf("checkpoint changed: %+v", got)
	}
	if _, ok, _ := d.Load("fp", 5); ok {
		t.Error("a failed segment has no checkpoint")
	}
	if _, ok, _ := d.Load("other", 4); ok {
		t.Error("checkpoints are per fingerprint")
	}
	failed, err := d.Failed("fp")
	if err != nil || len(failed) != 1 || failed[0] != 5 {
		t.Errorf("failed segments %v (%v)", failed, err)
	}
	//a later success replaces the failure
	d.Save("fp", run, &Checkpoint{Segment: 5, Status: StatusSkipped, Frames: 2})
	if failed, _ := d.Failed("fp"); len(failed) != 0 {
		t.Errorf("segment 5 should not be failed anymore: %v", failed)
	}
	if err := d.FinishRun(run, "ok", 2, 0); err != nil {
		t.Fatal(err)
	}
}
