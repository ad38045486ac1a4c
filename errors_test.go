package msd

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorKinds(Te *testing.T) {
	err := NewError(KindTransient, "Run", io.ErrUnexpectedEOF, "tool timed out after %d s", 10)
	if !errors.Is(err, ErrTransient) {
		Te.Error("a transient error should match ErrTransient")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		Te.Error("the cause should be visible through errors.Is")
	}
	if errors.Is(err, ErrInput) {
		Te.Error("a transient error should not match ErrInput")
	}
	wrapped := fmt.Errorf("chunk 3: %w", err)
	if KindOf(wrapped) != KindTransient {
		Te.Errorf("KindOf gave %s", KindOf(wrapped))
	}
	ErrDecorate(wrapped, "worker")
	if err.Trace() != "Run <- worker" {
		Te.Errorf("unexpected trace %q", err.Trace())
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		Te.Error("plain errors have no kind")
	}
	if Errorf(KindNumerical, "x", "nan").Critical() {
		Te.Error("numerical errors are not critical")
	}
}
