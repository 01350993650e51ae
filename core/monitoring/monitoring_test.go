package monitoring

import (
	"errors"
	"testing"
	"time"
)

type recordingMonitor struct {
	errs   []error
	panics []any
}

func (r *recordingMonitor) CaptureException(err error, _ map[string]string) {
	r.errs = append(r.errs, err)
}
func (r *recordingMonitor) CapturePanic(v any, _ map[string]string) { r.panics = append(r.panics, v) }
func (r *recordingMonitor) Flush(time.Duration)                     {}

func TestGuardRecoversPanic(t *testing.T) {
	rec := &recordingMonitor{}
	Init(rec)
	defer Init(NopMonitor{})

	err := Guard(map[string]string{"agent": "pv1"}, func() error { panic("boom") })
	var perr *PanicError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PanicError, got %v", err)
	}
	if len(rec.panics) != 1 || rec.panics[0] != "boom" {
		t.Fatalf("panic not captured: %v", rec.panics)
	}
}

func TestGuardPassesErrors(t *testing.T) {
	want := errors.New("failed")
	if err := Guard(nil, func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}

func TestCaptureExceptionIgnoresNil(t *testing.T) {
	rec := &recordingMonitor{}
	Init(rec)
	defer Init(NopMonitor{})
	CaptureException(nil, nil)
	CaptureException(errors.New("x"), nil)
	if len(rec.errs) != 1 {
		t.Fatalf("expected one captured error, got %d", len(rec.errs))
	}
}
