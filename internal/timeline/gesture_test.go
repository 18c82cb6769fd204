package timeline

import (
	"testing"
)

type recordingSink struct {
	values []float64
}

func (r *recordingSink) PublishReadout(v float64) {
	r.values = append(r.values, v)
}

func newTestEngine(sink ReadoutSink) *Engine {
	return NewEngine(Options{
		Readout:     sink,
		ReadoutRate: UnlimitedReadoutRate,
	})
}

func TestPinchLifecycle(t *testing.T) {
	e := newTestEngine(nil)

	if e.State() != StateIdle {
		t.Fatalf("expected idle, got %v", e.State())
	}

	e.OnPinchStart(300, 200)
	if e.State() != StateActive {
		t.Fatalf("expected active after start, got %v", e.State())
	}

	session := e.coordinator.Session()
	if session.FocalY != 100 {
		t.Errorf("expected focal y 100 after header offset, got %v", session.FocalY)
	}
	if session.InitialScale != DefaultScale {
		t.Errorf("expected initial scale %v, got %v", DefaultScale, session.InitialScale)
	}

	offset, ok := e.OnPinchUpdate(1.5)
	if !ok {
		t.Fatal("expected update to be applied")
	}
	if e.CurrentScale() != 60 {
		t.Errorf("expected scale 60, got %v", e.CurrentScale())
	}
	if !approx(offset, 350) {
		t.Errorf("expected scroll offset 350, got %v", offset)
	}

	req, ok := e.OnPinchEnd()
	if !ok {
		t.Fatal("expected end to be accepted")
	}
	if e.State() != StateSettling {
		t.Errorf("expected settling, got %v", e.State())
	}
	if req.To != 60 {
		t.Errorf("expected settle target 60, got %v", req.To)
	}
	if session.Active() {
		t.Error("session should be inactive after end")
	}

	if !e.CompleteSettle(req.Seq) {
		t.Fatal("expected settle completion to be accepted")
	}
	if e.State() != StateIdle {
		t.Errorf("expected idle after settle, got %v", e.State())
	}
}

func TestPinchUpdateClampsAndUsesAppliedScale(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchStart(300, 200)

	offset, _ := e.OnPinchUpdate(10)
	if e.CurrentScale() != MaxScale {
		t.Fatalf("expected scale clamped to %v, got %v", MaxScale, e.CurrentScale())
	}
	// (200+100) * (80/40) - 100
	if !approx(offset, 500) {
		t.Errorf("expected offset computed from clamped scale (500), got %v", offset)
	}
}

func TestPinchUpdateIsRelativeToSessionStart(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchStart(200, 0)

	e.OnPinchUpdate(1.2)
	e.OnPinchUpdate(1.25)
	if e.CurrentScale() != 50 {
		t.Errorf("expected 40*1.25 = 50, got %v", e.CurrentScale())
	}
}

func TestPinchUpdateIgnoredOutsideSession(t *testing.T) {
	e := newTestEngine(nil)
	e.ReportScroll(75)

	offset, ok := e.OnPinchUpdate(2)
	if ok {
		t.Error("update while idle should be ignored")
	}
	if offset != 75 || e.CurrentScale() != DefaultScale {
		t.Errorf("idle update changed state: offset=%v scale=%v", offset, e.CurrentScale())
	}
}

func TestPinchUpdateIgnoresBadFactors(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchStart(300, 200)

	for _, factor := range []float64{0, -1} {
		if _, ok := e.OnPinchUpdate(factor); ok {
			t.Errorf("factor %v should be ignored", factor)
		}
	}
	if e.CurrentScale() != DefaultScale {
		t.Errorf("bad factors changed the scale to %v", e.CurrentScale())
	}
}

func TestPinchCancelIsIdempotent(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchStart(300, 200)
	e.OnPinchUpdate(1.5)

	e.OnPinchCancel()
	afterFirst := e.CurrentScale()
	e.OnPinchCancel()

	if e.CurrentScale() != afterFirst {
		t.Errorf("second cancel changed scale from %v to %v", afterFirst, e.CurrentScale())
	}
	if afterFirst != 60 {
		t.Errorf("cancel must not roll back the scale; expected 60, got %v", afterFirst)
	}
	if e.State() != StateIdle {
		t.Errorf("expected idle after cancel, got %v", e.State())
	}
	if e.coordinator.Session().Active() {
		t.Error("session should be released after cancel")
	}
}

func TestPinchCancelWhileIdle(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchCancel()
	e.OnPinchCancel()
	if e.State() != StateIdle || e.CurrentScale() != DefaultScale {
		t.Errorf("cancel on idle engine changed state: %v %v", e.State(), e.CurrentScale())
	}
}

func TestPinchEndWithoutSession(t *testing.T) {
	e := newTestEngine(nil)
	if _, ok := e.OnPinchEnd(); ok {
		t.Error("end without a session should be ignored")
	}
}

func TestSecondStartCancelsFirst(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchStart(300, 200)
	first := e.coordinator.Session()
	e.OnPinchUpdate(1.5)

	e.OnPinchStart(400, 100)
	second := e.coordinator.Session()

	if first.Active() {
		t.Error("first session should be released by the second start")
	}
	if !second.Active() {
		t.Error("second session should be active")
	}
	if second.InitialScale != 60 {
		t.Errorf("second session should start from the live scale 60, got %v", second.InitialScale)
	}
	if e.Seq() != 2 {
		t.Errorf("expected two sessions, got %d", e.Seq())
	}
}

func TestStartWhileSettlingDropsStaleCompletion(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchStart(300, 200)
	e.OnPinchUpdate(1.5)
	req, _ := e.OnPinchEnd()

	e.OnPinchStart(300, 350)
	if e.State() != StateActive {
		t.Fatalf("expected active, got %v", e.State())
	}
	if e.CompleteSettle(req.Seq) {
		t.Error("completion for an older session should be ignored")
	}
	if e.State() != StateActive {
		t.Errorf("stale completion changed state to %v", e.State())
	}
}

func TestReadoutThrottledDuringPinch(t *testing.T) {
	sink := &recordingSink{}
	e := newTestEngine(sink)
	e.OnPinchStart(300, 0)

	// 40 -> 40.4 -> ... -> 44 in 0.4 px steps
	for i := 1; i <= 10; i++ {
		e.OnPinchUpdate(1 + float64(i)*0.01)
	}
	if len(sink.values) >= 10 {
		t.Fatalf("readout should be throttled, got %d values", len(sink.values))
	}
	for i := 1; i < len(sink.values); i++ {
		if absDiff(sink.values[i], sink.values[i-1]) <= DefaultReadoutEpsilon {
			t.Errorf("consecutive readouts %v and %v are within epsilon", sink.values[i-1], sink.values[i])
		}
	}

	e.OnPinchEnd()
	last := sink.values[len(sink.values)-1]
	if last != e.CurrentScale() {
		t.Errorf("readout should end on the settled scale %v, got %v", e.CurrentScale(), last)
	}
}

func TestSettleRequestInterpolation(t *testing.T) {
	req := SettleRequest{From: 40, To: 60}
	if req.Interpolate(0) != 40 {
		t.Errorf("expected 40 at t=0, got %v", req.Interpolate(0))
	}
	if req.Interpolate(1) != 60 {
		t.Errorf("expected 60 at t=1, got %v", req.Interpolate(1))
	}
	prev := req.Interpolate(0)
	for i := 1; i <= 10; i++ {
		v := req.Interpolate(float64(i) / 10)
		if v < prev {
			t.Errorf("easing not monotonic at step %d: %v < %v", i, v, prev)
		}
		prev = v
	}
}

func TestReportScrollIgnoredDuringPinch(t *testing.T) {
	e := newTestEngine(nil)
	e.OnPinchStart(300, 200)
	e.ReportScroll(999)
	if e.ScrollOffset() != 200 {
		t.Errorf("scroll report during pinch should be ignored, got %v", e.ScrollOffset())
	}
}
