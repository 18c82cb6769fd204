package viewport

import (
	"context"

	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

// InputKind names a gesture event from the view shell.
type InputKind int

const (
	InputPinchStart InputKind = iota
	InputPinchUpdate
	InputPinchEnd
	InputPinchCancel
	InputScroll
)

// Input is one gesture event. FocalY and ScrollOffset are used by
// InputPinchStart; ScrollOffset alone by InputScroll; Factor by
// InputPinchUpdate.
type Input struct {
	Kind         InputKind
	FocalY       float64
	ScrollOffset float64
	Factor       float64
}

// PinchStart begins a pinch at focalY with the container at scrollOffset.
func (v *View) PinchStart(focalY, scrollOffset float64) bool {
	return v.Send(Input{Kind: InputPinchStart, FocalY: focalY, ScrollOffset: scrollOffset})
}

// PinchUpdate applies a factor relative to the pinch start.
func (v *View) PinchUpdate(factor float64) bool {
	return v.Send(Input{Kind: InputPinchUpdate, Factor: factor})
}

// PinchEnd ends the pinch and starts the settle.
func (v *View) PinchEnd() bool {
	return v.Send(Input{Kind: InputPinchEnd})
}

// PinchCancel drops the pinch.
func (v *View) PinchCancel() bool {
	return v.Send(Input{Kind: InputPinchCancel})
}

// ReportScroll records a scroll position from the container.
func (v *View) ReportScroll(offset float64) bool {
	return v.Send(Input{Kind: InputScroll, ScrollOffset: offset})
}

// Send queues an input for the interaction goroutine. It reports false once
// the view is stopping.
func (v *View) Send(in Input) bool {
	if v.stopping() {
		return false
	}
	select {
	case v.input <- in:
		return true
	case <-v.ctx.Done():
		return false
	}
}

func (v *View) runInteraction(ctx context.Context) {
	defer v.wg.Done()
	v.emitFrame()

	for {
		select {
		case <-ctx.Done():
			return
		case in := <-v.input:
			if v.apply(in) {
				v.emitFrame()
			}
		case seq := <-v.settleDone:
			if v.engine.CompleteSettle(seq) {
				v.emitFrame()
			}
		case <-v.refresh:
			v.emitFrame()
		}
	}
}

// apply runs one input through the engine and reports whether anything
// changed.
func (v *View) apply(in Input) bool {
	switch in.Kind {
	case InputPinchStart:
		prev := v.engine.State()
		if prev == timeline.StateActive {
			v.metrics.IncrementPinchCancelled()
		}
		v.engine.OnPinchStart(in.FocalY, in.ScrollOffset)
		v.metrics.IncrementPinchStarted()
		if prev == timeline.StateSettling {
			v.postApp(appEvent{kind: eventSettleAbort, value: v.engine.CurrentScale(), seq: v.engine.Seq()})
		}

	case InputPinchUpdate:
		if _, ok := v.engine.OnPinchUpdate(in.Factor); !ok {
			return false
		}

	case InputPinchEnd:
		v.ending = true
		req, ok := v.engine.OnPinchEnd()
		v.ending = false
		if !ok {
			return false
		}
		v.metrics.IncrementPinchEnded()
		v.startSettle(req)

	case InputPinchCancel:
		if v.engine.State() != timeline.StateActive {
			return false
		}
		v.engine.OnPinchCancel()
		v.metrics.IncrementPinchCancelled()

	case InputScroll:
		if v.engine.State() == timeline.StateActive {
			return false
		}
		v.engine.ReportScroll(in.ScrollOffset)

	default:
		return false
	}

	v.storeScale(v.engine.CurrentScale())
	return true
}

// startSettle hands the easing to the application goroutine. With no settle
// duration, or no room in the queue, the settle completes immediately.
func (v *View) startSettle(req timeline.SettleRequest) {
	if v.settleDuration > 0 && v.postApp(appEvent{kind: eventSettle, settle: req, seq: req.Seq}) {
		return
	}
	v.engine.CompleteSettle(req.Seq)
	v.postApp(appEvent{kind: eventReadout, value: req.To, seq: req.Seq})
}

// publishReadout is the engine's readout sink. It runs on the interaction
// goroutine. The flush at pinch end is dropped: the settle delivers it.
func (v *View) publishReadout(pph float64) {
	if v.ending {
		return
	}
	v.postApp(appEvent{kind: eventReadout, value: pph, seq: v.engine.Seq()})
}

func (v *View) postApp(ev appEvent) bool {
	select {
	case v.appEvents <- ev:
		if ev.kind == eventReadout {
			v.metrics.IncrementReadout(true)
		}
		return true
	default:
		if ev.kind == eventReadout {
			v.metrics.IncrementReadout(false)
		}
		v.log.Warn().Str("event", ev.kind.String()).Msg("Fila da aplicação cheia, evento descartado")
		return false
	}
}

func (v *View) emitFrame() {
	snap := v.items.Load()
	day := snap.day
	now := v.now()
	if day.IsZero() {
		day = now
	}

	v.frames++
	v.out.Frame(Frame{
		Seq:           v.frames,
		Gesture:       v.engine.State().String(),
		PixelsPerHour: v.engine.CurrentScale(),
		ScrollOffset:  v.engine.ScrollOffset(),
		Grid:          v.engine.GetGridGeometry(),
		Items:         v.engine.GetLayout(snap.items),
		Marker:        v.engine.CurrentTimeMarker(day, now, v.loc),
	})
	v.metrics.IncrementFrame()
}

// requestRefresh asks the interaction goroutine for a new frame. Requests
// coalesce.
func (v *View) requestRefresh() {
	select {
	case v.refresh <- struct{}{}:
	default:
	}
}
