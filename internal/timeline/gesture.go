package timeline

import "math"

// DefaultHeaderOffset approximates the height of the chrome above the
// scrollable grid. Raw focal points are reported in screen space and are
// shifted by this amount to land in viewport space.
const DefaultHeaderOffset = 200.0

// GestureState is the pinch state machine position.
type GestureState int

const (
	StateIdle GestureState = iota
	StateActive
	StateSettling
	StateCancelled
)

func (s GestureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateSettling:
		return "settling"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// SettleRequest describes the easing the application side should run after a
// pinch ends: from the last readout it showed to the settled scale.
type SettleRequest struct {
	Seq  uint64
	From float64
	To   float64
}

// Coordinator turns raw pinch samples into scale and scroll updates.
//
// All methods run on the gesture input path. Out-of-order callbacks are
// no-ops rather than errors.
type Coordinator struct {
	scale        *ScaleModel
	scroll       *ScrollSynchronizer
	readout      *ReadoutThrottle
	headerOffset float64

	state   GestureState
	session *PinchSession
	seq     uint64
}

// NewCoordinator wires a coordinator to its scale model, scroll synchronizer
// and readout throttle. readout may be nil.
func NewCoordinator(scale *ScaleModel, scroll *ScrollSynchronizer, readout *ReadoutThrottle, headerOffset float64) *Coordinator {
	if isBad(headerOffset) {
		headerOffset = DefaultHeaderOffset
	}
	return &Coordinator{
		scale:        scale,
		scroll:       scroll,
		readout:      readout,
		headerOffset: headerOffset,
		state:        StateIdle,
	}
}

// State returns the current state.
func (c *Coordinator) State() GestureState {
	return c.state
}

// Session returns the current or most recent pinch session, or nil.
func (c *Coordinator) Session() *PinchSession {
	return c.session
}

// Seq counts pinch sessions started so far.
func (c *Coordinator) Seq() uint64 {
	return c.seq
}

// OnPinchStart begins a new session at focalPointRaw with the container
// scrolled to currentScrollOffset. A start while a session is active cancels
// it first; a start while settling finishes the settle first.
func (c *Coordinator) OnPinchStart(focalPointRaw, currentScrollOffset float64) {
	switch c.state {
	case StateActive:
		c.OnPinchCancel()
	case StateSettling:
		c.state = StateIdle
	}

	c.scroll.SetOffset(currentScrollOffset)
	focalY := focalPointRaw - c.headerOffset
	if isBad(focalY) {
		focalY = 0
	}

	c.seq++
	c.session = NewPinchSession(c.scale.PixelsPerHour(), focalY, c.scroll.Offset())
	c.state = StateActive
}

// OnPinchUpdate applies a pinch factor relative to the session start and
// returns the corrected scroll offset. ok is false when the sample was
// ignored: no active session, or a non-positive or non-finite factor.
func (c *Coordinator) OnPinchUpdate(pinchFactor float64) (scrollOffset float64, ok bool) {
	if c.state != StateActive || !c.session.Active() {
		return c.scroll.Offset(), false
	}
	if pinchFactor <= 0 || isBad(pinchFactor) {
		return c.scroll.Offset(), false
	}

	applied := c.scale.SetScale(c.session.InitialScale * pinchFactor)
	offset := c.scroll.OnScaleChanged(c.session, applied)
	if c.readout != nil {
		c.readout.Offer(applied)
	}
	return offset, true
}

// OnPinchEnd moves an active session to settling and returns the easing the
// application side should run. ok is false when there was nothing to end.
func (c *Coordinator) OnPinchEnd() (req SettleRequest, ok bool) {
	if c.state != StateActive {
		return SettleRequest{}, false
	}
	c.session.release()
	c.state = StateSettling

	to := c.scale.SetScale(c.scale.PixelsPerHour())
	from := to
	if c.readout != nil {
		if last, published := c.readout.Last(); published {
			from = last
		}
		c.readout.Flush(to)
	}
	return SettleRequest{Seq: c.seq, From: from, To: to}, true
}

// CompleteSettle finishes the settle started for session seq. Stale
// completions from an earlier session are ignored.
func (c *Coordinator) CompleteSettle(seq uint64) bool {
	if c.state != StateSettling || seq != c.seq {
		return false
	}
	c.state = StateIdle
	return true
}

// OnPinchCancel drops the active session without easing and without
// restoring the pre-gesture scale. Safe to call any number of times.
func (c *Coordinator) OnPinchCancel() {
	if c.state != StateActive {
		return
	}
	c.session.release()
	c.state = StateCancelled
	if c.readout != nil {
		c.readout.Flush(c.scale.PixelsPerHour())
	}
	c.state = StateIdle
}

// EaseOutCubic maps progress t in [0,1] onto an ease-out curve.
func EaseOutCubic(t float64) float64 {
	t = clamp(t, 0, 1)
	return 1 - math.Pow(1-t, 3)
}

// Interpolate returns the eased value between from and to at progress t.
func (r SettleRequest) Interpolate(t float64) float64 {
	return r.From + (r.To-r.From)*EaseOutCubic(t)
}
