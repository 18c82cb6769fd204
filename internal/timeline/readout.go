package timeline

import (
	"math"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultReadoutEpsilon is the minimum change, in px/h, before the
	// secondary readout is refreshed.
	DefaultReadoutEpsilon = 2.0
	// DefaultReadoutRate caps readout refreshes per second.
	DefaultReadoutRate = 30
	// UnlimitedReadoutRate disables the per-second cap; only the epsilon
	// filter applies.
	UnlimitedReadoutRate = -1
)

// ReadoutSink receives throttled scale readouts. Implementations must not
// block: the throttle is called from the gesture path.
type ReadoutSink interface {
	PublishReadout(pixelsPerHour float64)
}

// ReadoutSinkFunc adapts a function to ReadoutSink.
type ReadoutSinkFunc func(pixelsPerHour float64)

// PublishReadout calls f.
func (f ReadoutSinkFunc) PublishReadout(pixelsPerHour float64) {
	f(pixelsPerHour)
}

// ReadoutThrottle forwards scale values to a slower consumer only when the
// value moved by more than Epsilon since the last forwarded value, and no
// more often than the limiter allows.
type ReadoutThrottle struct {
	epsilon   float64
	limiter   *rate.Limiter
	sink      ReadoutSink
	last      float64
	published bool
}

// NewReadoutThrottle builds a throttle. A non-positive epsilon or a zero
// perSecond uses the defaults; a negative perSecond removes the cap. A nil
// sink discards readouts.
func NewReadoutThrottle(sink ReadoutSink, epsilon float64, perSecond int) *ReadoutThrottle {
	if epsilon <= 0 || isBad(epsilon) {
		epsilon = DefaultReadoutEpsilon
	}
	if perSecond == 0 {
		perSecond = DefaultReadoutRate
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Every(time.Second / time.Duration(perSecond))
	}
	return &ReadoutThrottle{
		epsilon: epsilon,
		limiter: rate.NewLimiter(limit, 1),
		sink:    sink,
	}
}

// Offer publishes v if it differs enough from the last published value and
// the rate budget allows it. It reports whether v was published.
func (t *ReadoutThrottle) Offer(v float64) bool {
	if t.published && math.Abs(v-t.last) <= t.epsilon {
		return false
	}
	if !t.limiter.Allow() {
		return false
	}
	t.publish(v)
	return true
}

// Flush publishes v unless it is exactly the last published value. Used at
// gesture boundaries so the readout ends on the settled scale.
func (t *ReadoutThrottle) Flush(v float64) bool {
	if t.published && v == t.last {
		return false
	}
	t.publish(v)
	return true
}

// Last returns the last published value and whether anything was published.
func (t *ReadoutThrottle) Last() (float64, bool) {
	return t.last, t.published
}

func (t *ReadoutThrottle) publish(v float64) {
	t.last = v
	t.published = true
	if t.sink != nil {
		t.sink.PublishReadout(v)
	}
}
