package timeline

import "time"

// Options tunes an Engine. Zero values select the defaults.
type Options struct {
	Bounds         Bounds
	HeaderOffset   *float64
	ReadoutEpsilon float64
	ReadoutRate    int
	Readout        ReadoutSink
}

// Engine bundles the scale model, gesture coordinator, scroll synchronizer
// and renderers of one view. It has a single owner and is not safe for
// concurrent use.
type Engine struct {
	scale       *ScaleModel
	scroll      *ScrollSynchronizer
	readout     *ReadoutThrottle
	coordinator *Coordinator
}

// NewEngine builds an engine from opts.
func NewEngine(opts Options) *Engine {
	bounds := opts.Bounds
	if bounds == (Bounds{}) {
		bounds = DefaultBounds()
	}
	headerOffset := DefaultHeaderOffset
	if opts.HeaderOffset != nil {
		headerOffset = *opts.HeaderOffset
	}

	scale := NewScaleModel(bounds)
	scroll := &ScrollSynchronizer{}
	readout := NewReadoutThrottle(opts.Readout, opts.ReadoutEpsilon, opts.ReadoutRate)
	return &Engine{
		scale:       scale,
		scroll:      scroll,
		readout:     readout,
		coordinator: NewCoordinator(scale, scroll, readout, headerOffset),
	}
}

// CurrentScale is the live pixels-per-hour value.
func (e *Engine) CurrentScale() float64 {
	return e.scale.PixelsPerHour()
}

// Scale exposes the underlying scale model for read-only rendering.
func (e *Engine) Scale() *ScaleModel {
	return e.scale
}

// ScrollOffset is the last computed or reported scroll offset.
func (e *Engine) ScrollOffset() float64 {
	return e.scroll.Offset()
}

// ReportScroll records a scroll position from the container. Ignored during
// an active pinch, when the synchronizer owns the offset.
func (e *Engine) ReportScroll(offset float64) {
	if e.coordinator.State() == StateActive {
		return
	}
	e.scroll.SetOffset(offset)
}

// State is the gesture state.
func (e *Engine) State() GestureState {
	return e.coordinator.State()
}

// Seq counts pinch sessions started so far.
func (e *Engine) Seq() uint64 {
	return e.coordinator.Seq()
}

// OnPinchStart forwards to the coordinator.
func (e *Engine) OnPinchStart(focalPointRaw, currentScrollOffset float64) {
	e.coordinator.OnPinchStart(focalPointRaw, currentScrollOffset)
}

// OnPinchUpdate forwards to the coordinator.
func (e *Engine) OnPinchUpdate(pinchFactor float64) (float64, bool) {
	return e.coordinator.OnPinchUpdate(pinchFactor)
}

// OnPinchEnd forwards to the coordinator.
func (e *Engine) OnPinchEnd() (SettleRequest, bool) {
	return e.coordinator.OnPinchEnd()
}

// CompleteSettle forwards to the coordinator.
func (e *Engine) CompleteSettle(seq uint64) bool {
	return e.coordinator.CompleteSettle(seq)
}

// OnPinchCancel forwards to the coordinator.
func (e *Engine) OnPinchCancel() {
	e.coordinator.OnPinchCancel()
}

// GetLayout lays out items at the live scale.
func (e *Engine) GetLayout(items []Item) []ItemGeometry {
	return GetLayout(items, e.scale)
}

// GetGridGeometry lays out the grid at the live scale.
func (e *Engine) GetGridGeometry() GridGeometry {
	return GetGridGeometry(e.scale)
}

// CurrentTimeMarker positions the "now" indicator at the live scale.
func (e *Engine) CurrentTimeMarker(day, now time.Time, loc *time.Location) TimeMarker {
	return CurrentTimeMarker(e.scale, day, now, loc)
}

// Snapshot is an immutable copy of everything a renderer needs at one scale.
type Snapshot struct {
	PixelsPerHour float64
}

// Layout lays out items for the snapshot's scale.
func (s Snapshot) Layout(items []Item) []ItemGeometry {
	return layoutAt(items, s.PixelsPerHour)
}

// Grid lays out the grid for the snapshot's scale.
func (s Snapshot) Grid() GridGeometry {
	return gridAt(s.PixelsPerHour)
}

// Marker positions the "now" indicator for the snapshot's scale.
func (s Snapshot) Marker(day, now time.Time, loc *time.Location) TimeMarker {
	return markerAt(s.PixelsPerHour, day, now, loc)
}

// Snapshot captures the live scale for readers outside the owning
// goroutine.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{PixelsPerHour: e.scale.PixelsPerHour()}
}

// SnapshotAt builds a snapshot for an arbitrary scale clamped into b. Used
// by stateless callers such as HTTP handlers. A NaN scale yields b.Initial.
func SnapshotAt(b Bounds, pixelsPerHour float64) Snapshot {
	s := NewScaleModel(b)
	s.SetScale(pixelsPerHour)
	return Snapshot{PixelsPerHour: s.PixelsPerHour()}
}
