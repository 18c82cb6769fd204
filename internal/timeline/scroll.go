package timeline

// PinchSession is the state captured when a pinch gesture starts. Its fields
// never change after capture; only the active flag is cleared when the
// gesture ends or is cancelled.
type PinchSession struct {
	InitialScale        float64
	FocalY              float64
	InitialScrollOffset float64

	active bool
}

// NewPinchSession captures an active session.
func NewPinchSession(initialScale, focalY, initialScrollOffset float64) *PinchSession {
	return &PinchSession{
		InitialScale:        initialScale,
		FocalY:              focalY,
		InitialScrollOffset: initialScrollOffset,
		active:              true,
	}
}

// Active reports whether the gesture that created the session is still live.
func (p *PinchSession) Active() bool {
	return p != nil && p.active
}

func (p *PinchSession) release() {
	if p != nil {
		p.active = false
	}
}

// FocalScrollOffset returns the scroll offset that keeps the content point
// that was under the focal point at gesture start under it at currentScale.
// The result is never negative; there is no upper clamp.
func FocalScrollOffset(session *PinchSession, currentScale float64) float64 {
	scaleFactor := currentScale / session.InitialScale
	contentAtFocal := session.InitialScrollOffset + session.FocalY
	offset := contentAtFocal*scaleFactor - session.FocalY
	if offset < 0 || isBad(offset) {
		return 0
	}
	return offset
}

// ScrollSynchronizer tracks the scroll offset of the grid and corrects it on
// every scale change made during an active pinch.
type ScrollSynchronizer struct {
	offset float64
}

// Offset returns the last known scroll offset.
func (s *ScrollSynchronizer) Offset() float64 {
	return s.offset
}

// SetOffset records a scroll position reported by the scrolling container.
// Negative values are clamped to zero.
func (s *ScrollSynchronizer) SetOffset(offset float64) {
	if offset < 0 || isBad(offset) {
		offset = 0
	}
	s.offset = offset
}

// OnScaleChanged recomputes the offset for currentScale. Outside an active
// session the offset is left alone.
func (s *ScrollSynchronizer) OnScaleChanged(session *PinchSession, currentScale float64) float64 {
	if !session.Active() || session.InitialScale <= 0 {
		return s.offset
	}
	s.offset = FocalScrollOffset(session, currentScale)
	return s.offset
}
