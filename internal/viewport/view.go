// Package viewport runs one day view: gesture input is applied on an
// interaction goroutine that never waits, while readouts, settle easing,
// item loading and the clock run on a slower application goroutine.
package viewport

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/cleberrangel/clickup-timeline-api/internal/logger"
	"github.com/cleberrangel/clickup-timeline-api/internal/metrics"
	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

const (
	// DefaultSettleDuration is how long the readout eases after a pinch.
	DefaultSettleDuration = 250 * time.Millisecond
	// FramesPerSecond drives the settle animation.
	FramesPerSecond = 60
	// DefaultClockSpec ticks the current-time marker.
	DefaultClockSpec = "@every 1s"

	inputBuffer   = 64
	appBuffer     = 64
	itemsBuffer   = 4
	clockBuffer   = 1
	refreshBuffer = 1
)

// ErrNoOutput is returned when a view is started without an Output.
var ErrNoOutput = errors.New("viewport: output is required")

// Loader resolves the items of a day.
type Loader interface {
	ItemsForDay(ctx context.Context, day time.Time) (*model.DayItems, error)
}

// Output receives everything a view produces. Frame is called from the
// interaction goroutine, the rest from the application goroutine.
// Implementations must not block.
type Output interface {
	Frame(Frame)
	Readout(Readout)
	Marker(timeline.TimeMarker)
	Items(ItemsNotice)
}

// Frame is the fast-path render of one gesture event.
type Frame struct {
	Seq           uint64                  `json:"seq"`
	Gesture       string                  `json:"gesture"`
	PixelsPerHour float64                 `json:"pixels_per_hour"`
	ScrollOffset  float64                 `json:"scroll_offset"`
	Grid          timeline.GridGeometry   `json:"grid"`
	Items         []timeline.ItemGeometry `json:"items"`
	Marker        timeline.TimeMarker     `json:"marker"`
}

// Readout is the secondary, throttled scale display.
type Readout struct {
	PixelsPerHour float64 `json:"pixels_per_hour"`
	Settling      bool    `json:"settling"`
}

// ItemsNotice reports a change of the loaded day.
type ItemsNotice struct {
	Date        string          `json:"date,omitempty"`
	Count       int             `json:"count"`
	Unscheduled []model.DayItem `json:"unscheduled"`
	Loading     bool            `json:"loading"`
	Stale       bool            `json:"stale,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// AppState is the slow container: what the application goroutine owns.
type AppState struct {
	Readout     float64
	Day         time.Time
	Items       []timeline.Item
	Unscheduled []model.DayItem
	Marker      timeline.TimeMarker
	Loading     bool
	Stale       bool
	Err         string
}

// Config configures a view.
type Config struct {
	Options        timeline.Options
	SettleDuration time.Duration
	Location       *time.Location
	Loader         Loader
	Output         Output
	Metrics        *metrics.Metrics
	// ClockSpec is a cron spec for marker ticks; empty disables the clock.
	ClockSpec string
	Now       func() time.Time
	SessionID string
}

type itemsSnapshot struct {
	day         time.Time
	items       []timeline.Item
	unscheduled []model.DayItem
}

// View is one running day view.
type View struct {
	engine  *timeline.Engine
	out     Output
	metrics *metrics.Metrics
	loader  Loader
	loc     *time.Location
	log     zerolog.Logger

	settleDuration time.Duration
	frameInterval  time.Duration

	input      chan Input
	appEvents  chan appEvent
	settleDone chan uint64
	refresh    chan struct{}
	itemsIn    chan itemsUpdate
	dayIn      chan time.Time
	clock      chan time.Time

	// owned by the interaction goroutine
	frames uint64
	ending bool

	// shared snapshots
	items    atomic.Pointer[itemsSnapshot]
	scaleBit atomic.Uint64
	nowNanos atomic.Int64

	mu    sync.Mutex
	state AppState

	ctx      context.Context
	cancel   context.CancelFunc
	cron     *cron.Cron
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Start builds a view and launches its goroutines. The view runs until
// Stop is called or ctx is cancelled.
func Start(ctx context.Context, cfg Config) (*View, error) {
	if cfg.Output == nil {
		return nil, ErrNoOutput
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Get()
	}
	if cfg.SettleDuration < 0 {
		cfg.SettleDuration = 0
	}

	log := logger.Get(ctx).With().Str("component", "viewport").Logger()
	if cfg.SessionID != "" && logger.GetSessionID(ctx) == "" {
		log = log.With().Str("session_id", cfg.SessionID).Logger()
	}

	v := &View{
		out:            cfg.Output,
		metrics:        cfg.Metrics,
		loader:         cfg.Loader,
		loc:            cfg.Location,
		log:            log,
		settleDuration: cfg.SettleDuration,
		frameInterval:  time.Second / FramesPerSecond,
		input:          make(chan Input, inputBuffer),
		appEvents:      make(chan appEvent, appBuffer),
		settleDone:     make(chan uint64, 1),
		refresh:        make(chan struct{}, refreshBuffer),
		itemsIn:        make(chan itemsUpdate, itemsBuffer),
		dayIn:          make(chan time.Time, 1),
		clock:          make(chan time.Time, clockBuffer),
	}

	opts := cfg.Options
	opts.Readout = timeline.ReadoutSinkFunc(v.publishReadout)
	v.engine = timeline.NewEngine(opts)
	v.storeScale(v.engine.CurrentScale())
	v.nowNanos.Store(cfg.Now().UnixNano())
	v.items.Store(&itemsSnapshot{})
	v.state.Readout = v.engine.CurrentScale()

	if cfg.ClockSpec != "" {
		v.cron = cron.New()
		if _, err := v.cron.AddFunc(cfg.ClockSpec, func() { v.Tick(cfg.Now()) }); err != nil {
			return nil, err
		}
	}

	v.ctx, v.cancel = context.WithCancel(ctx)
	v.wg.Add(2)
	go v.runInteraction(v.ctx)
	go v.runApp(v.ctx)
	if v.cron != nil {
		v.cron.Start()
	}

	v.log.Debug().Float64("pixels_per_hour", v.engine.CurrentScale()).Msg("View iniciada")
	return v, nil
}

// Stop ends both goroutines and the clock. Safe to call more than once.
func (v *View) Stop() {
	v.stopOnce.Do(func() {
		v.cancel()
		if v.cron != nil {
			<-v.cron.Stop().Done()
		}
		v.wg.Wait()
		v.log.Debug().Msg("View encerrada")
	})
}

// Done is closed once the view is stopping.
func (v *View) Done() <-chan struct{} {
	return v.ctx.Done()
}

func (v *View) stopping() bool {
	select {
	case <-v.ctx.Done():
		return true
	default:
		return false
	}
}

// Snapshot captures the live scale for readers off the interaction
// goroutine.
func (v *View) Snapshot() timeline.Snapshot {
	return timeline.Snapshot{PixelsPerHour: math.Float64frombits(v.scaleBit.Load())}
}

// State returns a copy of the slow container.
func (v *View) State() AppState {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.Items = append([]timeline.Item(nil), s.Items...)
	s.Unscheduled = append([]model.DayItem(nil), s.Unscheduled...)
	return s
}

// OpenItem resolves the navigation target of a loaded item. ok is false for
// unknown ids or items without a target.
func (v *View) OpenItem(id string) (target string, ok bool) {
	snap := v.items.Load()
	for _, it := range snap.items {
		if it.ID == id {
			return it.Target, it.Target != ""
		}
	}
	for _, it := range snap.unscheduled {
		if it.ID == id {
			return it.URL, it.URL != ""
		}
	}
	return "", false
}

func (v *View) storeScale(pph float64) {
	v.scaleBit.Store(math.Float64bits(pph))
}

func (v *View) now() time.Time {
	return time.Unix(0, v.nowNanos.Load()).In(v.loc)
}

func (v *View) updateState(fn func(*AppState)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.state)
}
