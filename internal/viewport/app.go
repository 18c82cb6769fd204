package viewport

import (
	"context"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
	"github.com/cleberrangel/clickup-timeline-api/internal/timeline"
)

type eventKind int

const (
	eventReadout eventKind = iota
	eventSettle
	eventSettleAbort
)

func (k eventKind) String() string {
	switch k {
	case eventReadout:
		return "readout"
	case eventSettle:
		return "settle"
	case eventSettleAbort:
		return "settle_abort"
	default:
		return "unknown"
	}
}

// appEvent flows from the interaction goroutine to the application goroutine.
type appEvent struct {
	kind   eventKind
	value  float64
	seq    uint64
	settle timeline.SettleRequest
}

type itemsUpdate struct {
	// gen 0 is applied unconditionally; fetch results must match the
	// current generation.
	gen uint64
	day time.Time
	res *model.DayItems
	err error
}

type settleAnimation struct {
	req     timeline.SettleRequest
	started time.Time
}

// SetDay switches the view to day and loads its items. Frames keep rendering
// the grid while the load is pending.
func (v *View) SetDay(day time.Time) bool {
	if v.stopping() {
		return false
	}
	select {
	case v.dayIn <- day:
		return true
	case <-v.ctx.Done():
		return false
	}
}

// Reload fetches the current day again.
func (v *View) Reload() bool {
	v.mu.Lock()
	day := v.state.Day
	v.mu.Unlock()
	if day.IsZero() {
		return false
	}
	return v.SetDay(day)
}

// SetItems replaces the loaded items directly.
func (v *View) SetItems(items *model.DayItems) bool {
	if items == nil || v.stopping() {
		return false
	}
	select {
	case v.itemsIn <- itemsUpdate{day: items.Date, res: items}:
		return true
	case <-v.ctx.Done():
		return false
	}
}

// Tick feeds the clock. A tick is dropped if the previous one is still
// pending.
func (v *View) Tick(now time.Time) {
	select {
	case v.clock <- now:
	default:
	}
}

func (v *View) runApp(ctx context.Context) {
	defer v.wg.Done()

	var (
		anim     *settleAnimation
		ticker   *time.Ticker
		tick     <-chan time.Time
		fetchGen uint64
	)
	stopAnim := func() {
		if ticker != nil {
			ticker.Stop()
		}
		ticker, tick, anim = nil, nil, nil
	}
	defer stopAnim()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-v.appEvents:
			switch ev.kind {
			case eventReadout:
				if anim != nil {
					// Readouts of the settling session are superseded by
					// the easing; a newer session takes over.
					if ev.seq <= anim.req.Seq {
						continue
					}
					stopAnim()
				}
				v.setReadout(ev.value, false)

			case eventSettle:
				stopAnim()
				anim = &settleAnimation{req: ev.settle, started: time.Now()}
				ticker = time.NewTicker(v.frameInterval)
				tick = ticker.C
				v.setReadout(anim.req.From, true)

			case eventSettleAbort:
				// Um novo gesto começou durante o settle.
				if anim == nil || ev.seq <= anim.req.Seq {
					continue
				}
				stopAnim()
				v.setReadout(ev.value, false)
			}

		case now := <-tick:
			progress := float64(now.Sub(anim.started)) / float64(v.settleDuration)
			if progress < 1 {
				v.setReadout(anim.req.Interpolate(progress), true)
				continue
			}
			seq := anim.req.Seq
			v.setReadout(anim.req.To, false)
			stopAnim()
			select {
			case v.settleDone <- seq:
			case <-ctx.Done():
				return
			}

		case day := <-v.dayIn:
			fetchGen++
			v.startLoad(ctx, fetchGen, day)

		case up := <-v.itemsIn:
			if up.gen != 0 && up.gen != fetchGen {
				continue
			}
			v.applyItems(up)

		case now := <-v.clock:
			v.applyClock(now)
		}
	}
}

func (v *View) setReadout(pph float64, settling bool) {
	v.updateState(func(s *AppState) { s.Readout = pph })
	v.out.Readout(Readout{PixelsPerHour: pph, Settling: settling})
}

// startLoad clears the view for day and fetches it in the background. The
// result comes back through itemsIn tagged with gen.
func (v *View) startLoad(ctx context.Context, gen uint64, day time.Time) {
	y, m, d := day.In(v.loc).Date()
	day = time.Date(y, m, d, 0, 0, 0, 0, v.loc)

	v.items.Store(&itemsSnapshot{day: day})
	v.updateState(func(s *AppState) {
		s.Day = day
		s.Items = nil
		s.Unscheduled = nil
		s.Loading = v.loader != nil
		s.Stale = false
		s.Err = ""
	})
	v.out.Items(ItemsNotice{Date: day.Format("2006-01-02"), Loading: v.loader != nil, Unscheduled: []model.DayItem{}})
	v.requestRefresh()

	if v.loader == nil {
		return
	}
	go func() {
		res, err := v.loader.ItemsForDay(ctx, day)
		select {
		case v.itemsIn <- itemsUpdate{gen: gen, day: day, res: res, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (v *View) applyItems(up itemsUpdate) {
	date := up.day.Format("2006-01-02")
	if up.err != nil {
		v.log.Warn().Err(up.err).Str("date", date).Msg("Falha ao carregar itens do dia")
		v.updateState(func(s *AppState) {
			s.Loading = false
			s.Err = up.err.Error()
		})
		v.out.Items(ItemsNotice{Date: date, Unscheduled: []model.DayItem{}, Error: up.err.Error()})
		return
	}

	res := up.res
	if res == nil {
		res = &model.DayItems{Date: up.day}
	}
	if res.Date.IsZero() {
		res.Date = up.day
	}
	unscheduled := res.Unscheduled
	if unscheduled == nil {
		unscheduled = []model.DayItem{}
	}
	v.items.Store(&itemsSnapshot{day: res.Date, items: res.Items, unscheduled: unscheduled})
	v.updateState(func(s *AppState) {
		s.Day = res.Date
		s.Items = res.Items
		s.Unscheduled = unscheduled
		s.Loading = false
		s.Stale = res.Stale
		s.Err = ""
	})
	v.out.Items(ItemsNotice{
		Date:        res.Date.Format("2006-01-02"),
		Count:       len(res.Items),
		Unscheduled: unscheduled,
		Stale:       res.Stale,
	})
	v.requestRefresh()
}

// applyClock moves the marker. It is published only when it moved.
func (v *View) applyClock(now time.Time) {
	v.nowNanos.Store(now.UnixNano())

	day := v.items.Load().day
	if day.IsZero() {
		day = now
	}
	marker := v.Snapshot().Marker(day, now, v.loc)

	changed := false
	v.updateState(func(s *AppState) {
		changed = s.Marker != marker
		s.Marker = marker
	})
	if changed {
		v.out.Marker(marker)
	}
}
