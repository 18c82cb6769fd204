package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSnapshotCounters(t *testing.T) {
	m := New()
	m.IncrementRequests(true, 10)
	m.IncrementRequests(false, 30)
	m.IncrementLayout(5)
	m.IncrementPinchStarted()
	m.IncrementPinchCancelled()
	m.IncrementReadout(true)
	m.IncrementReadout(false)
	m.TrackEndpoint("/api/v1/grid", "GET", 200, 4)
	m.TrackEndpoint("/api/v1/grid", "GET", 400, 6)

	s := m.Snapshot()
	if s.Requests.Total != 2 || s.Requests.Failed != 1 || s.Requests.AvgLatencyMs != 20 {
		t.Errorf("unexpected request metrics %+v", s.Requests)
	}
	if s.Layout.Layouts != 1 || s.Layout.Items != 5 {
		t.Errorf("unexpected layout metrics %+v", s.Layout)
	}
	if s.Pinch.Started != 1 || s.Pinch.Cancelled != 1 {
		t.Errorf("unexpected pinch metrics %+v", s.Pinch)
	}
	if s.Readout.Published != 1 || s.Readout.Dropped != 1 {
		t.Errorf("unexpected readout metrics %+v", s.Readout)
	}
	ep := s.Endpoints["GET /api/v1/grid"]
	if ep.Requests != 2 || ep.ErrorRate != 50 || ep.AvgLatencyMs != 5 {
		t.Errorf("unexpected endpoint metrics %+v", ep)
	}
}

func TestConcurrentIncrements(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.IncrementFrame()
				m.TrackEndpoint("/api/v1/ws", "GET", 101, 1)
			}
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	if s.Pinch.Frames != 1000 {
		t.Errorf("expected 1000 frames, got %d", s.Pinch.Frames)
	}
	if s.Endpoints["GET /api/v1/ws"].Requests != 1000 {
		t.Errorf("expected 1000 endpoint hits, got %d", s.Endpoints["GET /api/v1/ws"].Requests)
	}
}

func TestCheckSourceHealth(t *testing.T) {
	fail := errors.New("feed down")

	if got := CheckSourceHealth(time.Time{}, nil, time.Minute); got.Status != "healthy" {
		t.Errorf("expected healthy, got %+v", got)
	}
	if got := CheckSourceHealth(time.Now(), fail, time.Minute); got.Status != "degraded" {
		t.Errorf("expected degraded with a recent success, got %+v", got)
	}
	if got := CheckSourceHealth(time.Now().Add(-time.Hour), fail, time.Minute); got.Status != "unhealthy" {
		t.Errorf("expected unhealthy with an old success, got %+v", got)
	}
}

func TestDetermineOverallStatus(t *testing.T) {
	status := DetermineOverallStatus(map[string]HealthStatus{
		"memory":  {Status: "healthy"},
		"sources": {Status: "degraded"},
	})
	if status != "degraded" {
		t.Errorf("expected degraded, got %s", status)
	}
}
