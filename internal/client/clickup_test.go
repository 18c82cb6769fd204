package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cleberrangel/clickup-timeline-api/internal/model"
)

func TestGetTasksPaginatesAndSendsFilter(t *testing.T) {
	start := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var pages int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "pk_test" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/list/901/task" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if got := r.URL.Query().Get("due_date_lt"); got != fmt.Sprint(end.UnixMilli()) {
			t.Errorf("unexpected due_date_lt %q", got)
		}

		page := atomic.AddInt32(&pages, 1) - 1
		resp := model.TaskResponse{LastPage: page == 1}
		n := PageSize
		if page == 1 {
			n = 3
		}
		for i := 0; i < n; i++ {
			resp.Tasks = append(resp.Tasks, model.Task{ID: fmt.Sprintf("p%d-%d", page, i)})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("pk_test").WithBaseURL(srv.URL)
	tasks, err := c.GetTasks(context.Background(), "901", DayWindow(start, end))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != PageSize+3 {
		t.Errorf("expected %d tasks, got %d", PageSize+3, len(tasks))
	}
	if pages != 2 {
		t.Errorf("expected 2 pages, got %d", pages)
	}
}

func TestGetTasksMapsStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, model.ErrUnauthorized},
		{http.StatusNotFound, model.ErrNotFound},
		{http.StatusTooManyRequests, model.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := NewClient("pk_test").WithBaseURL(srv.URL).WithBackoff(time.Millisecond)
			_, err := c.GetTasks(context.Background(), "901", TaskFilter{})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if calls != 1 {
				t.Errorf("definitive errors must not be retried, got %d calls", calls)
			}
		})
	}
}

func TestGetTasksRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(model.TaskResponse{LastPage: true, Tasks: []model.Task{{ID: "a"}}})
	}))
	defer srv.Close()

	c := NewClient("pk_test").WithBaseURL(srv.URL).WithBackoff(time.Millisecond)
	tasks, err := c.GetTasks(context.Background(), "901", TaskFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tasks) != 1 || calls != 3 {
		t.Errorf("expected 1 task after 3 calls, got %d tasks after %d calls", len(tasks), calls)
	}
}

func TestGetTasksInvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := NewClient("pk_test").WithBaseURL(srv.URL).WithBackoff(time.Millisecond)
	_, err := c.GetTasks(context.Background(), "901", TaskFilter{})
	if !errors.Is(err, model.ErrInvalidResponse) {
		t.Errorf("expected ErrInvalidResponse, got %v", err)
	}
}
