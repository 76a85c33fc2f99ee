package http

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiterEvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(rate.Every(time.Hour), 1)
	l.now = func() time.Time { return now }

	if !l.allow("10.0.0.1") {
		t.Fatal("first attempt throttled")
	}
	if l.allow("10.0.0.1") {
		t.Fatal("second attempt allowed")
	}

	now = now.Add(5 * time.Minute)
	l.allow("10.0.0.2")
	if l.allow("10.0.0.1") {
		t.Error("recently seen client lost its throttle state")
	}
	if len(l.buckets) != 2 {
		t.Errorf("tracking %d clients, want 2", len(l.buckets))
	}

	now = now.Add(limiterIdle + time.Minute)
	l.allow("10.0.0.3")
	if len(l.buckets) != 1 {
		t.Errorf("tracking %d clients after idle period, want 1", len(l.buckets))
	}
	if _, ok := l.buckets["10.0.0.3"]; !ok {
		t.Error("active client evicted")
	}
}
