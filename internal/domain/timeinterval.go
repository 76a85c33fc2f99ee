package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeInterval is a timestamp range where either side may be unbounded.
// A zero time.Time marks an unbounded side.
type TimeInterval struct {
	start time.Time
	end   time.Time
}

func NewTimeInterval(start, end time.Time) TimeInterval {
	return TimeInterval{start: start.UTC(), end: end.UTC()}
}

func UnboundedInterval() TimeInterval { return TimeInterval{} }

func (ti TimeInterval) Start() (time.Time, bool) { return ti.start, !ti.start.IsZero() }
func (ti TimeInterval) End() (time.Time, bool)   { return ti.end, !ti.end.IsZero() }

// StartTimestamp returns the start in unix milliseconds, if bounded.
func (ti TimeInterval) StartTimestamp() (int64, bool) {
	if ti.start.IsZero() {
		return 0, false
	}
	return ti.start.UnixMilli(), true
}

// EndTimestamp returns the end in unix milliseconds, if bounded.
func (ti TimeInterval) EndTimestamp() (int64, bool) {
	if ti.end.IsZero() {
		return 0, false
	}
	return ti.end.UnixMilli(), true
}

func (ti TimeInterval) IsUnbounded() bool { return ti.start.IsZero() && ti.end.IsZero() }

func (ti TimeInterval) Equal(other TimeInterval) bool {
	return ti.start.Equal(other.start) && ti.end.Equal(other.end)
}

// Contains reports whether a reading starting at ms lies inside the interval.
func (ti TimeInterval) Contains(ms int64) bool {
	if s, ok := ti.StartTimestamp(); ok && ms < s {
		return false
	}
	if e, ok := ti.EndTimestamp(); ok && ms >= e {
		return false
	}
	return true
}

// String is the cache key used for fetched readings; ParseTimeInterval inverts it.
// Bounds keep their sub-second part so the key survives a round trip exactly.
func (ti TimeInterval) String() string {
	if ti.IsUnbounded() {
		return "all"
	}
	start, end := "-inf", "inf"
	if !ti.start.IsZero() {
		start = ti.start.Format(time.RFC3339Nano)
	}
	if !ti.end.IsZero() {
		end = ti.end.Format(time.RFC3339Nano)
	}
	return start + "_" + end
}

func ParseTimeInterval(s string) (TimeInterval, error) {
	if s == "" || s == "all" {
		return UnboundedInterval(), nil
	}
	startStr, endStr, ok := strings.Cut(s, "_")
	if !ok {
		return TimeInterval{}, fmt.Errorf("time interval %q: missing separator", s)
	}
	var ti TimeInterval
	if startStr != "-inf" {
		t, err := time.Parse(time.RFC3339Nano, startStr)
		if err != nil {
			return TimeInterval{}, fmt.Errorf("time interval start: %w", err)
		}
		ti.start = t.UTC()
	}
	if endStr != "inf" {
		t, err := time.Parse(time.RFC3339Nano, endStr)
		if err != nil {
			return TimeInterval{}, fmt.Errorf("time interval end: %w", err)
		}
		ti.end = t.UTC()
	}
	if !ti.start.IsZero() && !ti.end.IsZero() && ti.end.Before(ti.start) {
		return TimeInterval{}, fmt.Errorf("time interval %q: end before start", s)
	}
	return ti, nil
}
