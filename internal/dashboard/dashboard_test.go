package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/chart"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/events"
)

// mockAPI implements API without a running server.
type mockAPI struct {
	mu       sync.Mutex
	calls    int
	readings map[int64][]domain.Reading
	err      error
}

func (m *mockAPI) Meters(context.Context) ([]domain.Meter, error) {
	return []domain.Meter{{ID: 1, Name: "Library"}}, nil
}

func (m *mockAPI) Groups(context.Context) ([]domain.Group, error) {
	return []domain.Group{{ID: 2, Name: "Campus"}}, nil
}

func (m *mockAPI) MeterLine(_ context.Context, ids []int64, _ domain.TimeInterval) (map[int64][]domain.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.readings, m.err
}

func (m *mockAPI) GroupLine(ctx context.Context, ids []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error) {
	return m.MeterLine(ctx, ids, ti)
}

func TestStateFetchLifecycle(t *testing.T) {
	s := NewState("en")
	ti := domain.UnboundedInterval()

	if got := s.BeginFetch(chart.KindMeter, []int64{1, 2}, ti); len(got) != 2 {
		t.Fatalf("BeginFetch = %v", got)
	}
	if got := s.BeginFetch(chart.KindMeter, []int64{1, 2, 3}, ti); len(got) != 1 || got[0] != 3 {
		t.Errorf("second BeginFetch = %v, want [3]", got)
	}

	snap := s.Snapshot()
	key := chart.Key{Entity: chart.Entity{Kind: chart.KindMeter, ID: 1}, Interval: ti.String()}
	if !snap.Readings[key].IsFetching {
		t.Errorf("meter 1 not marked fetching")
	}

	s.CompleteFetch(chart.KindMeter, []int64{1, 2}, ti, map[int64][]domain.Reading{1: {{Reading: 4}}})
	snap2 := s.Snapshot()
	if rs := snap2.Readings[key]; rs.IsFetching || len(rs.Readings) != 1 {
		t.Errorf("meter 1 = %+v", rs)
	}
	key2 := key
	key2.ID = 2
	if rs := snap2.Readings[key2]; rs.Readings == nil || len(rs.Readings) != 0 {
		t.Errorf("meter 2 = %#v, want defined empty readings", rs)
	}
	// Earlier snapshots are unaffected.
	if !snap.Readings[key].IsFetching {
		t.Errorf("snapshot mutated")
	}

	s.AbortFetch(chart.KindMeter, []int64{3}, ti)
	if got := s.BeginFetch(chart.KindMeter, []int64{3}, ti); len(got) != 1 {
		t.Errorf("aborted fetch not retried: %v", got)
	}

	s.Invalidate(chart.Entity{Kind: chart.KindMeter, ID: 1})
	if _, ok := s.Snapshot().Readings[key]; ok {
		t.Errorf("invalidated readings kept")
	}
}

func TestFetcherFillsSelection(t *testing.T) {
	api := &mockAPI{readings: map[int64][]domain.Reading{1: {{Reading: 1, StartTimestamp: 0, EndTimestamp: 10}}}}
	s := NewState("en")
	f := NewFetcher(api, s)
	ctx := context.Background()

	s.Select(Selection{Meters: []int64{1}, TimeInterval: domain.UnboundedInterval()})
	if err := f.Names(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.Readings(ctx); err != nil {
		t.Fatal(err)
	}
	if err := f.Readings(ctx); err != nil {
		t.Fatal(err)
	}
	if api.calls != 1 {
		t.Errorf("API called %d times, want 1", api.calls)
	}

	spec, err := chart.Build(s.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if len(spec.Data) != 1 || spec.Data[0].Name != "Library" {
		t.Errorf("chart data = %+v", spec.Data)
	}
}

func TestFetcherErrorAllowsRetry(t *testing.T) {
	api := &mockAPI{err: errors.New("boom")}
	s := NewState("en")
	f := NewFetcher(api, s)

	s.Select(Selection{Groups: []int64{2}})
	if err := f.Readings(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	api.err = nil
	api.readings = map[int64][]domain.Reading{}
	if err := f.Readings(context.Background()); err != nil {
		t.Fatal(err)
	}
	if api.calls != 2 {
		t.Errorf("API called %d times, want 2", api.calls)
	}
}

func TestServerSelectionAndChart(t *testing.T) {
	api := &mockAPI{readings: map[int64][]domain.Reading{1: {{Reading: 2, StartTimestamp: 0, EndTimestamp: 10}}}}
	s := NewState("en")
	srv := New(api, nil, s)

	req := httptest.NewRequest(http.MethodPost, "/api/selection",
		strings.NewReader(`{"meters":[1],"timeInterval":"all","sliderInterval":"all","locale":"fr"}`))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("selection: %d %s", rec.Code, rec.Body)
	}

	deadline := time.Now().Add(2 * time.Second)
	var spec chart.Spec
	for {
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("chart: %d %s", rec.Code, rec.Body)
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &spec); err != nil {
			t.Fatal(err)
		}
		if len(spec.Data) == 1 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(spec.Data) != 1 {
		t.Fatalf("chart never filled: %+v", spec)
	}
	if spec.Config.Locale != "fr" {
		t.Errorf("locale = %q", spec.Config.Locale)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(`{"timeInterval":"nope"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad interval: got %d", rec.Code)
	}
}

func TestServerChartFailsOnUndefinedReadings(t *testing.T) {
	s := NewState("en")
	srv := New(&mockAPI{}, nil, s)
	s.Select(Selection{Meters: []int64{1}})
	s.mu.Lock()
	s.readings[chart.Key{Entity: chart.Entity{Kind: chart.KindMeter, ID: 1}, Interval: "all"}] = chart.ReadingSet{}
	s.mu.Unlock()

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/chart", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("got %d, want 500", rec.Code)
	}
}

func TestWebSocketReceivesChart(t *testing.T) {
	s := NewState("en")
	srv := New(&mockAPI{}, nil, s)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.handleBroadcast(ctx)

	ts := httptest.NewServer(srv)
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first message
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatal(err)
	}
	if first.Type != "chart" || first.Data == nil {
		t.Fatalf("first message = %+v", first)
	}

	srv.HandleChange(events.Change{Entity: "map", ID: 1, Op: events.OpEdit})
	s.SetNames(chart.KindMeter, map[int64]string{1: "Library"})
	var update message
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatal(err)
	}
	if update.Type != "chart" {
		t.Errorf("update = %+v", update)
	}
}

func TestClientLineReadings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/readings/line/meters/1,2" || r.URL.Query().Get("timeInterval") != "all" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"1":[{"reading":3,"startTimestamp":0,"endTimestamp":10}],"2":[]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL + "/")
	got, err := c.MeterLine(context.Background(), []int64{1, 2}, domain.UnboundedInterval())
	if err != nil {
		t.Fatal(err)
	}
	if len(got[1]) != 1 || got[1][0].Reading != 3 {
		t.Errorf("meter 1 = %+v", got[1])
	}
	if rs, ok := got[2]; !ok || rs == nil || len(rs) != 0 {
		t.Errorf("meter 2 = %#v", rs)
	}

	if _, err := c.GroupLine(context.Background(), []int64{1}, domain.UnboundedInterval()); err == nil {
		t.Error("expected error for 404")
	}
}

func TestConcurrentChangesLeaveLatestChartLast(t *testing.T) {
	s := NewState("en")
	srv := New(&mockAPI{}, nil, s)
	ti := domain.UnboundedInterval()
	s.Select(Selection{Meters: []int64{1}, TimeInterval: ti})
	s.CompleteFetch(chart.KindMeter, []int64{1}, ti, map[int64][]domain.Reading{1: {{Reading: 1, EndTimestamp: 10}}})

	var wg sync.WaitGroup
	for i := 0; i < 400; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SetNames(chart.KindMeter, map[int64]string{1: fmt.Sprintf("meter-%d", i)})
		}()
	}
	wg.Wait()

	var last message
	for drained := false; !drained; {
		select {
		case last = <-srv.broadcast:
		default:
			drained = true
		}
	}
	want := s.Snapshot().Names[chart.Entity{Kind: chart.KindMeter, ID: 1}]
	if last.Data == nil || len(last.Data.Data) != 1 {
		t.Fatalf("last message = %+v", last)
	}
	if got := last.Data.Data[0].Name; got != want {
		t.Errorf("last queued chart shows %q, state has %q", got, want)
	}
}

func TestStateLocationReachesChart(t *testing.T) {
	s := NewState("en")
	if s.Snapshot().Location != nil {
		t.Error("default location should be nil (host zone)")
	}
	est := time.FixedZone("EST", -5*60*60)
	s.SetLocation(est)
	if s.Snapshot().Location != est {
		t.Error("location not carried into chart input")
	}
}
