package dashboard

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/chart"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// Selection is what the user currently wants charted.
type Selection struct {
	Meters         []int64
	Groups         []int64
	TimeInterval   domain.TimeInterval
	SliderInterval domain.TimeInterval
	Locale         string
}

// State holds fetched readings keyed by entity and interval, entity names
// and the current selection. It is safe for concurrent use; Snapshot hands
// the chart builder an independent copy.
type State struct {
	mu        sync.Mutex
	selection Selection
	names     map[chart.Entity]string
	readings  map[chart.Key]chart.ReadingSet
	location  *time.Location
	listeners []func()
}

func NewState(locale string) *State {
	return &State{
		selection: Selection{Locale: locale},
		names:     make(map[chart.Entity]string),
		readings:  make(map[chart.Key]chart.ReadingSet),
	}
}

// OnChange registers fn to run after every state mutation.
func (s *State) OnChange(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *State) changed() {
	s.mu.Lock()
	ls := slices.Clone(s.listeners)
	s.mu.Unlock()
	for _, fn := range ls {
		fn()
	}
}

func (s *State) Select(sel Selection) {
	s.mu.Lock()
	if sel.Locale == "" {
		sel.Locale = s.selection.Locale
	}
	sel.Meters = slices.Clone(sel.Meters)
	sel.Groups = slices.Clone(sel.Groups)
	s.selection = sel
	s.mu.Unlock()
	s.changed()
}

func (s *State) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.selection
	sel.Meters = slices.Clone(sel.Meters)
	sel.Groups = slices.Clone(sel.Groups)
	return sel
}

// SetLocation sets the zone hover times are shown in. Nil means time.Local.
func (s *State) SetLocation(loc *time.Location) {
	s.mu.Lock()
	s.location = loc
	s.mu.Unlock()
	s.changed()
}

// SetNames replaces the display names of one kind of entity.
func (s *State) SetNames(kind chart.Kind, names map[int64]string) {
	s.mu.Lock()
	maps.DeleteFunc(s.names, func(e chart.Entity, _ string) bool { return e.Kind == kind })
	for id, name := range names {
		s.names[chart.Entity{Kind: kind, ID: id}] = name
	}
	s.mu.Unlock()
	s.changed()
}

// BeginFetch marks the given entities as fetching for ti and returns the
// ids that were neither fetched nor in flight already.
func (s *State) BeginFetch(kind chart.Kind, ids []int64, ti domain.TimeInterval) []int64 {
	interval := ti.String()
	var started []int64
	s.mu.Lock()
	for _, id := range ids {
		key := chart.Key{Entity: chart.Entity{Kind: kind, ID: id}, Interval: interval}
		if _, ok := s.readings[key]; ok {
			continue
		}
		s.readings[key] = chart.ReadingSet{IsFetching: true}
		started = append(started, id)
	}
	s.mu.Unlock()
	if len(started) > 0 {
		s.changed()
	}
	return started
}

// CompleteFetch stores fetched readings. Requested ids missing from the
// result are stored as empty.
func (s *State) CompleteFetch(kind chart.Kind, ids []int64, ti domain.TimeInterval, readings map[int64][]domain.Reading) {
	interval := ti.String()
	s.mu.Lock()
	for _, id := range ids {
		rs := readings[id]
		if rs == nil {
			rs = []domain.Reading{}
		}
		key := chart.Key{Entity: chart.Entity{Kind: kind, ID: id}, Interval: interval}
		s.readings[key] = chart.ReadingSet{Readings: slices.Clone(rs)}
	}
	s.mu.Unlock()
	s.changed()
}

// AbortFetch forgets in-flight fetches so that they are retried.
func (s *State) AbortFetch(kind chart.Kind, ids []int64, ti domain.TimeInterval) {
	interval := ti.String()
	s.mu.Lock()
	for _, id := range ids {
		delete(s.readings, chart.Key{Entity: chart.Entity{Kind: kind, ID: id}, Interval: interval})
	}
	s.mu.Unlock()
	s.changed()
}

// Invalidate drops every cached reading set of one entity.
func (s *State) Invalidate(e chart.Entity) {
	s.mu.Lock()
	maps.DeleteFunc(s.readings, func(k chart.Key, rs chart.ReadingSet) bool {
		return k.Entity == e && !rs.IsFetching
	})
	s.mu.Unlock()
	s.changed()
}

// Snapshot returns the chart input for the current state.
func (s *State) Snapshot() chart.Input {
	s.mu.Lock()
	defer s.mu.Unlock()
	return chart.Input{
		SelectedMeters: slices.Clone(s.selection.Meters),
		SelectedGroups: slices.Clone(s.selection.Groups),
		TimeInterval:   s.selection.TimeInterval,
		SliderInterval: s.selection.SliderInterval,
		Readings:       maps.Clone(s.readings),
		Names:          maps.Clone(s.names),
		Color:          chart.GraphColor,
		Locale:         s.selection.Locale,
		Location:       s.location,
	}
}
