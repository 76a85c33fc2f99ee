// Package chart turns fetched compressed readings into a plot-ready line
// chart description. Build is a pure function of its Input.
package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// ErrReadingsUndefined means a fetch finished without producing a reading
// collection. It is an upstream bug, so the whole chart fails.
var ErrReadingsUndefined = errors.New("chart: completed fetch has undefined readings")

type Kind string

const (
	KindMeter Kind = "meter"
	KindGroup Kind = "group"
)

// Entity identifies a selectable meter or group.
type Entity struct {
	Kind Kind
	ID   int64
}

// Key addresses the readings fetched for one entity over one time interval.
// Interval is TimeInterval.String().
type Key struct {
	Entity
	Interval string
}

// ReadingSet is the state of one fetch. A nil Readings slice is undefined;
// an empty one is a finished fetch with no data.
type ReadingSet struct {
	IsFetching bool
	Readings   []domain.Reading
}

// ColorFunc assigns a color to an entity.
type ColorFunc func(id int64, kind Kind) string

type Input struct {
	SelectedMeters []int64
	SelectedGroups []int64
	TimeInterval   domain.TimeInterval
	// SliderInterval is the range-slider window; unbounded means use TimeInterval.
	SliderInterval domain.TimeInterval
	Readings       map[Key]ReadingSet
	Names          map[Entity]string
	Color          ColorFunc
	Locale         string
	// Location is the zone hover times are shown in; nil means time.Local.
	// X values are always UTC.
	Location *time.Location
}

type Spec struct {
	Data   []Series `json:"data"`
	Layout Layout   `json:"layout"`
	Config Config   `json:"config"`
	// Bounds is the visible x range derived from meter readings, in unix ms.
	// It is nil when no selected meter has readings.
	Bounds *Bounds `json:"bounds,omitempty"`
}

type Bounds struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

type Series struct {
	Name      string    `json:"name"`
	X         []string  `json:"x"`
	Y         []float64 `json:"y"`
	Text      []string  `json:"text"`
	HoverInfo string    `json:"hoverinfo"`
	Type      string    `json:"type"`
	Mode      string    `json:"mode"`
	Line      Line      `json:"line"`
	Marker    Marker    `json:"marker"`
}

type Line struct {
	Shape string `json:"shape"`
	Width int    `json:"width"`
}

type Marker struct {
	Color string `json:"color"`
}

type Layout struct {
	AutoSize   bool   `json:"autosize"`
	ShowLegend bool   `json:"showlegend"`
	Legend     Legend `json:"legend"`
	YAxis      YAxis  `json:"yaxis"`
	XAxis      XAxis  `json:"xaxis"`
	Margin     Margin `json:"margin"`
}

type Legend struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Orientation string  `json:"orientation"`
}

type YAxis struct {
	Title     string `json:"title"`
	GridColor string `json:"gridcolor"`
}

type XAxis struct {
	// Range is the visible window in unix ms; a nil side is unbounded.
	Range       [2]*int64   `json:"range"`
	RangeSlider RangeSlider `json:"rangeslider"`
	ShowGrid    bool        `json:"showgrid"`
	GridColor   string      `json:"gridcolor"`
}

type RangeSlider struct {
	Thickness float64 `json:"thickness"`
}

type Margin struct {
	T int `json:"t"`
	B int `json:"b"`
}

type Config struct {
	DisplayModeBar bool   `json:"displayModeBar"`
	Locale         string `json:"locale"`
}

const (
	xFormat   = "2006-01-02 15:04:05"
	gridColor = "#ddd"
)

// Build produces the chart for the selected meters followed by the selected
// groups. Entities whose readings are absent or still fetching are left out.
func Build(in Input) (*Spec, error) {
	loc := matchLocale(in.Locale)
	color := in.Color
	if color == nil {
		color = GraphColor
	}
	zone := in.Location
	if zone == nil {
		zone = time.Local
	}
	key := in.TimeInterval.String()

	spec := &Spec{Data: []Series{}}
	for _, sel := range []struct {
		kind Kind
		ids  []int64
	}{{KindMeter, in.SelectedMeters}, {KindGroup, in.SelectedGroups}} {
		for _, id := range sel.ids {
			e := Entity{Kind: sel.kind, ID: id}
			set, ok := in.Readings[Key{Entity: e, Interval: key}]
			if !ok || set.IsFetching {
				continue
			}
			if set.Readings == nil {
				return nil, fmt.Errorf("%w: %s %d interval %s", ErrReadingsUndefined, e.Kind, e.ID, key)
			}
			spec.Data = append(spec.Data, series(in.Names[e], set.Readings, color(id, sel.kind), loc, zone))
			if sel.kind == KindMeter && len(set.Readings) > 0 {
				b := bounds(set.Readings, in.TimeInterval)
				spec.Bounds = &b
			}
		}
	}

	slider := in.SliderInterval
	if slider.IsUnbounded() {
		slider = in.TimeInterval
	}
	spec.Layout = Layout{
		AutoSize:   true,
		ShowLegend: true,
		Legend:     Legend{X: 0, Y: 1.1, Orientation: "h"},
		YAxis:      YAxis{Title: "kW", GridColor: gridColor},
		XAxis: XAxis{
			Range:       xRange(slider),
			RangeSlider: RangeSlider{Thickness: 0.1},
			ShowGrid:    true,
			GridColor:   gridColor,
		},
		Margin: Margin{T: 10, B: 10},
	}
	spec.Config = Config{DisplayModeBar: true, Locale: loc.tag}
	return spec, nil
}

// series is shared by meters and groups.
func series(label string, readings []domain.Reading, color string, loc locale, zone *time.Location) Series {
	s := Series{
		Name:      label,
		X:         make([]string, 0, len(readings)),
		Y:         make([]float64, 0, len(readings)),
		Text:      make([]string, 0, len(readings)),
		HoverInfo: "text",
		Type:      "scatter",
		Mode:      "lines",
		Line:      Line{Shape: "spline", Width: 3},
		Marker:    Marker{Color: color},
	}
	for _, r := range readings {
		t := time.UnixMilli(r.StartTimestamp).UTC()
		s.X = append(s.X, t.Format(xFormat))
		s.Y = append(s.Y, r.Reading)
		s.Text = append(s.Text, fmt.Sprintf("<b> %s </b> <br> %s: %s kW", loc.longDateTime(t.In(zone)), label, toPrecision(r.Reading, 6)))
	}
	return s
}

// bounds derives the visible x range. A bounded side of ti is used as is.
// An unbounded side is padded by one sample spacing beyond the data: below
// the first start (never under zero) and above the last end.
func bounds(readings []domain.Reading, ti domain.TimeInterval) Bounds {
	first, last := readings[0], readings[len(readings)-1]
	spacing := abs(first.EndTimestamp-first.StartTimestamp) / 2
	if len(readings) > 1 {
		spacing = abs(first.StartTimestamp - readings[1].StartTimestamp)
	}

	var b Bounds
	if start, ok := ti.StartTimestamp(); ok {
		b.Min = start
	} else {
		b.Min = max(first.StartTimestamp-spacing, 0)
	}
	if end, ok := ti.EndTimestamp(); ok {
		b.Max = end
	} else {
		b.Max = last.EndTimestamp + spacing
	}
	return b
}

func xRange(ti domain.TimeInterval) [2]*int64 {
	var r [2]*int64
	if s, ok := ti.StartTimestamp(); ok {
		r[0] = &s
	}
	if e, ok := ti.EndTimestamp(); ok {
		r[1] = &e
	}
	return r
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
