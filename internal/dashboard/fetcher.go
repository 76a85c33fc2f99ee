package dashboard

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/chart"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// API is the part of the REST API the dashboard reads.
type API interface {
	Meters(ctx context.Context) ([]domain.Meter, error)
	Groups(ctx context.Context) ([]domain.Group, error)
	MeterLine(ctx context.Context, ids []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error)
	GroupLine(ctx context.Context, ids []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error)
}

// Fetcher loads whatever the current selection is missing into State.
type Fetcher struct {
	api   API
	state *State
}

func NewFetcher(api API, state *State) *Fetcher {
	return &Fetcher{api: api, state: state}
}

// Readings fetches line readings for selected entities not yet cached for the
// selected interval. Meter and group requests run concurrently.
func (f *Fetcher) Readings(ctx context.Context) error {
	sel := f.state.Selection()
	g, ctx := errgroup.WithContext(ctx)
	for _, batch := range []struct {
		kind  chart.Kind
		ids   []int64
		fetch func(context.Context, []int64, domain.TimeInterval) (map[int64][]domain.Reading, error)
	}{
		{chart.KindMeter, sel.Meters, f.api.MeterLine},
		{chart.KindGroup, sel.Groups, f.api.GroupLine},
	} {
		ids := f.state.BeginFetch(batch.kind, batch.ids, sel.TimeInterval)
		if len(ids) == 0 {
			continue
		}
		g.Go(func() error {
			readings, err := batch.fetch(ctx, ids, sel.TimeInterval)
			if err != nil {
				f.state.AbortFetch(batch.kind, ids, sel.TimeInterval)
				log.Error().Err(err).Str("kind", string(batch.kind)).Ints64("ids", ids).Msg("line readings fetch failed")
				return err
			}
			f.state.CompleteFetch(batch.kind, ids, sel.TimeInterval, readings)
			return nil
		})
	}
	return g.Wait()
}

// Names refreshes meter and group display names.
func (f *Fetcher) Names(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		meters, err := f.api.Meters(ctx)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(meters))
		for _, m := range meters {
			names[m.ID] = m.Name
		}
		f.state.SetNames(chart.KindMeter, names)
		return nil
	})
	g.Go(func() error {
		groups, err := f.api.Groups(ctx)
		if err != nil {
			return err
		}
		names := make(map[int64]string, len(groups))
		for _, gr := range groups {
			names[gr.ID] = gr.Name
		}
		f.state.SetNames(chart.KindGroup, names)
		return nil
	})
	return g.Wait()
}
