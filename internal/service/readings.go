package service

import (
	"context"
	"sort"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/repository"
)

// ReadingService answers line-chart queries with compressed readings.
type ReadingService struct {
	readings  *repository.ReadingStore
	groups    *repository.GroupStore
	maxPoints int
}

// MeterLine returns the compressed readings of each meter inside ti.
func (s *ReadingService) MeterLine(ctx context.Context, meterIDs []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error) {
	raw, err := s.readings.ForMeters(ctx, meterIDs, ti)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]domain.Reading, len(raw))
	for id, rs := range raw {
		out[id] = compress(rs, s.maxPoints)
	}
	return out, nil
}

// GroupLine returns, per group, the sum of the readings of all of its deep
// child meters, compressed the same way as MeterLine.
func (s *ReadingService) GroupLine(ctx context.Context, groupIDs []int64, ti domain.TimeInterval) (map[int64][]domain.Reading, error) {
	members := make(map[int64][]int64, len(groupIDs))
	seen := make(map[int64]bool)
	var all []int64
	for _, gid := range groupIDs {
		ids, err := s.groups.DeepChildMeters(ctx, gid)
		if err != nil {
			return nil, err
		}
		members[gid] = ids
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				all = append(all, id)
			}
		}
	}

	raw, err := s.readings.ForMeters(ctx, all, ti)
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]domain.Reading, len(groupIDs))
	for gid, ids := range members {
		sets := make([][]domain.Reading, 0, len(ids))
		for _, id := range ids {
			sets = append(sets, raw[id])
		}
		out[gid] = compress(sumByStart(sets), s.maxPoints)
	}
	return out, nil
}

// sumByStart adds up readings that share a start timestamp.
func sumByStart(sets [][]domain.Reading) []domain.Reading {
	byStart := make(map[int64]*domain.Reading)
	for _, rs := range sets {
		for _, r := range rs {
			acc, ok := byStart[r.StartTimestamp]
			if !ok {
				c := r
				byStart[r.StartTimestamp] = &c
				continue
			}
			acc.Reading += r.Reading
			if r.EndTimestamp > acc.EndTimestamp {
				acc.EndTimestamp = r.EndTimestamp
			}
		}
	}
	out := make([]domain.Reading, 0, len(byStart))
	for _, r := range byStart {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTimestamp < out[j].StartTimestamp })
	return out
}

// compress averages consecutive readings into at most max buckets. Each
// bucket spans from its first reading's start to its last reading's end.
func compress(readings []domain.Reading, max int) []domain.Reading {
	if max <= 0 || len(readings) <= max {
		return readings
	}
	size := (len(readings) + max - 1) / max
	out := make([]domain.Reading, 0, max)
	for i := 0; i < len(readings); i += size {
		end := min(i+size, len(readings))
		chunk := readings[i:end]
		var sum float64
		for _, r := range chunk {
			sum += r.Reading
		}
		out = append(out, domain.Reading{
			Reading:        sum / float64(len(chunk)),
			StartTimestamp: chunk[0].StartTimestamp,
			EndTimestamp:   chunk[len(chunk)-1].EndTimestamp,
		})
	}
	return out
}
