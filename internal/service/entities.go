package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/events"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/repository"
)

type MeterService struct {
	store  *repository.MeterStore
	notify notifier
}

// List returns every meter when all is set, otherwise only displayable ones.
func (s *MeterService) List(ctx context.Context, all bool) ([]domain.Meter, error) {
	if all {
		return s.store.GetAll(ctx)
	}
	return s.store.GetDisplayable(ctx)
}

func (s *MeterService) Get(ctx context.Context, id int64) (domain.Meter, error) {
	return s.store.GetByID(ctx, id)
}

func (s *MeterService) Create(ctx context.Context, m *domain.Meter) error {
	if err := s.store.Insert(ctx, m); err != nil {
		return err
	}
	s.notify.changed(ctx, "meter", m.ID, events.OpCreate)
	return nil
}

func (s *MeterService) Edit(ctx context.Context, m *domain.Meter) error {
	if err := s.store.Update(ctx, m); err != nil {
		return err
	}
	s.notify.changed(ctx, "meter", m.ID, events.OpEdit)
	return nil
}

type GroupService struct {
	store  *repository.GroupStore
	notify notifier
}

func (s *GroupService) List(ctx context.Context) ([]domain.Group, error) {
	return s.store.GetAll(ctx)
}

func (s *GroupService) Get(ctx context.Context, id int64) (domain.Group, error) {
	return s.store.GetByID(ctx, id)
}

func (s *GroupService) Children(ctx context.Context, id int64) (domain.Children, error) {
	return s.store.ImmediateChildren(ctx, id)
}

func (s *GroupService) DeepMeters(ctx context.Context, id int64) ([]int64, error) {
	return s.store.DeepChildMeters(ctx, id)
}

func (s *GroupService) DeepGroups(ctx context.Context, id int64) ([]int64, error) {
	return s.store.DeepChildGroups(ctx, id)
}

func (s *GroupService) Create(ctx context.Context, g *domain.Group, children domain.Children) error {
	if err := s.store.Create(ctx, g, children.Meters, children.Groups); err != nil {
		return err
	}
	s.notify.changed(ctx, "group", g.ID, events.OpCreate)
	return nil
}

func (s *GroupService) Edit(ctx context.Context, g *domain.Group, children domain.Children) error {
	if err := s.store.Edit(ctx, g, children.Meters, children.Groups); err != nil {
		return err
	}
	s.notify.changed(ctx, "group", g.ID, events.OpEdit)
	return nil
}

func (s *GroupService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.changed(ctx, "group", id, events.OpDelete)
	return nil
}

type MapService struct {
	store   *repository.MapStore
	archive MapArchive
	notify  notifier
}

func (s *MapService) List(ctx context.Context, all bool) ([]domain.Map, error) {
	if all {
		return s.store.GetAll(ctx)
	}
	return s.store.GetDisplayable(ctx)
}

func (s *MapService) Get(ctx context.Context, id int64) (domain.Map, error) {
	return s.store.GetByID(ctx, id)
}

func (s *MapService) Create(ctx context.Context, m *domain.Map) error {
	if err := s.store.Insert(ctx, m); err != nil {
		return err
	}
	s.mirror(ctx, *m)
	s.notify.changed(ctx, "map", m.ID, events.OpCreate)
	return nil
}

func (s *MapService) Edit(ctx context.Context, m *domain.Map) error {
	if err := s.store.Update(ctx, m); err != nil {
		return err
	}
	s.mirror(ctx, *m)
	s.notify.changed(ctx, "map", m.ID, events.OpEdit)
	return nil
}

// Delete removes a map. Deleting an id that does not exist succeeds.
func (s *MapService) Delete(ctx context.Context, id int64) error {
	existing, err := s.store.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.archive != nil {
		if err := s.archive.Remove(ctx, existing); err != nil {
			log.Warn().Err(err).Int64("map_id", id).Msg("map archive remove failed")
		}
	}
	s.notify.changed(ctx, "map", id, events.OpDelete)
	return nil
}

func (s *MapService) mirror(ctx context.Context, m domain.Map) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Store(ctx, m); err != nil {
		log.Warn().Err(err).Int64("map_id", m.ID).Msg("map archive store failed")
	}
}
