package repository

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

// GroupStore persists groups and the two containment relations
// (group owns meter, group owns subgroup). Containment stays acyclic.
type GroupStore struct {
	db *sqlx.DB
}

const groupColumns = `id, name, displayable, gps_latitude, gps_longitude, note, area`

type groupRow struct {
	ID          int64    `db:"id"`
	Name        string   `db:"name"`
	Displayable bool     `db:"displayable"`
	Latitude    *float64 `db:"gps_latitude"`
	Longitude   *float64 `db:"gps_longitude"`
	Note        *string  `db:"note"`
	Area        *float64 `db:"area"`
}

func (r groupRow) toDomain() domain.Group {
	return domain.Group{
		ID:          r.ID,
		Name:        r.Name,
		Displayable: r.Displayable,
		GPS:         pointFrom(r.Latitude, r.Longitude),
		Note:        r.Note,
		Area:        r.Area,
	}
}

// Insert stores a new group and sets its ID.
func (s *GroupStore) Insert(ctx context.Context, g *domain.Group) error {
	return s.insert(ctx, s.db, g)
}

func (s *GroupStore) insert(ctx context.Context, ext sqlx.ExtContext, g *domain.Group) error {
	lat, lon := pointCols(g.GPS)
	id, err := insertReturningID(ctx, ext,
		`INSERT INTO meter_groups(name, displayable, gps_latitude, gps_longitude, note, area) VALUES (?,?,?,?,?,?)`,
		g.Name, g.Displayable, lat, lon, g.Note, g.Area)
	if err != nil {
		return fmt.Errorf("insert group: %w", nameConflict(err, "Group", g.Name))
	}
	g.ID = id
	return nil
}

// Create inserts a group together with its initial children in one transaction.
func (s *GroupStore) Create(ctx context.Context, g *domain.Group, meterIDs, groupIDs []int64) error {
	var id int64
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		created := *g
		if err := s.insert(ctx, tx, &created); err != nil {
			return err
		}
		id = created.ID
		return adoptAll(ctx, tx, id, meterIDs, groupIDs)
	})
	if err != nil {
		return err
	}
	g.ID = id
	return nil
}

// Edit replaces the group record and both of its child sets atomically.
func (s *GroupStore) Edit(ctx context.Context, g *domain.Group, meterIDs, groupIDs []int64) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		lat, lon := pointCols(g.GPS)
		err := execOne(ctx, tx, "group", g.ID,
			`UPDATE meter_groups SET name = ?, displayable = ?, gps_latitude = ?, gps_longitude = ?, note = ?, area = ? WHERE id = ?`,
			g.Name, g.Displayable, lat, lon, g.Note, g.Area, g.ID)
		if err != nil {
			return fmt.Errorf("update group: %w", nameConflict(err, "Group", g.Name))
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM groups_immediate_meters WHERE group_id = ?`), g.ID); err != nil {
			return fmt.Errorf("clear child meters: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM groups_immediate_children WHERE parent_id = ?`), g.ID); err != nil {
			return fmt.Errorf("clear child groups: %w", err)
		}
		return adoptAll(ctx, tx, g.ID, meterIDs, groupIDs)
	})
}

// Delete removes a group; containment edges go with it.
func (s *GroupStore) Delete(ctx context.Context, id int64) error {
	if err := execOne(ctx, s.db, "group", id, `DELETE FROM meter_groups WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}

func (s *GroupStore) GetAll(ctx context.Context) ([]domain.Group, error) {
	return s.list(ctx, `SELECT `+groupColumns+` FROM meter_groups ORDER BY id`)
}

func (s *GroupStore) GetDisplayable(ctx context.Context) ([]domain.Group, error) {
	return s.list(ctx, `SELECT `+groupColumns+` FROM meter_groups WHERE displayable ORDER BY id`)
}

func (s *GroupStore) list(ctx context.Context, query string) ([]domain.Group, error) {
	var rows []groupRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	out := make([]domain.Group, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *GroupStore) GetByID(ctx context.Context, id int64) (domain.Group, error) {
	var row groupRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+groupColumns+` FROM meter_groups WHERE id = ?`), id)
	if err != nil {
		return domain.Group{}, fmt.Errorf("get group: %w", notFound(err, "group", id))
	}
	return row.toDomain(), nil
}

// GetByName looks a group up by its unique name.
func (s *GroupStore) GetByName(ctx context.Context, name string) (domain.Group, error) {
	var row groupRow
	err := s.db.GetContext(ctx, &row, s.db.Rebind(`SELECT `+groupColumns+` FROM meter_groups WHERE name = ?`), name)
	if err != nil {
		return domain.Group{}, fmt.Errorf("get group %q: %w", name, notFound(err, "group", 0))
	}
	return row.toDomain(), nil
}

func (s *GroupStore) AdoptMeter(ctx context.Context, groupID, meterID int64) error {
	return adoptMeter(ctx, s.db, groupID, meterID)
}

// AdoptGroup makes childID a direct subgroup of parentID. It fails with
// domain.ErrCycle, leaving the relation untouched, if that would close a loop.
func (s *GroupStore) AdoptGroup(ctx context.Context, parentID, childID int64) error {
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return adoptGroup(ctx, tx, parentID, childID)
	})
}

func (s *GroupStore) DisownMeter(ctx context.Context, groupID, meterID int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM groups_immediate_meters WHERE group_id = ? AND meter_id = ?`), groupID, meterID)
	if err != nil {
		return fmt.Errorf("disown meter: %w", err)
	}
	return nil
}

func (s *GroupStore) DisownGroup(ctx context.Context, parentID, childID int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM groups_immediate_children WHERE parent_id = ? AND child_id = ?`), parentID, childID)
	if err != nil {
		return fmt.Errorf("disown group: %w", err)
	}
	return nil
}

// ImmediateChildren returns the direct child meters and groups, ascending by id.
func (s *GroupStore) ImmediateChildren(ctx context.Context, id int64) (domain.Children, error) {
	children := domain.Children{Meters: []int64{}, Groups: []int64{}}
	err := s.db.SelectContext(ctx, &children.Meters,
		s.db.Rebind(`SELECT meter_id FROM groups_immediate_meters WHERE group_id = ? ORDER BY meter_id`), id)
	if err != nil {
		return domain.Children{}, fmt.Errorf("child meters: %w", err)
	}
	err = s.db.SelectContext(ctx, &children.Groups,
		s.db.Rebind(`SELECT child_id FROM groups_immediate_children WHERE parent_id = ? ORDER BY child_id`), id)
	if err != nil {
		return domain.Children{}, fmt.Errorf("child groups: %w", err)
	}
	return children, nil
}

// DeepChildGroups returns every group transitively contained in id, excluding id.
func (s *GroupStore) DeepChildGroups(ctx context.Context, id int64) ([]int64, error) {
	return deepChildGroups(ctx, s.db, id)
}

// DeepChildMeters returns the meters owned by id or by any of its deep child groups.
func (s *GroupStore) DeepChildMeters(ctx context.Context, id int64) ([]int64, error) {
	return deepChildMeters(ctx, s.db, id)
}

func adoptAll(ctx context.Context, ext sqlx.ExtContext, groupID int64, meterIDs, groupIDs []int64) error {
	for _, m := range meterIDs {
		if err := adoptMeter(ctx, ext, groupID, m); err != nil {
			return err
		}
	}
	for _, g := range groupIDs {
		if err := adoptGroup(ctx, ext, groupID, g); err != nil {
			return err
		}
	}
	return nil
}

func adoptMeter(ctx context.Context, ext sqlx.ExtContext, groupID, meterID int64) error {
	_, err := ext.ExecContext(ctx,
		ext.Rebind(`INSERT INTO groups_immediate_meters(group_id, meter_id) VALUES (?, ?) ON CONFLICT DO NOTHING`),
		groupID, meterID)
	if err != nil {
		return fmt.Errorf("group %d adopt meter %d: %w", groupID, meterID, err)
	}
	return nil
}

func adoptGroup(ctx context.Context, ext sqlx.ExtContext, parentID, childID int64) error {
	if parentID == childID {
		return fmt.Errorf("group %d adopt itself: %w", parentID, domain.ErrCycle)
	}
	if err := lockHierarchy(ctx, ext); err != nil {
		return err
	}
	below, err := deepChildGroups(ctx, ext, childID)
	if err != nil {
		return err
	}
	if slices.Contains(below, parentID) {
		return fmt.Errorf("group %d adopt group %d: %w", parentID, childID, domain.ErrCycle)
	}
	_, err = ext.ExecContext(ctx,
		ext.Rebind(`INSERT INTO groups_immediate_children(parent_id, child_id) VALUES (?, ?) ON CONFLICT DO NOTHING`),
		parentID, childID)
	if err != nil {
		return fmt.Errorf("group %d adopt group %d: %w", parentID, childID, err)
	}
	return nil
}

// lockHierarchy serializes writers of the group->group relation until the
// enclosing transaction ends, so two concurrent adoptions cannot both pass the
// cycle check. The mode still admits plain readers. SQLite needs no lock here:
// its write transactions already run one at a time (see database.Open).
func lockHierarchy(ctx context.Context, ext sqlx.ExtContext) error {
	if ext.DriverName() != "pgx" {
		return nil
	}
	if _, err := ext.ExecContext(ctx, `LOCK TABLE groups_immediate_children IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock group hierarchy: %w", err)
	}
	return nil
}

// deepChildGroups walks the group->group relation breadth first. The visited
// set keeps a corrupted (cyclic) relation from looping forever.
func deepChildGroups(ctx context.Context, ext sqlx.ExtContext, root int64) ([]int64, error) {
	visited := map[int64]bool{root: true}
	found := []int64{}
	frontier := []int64{root}
	for len(frontier) > 0 {
		query, args, err := sqlx.In(`SELECT child_id FROM groups_immediate_children WHERE parent_id IN (?)`, frontier)
		if err != nil {
			return nil, err
		}
		var children []int64
		if err := sqlx.SelectContext(ctx, ext, &children, ext.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("deep child groups of %d: %w", root, err)
		}
		var next []int64
		for _, c := range children {
			if visited[c] {
				continue
			}
			visited[c] = true
			found = append(found, c)
			next = append(next, c)
		}
		frontier = next
	}
	slices.Sort(found)
	return found, nil
}

func deepChildMeters(ctx context.Context, ext sqlx.ExtContext, root int64) ([]int64, error) {
	groups, err := deepChildGroups(ctx, ext, root)
	if err != nil {
		return nil, err
	}
	groups = append(groups, root)
	query, args, err := sqlx.In(
		`SELECT DISTINCT meter_id FROM groups_immediate_meters WHERE group_id IN (?) ORDER BY meter_id`, groups)
	if err != nil {
		return nil, err
	}
	meters := []int64{}
	if err := sqlx.SelectContext(ctx, ext, &meters, ext.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("deep child meters of %d: %w", root, err)
	}
	return meters, nil
}
