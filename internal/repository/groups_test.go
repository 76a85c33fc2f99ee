package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/database/databasetest"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
)

func newRepos(t *testing.T) *Repos {
	t.Helper()
	return New(databasetest.New(t))
}

func mustMeter(t *testing.T, r *Repos, name string) int64 {
	t.Helper()
	m := domain.Meter{Name: name, Enabled: true, Displayable: true}
	if err := r.Meters.Insert(context.Background(), &m); err != nil {
		t.Fatalf("insert meter %s: %v", name, err)
	}
	return m.ID
}

func mustGroup(t *testing.T, r *Repos, name string) int64 {
	t.Helper()
	g := domain.Group{Name: name, Displayable: true}
	if err := r.Groups.Insert(context.Background(), &g); err != nil {
		t.Fatalf("insert group %s: %v", name, err)
	}
	return g.ID
}

func TestDeepChildMetersIsUnionOfChildren(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	m1, m2, m3, m4 := mustMeter(t, r, "m1"), mustMeter(t, r, "m2"), mustMeter(t, r, "m3"), mustMeter(t, r, "m4")
	top, left, right := mustGroup(t, r, "top"), mustGroup(t, r, "left"), mustGroup(t, r, "right")

	for _, step := range []error{
		r.Groups.AdoptMeter(ctx, top, m1),
		r.Groups.AdoptMeter(ctx, left, m2),
		r.Groups.AdoptMeter(ctx, left, m3),
		r.Groups.AdoptMeter(ctx, right, m3),
		r.Groups.AdoptMeter(ctx, right, m4),
		r.Groups.AdoptGroup(ctx, top, left),
		r.Groups.AdoptGroup(ctx, top, right),
	} {
		if step != nil {
			t.Fatal(step)
		}
	}

	got, err := r.Groups.DeepChildMeters(ctx, top)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{m1}
	for _, g := range []int64{left, right} {
		sub, err := r.Groups.DeepChildMeters(ctx, g)
		if err != nil {
			t.Fatal(err)
		}
		want = append(want, sub...)
	}
	slices.Sort(want)
	want = slices.Compact(want)
	if !slices.Equal(got, want) {
		t.Errorf("deep meters of top = %v, want %v", got, want)
	}

	groups, err := r.Groups.DeepChildGroups(ctx, top)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(groups, []int64{left, right}) {
		t.Errorf("deep groups of top = %v, want %v", groups, []int64{left, right})
	}
}

func TestDeepQueriesTerminateOnCorruptedCycle(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	m := mustMeter(t, r, "m")
	a, b := mustGroup(t, r, "a"), mustGroup(t, r, "b")
	if err := r.Groups.AdoptMeter(ctx, b, m); err != nil {
		t.Fatal(err)
	}
	// Bypass the cycle check to simulate a corrupted relation.
	for _, edge := range [][2]int64{{a, b}, {b, a}} {
		if _, err := r.db.Exec(r.db.Rebind(`INSERT INTO groups_immediate_children(parent_id, child_id) VALUES (?, ?)`), edge[0], edge[1]); err != nil {
			t.Fatal(err)
		}
	}

	meters, err := r.Groups.DeepChildMeters(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(meters, []int64{m}) {
		t.Errorf("deep meters = %v, want [%d]", meters, m)
	}
	groups, err := r.Groups.DeepChildGroups(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(groups, []int64{b}) {
		t.Errorf("deep groups = %v, want [%d]", groups, b)
	}
}

func TestAdoptGroupRejectsCycles(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	a, b, c := mustGroup(t, r, "a"), mustGroup(t, r, "b"), mustGroup(t, r, "c")
	if err := r.Groups.AdoptGroup(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	if err := r.Groups.AdoptGroup(ctx, b, c); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name          string
		parent, child int64
	}{
		{"self", a, a},
		{"direct", b, a},
		{"transitive", c, a},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := r.Groups.ImmediateChildren(ctx, tt.parent)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Groups.AdoptGroup(ctx, tt.parent, tt.child); !errors.Is(err, domain.ErrCycle) {
				t.Fatalf("AdoptGroup(%d, %d) = %v, want ErrCycle", tt.parent, tt.child, err)
			}
			after, err := r.Groups.ImmediateChildren(ctx, tt.parent)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(before.Groups, after.Groups) {
				t.Errorf("children changed from %v to %v", before.Groups, after.Groups)
			}
		})
	}
}

func TestEditIsAtomic(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	m1, m2 := mustMeter(t, r, "m1"), mustMeter(t, r, "m2")
	child := mustGroup(t, r, "child")
	g := domain.Group{Name: "parent", Displayable: true}
	if err := r.Groups.Create(ctx, &g, []int64{m1}, []int64{child}); err != nil {
		t.Fatal(err)
	}

	// Meter 9999 does not exist, so the foreign key fails after both child
	// sets were cleared and m2 was adopted.
	edited := g
	edited.Name = "renamed"
	err := r.Groups.Edit(ctx, &edited, []int64{m2, 9999}, nil)
	if err == nil {
		t.Fatal("edit with missing meter succeeded")
	}

	children, err := r.Groups.ImmediateChildren(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(children.Meters, []int64{m1}) || !slices.Equal(children.Groups, []int64{child}) {
		t.Errorf("children after failed edit = %+v", children)
	}
	stored, err := r.Groups.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Name != "parent" {
		t.Errorf("name after failed edit = %q", stored.Name)
	}

	if err := r.Groups.Edit(ctx, &edited, []int64{m2}, []int64{}); err != nil {
		t.Fatal(err)
	}
	children, err = r.Groups.ImmediateChildren(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(children.Meters, []int64{m2}) || len(children.Groups) != 0 {
		t.Errorf("children after edit = %+v", children)
	}
}

func TestEditRejectsCycle(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	a, b := mustGroup(t, r, "a"), mustGroup(t, r, "b")
	if err := r.Groups.AdoptGroup(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	g, err := r.Groups.GetByID(ctx, b)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Groups.Edit(ctx, &g, nil, []int64{a}); !errors.Is(err, domain.ErrCycle) {
		t.Fatalf("got %v, want ErrCycle", err)
	}
}

func TestDeleteGroupRemovesEdges(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	a, b := mustGroup(t, r, "a"), mustGroup(t, r, "b")
	if err := r.Groups.AdoptGroup(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	if err := r.Groups.Delete(ctx, b); err != nil {
		t.Fatal(err)
	}
	children, err := r.Groups.ImmediateChildren(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(children.Groups) != 0 {
		t.Errorf("edge survived delete: %v", children.Groups)
	}
	if err := r.Groups.Delete(ctx, b); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second delete = %v, want ErrNotFound", err)
	}
}

func TestDisown(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	m := mustMeter(t, r, "m")
	a, b := mustGroup(t, r, "a"), mustGroup(t, r, "b")
	if err := r.Groups.AdoptMeter(ctx, a, m); err != nil {
		t.Fatal(err)
	}
	if err := r.Groups.AdoptGroup(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	if err := r.Groups.DisownMeter(ctx, a, m); err != nil {
		t.Fatal(err)
	}
	if err := r.Groups.DisownGroup(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	children, err := r.Groups.ImmediateChildren(ctx, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(children.Meters) != 0 || len(children.Groups) != 0 {
		t.Errorf("children after disown = %+v", children)
	}
}

func TestConcurrentOpposingAdoptionsCannotCloseCycle(t *testing.T) {
	ctx := context.Background()
	r := newRepos(t)

	for i := 0; i < 10; i++ {
		a, b := mustGroup(t, r, fmt.Sprintf("a%d", i)), mustGroup(t, r, fmt.Sprintf("b%d", i))

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for j, pair := range [][2]int64{{a, b}, {b, a}} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs[j] = r.Groups.AdoptGroup(ctx, pair[0], pair[1])
			}()
		}
		wg.Wait()

		if (errs[0] == nil) == (errs[1] == nil) {
			t.Fatalf("round %d: want exactly one adoption to succeed, got %v and %v", i, errs[0], errs[1])
		}
		for _, err := range errs {
			if err != nil && !errors.Is(err, domain.ErrCycle) {
				t.Errorf("round %d: rejected adoption = %v, want ErrCycle", i, err)
			}
		}
		below, err := r.Groups.DeepChildGroups(ctx, a)
		if err != nil {
			t.Fatal(err)
		}
		if slices.Contains(below, a) {
			t.Fatalf("round %d: group %d contains itself", i, a)
		}
	}
}
