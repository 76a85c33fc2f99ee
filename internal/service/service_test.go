package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/database/databasetest"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/events"
)

type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
}

func (p *recordingPublisher) Publish(_ context.Context, c events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

type mockArchive struct {
	stored  []int64
	removed []int64
}

func (a *mockArchive) Store(_ context.Context, m domain.Map) error {
	a.stored = append(a.stored, m.ID)
	return nil
}

func (a *mockArchive) Remove(_ context.Context, m domain.Map) error {
	a.removed = append(a.removed, m.ID)
	return nil
}

func TestCompress(t *testing.T) {
	readings := []domain.Reading{
		{Reading: 1, StartTimestamp: 0, EndTimestamp: 10},
		{Reading: 3, StartTimestamp: 10, EndTimestamp: 20},
		{Reading: 5, StartTimestamp: 20, EndTimestamp: 30},
		{Reading: 7, StartTimestamp: 30, EndTimestamp: 40},
		{Reading: 9, StartTimestamp: 40, EndTimestamp: 50},
	}

	got := compress(readings, 2)
	want := []domain.Reading{
		{Reading: 3, StartTimestamp: 0, EndTimestamp: 30},
		{Reading: 8, StartTimestamp: 30, EndTimestamp: 50},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d buckets, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if got := compress(readings, 10); len(got) != 5 {
		t.Errorf("short series should pass through, got %d", len(got))
	}
	if got := compress(readings, 0); len(got) != 5 {
		t.Errorf("max 0 disables compression, got %d", len(got))
	}
}

func TestSumByStart(t *testing.T) {
	got := sumByStart([][]domain.Reading{
		{{Reading: 1, StartTimestamp: 0, EndTimestamp: 10}, {Reading: 2, StartTimestamp: 10, EndTimestamp: 20}},
		{{Reading: 4, StartTimestamp: 10, EndTimestamp: 25}},
	})
	want := []domain.Reading{
		{Reading: 1, StartTimestamp: 0, EndTimestamp: 10},
		{Reading: 6, StartTimestamp: 10, EndTimestamp: 25},
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reading %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGroupLineSumsDeepMeters(t *testing.T) {
	ctx := context.Background()
	svcs := New(databasetest.New(t), WithMaxLinePoints(0))

	a := domain.Meter{Name: "A", Enabled: true, Displayable: true}
	b := domain.Meter{Name: "B", Enabled: true, Displayable: true}
	for _, m := range []*domain.Meter{&a, &b} {
		if err := svcs.Meters.Create(ctx, m); err != nil {
			t.Fatal(err)
		}
	}
	if err := svcs.Repos.Readings.InsertBatch(ctx, a.ID, []domain.Reading{
		{Reading: 1, StartTimestamp: 0, EndTimestamp: 10},
		{Reading: 2, StartTimestamp: 10, EndTimestamp: 20},
	}); err != nil {
		t.Fatal(err)
	}
	if err := svcs.Repos.Readings.InsertBatch(ctx, b.ID, []domain.Reading{
		{Reading: 10, StartTimestamp: 10, EndTimestamp: 20},
	}); err != nil {
		t.Fatal(err)
	}

	inner := domain.Group{Name: "inner"}
	if err := svcs.Groups.Create(ctx, &inner, domain.Children{Meters: []int64{b.ID}}); err != nil {
		t.Fatal(err)
	}
	outer := domain.Group{Name: "outer"}
	if err := svcs.Groups.Create(ctx, &outer, domain.Children{Meters: []int64{a.ID}, Groups: []int64{inner.ID}}); err != nil {
		t.Fatal(err)
	}

	lines, err := svcs.Readings.GroupLine(ctx, []int64{outer.ID}, domain.UnboundedInterval())
	if err != nil {
		t.Fatal(err)
	}
	got := lines[outer.ID]
	if len(got) != 2 || got[0].Reading != 1 || got[1].Reading != 12 {
		t.Errorf("outer line = %+v, want readings 1 and 12", got)
	}
}

func TestLoginAndVerify(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	svcs := New(databasetest.New(t), WithTokenTTL(time.Hour), WithClock(func() time.Time { return now }))

	if _, err := svcs.Auth.CreateUser(ctx, "admin@example.com", "hunter22", "admin"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svcs.Auth.Login(ctx, "admin@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
	if _, _, err := svcs.Auth.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v", err)
	}

	token, u, err := svcs.Auth.Login(ctx, "admin@example.com", "hunter22")
	if err != nil {
		t.Fatal(err)
	}
	got, err := svcs.Auth.Verify(ctx, token)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Errorf("verified user %d, want %d", got.ID, u.ID)
	}

	if _, err := svcs.Auth.Verify(ctx, "not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("garbage token: got %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svcs.Auth.Verify(ctx, token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expired token: got %v", err)
	}
	if n, err := svcs.Auth.PruneSessions(ctx); err != nil || n != 1 {
		t.Errorf("PruneSessions = %d, %v; want 1, nil", n, err)
	}
}

func TestDuplicateUserEmail(t *testing.T) {
	ctx := context.Background()
	svcs := New(databasetest.New(t))
	if _, err := svcs.Auth.CreateUser(ctx, "a@example.com", "pw", "admin"); err != nil {
		t.Fatal(err)
	}
	_, err := svcs.Auth.CreateUser(ctx, "a@example.com", "pw", "admin")
	var ce *domain.ConstraintError
	if !errors.As(err, &ce) || ce.Field != "email" {
		t.Errorf("got %v, want email ConstraintError", err)
	}
}

func TestMapLifecyclePublishesAndArchives(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	archive := &mockArchive{}
	svcs := New(databasetest.New(t), WithPublisher(pub), WithArchive(archive))

	m := domain.Map{Name: "campus", Filename: "campus.png", ModifiedDate: "2024-01-01", MapSource: "data:image/png;base64,AAAA"}
	if err := svcs.Maps.Create(ctx, &m); err != nil {
		t.Fatal(err)
	}
	if err := svcs.Maps.Delete(ctx, m.ID); err != nil {
		t.Fatal(err)
	}
	// Deleting again is a no-op.
	if err := svcs.Maps.Delete(ctx, m.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if len(archive.stored) != 1 || len(archive.removed) != 1 {
		t.Errorf("archive stored %v removed %v", archive.stored, archive.removed)
	}
	if len(pub.changes) != 2 || pub.changes[0].Op != events.OpCreate || pub.changes[1].Op != events.OpDelete {
		t.Errorf("published %+v", pub.changes)
	}
}

func TestFailedWriteDoesNotPublish(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svcs := New(databasetest.New(t), WithPublisher(pub))

	if err := svcs.Meters.Create(ctx, &domain.Meter{Name: "dup"}); err != nil {
		t.Fatal(err)
	}
	if err := svcs.Meters.Create(ctx, &domain.Meter{Name: "dup"}); err == nil {
		t.Fatal("duplicate meter created")
	}
	if len(pub.changes) != 1 {
		t.Errorf("published %d changes, want 1", len(pub.changes))
	}
}

// stalledPublisher never delivers; it returns only when ctx ends.
type stalledPublisher struct{}

func (stalledPublisher) Publish(ctx context.Context, _ events.Change) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStalledPublisherDoesNotBlockWrites(t *testing.T) {
	svcs := New(databasetest.New(t), WithPublisher(stalledPublisher{}), WithPublishTimeout(50*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		done <- svcs.Meters.Create(context.Background(), &domain.Meter{Name: "Library"})
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("meter create still blocked on publish")
	}

	if _, err := svcs.Repos.Meters.GetByName(context.Background(), "Library"); err != nil {
		t.Errorf("write not committed: %v", err)
	}
}
