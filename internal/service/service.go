package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/domain"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/events"
	"github.com/ANIKETSHETTY47/open-energy-dashboard/internal/repository"
)

// MapArchive mirrors map sources somewhere outside the database.
type MapArchive interface {
	Store(ctx context.Context, m domain.Map) error
	Remove(ctx context.Context, m domain.Map) error
}

type Services struct {
	Repos    *repository.Repos
	Meters   *MeterService
	Groups   *GroupService
	Maps     *MapService
	Auth     *AuthService
	Readings *ReadingService
}

type options struct {
	publisher      events.Publisher
	publishTimeout time.Duration
	archive        MapArchive
	tokenTTL       time.Duration
	maxLinePoints  int
	now            func() time.Time
}

type Option func(*options)

// WithPublisher sends change events after every committed write.
func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithPublishTimeout bounds how long a write waits for its change event to be
// delivered. The write itself has already committed by then.
func WithPublishTimeout(d time.Duration) Option {
	return func(o *options) { o.publishTimeout = d }
}

// WithArchive mirrors map sources on create, edit and delete.
func WithArchive(a MapArchive) Option {
	return func(o *options) { o.archive = a }
}

func WithTokenTTL(d time.Duration) Option {
	return func(o *options) { o.tokenTTL = d }
}

// WithMaxLinePoints bounds the number of compressed readings per series.
// Zero disables compression.
func WithMaxLinePoints(n int) Option {
	return func(o *options) { o.maxLinePoints = n }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func New(db *sqlx.DB, opts ...Option) *Services {
	o := options{
		publisher:      events.Nop{},
		publishTimeout: 2 * time.Second,
		tokenTTL:       24 * time.Hour,
		maxLinePoints:  200,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	repos := repository.New(db)
	n := notifier{pub: o.publisher, timeout: o.publishTimeout, now: o.now}
	return &Services{
		Repos:    repos,
		Meters:   &MeterService{store: repos.Meters, notify: n},
		Groups:   &GroupService{store: repos.Groups, notify: n},
		Maps:     &MapService{store: repos.Maps, archive: o.archive, notify: n},
		Auth:     &AuthService{users: repos.Users, ttl: o.tokenTTL, now: o.now},
		Readings: &ReadingService{readings: repos.Readings, groups: repos.Groups, maxPoints: o.maxLinePoints},
	}
}

// notifier publishes a change once the write it describes has committed.
// Publishing failures never undo the write; they are only logged.
// The publish is detached from the caller's cancellation and bounded by
// timeout, so a stalled broker delays a response by at most that much.
type notifier struct {
	pub     events.Publisher
	timeout time.Duration
	now     func() time.Time
}

func (n notifier) changed(ctx context.Context, entity string, id int64, op events.Op) {
	c := events.Change{Entity: entity, ID: id, Op: op, At: n.now().Unix()}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()
	if err := n.pub.Publish(ctx, c); err != nil {
		log.Warn().Err(err).Str("entity", entity).Int64("id", id).Str("op", string(op)).Msg("change publish failed")
	}
}
