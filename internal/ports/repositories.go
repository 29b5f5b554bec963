package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

// ShowRepository persists the tracked show collection as a whole.
// SaveShows must be atomic: a later LoadShows sees either the old or the new
// collection, never a mix.
type ShowRepository interface {
	LoadShows(ctx context.Context) ([]domain.TrackedShow, error)
	SaveShows(ctx context.Context, shows []domain.TrackedShow) error
}

// TimelineRepository persists the timeline entries in display order.
type TimelineRepository interface {
	LoadTimeline(ctx context.Context) ([]domain.NotificationEntry, error)
	SaveTimeline(ctx context.Context, entries []domain.NotificationEntry) error
}

// Locker serialise les runs entre processus (un seul writer à la fois).
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}
