package app

import (
	"context"
	"sync"
	"time"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

type memShowRepo struct {
	mu    sync.Mutex
	shows []domain.TrackedShow
	saves int
	err   error
}

func (r *memShowRepo) LoadShows(ctx context.Context) ([]domain.TrackedShow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.TrackedShow, len(r.shows))
	copy(out, r.shows)
	for i := range out {
		out[i].LastSeen = clonePosition(out[i].LastSeen)
	}
	return out, nil
}

func (r *memShowRepo) SaveShows(ctx context.Context, shows []domain.TrackedShow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.shows = append([]domain.TrackedShow(nil), shows...)
	r.saves++
	return nil
}

type memTimelineRepo struct {
	mu      sync.Mutex
	entries []domain.NotificationEntry
	saves   int
}

func (r *memTimelineRepo) LoadTimeline(ctx context.Context) ([]domain.NotificationEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.NotificationEntry(nil), r.entries...), nil
}

func (r *memTimelineRepo) SaveTimeline(ctx context.Context, entries []domain.NotificationEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]domain.NotificationEntry(nil), entries...)
	r.saves++
	return nil
}

// fakeSource serves canned search results and episode lists.
type fakeSource struct {
	mu         sync.Mutex
	candidates []domain.Candidate
	episodes   map[int64][]domain.Episode
	failures   map[int64]error
	calls      int
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	return append([]domain.Candidate(nil), f.candidates...), nil
}

func (f *fakeSource) Episodes(ctx context.Context, showID int64) ([]domain.Episode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failures[showID]; err != nil {
		return nil, err
	}
	eps, ok := f.episodes[showID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return append([]domain.Episode(nil), eps...), nil
}

type recordingBus struct {
	mu     sync.Mutex
	topics []string
}

func (b *recordingBus) Publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.topics = append(b.topics, topic)
}

func (b *recordingBus) Subscribe() (<-chan ports.Event, func()) {
	ch := make(chan ports.Event)
	close(ch)
	return ch, func() {}
}

func (b *recordingBus) Topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.topics...)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func se(season, number int, title string, aired time.Time) domain.Episode {
	return domain.Episode{Season: domain.SeasonPtr(season), Number: number, Title: title, AirDate: aired, Type: domain.EpisodeTypeRegular}
}

func absEp(number int, aired time.Time) domain.Episode {
	return domain.Episode{Number: number, AirDate: aired}
}

func posPtr(p domain.Position) *domain.Position { return &p }
