package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

// DefaultSearchLimit caps the ranked candidates returned by Search.
const DefaultSearchLimit = 5

// TrackingSession orchestrates show tracking: it owns the repositories and
// loads the tracked shows and the timeline afresh for every operation, so
// independent sessions never share state.
type TrackingSession struct {
	logger   zerolog.Logger
	source   ports.MetadataSource
	shows    ports.ShowRepository
	timeline ports.TimelineRepository
	bus      ports.EventBus
	locker   ports.Locker
	settings domain.Settings
	resolver *DeltaResolver
	now      func() time.Time

	// Un seul run à la fois dans le process; le Locker couvre les autres process.
	mu sync.Mutex

	SearchLimit int
}

func NewTrackingSession(logger zerolog.Logger, source ports.MetadataSource, shows ports.ShowRepository, timeline ports.TimelineRepository, bus ports.EventBus, settings domain.Settings) *TrackingSession {
	return &TrackingSession{
		logger:      logger,
		source:      source,
		shows:       shows,
		timeline:    timeline,
		bus:         bus,
		settings:    settings,
		resolver:    NewDeltaResolver(settings.IncludeSpecials),
		now:         time.Now,
		SearchLimit: DefaultSearchLimit,
	}
}

func (s *TrackingSession) WithLocker(l ports.Locker) *TrackingSession {
	s.locker = l
	return s
}

func (s *TrackingSession) WithClock(now func() time.Time) *TrackingSession {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *TrackingSession) Settings() domain.Settings { return s.settings }

// ShowCheckResult summarizes one show of a check run.
type ShowCheckResult struct {
	ShowID      int64            `json:"showId"`
	ShowName    string           `json:"showName"`
	NewEpisodes []domain.Episode `json:"newEpisodes"`
	// Added counts the timeline entries actually inserted (same-day reruns add 0).
	Added     int              `json:"added"`
	LastSeen  *domain.Position `json:"lastSeen,omitempty"`
	Err       error            `json:"-"`
	Reason    string           `json:"error,omitempty"`
	ErrorCode string           `json:"errorCode,omitempty"`
}

func (r ShowCheckResult) Failed() bool { return r.Err != nil }

// CheckReport is the outcome of CheckAll.
type CheckReport struct {
	RunID    string            `json:"runId"`
	Date     time.Time         `json:"date"`
	Results  []ShowCheckResult `json:"results"`
	Added    int               `json:"added"`
	Archived int               `json:"archived"`
}

func (r CheckReport) Failures() []ShowCheckResult {
	out := []ShowCheckResult{}
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

func (r CheckReport) NewEpisodeCount() int {
	n := 0
	for _, res := range r.Results {
		n += len(res.NewEpisodes)
	}
	return n
}

// AddResult is returned when a show starts being tracked.
type AddResult struct {
	Show domain.TrackedShow `json:"show"`
	// Baseline est le dernier épisode diffusé au moment de l'ajout, s'il existe.
	Baseline *domain.Episode `json:"baseline,omitempty"`
}

// Search queries the metadata source and ranks the candidates against query.
// No candidate at all is reported as ErrNotFound.
func (s *TrackingSession) Search(ctx context.Context, query string) ([]RankedCandidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("missing query")
	}
	candidates, err := s.source.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("search %q: no shows found: %w", query, ErrNotFound)
	}
	ranked := RankCandidates(query, candidates)
	if s.SearchLimit > 0 && len(ranked) > s.SearchLimit {
		ranked = ranked[:s.SearchLimit]
	}
	return ranked, nil
}

// AddShow starts tracking a confirmed candidate. Its latest aired episode
// becomes the baseline, so the back catalogue never floods the timeline.
func (s *TrackingSession) AddShow(ctx context.Context, cand domain.Candidate) (AddResult, error) {
	if cand.ID <= 0 {
		return AddResult{}, errors.New("missing show id")
	}
	name := strings.TrimSpace(cand.Name)
	if name == "" {
		return AddResult{}, errors.New("missing show name")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock(ctx)
	if err != nil {
		return AddResult{}, err
	}
	defer unlock()

	shows, err := s.shows.LoadShows(ctx)
	if err != nil {
		return AddResult{}, fmt.Errorf("load shows: %w", err)
	}
	if err := validateShows(shows); err != nil {
		return AddResult{}, fmt.Errorf("load shows: %w", err)
	}
	for _, existing := range shows {
		if existing.ID == cand.ID {
			return AddResult{}, fmt.Errorf("show %q is already tracked: %w", existing.Name, ErrConflict)
		}
	}

	episodes, err := s.source.Episodes(ctx, cand.ID)
	if err != nil {
		return AddResult{}, fmt.Errorf("fetch episodes for %q: %w", name, err)
	}
	numbering, err := domain.DetectNumbering(episodes)
	if err != nil {
		return AddResult{}, fmt.Errorf("show %q: %w", name, err)
	}

	now := s.now()
	today := domain.DateOf(now)
	delta, err := s.resolver.ComputeNew(nil, numbering, episodes, today)
	if err != nil {
		return AddResult{}, fmt.Errorf("show %q: %w", name, err)
	}

	show := domain.TrackedShow{
		ID:            cand.ID,
		Name:          name,
		Numbering:     numbering,
		LastSeen:      delta.NewLastSeen,
		LastCheckedAt: now.UTC(),
		AddedAt:       now.UTC(),
	}
	shows = append(shows, show)
	if err := s.shows.SaveShows(ctx, shows); err != nil {
		return AddResult{}, fmt.Errorf("save shows: %w", err)
	}

	res := AddResult{Show: show}
	if show.LastSeen != nil {
		for _, ep := range episodes {
			if ep.Position() == *show.LastSeen {
				ep := ep
				res.Baseline = &ep
				break
			}
		}
	}
	s.logger.Info().Int64("show_id", show.ID).Str("show", show.Name).Str("numbering", string(numbering)).Msg("show added")
	s.publish(ports.TopicShowAdded, res)
	return res, nil
}

// RemoveShow stops tracking the show matching ref (id or fuzzy name).
// Timeline entries already discovered for it are kept.
func (s *TrackingSession) RemoveShow(ctx context.Context, ref string) (domain.TrackedShow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock(ctx)
	if err != nil {
		return domain.TrackedShow{}, err
	}
	defer unlock()

	shows, err := s.shows.LoadShows(ctx)
	if err != nil {
		return domain.TrackedShow{}, fmt.Errorf("load shows: %w", err)
	}
	target, ok := FindTrackedShow(ref, shows, DefaultFindThreshold)
	if !ok {
		return domain.TrackedShow{}, fmt.Errorf("no tracked show matches %q: %w", ref, ErrNotFound)
	}
	kept := make([]domain.TrackedShow, 0, len(shows))
	for _, sh := range shows {
		if sh.ID != target.ID {
			kept = append(kept, sh)
		}
	}
	if err := s.shows.SaveShows(ctx, kept); err != nil {
		return domain.TrackedShow{}, fmt.Errorf("save shows: %w", err)
	}
	s.logger.Info().Int64("show_id", target.ID).Str("show", target.Name).Msg("show removed")
	s.publish(ports.TopicShowRemoved, target)
	return target, nil
}

func (s *TrackingSession) ListShows(ctx context.Context) ([]domain.TrackedShow, error) {
	shows, err := s.shows.LoadShows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load shows: %w", err)
	}
	return shows, nil
}

// CheckAll checks every tracked show in turn. A failing show is recorded in
// the report and the run moves on; only persistence failures and corrupt
// state abort the run.
func (s *TrackingSession) CheckAll(ctx context.Context) (CheckReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock(ctx)
	if err != nil {
		return CheckReport{}, err
	}
	defer unlock()

	shows, err := s.shows.LoadShows(ctx)
	if err != nil {
		return CheckReport{}, fmt.Errorf("load shows: %w", err)
	}
	if err := validateShows(shows); err != nil {
		return CheckReport{}, fmt.Errorf("load shows: %w", err)
	}
	store, err := s.loadTimeline(ctx)
	if err != nil {
		return CheckReport{}, err
	}

	now := s.now()
	today := domain.DateOf(now)
	report := CheckReport{RunID: xid.New().String(), Date: today, Results: make([]ShowCheckResult, 0, len(shows))}
	logger := s.logger.With().Str("run_id", report.RunID).Logger()
	logger.Info().Int("shows", len(shows)).Msg("check started")

	for i := range shows {
		if ctx.Err() != nil {
			for _, rest := range shows[i:] {
				report.Results = append(report.Results, failedResult(rest, ctx.Err()))
			}
			break
		}
		res := s.checkShow(ctx, &shows[i], store, now)
		if res.Failed() {
			logger.Warn().Err(res.Err).Int64("show_id", res.ShowID).Str("show", res.ShowName).Msg("show check failed")
		} else if len(res.NewEpisodes) > 0 {
			logger.Info().Int64("show_id", res.ShowID).Str("show", res.ShowName).Int("new", len(res.NewEpisodes)).Msg("new episodes")
		}
		report.Added += res.Added
		report.Results = append(report.Results, res)
	}

	report.Archived = store.Archive(today, s.settings.ArchiveWatchedAfterDays)

	// Timeline d'abord: si la sauvegarde des séries échoue, le prochain run
	// redétecte les épisodes au lieu de les perdre.
	if err := s.timeline.SaveTimeline(ctx, store.Entries()); err != nil {
		return report, fmt.Errorf("save timeline: %w", err)
	}
	if err := s.shows.SaveShows(ctx, shows); err != nil {
		return report, fmt.Errorf("save shows: %w", err)
	}

	logger.Info().
		Int("added", report.Added).
		Int("archived", report.Archived).
		Int("failed", len(report.Failures())).
		Msg("check finished")
	s.publish(ports.TopicCheckCompleted, report)
	return report, nil
}

func (s *TrackingSession) checkShow(ctx context.Context, show *domain.TrackedShow, store *TimelineStore, now time.Time) ShowCheckResult {
	today := domain.DateOf(now)
	episodes, err := s.source.Episodes(ctx, show.ID)
	if err != nil {
		return failedResult(*show, fmt.Errorf("fetch episodes: %w", err))
	}
	for i := range episodes {
		episodes[i].ShowName = show.Name
	}

	numbering := show.Numbering
	if !numbering.Valid() {
		if numbering, err = domain.DetectNumbering(episodes); err != nil {
			return failedResult(*show, err)
		}
	}
	delta, err := s.resolver.ComputeNew(show.LastSeen, numbering, episodes, today)
	if err != nil {
		return failedResult(*show, err)
	}

	show.Numbering = numbering
	show.LastSeen = delta.NewLastSeen
	show.LastCheckedAt = now.UTC()

	entries := make([]domain.NotificationEntry, 0, len(delta.NewEpisodes))
	for _, ep := range delta.NewEpisodes {
		entries = append(entries, domain.NewNotificationEntry(show.ID, ep, today))
	}
	added := store.Append(entries, today)

	return ShowCheckResult{
		ShowID:      show.ID,
		ShowName:    show.Name,
		NewEpisodes: delta.NewEpisodes,
		Added:       added,
		LastSeen:    clonePosition(show.LastSeen),
	}
}

// validateShows rejects persisted shows the delta cannot trust: duplicate
// ids, or a last-seen position whose numbering is not the show's. A show
// without numbering is accepted only while it has no last-seen position.
func validateShows(shows []domain.TrackedShow) error {
	seen := make(map[int64]struct{}, len(shows))
	for _, sh := range shows {
		if _, dup := seen[sh.ID]; dup {
			return fmt.Errorf("%w: show id %d is tracked twice", domain.ErrStateCorruption, sh.ID)
		}
		seen[sh.ID] = struct{}{}
		if sh.LastSeen == nil {
			continue
		}
		if !sh.Numbering.Valid() {
			return fmt.Errorf("%w: show %q has last seen %s but numbering %q", domain.ErrStateCorruption, sh.Name, sh.LastSeen.Code(), sh.Numbering)
		}
		if sh.LastSeen.Numbering != sh.Numbering {
			return fmt.Errorf("%w: show %q last seen uses %s numbering, show uses %s", domain.ErrStateCorruption, sh.Name, sh.LastSeen.Numbering, sh.Numbering)
		}
	}
	return nil
}

func failedResult(show domain.TrackedShow, err error) ShowCheckResult {
	return ShowCheckResult{
		ShowID:      show.ID,
		ShowName:    show.Name,
		NewEpisodes: []domain.Episode{},
		LastSeen:    clonePosition(show.LastSeen),
		Err:         err,
		Reason:      err.Error(),
		ErrorCode:   ErrorCode(err),
	}
}

// TimelineQuery selects timeline entries. Limit 0 applies the configured
// MaxNotifications cap; a negative Limit returns everything.
type TimelineQuery struct {
	IncludeWatched bool
	Limit          int
}

func (s *TrackingSession) Timeline(ctx context.Context, q TimelineQuery) ([]domain.NotificationEntry, error) {
	store, err := s.loadTimeline(ctx)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit == 0 {
		limit = s.settings.MaxNotifications
	}
	return store.View(q.IncludeWatched, limit), nil
}

// MarkWatched marks the unwatched entries picked by selector. The indices are
// the 1-based positions of the full unwatched view as of this call. A
// *SelectorError is returned next to a valid result when some tokens were
// ignored.
func (s *TrackingSession) MarkWatched(ctx context.Context, selector string) (MarkResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock(ctx)
	if err != nil {
		return MarkResult{}, err
	}
	defer unlock()

	store, err := s.loadTimeline(ctx)
	if err != nil {
		return MarkResult{}, err
	}
	res, selErr := store.MarkWatched(selector)
	if res.Updated > 0 {
		if err := s.timeline.SaveTimeline(ctx, store.Entries()); err != nil {
			return MarkResult{}, fmt.Errorf("save timeline: %w", err)
		}
		s.publish(ports.TopicTimelineMarked, res)
	}
	return res, selErr
}

func (s *TrackingSession) loadTimeline(ctx context.Context) (*TimelineStore, error) {
	entries, err := s.timeline.LoadTimeline(ctx)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	store, err := NewTimelineStore(entries)
	if err != nil {
		return nil, fmt.Errorf("load timeline: %w", err)
	}
	return store, nil
}

func (s *TrackingSession) lock(ctx context.Context) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Lock(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	return func() {
		if err := release(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to release lock")
		}
	}, nil
}

func (s *TrackingSession) publish(topic string, v any) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}
