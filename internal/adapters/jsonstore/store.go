// Package jsonstore keeps tracked shows and the timeline as two JSON files in
// a data directory. Every save backs the previous file up as *.bak, then
// writes a temp file and renames it over the original.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

const (
	ShowsFile    = "shows.json"
	TimelineFile = "timeline.json"
)

type Store struct {
	mu  sync.Mutex
	fs  afero.Fs
	dir string
}

func New(fsys afero.Fs, dir string) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Store{fs: fsys, dir: dir}
}

type showsDoc struct {
	Shows []domain.TrackedShow `json:"shows"`
}

type timelineDoc struct {
	Entries []timelineRecord `json:"entries"`
}

// timelineRecord stores dates as YYYY-MM-DD.
type timelineRecord struct {
	DiscoveredOn string          `json:"discoveredOn"`
	ShowID       int64           `json:"showId"`
	ShowName     string          `json:"showName"`
	Position     domain.Position `json:"position"`
	Title        string          `json:"title"`
	AirDate      string          `json:"airDate,omitempty"`
	Watched      bool            `json:"watched"`
}

func (s *Store) LoadShows(ctx context.Context) ([]domain.TrackedShow, error) {
	var doc showsDoc
	if err := s.read(ShowsFile, &doc); err != nil {
		return nil, err
	}
	if doc.Shows == nil {
		doc.Shows = []domain.TrackedShow{}
	}
	return doc.Shows, nil
}

func (s *Store) SaveShows(ctx context.Context, shows []domain.TrackedShow) error {
	if shows == nil {
		shows = []domain.TrackedShow{}
	}
	return s.write(ShowsFile, showsDoc{Shows: shows})
}

func (s *Store) LoadTimeline(ctx context.Context) ([]domain.NotificationEntry, error) {
	var doc timelineDoc
	if err := s.read(TimelineFile, &doc); err != nil {
		return nil, err
	}
	out := make([]domain.NotificationEntry, 0, len(doc.Entries))
	for i, r := range doc.Entries {
		discovered, err := domain.ParseDate(r.DiscoveredOn)
		if err != nil {
			return nil, fmt.Errorf("%w: %s entry %d: bad discovery date %q", domain.ErrStateCorruption, TimelineFile, i+1, r.DiscoveredOn)
		}
		aired, err := domain.ParseDate(r.AirDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %s entry %d: bad air date %q", domain.ErrStateCorruption, TimelineFile, i+1, r.AirDate)
		}
		out = append(out, domain.NotificationEntry{
			DiscoveredOn: discovered,
			ShowID:       r.ShowID,
			ShowName:     r.ShowName,
			Position:     r.Position,
			Title:        r.Title,
			AirDate:      aired,
			Watched:      r.Watched,
		})
	}
	return out, nil
}

func (s *Store) SaveTimeline(ctx context.Context, entries []domain.NotificationEntry) error {
	doc := timelineDoc{Entries: make([]timelineRecord, 0, len(entries))}
	for _, e := range entries {
		doc.Entries = append(doc.Entries, timelineRecord{
			DiscoveredOn: domain.FormatDate(e.DiscoveredOn),
			ShowID:       e.ShowID,
			ShowName:     e.ShowName,
			Position:     e.Position,
			Title:        e.Title,
			AirDate:      domain.FormatDate(e.AirDate),
			Watched:      e.Watched,
		})
	}
	return s.write(TimelineFile, doc)
}

// read treats a missing file as empty state. Unparsable content is corruption.
func (s *Store) read(name string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", name, err)
	}
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrStateCorruption, name, err)
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	if prev, err := afero.ReadFile(s.fs, path); err == nil {
		if err := afero.WriteFile(s.fs, path+".bak", prev, 0o644); err != nil {
			return fmt.Errorf("backup %s: %w", name, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("backup %s: %w", name, err)
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, append(b, '\n'), 0o644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
