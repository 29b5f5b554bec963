package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

// TimelineRepository stores the notification timeline in display order.
type TimelineRepository struct {
	db *sql.DB
}

func NewTimelineRepository(db *sql.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

func (r *TimelineRepository) LoadTimeline(ctx context.Context) ([]domain.NotificationEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT discovered_on, show_id, show_name, numbering, season, episode, title, air_date, watched
		FROM timeline
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.NotificationEntry{}
	for rows.Next() {
		var (
			e                 domain.NotificationEntry
			discovered, aired string
			numbering         string
			season, episode   int
			watched           int
		)
		if err := rows.Scan(&discovered, &e.ShowID, &e.ShowName, &numbering, &season, &episode, &e.Title, &aired, &watched); err != nil {
			return nil, err
		}
		if e.DiscoveredOn, err = domain.ParseDate(discovered); err != nil {
			return nil, fmt.Errorf("%w: bad discovery date %q", domain.ErrStateCorruption, discovered)
		}
		if e.AirDate, err = domain.ParseDate(aired); err != nil {
			return nil, fmt.Errorf("%w: bad air date %q", domain.ErrStateCorruption, aired)
		}
		switch domain.Numbering(numbering) {
		case domain.NumberingSeasonEpisode:
			e.Position = domain.SeasonEpisode(season, episode)
		case domain.NumberingAbsolute:
			e.Position = domain.Absolute(episode)
		default:
			return nil, fmt.Errorf("%w: timeline entry has unknown numbering %q", domain.ErrStateCorruption, numbering)
		}
		e.Watched = watched != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *TimelineRepository) SaveTimeline(ctx context.Context, entries []domain.NotificationEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM timeline`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO timeline(discovered_on, show_id, show_name, code, numbering, season, episode, title, air_date, watched)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		watched := 0
		if e.Watched {
			watched = 1
		}
		if _, err := stmt.ExecContext(ctx,
			domain.FormatDate(e.DiscoveredOn), e.ShowID, e.ShowName, e.Position.Code(),
			string(e.Position.Numbering), e.Position.Season, e.Position.Episode,
			e.Title, domain.FormatDate(e.AirDate), watched,
		); err != nil {
			// "constraint failed: UNIQUE constraint failed: timeline.discovered_on, ..."
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				return fmt.Errorf("duplicate timeline entry %s: %w", e.Key(), ports.ErrConflict)
			}
			return err
		}
	}
	return tx.Commit()
}
