package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

// ShowsRepository stores tracked shows. Saves replace the whole set inside
// one transaction and keep the caller's order.
type ShowsRepository struct {
	db *sql.DB
}

func NewShowsRepository(db *sql.DB) *ShowsRepository {
	return &ShowsRepository{db: db}
}

func (r *ShowsRepository) LoadShows(ctx context.Context) ([]domain.TrackedShow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, numbering, last_seen_season, last_seen_episode, last_checked_at, added_at
		FROM shows
		ORDER BY sort_order ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TrackedShow{}
	for rows.Next() {
		var (
			show                 domain.TrackedShow
			numbering            string
			season, episode      sql.NullInt64
			lastChecked, addedAt string
		)
		if err := rows.Scan(&show.ID, &show.Name, &numbering, &season, &episode, &lastChecked, &addedAt); err != nil {
			return nil, err
		}
		show.Numbering = domain.Numbering(numbering)
		if !show.Numbering.Valid() {
			return nil, fmt.Errorf("%w: show %d has unknown numbering %q", domain.ErrStateCorruption, show.ID, numbering)
		}
		if episode.Valid {
			pos := domain.Absolute(int(episode.Int64))
			if show.Numbering == domain.NumberingSeasonEpisode {
				pos = domain.SeasonEpisode(int(season.Int64), int(episode.Int64))
			}
			show.LastSeen = &pos
		}
		if t, err := time.Parse(time.RFC3339, lastChecked); err == nil {
			show.LastCheckedAt = t
		}
		if t, err := time.Parse(time.RFC3339, addedAt); err == nil {
			show.AddedAt = t
		}
		out = append(out, show)
	}
	return out, rows.Err()
}

func (r *ShowsRepository) SaveShows(ctx context.Context, shows []domain.TrackedShow) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shows`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO shows(id, name, numbering, last_seen_season, last_seen_episode, sort_order, last_checked_at, added_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, show := range shows {
		var season, episode sql.NullInt64
		if show.LastSeen != nil {
			episode = sql.NullInt64{Int64: int64(show.LastSeen.Episode), Valid: true}
			if show.LastSeen.Numbering == domain.NumberingSeasonEpisode {
				season = sql.NullInt64{Int64: int64(show.LastSeen.Season), Valid: true}
			}
		}
		if _, err := stmt.ExecContext(ctx,
			show.ID, show.Name, string(show.Numbering), season, episode, i,
			formatTime(show.LastCheckedAt), formatTime(show.AddedAt),
		); err != nil {
			return fmt.Errorf("save show %d: %w", show.ID, err)
		}
	}
	return tx.Commit()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
