package domain

import (
	"fmt"
	"time"
)

// Episode types reported by the metadata source.
const (
	EpisodeTypeRegular            = "regular"
	EpisodeTypeSignificantSpecial = "significant_special"
)

// Episode is a single episode as reported by the metadata source.
type Episode struct {
	ShowName string `json:"showName"`
	// Season est nil pour les séries en numérotation absolue.
	Season  *int      `json:"season"`
	Number  int       `json:"number"`
	Title   string    `json:"title"`
	AirDate time.Time `json:"airDate"`
	Type    string    `json:"type,omitempty"`
}

func (e Episode) Position() Position {
	if e.Season == nil {
		return Absolute(e.Number)
	}
	return SeasonEpisode(*e.Season, e.Number)
}

func (e Episode) Numbering() Numbering {
	if e.Season == nil {
		return NumberingAbsolute
	}
	return NumberingSeasonEpisode
}

// IsSpecial reports whether the episode sits in the specials season (0).
func (e Episode) IsSpecial() bool {
	return e.Season != nil && *e.Season == 0
}

// AiredBy reports whether the episode aired on or before the given day.
// Episodes without a known air date have not aired.
func (e Episode) AiredBy(today time.Time) bool {
	if e.AirDate.IsZero() {
		return false
	}
	return !DateOf(e.AirDate).After(DateOf(today))
}

// DetectNumbering picks the numbering mode of a show from its episode list.
// A list mixing both modes is rejected.
func DetectNumbering(episodes []Episode) (Numbering, error) {
	withSeason, without := 0, 0
	for _, ep := range episodes {
		if ep.Season == nil {
			without++
		} else {
			withSeason++
		}
	}
	switch {
	case withSeason > 0 && without > 0:
		return "", fmt.Errorf("%w: episode list mixes season and absolute numbering", ErrStateCorruption)
	case without > 0:
		return NumberingAbsolute, nil
	default:
		return NumberingSeasonEpisode, nil
	}
}

// SeasonPtr is a small helper for building episodes.
func SeasonPtr(n int) *int { return &n }
