package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Numbering is how a show numbers its episodes. It is fixed when the show is
// first tracked.
type Numbering string

const (
	NumberingSeasonEpisode Numbering = "season_episode"
	NumberingAbsolute      Numbering = "absolute"
)

func (n Numbering) Valid() bool {
	return n == NumberingSeasonEpisode || n == NumberingAbsolute
}

// Position locates an episode within a show. Season is only meaningful for
// NumberingSeasonEpisode; for NumberingAbsolute, Episode holds the absolute
// episode number.
type Position struct {
	Numbering Numbering `json:"numbering"`
	Season    int       `json:"season,omitempty"`
	Episode   int       `json:"episode"`
}

func SeasonEpisode(season, episode int) Position {
	return Position{Numbering: NumberingSeasonEpisode, Season: season, Episode: episode}
}

func Absolute(n int) Position {
	return Position{Numbering: NumberingAbsolute, Episode: n}
}

// Compare returns -1, 0 or 1. Both positions must share the same numbering.
func (p Position) Compare(o Position) (int, error) {
	if p.Numbering != o.Numbering {
		return 0, fmt.Errorf("%w: cannot compare %s position with %s position", ErrStateCorruption, p.Numbering, o.Numbering)
	}
	switch p.Numbering {
	case NumberingSeasonEpisode:
		if c := cmpInt(p.Season, o.Season); c != 0 {
			return c, nil
		}
		return cmpInt(p.Episode, o.Episode), nil
	case NumberingAbsolute:
		return cmpInt(p.Episode, o.Episode), nil
	default:
		return 0, fmt.Errorf("%w: unknown numbering %q", ErrStateCorruption, p.Numbering)
	}
}

// Code renders the position the way it appears in the timeline: S05E16 or E016.
func (p Position) Code() string {
	if p.Numbering == NumberingAbsolute {
		return fmt.Sprintf("E%03d", p.Episode)
	}
	return fmt.Sprintf("S%02dE%02d", p.Season, p.Episode)
}

func (p Position) String() string { return p.Code() }

// ParsePositionCode is the inverse of Code.
func ParsePositionCode(code string) (Position, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if strings.HasPrefix(c, "S") {
		idx := strings.Index(c, "E")
		if idx < 2 {
			return Position{}, fmt.Errorf("invalid episode code %q", code)
		}
		s, err := strconv.Atoi(c[1:idx])
		if err != nil {
			return Position{}, fmt.Errorf("invalid episode code %q", code)
		}
		e, err := strconv.Atoi(c[idx+1:])
		if err != nil {
			return Position{}, fmt.Errorf("invalid episode code %q", code)
		}
		return SeasonEpisode(s, e), nil
	}
	if strings.HasPrefix(c, "E") {
		n, err := strconv.Atoi(c[1:])
		if err != nil {
			return Position{}, fmt.Errorf("invalid episode code %q", code)
		}
		return Absolute(n), nil
	}
	return Position{}, fmt.Errorf("invalid episode code %q", code)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
