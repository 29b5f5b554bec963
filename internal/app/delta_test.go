package app

import (
	"errors"
	"testing"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

func TestComputeNew_ReturnsEpisodesAfterLastSeen(t *testing.T) {
	today := day(2024, 3, 15)
	eps := []domain.Episode{
		se(5, 16, "Felina", day(2024, 3, 14)),
		se(5, 14, "Ozymandias", day(2024, 3, 1)),
		se(5, 15, "Granite State", day(2024, 3, 8)),
		se(5, 17, "Future", day(2024, 3, 22)),
	}
	r := NewDeltaResolver(domain.SpecialsSmart)

	res, err := r.ComputeNew(posPtr(domain.SeasonEpisode(5, 15)), domain.NumberingSeasonEpisode, eps, today)
	if err != nil {
		t.Fatalf("ComputeNew: %v", err)
	}
	if len(res.NewEpisodes) != 1 || res.NewEpisodes[0].Position() != domain.SeasonEpisode(5, 16) {
		t.Fatalf("expected [S05E16], got %+v", res.NewEpisodes)
	}
	if res.NewLastSeen == nil || *res.NewLastSeen != domain.SeasonEpisode(5, 16) {
		t.Fatalf("expected last seen S05E16, got %v", res.NewLastSeen)
	}

	// Rejouer avec le nouveau last-seen ne renvoie rien.
	again, err := r.ComputeNew(res.NewLastSeen, domain.NumberingSeasonEpisode, eps, today)
	if err != nil {
		t.Fatalf("ComputeNew(again): %v", err)
	}
	if len(again.NewEpisodes) != 0 || *again.NewLastSeen != *res.NewLastSeen {
		t.Fatalf("expected idempotent result, got %+v", again)
	}
}

func TestComputeNew_FirstTrackingSetsBaseline(t *testing.T) {
	today := day(2024, 3, 15)
	eps := []domain.Episode{
		se(1, 1, "Pilot", day(2023, 1, 1)),
		se(2, 9, "", day(2024, 3, 8)),
		se(2, 10, "Finale", day(2024, 3, 15)),
		se(2, 11, "", day(2024, 3, 16)),
	}
	res, err := NewDeltaResolver(domain.SpecialsSmart).ComputeNew(nil, domain.NumberingSeasonEpisode, eps, today)
	if err != nil {
		t.Fatalf("ComputeNew: %v", err)
	}
	if len(res.NewEpisodes) != 0 {
		t.Fatalf("first tracking must not report new episodes, got %d", len(res.NewEpisodes))
	}
	if res.NewLastSeen == nil || *res.NewLastSeen != domain.SeasonEpisode(2, 10) {
		t.Fatalf("expected baseline S02E10, got %v", res.NewLastSeen)
	}
}

func TestComputeNew_NothingAiredYet(t *testing.T) {
	eps := []domain.Episode{
		se(1, 1, "", day(2030, 1, 1)),
		{Season: domain.SeasonPtr(1), Number: 2},
	}
	res, err := NewDeltaResolver("").ComputeNew(nil, domain.NumberingSeasonEpisode, eps, day(2024, 1, 1))
	if err != nil {
		t.Fatalf("ComputeNew: %v", err)
	}
	if res.NewLastSeen != nil || len(res.NewEpisodes) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestComputeNew_NeverMovesBackwards(t *testing.T) {
	eps := []domain.Episode{se(5, 16, "", day(2024, 3, 1))}
	last := posPtr(domain.SeasonEpisode(5, 20))

	res, err := NewDeltaResolver(domain.SpecialsSmart).ComputeNew(last, domain.NumberingSeasonEpisode, eps, day(2024, 3, 15))
	if err != nil {
		t.Fatalf("ComputeNew: %v", err)
	}
	if *res.NewLastSeen != domain.SeasonEpisode(5, 20) {
		t.Fatalf("last seen moved backwards to %v", res.NewLastSeen)
	}
	if res.NewLastSeen == last {
		t.Fatalf("result must not alias the input pointer")
	}
}

func TestComputeNew_AbsoluteNumbering(t *testing.T) {
	today := day(2024, 3, 15)
	eps := []domain.Episode{
		absEp(102, day(2024, 3, 10)),
		absEp(99, day(2024, 2, 20)),
		absEp(101, day(2024, 3, 3)),
		absEp(103, day(2024, 3, 17)),
	}
	res, err := NewDeltaResolver(domain.SpecialsSmart).ComputeNew(posPtr(domain.Absolute(100)), domain.NumberingAbsolute, eps, today)
	if err != nil {
		t.Fatalf("ComputeNew: %v", err)
	}
	if len(res.NewEpisodes) != 2 || res.NewEpisodes[0].Number != 101 || res.NewEpisodes[1].Number != 102 {
		t.Fatalf("expected [E101 E102], got %+v", res.NewEpisodes)
	}
	if res.NewEpisodes[0].Position().Code() != "E101" {
		t.Fatalf("unexpected code %q", res.NewEpisodes[0].Position().Code())
	}
}

func TestComputeNew_NumberingMismatchIsCorruption(t *testing.T) {
	today := day(2024, 3, 15)
	cases := map[string]struct {
		last *domain.Position
		eps  []domain.Episode
	}{
		"last seen":     {last: posPtr(domain.Absolute(3)), eps: []domain.Episode{se(1, 1, "", today)}},
		"mixed episode": {last: posPtr(domain.SeasonEpisode(1, 1)), eps: []domain.Episode{se(1, 2, "", today), absEp(3, today)}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewDeltaResolver(domain.SpecialsSmart).ComputeNew(tc.last, domain.NumberingSeasonEpisode, tc.eps, today)
			if !errors.Is(err, domain.ErrStateCorruption) {
				t.Fatalf("expected ErrStateCorruption, got %v", err)
			}
		})
	}
}

func TestComputeNew_SpecialsPolicy(t *testing.T) {
	today := day(2024, 3, 15)
	movie := se(0, 1, "Movie", day(2024, 3, 10))
	movie.Type = domain.EpisodeTypeSignificantSpecial
	recap := se(0, 2, "Recap", day(2024, 3, 11))
	recap.Type = "insignificant_special"
	untyped := se(0, 3, "Extra", day(2024, 3, 12))
	untyped.Type = ""
	regular := se(1, 5, "Regular", day(2024, 3, 13))
	eps := []domain.Episode{movie, recap, untyped, regular}
	last := posPtr(domain.SeasonEpisode(0, 0))

	cases := []struct {
		policy domain.SpecialsPolicy
		want   []string
	}{
		{domain.SpecialsSmart, []string{"Movie", "Extra", "Regular"}},
		{domain.SpecialsAll, []string{"Movie", "Recap", "Extra", "Regular"}},
		{domain.SpecialsNone, []string{"Regular"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.policy), func(t *testing.T) {
			res, err := NewDeltaResolver(tc.policy).ComputeNew(last, domain.NumberingSeasonEpisode, eps, today)
			if err != nil {
				t.Fatalf("ComputeNew: %v", err)
			}
			if len(res.NewEpisodes) != len(tc.want) {
				t.Fatalf("want %v, got %+v", tc.want, res.NewEpisodes)
			}
			for i, title := range tc.want {
				if res.NewEpisodes[i].Title != title {
					t.Fatalf("episode %d: want %q, got %q", i, title, res.NewEpisodes[i].Title)
				}
			}
		})
	}
}

func TestComputeNew_NeverReturnsFutureEpisodes(t *testing.T) {
	today := day(2024, 3, 15)
	eps := []domain.Episode{
		se(1, 1, "", day(2024, 3, 15)),
		se(1, 2, "", day(2024, 3, 16)),
		{Season: domain.SeasonPtr(1), Number: 3},
	}
	res, err := NewDeltaResolver(domain.SpecialsAll).ComputeNew(posPtr(domain.SeasonEpisode(0, 0)), domain.NumberingSeasonEpisode, eps, today)
	if err != nil {
		t.Fatalf("ComputeNew: %v", err)
	}
	for _, ep := range res.NewEpisodes {
		if !ep.AiredBy(today) {
			t.Fatalf("future episode returned: %v", ep.Position())
		}
	}
	if len(res.NewEpisodes) != 1 {
		t.Fatalf("expected only the episode airing today, got %d", len(res.NewEpisodes))
	}
}
