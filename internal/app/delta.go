package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

// DeltaResult is the outcome of comparing a show's last-seen position with
// its current episode list.
type DeltaResult struct {
	// NewEpisodes are ascending by position, oldest first.
	NewEpisodes []domain.Episode
	// NewLastSeen stays nil while nothing has aired.
	NewLastSeen *domain.Position
}

// DeltaResolver decides which episodes count as new for a show.
type DeltaResolver struct {
	Specials domain.SpecialsPolicy
}

func NewDeltaResolver(specials domain.SpecialsPolicy) *DeltaResolver {
	if !specials.Valid() {
		specials = domain.SpecialsSmart
	}
	return &DeltaResolver{Specials: specials}
}

// ComputeNew returns the aired episodes strictly after lastSeen and the
// greatest aired position.
//
// When lastSeen is nil the show is being tracked for the first time: the
// latest aired episode becomes the baseline and nothing is reported as new.
// Every episode must use the show's numbering; a mismatch is reported as
// domain.ErrStateCorruption.
func (r *DeltaResolver) ComputeNew(lastSeen *domain.Position, numbering domain.Numbering, episodes []domain.Episode, today time.Time) (DeltaResult, error) {
	if lastSeen != nil && lastSeen.Numbering != numbering {
		return DeltaResult{}, fmt.Errorf("%w: last seen %s uses %s numbering, show uses %s", domain.ErrStateCorruption, lastSeen.Code(), lastSeen.Numbering, numbering)
	}

	aired := make([]domain.Episode, 0, len(episodes))
	for _, ep := range episodes {
		if ep.Numbering() != numbering {
			return DeltaResult{}, fmt.Errorf("%w: episode %s uses %s numbering, show uses %s", domain.ErrStateCorruption, ep.Position().Code(), ep.Numbering(), numbering)
		}
		if !ep.AiredBy(today) || !r.includes(ep) {
			continue
		}
		aired = append(aired, ep)
	}
	sortEpisodes(aired)

	res := DeltaResult{NewEpisodes: []domain.Episode{}, NewLastSeen: clonePosition(lastSeen)}
	if len(aired) == 0 {
		return res, nil
	}
	latest := aired[len(aired)-1].Position()

	if lastSeen == nil {
		res.NewLastSeen = &latest
		return res, nil
	}

	for _, ep := range aired {
		c, err := ep.Position().Compare(*lastSeen)
		if err != nil {
			return DeltaResult{}, err
		}
		if c > 0 {
			res.NewEpisodes = append(res.NewEpisodes, ep)
		}
	}
	// Le last-seen ne recule jamais, même si la source a retiré des épisodes.
	if c, _ := latest.Compare(*lastSeen); c > 0 {
		res.NewLastSeen = &latest
	}
	return res, nil
}

func (r *DeltaResolver) includes(ep domain.Episode) bool {
	if !ep.IsSpecial() {
		return true
	}
	switch r.Specials {
	case domain.SpecialsAll:
		return true
	case domain.SpecialsNone:
		return false
	default:
		// Sans type renseigné on garde tout le season 0.
		if ep.Type == "" {
			return true
		}
		return ep.Type == domain.EpisodeTypeSignificantSpecial
	}
}

// sortEpisodes orders episodes of a single numbering mode by position.
func sortEpisodes(eps []domain.Episode) {
	sort.SliceStable(eps, func(i, j int) bool {
		c, _ := eps[i].Position().Compare(eps[j].Position())
		return c < 0
	})
}

func clonePosition(p *domain.Position) *domain.Position {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}
