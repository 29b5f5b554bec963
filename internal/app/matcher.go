package app

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

// DefaultFindThreshold is the minimum score for resolving a tracked show by name.
const DefaultFindThreshold = 60.0

// RankedCandidate is a search candidate with its match score in [0,100].
type RankedCandidate struct {
	domain.Candidate
	Score float64 `json:"score"`
}

var (
	reParensContent = regexp.MustCompile(`\([^\)]*\)`)
	reBrackets      = regexp.MustCompile(`\[[^\]]*\]`)
)

// RankCandidates scores every candidate against query and sorts them by score,
// highest first. Candidates with equal scores keep the order the source gave
// them. The input slice is not modified.
func RankCandidates(query string, candidates []domain.Candidate) []RankedCandidate {
	if len(candidates) == 0 {
		return []RankedCandidate{}
	}
	q := normalizeTitle(query)
	out := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, RankedCandidate{Candidate: c, Score: scoreNormalized(q, c.Name)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// MatchScore returns the fuzzy similarity of query and name, in [0,100].
func MatchScore(query, name string) float64 {
	return scoreNormalized(normalizeTitle(query), name)
}

// FindTrackedShow resolves a tracked show from a user reference: its numeric
// id, or a fuzzy name scoring at least threshold.
func FindTrackedShow(ref string, shows []domain.TrackedShow, threshold float64) (domain.TrackedShow, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" || len(shows) == 0 {
		return domain.TrackedShow{}, false
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		for _, s := range shows {
			if s.ID == id {
				return s, true
			}
		}
	}
	q := normalizeTitle(ref)
	best, bestScore := -1, -1.0
	for i, s := range shows {
		if sc := scoreNormalized(q, s.Name); sc > bestScore {
			best, bestScore = i, sc
		}
	}
	if best < 0 || bestScore < threshold {
		return domain.TrackedShow{}, false
	}
	return shows[best], true
}

func scoreNormalized(q, rawName string) float64 {
	name := normalizeTitle(rawName)
	if q == "" || name == "" {
		return 0
	}
	if q == name {
		return 100
	}
	best := ratio(q, name)
	// Variante sans "(2019)", "[TV]"...
	if stripped := normalizeTitle(stripQualifiers(rawName)); stripped != "" && stripped != name {
		if q == stripped {
			best = math.Max(best, 99.9)
		}
		best = math.Max(best, ratio(q, stripped))
	}
	best = math.Max(best, containmentScore(q, name))
	best = math.Max(best, tokenScore(q, name))
	best = math.Max(best, 0.9*partialRatio(q, name))
	return clampScore(best)
}

// containmentScore gives pure substring containment a score close to 100
// whatever the length difference, but always below an exact match.
func containmentScore(q, name string) float64 {
	if !strings.Contains(name, q) {
		return 0
	}
	return 95 + 4.9*coverage(q, name)
}

// tokenScore handles reordered words: a query whose tokens are all in the
// name scores like containment; partial overlap scores proportionally.
func tokenScore(q, name string) float64 {
	qt := uniqueTokens(q)
	nt := uniqueTokens(name)
	if len(qt) == 0 || len(nt) == 0 {
		return 0
	}
	inName := make(map[string]struct{}, len(nt))
	for _, t := range nt {
		inName[t] = struct{}{}
	}
	shared := 0
	for _, t := range qt {
		if _, ok := inName[t]; ok {
			shared++
		}
	}
	if shared == len(qt) {
		return 95 + 4.9*coverage(strings.Join(qt, " "), name)
	}
	return 85 * float64(shared) / float64(len(qt))
}

// partialRatio is the best ratio between q and any window of name with q's length.
func partialRatio(q, name string) float64 {
	qr := []rune(q)
	nr := []rune(name)
	if len(qr) == 0 || len(nr) == 0 {
		return 0
	}
	if len(qr) >= len(nr) {
		return ratio(q, name)
	}
	best := 0.0
	for i := 0; i+len(qr) <= len(nr); i++ {
		if r := ratio(q, string(nr[i:i+len(qr)])); r > best {
			best = r
			if best == 100 {
				break
			}
		}
	}
	return best
}

func ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longest))
}

func coverage(part, whole string) float64 {
	w := utf8.RuneCountInString(whole)
	if w == 0 {
		return 0
	}
	c := float64(utf8.RuneCountInString(part)) / float64(w)
	if c > 1 {
		return 1
	}
	return c
}

func uniqueTokens(s string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, t := range strings.Fields(s) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func stripQualifiers(title string) string {
	clean := reParensContent.ReplaceAllString(title, " ")
	clean = reBrackets.ReplaceAllString(clean, " ")
	return strings.Join(strings.Fields(clean), " ")
}

// normalizeTitle lower-cases, strips accents, transliterates non-Latin
// scripts and collapses everything that is not a letter or digit into single
// spaces. Apostrophes are dropped so "It's" matches "its".
func normalizeTitle(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	if s == "" {
		return ""
	}

	// Remove accents (NFD -> remove Mn -> NFC).
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(tr, s); err == nil {
		s = out
	}
	s = strings.ToLower(unidecode.Unidecode(s))

	b := strings.Builder{}
	b.Grow(len(s))
	for _, ch := range s {
		switch {
		case unicode.IsLetter(ch) || unicode.IsDigit(ch):
			b.WriteRune(ch)
		case ch == '\'' || ch == '’':
			// skip
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func clampScore(v float64) float64 {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return math.Round(v*10) / 10
}
