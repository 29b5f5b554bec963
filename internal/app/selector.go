package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

// SelectorIssue is one selector token that was ignored.
type SelectorIssue struct {
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// SelectorError lists ignored tokens. The valid part of the selector has
// still been applied when it is returned.
type SelectorError struct {
	Issues []SelectorIssue
}

func (e *SelectorError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return domain.ErrInvalidSelector.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%q: %s", is.Token, is.Reason))
	}
	return domain.ErrInvalidSelector.Error() + ": " + strings.Join(parts, "; ")
}

func (e *SelectorError) Unwrap() error { return domain.ErrInvalidSelector }

// Selection is a parsed selector: sorted, de-duplicated 0-based indices.
type Selection struct {
	Indices []int
	Issues  []SelectorIssue
}

// ParseSelector parses "3", "1,3,5", "2-4", "all" or "none" against a list
// of size entries displayed with 1-based indices. Bad tokens are collected as
// issues instead of failing the whole selector.
func ParseSelector(input string, size int) Selection {
	input = strings.ToLower(strings.TrimSpace(input))
	sel := Selection{Indices: []int{}}
	if input == "" || input == "none" {
		return sel
	}

	picked := map[int]struct{}{}
	for _, raw := range strings.Split(input, ",") {
		tok := strings.TrimSpace(raw)
		switch {
		case tok == "":
			continue
		case tok == "all":
			for i := 0; i < size; i++ {
				picked[i] = struct{}{}
			}
		case tok == "none":
			continue
		case strings.Contains(tok, "-"):
			parseRange(tok, size, picked, &sel)
		default:
			n, err := strconv.Atoi(tok)
			if err != nil {
				sel.Issues = append(sel.Issues, SelectorIssue{Token: tok, Reason: "not a number"})
				continue
			}
			if n < 1 || n > size {
				sel.Issues = append(sel.Issues, SelectorIssue{Token: tok, Reason: outOfRange(size)})
				continue
			}
			picked[n-1] = struct{}{}
		}
	}

	for i := range picked {
		sel.Indices = append(sel.Indices, i)
	}
	sort.Ints(sel.Indices)
	return sel
}

func parseRange(tok string, size int, picked map[int]struct{}, sel *Selection) {
	a, b, _ := strings.Cut(tok, "-")
	start, err1 := strconv.Atoi(strings.TrimSpace(a))
	end, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		sel.Issues = append(sel.Issues, SelectorIssue{Token: tok, Reason: "not a numeric range"})
		return
	}
	if start > end {
		sel.Issues = append(sel.Issues, SelectorIssue{Token: tok, Reason: "range start is after its end"})
		return
	}
	lo, hi := max(start, 1), min(end, size)
	inside := 0
	for n := lo; n <= hi; n++ {
		picked[n-1] = struct{}{}
		inside++
	}
	outside := end - start + 1 - inside
	if outside > 0 {
		sel.Issues = append(sel.Issues, SelectorIssue{Token: tok, Reason: fmt.Sprintf("%d indices %s", outside, outOfRange(size))})
	}
}

func outOfRange(size int) string {
	if size == 0 {
		return "out of range (nothing to select)"
	}
	return fmt.Sprintf("out of range (1-%d)", size)
}
