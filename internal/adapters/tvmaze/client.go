// Package tvmaze implements ports.MetadataSource on top of the public TVMaze
// REST API (https://www.tvmaze.com/api).
package tvmaze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

const (
	DefaultBaseURL      = "https://api.tvmaze.com"
	DefaultTimeout      = 10 * time.Second
	DefaultRequestDelay = 500 * time.Millisecond
)

// Client fetches shows and episode lists. Requests are spaced by the request
// delay and transient failures are retried with exponential backoff.
type Client struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	attempts  uint
	backoff   time.Duration
	userAgent string
}

func New() *Client {
	return &Client{
		baseURL:   DefaultBaseURL,
		client:    &http.Client{Timeout: DefaultTimeout},
		limiter:   rate.NewLimiter(rate.Every(DefaultRequestDelay), 1),
		attempts:  2,
		backoff:   2 * time.Second,
		userAgent: "episode-owl",
	}
}

func (c *Client) WithBaseURL(base string) *Client {
	if b := strings.TrimRight(strings.TrimSpace(base), "/"); b != "" {
		c.baseURL = b
	}
	return c
}

func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.client = hc
	}
	return c
}

func (c *Client) WithTimeout(d time.Duration) *Client {
	if d > 0 {
		c.client.Timeout = d
	}
	return c
}

// WithRetryAttempts sets how many times a failed request is retried, on top
// of the first try.
func (c *Client) WithRetryAttempts(n int) *Client {
	if n >= 0 {
		c.attempts = uint(n) + 1
	}
	return c
}

// WithRequestDelay sets the minimum spacing between two requests. Zero
// disables throttling.
func (c *Client) WithRequestDelay(d time.Duration) *Client {
	if d <= 0 {
		c.limiter = rate.NewLimiter(rate.Inf, 1)
		return c
	}
	c.limiter = rate.NewLimiter(rate.Every(d), 1)
	return c
}

// WithBackoff sets the first retry delay; it doubles on every attempt.
func (c *Client) WithBackoff(d time.Duration) *Client {
	if d > 0 {
		c.backoff = d
	}
	return c
}

type searchResult struct {
	Score float64 `json:"score"`
	Show  apiShow `json:"show"`
}

type apiShow struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Premiered  string      `json:"premiered"`
	Status     string      `json:"status"`
	Network    *apiNetwork `json:"network"`
	WebChannel *apiNetwork `json:"webChannel"`
}

type apiNetwork struct {
	Name string `json:"name"`
}

type apiEpisode struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Season  *int   `json:"season"`
	Number  *int   `json:"number"`
	Airdate string `json:"airdate"`
	Type    string `json:"type"`
}

// Search returns candidates in TVMaze relevance order.
func (c *Client) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	var results []searchResult
	if err := c.getJSON(ctx, "/search/shows?"+q.Encode(), &results); err != nil {
		return nil, err
	}

	out := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		if r.Show.ID <= 0 || strings.TrimSpace(r.Show.Name) == "" {
			continue
		}
		out = append(out, toCandidate(r.Show))
	}
	return out, nil
}

// Episodes returns every episode TVMaze lists for the show, including
// unaired ones. Episodes without a number are dropped.
func (c *Client) Episodes(ctx context.Context, showID int64) ([]domain.Episode, error) {
	var eps []apiEpisode
	if err := c.getJSON(ctx, "/shows/"+strconv.FormatInt(showID, 10)+"/episodes", &eps); err != nil {
		return nil, err
	}

	out := make([]domain.Episode, 0, len(eps))
	for _, e := range eps {
		if e.Number == nil {
			continue
		}
		air, err := domain.ParseDate(strings.TrimSpace(e.Airdate))
		if err != nil {
			// date illisible: traité comme non diffusé
			air = time.Time{}
		}
		ep := domain.Episode{
			Number:  *e.Number,
			Title:   strings.TrimSpace(e.Name),
			AirDate: air,
			Type:    e.Type,
		}
		if e.Season != nil {
			ep.Season = domain.SeasonPtr(*e.Season)
		}
		out = append(out, ep)
	}
	return out, nil
}

func toCandidate(s apiShow) domain.Candidate {
	cand := domain.Candidate{ID: s.ID, Name: strings.TrimSpace(s.Name), Status: s.Status}
	if len(s.Premiered) >= 4 {
		if y, err := strconv.Atoi(s.Premiered[:4]); err == nil {
			cand.Year = y
		}
	}
	switch {
	case s.Network != nil && s.Network.Name != "":
		cand.Network = s.Network.Name
	case s.WebChannel != nil && s.WebChannel.Name != "":
		cand.Network = s.WebChannel.Name
	}
	return cand
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(fmt.Errorf("%w: %v", ports.ErrTransport, err))
			}
			return c.once(ctx, path, out)
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryable),
	)
}

func (c *Client) once(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return &transportError{err: err, retry: true}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("tvmaze %s: %w", path, ports.ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &transportError{err: errors.New("tvmaze http error: " + resp.Status), retry: true}
	case resp.StatusCode >= 400:
		return &transportError{err: errors.New("tvmaze http error: " + resp.Status)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &transportError{err: fmt.Errorf("invalid json: %w", err)}
	}
	return nil
}

// transportError wraps ports.ErrTransport; retry marks failures worth another try.
type transportError struct {
	err   error
	retry bool
}

func (e *transportError) Error() string { return ports.ErrTransport.Error() + ": " + e.err.Error() }

func (e *transportError) Unwrap() []error { return []error{ports.ErrTransport, e.err} }

func isRetryable(err error) bool {
	var te *transportError
	return errors.As(err, &te) && te.retry
}
