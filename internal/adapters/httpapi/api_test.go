package httpapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/sqlite"
	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

type fakeSource struct {
	candidates []domain.Candidate
	episodes   map[int64][]domain.Episode
	searchErr  error
}

func (f *fakeSource) Search(ctx context.Context, query string) ([]domain.Candidate, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}

func (f *fakeSource) Episodes(ctx context.Context, showID int64) ([]domain.Episode, error) {
	eps, ok := f.episodes[showID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return eps, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ep(season, number int, title string, aired time.Time) domain.Episode {
	return domain.Episode{ShowName: "Shogun", Season: domain.SeasonPtr(season), Number: number, Title: title, AirDate: aired}
}

func newTestRouter(t *testing.T, src *fakeSource, bus ports.EventBus) http.Handler {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	session := app.NewTrackingSession(
		zerolog.Nop(), src,
		sqlite.NewShowsRepository(db.SQL), sqlite.NewTimelineRepository(db.SQL),
		bus, domain.DefaultSettings(),
	).WithClock(func() time.Time { return time.Date(2024, 3, 15, 20, 30, 0, 0, time.UTC) })
	return NewServer(zerolog.Nop(), session, bus).Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, &fakeSource{}, nil)
	rr := do(t, h, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: want %d, got %d", http.StatusOK, rr.Code)
	}
	if got := decode[map[string]string](t, rr)["status"]; got != "ok" {
		t.Fatalf("status field: got %q", got)
	}
}

func TestTrackCheckAndMarkWatched(t *testing.T) {
	src := &fakeSource{
		candidates: []domain.Candidate{{ID: 60, Name: "Shōgun", Year: 2024}},
		episodes: map[int64][]domain.Episode{
			60: {ep(1, 1, "Anjin", day(2024, 2, 27)), ep(1, 2, "Servants of Two Masters", day(2024, 2, 27))},
		},
	}
	h := newTestRouter(t, src, nil)

	rr := do(t, h, http.MethodPost, "/api/v1/shows/search", `{"query":"shogun"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("search status: want %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	ranked := decode[[]app.RankedCandidate](t, rr)
	if len(ranked) != 1 || ranked[0].Score != 100 {
		t.Fatalf("unexpected ranking %+v", ranked)
	}

	rr = do(t, h, http.MethodPost, "/api/v1/shows", `{"id":60,"name":"Shōgun"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("add status: want %d, got %d (%s)", http.StatusCreated, rr.Code, rr.Body.String())
	}
	added := decode[app.AddResult](t, rr)
	if added.Show.LastSeen == nil || added.Show.LastSeen.Code() != "S01E02" {
		t.Fatalf("baseline: got %+v", added.Show.LastSeen)
	}

	rr = do(t, h, http.MethodPost, "/api/v1/shows", `{"id":60,"name":"Shōgun"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("re-add status: want %d, got %d", http.StatusConflict, rr.Code)
	}

	src.episodes[60] = append(src.episodes[60],
		ep(1, 3, "Tomorrow Is Tomorrow", day(2024, 3, 5)),
		ep(1, 4, "The Eightfold Fence", day(2024, 3, 12)),
		ep(1, 5, "Broken to the Fist", day(2024, 3, 19)),
	)
	rr = do(t, h, http.MethodPost, "/api/v1/check", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("check status: want %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	report := decode[app.CheckReport](t, rr)
	if report.Added != 2 || len(report.Results) != 1 || report.Results[0].ErrorCode != "" {
		t.Fatalf("unexpected report %+v", report)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/timeline", "")
	timeline := decode[[]timelineEntryDTO](t, rr)
	if len(timeline) != 2 {
		t.Fatalf("timeline: want 2 entries, got %d", len(timeline))
	}
	if timeline[0].Index != 1 || timeline[0].Code != "S01E03" || timeline[1].Code != "S01E04" {
		t.Fatalf("unexpected timeline %+v", timeline)
	}
	if want := "2024-03-15 | Shōgun | S01E03 | Tomorrow Is Tomorrow"; timeline[0].Line != want {
		t.Fatalf("line: want %q, got %q", want, timeline[0].Line)
	}

	// Partiel: l'index valide est appliqué, le reste est signalé.
	rr = do(t, h, http.MethodPost, "/api/v1/timeline/watched", `{"selector":"1,9"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("mark status: want %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	marked := decode[app.MarkResult](t, rr)
	if marked.Updated != 1 || len(marked.Ignored) != 1 || marked.Ignored[0].Token != "9" {
		t.Fatalf("unexpected mark result %+v", marked)
	}

	rr = do(t, h, http.MethodPost, "/api/v1/timeline/watched", `{"selector":"7"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid selector status: want %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if got := decode[map[string]string](t, rr)["code"]; got != "invalid_selector" {
		t.Fatalf("error code: got %q", got)
	}

	rr = do(t, h, http.MethodGet, "/api/v1/timeline", "")
	if remaining := decode[[]timelineEntryDTO](t, rr); len(remaining) != 1 || remaining[0].Code != "S01E04" {
		t.Fatalf("unexpected unwatched view %+v", remaining)
	}
	rr = do(t, h, http.MethodGet, "/api/v1/timeline?all=1", "")
	if all := decode[[]timelineEntryDTO](t, rr); len(all) != 2 || all[0].Index != 0 || !all[0].Watched {
		t.Fatalf("unexpected full view %+v", all)
	}

	rr = do(t, h, http.MethodDelete, "/api/v1/shows/shogun", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("remove status: want %d, got %d (%s)", http.StatusOK, rr.Code, rr.Body.String())
	}
	rr = do(t, h, http.MethodDelete, "/api/v1/shows/60", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second remove status: want %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestSearchErrors(t *testing.T) {
	src := &fakeSource{searchErr: fmt.Errorf("tvmaze: %w", ports.ErrTransport)}
	h := newTestRouter(t, src, nil)

	if rr := do(t, h, http.MethodPost, "/api/v1/shows/search", `{"query":"  "}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("empty query status: want %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if rr := do(t, h, http.MethodPost, "/api/v1/shows/search", `{`); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad json status: want %d, got %d", http.StatusBadRequest, rr.Code)
	}
	rr := do(t, h, http.MethodPost, "/api/v1/shows/search", `{"query":"dune"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("transport status: want %d, got %d", http.StatusBadGateway, rr.Code)
	}
	if got := decode[map[string]string](t, rr)["code"]; got != "transport" {
		t.Fatalf("error code: got %q", got)
	}

	src.searchErr = nil
	rr = do(t, h, http.MethodPost, "/api/v1/shows/search", `{"query":"dune"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("no candidates status: want %d, got %d", http.StatusNotFound, rr.Code)
	}
}

func TestTimelineRejectsBadLimit(t *testing.T) {
	h := newTestRouter(t, &fakeSource{}, nil)
	if rr := do(t, h, http.MethodGet, "/api/v1/timeline?limit=ten", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("status: want %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestEventsStream(t *testing.T) {
	bus := memorybus.New()
	t.Cleanup(bus.Close)
	srv := httptest.NewServer(newTestRouter(t, &fakeSource{}, bus))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	rd := bufio.NewReader(resp.Body)
	readEvent := func() []string {
		var lines []string
		for {
			line, err := rd.ReadString('\n')
			if err != nil {
				t.Fatalf("read stream: %v", err)
			}
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return lines
			}
			lines = append(lines, line)
		}
	}

	if hello := readEvent(); len(hello) == 0 || hello[0] != "event: hello" {
		t.Fatalf("unexpected first event %q", hello)
	}

	bus.Publish(ports.TopicCheckCompleted, []byte(`{"added":2}`))
	evt := readEvent()
	if len(evt) != 3 || !strings.HasPrefix(evt[0], "id: ") || evt[1] != "event: check.completed" || evt[2] != `data: {"added":2}` {
		t.Fatalf("unexpected event %q", evt)
	}
}
