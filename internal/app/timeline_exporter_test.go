package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/Guilhem-Bonnet/episode-owl/internal/adapters/memorybus"
	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
	"github.com/Guilhem-Bonnet/episode-owl/internal/ports"
)

func TestFormatTimelineLine(t *testing.T) {
	e := entry("2024-03-15", "Breaking Bad", domain.SeasonEpisode(5, 16), false)
	e.Title = "Felina"
	if got := FormatTimelineLine(e, ""); got != "2024-03-15 | Breaking Bad | S05E16 | Felina" {
		t.Fatalf("unexpected line %q", got)
	}
	e.Title = ""
	e.Position = domain.Absolute(7)
	if got := FormatTimelineLine(e, "02/01/2006"); got != "15/03/2024 | Breaking Bad | E007 | TBA" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestTimelineExporter_ExportWritesUnwatchedLines(t *testing.T) {
	f := newSessionFixture(t)
	f.timeline.entries = []domain.NotificationEntry{
		entry("2024-03-15", "A", domain.SeasonEpisode(1, 2), false),
		entry("2024-03-14", "B", domain.SeasonEpisode(1, 1), true),
		entry("2024-03-13", "C", domain.Absolute(3), false),
	}
	fs := afero.NewMemMapFs()
	x := NewTimelineExporter(zerolog.Nop(), fs, f.session, nil, "/out/notifications.txt", domain.DefaultSettings())

	n, err := x.Export(context.Background())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 {
		t.Fatalf("want 2 lines, got %d", n)
	}
	b, err := afero.ReadFile(fs, "/out/notifications.txt")
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "2024-03-15 | A | S01E02 | TBA\n2024-03-13 | C | E003 | TBA\n"
	if string(b) != want {
		t.Fatalf("unexpected export:\n%s", b)
	}
}

func TestTimelineExporter_RunReactsToEvents(t *testing.T) {
	f := newSessionFixture(t)
	f.timeline.entries = []domain.NotificationEntry{entry("2024-03-15", "A", domain.SeasonEpisode(1, 2), false)}
	fs := afero.NewMemMapFs()
	bus := memorybus.New()
	x := NewTimelineExporter(zerolog.Nop(), fs, f.session, bus, "/notifications.txt", domain.DefaultSettings())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go x.Run(ctx)

	deadline := time.After(2 * time.Second)
	for {
		// Publier en boucle: le Run peut ne pas encore être abonné.
		bus.Publish(ports.TopicCheckCompleted, []byte(`{}`))
		if ok, _ := afero.Exists(fs, "/notifications.txt"); ok {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("export file was not written")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
