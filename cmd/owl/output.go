package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/Guilhem-Bonnet/episode-owl/internal/app"
	"github.com/Guilhem-Bonnet/episode-owl/internal/domain"
)

var (
	okColor    = color.New(color.FgGreen)
	warnColor  = color.New(color.FgYellow)
	errColor   = color.New(color.FgRed)
	titleColor = color.New(color.FgCyan, color.Bold)
	dimColor   = color.New(color.Faint)
)

func printCandidates(out io.Writer, ranked []app.RankedCandidate) {
	rows := make([][]string, 0, len(ranked))
	for i, c := range ranked {
		year := "-"
		if c.Year > 0 {
			year = strconv.Itoa(c.Year)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Name,
			year,
			dash(c.Status),
			dash(c.Network),
			strconv.FormatInt(c.ID, 10),
			fmt.Sprintf("%.1f", c.Score),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Name", "Year", "Status", "Network", "ID", "Score"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight},
	))
}

func printShows(out io.Writer, shows []domain.TrackedShow, dateFormat string) {
	if len(shows) == 0 {
		fmt.Fprintln(out, dimColor.Sprint("No tracked shows. Use `owl add <name>` to start."))
		return
	}
	rows := make([][]string, 0, len(shows))
	for _, s := range shows {
		last := "-"
		if s.LastSeen != nil {
			last = s.LastSeen.Code()
		}
		checked := "never"
		if !s.LastCheckedAt.IsZero() {
			checked = s.LastCheckedAt.Local().Format(dateFormat)
		}
		rows = append(rows, []string{
			strconv.FormatInt(s.ID, 10),
			s.Name,
			string(s.Numbering),
			last,
			checked,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Name", "Numbering", "Last seen", "Last check"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

// printTimeline numbers unwatched entries from 1, the indices accepted by
// `owl mark`. Watched entries are shown without an index.
func printTimeline(out io.Writer, entries []domain.NotificationEntry, dateFormat string) {
	if len(entries) == 0 {
		fmt.Fprintln(out, dimColor.Sprint("Nothing new. You're all caught up."))
		return
	}
	rows := make([][]string, 0, len(entries))
	idx := 0
	for _, e := range entries {
		num := ""
		if !e.Watched {
			idx++
			num = strconv.Itoa(idx)
		}
		title := e.Title
		if strings.TrimSpace(title) == "" {
			title = "TBA"
		}
		state := warnColor.Sprint("new")
		if e.Watched {
			state = dimColor.Sprint("watched")
		}
		rows = append(rows, []string{
			num,
			domain.DateOf(e.DiscoveredOn).Format(dateFormat),
			e.ShowName,
			e.Position.Code(),
			title,
			state,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Date", "Show", "Episode", "Title", "State"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	))
}

func printCheckReport(out io.Writer, report app.CheckReport) {
	for _, res := range report.Results {
		switch {
		case res.Failed():
			fmt.Fprintf(out, "%s %s: %s\n", errColor.Sprint("✗"), res.ShowName, res.Reason)
		case len(res.NewEpisodes) == 0:
			fmt.Fprintf(out, "%s %s: up to date\n", dimColor.Sprint("·"), res.ShowName)
		default:
			codes := make([]string, 0, len(res.NewEpisodes))
			for _, ep := range res.NewEpisodes {
				codes = append(codes, ep.Position().Code())
			}
			fmt.Fprintf(out, "%s %s: %s\n", okColor.Sprint("★"), titleColor.Sprint(res.ShowName), strings.Join(codes, ", "))
		}
	}
	summary := fmt.Sprintf("%d new episode(s), %d added to the timeline", report.NewEpisodeCount(), report.Added)
	if report.Archived > 0 {
		summary += fmt.Sprintf(", %d archived", report.Archived)
	}
	if n := len(report.Failures()); n > 0 {
		summary += ", " + errColor.Sprintf("%d show(s) failed", n)
	}
	fmt.Fprintln(out, summary)
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
