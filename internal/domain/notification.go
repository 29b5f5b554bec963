package domain

import (
	"fmt"
	"time"
)

// NotificationEntry is one line of the timeline: an episode discovered by a
// check on a given day.
type NotificationEntry struct {
	DiscoveredOn time.Time `json:"discoveredOn"`
	ShowID       int64     `json:"showId"`
	ShowName     string    `json:"showName"`
	Position     Position  `json:"position"`
	Title        string    `json:"title"`
	AirDate      time.Time `json:"airDate"`
	Watched      bool      `json:"watched"`
}

// EntryKey identifies a timeline entry. Re-running a check on the same day
// yields the same keys, which is what makes appends idempotent.
type EntryKey struct {
	Date     string
	ShowName string
	Code     string
}

func (k EntryKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.Date, k.ShowName, k.Code)
}

func (e NotificationEntry) Key() EntryKey {
	return EntryKey{
		Date:     FormatDate(e.DiscoveredOn),
		ShowName: e.ShowName,
		Code:     e.Position.Code(),
	}
}

// NewNotificationEntry stamps an episode discovered on `today`.
func NewNotificationEntry(showID int64, ep Episode, today time.Time) NotificationEntry {
	return NotificationEntry{
		DiscoveredOn: DateOf(today),
		ShowID:       showID,
		ShowName:     ep.ShowName,
		Position:     ep.Position(),
		Title:        ep.Title,
		AirDate:      ep.AirDate,
	}
}
