package domain

import "time"

// Candidate is a show returned by a metadata search, in the source's own
// relevance order.
type Candidate struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Year    int    `json:"year,omitempty"`
	Status  string `json:"status,omitempty"`
	Network string `json:"network,omitempty"`
}

// TrackedShow is a show the user follows.
type TrackedShow struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Numbering Numbering `json:"numbering"`
	// LastSeen est nil tant qu'aucun épisode n'a été diffusé.
	LastSeen      *Position `json:"lastSeen,omitempty"`
	LastCheckedAt time.Time `json:"lastCheckedAt"`
	AddedAt       time.Time `json:"addedAt"`
}
