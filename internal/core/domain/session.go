package domain

import "time"

// SessionSummary is the payload-free view of an active session,
// returned by list queries. The data column is never exposed here.
type SessionSummary struct {
	ID      string    `json:"id"`
	Device  string    `json:"device"`
	App     string    `json:"app"`
	IP      string    `json:"ip"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Expires time.Time `json:"expires"`
}
