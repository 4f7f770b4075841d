// Package model defines shared data structures.
package model

// FoundItem represents a listing row persisted for a search term.
type FoundItem struct {
	ID      int64
	TermID  int64
	Index   int    // position as shown by the remote listing; shifts over time
	Subject string
	Poster  string
	Group   string
	Age     string // opaque; the site rewrites it continuously
}

// RemoteRow represents one listing entry as currently shown by the remote site.
type RemoteRow struct {
	Index   int    `json:"index"`
	Subject string `json:"subject"`
	Poster  string `json:"poster"`
	Group   string `json:"group"`
	Age     string `json:"age"`
}

// Key identifies "the same" item across fetches. The remote index and age
// both drift over time, so neither participates.
type Key struct {
	Subject string
	Poster  string
	Group   string
}

// Key returns the identity key for a remote row.
func (r RemoteRow) Key() Key {
	return Key{Subject: r.Subject, Poster: r.Poster, Group: r.Group}
}

// Key returns the identity key for a stored item.
func (i FoundItem) Key() Key {
	return Key{Subject: i.Subject, Poster: i.Poster, Group: i.Group}
}

// ReportEntry holds the newly discovered rows for one term, in listing order.
type ReportEntry struct {
	Term string      `json:"term"`
	Rows []RemoteRow `json:"rows"`
}

// Report is the aggregated outcome of one full run. Only terms with a
// non-empty delta appear in Entries.
type Report struct {
	Timestamp string        `json:"timestamp"`
	Entries   []ReportEntry `json:"entries"`
	Errors    []string      `json:"errors"`
}

// Empty reports nothing new and no errors.
func (r *Report) Empty() bool {
	return len(r.Entries) == 0 && len(r.Errors) == 0
}
