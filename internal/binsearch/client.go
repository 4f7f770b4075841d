// Package binsearch fetches and parses search result listings from a
// binsearch-style index site.
package binsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/netmpowers/bookwatch/internal/model"
)

// resultsTableSelector locates the search results table in the page.
const resultsTableSelector = "table.xMenuT"

// FetchError is a transport-level failure for one term's fetch. The caller
// decides whether it aborts anything; this package never retries.
type FetchError struct {
	Term string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %q: %v", e.Term, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches search listings.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxResults int
	maxAgeDays int
}

// NewClient creates a client for the given base URL. maxResults and
// maxAgeDays are fixed query-template constants of the deployment.
func NewClient(baseURL string, maxResults, maxAgeDays int, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxResults: maxResults,
		maxAgeDays: maxAgeDays,
	}
}

// SearchURL builds the query URL for a term. Words are joined with '+',
// e.g. "Piers Anthony epub" becomes
// "https://binsearch.info/?q=Piers+Anthony+epub&max=100&adv_age=1100&server=".
func (c *Client) SearchURL(term string) string {
	query := strings.Join(strings.Fields(term), "+")
	return fmt.Sprintf("%s/?q=%s&max=%d&adv_age=%d&server=",
		c.baseURL, query, c.maxResults, c.maxAgeDays)
}

// Fetch retrieves the current listing for a term. A page without a results
// table yields an empty set, not an error: the term may simply have no
// results right now. Transport failures and non-2xx statuses surface as a
// *FetchError.
func (c *Client) Fetch(ctx context.Context, term string) ([]model.RemoteRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(term), nil)
	if err != nil {
		return nil, &FetchError{Term: term, Err: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Term: term, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &FetchError{Term: term, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &FetchError{Term: term, Err: fmt.Errorf("parse body: %w", err)}
	}
	return parseListing(doc), nil
}

// parseListing extracts listing rows from the results table. Rows whose
// cells cannot be parsed are dropped; a partial listing is still useful.
func parseListing(doc *goquery.Document) []model.RemoteRow {
	var rows []model.RemoteRow
	table := doc.Find(resultsTableSelector).First()
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		row, ok := parseRow(tr)
		if !ok {
			return
		}
		rows = append(rows, row)
	})
	return rows
}

// parseRow reads one data row. Cell layout is
// [index, checkbox, subject, poster, group, age]; the checkbox cell is
// discarded. Header rows fail the index parse and are skipped naturally.
func parseRow(tr *goquery.Selection) (model.RemoteRow, bool) {
	cells := tr.Find("td")
	if cells.Length() < 6 {
		return model.RemoteRow{}, false
	}
	index, err := strconv.Atoi(strings.TrimSpace(cells.Eq(0).Text()))
	if err != nil {
		return model.RemoteRow{}, false
	}
	return model.RemoteRow{
		Index:   index,
		Subject: strings.TrimSpace(cells.Eq(2).Text()),
		Poster:  strings.TrimSpace(cells.Eq(3).Text()),
		Group:   strings.TrimSpace(cells.Eq(4).Text()),
		Age:     strings.TrimSpace(cells.Eq(5).Text()),
	}, true
}
