// =============================================================================
// Jira to XLSX Converter - Jira Search Client
// =============================================================================
//
// This module fetches worklog-bearing issues from a Jira Cloud site and
// flattens them into the same tabular shape the CSV parser produces, so the
// rest of the pipeline cannot tell a remote fetch from a file.
//
// ENDPOINT:
//   POST <base>/rest/api/3/search/jql with basic auth. The POST body carries
//   the JQL, which can exceed URL length limits when the author list is
//   long. Pagination is cursor-based: each response may carry a
//   nextPageToken, which the next request echoes back. The deprecated
//   offset-based search API returns 410 for this workload and is not used.
//
// PAGINATION CONTRACT:
//   The loop ends when a page returns zero issues or no continuation token.
//   A positive page limit stops the loop early and reports a truncation
//   warning through the sink. Any non-2xx response aborts the whole fetch
//   with an APIError; there are no retries and no partial results.
//
// =============================================================================

package jiraclient

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/events"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/normalize"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/types"
)

// searchPath is the cursor-paginated search endpoint.
const searchPath = "/rest/api/3/search/jql"

// maxErrorBody caps how much of an error response body is kept for the
// APIError message.
const maxErrorBody = 2048

// columns are the flattened table headers, in output order. Both schema
// descriptors reconcile against these names.
var columns = []string{
	"Issue Key",
	"Issue Type",
	"Updated",
	"Status",
	"Resolved",
	"Project Name",
	"Summary",
	"Assignee",
	"Priority",
	"Created",
	"Platform",
	"Worklog",
}

// =============================================================================
// ERRORS
// =============================================================================

// APIError is a non-2xx response from Jira. Status is the HTTP status code
// and Body an excerpt of the response body.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("Jira API error %d: %s", e.Status, e.Body)
}

// =============================================================================
// QUERY
// =============================================================================

// Query selects the issues to fetch: worklogs by the given authors between
// Start and End (inclusive, YYYY-MM-DD).
type Query struct {
	Authors []string
	Start   string
	End     string
}

// JQL renders the query as a JQL string. Authors are quoted individually so
// display names containing spaces survive.
func (q Query) JQL() string {
	quoted := make([]string, len(q.Authors))
	for i, author := range q.Authors {
		quoted[i] = `"` + author + `"`
	}

	return fmt.Sprintf(
		"timespent is not null AND worklogAuthor in (%s) AND worklogDate >= '%s' AND worklogDate <= '%s'",
		strings.Join(quoted, ", "), q.Start, q.End,
	)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to one Jira site. Create it with New.
type Client struct {
	baseURL       string
	email         string
	apiToken      string
	httpClient    *http.Client
	limiter       *rate.Limiter
	pageSize      int
	platformField string
	sink          events.Sink
}

// New builds a Client from credentials and fetch settings. Zero-valued
// settings fall back to the same defaults config.Default applies, so a
// partially filled FetchSettings still works. A nil sink discards events.
func New(creds *config.Credentials, settings config.FetchSettings, sink events.Sink) *Client {
	if sink == nil {
		sink = events.Nop()
	}

	pageSize := settings.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	rps := settings.RequestsPerSecond
	if rps <= 0 {
		rps = 4
	}
	timeout := settings.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	platformField := settings.PlatformField
	if platformField == "" {
		platformField = "customfield_12345"
	}

	return &Client{
		baseURL:       strings.TrimRight(creds.BaseURL, "/"),
		email:         creds.Email,
		apiToken:      creds.APIToken,
		httpClient:    &http.Client{Timeout: time.Duration(timeout) * time.Second},
		limiter:       rate.NewLimiter(rate.Limit(rps), 1),
		pageSize:      pageSize,
		platformField: platformField,
		sink:          sink,
	}
}

// =============================================================================
// WIRE SHAPES
// =============================================================================

type searchRequest struct {
	JQL           string   `json:"jql"`
	MaxResults    int      `json:"maxResults"`
	Fields        []string `json:"fields"`
	NextPageToken string   `json:"nextPageToken,omitempty"`
}

type searchResponse struct {
	Issues        []issue `json:"issues"`
	NextPageToken string  `json:"nextPageToken"`
}

type issue struct {
	Key    string                 `json:"key"`
	Fields map[string]interface{} `json:"fields"`
}

// searchFields lists the issue fields each page requests. Everything the
// transformation schemas can consume, nothing more.
func (c *Client) searchFields() []string {
	return []string{
		"key", "issuetype", "updated", "status", "resolutiondate",
		"project", "summary", "assignee", "priority", "created",
		"worklog", "timespent", c.platformField,
	}
}

// =============================================================================
// SEARCH
// =============================================================================

// Search fetches every issue matching q and returns the flattened table.
// pageLimit > 0 caps the number of pages fetched; 0 means unbounded. Zero
// matching issues is a successful fetch of an empty table.
func (c *Client) Search(ctx context.Context, q Query, pageLimit int) (*types.Table, error) {
	events.Infof(c.sink, events.PhaseLoad, "Connecting to Jira: %s", c.baseURL)

	jql := q.JQL()
	var all []issue
	token := ""
	page := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		if token == "" {
			events.Infof(c.sink, events.PhaseLoad, "Fetching first page...")
		} else {
			events.Infof(c.sink, events.PhaseLoad, "Fetching page with token: %.10s...", token)
		}

		resp, err := c.searchPage(ctx, jql, token)
		if err != nil {
			return nil, err
		}
		page++

		if len(resp.Issues) == 0 {
			break
		}
		all = append(all, resp.Issues...)

		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken

		// Only reached with a continuation token in hand, so a cap hit
		// here always means data was left behind.
		if pageLimit > 0 && page >= pageLimit {
			events.Warnf(c.sink, events.PhaseLoad, "Page limit %d reached; fetch truncated.", pageLimit)
			break
		}
	}

	events.Infof(c.sink, events.PhaseLoad, "Total issues fetched: %d", len(all))

	return c.flatten(all), nil
}

// searchPage performs one POST against the search endpoint.
func (c *Client) searchPage(ctx context.Context, jql, token string) (*searchResponse, error) {
	body, err := json.Marshal(searchRequest{
		JQL:           jql,
		MaxResults:    c.pageSize,
		Fields:        c.searchFields(),
		NextPageToken: token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+searchPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.email, c.apiToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call Jira search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode Jira response: %w", err)
	}

	return &sr, nil
}

// =============================================================================
// FLATTENING
// =============================================================================

// flatten turns raw issues into the tabular shape the pipeline consumes.
// Nested objects contribute their name (displayName for the assignee),
// missing or null values flatten to "", and the three timestamp columns are
// normalized with the timezone dropped so Excel reads them cleanly.
func (c *Client) flatten(issues []issue) *types.Table {
	rows := make([]map[string]string, 0, len(issues))

	for _, is := range issues {
		f := is.Fields
		rows = append(rows, map[string]string{
			"Issue Key":    is.Key,
			"Issue Type":   nested(f, "issuetype", "name"),
			"Updated":      timestamp(f, "updated"),
			"Status":       nested(f, "status", "name"),
			"Resolved":     timestamp(f, "resolutiondate"),
			"Project Name": nested(f, "project", "name"),
			"Summary":      scalar(f["summary"]),
			"Assignee":     nested(f, "assignee", "displayName"),
			"Priority":     nested(f, "priority", "name"),
			"Created":      timestamp(f, "created"),
			"Platform":     nested(f, c.platformField, "name"),
			"Worklog":      seconds(f["timespent"]),
		})
	}

	headers := make([]string, len(columns))
	copy(headers, columns)

	return &types.Table{
		Headers:     headers,
		Rows:        rows,
		Source:      c.baseURL,
		RowCount:    len(rows),
		ColumnCount: len(headers),
	}
}

// nested extracts subkey from an object-valued field. Scalar values pass
// through, null becomes "".
func nested(fields map[string]interface{}, key, subkey string) string {
	switch v := fields[key].(type) {
	case map[string]interface{}:
		return scalar(v[subkey])
	default:
		return scalar(v)
	}
}

// scalar renders a decoded JSON value as a cell string.
func scalar(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// timestamp normalizes a timestamp field to the canonical form; values that
// do not parse become "".
func timestamp(fields map[string]interface{}, key string) string {
	raw := scalar(fields[key])
	if raw == "" {
		return ""
	}
	t, ok := normalize.ParseTimestamp(raw)
	if !ok {
		return ""
	}
	return normalize.FormatTimestamp(t)
}

// seconds renders the timespent field. Null and zero both become "0".
func seconds(v interface{}) string {
	s := scalar(v)
	if s == "" || s == "0" {
		return "0"
	}
	return s
}

// =============================================================================
// CSV DUMP
// =============================================================================

// WriteCSV saves a fetched table as a raw CSV dump, headers first, rows in
// fetch order.
func WriteCSV(path string, table *types.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV dump: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Headers); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	record := make([]string, len(table.Headers))
	for _, row := range table.Rows {
		for i, h := range table.Headers {
			record[i] = row[h]
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV dump: %w", err)
	}

	return f.Close()
}

// =============================================================================
// PIPELINE SOURCE
// =============================================================================

// SearchSource adapts a Search call to the pipeline's Source contract, so a
// fetch can feed a transformation directly without an intermediate file.
type SearchSource struct {
	Client    *Client
	Query     Query
	PageLimit int
}

// Name describes the fetch for run messages.
func (s *SearchSource) Name() string {
	return fmt.Sprintf("Jira worklogs %s to %s", s.Query.Start, s.Query.End)
}

// Load runs the search.
func (s *SearchSource) Load(ctx context.Context) (*types.Table, error) {
	return s.Client.Search(ctx, s.Query, s.PageLimit)
}
