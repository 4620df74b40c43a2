package jiraclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/config"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/events"
	"github.com/ginjaninja78/Jira-to-XLSX-conversion/internal/types"
)

// testClient points a Client at the given server with fast rate limiting.
func testClient(serverURL string, sink events.Sink) *Client {
	creds := &config.Credentials{
		BaseURL:  serverURL,
		Email:    "bot@example.com",
		APIToken: "secret-token",
	}
	return New(creds, config.FetchSettings{
		PageSize:          2,
		RequestsPerSecond: 1000,
		TimeoutSeconds:    5,
	}, sink)
}

func issueJSON(key string) map[string]interface{} {
	return map[string]interface{}{
		"key": key,
		"fields": map[string]interface{}{
			"summary": "issue " + key,
		},
	}
}

func TestQuery_JQL(t *testing.T) {
	q := Query{
		Authors: []string{"alice@example.com", "Bob Smith"},
		Start:   "2024-03-01",
		End:     "2024-03-31",
	}
	assert.Equal(t,
		`timespent is not null AND worklogAuthor in ("alice@example.com", "Bob Smith") AND worklogDate >= '2024-03-01' AND worklogDate <= '2024-03-31'`,
		q.JQL())
}

func TestSearch_Pagination(t *testing.T) {
	var requests []searchRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, searchPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		email, token, ok := r.BasicAuth()
		assert.True(t, ok, "request must carry basic auth")
		assert.Equal(t, "bot@example.com", email)
		assert.Equal(t, "secret-token", token)

		var req searchRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		requests = append(requests, req)

		resp := map[string]interface{}{}
		if req.NextPageToken == "" {
			resp["issues"] = []interface{}{issueJSON("OPS-1"), issueJSON("OPS-2")}
			resp["nextPageToken"] = "tok-abc"
		} else {
			resp["issues"] = []interface{}{issueJSON("OPS-3")}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	table, err := testClient(server.URL, nil).Search(context.Background(), Query{Start: "2024-03-01", End: "2024-03-31"}, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, table.RowCount)
	assert.Equal(t, "OPS-1", table.Rows[0]["Issue Key"])
	assert.Equal(t, "OPS-3", table.Rows[2]["Issue Key"])

	require.Len(t, requests, 2)
	assert.Empty(t, requests[0].NextPageToken)
	assert.Equal(t, "tok-abc", requests[1].NextPageToken, "second request echoes the continuation token")
	assert.Equal(t, 2, requests[0].MaxResults)
	assert.Contains(t, requests[0].JQL, "timespent is not null")
	assert.Contains(t, requests[0].Fields, "worklog")
	assert.Contains(t, requests[0].Fields, "customfield_12345")
}

func TestSearch_ZeroIssues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"issues":[]}`)
	}))
	defer server.Close()

	var collected []events.Event
	sink := events.SinkFunc(func(e events.Event) { collected = append(collected, e) })

	table, err := testClient(server.URL, sink).Search(context.Background(), Query{}, 0)
	require.NoError(t, err)
	assert.Zero(t, table.RowCount)
	assert.Equal(t, columns, table.Headers)

	var messages []string
	for _, e := range collected {
		messages = append(messages, e.Message)
	}
	assert.Contains(t, messages, "Total issues fetched: 0")
}

func TestSearch_PageLimitTruncation(t *testing.T) {
	page := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		page++
		fmt.Fprintf(w, `{"issues":[{"key":"OPS-%d","fields":{}}],"nextPageToken":"tok-%d"}`, page, page)
	}))
	defer server.Close()

	var collected []events.Event
	sink := events.SinkFunc(func(e events.Event) { collected = append(collected, e) })

	table, err := testClient(server.URL, sink).Search(context.Background(), Query{}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, page, "fetch stops at the page limit")
	assert.Equal(t, 2, table.RowCount)

	var warning *events.Event
	for i := range collected {
		if collected[i].Severity == events.Warning {
			warning = &collected[i]
			break
		}
	}
	require.NotNil(t, warning, "truncated fetch reports a warning")
	assert.Equal(t, "Page limit 2 reached; fetch truncated.", warning.Message)
}

func TestSearch_LastPageCarryingNoTokenDoesNotWarn(t *testing.T) {
	// The limit check runs after the token check, so a fetch whose final
	// page has no continuation token ends cleanly even at the cap.
	page := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		page++
		if page == 1 {
			fmt.Fprint(w, `{"issues":[{"key":"OPS-1","fields":{}}],"nextPageToken":"tok"}`)
		} else {
			fmt.Fprint(w, `{"issues":[{"key":"OPS-2","fields":{}}]}`)
		}
	}))
	defer server.Close()

	var collected []events.Event
	sink := events.SinkFunc(func(e events.Event) { collected = append(collected, e) })

	table, err := testClient(server.URL, sink).Search(context.Background(), Query{}, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, table.RowCount)

	for _, e := range collected {
		assert.NotEqual(t, events.Warning, e.Severity, "unexpected warning: %s", e.Message)
	}
}

func TestSearch_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errorMessages":["bad token"]}`)
	}))
	defer server.Close()

	_, err := testClient(server.URL, nil).Search(context.Background(), Query{}, 0)
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, `Jira API error 401: {"errorMessages":["bad token"]}`, apiErr.Error())
}

func TestSearch_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"issues":[]}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(server.URL, nil).Search(ctx, Query{}, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSearch_FlattensIssueFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"issues":[{
			"key": "CSI-1",
			"fields": {
				"issuetype": {"name": "Bug"},
				"updated": "2024-03-02T09:30:00.000+0000",
				"status": {"name": "Done"},
				"resolutiondate": null,
				"project": {"name": "Operations"},
				"summary": "Login fails",
				"assignee": null,
				"priority": {"name": "Major"},
				"created": "2024-03-01T08:00:00.000+0000",
				"customfield_12345": {"name": "Web"},
				"timespent": 7200
			}
		}]}`)
	}))
	defer server.Close()

	table, err := testClient(server.URL, nil).Search(context.Background(), Query{}, 0)
	require.NoError(t, err)
	require.Equal(t, 1, table.RowCount)

	assert.Equal(t, map[string]string{
		"Issue Key":    "CSI-1",
		"Issue Type":   "Bug",
		"Updated":      "2024-03-02 09:30:00",
		"Status":       "Done",
		"Resolved":     "",
		"Project Name": "Operations",
		"Summary":      "Login fails",
		"Assignee":     "",
		"Priority":     "Major",
		"Created":      "2024-03-01 08:00:00",
		"Platform":     "Web",
		"Worklog":      "7200",
	}, table.Rows[0])
}

func TestSearch_NullTimespentBecomesZero(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"issues":[{"key":"OPS-1","fields":{"timespent":null}}]}`)
	}))
	defer server.Close()

	table, err := testClient(server.URL, nil).Search(context.Background(), Query{}, 0)
	require.NoError(t, err)
	assert.Equal(t, "0", table.Rows[0]["Worklog"])
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.csv")
	table := &types.Table{
		Headers: []string{"Issue Key", "Summary"},
		Rows: []map[string]string{
			{"Issue Key": "OPS-1", "Summary": "Login, fails"},
			{"Issue Key": "OPS-2", "Summary": "Slow search"},
		},
	}
	require.NoError(t, WriteCSV(path, table))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Issue Key,Summary\nOPS-1,\"Login, fails\"\nOPS-2,Slow search\n", string(raw))
}

func TestSearchSource_Name(t *testing.T) {
	src := &SearchSource{Query: Query{Start: "2024-03-01", End: "2024-03-31"}}
	assert.Equal(t, "Jira worklogs 2024-03-01 to 2024-03-31", src.Name())
}
