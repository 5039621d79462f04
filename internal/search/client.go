// Package search is the client for the content-search service indexing
// congressional hearings, floor speeches and roll-call votes.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/civicpulse/legichat/config"
	"github.com/civicpulse/legichat/internal/chat"
)

// ServiceError is a typed search backend failure carrying a
// user-presentable message.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("search service error %s: %s", e.Code, e.Message)
}

// Client executes search actions against the content-search API.
type Client struct {
	baseURL    string
	apiKey     string
	maxResults int
	httpClient *http.Client
}

// NewClient creates a search client from configuration.
func NewClient(cfg config.SearchConfig) *Client {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type searchResponse struct {
	Query         string `json:"query"`
	Results       []struct {
		ContentID    string  `json:"content_id"`
		SegmentIndex int     `json:"segment_index"`
		ContentType  string  `json:"content_type"`
		Text         string  `json:"text"`
		Score        float64 `json:"score"`
		SpeakerName  string  `json:"speaker_name"`
		Title        string  `json:"title"`
		Date         string  `json:"date"`
		Chamber      string  `json:"chamber"`
		Committee    string  `json:"committee"`
		Congress     int     `json:"congress"`
		SourceURL    string  `json:"source_url"`
	} `json:"results"`
	TotalReturned int  `json:"total_returned"`
	HasMore       bool `json:"has_more"`
	NextOffset    int  `json:"next_offset"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Search converts the action into a search API call and maps the results
// into the uniform internal shape.
func (c *Client) Search(ctx context.Context, action chat.SearchAction) (*chat.SearchOutcome, error) {
	q := strings.TrimSpace(action.Query)
	if q == "" {
		return nil, &ServiceError{Code: "EMPTY_QUERY", Message: "The search query was empty."}
	}

	params := url.Values{}
	params.Set("q", q)
	if action.ContentType != "" {
		params.Set("type", action.ContentType)
	}
	if action.Speaker != "" {
		params.Set("speaker", action.Speaker)
	}
	if action.Chamber != "" {
		params.Set("chamber", strings.ToLower(action.Chamber))
	}
	if action.Committee != "" {
		params.Set("committee", action.Committee)
	}
	if action.Congress > 0 {
		params.Set("congress", strconv.Itoa(action.Congress))
	}
	if action.From != "" {
		params.Set("from", action.From)
	}
	if action.To != "" {
		params.Set("to", action.To)
	}
	limit := action.Limit
	if limit <= 0 || limit > c.maxResults {
		limit = c.maxResults
	}
	params.Set("limit", strconv.Itoa(limit))
	if action.Offset > 0 {
		params.Set("offset", strconv.Itoa(action.Offset))
	}
	if action.Enrich {
		params.Set("enrich", "true")
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ServiceError{Code: "UNREACHABLE", Message: "The search service could not be reached."}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error.Message != "" {
			return nil, &ServiceError{Code: errResp.Error.Code, Message: errResp.Error.Message}
		}
		return nil, &ServiceError{
			Code:    strconv.Itoa(resp.StatusCode),
			Message: fmt.Sprintf("The search service returned status %d.", resp.StatusCode),
		}
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, &ServiceError{Code: "BAD_RESPONSE", Message: "The search service returned an unreadable response."}
	}

	outcome := &chat.SearchOutcome{
		Query:         raw.Query,
		TotalReturned: raw.TotalReturned,
		HasMore:       raw.HasMore,
		NextOffset:    raw.NextOffset,
	}
	if outcome.Query == "" {
		outcome.Query = q
	}
	for _, r := range raw.Results {
		outcome.Results = append(outcome.Results, chat.SearchResult{
			ContentID:    r.ContentID,
			SegmentIndex: r.SegmentIndex,
			ContentType:  r.ContentType,
			Text:         r.Text,
			Score:        r.Score,
			SpeakerName:  r.SpeakerName,
			Title:        r.Title,
			Date:         r.Date,
			Chamber:      r.Chamber,
			Committee:    r.Committee,
			Congress:     r.Congress,
			SourceURL:    r.SourceURL,
		})
	}
	return outcome, nil
}

var _ chat.Searcher = (*Client)(nil)
