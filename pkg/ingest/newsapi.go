package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const newsAPIBase = "https://newsapi.org/v2/everything"

// NewsAPIConnector pulls recent articles matching the company's supply
// chain keywords from the NewsAPI "everything" endpoint.
type NewsAPIConnector struct {
	apiKey   string
	query    string
	pageSize int
	baseURL  string
	client   *http.Client
}

// NewNewsAPIConnector builds the connector. The query is an OR-joined
// keyword expression derived from the company profile.
func NewNewsAPIConnector(apiKey, query string) *NewsAPIConnector {
	return &NewsAPIConnector{
		apiKey:   apiKey,
		query:    query,
		pageSize: 50,
		baseURL:  newsAPIBase,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Name identifies the connector in logs and article records.
func (c *NewsAPIConnector) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Fetch pulls one page of matching articles, newest first.
func (c *NewsAPIConnector) Fetch(ctx context.Context) ([]RawItem, error) {
	params := url.Values{}
	params.Set("q", c.query)
	params.Set("sortBy", "publishedAt")
	params.Set("language", "en")
	params.Set("pageSize", fmt.Sprintf("%d", c.pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building newsapi request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching from newsapi: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned status %d", resp.StatusCode)
	}

	var payload newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("newsapi error: %s", payload.Message)
	}

	items := make([]RawItem, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" {
			continue
		}
		publishedAt, _ := time.Parse(time.RFC3339, a.PublishedAt)
		items = append(items, RawItem{
			ID:          a.URL,
			Title:       a.Title,
			Body:        a.Content,
			Description: a.Description,
			URL:         a.URL,
			Source:      "newsapi:" + a.Source.Name,
			PublishedAt: publishedAt,
		})
	}
	return items, nil
}
