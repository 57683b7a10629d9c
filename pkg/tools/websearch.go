package tools

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/airsift/airsift/pkg/classify"
	"github.com/airsift/airsift/pkg/version"
)

// ddgResponse is the subset of the DuckDuckGo instant-answer response the
// adapter reads.
type ddgResponse struct {
	AbstractText   string `json:"AbstractText"`
	AbstractURL    string `json:"AbstractURL"`
	AbstractSource string `json:"AbstractSource"`
	RelatedTopics  []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

const maxSearchResults = 5

// searchWebTool is the last-resort data source: broad coverage, low
// confidence. Responses built from it are never cached.
func (p *providers) searchWebTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolSearchWeb,
			Description: "Search the web for information not available from data providers.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query"}
				},
				"required": ["query"]
			}`,
			Capability: classify.Capability{
				BaseConfidence: 0.50,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			query := args.String("query")
			if query == "" {
				return nil, errors.New("query is required")
			}

			q := url.Values{}
			q.Set("q", query)
			q.Set("format", "json")
			q.Set("no_html", "1")

			var resp ddgResponse
			if err := p.getJSON(ctx, buildURL(p.opts.SearchEndpoint, "/", q), &resp); err != nil {
				return nil, err
			}

			results := make([]map[string]any, 0, maxSearchResults)
			if resp.AbstractText != "" {
				results = append(results, map[string]any{
					"text":   resp.AbstractText,
					"url":    resp.AbstractURL,
					"source": resp.AbstractSource,
				})
			}
			for _, t := range resp.RelatedTopics {
				if len(results) >= maxSearchResults {
					break
				}
				if t.Text == "" {
					continue
				}
				results = append(results, map[string]any{
					"text": t.Text,
					"url":  t.FirstURL,
				})
			}
			if len(results) == 0 {
				return &Result{Name: ToolSearchWeb, Success: false,
					Error: fmt.Sprintf("no search results for %q", query)}, nil
			}

			return &Result{Name: ToolSearchWeb, Success: true, Data: map[string]any{
				"query":   query,
				"results": results,
				"source":  "web search",
			}}, nil
		},
	}
}

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlTagPattern     = regexp.MustCompile(`(?s)<[^>]+>`)
	whitespaceRuns     = regexp.MustCompile(`\s+`)
)

const maxScrapeBytes = 256 << 10 // body read limit
const maxScrapeContent = 4000    // characters returned to the model

// scrapeWebsiteTool fetches a page and returns plain text. Only http(s)
// URLs are accepted.
func (p *providers) scrapeWebsiteTool() *Tool {
	return &Tool{
		Definition: Definition{
			Name:        ToolScrapeWebsite,
			Description: "Fetch a web page and extract its readable text content.",
			ParametersSchema: `{
				"type": "object",
				"properties": {
					"url": {"type": "string", "description": "Page URL (http or https)"}
				},
				"required": ["url"]
			}`,
			Capability: classify.Capability{
				BaseConfidence: 0.50,
			},
		},
		Handler: func(ctx context.Context, args Args) (*Result, error) {
			rawURL := args.String("url")
			if rawURL == "" {
				return nil, errors.New("url is required")
			}
			u, err := url.Parse(rawURL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return nil, fmt.Errorf("invalid url: %s", rawURL)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to build request: %w", err)
			}
			req.Header.Set("User-Agent", version.Full())

			resp, err := p.opts.HTTPClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("request failed: %w", err)
			}
			defer func() { _ = resp.Body.Close() }()

			if resp.StatusCode != http.StatusOK {
				return &Result{Name: ToolScrapeWebsite, Success: false,
					Error: fmt.Sprintf("page returned status %d", resp.StatusCode)}, nil
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, maxScrapeBytes))
			if err != nil {
				return nil, fmt.Errorf("failed to read body: %w", err)
			}

			text := extractText(string(body))
			truncated := false
			if len(text) > maxScrapeContent {
				text = text[:maxScrapeContent]
				truncated = true
			}
			if text == "" {
				return &Result{Name: ToolScrapeWebsite, Success: false,
					Error: "page had no readable text"}, nil
			}

			return &Result{Name: ToolScrapeWebsite, Success: true, Data: map[string]any{
				"url":       rawURL,
				"content":   text,
				"truncated": truncated,
			}}, nil
		},
	}
}

// extractText strips scripts, styles, and markup, collapsing whitespace.
func extractText(html string) string {
	text := scriptStylePattern.ReplaceAllString(html, " ")
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = whitespaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
