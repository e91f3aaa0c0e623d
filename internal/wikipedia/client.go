// Package wikipedia fetches article plain text through the MediaWiki
// Action API. It is used only by the offline indexer, never on the request
// path.
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL   = "https://en.wikipedia.org"
	apiPath          = "/w/api.php"
	defaultUserAgent = "plagiarism-checker-indexer/1.0"
)

// Article is one fetched Wikipedia article.
type Article struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Text  string `json:"text"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchArticle returns the plain-text extract of one article by title.
func (c *Client) FetchArticle(ctx context.Context, title string) (Article, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("titles", title)
	params.Set("prop", "extracts")
	params.Set("explaintext", "1")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPath+"?"+params.Encode(), nil)
	if err != nil {
		return Article{}, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return Article{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Article{}, fmt.Errorf("wikipedia: request failed: %d, %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Query struct {
			Pages []struct {
				Title   string `json:"title"`
				Extract string `json:"extract"`
				Missing bool   `json:"missing"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Article{}, err
	}
	if len(payload.Query.Pages) == 0 || payload.Query.Pages[0].Missing {
		return Article{}, fmt.Errorf("wikipedia: article %q not found", title)
	}

	page := payload.Query.Pages[0]
	if strings.TrimSpace(page.Extract) == "" {
		return Article{}, fmt.Errorf("wikipedia: article %q has no extract", title)
	}
	return Article{
		Title: page.Title,
		URL:   c.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(page.Title, " ", "_")),
		Text:  page.Extract,
	}, nil
}

// FetchArticles fetches several titles, skipping the ones that fail.
func (c *Client) FetchArticles(ctx context.Context, titles []string) ([]Article, error) {
	articles := make([]Article, 0, len(titles))
	for _, title := range titles {
		article, err := c.FetchArticle(ctx, title)
		if err != nil {
			log.Warn().Err(err).Str("title", title).Msg("Skipping article")
			continue
		}
		articles = append(articles, article)
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("wikipedia: no articles fetched")
	}
	return articles, nil
}
