package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
)

const (
	redditBaseURL     = "https://www.reddit.com"
	defaultRedditUA   = "coin-compass/1.0 (market sentiment fetcher)"
	defaultRedditSize = 40
)

// RedditProvider reads subreddit hot listings through the public JSON
// endpoints. Reddit rejects requests without a descriptive User-Agent.
type RedditProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	tracer    trace.Tracer
}

func NewRedditProvider(tracer trace.Tracer) *RedditProvider {
	return &RedditProvider{
		client:    &http.Client{Timeout: 20 * time.Second},
		baseURL:   redditBaseURL,
		userAgent: defaultRedditUA,
		tracer:    tracer,
	}
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	URL         string  `json:"url"`
	Score       float64 `json:"score"`
	NumComments float64 `json:"num_comments"`
}

func (p *RedditProvider) FetchHot(ctx context.Context, subreddit string, limit int) ([]ContentItem, error) {
	_, span := p.tracer.Start(ctx, "reddit.fetch-hot")
	defer span.End()

	subreddit = strings.TrimSpace(subreddit)
	if subreddit == "" {
		return nil, fmt.Errorf("subreddit is required")
	}
	if limit <= 0 {
		limit = defaultRedditSize
	}
	if limit > 100 {
		limit = 100
	}

	base := strings.TrimRight(p.baseURL, "/")
	u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", base, url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reddit API error %d: %s", resp.StatusCode, string(body))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode reddit response: %w", err)
	}

	items := make([]ContentItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		item, ok := convertRedditPost(child.Data, base)
		if !ok {
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

func convertRedditPost(post redditPost, base string) (ContentItem, bool) {
	if strings.TrimSpace(post.ID) == "" || strings.TrimSpace(post.Title) == "" {
		return ContentItem{}, false
	}

	itemURL := strings.TrimSpace(post.URL)
	if permalink := strings.TrimSpace(post.Permalink); permalink != "" {
		itemURL = base + permalink
	}

	return ContentItem{
		Source:       "reddit",
		SourceItemID: post.ID,
		Title:        sanitizeText(post.Title, 300),
		URL:          itemURL,
		Excerpt:      sanitizeText(post.SelfText, 420),
		Author:       sanitizeText(post.Author, 120),
		PublishedAt:  time.Unix(int64(post.CreatedUTC), 0).UTC(),
		Metadata: map[string]any{
			"subreddit":    strings.TrimSpace(post.Subreddit),
			"score":        post.Score,
			"num_comments": post.NumComments,
		},
	}, true
}

func sanitizeText(in string, maxLen int) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	in = strings.ReplaceAll(in, "\n", " ")
	in = strings.ReplaceAll(in, "\r", " ")
	in = strings.Join(strings.Fields(in), " ")
	if maxLen > 0 && len(in) > maxLen {
		in = in[:maxLen]
	}
	return in
}
