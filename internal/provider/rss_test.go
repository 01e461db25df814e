package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newTestRSS(body string) *RSSProvider {
	p := NewRSSProvider(trace.NewNoopTracerProvider().Tracer("test"))
	p.client = &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
			Header:     make(http.Header),
		}, nil
	})}
	return p
}

func TestRSSFetchFeed(t *testing.T) {
	p := newTestRSS(`<?xml version="1.0"?><rss version="2.0"><channel><title>Example Feed</title><item><title>ETH adoption rises</title><link>https://news.example/eth</link><description><![CDATA[<p>Ethereum growth continues</p>]]></description><guid>guid-1</guid><pubDate>Fri, 13 Feb 2026 10:00:00 +0000</pubDate><author>Reporter</author></item></channel></rss>`)

	items, err := p.FetchFeed(context.Background(), "https://news.example/rss", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	if item.Source != "news" || item.SourceItemID != "guid-1" {
		t.Fatalf("unexpected item: %+v", item)
	}
	if item.Excerpt != "Ethereum growth continues" {
		t.Fatalf("expected html stripped excerpt, got %q", item.Excerpt)
	}
	if item.Author != "Reporter" {
		t.Fatalf("expected author fallback, got %q", item.Author)
	}
	if item.Metadata["channel"] != "Example Feed" {
		t.Fatalf("expected channel metadata, got %v", item.Metadata)
	}
}

func TestRSSFetchFeedSkipsUntitledAndCapsItems(t *testing.T) {
	p := newTestRSS(`<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
		<item><title></title><link>https://news.example/a</link></item>
		<item><title>One</title><guid>g1</guid></item>
		<item><title>Two</title><guid>g2</guid></item>
		<item><title>Three</title><guid>g3</guid></item>
	</channel></rss>`)

	items, err := p.FetchFeed(context.Background(), "https://news.example/rss", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected untitled skipped and cap applied, got %d", len(items))
	}
	if items[0].Title != "One" || items[1].Title != "Two" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestRSSFetchFeedGeneratesStableIDWithoutGUID(t *testing.T) {
	p := newTestRSS(`<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
		<item><title>No identifiers here</title><pubDate>Fri, 13 Feb 2026 10:00:00 +0000</pubDate></item>
	</channel></rss>`)

	first, err := p.FetchFeed(context.Background(), "https://news.example/rss", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.FetchFeed(context.Background(), "https://news.example/rss", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first[0].SourceItemID == "" || first[0].SourceItemID != second[0].SourceItemID {
		t.Fatalf("expected deterministic hashed id, got %q vs %q", first[0].SourceItemID, second[0].SourceItemID)
	}
}

func TestRSSFetchFeedRequiresURL(t *testing.T) {
	p := NewRSSProvider(trace.NewNoopTracerProvider().Tracer("test"))
	if _, err := p.FetchFeed(context.Background(), "   ", 10); err == nil {
		t.Fatal("expected error for missing feed url")
	}
}
