package scraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"tech-newsletter/internal/infra/scraper"
	"tech-newsletter/internal/resilience/circuitbreaker"
	"tech-newsletter/internal/resilience/retry"
	"tech-newsletter/internal/utils/text"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func newTestFetcher() *scraper.RSSFetcher {
	return scraper.NewRSSFetcher(
		&http.Client{Timeout: 10 * time.Second},
		scraper.WithRetryConfig(fastRetry()),
		scraper.WithCircuitBreaker(circuitbreaker.New(circuitbreaker.DefaultConfig("feed-test"))),
	)
}

func serveXML(t *testing.T, contentType, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		if _, err := w.Write([]byte(body)); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

const twoItemRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Article 1</title>
      <link>https://example.com/article1</link>
      <description><![CDATA[<p>Description <b>1</b></p><img src="https://example.com/x.png"/>]]></description>
      <category>AI</category>
      <category>Startups</category>
      <pubDate>Mon, 01 Jan 2024 00:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Article 2</title>
      <link>https://example.com/article2</link>
      <description>Description 2</description>
      <pubDate>Tue, 02 Jan 2024 00:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

func TestRSSFetcher_Fetch_Success(t *testing.T) {
	server := serveXML(t, "application/rss+xml", twoItemRSS)

	entries, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}
	if entries[0].Title != "Article 1" {
		t.Errorf("entries[0].Title = %q, want %q", entries[0].Title, "Article 1")
	}
	if entries[0].Link != "https://example.com/article1" {
		t.Errorf("entries[0].Link = %q, want %q", entries[0].Link, "https://example.com/article1")
	}
	if entries[0].Description != "Description 1" {
		t.Errorf("entries[0].Description = %q, want HTML stripped %q", entries[0].Description, "Description 1")
	}
	if len(entries[0].Categories) != 2 || entries[0].Categories[0] != "AI" {
		t.Errorf("entries[0].Categories = %v, want [AI Startups]", entries[0].Categories)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !entries[0].PublishedAt.Equal(want) {
		t.Errorf("entries[0].PublishedAt = %v, want %v", entries[0].PublishedAt, want)
	}
	if entries[1].Title != "Article 2" {
		t.Errorf("entries[1].Title = %q, want %q", entries[1].Title, "Article 2")
	}
}

func TestRSSFetcher_Fetch_Atom(t *testing.T) {
	server := serveXML(t, "application/atom+xml", `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <link href="https://example.com"/>
  <updated>2024-01-01T00:00:00Z</updated>
  <entry>
    <title>Atom Article 1</title>
    <link href="https://example.com/atom1"/>
    <id>atom1</id>
    <updated>2024-01-01T00:00:00Z</updated>
    <summary>Atom Summary 1</summary>
  </entry>
</feed>`)

	entries, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}
	if entries[0].Title != "Atom Article 1" {
		t.Errorf("entries[0].Title = %q, want %q", entries[0].Title, "Atom Article 1")
	}
	if entries[0].PublishedAt.IsZero() {
		t.Error("entries[0].PublishedAt is zero, want updated date as fallback")
	}
}

func TestRSSFetcher_Fetch_EmptyFeed(t *testing.T) {
	server := serveXML(t, "application/rss+xml", `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Empty Feed</title>
    <link>https://example.com</link>
  </channel>
</rss>`)

	entries, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(entries) != 0 {
		t.Fatalf("entries length = %d, want 0", len(entries))
	}
}

func TestRSSFetcher_Fetch_InvalidXML_NotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte("Invalid XML <><><>"))
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Fetch() error = nil, want error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1 (malformed feeds are not retried)", got)
	}
}

func TestRSSFetcher_Fetch_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(twoItemRSS))
	}))
	defer server.Close()

	entries, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("entries length = %d, want 2", len(entries))
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server calls = %d, want 2", got)
	}
}

func TestRSSFetcher_Fetch_NotFoundNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestFetcher().Fetch(context.Background(), server.URL)

	var httpErr *retry.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Fetch() error = %v, want *retry.HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", httpErr.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestRSSFetcher_Fetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("<rss></rss>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestFetcher().Fetch(ctx, server.URL)
	if err == nil {
		t.Fatal("Fetch() error = nil, want context canceled error")
	}
}

func TestRSSFetcher_Fetch_ContentFallbackAndTruncation(t *testing.T) {
	long := strings.Repeat("가", 250)
	server := serveXML(t, "application/rss+xml", `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>  Article   with Content </title>
      <link>https://example.com/article</link>
      <content:encoded><![CDATA[<p>`+long+`</p>]]></content:encoded>
    </item>
  </channel>
</rss>`)

	entries, err := newTestFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries length = %d, want 1", len(entries))
	}

	if entries[0].Title != "Article with Content" {
		t.Errorf("Title = %q, want whitespace collapsed", entries[0].Title)
	}
	want := strings.Repeat("가", scraper.DescriptionLimit) + "..."
	if entries[0].Description != want {
		t.Errorf("Description has %d runes, want %d", text.CountRunes(entries[0].Description), text.CountRunes(want))
	}
	if !entries[0].PublishedAt.IsZero() {
		t.Errorf("PublishedAt = %v, want zero for undated item", entries[0].PublishedAt)
	}
}
