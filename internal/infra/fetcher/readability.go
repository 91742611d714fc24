package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"tech-newsletter/internal/observability/logging"
	"tech-newsletter/internal/resilience/circuitbreaker"
	"tech-newsletter/internal/utils/text"
)

// ReadabilityFetcher extracts article text from web pages with the Mozilla
// Readability algorithm. It implements curate.ContentFetcher.
//
// Every request and redirect target is checked against SSRF rules, bodies are
// size-limited, and repeated failures open a circuit breaker.
// ReadabilityFetcher is safe for concurrent use.
type ReadabilityFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         Config
}

// NewReadabilityFetcher creates a fetcher with the given configuration.
func NewReadabilityFetcher(cfg Config) *ReadabilityFetcher {
	f := &ReadabilityFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.ContentFetchConfig()),
		config:         cfg,
	}

	f.client = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := checkTarget(req.Context(), req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// FetchContent downloads urlStr and returns its readable text with whitespace collapsed.
// While the circuit is open no DNS lookup or request is made.
func (f *ReadabilityFetcher) FetchContent(ctx context.Context, urlStr string) (string, error) {
	if f.circuitBreaker.IsOpen() {
		return "", fmt.Errorf("%s: %w", f.circuitBreaker.Name(), circuitbreaker.ErrOpen)
	}
	if err := checkTarget(ctx, urlStr, f.config.DenyPrivateIPs); err != nil {
		return "", err
	}

	content, err := circuitbreaker.Do(f.circuitBreaker, func() (string, error) {
		return f.doFetch(ctx, urlStr)
	})
	if err != nil {
		if circuitbreaker.IsRejection(err) {
			logging.FromContext(ctx).Warn("content fetch circuit breaker open, request rejected",
				slog.String("service", f.circuitBreaker.Name()),
				slog.String("url", urlStr))
		}
		return "", err
	}
	return content, nil
}

func (f *ReadabilityFetcher) doFetch(ctx context.Context, urlStr string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return "", urlErr.Err
		}
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	htmlBytes, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > f.config.MaxBodySize {
		return "", fmt.Errorf("%w: response size exceeds limit %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}

	// The final URL after redirects resolves relative links.
	pageURL := resp.Request.URL
	article, err := readability.FromReader(bytes.NewReader(htmlBytes), pageURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReadabilityFailed, err)
	}

	content := text.CollapseSpace(article.TextContent)
	if content == "" {
		content = text.StripHTML(article.Content)
	}
	if content == "" {
		return "", fmt.Errorf("%w: no readable content found", ErrReadabilityFailed)
	}
	return content, nil
}
