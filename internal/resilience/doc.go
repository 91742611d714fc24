// Package resilience provides fault tolerance patterns for the newsletter pipeline's
// external calls.
//
// The package supports:
//   - Circuit breakers for external calls (feed fetch, article fetch, generation providers)
//   - Retry logic with exponential or linear backoff and jitter
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FeedFetchConfig())
//	feed, err := circuitbreaker.Do(cb, func() (*gofeed.Feed, error) {
//	    return parser.ParseURLWithContext(url, ctx)
//	})
//
//	err := retry.WithBackoff(ctx, retry.MailDeliveryConfig(3, 2*time.Second), func() error {
//	    return transport.Send(ctx, msg)
//	})
package resilience
