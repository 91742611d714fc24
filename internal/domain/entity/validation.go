package entity

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
)

// maxURLLength defines the maximum allowed length for URLs to prevent DoS attacks.
const maxURLLength = 2048

// maxEmailLength is the RFC 5321 path limit.
const maxEmailLength = 254

// ValidateFeedURL validates the format of a feed URL.
// It checks that the URL is well-formed, uses HTTP/HTTPS scheme, and has a valid host.
func ValidateFeedURL(rawURL string) error {
	if rawURL == "" {
		return &ValidationError{Field: "feed_url", Message: "URL is required"}
	}

	if len(rawURL) > maxURLLength {
		return &ValidationError{
			Field:   "feed_url",
			Message: fmt.Sprintf("url must not exceed %d characters", maxURLLength),
		}
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse URL: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return &ValidationError{Field: "feed_url", Message: "URL must use http or https scheme"}
	}

	if parsedURL.Host == "" {
		return &ValidationError{Field: "feed_url", Message: "URL must have a valid host"}
	}

	return nil
}

// ValidateEmail checks that addr is a single bare mailbox address such as
// "reader@example.com". Display names, groups and address lists are rejected.
// The returned error wraps ErrInvalidRecipient.
func ValidateEmail(addr string) error {
	invalid := func(msg string) error {
		return fmt.Errorf("%w: %w", ErrInvalidRecipient, &ValidationError{Field: "recipient", Message: msg})
	}

	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		return invalid("address is required")
	}
	if trimmed != addr {
		return invalid("address must not contain surrounding whitespace")
	}
	if len(addr) > maxEmailLength {
		return invalid(fmt.Sprintf("address must not exceed %d characters", maxEmailLength))
	}

	parsed, err := mail.ParseAddress(addr)
	if err != nil {
		return invalid(err.Error())
	}
	if parsed.Name != "" || parsed.Address != addr {
		return invalid("address must be a bare mailbox without display name")
	}

	at := strings.LastIndex(addr, "@")
	domain := addr[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return invalid("domain must be fully qualified")
	}

	return nil
}
