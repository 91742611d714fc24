// Package entity defines the core domain entities of the newsletter pipeline.
// It contains the artifacts handed from stage to stage (NewsItem, Newsletter,
// DispatchRequest, RunResult) along with their validation rules and domain errors.
package entity

import (
	"crypto/sha1" // #nosec G505 -- used as a content key, not for security
	"encoding/hex"
	"time"
)

// NewsItem is a single entry collected from the news feed.
// It is immutable once fetched and identified by its URL.
type NewsItem struct {
	Title       string
	Summary     string
	URL         string
	PublishedAt time.Time
	// SourceRank is the 1-based position of the entry in the fetched feed.
	SourceRank int
	Categories []string
}

// Key returns a stable identifier derived from the item URL.
// It is safe to embed in any HTML attribute.
func (n NewsItem) Key() string {
	h := sha1.New() // #nosec G401
	h.Write([]byte(n.URL))
	return hex.EncodeToString(h.Sum(nil))
}

// CandidateSet is the ranked list of items produced by the Collector before selection.
type CandidateSet []NewsItem

// SelectionSet is the ranked subset of a CandidateSet handed to the Curator.
type SelectionSet []NewsItem

// URLs returns the item URLs in selection order.
func (s SelectionSet) URLs() []string {
	urls := make([]string, len(s))
	for i, item := range s {
		urls[i] = item.URL
	}
	return urls
}

// IsRankedSubsequenceOf reports whether every item of s appears in c in the same relative order.
func (s SelectionSet) IsRankedSubsequenceOf(c CandidateSet) bool {
	if len(s) > len(c) {
		return false
	}
	j := 0
	for _, cand := range c {
		if j < len(s) && s[j].URL == cand.URL {
			j++
		}
	}
	return j == len(s)
}
