package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFeedURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://techcrunch.com/category/artificial-intelligence/feed/", wantErr: false},
		{name: "valid http URL with port", url: "http://127.0.0.1:8080/feed", wantErr: false},
		{name: "empty URL", url: "", wantErr: true},
		{name: "ftp scheme", url: "ftp://example.com/feed", wantErr: true},
		{name: "missing host", url: "https:///feed", wantErr: true},
		{name: "relative", url: "/feed.xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFeedURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "plain address", addr: "reader@example.com"},
		{name: "plus tag", addr: "reader+news@mail.example.co.kr"},
		{name: "empty", addr: "", wantErr: true},
		{name: "whitespace only", addr: "   ", wantErr: true},
		{name: "surrounding whitespace", addr: " reader@example.com", wantErr: true},
		{name: "missing at", addr: "reader.example.com", wantErr: true},
		{name: "missing local part", addr: "@example.com", wantErr: true},
		{name: "unqualified domain", addr: "reader@localhost", wantErr: true},
		{name: "trailing dot domain", addr: "reader@example.", wantErr: true},
		{name: "display name", addr: "Reader <reader@example.com>", wantErr: true},
		{name: "angle brackets", addr: "<reader@example.com>", wantErr: true},
		{name: "address list", addr: "a@example.com, b@example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.addr)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidRecipient))
			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Equal(t, "recipient", vErr.Field)
		})
	}
}

func TestNewsItem_Key_Validation(t *testing.T) {
	a := NewsItem{URL: "https://example.com/a", Title: "A"}
	a2 := NewsItem{URL: "https://example.com/a", Title: "changed", PublishedAt: time.Now()}
	b := NewsItem{URL: "https://example.com/b"}

	assert.Len(t, a.Key(), 40)
	assert.Equal(t, a.Key(), a2.Key(), "identity is the URL")
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestSelectionSet_IsRankedSubsequenceOf_Validation(t *testing.T) {
	item := func(u string) NewsItem { return NewsItem{URL: u} }
	cands := CandidateSet{item("a"), item("b"), item("c"), item("d")}

	assert.True(t, SelectionSet{item("a"), item("b"), item("c")}.IsRankedSubsequenceOf(cands))
	assert.True(t, SelectionSet{item("a"), item("d")}.IsRankedSubsequenceOf(cands))
	assert.True(t, SelectionSet{}.IsRankedSubsequenceOf(cands))
	assert.False(t, SelectionSet{item("b"), item("a")}.IsRankedSubsequenceOf(cands))
	assert.False(t, SelectionSet{item("x")}.IsRankedSubsequenceOf(cands))
	assert.Equal(t, []string{"a", "d"}, SelectionSet{item("a"), item("d")}.URLs())
}
