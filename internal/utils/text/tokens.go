package text

import (
	"strings"
	"unicode"
)

// Tokens lowercases s and splits it on every rune that is not a letter or digit.
func Tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// PhraseIndex answers whole-token phrase lookups over a text.
// "ai" matches "AI-powered" but not "said".
type PhraseIndex struct {
	padded string
}

// NewPhraseIndex tokenizes s for phrase matching.
func NewPhraseIndex(s string) PhraseIndex {
	return PhraseIndex{padded: " " + strings.Join(Tokens(s), " ") + " "}
}

// Contains reports whether phrase occurs in the text on token boundaries.
// The phrase is tokenized the same way as the text, so "Large-Language Model"
// matches "large language model".
func (p PhraseIndex) Contains(phrase string) bool {
	toks := Tokens(phrase)
	if len(toks) == 0 {
		return false
	}
	return strings.Contains(p.padded, " "+strings.Join(toks, " ")+" ")
}
