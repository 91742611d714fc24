package curate

import (
	"strings"
	"time"
)

// Locale holds the presentation rules for one newsletter language.
type Locale struct {
	// Language is the name handed to the text generator as the target language.
	Language    string
	HTMLLang    string
	TitlePrefix string
	DateLayout  string
	Location    *time.Location
	ReadMore    string
	Footer      string
}

// Fixed zones: neither Korea nor Japan observes daylight saving time,
// and a fixed offset does not depend on the host's tzdata.
var (
	kst = time.FixedZone("KST", 9*60*60)
	jst = time.FixedZone("JST", 9*60*60)
)

var locales = map[string]Locale{
	"korean": {
		Language:    "korean",
		HTMLLang:    "ko",
		TitlePrefix: "AI 뉴스레터",
		DateLayout:  "2006년 01월 02일",
		Location:    kst,
		ReadMore:    "원문 보기",
		Footer:      "이 뉴스레터는 자동으로 생성되었습니다.",
	},
	"english": {
		Language:    "english",
		HTMLLang:    "en",
		TitlePrefix: "AI Newsletter",
		DateLayout:  "2006-01-02",
		Location:    time.UTC,
		ReadMore:    "Read more",
		Footer:      "This newsletter was generated automatically.",
	},
	"japanese": {
		Language:    "japanese",
		HTMLLang:    "ja",
		TitlePrefix: "AIニュースレター",
		DateLayout:  "2006年01月02日",
		Location:    jst,
		ReadMore:    "記事を読む",
		Footer:      "このニュースレターは自動生成されています。",
	},
}

var localeAliases = map[string]string{
	"ko": "korean", "kr": "korean", "한국어": "korean",
	"en": "english", "eng": "english",
	"ja": "japanese", "jp": "japanese", "日本語": "japanese",
}

// DefaultLanguage is used when no language is configured.
const DefaultLanguage = "korean"

// LookupLocale resolves a language name or code. Unknown languages get the english
// layout while the requested language is still passed to the generator.
func LookupLocale(language string) Locale {
	key := strings.ToLower(strings.TrimSpace(language))
	if key == "" {
		key = DefaultLanguage
	}
	if canonical, ok := localeAliases[key]; ok {
		key = canonical
	}
	if loc, ok := locales[key]; ok {
		return loc
	}

	loc := locales["english"]
	loc.Language = strings.TrimSpace(language)
	return loc
}

// FormatDate renders t in the locale's zone and date layout.
func (l Locale) FormatDate(t time.Time) string {
	return t.In(l.Location).Format(l.DateLayout)
}

// Title returns the newsletter title for a run generated at t: prefix + " - " + date.
func (l Locale) Title(t time.Time) string {
	return l.TitlePrefix + " - " + l.FormatDate(t)
}
