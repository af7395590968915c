// Package i18n resolves display strings for the backoffice.
//
// Dictionaries are split per domain (common, transactions, users, ...) and
// merged into a single table per language at construction. Lookups fall back
// to English, then to the key itself, so Translate never fails.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// Supported languages.
const (
	English    = "en"
	Spanish    = "es"
	Portuguese = "pt"
)

// Dictionary maps translation keys to display strings for one language.
type Dictionary map[string]string

// Bundle is a per-domain set of dictionaries keyed by language.
type Bundle map[string]Dictionary

var supportedTags = []language.Tag{language.English, language.Spanish, language.Portuguese}

// Translator looks up display strings across merged bundles.
type Translator struct {
	tables   map[string]Dictionary
	fallback string
	matcher  language.Matcher
}

// New merges the given bundles. Later bundles override earlier ones on key
// collisions.
func New(bundles ...Bundle) *Translator {
	tables := make(map[string]Dictionary)
	for _, b := range bundles {
		for lang, dict := range b {
			t, ok := tables[lang]
			if !ok {
				t = make(Dictionary, len(dict))
				tables[lang] = t
			}
			for k, v := range dict {
				t[k] = v
			}
		}
	}
	return &Translator{
		tables:   tables,
		fallback: English,
		matcher:  language.NewMatcher(supportedTags),
	}
}

// Default returns a translator loaded with every built-in bundle.
func Default() *Translator {
	return New(commonBundle, transactionsBundle, usersBundle, backofficeBundle, fieldsBundle, errorsBundle)
}

// Translate returns the string for key in lang, falling back to English and
// then to the key itself.
func (t *Translator) Translate(key, lang string) string {
	if d, ok := t.tables[Normalize(lang)]; ok {
		if v, ok := d[key]; ok {
			return v
		}
	}
	if d, ok := t.tables[t.fallback]; ok {
		if v, ok := d[key]; ok {
			return v
		}
	}
	return key
}

// Has reports whether key exists in any language.
func (t *Translator) Has(key string) bool {
	for _, d := range t.tables {
		if _, ok := d[key]; ok {
			return true
		}
	}
	return false
}

// Dictionary returns the merged table for lang with English entries filling
// the gaps. The returned map is a copy.
func (t *Translator) Dictionary(lang string) Dictionary {
	out := make(Dictionary)
	for k, v := range t.tables[t.fallback] {
		out[k] = v
	}
	for k, v := range t.tables[Normalize(lang)] {
		out[k] = v
	}
	return out
}

// Negotiate picks the best supported language for an Accept-Language header.
func (t *Translator) Negotiate(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.fallback
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return t.fallback
	}
	_, idx, _ := t.matcher.Match(tags...)
	base, _ := supportedTags[idx].Base()
	return base.String()
}

// FromRequest resolves the request language: an explicit ?lang= wins over
// Accept-Language.
func (t *Translator) FromRequest(r *http.Request) string {
	if l := r.URL.Query().Get("lang"); l != "" {
		return Normalize(l)
	}
	return t.Negotiate(r.Header.Get("Accept-Language"))
}

// Normalize reduces a BCP 47 tag to its base language ("es-AR" -> "es").
// Unparseable input is lower-cased and returned as is.
func Normalize(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(lang))
	}
	base, _ := tag.Base()
	return base.String()
}
