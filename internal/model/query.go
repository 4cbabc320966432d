package model

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyQuery is returned when a query has no searchable characters.
var ErrEmptyQuery = errors.New("no search query provided")

// Query is an immutable search request string with its derived lowercase forms.
//
// Matching uses simple Unicode case folding, the same folding ripgrep applies
// to --ignore-case --fixed-strings, so every content strategy accepts the
// same lines.
type Query struct {
	Raw   string
	Lower string
	Terms []string

	pattern *regexp.Regexp
	terms   []*regexp.Regexp
}

// NewQuery trims raw and derives the lowercase forms used for matching.
func NewQuery(raw string) (Query, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Query{}, ErrEmptyQuery
	}
	lower := strings.ToLower(raw)
	q := Query{
		Raw:     raw,
		Lower:   lower,
		pattern: foldPattern(raw),
	}
	for _, term := range strings.Fields(raw) {
		q.Terms = append(q.Terms, strings.ToLower(term))
		q.terms = append(q.terms, foldPattern(term))
	}
	return q, nil
}

func foldPattern(s string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(s))
}

// MatchString reports whether s contains the whole query, ignoring case.
func (q Query) MatchString(s string) bool {
	if q.pattern == nil {
		return false
	}
	return q.pattern.MatchString(s)
}

// MatchBytes is MatchString for raw transcript lines.
func (q Query) MatchBytes(b []byte) bool {
	if q.pattern == nil {
		return false
	}
	return q.pattern.Match(b)
}

// MatchAllTerms reports whether every query term occurs in s, ignoring case.
func (q Query) MatchAllTerms(s string) bool {
	if len(q.terms) == 0 {
		return false
	}
	for _, term := range q.terms {
		if !term.MatchString(s) {
			return false
		}
	}
	return true
}
