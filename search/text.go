package search

import "strings"

// Stop words filtered out of queries before keyword matching
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "how": true, "what": true, "where": true,
}

// ExtractKeywords splits a query into lowercase keywords, trimming
// punctuation and dropping stop words and tokens shorter than three
// characters. An empty result means the query has nothing worth keyword
// matching.
func ExtractKeywords(query string) []string {
	words := strings.Fields(query)
	keywords := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if len(cleaned) <= 2 || stopWords[cleaned] {
			continue
		}
		keywords = append(keywords, cleaned)
	}

	return keywords
}

// matchFraction returns the fraction of keywords found as
// case-insensitive substrings of text, 0 when keywords is empty.
func matchFraction(text string, keywords []string) float32 {
	if len(keywords) == 0 {
		return 0
	}

	lower := strings.ToLower(text)
	matched := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matched++
		}
	}
	return float32(matched) / float32(len(keywords))
}
