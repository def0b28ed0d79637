package wordpair

import (
	"strings"
	"unicode"
)

// WordPair is the secret shared by regular players and the word given to
// the impostor
type WordPair struct {
	// Main is given to every regular player
	Main string

	// Decoy is given to the impostor
	Decoy string
}

// Valid reports whether both words are present and differ ignoring case
func (p *WordPair) Valid() bool {
	if p == nil || p.Main == "" || p.Decoy == "" {
		return false
	}
	return !strings.EqualFold(p.Main, p.Decoy)
}

// DefaultPairs is the pool used by the static provider
var DefaultPairs = []WordPair{
	{Main: "desert", Decoy: "beach"},
	{Main: "apple", Decoy: "banana"},
	{Main: "sun", Decoy: "moon"},
	{Main: "rocket", Decoy: "spaceship"},
	{Main: "apple", Decoy: "orange"},
	{Main: "car", Decoy: "bicycle"},
	{Main: "cat", Decoy: "dog"},
	{Main: "book", Decoy: "magazine"},
	{Main: "tree", Decoy: "flower"},
}

// normalize keeps the first word of a model answer, lowercased and
// stripped of quotes and punctuation
func normalize(s string) string {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
