package retrieval

import "strings"

// referencePhrase maps an ordinal phrase to a zero-based selection index.
type referencePhrase struct {
	phrase string
	index  int
}

// referencePhrases is checked in order; the first substring match wins.
// Longer variants of an ordinal precede the bare word so "the first one"
// resolves the same way as "first".
var referencePhrases = []referencePhrase{
	{"first one", 0}, {"first", 0}, {"1", 0},
	{"second one", 1}, {"second", 1}, {"2", 1},
	{"third one", 2}, {"third", 2}, {"3", 2},
	{"fourth one", 3}, {"fourth", 3}, {"4", 3},
	{"fifth one", 4}, {"fifth", 4}, {"5", 4},
}

// ReferenceIndex reports whether the query refers to a previously shown
// recommendation by ordinal position ("the first one", "tell me about 2")
// and, if so, which zero-based index it names. The match is a
// case-insensitive substring check and runs before any embedding work, so
// reference queries can bypass the index entirely.
func ReferenceIndex(query string) (int, bool) {
	q := strings.ToLower(query)
	for _, ref := range referencePhrases {
		if strings.Contains(q, ref.phrase) {
			return ref.index, true
		}
	}
	return 0, false
}
