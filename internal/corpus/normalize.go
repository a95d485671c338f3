// Package corpus implements the corpus core: vocabulary construction,
// the normalized/original index mapping, lemma and signature/length
// buckets, and incremental add/remove.
package corpus

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize renders a word into the corpus's canonical comparison form:
// Unicode NFD decomposition with combining marks (diacritics) stripped,
// lowercased, with apostrophes removed and internal whitespace collapsed.
// The standard library has no NFD/NFC decomposition, so this leans on
// golang.org/x/text/unicode/norm.
func Normalize(word string) string {
	if word == "" {
		return ""
	}
	decomposed := norm.NFD.String(word)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if r == '\'' {
			continue
		}
		if r == '-' {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}

	fields := strings.Fields(b.String())
	return strings.Join(fields, " ")
}

// NormalizeAll maps Normalize over a batch of words.
func NormalizeAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = Normalize(w)
	}
	return out
}

// HasDiacritics reports whether word contains any non-ASCII rune, used to
// prefer diacritic-bearing original forms when multiple original spellings
// collapse to the same normalized vocabulary entry
func HasDiacritics(word string) bool {
	for _, r := range word {
		if r > unicode.MaxASCII {
			return true
		}
	}
	return false
}

// Signature produces a short phonetic signature for bucketing similar-
// sounding words during fuzzy candidate selection. It lowercases, strips non-letters, folds a couple of common
// digraphs (ph→f, ck→k), collapses consecutive identical consonants, drops
// every vowel after the first letter, and truncates to 6 characters — a pure, stable function
// of the word alone.
func Signature(word string) string {
	lower := strings.ToLower(word)
	var letters strings.Builder
	for _, r := range lower {
		if unicode.IsLetter(r) {
			letters.WriteRune(r)
		}
	}
	sig := letters.String()
	if sig == "" {
		return ""
	}

	sig = strings.ReplaceAll(sig, "ph", "f")
	sig = strings.ReplaceAll(sig, "ck", "k")

	var deduped strings.Builder
	var prev rune
	for i, r := range sig {
		if i > 0 && r == prev && !isVowel(r) {
			continue
		}
		deduped.WriteRune(r)
		prev = r
	}
	sig = deduped.String()

	runes := []rune(sig)
	first := runes[0]
	var rest strings.Builder
	for _, r := range runes[1:] {
		if !isVowel(r) {
			rest.WriteRune(r)
		}
	}
	sig = string(first) + rest.String()

	if r := []rune(sig); len(r) > 6 {
		sig = string(r[:6])
	}
	return sig
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	default:
		return false
	}
}
