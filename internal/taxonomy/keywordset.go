package taxonomy

import (
	"sort"
	"strings"
)

// KeywordSet holds deduplicated normalized keywords. Single-word keywords
// match whole tokens only; multi-word keywords match contiguous token
// sequences. Scoring awards +1 per distinct word hit and +2 per distinct
// phrase hit, phrases being stronger evidence.
type KeywordSet struct {
	words   map[string]struct{}
	phrases map[string][]string
}

func newKeywordSet() *KeywordSet {
	return &KeywordSet{
		words:   make(map[string]struct{}),
		phrases: make(map[string][]string),
	}
}

// Add normalizes and inserts a keyword or phrase.
func (s *KeywordSet) Add(raw string) {
	toks := Tokens(raw)
	switch len(toks) {
	case 0:
	case 1:
		s.words[toks[0]] = struct{}{}
	default:
		s.phrases[strings.Join(toks, " ")] = toks
	}
}

// AddAll inserts every keyword in the list.
func (s *KeywordSet) AddAll(raws []string) {
	for _, r := range raws {
		s.Add(r)
	}
}

// RemoveWord drops a single-word keyword; used by the generic-token filter.
func (s *KeywordSet) RemoveWord(raw string) {
	toks := Tokens(raw)
	if len(toks) == 1 {
		delete(s.words, toks[0])
	}
}

// Len returns the number of keywords in the set.
func (s *KeywordSet) Len() int {
	return len(s.words) + len(s.phrases)
}

// clone returns an independent copy of the set.
func (s *KeywordSet) clone() *KeywordSet {
	c := newKeywordSet()
	for w := range s.words {
		c.words[w] = struct{}{}
	}
	for k, v := range s.phrases {
		c.phrases[k] = v
	}
	return c
}

// Score sums the evidence value of toks against the set: +1 per distinct
// matching word, +2 per distinct matching phrase.
func (s *KeywordSet) Score(toks []string) int {
	score := 0
	seen := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := s.words[t]; ok {
			score++
		}
	}
	for _, phrase := range s.phrases {
		if containsSequence(toks, phrase) {
			score += 2
		}
	}
	return score
}

// Matches returns the keywords that hit, sorted, for use as rule identifiers.
func (s *KeywordSet) Matches(toks []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := s.words[t]; ok {
			out = append(out, t)
		}
	}
	for key, phrase := range s.phrases {
		if containsSequence(toks, phrase) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

// AnyMatch reports whether at least one keyword from the set hits.
func (s *KeywordSet) AnyMatch(toks []string) bool {
	for _, t := range toks {
		if _, ok := s.words[t]; ok {
			return true
		}
	}
	for _, phrase := range s.phrases {
		if containsSequence(toks, phrase) {
			return true
		}
	}
	return false
}

// containsSequence reports whether phrase occurs as a contiguous token
// subsequence of toks.
func containsSequence(toks, phrase []string) bool {
	if len(phrase) == 0 || len(phrase) > len(toks) {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(toks); i++ {
		for j, p := range phrase {
			if toks[i+j] != p {
				continue outer
			}
		}
		return true
	}
	return false
}
