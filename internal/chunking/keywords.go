package chunking

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// MinKeywords and MaxKeywords are the 6-8 keyphrase range of spec §4.2.
// ExtractKeywords caps its output at MaxKeywords; MinKeywords is not
// enforced, so a chunk with few valid candidates gets fewer keyphrases.
const (
	MinKeywords = 6
	MaxKeywords = 8
)

// stopWords mirrors the teacher's bilingual (Chinese + English) stopword
// design (internal/chunking/markdown.go's KeywordExtractor), since the
// source documents this pipeline ingests are not guaranteed to be
// English-only.
var stopWords = buildStopWords()

func buildStopWords() map[string]bool {
	words := []string{
		"the", "a", "an", "and", "or", "but", "of", "to", "in", "on", "for",
		"with", "as", "by", "at", "is", "are", "was", "were", "be", "been",
		"being", "this", "that", "these", "those", "it", "its", "from",
		"into", "than", "then", "so", "such", "not", "no", "nor", "can",
		"will", "would", "should", "could", "may", "might", "must", "do",
		"does", "did", "has", "have", "had", "if", "about", "also", "more",
		"out", "up", "down", "over", "under", "again", "further", "only",
		"just", "there", "here", "when", "where", "how", "what", "which",
		"who", "whom", "why", "all", "any", "both", "each", "few", "other",
		"some", "own", "same", "we", "you", "they", "he", "she", "his",
		"her", "our", "your", "their",
		"的", "了", "在", "是", "我", "有", "和", "就", "不", "人", "都",
		"一", "一个", "上", "也", "很", "到", "说", "要", "去", "你", "会",
		"着", "没有", "看", "好", "自己", "这", "那", "这个", "那个", "但是",
		"因为", "所以", "可以", "我们", "他们", "这些", "那些", "为了",
	}
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

var (
	quotedRe = regexp.MustCompile(`"([^"\n]{3,60})"|«([^»\n]{3,60})»|“([^”\n]{3,60})”`)
	emphasisRe = regexp.MustCompile(`\*\*([^*\n]{3,60})\*\*|\*([^*\n]{3,60})\*|__([^_\n]{3,60})__|_([^_\n]{3,60})_`)
	capRunRe    = regexp.MustCompile(`\b([A-Z][\p{L}]+(?:\s+[A-Z][\p{L}]+){0,2})\b`)
	orgSuffixRe = regexp.MustCompile(`(?i)\b(inc|corp|corporation|ltd|llc|co|company|foundation|institute|group)\b`)
	wordRe      = regexp.MustCompile(`[\p{L}\p{N}]+`)
)

// ExtractKeywords derives up to MaxKeywords keyphrases from chunk text per
// spec §4.2: weighted candidate sources (quoted/emphasized names highest,
// named entities and noun phrases next, content n-gram frequency last),
// validated and ranked by score desc then length desc. When fewer
// candidates pass validation, fewer keyphrases are returned.
//
// No POS-tagger or NER model is available anywhere in this pipeline's
// dependency stack (see DESIGN.md), so "named entities" and "noun
// phrases" are approximated with capitalization-run and stopword-filtered
// content-word heuristics rather than a true linguistic pipeline; quoted
// names and emphasis markers are matched exactly as spec prescribes.
func ExtractKeywords(text string) []string {
	candidates := map[string]float64{}
	add := func(phrase string, weight float64) {
		p := normalizePhrase(phrase)
		if !validPhrase(p) {
			return
		}
		words := strings.Fields(p)
		bonus := 0.25 * float64(len(words)-1)
		candidates[p] += weight + bonus
	}

	for _, m := range quotedRe.FindAllStringSubmatch(text, -1) {
		add(firstNonEmpty(m[1:]), 2.5)
	}
	for _, m := range emphasisRe.FindAllStringSubmatch(text, -1) {
		add(firstNonEmpty(m[1:]), 2.5)
	}
	for _, m := range capRunRe.FindAllString(text, -1) {
		w := 2.0
		if orgSuffixRe.MatchString(m) {
			w += 1.0
		}
		add(m, w)
	}
	for _, phrase := range approxNounPhrases(text) {
		add(phrase, 1.5)
	}

	tokens := contentTokens(text)
	for n := 1; n <= 3; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			add(strings.Join(tokens[i:i+n], " "), 1.0)
		}
	}

	ranked := rankCandidates(candidates)
	if len(ranked) == 0 {
		return FallbackKeywords(text, MaxKeywords)
	}
	if len(ranked) > MaxKeywords {
		ranked = ranked[:MaxKeywords]
	}
	return ranked
}

// FallbackKeywords returns the top-n most frequent stopword-filtered
// unigrams, used when the weighted pipeline above finds no candidates at
// all (spec §4.2's "fallback path").
func FallbackKeywords(text string, n int) []string {
	freq := map[string]int{}
	for _, t := range contentTokens(text) {
		freq[t]++
	}
	type kv struct {
		word  string
		count int
	}
	kvs := make([]kv, 0, len(freq))
	for w, c := range freq {
		kvs = append(kvs, kv{w, c})
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].count != kvs[j].count {
			return kvs[i].count > kvs[j].count
		}
		return kvs[i].word < kvs[j].word
	})
	out := make([]string, 0, n)
	for _, e := range kvs {
		if len(out) >= n {
			break
		}
		out = append(out, e.word)
	}
	return out
}

func rankCandidates(candidates map[string]float64) []string {
	type kv struct {
		phrase string
		score  float64
	}
	kvs := make([]kv, 0, len(candidates))
	for p, s := range candidates {
		kvs = append(kvs, kv{p, s})
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].score != kvs[j].score {
			return kvs[i].score > kvs[j].score
		}
		li, lj := len(kvs[i].phrase), len(kvs[j].phrase)
		if li != lj {
			return li > lj
		}
		return kvs[i].phrase < kvs[j].phrase
	})
	out := make([]string, len(kvs))
	for i, e := range kvs {
		out[i] = e.phrase
	}
	return out
}

func normalizePhrase(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	words := wordRe.FindAllString(p, -1)
	return strings.Join(words, " ")
}

// validPhrase keeps only phrases whose concatenated alphabetic length is
// at least 3 (spec §4.2) and are not themselves pure stopwords.
func validPhrase(p string) bool {
	if p == "" {
		return false
	}
	words := strings.Fields(p)
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	alphaLen := 0
	allStop := true
	for _, w := range words {
		if !stopWords[w] {
			allStop = false
		}
		for _, r := range w {
			if unicode.IsLetter(r) {
				alphaLen++
			}
		}
	}
	if allStop {
		return false
	}
	return alphaLen >= 3
}

func firstNonEmpty(groups []string) string {
	for _, g := range groups {
		if g != "" {
			return g
		}
	}
	return ""
}

// contentTokens lowercases and tokenizes text, dropping stopwords,
// punctuation, numerals, and single-character tokens.
func contentTokens(text string) []string {
	raw := wordRe.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		if len([]rune(w)) < 2 {
			continue
		}
		if isNumeral(w) {
			continue
		}
		if stopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

func isNumeral(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// approxNounPhrases finds runs of 1-3 consecutive lowercase content words
// as a noun-phrase stand-in (spec §4.2's noun-phrase candidate source).
func approxNounPhrases(text string) []string {
	tokens := contentTokens(text)
	var phrases []string
	for i := 0; i < len(tokens); i++ {
		for n := 1; n <= 3 && i+n <= len(tokens); n++ {
			phrases = append(phrases, strings.Join(tokens[i:i+n], " "))
		}
	}
	return phrases
}
