package analytics

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// errEmptyVocabulary signals that no document produced a usable term, in
// which case callers fall back to non-vector heuristics.
var errEmptyVocabulary = errors.New("analytics: empty vocabulary")

var reToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// English stopwords pruned from the term stream before n-gram assembly.
var stopwords = map[string]struct{}{
	"a": {}, "about": {}, "above": {}, "after": {}, "again": {}, "against": {},
	"all": {}, "am": {}, "an": {}, "and": {}, "any": {}, "are": {}, "as": {},
	"at": {}, "be": {}, "because": {}, "been": {}, "before": {}, "being": {},
	"below": {}, "between": {}, "both": {}, "but": {}, "by": {}, "can": {},
	"did": {}, "do": {}, "does": {}, "doing": {}, "down": {}, "during": {},
	"each": {}, "few": {}, "for": {}, "from": {}, "further": {}, "had": {},
	"has": {}, "have": {}, "having": {}, "he": {}, "her": {}, "here": {},
	"hers": {}, "him": {}, "his": {}, "how": {}, "i": {}, "if": {}, "in": {},
	"into": {}, "is": {}, "it": {}, "its": {}, "just": {}, "me": {}, "more": {},
	"most": {}, "my": {}, "no": {}, "nor": {}, "not": {}, "now": {}, "of": {},
	"off": {}, "on": {}, "once": {}, "only": {}, "or": {}, "other": {},
	"our": {}, "out": {}, "over": {}, "own": {}, "same": {}, "she": {},
	"should": {}, "so": {}, "some": {}, "such": {}, "than": {}, "that": {},
	"the": {}, "their": {}, "them": {}, "then": {}, "there": {}, "these": {},
	"they": {}, "this": {}, "those": {}, "through": {}, "to": {}, "too": {},
	"under": {}, "until": {}, "up": {}, "very": {}, "was": {}, "we": {},
	"were": {}, "what": {}, "when": {}, "where": {}, "which": {}, "while": {},
	"who": {}, "whom": {}, "why": {}, "will": {}, "with": {}, "you": {},
	"your": {},
}

// vectorizer is a TF-IDF bag-of-terms model over unigrams and bigrams with a
// frequency-capped vocabulary and smoothed inverse document frequency.
type vectorizer struct {
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
}

func newVectorizer(maxFeatures int) *vectorizer {
	return &vectorizer{maxFeatures: maxFeatures}
}

// tokenize lowercases and splits on non-word boundaries, dropping stopwords,
// single characters, and purely numeric tokens.
func tokenize(text string) []string {
	raw := reToken.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if len(tok) < 2 {
			continue
		}
		if _, ok := stopwords[tok]; ok {
			continue
		}
		if isNumeric(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// terms expands a token stream into unigrams plus adjacent bigrams.
func terms(tokens []string) []string {
	out := make([]string, 0, 2*len(tokens))
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// fit learns the vocabulary and IDF weights from the document set. The
// vocabulary keeps the maxFeatures terms with the highest document
// frequency, ties broken lexicographically for determinism.
func (v *vectorizer) fit(docs []string) error {
	df := map[string]int{}
	for _, doc := range docs {
		seen := map[string]struct{}{}
		for _, term := range terms(tokenize(doc)) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return errEmptyVocabulary
	}

	ordered := make([]string, 0, len(df))
	for term := range df {
		ordered = append(ordered, term)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if df[ordered[i]] != df[ordered[j]] {
			return df[ordered[i]] > df[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})
	if v.maxFeatures > 0 && len(ordered) > v.maxFeatures {
		ordered = ordered[:v.maxFeatures]
	}

	n := float64(len(docs))
	v.vocabulary = make(map[string]int, len(ordered))
	v.idf = make([]float64, len(ordered))
	for i, term := range ordered {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return nil
}

// transform maps a document onto the learned vocabulary. Unknown terms are
// ignored; an unfit vectorizer yields a zero vector.
func (v *vectorizer) transform(doc string) []float64 {
	vec := make([]float64, len(v.idf))
	docTerms := terms(tokenize(doc))
	if len(docTerms) == 0 {
		return vec
	}

	counts := map[int]int{}
	for _, term := range docTerms {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}
	total := float64(len(docTerms))
	for idx, count := range counts {
		vec[idx] = (float64(count) / total) * v.idf[idx]
	}
	return vec
}

// fitTransform fits on the document set and returns one vector per document.
func (v *vectorizer) fitTransform(docs []string) ([][]float64, error) {
	if err := v.fit(docs); err != nil {
		return nil, err
	}
	vectors := make([][]float64, len(docs))
	for i, doc := range docs {
		vectors[i] = v.transform(doc)
	}
	return vectors, nil
}

// cosineSimilarity returns the cosine of the angle between two vectors,
// 0 when either has zero magnitude.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
