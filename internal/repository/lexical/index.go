// Package lexical implements the TF-IDF fallback index. It is a pure function
// of the catalog and the query: no I/O, no external failure modes, and a
// deterministic order for every input, which is what lets the pipeline promise
// a result when the embedding and rerank providers are down.
package lexical

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/skillfit/assessrec/internal/domain"
)

// Index holds one sparse weighted-term vector per catalog record.
type Index struct {
	records []domain.Assessment
	vectors []map[string]float64
	norms   []float64
	idf     map[string]float64
}

// Build tokenizes every record and computes TF-IDF weights over the catalog.
func Build(records []domain.Assessment) *Index {
	docTerms := make([][]string, len(records))
	df := make(map[string]int)

	for i, rec := range records {
		terms := tokenize(rec.SearchText())
		docTerms[i] = terms

		unique := make(map[string]struct{}, len(terms))
		for _, t := range terms {
			unique[t] = struct{}{}
		}
		for t := range unique {
			df[t]++
		}
	}

	// Smoothed IDF keeps every weight positive, so a term occurring in all
	// documents still contributes to the match instead of zeroing out.
	n := float64(len(records))
	idf := make(map[string]float64, len(df))
	for t, count := range df {
		idf[t] = math.Log((n+1)/float64(count+1)) + 1
	}

	vectors := make([]map[string]float64, len(records))
	norms := make([]float64, len(records))
	for i, terms := range docTerms {
		vectors[i] = weigh(terms, idf)
		norms[i] = norm(vectors[i])
	}

	return &Index{
		records: records,
		vectors: vectors,
		norms:   norms,
		idf:     idf,
	}
}

// Size returns the number of indexed records.
func (idx *Index) Size() int {
	return len(idx.records)
}

// Search scores every record against the query by cosine similarity and
// returns up to topK candidates. Ties (including the all-zero case for a
// query with no overlapping terms) keep catalog insertion order.
func (idx *Index) Search(query string, topK int) []domain.Candidate {
	qvec := weigh(tokenize(query), idx.idf)
	qnorm := norm(qvec)

	candidates := make([]domain.Candidate, len(idx.records))
	for i, rec := range idx.records {
		candidates[i] = domain.Candidate{
			Assessment: rec,
			Score:      cosine(qvec, qnorm, idx.vectors[i], idx.norms[i]),
		}
	}

	// Stable sort preserves insertion order among equal scores.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	for i := range candidates {
		candidates[i].Rank = i
	}
	return candidates
}

// tokenize lowercases and splits on any non-alphanumeric rune.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// weigh builds a sparse TF-IDF vector. Terms unseen at build time get the
// smoothed out-of-vocabulary IDF; they cannot match any record anyway.
func weigh(terms []string, idf map[string]float64) map[string]float64 {
	if len(terms) == 0 {
		return nil
	}

	tf := make(map[string]float64, len(terms))
	for _, t := range terms {
		tf[t]++
	}

	oov := math.Log(float64(len(idf)+1)) + 1
	vec := make(map[string]float64, len(tf))
	for t, count := range tf {
		w, ok := idf[t]
		if !ok {
			w = oov
		}
		vec[t] = (count / float64(len(terms))) * w
	}
	return vec
}

func norm(vec map[string]float64) float64 {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// cosine computes similarity between two sparse vectors with precomputed norms.
func cosine(a map[string]float64, anorm float64, b map[string]float64, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}

	// Iterate the smaller vector.
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for t, wa := range a {
		if wb, ok := b[t]; ok {
			dot += wa * wb
		}
	}
	return dot / (anorm * bnorm)
}
