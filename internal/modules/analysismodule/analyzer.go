package analysismodule

import (
	"sort"
	"strings"
	"unicode"

	"gorm.io/gorm"

	"github.com/mediahubpy/mediahub/internal/database"
)

const (
	// Tokens of this length or shorter are rejected.
	minWordLength = 2

	// DefaultLimit bounds frequency tables when the caller passes 0.
	DefaultLimit = 100

	findBatchSize = 200
)

// Occurrence is one row of a frequency table.
type Occurrence struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// Analyzer computes stop-word-filtered word and bigram frequency tables over
// video transcripts. The word sets are shared and never mutated.
type Analyzer struct {
	stopWords       WordSet
	filteredPhrases WordSet
	denyWords       WordSet
}

// NewAnalyzer builds an analyzer around the given stop-word and
// filtered-phrase sets.
func NewAnalyzer(stopWords, filteredPhrases WordSet) *Analyzer {
	return &Analyzer{
		stopWords:       stopWords,
		filteredPhrases: filteredPhrases,
		denyWords:       NewWordSet("https"),
	}
}

// WordOccurrences counts unigrams across the transcripts of videos,
// keeping tokens seen more than once, sorted by count descending. Ties are
// broken by token ascending so output order is deterministic.
func (a *Analyzer) WordOccurrences(videos []database.Video, limit int) []Occurrence {
	counts := make(map[string]int)
	for i := range videos {
		a.countWords(&videos[i], counts)
	}
	return rank(counts, limit)
}

// BigramOccurrences counts consecutive token pairs across the transcripts
// of videos, with the same retention, ordering and limit rules as
// WordOccurrences.
func (a *Analyzer) BigramOccurrences(videos []database.Video, limit int) []Occurrence {
	counts := make(map[string]int)
	for i := range videos {
		a.countBigrams(&videos[i], counts)
	}
	return rank(counts, limit)
}

// WordOccurrencesQuery streams a video query in batches and accumulates the
// unigram table, so arbitrary collections (station, tag, topic scopes) can
// be analyzed without loading every transcript at once.
func (a *Analyzer) WordOccurrencesQuery(query *gorm.DB, limit int) ([]Occurrence, error) {
	counts := make(map[string]int)
	err := batchVideos(query, func(v *database.Video) {
		a.countWords(v, counts)
	})
	if err != nil {
		return nil, err
	}
	return rank(counts, limit), nil
}

// BigramOccurrencesQuery is the streaming counterpart of BigramOccurrences.
func (a *Analyzer) BigramOccurrencesQuery(query *gorm.DB, limit int) ([]Occurrence, error) {
	counts := make(map[string]int)
	err := batchVideos(query, func(v *database.Video) {
		a.countBigrams(v, counts)
	})
	if err != nil {
		return nil, err
	}
	return rank(counts, limit), nil
}

func batchVideos(query *gorm.DB, fn func(*database.Video)) error {
	var batch []database.Video
	result := query.FindInBatches(&batch, findBatchSize, func(_ *gorm.DB, _ int) error {
		for i := range batch {
			fn(&batch[i])
		}
		return nil
	})
	return result.Error
}

func (a *Analyzer) countWords(v *database.Video, counts map[string]int) {
	if v.Transcription == nil {
		return
	}
	// The unigram pass treats punctuation as whitespace so glued tokens
	// like "fin.Comienza" split apart.
	words := strings.Fields(replacePunct(*v.Transcription))
	for _, w := range words {
		w = strings.ToLower(w)
		if a.validWord(w) {
			counts[w]++
		}
	}
}

func (a *Analyzer) countBigrams(v *database.Video, counts map[string]int) {
	if v.Transcription == nil {
		return
	}
	// The bigram pass deletes punctuation instead, preserving word
	// adjacency across commas and periods.
	words := strings.Fields(stripPunct(*v.Transcription))
	for i := 0; i+1 < len(words); i++ {
		first := strings.ToLower(words[i])
		second := strings.ToLower(words[i+1])
		if !a.validWord(first) || !a.validWord(second) {
			continue
		}
		bigram := first + " " + second
		if a.filteredPhrases.Contains(bigram) {
			continue
		}
		counts[bigram]++
	}
}

func (a *Analyzer) validWord(w string) bool {
	if len([]rune(w)) <= minWordLength {
		return false
	}
	if a.stopWords.Contains(w) {
		return false
	}
	return !a.denyWords.Contains(w)
}

// rank keeps entries with count > 1, sorts by count descending with token
// ascending as tie-break, and truncates to limit.
func rank(counts map[string]int, limit int) []Occurrence {
	if limit <= 0 {
		limit = DefaultLimit
	}
	out := make([]Occurrence, 0, len(counts))
	for token, count := range counts {
		if count > 1 {
			out = append(out, Occurrence{Token: token, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Token < out[j].Token
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func replacePunct(s string) string {
	return strings.Map(func(r rune) rune {
		if isPunct(r) {
			return ' '
		}
		return r
	}, s)
}

func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		if isPunct(r) {
			return -1
		}
		return r
	}, s)
}

func isPunct(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
