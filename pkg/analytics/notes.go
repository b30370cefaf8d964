package analytics

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/stefanpenner/habitual/pkg/store"
)

const (
	// MinNotes is the sample size below which notes are not analyzed.
	MinNotes = 7

	maxKeywords = 5
)

// SentimentSummary aggregates per-note polarity.
type SentimentSummary struct {
	Positive     int     `json:"positive"`
	Negative     int     `json:"negative"`
	Neutral      int     `json:"neutral"`
	AverageScore float64 `json:"average_score"`
}

// NotesAnalysis is the qualitative summary of a habit's notes. When
// HasEnoughData is false every derived field is empty or zero.
type NotesAnalysis struct {
	HasEnoughData   bool             `json:"has_enough_data"`
	TotalNotes      int              `json:"total_notes"`
	Keywords        []string         `json:"keywords"`
	Sentiment       SentimentSummary `json:"sentiment_summary"`
	CorrelationText string           `json:"correlation_text"`
}

var stopWords = toSet(
	// articles, determiners
	"the", "a", "an", "this", "that", "these", "those", "some", "any", "each", "every",
	// pronouns
	"i", "me", "my", "mine", "myself", "we", "our", "ours", "you", "your", "yours",
	"he", "him", "his", "she", "her", "hers", "they", "them", "their", "theirs",
	"it", "its", "itself", "what", "which", "who", "whom",
	// auxiliaries
	"is", "am", "are", "was", "were", "be", "been", "being", "have", "has", "had",
	"having", "do", "does", "did", "doing", "will", "would", "shall", "should",
	"can", "could", "may", "might", "must",
	// conjunctions, prepositions
	"and", "or", "but", "nor", "so", "yet", "if", "then", "than", "because", "while",
	"as", "until", "of", "at", "by", "for", "with", "about", "against", "between",
	"into", "through", "during", "before", "after", "above", "below", "to", "from",
	"up", "down", "in", "out", "on", "off", "over", "under", "again", "once",
	// adverbs and fillers
	"here", "there", "when", "where", "why", "how", "all", "both", "few", "more",
	"most", "other", "such", "no", "not", "only", "own", "same", "too", "very",
	"just", "now", "also", "really", "today", "got", "get",
	// contractions after punctuation stripping
	"dont", "didnt", "doesnt", "isnt", "wasnt", "cant", "couldnt", "wont", "im",
	"ive", "its", "thats",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// AnalyzeNotes summarizes the notes of one habit's logs, requiring at
// least MinNotes non-blank notes.
func AnalyzeNotes(logs []store.LogEntry) NotesAnalysis {
	return AnalyzeNotesWithMinimum(logs, MinNotes)
}

// AnalyzeNotesWithMinimum is AnalyzeNotes with a caller-chosen sample gate.
func AnalyzeNotesWithMinimum(logs []store.LogEntry, minNotes int) NotesAnalysis {
	var noted []store.LogEntry
	for _, e := range latestPerDay(logs) {
		if e.HasNotes() {
			noted = append(noted, e)
		}
	}

	if len(noted) < minNotes {
		return NotesAnalysis{
			TotalNotes: len(noted),
			Keywords:   []string{},
		}
	}

	keywords := ExtractKeywords(noted, maxKeywords)

	var summary SentimentSummary
	var in correlationInput
	total := 0
	for _, e := range noted {
		score := SentimentScore(e.Notes)
		total += score
		switch {
		case score > 0:
			summary.Positive++
		case score < 0:
			summary.Negative++
		default:
			summary.Neutral++
		}

		if e.Status == store.StatusDone {
			in.done++
			if score > 0 {
				in.donePositive++
			} else if score < 0 {
				in.doneNegative++
			}
		}
	}
	summary.AverageScore = float64(total) / float64(len(noted))
	in.averageScore = summary.AverageScore
	in.keywords = keywords

	return NotesAnalysis{
		HasEnoughData:   true,
		TotalNotes:      len(noted),
		Keywords:        keywords,
		Sentiment:       summary,
		CorrelationText: correlationText(in),
	}
}

// ExtractKeywords returns up to limit most frequent meaningful words across
// the entries' notes. Ties keep first-seen order.
func ExtractKeywords(logs []store.LogEntry, limit int) []string {
	counts := make(map[string]int)
	var order []string
	for _, e := range logs {
		for _, tok := range tokenize(e.Notes) {
			if utf8.RuneCountInString(tok) <= 2 || stopWords[tok] {
				continue
			}
			if counts[tok] == 0 {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

// themesClause renders the keyword suffix appended to every correlation text.
func themesClause(keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}
	top := keywords
	if len(top) > 3 {
		top = top[:3]
	}
	return " Common themes include: " + strings.Join(top, ", ") + "."
}
