package summarizer

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"pdfqa/internal/answer"
	"pdfqa/internal/domain"
)

var _ answer.Answerer = (*ExtractiveAnswerer)(nil)

// ExtractiveAnswerer answers offline by quoting the retrieved sentences
// that best match the question.
type ExtractiveAnswerer struct {
	summarizer   *FrequencySummarizer
	maxSentences int
	maxContext   int
}

// NewExtractiveAnswerer creates an answerer quoting at most maxSentences
// sentences drawn from at most maxContext characters of retrieved text.
func NewExtractiveAnswerer(maxSentences, maxContext int) *ExtractiveAnswerer {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}
	if maxContext <= 0 {
		maxContext = answer.DefaultMaxContextLength
	}
	return &ExtractiveAnswerer{
		summarizer:   NewFrequencySummarizer(),
		maxSentences: maxSentences,
		maxContext:   maxContext,
	}
}

// Answer returns the best matching sentences followed by the pages they
// were drawn from.
func (a *ExtractiveAnswerer) Answer(ctx context.Context, question string, results []domain.SearchResult) (string, error) {
	if len(results) == 0 {
		return answer.NoResultsMessage, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		parts []string
		total int
	)
	pages := make(map[int]struct{})
	for _, r := range results {
		n := utf8.RuneCountInString(r.Content)
		if total+n > a.maxContext && len(parts) > 0 {
			break
		}
		parts = append(parts, r.Content)
		pages[r.Metadata.PageNumber] = struct{}{}
		total += n
	}
	text := a.summarizer.Rank(strings.Join(parts, "\n"), question, a.maxSentences)
	if text == "" {
		return answer.NoResultsMessage, nil
	}
	return text + "\n\n" + pageList(pages), nil
}

func pageList(pages map[int]struct{}) string {
	nums := make([]int, 0, len(pages))
	for p := range pages {
		nums = append(nums, p)
	}
	sort.Ints(nums)
	strs := make([]string, len(nums))
	for i, n := range nums {
		strs[i] = strconv.Itoa(n)
	}
	if len(strs) == 1 {
		return "(page " + strs[0] + ")"
	}
	return "(pages " + strings.Join(strs, ", ") + ")"
}
