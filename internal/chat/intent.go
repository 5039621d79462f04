package chat

import (
	"regexp"
	"strings"
)

// Keyword families driving the intent classification. Matching is done on
// the lowercased message; multi-word entries match as substrings, single
// words as whole tokens.
var (
	refinementKeywords = []string{
		"only", "just", "filter", "narrow", "exclude", "except",
		"of those", "from those", "out of these", "which of these",
		"restrict", "limit to", "specifically",
	}
	expansionKeywords = []string{
		"also", "more", "additionally", "in addition", "as well",
		"what about", "how about", "any other", "add", "plus",
		"expand", "broaden", "other",
	}
	analysisKeywords = []string{
		"summarize", "summarise", "analyze", "analyse", "compare",
		"explain", "interpret", "what does this mean", "key takeaways",
		"overall", "trend", "pattern", "breakdown", "in your opinion",
		"based on these", "from these results",
	}
)

var (
	speakerHintRe = regexp.MustCompile(`(?i)\b(?:senator|sen\.|representative|rep\.|congress(?:man|woman))\s+([A-Z][a-zA-Z'-]+(?:\s+[A-Z][a-zA-Z'-]+)?)`)
	tokenRe       = regexp.MustCompile(`[a-z0-9']+`)
)

// ClassifyIntent inspects the current message plus prior search context and
// decides what this turn means for the accumulated result set. It is a pure
// function of its inputs and never fails: absence of signal yields the
// lowest-confidence "new" classification.
func ClassifyIntent(message string, priorTurns []Turn, accumulated []SearchResult, lastQuery string) QueryIntentResult {
	lower := strings.ToLower(strings.TrimSpace(message))
	hints := extractFilterHints(message)

	// Without prior results there is nothing to refine, expand or analyze.
	if len(accumulated) == 0 {
		return QueryIntentResult{
			Intent:      IntentNew,
			Confidence:  baseConfidence(lower, lastQuery),
			FilterHints: hints,
		}
	}

	refScore := keywordScore(lower, refinementKeywords)
	expScore := keywordScore(lower, expansionKeywords)
	anaScore := keywordScore(lower, analysisKeywords)

	// Topical novelty: a message sharing almost no vocabulary with the
	// last query and the accumulated results points at a fresh search.
	novelty := noveltyScore(lower, lastQuery, accumulated)

	switch {
	case anaScore > 0 && anaScore >= refScore && anaScore >= expScore:
		return QueryIntentResult{
			Intent:          IntentAnalysis,
			Confidence:      clamp01(0.6 + 0.1*float64(anaScore)),
			FilterHints:     hints,
			PreserveResults: true,
			MergeResults:    false,
		}
	case refScore > expScore:
		return QueryIntentResult{
			Intent:          IntentRefinement,
			Confidence:      clamp01(0.6 + 0.1*float64(refScore)),
			FilterHints:     hints,
			PreserveResults: false,
			MergeResults:    false,
		}
	case expScore > refScore:
		return QueryIntentResult{
			Intent:          IntentExpansion,
			Confidence:      clamp01(0.6 + 0.1*float64(expScore)),
			FilterHints:     hints,
			PreserveResults: true,
			MergeResults:    true,
		}
	case novelty >= 0.7:
		return QueryIntentResult{
			Intent:      IntentNew,
			Confidence:  clamp01(novelty),
			FilterHints: hints,
		}
	}

	// Tie or no signal: "new" is the safest default, full replace means no
	// stale-result leakage.
	return QueryIntentResult{
		Intent:      IntentNew,
		Confidence:  0.3,
		FilterHints: hints,
	}
}

func keywordScore(lower string, family []string) int {
	score := 0
	tokens := tokenSet(lower)
	for _, kw := range family {
		if strings.ContainsRune(kw, ' ') {
			if strings.Contains(lower, kw) {
				score++
			}
		} else if tokens[kw] {
			score++
		}
	}
	return score
}

// noveltyScore estimates how much of the message's vocabulary is absent
// from the prior query and result texts. 1.0 means entirely novel.
func noveltyScore(lower, lastQuery string, accumulated []SearchResult) float64 {
	msgTokens := contentTokens(lower)
	if len(msgTokens) == 0 {
		return 0
	}
	known := tokenSet(strings.ToLower(lastQuery))
	for _, r := range accumulated {
		for tok := range tokenSet(strings.ToLower(r.Title + " " + r.SpeakerName)) {
			known[tok] = true
		}
	}
	novel := 0
	for _, tok := range msgTokens {
		if !known[tok] {
			novel++
		}
	}
	return float64(novel) / float64(len(msgTokens))
}

func baseConfidence(lower, lastQuery string) float64 {
	if lower == "" {
		return 0.1
	}
	if lastQuery == "" {
		return 0.8
	}
	return 0.5
}

func extractFilterHints(message string) FilterHints {
	var hints FilterHints
	if m := speakerHintRe.FindStringSubmatch(message); m != nil {
		hints.Speaker = m[1]
	}
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "senate") || strings.Contains(lower, "senator"):
		hints.Chamber = "senate"
	case strings.Contains(lower, "house") || strings.Contains(lower, "representative"):
		hints.Chamber = "house"
	}
	switch {
	case strings.Contains(lower, "hearing"):
		hints.ContentType = "hearing"
	case strings.Contains(lower, "floor speech") || strings.Contains(lower, "floor speeches"):
		hints.ContentType = "floor_speech"
	case strings.Contains(lower, "vote"):
		hints.ContentType = "vote"
	}
	return hints
}

// stopwords excluded when measuring topical novelty.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "what": true, "who": true, "how": true, "about": true,
	"have": true, "has": true, "had": true, "said": true, "say": true,
	"on": true, "in": true, "of": true, "to": true, "and": true, "or": true,
	"for": true, "me": true, "i": true, "you": true, "it": true, "they": true,
	"do": true, "does": true, "did": true, "tell": true, "show": true,
}

func contentTokens(lower string) []string {
	var out []string
	for _, tok := range tokenRe.FindAllString(lower, -1) {
		if !stopwords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

func tokenSet(lower string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range tokenRe.FindAllString(lower, -1) {
		set[tok] = true
	}
	return set
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
