package chat

import "strings"

// Terms too broad to search on by themselves.
var vagueTopics = []string{
	"politics", "congress", "government", "legislation", "laws", "policy",
	"the senate", "the house", "current events", "news",
}

var vagueOpeners = []string{
	"tell me about", "what about", "info on", "information about",
	"anything about", "something about", "what's happening",
	"what is going on", "whats going on",
}

// AnalyzeClarity estimates whether a first-turn query is too ambiguous to
// search confidently. The ambiguity score is compared against the caller's
// threshold; a question is suggested whenever the score reaches it.
// Idempotent, pure, synchronous. Only the first turn of a conversation is
// scored; later turns are assumed to carry enough accumulated context.
func AnalyzeClarity(message string, turnCount int, threshold float64) ClarityResult {
	if turnCount > 0 {
		return ClarityResult{}
	}
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return ClarityResult{
			NeedsClarification: true,
			Confidence:         1,
			SuggestedQuestion:  defaultClarification(),
		}
	}

	var score float64
	tokens := contentTokens(lower)
	if len(tokens) <= 1 {
		score += 0.5
	} else if len(tokens) <= 3 {
		score += 0.25
	}
	for _, opener := range vagueOpeners {
		if strings.HasPrefix(lower, opener) {
			score += 0.3
			break
		}
	}
	for _, topic := range vagueTopics {
		if lower == topic || strings.HasSuffix(lower, topic) {
			score += 0.4
			break
		}
	}
	// A named speaker or a concrete subject is usually enough to search on.
	hints := extractFilterHints(message)
	if hints.Speaker != "" {
		score -= 0.4
	}
	if len(tokens) >= 5 {
		score -= 0.2
	}
	score = clamp01(score)

	res := ClarityResult{Confidence: score}
	if score >= threshold {
		res.NeedsClarification = true
		res.SuggestedQuestion = buildClarification(lower)
	}
	return res
}

func buildClarification(lower string) *ClarificationQuestion {
	if strings.Contains(lower, "vote") {
		return &ClarificationQuestion{
			Question: "Which votes are you interested in?",
			Options: []string{
				"Recent Senate roll-call votes",
				"Recent House roll-call votes",
				"Votes on a specific bill or topic",
				"How a specific legislator voted",
			},
		}
	}
	return defaultClarification()
}

func defaultClarification() *ClarificationQuestion {
	return &ClarificationQuestion{
		Question: "What would you like to look into?",
		Options: []string{
			"What legislators said about a specific topic",
			"Committee hearings on an issue",
			"Floor speeches from a specific senator or representative",
			"Recent votes on a bill",
		},
	}
}
