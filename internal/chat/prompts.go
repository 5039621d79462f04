package chat

import (
	"fmt"
	"strings"
)

// searchSystemPrompt instructs the model to emit a structured search action
// when it needs congressional content to answer.
func searchSystemPrompt(filters ActiveFilters) string {
	filterBlock := ""
	if !filters.IsZero() {
		var parts []string
		if filters.Party != "" {
			parts = append(parts, fmt.Sprintf("party: %s", filters.Party))
		}
		if filters.State != "" {
			parts = append(parts, fmt.Sprintf("state: %s", filters.State))
		}
		if filters.Chamber != "" {
			parts = append(parts, fmt.Sprintf("chamber: %s", filters.Chamber))
		}
		filterBlock = fmt.Sprintf(`

ACTIVE USER FILTERS (bias your query and filters toward these):
%s`, strings.Join(parts, "\n"))
	}

	return fmt.Sprintf(`You are a research assistant helping citizens look into what US legislators have said and done. You have access to a search index of congressional hearings, floor speeches, and roll-call votes.%s

When you need source material to answer, respond with a search action as a JSON object in a fenced code block:

`+"```json"+`
{
  "action": "search",
  "params": {
    "q": "search query text",
    "type": "hearing,floor_speech,vote",
    "speaker": "optional speaker name",
    "chamber": "house or senate",
    "committee": "optional committee name",
    "congress": 118,
    "from": "YYYY-MM-DD",
    "to": "YYYY-MM-DD",
    "limit": 10,
    "enrich": true
  }
}
`+"```"+`

Only "q" is required; omit filters you do not need. Emit exactly one search action per turn, with no other JSON objects. If the question can be answered without source material, answer conversationally and do not emit an action.`, filterBlock)
}

// conversationalSystemPrompt covers turns where searching is disabled.
const conversationalSystemPrompt = `You are a research assistant helping citizens look into what US legislators have said and done, and draft calls or emails to their representatives. Answer from general knowledge; be concise and factual.`

// correctionPrompt asks the model to re-emit a search action after a
// malformed attempt.
func correctionPrompt(malformed string, parseErr error) string {
	const maxEcho = 600
	if len(malformed) > maxEcho {
		malformed = malformed[:maxEcho] + "..."
	}
	return fmt.Sprintf(`Your previous response appeared to attempt a search but the action could not be parsed (%v). Previous response:

%s

Re-emit the search action as a single valid JSON object in a fenced code block, following the required format exactly.`, parseErr, malformed)
}

// synthesisPrompt feeds search results back for a grounded answer.
func synthesisPrompt(query string, results []SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[SEARCH_RESULTS] The search for %q returned %d results:\n\n", query, len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "%d. [%s]", i+1, r.ContentType)
		if r.SpeakerName != "" {
			fmt.Fprintf(&b, " %s", r.SpeakerName)
		}
		if r.Title != "" {
			fmt.Fprintf(&b, " — %s", r.Title)
		}
		if r.Date != "" {
			fmt.Fprintf(&b, " (%s)", r.Date)
		}
		b.WriteString("\n")
		text := r.Text
		const maxExcerpt = 500
		if len(text) > maxExcerpt {
			text = text[:maxExcerpt] + "..."
		}
		fmt.Fprintf(&b, "   %s\n\n", text)
	}
	b.WriteString("Synthesize an answer to the user's question from these results. Cite speakers and dates where available. Do not emit another search action.")
	return b.String()
}

// searchErrorPrompt asks the model to answer from general knowledge after
// the search backend failed.
func searchErrorPrompt(err error) string {
	return fmt.Sprintf(`[SEARCH_ERROR] The search service failed: %v

The user cannot see this message. Answer their question from general knowledge instead, note briefly that you could not pull primary sources right now, and do not emit another search action.`, err)
}
