package chat

import (
	"fmt"
	"strconv"
	"time"
)

// TurnStatus tracks the lifecycle of a single turn.
type TurnStatus string

const (
	TurnPending TurnStatus = "pending"
	TurnSent    TurnStatus = "sent"
	TurnError   TurnStatus = "error"
)

// Turn is one user message plus the assistant's eventual response.
type Turn struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"` // user or assistant
	Content   string     `json:"content"`
	Status    TurnStatus `json:"status"`
	Timestamp time.Time  `json:"timestamp"`
}

// Conversation is an ordered sequence of turns plus a derived title.
// It owns its turns exclusively and is persisted as a whole unit,
// together with the accumulated search results and the last query.
type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Turns     []Turn         `json:"turns"`
	Results   []SearchResult `json:"results,omitempty"`
	LastQuery string         `json:"last_query,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// UserTurns returns how many user-authored turns the conversation holds.
func (c *Conversation) UserTurns() int {
	n := 0
	for _, t := range c.Turns {
		if t.Role == "user" {
			n++
		}
	}
	return n
}

// SearchAction is the structured action the LLM emits when it wants
// external content retrieved. Ephemeral: parsed from one response and
// consumed immediately.
type SearchAction struct {
	Query       string `json:"q"`
	ContentType string `json:"type,omitempty"` // comma-separated: hearing,floor_speech,vote,all
	Speaker     string `json:"speaker,omitempty"`
	Chamber     string `json:"chamber,omitempty"` // house or senate
	Committee   string `json:"committee,omitempty"`
	Congress    int    `json:"congress,omitempty"`
	From        string `json:"from,omitempty"` // YYYY-MM-DD or YYYY-MM
	To          string `json:"to,omitempty"`
	Limit       int    `json:"limit,omitempty"`
	Offset      int    `json:"offset,omitempty"`
	Enrich      bool   `json:"enrich,omitempty"`
}

// SearchResult is one retrieved content fragment.
type SearchResult struct {
	ContentID    string  `json:"content_id"`
	SegmentIndex int     `json:"segment_index"`
	ContentType  string  `json:"content_type"` // hearing, floor_speech, vote
	Text         string  `json:"text"`
	Score        float64 `json:"score"`
	SpeakerName  string  `json:"speaker_name,omitempty"`
	Title        string  `json:"title,omitempty"`
	Date         string  `json:"date,omitempty"`
	Chamber      string  `json:"chamber,omitempty"`
	Committee    string  `json:"committee,omitempty"`
	Congress     int     `json:"congress,omitempty"`
	SourceURL    string  `json:"source_url,omitempty"`
}

// Key returns the composite key identifying this fragment. It is unique
// within any accumulated result set.
func (r SearchResult) Key() string {
	return r.ContentID + "#" + strconv.Itoa(r.SegmentIndex)
}

// QueryIntent classifies what the user wants done with existing results.
type QueryIntent string

const (
	IntentNew        QueryIntent = "new"
	IntentRefinement QueryIntent = "refinement"
	IntentExpansion  QueryIntent = "expansion"
	IntentAnalysis   QueryIntent = "analysis"
)

// QueryIntentResult is the intent classifier's output for one turn.
type QueryIntentResult struct {
	Intent          QueryIntent `json:"intent"`
	Confidence      float64     `json:"confidence"`
	FilterHints     FilterHints `json:"filter_hints"`
	PreserveResults bool        `json:"preserve_results"`
	MergeResults    bool        `json:"merge_results"`
}

// FilterHints are filters the classifier extracted from the message text.
type FilterHints struct {
	Speaker     string `json:"speaker,omitempty"`
	Chamber     string `json:"chamber,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// ClarificationQuestion is a multiple-choice question proposed instead of
// searching when the first-turn query is too ambiguous.
type ClarificationQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// ClarityResult is the clarification analyzer's output.
type ClarityResult struct {
	NeedsClarification bool                   `json:"needs_clarification"`
	Confidence         float64                `json:"confidence"`
	SuggestedQuestion  *ClarificationQuestion `json:"suggested_question,omitempty"`
}

// Options for one orchestration run. Zero-valued numeric fields fall back
// to the configured defaults; booleans can only be switched on per-run.
type Options struct {
	MaxRetries             int
	UseSearchPrompt        bool
	SkipClarification      bool
	ClarificationThreshold float64
	ActiveFilters          ActiveFilters
}

// ActiveFilters are UI-level filter hints passed into the system prompt.
type ActiveFilters struct {
	Party   string `json:"party,omitempty"`
	State   string `json:"state,omitempty"`
	Chamber string `json:"chamber,omitempty"`
}

func (f ActiveFilters) IsZero() bool {
	return f.Party == "" && f.State == "" && f.Chamber == ""
}

// Result is the final display payload of one orchestration run.
type Result struct {
	Content            string                 `json:"content"`
	Results            []SearchResult         `json:"results,omitempty"`
	Query              string                 `json:"query,omitempty"`
	Intent             QueryIntentResult      `json:"intent"`
	Err                *Error                 `json:"error,omitempty"`
	NeedsClarification bool                   `json:"needs_clarification"`
	Clarification      *ClarificationQuestion `json:"clarification,omitempty"`
}

// ErrorCode enumerates the orchestration error taxonomy.
type ErrorCode string

const (
	ErrCodeParse      ErrorCode = "PARSE_ERROR"
	ErrCodeSearch     ErrorCode = "SEARCH_ERROR"
	ErrCodeAPI        ErrorCode = "API_ERROR"
	ErrCodeMaxRetries ErrorCode = "MAX_RETRIES_EXCEEDED"
	ErrCodeUnknown    ErrorCode = "UNKNOWN_ERROR"
)

// Error is a typed orchestration error with a user-presentable message.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
