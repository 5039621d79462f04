package chat

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ParseResult is the outcome of scanning an LLM response for a search
// action. A missing action with a nil ParseErr means the model answered
// conversationally on purpose.
type ParseResult struct {
	HasSearchAction bool
	Action          *SearchAction
	ParseErr        error
}

type actionEnvelope struct {
	Action string       `json:"action"`
	Params SearchAction `json:"params"`
}

var fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseSearchAction extracts a structured search action from free-form LLM
// text. The action may sit in a fenced code block or as bare JSON surrounded
// by prose. Malformed or missing JSON is recorded in ParseErr, never thrown.
func ParseSearchAction(response string) ParseResult {
	var lastErr error

	// Fenced blocks first: models that follow the prompt put the action there.
	for _, m := range fencedBlockRe.FindAllStringSubmatch(response, -1) {
		res, err := tryParseCandidates(m[1])
		if res != nil {
			return *res
		}
		if err != nil {
			lastErr = err
		}
	}

	res, err := tryParseCandidates(response)
	if res != nil {
		return *res
	}
	if err != nil {
		lastErr = err
	}

	return ParseResult{ParseErr: lastErr}
}

// tryParseCandidates scans the text for balanced JSON objects and attempts
// to decode each as a search-action envelope. Returns a ParseResult when a
// valid action was found, or the last decode error for JSON-looking text
// that would not parse.
func tryParseCandidates(text string) (*ParseResult, error) {
	var lastErr error
	for _, candidate := range balancedObjects(text) {
		var env actionEnvelope
		if err := json.Unmarshal([]byte(candidate), &env); err != nil {
			lastErr = fmt.Errorf("malformed JSON object: %w", err)
			continue
		}
		if env.Action != "search" {
			continue
		}
		if strings.TrimSpace(env.Params.Query) == "" {
			lastErr = fmt.Errorf("search action missing query")
			continue
		}
		action := env.Params
		return &ParseResult{HasSearchAction: true, Action: &action}, nil
	}
	return nil, lastErr
}

// balancedObjects returns every top-level {...} span in the text, found by
// balanced brace scanning. Braces inside JSON strings are skipped.
func balancedObjects(text string) []string {
	var out []string
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i, ch := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					out = append(out, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}

// Phrases the model tends to produce when it meant to search but emitted
// broken or missing JSON.
var searchIntentPhrases = []string{
	"let me search", "i'll search", "i will search", "searching for",
	"let me look", "i'll look up", "looking up", "let me find",
	"i'll find", "search the", "run a search", "performing a search",
	"\"action\"", "search_action",
}

// LooksLikeSearchIntent reports whether the prose around a failed parse
// suggests the model intended to search. It distinguishes "the model forgot
// to search" from "the model intentionally answered conversationally", so
// the controller only retries in the first case.
func LooksLikeSearchIntent(response string) bool {
	lower := strings.ToLower(response)
	for _, phrase := range searchIntentPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
