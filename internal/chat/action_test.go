package chat

import (
	"strings"
	"testing"
)

func TestParseSearchActionFencedBlock(t *testing.T) {
	response := "I'll search for that.\n```json\n{\"action\":\"search\",\"params\":{\"q\":\"climate change\",\"type\":\"hearing\",\"chamber\":\"senate\",\"limit\":10}}\n```"
	res := ParseSearchAction(response)
	if !res.HasSearchAction {
		t.Fatalf("expected a search action, parse err: %v", res.ParseErr)
	}
	if res.Action.Query != "climate change" {
		t.Fatalf("expected query 'climate change', got %q", res.Action.Query)
	}
	if res.Action.ContentType != "hearing" || res.Action.Chamber != "senate" || res.Action.Limit != 10 {
		t.Fatalf("params not decoded: %+v", res.Action)
	}
}

func TestParseSearchActionBareJSONInProse(t *testing.T) {
	response := `Sure. {"action":"search","params":{"q":"farm subsidies","speaker":"Grassley"}} Let me run that.`
	res := ParseSearchAction(response)
	if !res.HasSearchAction {
		t.Fatalf("expected a search action, parse err: %v", res.ParseErr)
	}
	if res.Action.Speaker != "Grassley" {
		t.Fatalf("expected speaker Grassley, got %q", res.Action.Speaker)
	}
}

func TestParseSearchActionBracesInsideStrings(t *testing.T) {
	response := `{"action":"search","params":{"q":"the {budget} reconciliation \"process\""}}`
	res := ParseSearchAction(response)
	if !res.HasSearchAction {
		t.Fatalf("expected a search action, parse err: %v", res.ParseErr)
	}
	if !strings.Contains(res.Action.Query, "{budget}") {
		t.Fatalf("braces inside strings mangled: %q", res.Action.Query)
	}
}

func TestParseSearchActionConversationalResponse(t *testing.T) {
	res := ParseSearchAction("The Senate is the upper chamber of Congress with 100 members.")
	if res.HasSearchAction {
		t.Fatalf("plain prose must not yield an action")
	}
	if res.ParseErr != nil {
		t.Fatalf("plain prose is not a parse error, got %v", res.ParseErr)
	}
}

func TestParseSearchActionMalformedJSON(t *testing.T) {
	res := ParseSearchAction(`Let me search. {"action":"search","params":{"q":"broken`)
	if res.HasSearchAction {
		t.Fatalf("truncated JSON must not yield an action")
	}
	// an unterminated object never closes its braces, so nothing decodes;
	// a closed-but-invalid one must surface an error instead
	res = ParseSearchAction(`{"action":"search","params":{"q":123,}}`)
	if res.HasSearchAction {
		t.Fatalf("invalid JSON must not yield an action")
	}
	if res.ParseErr == nil {
		t.Fatalf("expected a recorded parse error")
	}
}

func TestParseSearchActionMissingQuery(t *testing.T) {
	res := ParseSearchAction(`{"action":"search","params":{"speaker":"Warren"}}`)
	if res.HasSearchAction {
		t.Fatalf("action without q must be rejected")
	}
	if res.ParseErr == nil {
		t.Fatalf("missing query should be recorded as a parse error")
	}
}

func TestParseSearchActionIgnoresOtherActions(t *testing.T) {
	res := ParseSearchAction(`{"action":"draft_email","params":{"q":"ignored"}}`)
	if res.HasSearchAction {
		t.Fatalf("non-search actions must be ignored")
	}
	if res.ParseErr != nil {
		t.Fatalf("a well-formed non-search action is not an error, got %v", res.ParseErr)
	}
}

func TestParseSearchActionPicksSearchAmongSeveralObjects(t *testing.T) {
	response := `{"note":"context"} then {"action":"search","params":{"q":"minimum wage"}}`
	res := ParseSearchAction(response)
	if !res.HasSearchAction || res.Action.Query != "minimum wage" {
		t.Fatalf("expected the search object to win, got %+v (err %v)", res.Action, res.ParseErr)
	}
}

func TestLooksLikeSearchIntent(t *testing.T) {
	if !LooksLikeSearchIntent("Let me search for recent hearings on that.") {
		t.Fatalf("expected search intent to be detected")
	}
	if !LooksLikeSearchIntent(`here is the \"action\": but the json broke`) {
		t.Fatalf("quoted action key should read as search intent")
	}
	if LooksLikeSearchIntent("The filibuster requires 60 votes to break.") {
		t.Fatalf("plain prose must not read as search intent")
	}
}
