package chat

import "testing"

func sampleResults() []SearchResult {
	return []SearchResult{
		{ContentID: "h-100", SegmentIndex: 0, ContentType: "hearing", Title: "Hearing on climate change policy", SpeakerName: "Jane Smith"},
		{ContentID: "h-100", SegmentIndex: 1, ContentType: "hearing", Title: "Hearing on climate change policy", SpeakerName: "Ed Jones"},
		{ContentID: "fs-7", SegmentIndex: 0, ContentType: "floor_speech", Title: "Floor speech on climate change", SpeakerName: "Elizabeth Warren"},
	}
}

func TestClassifyIntentNoAccumulatedResultsIsAlwaysNew(t *testing.T) {
	res := ClassifyIntent("only the votes please", nil, nil, "")
	if res.Intent != IntentNew {
		t.Fatalf("expected new intent without prior results, got %s", res.Intent)
	}
	if res.PreserveResults || res.MergeResults {
		t.Fatalf("new intent must not preserve or merge, got preserve=%v merge=%v", res.PreserveResults, res.MergeResults)
	}
}

func TestClassifyIntentRefinement(t *testing.T) {
	res := ClassifyIntent("only what Senator Warren said", nil, sampleResults(), "climate change")
	if res.Intent != IntentRefinement {
		t.Fatalf("expected refinement, got %s", res.Intent)
	}
	if res.PreserveResults {
		t.Fatalf("refinement replaces the result set, preserve should be false")
	}
	if res.MergeResults {
		t.Fatalf("refinement must not merge")
	}
	if res.FilterHints.Speaker != "Warren" {
		t.Fatalf("expected speaker hint Warren, got %q", res.FilterHints.Speaker)
	}
}

func TestClassifyIntentExpansion(t *testing.T) {
	res := ClassifyIntent("what about floor speeches as well", nil, sampleResults(), "climate change")
	if res.Intent != IntentExpansion {
		t.Fatalf("expected expansion, got %s", res.Intent)
	}
	if !res.PreserveResults || !res.MergeResults {
		t.Fatalf("expansion preserves and merges, got preserve=%v merge=%v", res.PreserveResults, res.MergeResults)
	}
}

func TestClassifyIntentAnalysis(t *testing.T) {
	res := ClassifyIntent("summarize the key takeaways from these results", nil, sampleResults(), "climate change")
	if res.Intent != IntentAnalysis {
		t.Fatalf("expected analysis, got %s", res.Intent)
	}
	if !res.PreserveResults {
		t.Fatalf("analysis must preserve the accumulated results")
	}
	if res.MergeResults {
		t.Fatalf("analysis must not merge")
	}
}

func TestClassifyIntentNovelTopicIsNew(t *testing.T) {
	res := ClassifyIntent("immigration border enforcement bills", nil, sampleResults(), "climate change")
	if res.Intent != IntentNew {
		t.Fatalf("expected new for a novel topic, got %s", res.Intent)
	}
}

func TestClassifyIntentIdempotent(t *testing.T) {
	msg := "only the senate hearings about emissions"
	acc := sampleResults()
	first := ClassifyIntent(msg, nil, acc, "climate change")
	second := ClassifyIntent(msg, nil, acc, "climate change")
	if first != second {
		t.Fatalf("classification not idempotent: %+v vs %+v", first, second)
	}
}

func TestExtractFilterHints(t *testing.T) {
	hints := extractFilterHints("What did Representative Ocasio-Cortez say in hearings?")
	if hints.Speaker != "Ocasio-Cortez" {
		t.Fatalf("expected speaker Ocasio-Cortez, got %q", hints.Speaker)
	}
	if hints.Chamber != "house" {
		t.Fatalf("expected chamber house, got %q", hints.Chamber)
	}
	if hints.ContentType != "hearing" {
		t.Fatalf("expected content type hearing, got %q", hints.ContentType)
	}
}
