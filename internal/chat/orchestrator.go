package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicpulse/legichat/internal/telemetry"
)

// Message is one role-tagged entry of the upstream conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is what the LLM bridge sends upstream. Ordering of
// Previous is preserved as given.
type CompletionRequest struct {
	Message      string
	Previous     []Message
	SystemPrompt string
}

// LLM is the request/response bridge to the chat-completions endpoint.
// Implementations are stateless passthroughs; transport and HTTP errors
// propagate unretried.
type LLM interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// SearchOutcome is a result list plus echo metadata from the search service.
type SearchOutcome struct {
	Query         string
	Results       []SearchResult
	TotalReturned int
	HasMore       bool
	NextOffset    int
}

// Searcher executes a parsed search action against the content index.
type Searcher interface {
	Search(ctx context.Context, action SearchAction) (*SearchOutcome, error)
}

// run states, recorded on spans and logs as the turn advances.
const (
	stateCheckingClarity       = "checking_clarity"
	stateAwaitingClarification = "awaiting_clarification"
	stateSendingInitial        = "sending_initial"
	stateParsingResponse       = "parsing_response"
	stateExecutingSearch       = "executing_search"
	stateSendingWithResults    = "sending_with_results"
	stateComplete              = "complete"
	stateError                 = "error"
)

var orchestratorTracer trace.Tracer = otel.Tracer("legichat/internal/chat")

// Orchestrator sequences one user turn through the clarify, search and
// synthesize pipeline. State is per-invocation; a single orchestrator is
// shared across conversations.
type Orchestrator struct {
	llm       LLM
	searcher  Searcher
	defaults  Options
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

// NewOrchestrator creates an orchestrator with the given collaborators.
// defaults fills in any zero-valued per-run option and is honored as given:
// a zero MaxRetries default disables re-prompting entirely.
func NewOrchestrator(llm LLM, searcher Searcher, defaults Options, tele *telemetry.Telemetry, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	return &Orchestrator{
		llm:       llm,
		searcher:  searcher,
		defaults:  defaults,
		telemetry: tele,
		logger:    logger,
	}
}

// Run executes one orchestration run for a single user turn. The caller
// owns persistence: it passes in the prior turns, the accumulated result
// snapshot and the last searched query, and stores what comes back.
//
// The returned error is non-nil only when no user-presentable content could
// be produced (an LLM transport failure); degraded-but-answerable turns
// come back with a nil error and, at most, a non-fatal Result.Err.
func (o *Orchestrator) Run(ctx context.Context, userMessage string, prior []Turn, accumulated []SearchResult, lastQuery string, opts Options) (Result, error) {
	opts = o.normalize(opts)
	start := time.Now()

	ctx, span := orchestratorTracer.Start(ctx, "chat.orchestrate",
		trace.WithAttributes(
			attribute.Int("turn.prior_count", len(prior)),
			attribute.Int("turn.accumulated_results", len(accumulated)),
		))
	defer span.End()

	userTurns := 0
	for _, t := range prior {
		if t.Role == "user" {
			userTurns++
		}
	}

	// Clarity check runs only on the first turn of a conversation and only
	// when not explicitly skipped.
	if userTurns == 0 && !opts.SkipClarification {
		span.AddEvent(stateCheckingClarity)
		clarity := AnalyzeClarity(userMessage, userTurns, opts.ClarificationThreshold)
		if clarity.NeedsClarification && clarity.SuggestedQuestion != nil {
			o.telemetry.RecordClarification()
			o.telemetry.RecordRun(stateAwaitingClarification)
			span.SetAttributes(attribute.String("run.outcome", stateAwaitingClarification))
			span.SetStatus(codes.Ok, "clarification requested")
			return Result{
				Content:            clarity.SuggestedQuestion.Question,
				Results:            accumulated,
				NeedsClarification: true,
				Clarification:      clarity.SuggestedQuestion,
			}, nil
		}
	}

	intent := ClassifyIntent(userMessage, prior, accumulated, lastQuery)
	span.SetAttributes(
		attribute.String("intent.kind", string(intent.Intent)),
		attribute.Float64("intent.confidence", intent.Confidence),
	)

	history := turnsToMessages(prior)
	// send issues one LLM request and, on success, folds the exchange into
	// the history for any follow-up request this run makes.
	send := func(message, systemPrompt string) (string, error) {
		reqStart := time.Now()
		text, err := o.llm.Complete(ctx, CompletionRequest{
			Message:      message,
			Previous:     history,
			SystemPrompt: systemPrompt,
		})
		o.telemetry.ObserveLLMLatency(time.Since(reqStart))
		if err != nil {
			return "", err
		}
		history = append(history,
			Message{Role: "user", Content: message},
			Message{Role: "assistant", Content: text},
		)
		return text, nil
	}

	systemPrompt := conversationalSystemPrompt
	searchEnabled := opts.UseSearchPrompt && o.searcher != nil && intent.Intent != IntentAnalysis
	if searchEnabled {
		systemPrompt = searchSystemPrompt(opts.ActiveFilters)
	}

	span.AddEvent(stateSendingInitial)
	response, err := send(userMessage, systemPrompt)
	if err != nil {
		return o.fail(span, intent, accumulated, err)
	}

	if !searchEnabled {
		return o.finish(span, start, Result{
			Content: response,
			Results: accumulated,
			Intent:  intent,
		})
	}

	// Parse loop: re-prompt on malformed output, bounded, and only while
	// the prose still looks like a search was intended.
	parsed := ParseSearchAction(response)
	retries := 0
	for !parsed.HasSearchAction && parsed.ParseErr != nil && LooksLikeSearchIntent(response) {
		if retries >= opts.MaxRetries {
			o.logger.Printf("%s after %d retries: %v", ErrCodeMaxRetries, retries, parsed.ParseErr)
			span.AddEvent("parse.exhausted", trace.WithAttributes(
				attribute.Int("parse.retries", retries),
			))
			break
		}
		retries++
		o.telemetry.RecordParseRetry()
		span.AddEvent(stateParsingResponse, trace.WithAttributes(
			attribute.Int("parse.attempt", retries),
		))

		response, err = send(correctionPrompt(response, parsed.ParseErr), systemPrompt)
		if err != nil {
			return o.fail(span, intent, accumulated, err)
		}
		parsed = ParseSearchAction(response)
	}

	// No action after the loop means the model answered conversationally,
	// either on purpose or after exhausting its chances.
	if !parsed.HasSearchAction {
		return o.finish(span, start, Result{
			Content: response,
			Results: accumulated,
			Intent:  intent,
		})
	}

	action := *parsed.Action
	applyFilterHints(&action, intent.FilterHints)
	span.AddEvent(stateExecutingSearch, trace.WithAttributes(
		attribute.String("search.query", action.Query),
	))

	searchStart := time.Now()
	outcome, searchErr := o.searcher.Search(ctx, action)
	o.telemetry.ObserveSearchLatency(time.Since(searchStart))
	if searchErr != nil {
		// The turn is not aborted: ask the model to answer from general
		// knowledge, and keep the failure visible in metrics and logs only.
		o.telemetry.RecordSearchError()
		o.logger.Printf("%s for query %q: %v", ErrCodeSearch, action.Query, searchErr)
		span.AddEvent("search.failed", trace.WithAttributes(
			attribute.String("search.error", searchErr.Error()),
		))

		fallback, err := send(searchErrorPrompt(searchErr), conversationalSystemPrompt)
		if err != nil {
			return o.fail(span, intent, accumulated, err)
		}
		return o.finish(span, start, Result{
			Content: fallback,
			Results: accumulated,
			Intent:  intent,
		})
	}

	merged := MergeResults(outcome.Results, accumulated, intent.MergeResults)

	span.AddEvent(stateSendingWithResults, trace.WithAttributes(
		attribute.Int("search.result_count", len(outcome.Results)),
	))
	synthesized, err := send(synthesisPrompt(outcome.Query, outcome.Results), conversationalSystemPrompt)
	if err != nil {
		// The search succeeded, so hand the merged results back alongside
		// the terminal error.
		res, runErr := o.fail(span, intent, merged, err)
		res.Query = outcome.Query
		return res, runErr
	}

	return o.finish(span, start, Result{
		Content: synthesized,
		Results: merged,
		Query:   outcome.Query,
		Intent:  intent,
	})
}

// normalize resolves per-run options against the configured defaults. A
// zero-valued numeric field means "use the default"; callers that need a
// zero retry budget or threshold set it on the defaults at construction.
func (o *Orchestrator) normalize(opts Options) Options {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = o.defaults.MaxRetries
	}
	if opts.ClarificationThreshold == 0 {
		opts.ClarificationThreshold = o.defaults.ClarificationThreshold
	}
	if opts.ActiveFilters.IsZero() {
		opts.ActiveFilters = o.defaults.ActiveFilters
	}
	// booleans can only be switched on per-run, not off
	opts.UseSearchPrompt = opts.UseSearchPrompt || o.defaults.UseSearchPrompt
	opts.SkipClarification = opts.SkipClarification || o.defaults.SkipClarification
	return opts
}

func (o *Orchestrator) finish(span trace.Span, start time.Time, res Result) (Result, error) {
	o.telemetry.RecordRun(stateComplete)
	o.telemetry.ObserveResultCount(len(res.Results))
	span.SetAttributes(
		attribute.String("run.outcome", stateComplete),
		attribute.Int("run.result_count", len(res.Results)),
	)
	span.SetStatus(codes.Ok, "completed")
	o.logger.Printf("turn completed in %v (%d results)", time.Since(start), len(res.Results))
	return res, nil
}

func (o *Orchestrator) fail(span trace.Span, intent QueryIntentResult, results []SearchResult, err error) (Result, error) {
	o.telemetry.RecordRun(stateError)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.logger.Printf("%s: %v", ErrCodeAPI, err)
	return Result{
		Results: results,
		Intent:  intent,
		Err:     &Error{Code: ErrCodeAPI, Message: "The language model could not be reached. Please try again."},
	}, fmt.Errorf("llm request failed: %w", err)
}

// applyFilterHints fills action filters the classifier extracted but the
// model omitted. The model's own filters win.
func applyFilterHints(action *SearchAction, hints FilterHints) {
	if action.Speaker == "" && hints.Speaker != "" {
		action.Speaker = hints.Speaker
	}
	if action.Chamber == "" && hints.Chamber != "" {
		action.Chamber = hints.Chamber
	}
	if action.ContentType == "" && hints.ContentType != "" {
		action.ContentType = hints.ContentType
	}
}

func turnsToMessages(turns []Turn) []Message {
	if len(turns) == 0 {
		return nil
	}
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		out = append(out, Message{Role: t.Role, Content: t.Content})
	}
	return out
}

// IsServiceError reports whether err carries the given orchestration code.
func IsServiceError(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
