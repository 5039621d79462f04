package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/civicpulse/legichat/config"
	"github.com/civicpulse/legichat/internal/chat"
	"github.com/civicpulse/legichat/internal/store"
)

type memStore struct {
	items map[string]*chat.Conversation
	// turn statuses captured at each Save, in call order
	saves [][]chat.TurnStatus
}

func newMemStore() *memStore {
	return &memStore{items: map[string]*chat.Conversation{}}
}

func (m *memStore) Save(_ context.Context, conv *chat.Conversation) error {
	statuses := make([]chat.TurnStatus, len(conv.Turns))
	for i, t := range conv.Turns {
		statuses[i] = t.Status
	}
	m.saves = append(m.saves, statuses)

	cp := *conv
	cp.Turns = append([]chat.Turn(nil), conv.Turns...)
	m.items[conv.ID] = &cp
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (*chat.Conversation, error) {
	conv, ok := m.items[id]
	if !ok {
		return nil, store.ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

func (m *memStore) List(_ context.Context) ([]chat.Conversation, error) {
	var out []chat.Conversation
	for _, conv := range m.items {
		out = append(out, *conv)
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if _, ok := m.items[id]; !ok {
		return store.ErrConversationNotFound
	}
	delete(m.items, id)
	return nil
}

type cannedLLM struct {
	response string
}

func (c cannedLLM) Complete(_ context.Context, _ chat.CompletionRequest) (string, error) {
	return c.response, nil
}

func newTestServer(st ConversationStore, llm chat.LLM) http.Handler {
	cfg := &config.Config{}
	orch := chat.NewOrchestrator(llm, nil, chat.Options{UseSearchPrompt: true, SkipClarification: true}, nil, nil)
	return New(cfg, orch, st)
}

func TestCreateAndGetConversation(t *testing.T) {
	st := newMemStore()
	h := newTestServer(st, cannedLLM{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/conversations", strings.NewReader(`{"title":"Climate research"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created chat.Conversation
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding create response: %v", err)
	}
	if created.ID == "" || created.Title != "Climate research" {
		t.Fatalf("unexpected conversation %+v", created)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	h := newTestServer(newMemStore(), cannedLLM{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestDeleteConversation(t *testing.T) {
	st := newMemStore()
	st.items["c1"] = &chat.Conversation{ID: "c1"}
	h := newTestServer(st, cannedLLM{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/conversations/c1", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := st.items["c1"]; ok {
		t.Fatalf("conversation should be gone")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/conversations/c1", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat delete, got %d", rec.Code)
	}
}

func TestPostMessageAppendsTurns(t *testing.T) {
	st := newMemStore()
	st.items["c1"] = &chat.Conversation{ID: "c1", Title: "Test"}
	h := newTestServer(st, cannedLLM{response: "The Senate has 100 members."})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/conversations/c1/messages",
		strings.NewReader(`{"message":"How many members does the Senate have?"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ConversationID string      `json:"conversation_id"`
		AssistantTurn  *chat.Turn  `json:"assistant_turn"`
		Result         chat.Result `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.AssistantTurn == nil || resp.AssistantTurn.Content != "The Senate has 100 members." {
		t.Fatalf("assistant turn missing or wrong: %+v", resp.AssistantTurn)
	}
	if resp.Result.Content != "The Senate has 100 members." {
		t.Fatalf("unexpected result content %q", resp.Result.Content)
	}

	saved := st.items["c1"]
	if len(saved.Turns) != 2 {
		t.Fatalf("expected user + assistant turns persisted, got %d", len(saved.Turns))
	}
	if saved.Turns[0].Role != "user" || saved.Turns[0].Status != chat.TurnSent {
		t.Fatalf("user turn not recorded: %+v", saved.Turns[0])
	}

	// the user turn is persisted pending before the run, finalized after
	if len(st.saves) != 2 {
		t.Fatalf("expected a pre-run and a post-run save, got %d", len(st.saves))
	}
	if len(st.saves[0]) != 1 || st.saves[0][0] != chat.TurnPending {
		t.Fatalf("first save should hold the pending user turn, got %v", st.saves[0])
	}
	if st.saves[1][0] != chat.TurnSent {
		t.Fatalf("final save should mark the user turn sent, got %v", st.saves[1])
	}
}

func TestPostMessageValidation(t *testing.T) {
	st := newMemStore()
	st.items["c1"] = &chat.Conversation{ID: "c1"}
	h := newTestServer(st, cannedLLM{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/conversations/c1/messages", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/conversations/missing/messages",
		strings.NewReader(`{"message":"hi there everyone"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown conversation, got %d", rec.Code)
	}
}

func TestListConversationSummaries(t *testing.T) {
	st := newMemStore()
	st.items["c1"] = &chat.Conversation{ID: "c1", Title: "One", Turns: []chat.Turn{{Role: "user", Content: "hi"}}}
	h := newTestServer(st, cannedLLM{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversations", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Turns int    `json:"turns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(items) != 1 || items[0].Turns != 1 {
		t.Fatalf("unexpected listing %+v", items)
	}
	if strings.Contains(rec.Body.String(), `"content"`) {
		t.Fatalf("listing must not include turn bodies")
	}
}
