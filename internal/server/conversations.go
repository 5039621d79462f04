package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/civicpulse/legichat/internal/chat"
	"github.com/civicpulse/legichat/internal/store"
)

// ConversationStore is the persistence surface the handlers need.
type ConversationStore interface {
	Save(ctx context.Context, conv *chat.Conversation) error
	Get(ctx context.Context, id string) (*chat.Conversation, error)
	List(ctx context.Context) ([]chat.Conversation, error)
	Delete(ctx context.Context, id string) error
}

// ConversationsHandler serves conversation CRUD plus the message
// endpoint that drives one orchestration run per user message.
type ConversationsHandler struct {
	Store   ConversationStore
	Orch    *chat.Orchestrator
	Timeout time.Duration
}

func (h *ConversationsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/messages", h.message)
}

func (h *ConversationsHandler) list(c echo.Context) error {
	items, err := h.Store.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	// turn bodies stay out of the listing
	type summary struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Turns     int       `json:"turns"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	out := make([]summary, 0, len(items))
	for _, conv := range items {
		out = append(out, summary{ID: conv.ID, Title: conv.Title, Turns: len(conv.Turns), UpdatedAt: conv.UpdatedAt})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ConversationsHandler) create(c echo.Context) error {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	now := time.Now().UTC()
	conv := &chat.Conversation{
		ID:        uuid.New().String(),
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Store.Save(c.Request().Context(), conv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, conv)
}

func (h *ConversationsHandler) get(c echo.Context) error {
	conv, err := h.Store.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, conv)
}

func (h *ConversationsHandler) delete(c echo.Context) error {
	if err := h.Store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// messageResponse pairs the orchestration result with the turns it
// appended, so clients can render without refetching the conversation.
type messageResponse struct {
	ConversationID string      `json:"conversation_id"`
	UserTurn       chat.Turn   `json:"user_turn"`
	AssistantTurn  *chat.Turn  `json:"assistant_turn,omitempty"`
	Result         chat.Result `json:"result"`
}

func (h *ConversationsHandler) message(c echo.Context) error {
	var req struct {
		Message string             `json:"message"`
		Filters chat.ActiveFilters `json:"filters"`
	}
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}

	ctx := c.Request().Context()
	conv, err := h.Store.Get(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrConversationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// the user turn is stored pending before the run so an interrupted run
	// leaves its trace, then finalized to sent or error afterwards
	prior := conv.Turns
	conv.Turns = append(conv.Turns, chat.Turn{
		ID:        uuid.New().String(),
		Role:      "user",
		Content:   req.Message,
		Status:    chat.TurnPending,
		Timestamp: time.Now().UTC(),
	})
	if err := h.Store.Save(ctx, conv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	runCtx := ctx
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	res, runErr := h.Orch.Run(runCtx, req.Message, prior, conv.Results, conv.LastQuery, chat.Options{
		ActiveFilters: req.Filters,
	})

	userTurn := &conv.Turns[len(conv.Turns)-1]
	userTurn.Status = chat.TurnSent
	if runErr != nil {
		userTurn.Status = chat.TurnError
	}

	resp := messageResponse{ConversationID: conv.ID, UserTurn: *userTurn, Result: res}
	if runErr == nil {
		assistant := chat.Turn{
			ID:        uuid.New().String(),
			Role:      "assistant",
			Content:   res.Content,
			Status:    chat.TurnSent,
			Timestamp: time.Now().UTC(),
		}
		conv.Turns = append(conv.Turns, assistant)
		resp.AssistantTurn = &assistant

		conv.Results = res.Results
		if res.Query != "" {
			conv.LastQuery = res.Query
		}
	}

	// persist with the request context even when the run timed out
	if err := h.Store.Save(ctx, conv); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if runErr != nil {
		return c.JSON(http.StatusBadGateway, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
