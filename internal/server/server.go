// Package server exposes the conversation API over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicpulse/legichat/config"
	"github.com/civicpulse/legichat/internal/chat"
	"github.com/civicpulse/legichat/internal/search"
	"github.com/civicpulse/legichat/internal/store"
	"github.com/civicpulse/legichat/internal/telemetry"
	"github.com/civicpulse/legichat/provider"
)

// Run wires the dependency graph and serves until the listener fails.
func Run(ctx context.Context, cfg *config.Config) error {
	st, err := store.Connect(ctx, cfg.Storage.Redis)
	if err != nil {
		return err
	}

	llm, err := provider.NewLLM(provider.OpenAI, cfg.LLM)
	if err != nil {
		return err
	}
	searcher := search.NewClient(cfg.Search)
	tele := telemetry.NewTelemetry(nil)

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch := chat.NewOrchestrator(llm, searcher, chat.Options{
		MaxRetries:             cfg.Orchestration.MaxRetries,
		UseSearchPrompt:        cfg.Orchestration.UseSearchPrompt,
		SkipClarification:      cfg.Orchestration.SkipClarification,
		ClarificationThreshold: cfg.Orchestration.ClarificationThreshold,
	}, tele, orchLogger)

	e := New(cfg, orch, st)
	return e.Start(cfg.Server.Address)
}

// New builds the echo instance with middleware and all routes registered.
func New(cfg *config.Config, orch *chat.Orchestrator, st ConversationStore) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		httpLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	allowOrigins := cfg.Server.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type"},
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ch := &ConversationsHandler{
		Store:   st,
		Orch:    orch,
		Timeout: cfg.Orchestration.RunTimeout,
	}
	ch.Register(e.Group("/api/conversations"))

	return e
}
