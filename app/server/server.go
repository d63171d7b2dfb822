package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"eduagent/app/client/vecstore"
	"eduagent/app/config"
	"eduagent/app/service/tutor"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

// ChatProcessor is what the HTTP layer needs from the orchestrator.
type ChatProcessor interface {
	Process(ctx context.Context, sessionID, message string) (string, error)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type Server struct {
	cfg      *config.Config
	app      *fiber.App
	tutorSvc ChatProcessor
	store    vecstore.Store
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	var store vecstore.Store
	if cfg.Vector.Enabled {
		store = do.MustInvoke[*vecstore.Client](di)
	}

	s := &Server{
		cfg:      cfg,
		tutorSvc: do.MustInvoke[*tutor.Service](di),
		store:    store,
	}
	s.app = s.buildApp()

	return s, nil
}

func (s *Server) buildApp() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Post("/chat", s.handleChat)
	app.Get("/health", s.handleHealth)

	return app
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no message provided",
		})
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = "default"
	}

	start := time.Now()

	response, err := s.tutorSvc.Process(c.UserContext(), sessionID, req.Message)
	if err != nil {
		slog.Error("Failed to process message",
			"session", sessionID,
			"error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	slog.Info("Processed message",
		"session", sessionID,
		"duration", time.Since(start))

	return c.JSON(fiber.Map{
		"response": response,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	result := fiber.Map{
		"status": "ok",
	}

	if s.store != nil {
		stats, err := s.store.CollectionStats(c.UserContext())
		if err != nil {
			slog.Warn("Failed to get collection stats", "error", err)
		} else {
			result["document_count"] = stats.DocumentCount
		}
	}

	return c.JSON(result)
}

// Run serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		if err := s.app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("HTTP server listening", "addr", s.cfg.Server.Addr)

	if err := s.app.Listen(s.cfg.Server.Addr); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (s *Server) Close() error {
	return nil
}
