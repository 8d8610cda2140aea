// Package api implements the REST API for scanning, parsing and evaluating
// source and for browsing the evaluation history.
package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/lemonberrylabs/loxide/pkg/diag"
	"github.com/lemonberrylabs/loxide/pkg/scanner"
	"github.com/lemonberrylabs/loxide/pkg/service"
	"github.com/lemonberrylabs/loxide/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	app *fiber.App
	svc *service.Service
	log *zap.Logger
}

// New creates a new API server.
func New(svc *service.Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	srv := &Server{svc: svc, log: log}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	app.Use(srv.logRequests)

	app.Get("/healthz", srv.health)

	// Pipeline stages
	app.Post("/v1/scan", srv.scan)
	app.Post("/v1/parse", srv.parse)

	// Evaluations
	app.Post("/v1/evaluations", srv.createEvaluation)
	app.Get("/v1/evaluations", srv.listEvaluations)
	app.Get("/v1/evaluations/:id", srv.getEvaluation)
	app.Delete("/v1/evaluations/:id", srv.deleteEvaluation)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Info("request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("took", time.Since(start)))
	return err
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type sourceRequest struct {
	Source string `json:"source"`
	Expect string `json:"expect"`
}

func (s *Server) bind(c *fiber.Ctx) (*sourceRequest, error) {
	var req sourceRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fmt.Errorf("%w: invalid request body: %v", service.ErrInvalidArgument, err)
	}
	return &req, nil
}

// --- Pipeline Handlers ---

func (s *Server) scan(c *fiber.Ctx) error {
	req, err := s.bind(c)
	if err != nil {
		return s.fail(c, err)
	}
	toks, err := s.svc.Scan(req.Source)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"tokens": toks})
}

func (s *Server) parse(c *fiber.Ctx) error {
	req, err := s.bind(c)
	if err != nil {
		return s.fail(c, err)
	}
	units, err := s.svc.Parse(req.Source)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"units": units})
}

// --- Evaluation Handlers ---

func (s *Server) createEvaluation(c *fiber.Ctx) error {
	req, err := s.bind(c)
	if err != nil {
		return s.fail(c, err)
	}
	ev, err := s.svc.Evaluate(c.UserContext(), req.Source, req.Expect)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(ev)
}

func (s *Server) listEvaluations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return s.fail(c, fmt.Errorf("%w: limit must not be negative", service.ErrInvalidArgument))
	}
	return c.JSON(fiber.Map{"evaluations": s.svc.List(limit)})
}

func (s *Server) getEvaluation(c *fiber.Ctx) error {
	ev, err := s.svc.Get(c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(ev)
}

func (s *Server) deleteEvaluation(c *fiber.Ctx) error {
	if err := s.svc.Delete(c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{})
}

// --- Helpers ---

// fail writes err in the standard error envelope:
// {"error": {"code", "message", "status", "details"}}.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	code, status := fiber.StatusInternalServerError, "INTERNAL"
	var details []store.ErrorRecord

	var list scanner.ErrorList
	switch {
	case errors.Is(err, store.ErrNotFound):
		code, status = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrSourceTooLarge):
		code, status = fiber.StatusRequestEntityTooLarge, "RESOURCE_EXHAUSTED"
	case errors.Is(err, service.ErrInvalidArgument):
		code, status = fiber.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.As(err, &list):
		code, status = fiber.StatusBadRequest, "INVALID_ARGUMENT"
		for _, e := range diag.Flatten(list) {
			details = append(details, store.NewErrorRecord(e))
		}
	default:
		s.log.Error("request failed", zap.Error(err))
	}

	body := fiber.Map{
		"code":    code,
		"message": err.Error(),
		"status":  status,
	}
	if len(details) > 0 {
		body["details"] = details
	}
	return c.Status(code).JSON(fiber.Map{"error": body})
}
