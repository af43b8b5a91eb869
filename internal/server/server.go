// Package server exposes the screening workflow over HTTP.
//
// Each application is a session resource. A session is locked for the whole
// request, so one interaction runs to completion before the next one starts.
package server

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/logger"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/screening"
	"github.com/spigell/hr-screener/internal/workflow"
	"github.com/spigell/hr-screener/internal/zoom"
	"go.uber.org/zap"
)

const (
	appName              = "hr-screener"
	defaultMaxUploadSize = 10 << 20
)

type Config struct {
	// UploadDir keeps uploaded resumes until their session is reset. Defaults to the OS temp dir.
	UploadDir     string
	MaxUploadSize int
}

type Server struct {
	app       *fiber.App
	wf        *workflow.Workflow
	store     *store
	uploadDir string
	logger    *zap.Logger
}

// New returns a Server exposing the workflow over HTTP.
func New(wf *workflow.Workflow, cfg Config, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = defaultMaxUploadSize
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = os.TempDir()
	}

	s := &Server{
		wf:        wf,
		store:     newStore(),
		uploadDir: cfg.UploadDir,
		logger:    log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		BodyLimit:             cfg.MaxUploadSize + 1<<20,
		DisableStartupMessage: true,
		Immutable:             true,
		ErrorHandler:          s.errorHandler,
	})
	s.app.Use(recover.New())
	s.app.Use(s.accessLog)
	s.app.Use(healthcheck.New())

	s.routes()

	return s
}

func (s *Server) routes() {
	sessions := s.app.Group("/sessions")
	sessions.Post("/", s.createSession)
	sessions.Get("/:id", s.withSession(s.getSession))
	sessions.Delete("/:id", s.deleteSession)
	sessions.Post("/:id/resume", s.withSession(s.uploadResume))
	sessions.Post("/:id/extract", s.withSession(s.step(s.wf.Extract)))
	sessions.Post("/:id/evaluate", s.withSession(s.step(s.wf.Evaluate)))
	sessions.Post("/:id/notify", s.withSession(s.step(s.wf.Notify)))
	sessions.Post("/:id/schedule", s.withSession(s.step(s.wf.Schedule)))
	sessions.Post("/:id/process", s.withSession(s.step(s.wf.Process)))
	sessions.Post("/:id/reset", s.withSession(s.reset))

	s.app.Get("/roles", s.listRoles)
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type sessionView struct {
	ID               string             `json:"id"`
	ApplicationID    string             `json:"application_id,omitempty"`
	Stage            workflow.Stage     `json:"stage"`
	Done             bool               `json:"done"`
	CandidateEmail   string             `json:"candidate_email,omitempty"`
	Role             roles.ID           `json:"role,omitempty"`
	ResumeTextLength int                `json:"resume_text_length"`
	Verdict          *screening.Verdict `json:"verdict,omitempty"`
	Notified         bool               `json:"notified"`
	Meeting          *zoom.Meeting      `json:"meeting,omitempty"`
}

func view(sess *workflow.Session) sessionView {
	return sessionView{
		ID:               sess.ID,
		ApplicationID:    sess.ApplicationID,
		Stage:            sess.Stage,
		Done:             sess.Done(),
		CandidateEmail:   sess.CandidateEmail,
		Role:             sess.Role,
		ResumeTextLength: len(sess.ResumeText),
		Verdict:          sess.Verdict,
		Notified:         sess.Notified,
		Meeting:          sess.Meeting,
	}
}

type errorResponse struct {
	Error   string       `json:"error"`
	Kind    string       `json:"kind"`
	Session *sessionView `json:"session,omitempty"`
}

type handler func(c *fiber.Ctx, sess *workflow.Session) error

// withSession resolves :id and holds the session lock until the handler returns.
func (s *Server) withSession(h handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, ok := s.store.get(c.Params("id"))
		if !ok || !e.lock() {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		defer e.mu.Unlock()

		return h(c, e.session)
	}
}

func (s *Server) step(op func(ctx context.Context, sess *workflow.Session) error) handler {
	return func(c *fiber.Ctx, sess *workflow.Session) error {
		if err := op(c.UserContext(), sess); err != nil {
			return s.fail(c, sess, err)
		}
		return c.JSON(view(sess))
	}
}

func (s *Server) createSession(c *fiber.Ctx) error {
	e := s.store.create()
	s.logger.Debug("session created", zap.String(logger.FieldSession, e.session.ID))
	return c.Status(fiber.StatusCreated).JSON(view(e.session))
}

func (s *Server) getSession(c *fiber.Ctx, sess *workflow.Session) error {
	return c.JSON(view(sess))
}

func (s *Server) deleteSession(c *fiber.Ctx) error {
	id := c.Params("id")
	e, ok := s.store.get(id)
	if !ok || !e.lock() {
		return fiber.NewError(fiber.StatusNotFound, "session not found")
	}
	defer e.mu.Unlock()

	s.store.remove(id)
	e.removed = true
	s.wf.Reset(e.session)

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) reset(c *fiber.Ctx, sess *workflow.Session) error {
	s.wf.Reset(sess)
	return c.JSON(view(sess))
}

func (s *Server) uploadResume(c *fiber.Ctx, sess *workflow.Session) error {
	file, err := c.FormFile("resume")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "resume file is required")
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "resume must be a PDF file")
	}

	role, err := roles.Parse(c.FormValue("role"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	tmp, err := os.CreateTemp(s.uploadDir, "resume-*.pdf")
	if err != nil {
		return err
	}
	path := tmp.Name()
	tmp.Close()

	if err := c.SaveFile(file, path); err != nil {
		os.Remove(path)
		return err
	}

	in := workflow.UploadInput{
		Email:      c.FormValue("email"),
		Role:       role,
		ResumePath: path,
		Temporary:  true,
	}
	if err := s.wf.Upload(sess, in); err != nil {
		os.Remove(path)
		return s.fail(c, sess, err)
	}

	return c.JSON(view(sess))
}

func (s *Server) listRoles(c *fiber.Ctx) error {
	return c.JSON(roles.All())
}

// fail reports a workflow error along with the unchanged session.
func (s *Server) fail(c *fiber.Ctx, sess *workflow.Session, err error) error {
	v := view(sess)
	return c.Status(statusFor(err)).JSON(errorResponse{
		Error:   err.Error(),
		Kind:    kindOf(err),
		Session: &v,
	})
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	kind := "request"
	if code >= fiber.StatusInternalServerError {
		kind = "internal"
		s.logger.Error("request failed", zap.String("path", c.Path()), zap.Error(err))
	}

	return c.Status(code).JSON(errorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	s.logger.Debug("http request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("took", time.Since(start)),
	)

	return err
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		return fiber.StatusBadRequest
	case errors.Is(err, workflow.ErrInvalidStage), errors.Is(err, workflow.ErrAlreadyEvaluated):
		return fiber.StatusConflict
	case errors.Is(err, errs.ErrExtraction):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrEvaluation), errors.Is(err, errs.ErrNotification),
		errors.Is(err, errs.ErrScheduling), errors.Is(err, errs.ErrAuth):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func kindOf(err error) string {
	switch {
	case errors.Is(err, workflow.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, workflow.ErrInvalidStage), errors.Is(err, workflow.ErrAlreadyEvaluated):
		return "invalid_stage"
	default:
		return errs.Kind(err)
	}
}
