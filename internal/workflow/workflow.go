// Package workflow drives an application from resume upload to a scheduled interview.
//
// The Workflow holds the components and applies one operation at a time to an
// explicit Session. A failed operation leaves the session as it was, so the
// same step can be retried. Callers serialize operations on a session.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spigell/hr-screener/internal/history"
	"github.com/spigell/hr-screener/internal/logger"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/screening"
	"github.com/spigell/hr-screener/internal/zoom"
	"go.uber.org/zap"
)

var (
	ErrInvalidStage     = errors.New("operation is not allowed at this stage")
	ErrAlreadyEvaluated = errors.New("resume has already been evaluated")
	ErrInvalidInput     = errors.New("invalid application input")
)

type Extractor interface {
	ExtractPDF(path string) (string, error)
}

type Evaluator interface {
	Evaluate(ctx context.Context, resumeText string, role roles.ID) (*screening.Verdict, error)
}

type Notifier interface {
	SendRejection(ctx context.Context, to string, role roles.ID, feedback string) error
	SendAcceptance(ctx context.Context, to string, role roles.ID) error
	SendInterviewDetails(ctx context.Context, to string, role roles.ID, meeting *zoom.Meeting) error
}

type Scheduler interface {
	Schedule(ctx context.Context, candidateEmail string, role roles.ID) (*zoom.Meeting, error)
}

type Recorder interface {
	Append(r history.Record) error
}

type Deps struct {
	Extractor Extractor
	Evaluator Evaluator
	Notifier  Notifier
	Scheduler Scheduler
	// Recorder is optional.
	Recorder Recorder
}

type Workflow struct {
	extractor Extractor
	evaluator Evaluator
	notifier  Notifier
	scheduler Scheduler
	recorder  Recorder
	now       func() time.Time
	logger    *zap.Logger
}

// New validates the required components and returns a Workflow.
func New(deps Deps, log *zap.Logger) (*Workflow, error) {
	var missing []string
	if deps.Extractor == nil {
		missing = append(missing, "extractor")
	}
	if deps.Evaluator == nil {
		missing = append(missing, "evaluator")
	}
	if deps.Notifier == nil {
		missing = append(missing, "notifier")
	}
	if deps.Scheduler == nil {
		missing = append(missing, "scheduler")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("workflow is missing: %s", strings.Join(missing, ", "))
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &Workflow{
		extractor: deps.Extractor,
		evaluator: deps.Evaluator,
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		recorder:  deps.Recorder,
		now:       time.Now,
		logger:    log,
	}, nil
}

type UploadInput struct {
	Email      string
	Role       roles.ID
	ResumePath string
	// Temporary marks a resume file owned by the session; it is removed on reset.
	Temporary bool
}

// Upload attaches the candidate and the resume file to the session.
// A resume can be replaced until it has been evaluated.
func (w *Workflow) Upload(s *Session, in UploadInput) error {
	if err := s.expect("upload a resume", StageEmpty, StageResumeUploaded, StageTextExtracted); err != nil {
		return err
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return fmt.Errorf("%w: candidate email %q: %w", ErrInvalidInput, in.Email, err)
	}

	if !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	if strings.TrimSpace(in.ResumePath) == "" {
		return fmt.Errorf("%w: resume file is required", ErrInvalidInput)
	}

	if s.temporary && s.ResumeFile != in.ResumePath {
		removeResume(s.ResumeFile)
	}

	// A re-upload before the decision stays the same application.
	if s.ApplicationID == "" {
		s.ApplicationID = uuid.NewString()
	}
	s.CandidateEmail = addr.Address
	s.Role = in.Role
	s.ResumeFile = in.ResumePath
	s.temporary = in.Temporary
	s.ResumeText = ""
	s.Stage = StageResumeUploaded

	w.sessionLogger(s).Info("resume uploaded")

	return nil
}

// Extract reads the resume text. The workflow halts here on unreadable files.
func (w *Workflow) Extract(_ context.Context, s *Session) error {
	if err := s.expect("extract text", StageResumeUploaded); err != nil {
		return err
	}

	text, err := w.extractor.ExtractPDF(s.ResumeFile)
	if err != nil {
		w.sessionLogger(s).Warn("resume text extraction failed", zap.Error(err))
		return err
	}

	s.ResumeText = text
	s.Stage = StageTextExtracted

	w.sessionLogger(s).Info("resume text extracted", zap.Int("length", len(text)))

	return nil
}

// Evaluate screens the resume. A session is evaluated at most once until reset.
func (w *Workflow) Evaluate(ctx context.Context, s *Session) error {
	if s.Verdict != nil {
		return ErrAlreadyEvaluated
	}
	if err := s.expect("evaluate", StageTextExtracted); err != nil {
		return err
	}

	verdict, err := w.evaluator.Evaluate(ctx, s.ResumeText, s.Role)
	if err != nil {
		w.sessionLogger(s).Warn("evaluation failed", zap.Error(err))
		return err
	}

	s.Verdict = verdict
	s.Stage = StageRejected
	if verdict.Selected {
		s.Stage = StageAccepted
	}

	w.sessionLogger(s).Info("resume screened", zap.String("stage", string(s.Stage)))

	return nil
}

// Notify emails the decision. It never sends a second email for the same verdict.
func (w *Workflow) Notify(ctx context.Context, s *Session) error {
	if s.Notified {
		return nil
	}
	if err := s.expect("notify", StageRejected, StageAccepted); err != nil {
		return err
	}

	log := w.sessionLogger(s)

	var err error
	if s.Verdict.Selected {
		err = w.notifier.SendAcceptance(ctx, s.CandidateEmail, s.Role)
	} else {
		err = w.notifier.SendRejection(ctx, s.CandidateEmail, s.Role, s.Verdict.Feedback)
	}
	if err != nil {
		return err
	}

	s.Notified = true
	s.Stage = StageNotified
	log.Info("candidate notified", zap.Bool("selected", s.Verdict.Selected))

	if !s.Verdict.Selected {
		w.record(s)
	}

	return nil
}

// Schedule books the interview of a notified, accepted candidate.
func (w *Workflow) Schedule(ctx context.Context, s *Session) error {
	if s.Verdict == nil || !s.Verdict.Selected {
		return fmt.Errorf("%w: only accepted candidates are scheduled", ErrInvalidStage)
	}
	if err := s.expect("schedule", StageNotified); err != nil {
		return err
	}

	log := w.sessionLogger(s)

	meeting, err := w.scheduler.Schedule(ctx, s.CandidateEmail, s.Role)
	if err != nil {
		log.Warn("interview scheduling failed", zap.Error(err))
		return err
	}

	s.Meeting = meeting
	s.Stage = StageScheduled

	if err := w.notifier.SendInterviewDetails(ctx, s.CandidateEmail, s.Role, meeting); err != nil {
		log.Warn("interview details were not sent", zap.Error(err))
	}

	w.record(s)

	return nil
}

// Process runs every remaining stage in order and stops at the first failure.
func (w *Workflow) Process(ctx context.Context, s *Session) error {
	for !s.Done() {
		var err error
		switch s.Stage {
		case StageResumeUploaded:
			err = w.Extract(ctx, s)
		case StageTextExtracted:
			err = w.Evaluate(ctx, s)
		case StageRejected, StageAccepted:
			err = w.Notify(ctx, s)
		case StageNotified:
			err = w.Schedule(ctx, s)
		default:
			err = s.expect("process", StageResumeUploaded)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Reset starts a new application in the same session, from any stage.
func (w *Workflow) Reset(s *Session) {
	if s.temporary {
		removeResume(s.ResumeFile)
	}
	*s = Session{ID: s.ID, Stage: StageEmpty}

	w.logger.Debug("session reset", zap.String(logger.FieldSession, s.ID))
}

func (w *Workflow) record(s *Session) {
	if w.recorder == nil {
		return
	}

	r := history.Record{
		SessionID:       s.ID,
		ApplicationID:   s.ApplicationID,
		Email:           s.CandidateEmail,
		Role:            string(s.Role),
		Selected:        s.Verdict.Selected,
		ExperienceLevel: string(s.Verdict.ExperienceLevel),
		Feedback:        s.Verdict.Feedback,
		DecidedAt:       w.now(),
	}
	if s.Meeting != nil {
		r.MeetingID = s.Meeting.ID
		r.JoinURL = s.Meeting.JoinURL
	}

	if err := w.recorder.Append(r); err != nil {
		w.sessionLogger(s).Warn("decision was not written to history", zap.Error(err))
	}
}

func (w *Workflow) sessionLogger(s *Session) *zap.Logger {
	return logger.WithFields(w.logger, logger.CandidateFields(s.ID, s.CandidateEmail, string(s.Role))...)
}

func removeResume(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
