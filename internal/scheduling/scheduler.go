// Package scheduling books the technical interview of an accepted candidate.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/hr-screener/internal/auth"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/logger"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/zoom"
	"go.uber.org/zap"
)

const interviewDuration = 60

// TokenSource hands out Zoom access tokens. Invalidate drops a token Zoom rejected.
type TokenSource interface {
	Token(ctx context.Context) (auth.Token, error)
	Invalidate()
}

// MeetingCreator books a meeting with a bearer token.
type MeetingCreator interface {
	CreateMeeting(ctx context.Context, token string, req zoom.MeetingRequest) (*zoom.Meeting, error)
}

// Scheduler books interviews at the next slot in its timezone.
type Scheduler struct {
	tokens   TokenSource
	meetings MeetingCreator
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New returns a Scheduler for loc, which defaults to Asia/Kolkata when nil.
func New(tokens TokenSource, meetings MeetingCreator, loc *time.Location, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if tokens == nil || meetings == nil {
		return nil, errors.New("scheduler needs a token source and a meeting client")
	}
	if loc == nil {
		var err error
		if loc, err = LoadLocation(DefaultTimezone); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Scheduler{
		tokens:   tokens,
		meetings: meetings,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Schedule creates the interview meeting for the candidate.
// Errors wrap errs.ErrScheduling, and additionally errs.ErrAuth when no token could be obtained.
func (s *Scheduler) Schedule(ctx context.Context, candidateEmail string, role roles.ID) (*zoom.Meeting, error) {
	log := logger.WithFields(s.logger, logger.CandidateFields("", candidateEmail, string(role))...)

	start := NextSlot(s.now(), s.loc)
	req := zoom.MeetingRequest{
		Topic:     role.Title() + " Technical Interview",
		Agenda:    fmt.Sprintf("Technical interview for the %s position", role.Title()),
		StartTime: start.Format(startTimeLayout),
		Duration:  interviewDuration,
		Timezone:  s.loc.String(),
		Invitees:  []string{candidateEmail},
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrScheduling, err)
	}

	meeting, err := s.meetings.CreateMeeting(ctx, token.Value, req)
	if errors.Is(err, zoom.ErrUnauthorized) {
		log.Warn("zoom rejected cached token, refreshing")
		s.tokens.Invalidate()

		token, err = s.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errs.ErrScheduling, err)
		}
		meeting, err = s.meetings.CreateMeeting(ctx, token.Value, req)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrScheduling, err)
	}

	log.Info("interview scheduled",
		zap.String("start_time", req.StartTime),
		zap.String("timezone", req.Timezone),
		zap.Int64("meeting_id", meeting.ID),
	)

	return meeting, nil
}
