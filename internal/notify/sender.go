// Package notify emails candidates about the outcome of their screening.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"
	"time"
	_ "time/tzdata"

	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/logger"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/zoom"
	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	rejectionTemplate  = "rejection.tmpl"
	acceptanceTemplate = "acceptance.tmpl"
	interviewTemplate  = "interview.tmpl"
)

// Message is a plain-text email ready to be relayed.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Relay delivers a message. Implementations do not retry.
type Relay interface {
	Send(ctx context.Context, msg Message) error
}

type templateData struct {
	Company  string
	Role     string
	Feedback string
	Timezone string
	When     string
	Meeting  *zoom.Meeting
}

const (
	whenLayout = "Monday, 2 January 2006 at 15:04"

	// Zoom echoes a zone-less local time when the meeting was created with a timezone.
	localLayout = "2006-01-02T15:04:05"
)

// localStartTime renders the meeting start as wall-clock time of the meeting timezone.
// Zoom usually answers with UTC ("...Z"); the raw value is kept when it cannot be parsed.
func localStartTime(meeting *zoom.Meeting) string {
	raw := strings.TrimSpace(meeting.StartTime)

	loc := time.UTC
	if meeting.Timezone != "" {
		l, err := time.LoadLocation(meeting.Timezone)
		if err != nil {
			return raw
		}
		loc = l
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.In(loc).Format(whenLayout)
	}
	if t, err := time.ParseInLocation(localLayout, raw, loc); err == nil {
		return t.Format(whenLayout)
	}

	return raw
}

type Sender struct {
	relay     Relay
	company   string
	templates map[string]*template.Template
	logger    *zap.Logger
}

// NewSender returns a Sender signing emails with the company name.
func NewSender(relay Relay, company string, logger *zap.Logger) (*Sender, error) {
	if relay == nil {
		return nil, errors.New("mail relay is required")
	}
	if strings.TrimSpace(company) == "" {
		return nil, errors.New("company name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{rejectionTemplate, acceptanceTemplate, interviewTemplate} {
		tmpl, err := template.New(name).Option("missingkey=error").ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}

	return &Sender{
		relay:     relay,
		company:   strings.TrimSpace(company),
		templates: templates,
		logger:    logger,
	}, nil
}

// SendRejection tells the candidate they were not selected, quoting the screening feedback.
func (s *Sender) SendRejection(ctx context.Context, to string, role roles.ID, feedback string) error {
	return s.send(ctx, rejectionTemplate, to, role, templateData{Feedback: strings.TrimSpace(feedback)})
}

// SendAcceptance tells the candidate they were shortlisted for an interview.
func (s *Sender) SendAcceptance(ctx context.Context, to string, role roles.ID) error {
	return s.send(ctx, acceptanceTemplate, to, role, templateData{})
}

// SendInterviewDetails sends the meeting link and time of a scheduled interview.
func (s *Sender) SendInterviewDetails(ctx context.Context, to string, role roles.ID, meeting *zoom.Meeting) error {
	if meeting == nil {
		return fmt.Errorf("%w: no meeting to announce", errs.ErrNotification)
	}
	return s.send(ctx, interviewTemplate, to, role, templateData{
		Meeting:  meeting,
		Timezone: meeting.Timezone,
		When:     localStartTime(meeting),
	})
}

func (s *Sender) send(ctx context.Context, name, to string, role roles.ID, data templateData) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("%w: recipient address is empty", errs.ErrNotification)
	}

	data.Company = s.company
	data.Role = role.Title()

	msg, err := s.render(name, to, data)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrNotification, err)
	}

	log := logger.WithFields(s.logger, logger.CandidateFields("", to, string(role))...)

	if err := s.relay.Send(ctx, msg); err != nil {
		log.Warn("email was not sent", zap.String("template", name), zap.Error(err))
		return fmt.Errorf("%w: %w", errs.ErrNotification, err)
	}

	log.Info("email sent", zap.String("template", name))

	return nil
}

func (s *Sender) render(name, to string, data templateData) (Message, error) {
	tmpl := s.templates[name]

	var subject, body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return Message{}, fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := tmpl.ExecuteTemplate(&body, "body", data); err != nil {
		return Message{}, fmt.Errorf("render %s body: %w", name, err)
	}

	return Message{
		To:      to,
		Subject: strings.TrimSpace(subject.String()),
		Body:    body.String(),
	}, nil
}
