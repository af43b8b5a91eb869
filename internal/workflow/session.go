package workflow

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/screening"
	"github.com/spigell/hr-screener/internal/zoom"
)

type Stage string

const (
	StageEmpty          Stage = "empty"
	StageResumeUploaded Stage = "resume_uploaded"
	StageTextExtracted  Stage = "text_extracted"
	StageRejected       Stage = "evaluated_rejected"
	StageAccepted       Stage = "evaluated_accepted"
	StageNotified       Stage = "notified"
	StageScheduled      Stage = "interview_scheduled"
)

// Session is one candidate application moving through the stages.
type Session struct {
	ID             string             `json:"id"`
	ApplicationID  string             `json:"application_id,omitempty"`
	Stage          Stage              `json:"stage"`
	CandidateEmail string             `json:"candidate_email,omitempty"`
	Role           roles.ID           `json:"role,omitempty"`
	ResumeFile     string             `json:"resume_file,omitempty"`
	ResumeText     string             `json:"-"`
	Verdict        *screening.Verdict `json:"verdict,omitempty"`
	Notified       bool               `json:"notified"`
	Meeting        *zoom.Meeting      `json:"meeting,omitempty"`

	// Uploaded resumes stored in a temporary file are removed on reset.
	temporary bool
}

// NewSession returns an empty session with a fresh id.
func NewSession() *Session {
	return &Session{ID: uuid.NewString(), Stage: StageEmpty}
}

// Done reports whether nothing is left to do for the application.
func (s *Session) Done() bool {
	switch s.Stage {
	case StageScheduled:
		return true
	case StageNotified:
		return s.Verdict != nil && !s.Verdict.Selected
	default:
		return false
	}
}

func (s *Session) expect(op string, stages ...Stage) error {
	if slices.Contains(stages, s.Stage) {
		return nil
	}
	return fmt.Errorf("%w: cannot %s at stage %s", ErrInvalidStage, op, s.Stage)
}
