package zoom

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Scheduled meeting type of the Zoom API.
const scheduledMeeting = 2

// MeetingRequest describes the meeting to create. StartTime is local to Timezone.
type MeetingRequest struct {
	Topic     string
	Agenda    string
	StartTime string
	Duration  int
	Timezone  string
	Invitees  []string
}

type invitee struct {
	Email string `json:"email"`
}

type meetingSettings struct {
	WaitingRoom     bool      `json:"waiting_room"`
	JoinBeforeHost  bool      `json:"join_before_host"`
	MeetingInvitees []invitee `json:"meeting_invitees,omitempty"`
}

type meetingBody struct {
	Topic     string          `json:"topic"`
	Type      int             `json:"type"`
	StartTime string          `json:"start_time"`
	Duration  int             `json:"duration"`
	Timezone  string          `json:"timezone"`
	Agenda    string          `json:"agenda,omitempty"`
	Settings  meetingSettings `json:"settings"`
}

func (r MeetingRequest) body() meetingBody {
	b := meetingBody{
		Topic:     r.Topic,
		Type:      scheduledMeeting,
		StartTime: r.StartTime,
		Duration:  r.Duration,
		Timezone:  r.Timezone,
		Agenda:    r.Agenda,
		Settings:  meetingSettings{WaitingRoom: true},
	}
	for _, email := range r.Invitees {
		b.Settings.MeetingInvitees = append(b.Settings.MeetingInvitees, invitee{Email: email})
	}
	return b
}

// Meeting is the part of a created meeting the rest of the program cares about.
type Meeting struct {
	ID        int64  `json:"id" mapstructure:"id"`
	Topic     string `json:"topic" mapstructure:"topic"`
	StartTime string `json:"start_time" mapstructure:"start_time"`
	Timezone  string `json:"timezone" mapstructure:"timezone"`
	Duration  int    `json:"duration" mapstructure:"duration"`
	JoinURL   string `json:"join_url" mapstructure:"join_url"`
	StartURL  string `json:"start_url" mapstructure:"start_url"`
	Password  string `json:"password" mapstructure:"password"`
}

func decodeMeeting(data map[string]any) (*Meeting, error) {
	var meeting Meeting

	cfg := &mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &meeting,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode meeting: %w", err)
	}

	return &meeting, nil
}
