// Package zoom creates meetings through the Zoom REST API.
package zoom

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	DefaultAPIURL  = "https://api.zoom.us/v2"
	defaultTimeout = 15 * time.Second
	userAgent      = "spigell/hr-screener"
)

// ErrUnauthorized is returned when Zoom rejects the bearer token.
var ErrUnauthorized = errors.New("zoom rejected the access token")

// Client talks to the Zoom REST API with a caller-supplied bearer token.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// New returns a Client for apiURL, or the public Zoom API when apiURL is empty.
func New(logger *zap.Logger, apiURL string, timeout time.Duration) *Client {
	if apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/"); apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http: resty.New().
			SetBaseURL(apiURL).
			SetTimeout(timeout).
			SetHeader("User-Agent", userAgent),
		logger: logger,
	}
}

// CreateMeeting schedules a meeting on behalf of the account owner.
func (c *Client) CreateMeeting(ctx context.Context, token string, req MeetingRequest) (*Meeting, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("zoom access token is empty")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(req.body()).
		Post("/users/me/meetings")
	if err != nil {
		return nil, fmt.Errorf("create meeting request: %w", err)
	}

	body := resp.Body()
	switch {
	case resp.StatusCode() == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, gjson.GetBytes(body, "message").String())
	case resp.IsError():
		return nil, fmt.Errorf("create meeting: bad status: %s: %s", resp.Status(), gjson.GetBytes(body, "message").String())
	}

	var data map[string]any
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		return nil, fmt.Errorf("parse meeting response: %w", err)
	}

	meeting, err := decodeMeeting(data)
	if err != nil {
		return nil, err
	}

	if meeting.JoinURL == "" {
		return nil, errors.New("meeting response has no join_url")
	}

	c.logger.Debug("zoom meeting created",
		zap.Int64("meeting_id", meeting.ID),
		zap.String("start_time", meeting.StartTime),
	)

	return meeting, nil
}
