package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailRelay sends through the Gmail API using a previously authorised OAuth token.
type GmailRelay struct {
	service *gmail.Service
	sender  string
}

type GmailConfig struct {
	CredentialsFile string
	TokenFile       string
	Sender          string
	Timeout         time.Duration
}

// NewGmailRelay builds a Gmail API relay from OAuth client credentials and a stored token.
func NewGmailRelay(ctx context.Context, cfg GmailConfig) (*GmailRelay, error) {
	if strings.TrimSpace(cfg.Sender) == "" {
		return nil, errors.New("gmail relay needs a sender address")
	}

	b, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read gmail client credentials: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("parse gmail client credentials: %w", err)
	}

	tok, err := tokenFromFile(cfg.TokenFile)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultMailTimeout
	}
	base := &http.Client{Timeout: timeout}
	client := config.Client(context.WithValue(ctx, oauth2.HTTPClient, base), tok)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &GmailRelay{service: srv, sender: strings.TrimSpace(cfg.Sender)}, nil
}

func (r *GmailRelay) Send(ctx context.Context, msg Message) error {
	raw, err := encodeRaw(r.sender, msg)
	if err != nil {
		return err
	}

	if _, err := r.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send via gmail api: %w", err)
	}

	return nil
}

// encodeRaw renders the message as RFC 5322 and encodes it the way the Gmail API expects.
func encodeRaw(sender string, msg Message) (string, error) {
	m, err := buildMessage(sender, msg)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("render message: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gmail token file: %w", err)
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decode gmail token file: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("gmail token file %q holds no token", path)
	}

	return tok, nil
}
