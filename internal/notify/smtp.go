package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

const (
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587

	defaultMailTimeout = 30 * time.Second
)

// SMTPRelay sends through an SMTP server with STARTTLS and an app password.
type SMTPRelay struct {
	host     string
	port     int
	sender   string
	password string
	timeout  time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
	Timeout  time.Duration
}

// NewSMTPRelay returns a relay that logs in as the sender over mandatory TLS.
func NewSMTPRelay(cfg SMTPConfig) (*SMTPRelay, error) {
	if strings.TrimSpace(cfg.Sender) == "" || cfg.Password == "" {
		return nil, errors.New("smtp relay needs a sender address and an app password")
	}

	r := &SMTPRelay{
		host:     cfg.Host,
		port:     cfg.Port,
		sender:   strings.TrimSpace(cfg.Sender),
		password: cfg.Password,
		timeout:  cfg.Timeout,
	}
	if r.host == "" {
		r.host = DefaultSMTPHost
	}
	if r.port <= 0 {
		r.port = DefaultSMTPPort
	}
	if r.timeout <= 0 {
		r.timeout = defaultMailTimeout
	}

	return r, nil
}

func (r *SMTPRelay) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(r.sender, msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(r.host,
		mail.WithPort(r.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(r.sender),
		mail.WithPassword(r.password),
		mail.WithTimeout(r.timeout),
	)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send via %s: %w", r.host, err)
	}

	return nil
}

func buildMessage(sender string, msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(sender); err != nil {
		return nil, fmt.Errorf("sender address %q: %w", sender, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	return m, nil
}
