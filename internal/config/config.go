// Package config holds operator settings and checks them before any workflow starts.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/spigell/hr-screener/internal/ai"
	"github.com/spigell/hr-screener/internal/ai/gemini"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/scheduling"
	"github.com/spigell/hr-screener/internal/secrets"
)

const (
	EnvPrefix = "HR_SCREENER"

	RelaySMTP  = "smtp"
	RelayGmail = "gmail"
)

type Config struct {
	CompanyName string       `mapstructure:"company-name"`
	LLM         LLMConfig    `mapstructure:"llm"`
	Zoom        ZoomConfig   `mapstructure:"zoom"`
	Mail        MailConfig   `mapstructure:"mail"`
	HistoryFile string       `mapstructure:"history-file"`
	Timeouts    Timeouts     `mapstructure:"timeouts"`
	Server      ServerConfig `mapstructure:"server"`
}

type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	BaseURL      string `mapstructure:"base-url"`
	Backend      string `mapstructure:"backend"`
	Project      string `mapstructure:"project"`
	Location     string `mapstructure:"location"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type ZoomConfig struct {
	AccountID        string `mapstructure:"account-id"`
	ClientID         string `mapstructure:"client-id"`
	ClientSecret     string `mapstructure:"client-secret"`
	ClientSecretFile string `mapstructure:"client-secret-file"`
	Timezone         string `mapstructure:"timezone"`
	APIURL           string `mapstructure:"api-url"`
	TokenURL         string `mapstructure:"token-url"`
}

type MailConfig struct {
	Relay                string `mapstructure:"relay"`
	Sender               string `mapstructure:"sender"`
	AppPassword          string `mapstructure:"app-password"`
	AppPasswordFile      string `mapstructure:"app-password-file"`
	SMTPHost             string `mapstructure:"smtp-host"`
	SMTPPort             int    `mapstructure:"smtp-port"`
	GmailCredentialsFile string `mapstructure:"gmail-credentials-file"`
	GmailTokenFile       string `mapstructure:"gmail-token-file"`
}

type Timeouts struct {
	LLM  time.Duration `mapstructure:"llm"`
	Mail time.Duration `mapstructure:"mail"`
	Zoom time.Duration `mapstructure:"zoom"`
}

type ServerConfig struct {
	Listen        string `mapstructure:"listen"`
	UploadDir     string `mapstructure:"upload-dir"`
	MaxUploadSize int    `mapstructure:"max-upload-size"`
}

// Secrets are the resolved credentials. They are kept in memory only.
type Secrets struct {
	LLMAPIKey        string
	ZoomClientSecret string
	MailAppPassword  string
}

var defaults = map[string]any{
	"company-name":                "",
	"llm.provider":                ai.ProviderOpenAI,
	"llm.api-key":                 "",
	"llm.api-key-file":            "",
	"llm.model":                   "",
	"llm.base-url":                "",
	"llm.backend":                 gemini.BackendGeminiAPI,
	"llm.project":                 "",
	"llm.location":                "",
	"llm.max-retries":             3,
	"llm.max-log-length":          200,
	"zoom.account-id":             "",
	"zoom.client-id":              "",
	"zoom.client-secret":          "",
	"zoom.client-secret-file":     "",
	"zoom.timezone":               scheduling.DefaultTimezone,
	"zoom.api-url":                "",
	"zoom.token-url":              "",
	"mail.relay":                  RelaySMTP,
	"mail.sender":                 "",
	"mail.app-password":           "",
	"mail.app-password-file":      "",
	"mail.smtp-host":              "",
	"mail.smtp-port":              0,
	"mail.gmail-credentials-file": "credentials.json",
	"mail.gmail-token-file":       "token.json",
	"history-file":                "",
	"timeouts.llm":                "90s",
	"timeouts.mail":               "30s",
	"timeouts.zoom":               "15s",
	"server.listen":               ":8080",
	"server.upload-dir":           "",
	"server.max-upload-size":      10 << 20,
}

// SetDefaults registers every key so each one can also be set from the environment,
// e.g. HR_SCREENER_ZOOM_CLIENT_SECRET.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// Load reads the settings held by v into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrConfiguration, err)
	}
	return &cfg, nil
}

// Validate checks that everything a workflow needs is present and resolves the secrets.
// Every problem is reported at once in an error wrapping errs.ErrConfiguration.
func (c *Config) Validate() (*Secrets, error) {
	var problems []string
	missing := func(item string) { problems = append(problems, "missing "+item) }

	resolve := func(item string, src secrets.Source) string {
		value, err := secrets.Load(src)
		switch {
		case errors.Is(err, secrets.ErrNotConfigured):
			missing(item)
		case err != nil:
			problems = append(problems, err.Error())
		}
		return value
	}

	out := &Secrets{}

	if strings.TrimSpace(c.CompanyName) == "" {
		missing("company name")
	}

	switch c.LLM.Provider {
	case ai.ProviderOpenAI:
		out.LLMAPIKey = resolve("LLM API key", secrets.Source{Name: "llm api key", Value: c.LLM.APIKey, File: c.LLM.APIKeyFile})
	case ai.ProviderGemini:
		if c.LLM.Backend == gemini.BackendVertexAI {
			if strings.TrimSpace(c.LLM.Project) == "" {
				missing("Vertex AI project")
			}
		} else {
			out.LLMAPIKey = resolve("LLM API key", secrets.Source{Name: "llm api key", Value: c.LLM.APIKey, File: c.LLM.APIKeyFile})
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported llm provider %q", c.LLM.Provider))
	}

	if strings.TrimSpace(c.Zoom.AccountID) == "" {
		missing("Zoom account id")
	}
	if strings.TrimSpace(c.Zoom.ClientID) == "" {
		missing("Zoom client id")
	}
	out.ZoomClientSecret = resolve("Zoom client secret", secrets.Source{Name: "zoom client secret", Value: c.Zoom.ClientSecret, File: c.Zoom.ClientSecretFile})

	if _, err := scheduling.LoadLocation(c.Zoom.Timezone); err != nil {
		problems = append(problems, err.Error())
	}

	if strings.TrimSpace(c.Mail.Sender) == "" {
		missing("sender email")
	}

	switch c.Mail.Relay {
	case RelaySMTP:
		out.MailAppPassword = resolve("sender app password", secrets.Source{Name: "mail app password", Value: c.Mail.AppPassword, File: c.Mail.AppPasswordFile})
	case RelayGmail:
		if strings.TrimSpace(c.Mail.GmailCredentialsFile) == "" {
			missing("Gmail credentials file")
		}
		if strings.TrimSpace(c.Mail.GmailTokenFile) == "" {
			missing("Gmail token file")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported mail relay %q", c.Mail.Relay))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrConfiguration, strings.Join(problems, "; "))
	}

	return out, nil
}
