package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/viper"
	"github.com/spigell/hr-screener/internal/ai"
	"github.com/spigell/hr-screener/internal/ai/gemini"
	"github.com/spigell/hr-screener/internal/ai/openai"
	"github.com/spigell/hr-screener/internal/auth"
	"github.com/spigell/hr-screener/internal/config"
	"github.com/spigell/hr-screener/internal/document"
	"github.com/spigell/hr-screener/internal/history"
	"github.com/spigell/hr-screener/internal/logger"
	"github.com/spigell/hr-screener/internal/notify"
	"github.com/spigell/hr-screener/internal/scheduling"
	"github.com/spigell/hr-screener/internal/screening"
	"github.com/spigell/hr-screener/internal/workflow"
	"github.com/spigell/hr-screener/internal/zoom"
	"go.uber.org/zap"
)

// application is everything a workflow command needs, built from a validated config.
type application struct {
	config   *config.Config
	logger   *zap.Logger
	workflow *workflow.Workflow
	ledger   *history.Ledger
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// newApplication refuses to build anything when the configuration is incomplete.
func newApplication(ctx context.Context, log *zap.Logger) (*application, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}

	creds, err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(ctx, cfg, creds, log)
	if err != nil {
		return nil, err
	}

	evaluator := screening.NewEvaluator(generator, cfg.LLM.MaxLogLength,
		logger.Named(logger.WithCommonFields(log, cfg.LLM.Provider, generator.Model()), "screening"))

	relay, err := newRelay(ctx, cfg, creds)
	if err != nil {
		return nil, err
	}

	sender, err := notify.NewSender(relay, cfg.CompanyName, logger.Named(log, "notify"))
	if err != nil {
		return nil, err
	}

	loc, err := scheduling.LoadLocation(cfg.Zoom.Timezone)
	if err != nil {
		return nil, err
	}

	tokenOpts := []auth.Option{
		auth.WithTimeout(cfg.Timeouts.Zoom),
		auth.WithLogger(logger.Named(log, "auth")),
	}
	if cfg.Zoom.TokenURL != "" {
		tokenOpts = append(tokenOpts, auth.WithTokenURL(cfg.Zoom.TokenURL))
	}
	tokens := auth.NewCache(auth.Credentials{
		AccountID:    cfg.Zoom.AccountID,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: creds.ZoomClientSecret,
	}, tokenOpts...)

	meetings := zoom.New(logger.Named(log, "zoom"), cfg.Zoom.APIURL, cfg.Timeouts.Zoom)

	scheduler, err := scheduling.New(tokens, meetings, loc, logger.Named(log, "scheduling"))
	if err != nil {
		return nil, err
	}

	ledger := history.NewLedger(cfg.HistoryFile)

	deps := workflow.Deps{
		Extractor: document.NewExtractor(logger.Named(log, "document")),
		Evaluator: evaluator,
		Notifier:  sender,
		Scheduler: scheduler,
	}
	if ledger.Enabled() {
		deps.Recorder = ledger
	}

	wf, err := workflow.New(deps, logger.Named(log, "workflow"))
	if err != nil {
		return nil, err
	}

	return &application{config: cfg, logger: log, workflow: wf, ledger: ledger}, nil
}

func newGenerator(ctx context.Context, cfg *config.Config, creds *config.Secrets, log *zap.Logger) (ai.Generator, error) {
	genLogger := logger.Named(logger.WithCommonFields(log, cfg.LLM.Provider, cfg.LLM.Model), "llm")

	switch cfg.LLM.Provider {
	case ai.ProviderGemini:
		return gemini.NewGenerator(ctx, gemini.Config{
			APIKey:     creds.LLMAPIKey,
			Model:      cfg.LLM.Model,
			Backend:    cfg.LLM.Backend,
			Project:    cfg.LLM.Project,
			Location:   cfg.LLM.Location,
			MaxRetries: cfg.LLM.MaxRetries,
			Timeout:    cfg.Timeouts.LLM,
		}, genLogger)
	case ai.ProviderOpenAI:
		return openai.NewGenerator(openai.Config{
			APIKey:  creds.LLMAPIKey,
			Model:   cfg.LLM.Model,
			BaseURL: cfg.LLM.BaseURL,
			Timeout: cfg.Timeouts.LLM,
		}, genLogger)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.LLM.Provider)
	}
}

func newRelay(ctx context.Context, cfg *config.Config, creds *config.Secrets) (notify.Relay, error) {
	switch cfg.Mail.Relay {
	case config.RelayGmail:
		return notify.NewGmailRelay(ctx, notify.GmailConfig{
			CredentialsFile: cfg.Mail.GmailCredentialsFile,
			TokenFile:       cfg.Mail.GmailTokenFile,
			Sender:          cfg.Mail.Sender,
			Timeout:         cfg.Timeouts.Mail,
		})
	default:
		return notify.NewSMTPRelay(notify.SMTPConfig{
			Host:     cfg.Mail.SMTPHost,
			Port:     cfg.Mail.SMTPPort,
			Sender:   cfg.Mail.Sender,
			Password: creds.MailAppPassword,
			Timeout:  cfg.Timeouts.Mail,
		})
	}
}
