package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/workflow"
	"go.uber.org/zap"
)

const (
	PromptProcess  = "Process the application"
	PromptExtract  = "Extract resume text"
	PromptEvaluate = "Evaluate the resume"
	PromptNotify   = "Notify the candidate"
	PromptSchedule = "Schedule the interview"
	PromptShow     = "Show session"
	PromptNew      = "New application"
	PromptExit     = "Exit"
)

var errExit = errors.New("exit requested")

var actionPrompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptProcess, PromptExtract, PromptEvaluate, PromptNotify, PromptSchedule, PromptShow, PromptNew, PromptExit},
	Size:  8,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen applications in an interactive shell",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// run is the interactive shell: one application at a time, one action per prompt.
func run(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := newLogger()

	application, err := newApplication(ctx, logger)
	if err != nil {
		logger.Fatal("starting the hr-screener", zap.Error(err), zap.String("kind", errs.Kind(err)))
	}

	logger.Info("starting the hr-screener", zap.String("version", version), zap.String("company", application.config.CompanyName))

	wf := application.workflow
	session := workflow.NewSession()

	for {
		if session.Stage == workflow.StageEmpty {
			in, err := askApplication()
			if err != nil {
				logger.Info("exiting", zap.Error(err))
				return
			}
			if err := wf.Upload(session, in); err != nil {
				logger.Warn("application rejected", zap.Error(err))
				continue
			}
		}

		_, action, err := actionPrompt.Run()
		if err != nil {
			logger.Info("exiting", zap.Error(err))
			return
		}

		if err := handleAction(ctx, action, wf, session, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			// Stage failures are reported and the shell stays on the same application.
			logger.Error("action failed",
				zap.String("action", action),
				zap.String("kind", errs.Kind(err)),
				zap.String("stage", string(session.Stage)),
				zap.Error(err),
			)
		}
	}
}

func handleAction(ctx context.Context, action string, wf *workflow.Workflow, session *workflow.Session, logger *zap.Logger) error {
	switch action {
	case PromptProcess:
		if err := wf.Process(ctx, session); err != nil {
			return err
		}
		reportSession(session, logger)
		return nil
	case PromptExtract:
		return wf.Extract(ctx, session)
	case PromptEvaluate:
		if err := wf.Evaluate(ctx, session); err != nil {
			return err
		}
		reportSession(session, logger)
		return nil
	case PromptNotify:
		return wf.Notify(ctx, session)
	case PromptSchedule:
		if err := wf.Schedule(ctx, session); err != nil {
			return err
		}
		reportSession(session, logger)
		return nil
	case PromptShow:
		pretty, _ := json.MarshalIndent(session, "", "  ")
		fmt.Println(string(pretty))
		return nil
	case PromptNew:
		wf.Reset(session)
		logger.Info("new application", zap.String("session_id", session.ID))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func askApplication() (workflow.UploadInput, error) {
	emailPrompt := promptui.Prompt{
		Label: "Candidate email",
		Validate: func(s string) error {
			if !strings.Contains(s, "@") {
				return errors.New("email address is required")
			}
			return nil
		},
	}
	email, err := emailPrompt.Run()
	if err != nil {
		return workflow.UploadInput{}, err
	}

	requirements := roles.All()
	rolePrompt := promptui.Select{
		Label: "Role",
		Items: requirements,
		Templates: &promptui.SelectTemplates{
			Active:   "▸ {{ .Title | cyan }}",
			Inactive: "  {{ .Title }}",
			Selected: "Role: {{ .Title }}",
			Details:  "{{ .Skills }}",
		},
	}
	idx, _, err := rolePrompt.Run()
	if err != nil {
		return workflow.UploadInput{}, err
	}

	resumePrompt := promptui.Prompt{
		Label: "Path to PDF resume",
		Validate: func(s string) error {
			info, err := os.Stat(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			if info.IsDir() {
				return errors.New("path is a directory")
			}
			return nil
		},
	}
	path, err := resumePrompt.Run()
	if err != nil {
		return workflow.UploadInput{}, err
	}

	return workflow.UploadInput{
		Email:      strings.TrimSpace(email),
		Role:       requirements[idx].ID,
		ResumePath: strings.TrimSpace(path),
	}, nil
}

func reportSession(session *workflow.Session, logger *zap.Logger) {
	fields := []zap.Field{zap.String("stage", string(session.Stage))}
	if v := session.Verdict; v != nil {
		fields = append(fields,
			zap.Bool("selected", v.Selected),
			zap.String("feedback", v.Feedback),
			zap.Strings("matching_skills", v.MatchingSkills),
			zap.Strings("missing_skills", v.MissingSkills),
			zap.String("experience_level", string(v.ExperienceLevel)),
		)
	}
	if m := session.Meeting; m != nil {
		fields = append(fields, zap.String("join_url", m.JoinURL), zap.String("start_time", m.StartTime))
	}
	logger.Info("application status", fields...)
}
