package cmd

import (
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/workflow"
	"go.uber.org/zap"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen one application non-interactively",
	RunE:  screen,
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringP("email", "e", "", "candidate email address")
	screenCmd.Flags().StringP("role", "r", "", fmt.Sprintf("role id or title (%s)", strings.Join(roles.IDs(), ", ")))
	screenCmd.Flags().StringP("resume", "f", "", "path to the PDF resume")
	screenCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before emailing the candidate")
	screenCmd.Flags().Bool("dry-run", false, "only evaluate the resume, send nothing")

	screenCmd.MarkFlagRequired("email")
	screenCmd.MarkFlagRequired("role")
	screenCmd.MarkFlagRequired("resume")
}

func screen(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := newLogger()
	cmd.SilenceUsage = true

	application, err := newApplication(ctx, logger)
	if err != nil {
		return err
	}

	email, _ := cmd.Flags().GetString("email")
	roleName, _ := cmd.Flags().GetString("role")
	resume, _ := cmd.Flags().GetString("resume")
	yes, _ := cmd.Flags().GetBool("yes")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	role, err := roles.Parse(roleName)
	if err != nil {
		return err
	}

	wf := application.workflow
	session := workflow.NewSession()

	if err := wf.Upload(session, workflow.UploadInput{Email: email, Role: role, ResumePath: resume}); err != nil {
		return err
	}

	if err := wf.Extract(ctx, session); err != nil {
		return err
	}
	if err := wf.Evaluate(ctx, session); err != nil {
		return err
	}
	reportSession(session, logger)

	if dryRun {
		return nil
	}

	if !yes && !confirm(fmt.Sprintf("Email the %s decision to %s", decision(session), session.CandidateEmail)) {
		logger.Info("exiting", zap.String("reason", "not confirmed"))
		return nil
	}

	if err := wf.Process(ctx, session); err != nil {
		logger.Error("screening stopped", zap.String("kind", errs.Kind(err)), zap.String("stage", string(session.Stage)))
		return err
	}
	reportSession(session, logger)

	return nil
}

func decision(session *workflow.Session) string {
	if session.Verdict != nil && session.Verdict.Selected {
		return "acceptance"
	}
	return "rejection"
}

func confirm(question string) bool {
	prompt := promptui.Prompt{Label: question, IsConfirm: true}
	_, err := prompt.Run()
	return err == nil
}
