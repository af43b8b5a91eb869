package screening

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/hr-screener/internal/ai"
	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/utils"
	"go.uber.org/zap"
)

//go:embed prompt.md
var promptTemplate string

const (
	systemInstruction   = "You are an expert technical recruiter who screens resumes strictly and fairly. You answer with JSON only."
	defaultMaxLogLength = 200
)

// Evaluator screens resume text against a role using a text-generation service.
// It does not retry: a malformed reply fails the attempt and the caller decides what to do.
type Evaluator struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

// NewEvaluator returns an Evaluator. maxLogLength bounds logged model output, 0 keeps the default.
func NewEvaluator(generator ai.Generator, maxLogLength int, logger *zap.Logger) *Evaluator {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Evaluator{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Evaluate returns the verdict for the resume. Any failure wraps errs.ErrEvaluation.
func (e *Evaluator) Evaluate(ctx context.Context, resumeText string, role roles.ID) (*Verdict, error) {
	requirement, ok := roles.Lookup(role)
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrEvaluation, role)
	}

	if strings.TrimSpace(resumeText) == "" {
		return nil, fmt.Errorf("%w: resume text is empty", errs.ErrEvaluation)
	}

	prompt := BuildPrompt(requirement, resumeText)

	e.logger.Debug("generate content request",
		zap.String("role", string(role)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	raw, err := e.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrEvaluation, err)
	}

	e.logger.Debug("generate content response",
		zap.String("role", string(role)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	verdict, err := ParseVerdict(raw)
	if err != nil {
		e.logger.Warn("model reply rejected",
			zap.String("role", string(role)),
			zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
			zap.Error(err),
		)
		return nil, err
	}

	if verdict.ExperienceLevel == "" {
		e.logger.Debug("model reply has no recognised experience level", zap.String("role", string(role)))
	}

	e.logger.Info("resume evaluated",
		zap.String("role", string(role)),
		zap.Bool("selected", verdict.Selected),
		zap.Int("matching_skills", len(verdict.MatchingSkills)),
		zap.Int("missing_skills", len(verdict.MissingSkills)),
		zap.String("experience_level", string(verdict.ExperienceLevel)),
	)

	return verdict, nil
}

// BuildPrompt fills the screening template with the role checklist and the resume.
func BuildPrompt(requirement roles.Requirement, resumeText string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Role: {{ROLE_TITLE}}\n{{ROLE_REQUIREMENTS}}\n\nResume:\n{{RESUME_TEXT}}\n\nJSON Response:"
	}

	replacer := strings.NewReplacer(
		"{{ROLE_TITLE}}", requirement.Title,
		"{{ROLE_REQUIREMENTS}}", strings.TrimSpace(requirement.Skills),
		"{{RESUME_TEXT}}", strings.TrimSpace(resumeText),
	)
	return replacer.Replace(template)
}
