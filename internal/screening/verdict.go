package screening

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spigell/hr-screener/internal/errs"
)

type ExperienceLevel string

const (
	Junior ExperienceLevel = "junior"
	Mid    ExperienceLevel = "mid"
	Senior ExperienceLevel = "senior"
)

// Verdict is the screening result of one resume against one role.
type Verdict struct {
	Selected        bool            `json:"selected"`
	Feedback        string          `json:"feedback"`
	MatchingSkills  []string        `json:"matching_skills"`
	MissingSkills   []string        `json:"missing_skills"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
}

type rawVerdict struct {
	Selected        *bool           `json:"selected"`
	Feedback        *string         `json:"feedback"`
	MatchingSkills  []string        `json:"matching_skills"`
	MissingSkills   []string        `json:"missing_skills"`
	ExperienceLevel json.RawMessage `json:"experience_level"`
}

// ParseVerdict decodes a model reply into a Verdict.
// selected and feedback are never defaulted: a reply without them is an evaluation error.
func ParseVerdict(raw string) (*Verdict, error) {
	object, err := extractJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrEvaluation, err)
	}

	var data rawVerdict
	if err := json.Unmarshal([]byte(object), &data); err != nil {
		return nil, fmt.Errorf("%w: parse model reply: %w", errs.ErrEvaluation, err)
	}

	if data.Selected == nil {
		return nil, fmt.Errorf("%w: model reply has no \"selected\" field", errs.ErrEvaluation)
	}

	if data.Feedback == nil || strings.TrimSpace(*data.Feedback) == "" {
		return nil, fmt.Errorf("%w: model reply has no \"feedback\" field", errs.ErrEvaluation)
	}

	verdict := &Verdict{
		Selected:        *data.Selected,
		Feedback:        strings.TrimSpace(*data.Feedback),
		MatchingSkills:  cleanList(data.MatchingSkills),
		MissingSkills:   cleanList(data.MissingSkills),
		ExperienceLevel: parseLevel(data.ExperienceLevel),
	}

	return verdict, nil
}

// extractJSON returns the outermost JSON object of a reply that may be wrapped in a code fence or prose.
func extractJSON(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return "", fmt.Errorf("model reply contains no JSON object")
	}

	object := raw[start : end+1]
	if !json.Valid([]byte(object)) {
		return "", fmt.Errorf("model reply contains malformed JSON")
	}
	return object, nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseLevel(raw json.RawMessage) ExperienceLevel {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "junior", "entry", "entry-level":
		return Junior
	case "mid", "mid-level", "middle", "intermediate":
		return Mid
	case "senior", "lead", "principal":
		return Senior
	default:
		return ""
	}
}
