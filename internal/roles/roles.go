package roles

import (
	"fmt"
	"strings"
)

// ID names one of the roles candidates can apply for.
type ID string

const (
	AIMLEngineer     ID = "ai_ml_engineer"
	FrontendEngineer ID = "frontend_engineer"
	BackendEngineer  ID = "backend_engineer"
)

// Requirement is the skill checklist a resume is screened against.
type Requirement struct {
	ID     ID
	Title  string
	Skills string
}

var requirements = []Requirement{
	{
		ID:    AIMLEngineer,
		Title: "AI/ML Engineer",
		Skills: `Required Skills:
- Python, PyTorch/TensorFlow
- Machine Learning algorithms and frameworks
- Deep Learning and Neural Networks
- Data preprocessing and analysis
- MLOps and model deployment
- RAG, LLM, Finetuning and Prompt Engineering`,
	},
	{
		ID:    FrontendEngineer,
		Title: "Frontend Engineer",
		Skills: `Required Skills:
- React/Vue.js/Angular
- HTML5, CSS3, JavaScript/TypeScript
- Responsive design
- State management
- Frontend testing`,
	},
	{
		ID:    BackendEngineer,
		Title: "Backend Engineer",
		Skills: `Required Skills:
- Python/Java/Node.js/Go
- REST APIs
- Database design and management
- System architecture
- Cloud services (AWS/GCP/Azure)
- Kubernetes, Docker, CI/CD`,
	},
}

// All returns the requirements of every known role in a stable order.
func All() []Requirement {
	out := make([]Requirement, len(requirements))
	copy(out, requirements)
	return out
}

// Lookup returns the requirement of the role.
func Lookup(id ID) (Requirement, bool) {
	for _, r := range requirements {
		if r.ID == id {
			return r, true
		}
	}
	return Requirement{}, false
}

// Parse resolves a role from its id or its title, case-insensitively.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	for _, r := range requirements {
		if strings.EqualFold(string(r.ID), s) || strings.EqualFold(r.Title, s) {
			return r.ID, nil
		}
	}
	return "", fmt.Errorf("unknown role %q (known: %s)", s, strings.Join(IDs(), ", "))
}

// IDs returns ids of all roles as strings.
func IDs() []string {
	ids := make([]string, 0, len(requirements))
	for _, r := range requirements {
		ids = append(ids, string(r.ID))
	}
	return ids
}

// Title returns the display title of the role, falling back to its id.
func (id ID) Title() string {
	if r, ok := Lookup(id); ok {
		return r.Title
	}
	return string(id)
}

func (id ID) Valid() bool {
	_, ok := Lookup(id)
	return ok
}
