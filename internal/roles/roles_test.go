package roles

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		expect  ID
		wantErr bool
	}{
		{input: "ai_ml_engineer", expect: AIMLEngineer},
		{input: "  Backend Engineer ", expect: BackendEngineer},
		{input: "FRONTEND_ENGINEER", expect: FrontendEngineer},
		{input: "designer", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestAllReturnsCopy(t *testing.T) {
	all := All()
	if len(all) != 3 {
		t.Fatalf("expected 3 roles, got %d", len(all))
	}

	all[0].Skills = "tampered"

	r, ok := Lookup(all[0].ID)
	if !ok {
		t.Fatalf("expected role %s to exist", all[0].ID)
	}
	if r.Skills == "tampered" {
		t.Fatalf("requirements must not be mutable through All")
	}
	if !strings.HasPrefix(r.Skills, "Required Skills:") {
		t.Fatalf("unexpected skills text: %q", r.Skills)
	}
}

func TestTitle(t *testing.T) {
	if got := BackendEngineer.Title(); got != "Backend Engineer" {
		t.Fatalf("unexpected title: %s", got)
	}
	if got := ID("unknown").Title(); got != "unknown" {
		t.Fatalf("expected fallback to id, got %s", got)
	}
	if ID("unknown").Valid() {
		t.Fatalf("unknown role must not be valid")
	}
}
