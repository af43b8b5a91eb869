package workflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spigell/hr-screener/internal/errs"
	"github.com/spigell/hr-screener/internal/history"
	"github.com/spigell/hr-screener/internal/roles"
	"github.com/spigell/hr-screener/internal/screening"
	"github.com/spigell/hr-screener/internal/zoom"
)

type recorder struct {
	calls []string
}

func (r *recorder) add(call string) { r.calls = append(r.calls, call) }

type stubExtractor struct {
	rec  *recorder
	text string
	err  error
}

func (s *stubExtractor) ExtractPDF(string) (string, error) {
	s.rec.add("extract")
	return s.text, s.err
}

type stubEvaluator struct {
	rec     *recorder
	verdict *screening.Verdict
	err     error
}

func (s *stubEvaluator) Evaluate(context.Context, string, roles.ID) (*screening.Verdict, error) {
	s.rec.add("evaluate")
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

type stubNotifier struct {
	rec          *recorder
	err          error
	detailsErr   error
	lastFeedback string
}

func (s *stubNotifier) SendRejection(_ context.Context, _ string, _ roles.ID, feedback string) error {
	s.rec.add("reject")
	s.lastFeedback = feedback
	return s.err
}

func (s *stubNotifier) SendAcceptance(context.Context, string, roles.ID) error {
	s.rec.add("accept")
	return s.err
}

func (s *stubNotifier) SendInterviewDetails(context.Context, string, roles.ID, *zoom.Meeting) error {
	s.rec.add("details")
	return s.detailsErr
}

type stubScheduler struct {
	rec  *recorder
	errs []error
	n    int
}

func (s *stubScheduler) Schedule(context.Context, string, roles.ID) (*zoom.Meeting, error) {
	s.rec.add("schedule")
	s.n++
	if s.n <= len(s.errs) && s.errs[s.n-1] != nil {
		return nil, s.errs[s.n-1]
	}
	return &zoom.Meeting{ID: 7, JoinURL: "https://zoom.us/j/7"}, nil
}

type stubHistory struct {
	records []history.Record
}

func (s *stubHistory) Append(r history.Record) error {
	s.records = append(s.records, r)
	return nil
}

type fixture struct {
	rec       *recorder
	extractor *stubExtractor
	evaluator *stubEvaluator
	notifier  *stubNotifier
	scheduler *stubScheduler
	history   *stubHistory
	wf        *Workflow
}

func newFixture(t *testing.T, verdict *screening.Verdict) *fixture {
	t.Helper()
	rec := &recorder{}
	f := &fixture{
		rec:       rec,
		extractor: &stubExtractor{rec: rec, text: "resume text"},
		evaluator: &stubEvaluator{rec: rec, verdict: verdict},
		notifier:  &stubNotifier{rec: rec},
		scheduler: &stubScheduler{rec: rec},
		history:   &stubHistory{},
	}

	wf, err := New(Deps{
		Extractor: f.extractor,
		Evaluator: f.evaluator,
		Notifier:  f.notifier,
		Scheduler: f.scheduler,
		Recorder:  f.history,
	}, nil)
	if err != nil {
		t.Fatalf("new workflow: %v", err)
	}
	f.wf = wf
	return f
}

func uploaded(t *testing.T, f *fixture) *Session {
	t.Helper()
	s := NewSession()
	if err := f.wf.Upload(s, UploadInput{Email: "Jane <jane@example.com>", Role: roles.BackendEngineer, ResumePath: "resume.pdf"}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	return s
}

func TestProcessRejection(t *testing.T) {
	f := newFixture(t, &screening.Verdict{Selected: false, Feedback: "Missing Kubernetes."})
	s := uploaded(t, f)

	if err := f.wf.Process(context.Background(), s); err != nil {
		t.Fatalf("process: %v", err)
	}

	if want := []string{"extract", "evaluate", "reject"}; !reflect.DeepEqual(f.rec.calls, want) {
		t.Fatalf("expected calls %v, got %v", want, f.rec.calls)
	}
	if f.notifier.lastFeedback != "Missing Kubernetes." {
		t.Fatalf("expected feedback to be forwarded, got %q", f.notifier.lastFeedback)
	}
	if s.Stage != StageNotified || !s.Done() || s.Meeting != nil {
		t.Fatalf("unexpected session: %+v", s)
	}
	if len(f.history.records) != 1 || f.history.records[0].Selected {
		t.Fatalf("expected one rejection record, got %+v", f.history.records)
	}
	if s.CandidateEmail != "jane@example.com" {
		t.Fatalf("expected bare address, got %q", s.CandidateEmail)
	}
}

func TestProcessAcceptance(t *testing.T) {
	f := newFixture(t, &screening.Verdict{Selected: true, Feedback: "Great fit.", ExperienceLevel: screening.Senior})
	s := uploaded(t, f)

	if err := f.wf.Process(context.Background(), s); err != nil {
		t.Fatalf("process: %v", err)
	}

	if want := []string{"extract", "evaluate", "accept", "schedule", "details"}; !reflect.DeepEqual(f.rec.calls, want) {
		t.Fatalf("expected calls %v, got %v", want, f.rec.calls)
	}
	if s.Stage != StageScheduled || s.Meeting == nil || s.Meeting.ID != 7 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if len(f.history.records) != 1 || f.history.records[0].MeetingID != 7 || f.history.records[0].ExperienceLevel != "senior" {
		t.Fatalf("expected one acceptance record, got %+v", f.history.records)
	}
}

func TestSchedulingFailureDoesNotResendNotification(t *testing.T) {
	f := newFixture(t, &screening.Verdict{Selected: true, Feedback: "ok"})
	f.scheduler.errs = []error{errs.ErrScheduling}
	s := uploaded(t, f)

	err := f.wf.Process(context.Background(), s)
	if !errors.Is(err, errs.ErrScheduling) {
		t.Fatalf("expected scheduling error, got %v", err)
	}
	if s.Stage != StageNotified || !s.Notified || s.Meeting != nil {
		t.Fatalf("unexpected session after failure: %+v", s)
	}
	if len(f.history.records) != 0 {
		t.Fatalf("expected no record before scheduling succeeds")
	}

	if err := f.wf.Process(context.Background(), s); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if err := f.wf.Notify(context.Background(), s); err != nil {
		t.Fatalf("notify after schedule: %v", err)
	}

	want := []string{"extract", "evaluate", "accept", "schedule", "schedule", "details"}
	if !reflect.DeepEqual(f.rec.calls, want) {
		t.Fatalf("expected calls %v, got %v", want, f.rec.calls)
	}
}

func TestInterviewDetailsFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, &screening.Verdict{Selected: true, Feedback: "ok"})
	f.notifier.detailsErr = errs.ErrNotification
	s := uploaded(t, f)

	if err := f.wf.Process(context.Background(), s); err != nil {
		t.Fatalf("process: %v", err)
	}
	if s.Stage != StageScheduled {
		t.Fatalf("expected scheduled stage, got %s", s.Stage)
	}
}

func TestRejectedCandidateIsNeverScheduled(t *testing.T) {
	f := newFixture(t, &screening.Verdict{Selected: false, Feedback: "no"})
	s := uploaded(t, f)

	if err := f.wf.Process(context.Background(), s); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := f.wf.Schedule(context.Background(), s); !errors.Is(err, ErrInvalidStage) {
		t.Fatalf("expected invalid stage, got %v", err)
	}
	for _, call := range f.rec.calls {
		if call == "schedule" {
			t.Fatalf("scheduler must not be called for a rejection: %v", f.rec.calls)
		}
	}
}

func TestFailedStagesKeepSession(t *testing.T) {
	t.Run("extraction", func(t *testing.T) {
		f := newFixture(t, nil)
		f.extractor.err = errs.ErrExtraction
		s := uploaded(t, f)

		if err := f.wf.Process(context.Background(), s); !errors.Is(err, errs.ErrExtraction) {
			t.Fatalf("expected extraction error, got %v", err)
		}
		if s.Stage != StageResumeUploaded || s.ResumeText != "" {
			t.Fatalf("unexpected session: %+v", s)
		}
		if want := []string{"extract"}; !reflect.DeepEqual(f.rec.calls, want) {
			t.Fatalf("evaluation must not run after failed extraction: %v", f.rec.calls)
		}
	})

	t.Run("evaluation", func(t *testing.T) {
		f := newFixture(t, nil)
		f.evaluator.err = errs.ErrEvaluation
		s := uploaded(t, f)

		if err := f.wf.Process(context.Background(), s); !errors.Is(err, errs.ErrEvaluation) {
			t.Fatalf("expected evaluation error, got %v", err)
		}
		if s.Stage != StageTextExtracted || s.Verdict != nil || s.ResumeText != "resume text" {
			t.Fatalf("unexpected session: %+v", s)
		}

		f.evaluator.err = nil
		f.evaluator.verdict = &screening.Verdict{Selected: false, Feedback: "no"}
		if err := f.wf.Evaluate(context.Background(), s); err != nil {
			t.Fatalf("retry: %v", err)
		}
	})

	t.Run("notification", func(t *testing.T) {
		f := newFixture(t, &screening.Verdict{Selected: false, Feedback: "no"})
		f.notifier.err = errs.ErrNotification
		s := uploaded(t, f)

		if err := f.wf.Process(context.Background(), s); !errors.Is(err, errs.ErrNotification) {
			t.Fatalf("expected notification error, got %v", err)
		}
		if s.Stage != StageRejected || s.Notified {
			t.Fatalf("unexpected session: %+v", s)
		}
	})
}

func TestEvaluateOnce(t *testing.T) {
	f := newFixture(t, &screening.Verdict{Selected: true, Feedback: "ok"})
	s := uploaded(t, f)

	if err := f.wf.Extract(context.Background(), s); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if err := f.wf.Evaluate(context.Background(), s); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if err := f.wf.Evaluate(context.Background(), s); !errors.Is(err, ErrAlreadyEvaluated) {
		t.Fatalf("expected already evaluated, got %v", err)
	}
	if err := f.wf.Upload(s, UploadInput{Email: "jane@example.com", Role: roles.BackendEngineer, ResumePath: "other.pdf"}); !errors.Is(err, ErrInvalidStage) {
		t.Fatalf("expected invalid stage for upload after evaluation, got %v", err)
	}
}

func TestStageOrder(t *testing.T) {
	f := newFixture(t, &screening.Verdict{Selected: true, Feedback: "ok"})
	s := NewSession()
	ctx := context.Background()

	checks := map[string]error{
		"extract":  f.wf.Extract(ctx, s),
		"evaluate": f.wf.Evaluate(ctx, s),
		"notify":   f.wf.Notify(ctx, s),
		"schedule": f.wf.Schedule(ctx, s),
		"process":  f.wf.Process(ctx, s),
	}
	for op, err := range checks {
		if !errors.Is(err, ErrInvalidStage) {
			t.Fatalf("%s on empty session: expected invalid stage, got %v", op, err)
		}
	}
	if len(f.rec.calls) != 0 {
		t.Fatalf("no component should be called, got %v", f.rec.calls)
	}
}

func TestUploadValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		in   UploadInput
	}{
		{name: "bad email", in: UploadInput{Email: "not-an-email", Role: roles.BackendEngineer, ResumePath: "r.pdf"}},
		{name: "unknown role", in: UploadInput{Email: "a@example.com", Role: "designer", ResumePath: "r.pdf"}},
		{name: "no resume", in: UploadInput{Email: "a@example.com", Role: roles.BackendEngineer}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession()
			if err := f.wf.Upload(s, tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if s.Stage != StageEmpty {
				t.Fatalf("expected empty stage, got %s", s.Stage)
			}
		})
	}
}

func TestResetFromAnyStage(t *testing.T) {
	ctx := context.Background()

	steps := []struct {
		stage Stage
		run   func(f *fixture, s *Session) error
	}{
		{stage: StageEmpty, run: func(*fixture, *Session) error { return nil }},
		{stage: StageResumeUploaded, run: func(*fixture, *Session) error { return nil }},
		{stage: StageTextExtracted, run: func(f *fixture, s *Session) error { return f.wf.Extract(ctx, s) }},
		{stage: StageAccepted, run: func(f *fixture, s *Session) error {
			if err := f.wf.Extract(ctx, s); err != nil {
				return err
			}
			return f.wf.Evaluate(ctx, s)
		}},
		{stage: StageScheduled, run: func(f *fixture, s *Session) error { return f.wf.Process(ctx, s) }},
	}

	for _, step := range steps {
		t.Run(string(step.stage), func(t *testing.T) {
			f := newFixture(t, &screening.Verdict{Selected: true, Feedback: "ok"})
			s := NewSession()
			if step.stage != StageEmpty {
				s = uploaded(t, f)
			}
			if err := step.run(f, s); err != nil {
				t.Fatalf("prepare: %v", err)
			}
			if s.Stage != step.stage {
				t.Fatalf("expected stage %s, got %s", step.stage, s.Stage)
			}

			id := s.ID
			f.wf.Reset(s)

			want := &Session{ID: id, Stage: StageEmpty}
			if !reflect.DeepEqual(s, want) {
				t.Fatalf("expected clean session, got %+v", s)
			}
		})
	}
}

func TestResetRemovesTemporaryResume(t *testing.T) {
	f := newFixture(t, nil)
	dir := t.TempDir()
	path := filepath.Join(dir, "upload.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s := NewSession()
	if err := f.wf.Upload(s, UploadInput{Email: "a@example.com", Role: roles.AIMLEngineer, ResumePath: path, Temporary: true}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	f.wf.Reset(s)

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected temporary resume to be removed, stat err: %v", err)
	}
}

func TestNewRequiresComponents(t *testing.T) {
	if _, err := New(Deps{}, nil); err == nil {
		t.Fatalf("expected error for missing components")
	}
}

func TestApplicationsInOneSessionAreRecordedSeparately(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &screening.Verdict{Selected: false, Feedback: "no"})

	s := uploaded(t, f)
	first := s.ApplicationID
	if first == "" {
		t.Fatalf("expected an application id after upload")
	}

	if err := f.wf.Upload(s, UploadInput{Email: "jane@example.com", Role: roles.BackendEngineer, ResumePath: "resume-v2.pdf"}); err != nil {
		t.Fatalf("re-upload: %v", err)
	}
	if s.ApplicationID != first {
		t.Fatalf("re-upload changed application id %q -> %q", first, s.ApplicationID)
	}

	if err := f.wf.Process(ctx, s); err != nil {
		t.Fatalf("process: %v", err)
	}

	f.wf.Reset(s)
	if err := f.wf.Upload(s, UploadInput{Email: "bob@example.com", Role: roles.BackendEngineer, ResumePath: "bob.pdf"}); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := f.wf.Process(ctx, s); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(f.history.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(f.history.records))
	}
	a, b := f.history.records[0], f.history.records[1]
	if a.SessionID != b.SessionID {
		t.Fatalf("expected one shell session, got %q and %q", a.SessionID, b.SessionID)
	}
	if a.ApplicationID != first || b.ApplicationID == "" || a.ApplicationID == b.ApplicationID {
		t.Fatalf("expected distinct application ids, got %q and %q", a.ApplicationID, b.ApplicationID)
	}
}
