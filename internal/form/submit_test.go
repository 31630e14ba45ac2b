package form

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// flatGrader awards one point per answered question. The real engine lives in
// its own package; submission tests only need a deterministic stand-in.
type flatGrader struct{}

func (flatGrader) Grade(questions []Question, answers []Answer) Summary {
	sum := Summary{MaxScore: float64(len(questions))}
	sum.Score = float64(len(answers))
	return sum
}

func seedQuiz(t *testing.T, store Store, settings FormSettings) Form {
	t.Helper()
	ctx := context.Background()
	f := Form{
		ID:       "f1",
		OwnerID:  "owner",
		Title:    "Quiz",
		Kind:     FormQuiz,
		Status:   StatusPublished,
		Public:   true,
		Settings: settings,
	}
	if err := store.PutForm(ctx, f); err != nil {
		t.Fatal(err)
	}
	qs := []Question{
		{ID: "q1", FormID: "f1", Kind: KindMCQ, Options: []Option{{Value: "a", IsCorrect: true}, {Value: "b"}}, Points: 1, Order: 0},
		{ID: "q2", FormID: "f1", Kind: KindShortText, Points: 1, Order: 1},
	}
	for _, q := range qs {
		if err := store.PutQuestion(ctx, q); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestSubmitScoresAndPersists(t *testing.T) {
	store := NewMemoryStore()
	seedQuiz(t, store, FormSettings{AllowMultipleAttempts: true})
	svc := NewSubmitService(store, flatGrader{})

	res, err := svc.Submit(context.Background(), SubmitRequest{
		FormID: "f1",
		UserID: "u1",
		Answers: []RawAnswer{
			{QuestionID: "q1", Value: json.RawMessage(`"a"`)},
			{QuestionID: "q2", Value: json.RawMessage(`"hi"`)},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Score == nil || *res.Score != 2 || res.MaxScore == nil || *res.MaxScore != 2 {
		t.Fatalf("scores: %+v", res)
	}

	stored, err := store.GetResponse(context.Background(), res.ResponseID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Answers) != 2 || stored.UserID != "u1" {
		t.Fatalf("stored: %+v", stored)
	}
	if stored.SubmittedAt == 0 {
		t.Fatal("submitted_at not set")
	}
}

func TestSubmitPlainFormHasNoScore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	f := Form{ID: "f1", OwnerID: "o", Title: "Survey", Kind: FormPlain, Status: StatusPublished, Public: true,
		Settings: FormSettings{AllowMultipleAttempts: true}}
	if err := store.PutForm(ctx, f); err != nil {
		t.Fatal(err)
	}
	if err := store.PutQuestion(ctx, Question{ID: "q1", FormID: "f1", Kind: KindShortText}); err != nil {
		t.Fatal(err)
	}
	svc := NewSubmitService(store, flatGrader{})

	res, err := svc.Submit(ctx, SubmitRequest{
		FormID:  "f1",
		Email:   "a@example.com",
		Answers: []RawAnswer{{QuestionID: "q1", Value: json.RawMessage(`"x"`)}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Score != nil || res.MaxScore != nil {
		t.Fatalf("plain form scored: %+v", res)
	}
}

func TestSubmitSingleAttemptExhausted(t *testing.T) {
	store := NewMemoryStore()
	seedQuiz(t, store, FormSettings{})
	svc := NewSubmitService(store, flatGrader{})
	ctx := context.Background()

	req := SubmitRequest{
		FormID:  "f1",
		Email:   "Dup@Example.com",
		Answers: []RawAnswer{{QuestionID: "q1", Value: json.RawMessage(`"a"`)}},
	}
	if _, err := svc.Submit(ctx, req); err != nil {
		t.Fatal(err)
	}
	// same respondent, differently-cased email
	req.Email = "dup@example.COM"
	if _, err := svc.Submit(ctx, req); !errors.Is(err, ErrAttemptExhausted) {
		t.Fatalf("want ErrAttemptExhausted, got %v", err)
	}
	// a different respondent still gets through
	req.Email = "other@example.com"
	if _, err := svc.Submit(ctx, req); err != nil {
		t.Fatalf("second respondent blocked: %v", err)
	}
}

func TestSubmitMultipleAttemptsAllowed(t *testing.T) {
	store := NewMemoryStore()
	seedQuiz(t, store, FormSettings{AllowMultipleAttempts: true})
	svc := NewSubmitService(store, flatGrader{})
	ctx := context.Background()

	req := SubmitRequest{
		FormID:  "f1",
		UserID:  "u1",
		Answers: []RawAnswer{{QuestionID: "q1", Value: json.RawMessage(`"a"`)}},
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(ctx, req); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	rs, err := store.ListResponses(ctx, "f1", ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rs) != 3 {
		t.Fatalf("want 3 responses, got %d", len(rs))
	}
}

func TestSubmitAnonymousNeverDeduplicated(t *testing.T) {
	store := NewMemoryStore()
	seedQuiz(t, store, FormSettings{}) // single attempt
	svc := NewSubmitService(store, flatGrader{})
	ctx := context.Background()

	req := SubmitRequest{
		FormID:  "f1",
		Answers: []RawAnswer{{QuestionID: "q1", Value: json.RawMessage(`"a"`)}},
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Submit(ctx, req); err != nil {
			t.Fatalf("anonymous attempt %d: %v", i, err)
		}
	}
}

func TestSubmitRejectsUnknownQuestion(t *testing.T) {
	store := NewMemoryStore()
	seedQuiz(t, store, FormSettings{AllowMultipleAttempts: true})
	svc := NewSubmitService(store, flatGrader{})

	_, err := svc.Submit(context.Background(), SubmitRequest{
		FormID:  "f1",
		UserID:  "u1",
		Answers: []RawAnswer{{QuestionID: "q99", Value: json.RawMessage(`"a"`)}},
	})
	if !hasCode(err, CodeUnknownQuestion) {
		t.Fatalf("want unknown_question, got %v", err)
	}
	// nothing persisted
	rs, _ := store.ListResponses(context.Background(), "f1", ListOpts{})
	if len(rs) != 0 {
		t.Fatalf("rejected submission stored %d responses", len(rs))
	}
}

func TestSubmitAllOrNothing(t *testing.T) {
	store := NewMemoryStore()
	seedQuiz(t, store, FormSettings{AllowMultipleAttempts: true})
	svc := NewSubmitService(store, flatGrader{})

	_, err := svc.Submit(context.Background(), SubmitRequest{
		FormID: "f1",
		UserID: "u1",
		Answers: []RawAnswer{
			{QuestionID: "q1", Value: json.RawMessage(`"a"`)},
			{QuestionID: "q2", Value: json.RawMessage(`123`)}, // short_text wants a string
		},
	})
	if !hasCode(err, CodeBadType) {
		t.Fatalf("want bad_type, got %v", err)
	}
	rs, _ := store.ListResponses(context.Background(), "f1", ListOpts{})
	if len(rs) != 0 {
		t.Fatalf("partial submission persisted")
	}
}

func TestSubmitUnanswerableForm(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	for _, f := range []Form{
		{ID: "draft", Kind: FormQuiz, Status: StatusDraft, Public: true},
		{ID: "private", Kind: FormQuiz, Status: StatusPublished, Public: false},
		{ID: "archived", Kind: FormQuiz, Status: StatusArchived, Public: true},
	} {
		if err := store.PutForm(ctx, f); err != nil {
			t.Fatal(err)
		}
	}
	svc := NewSubmitService(store, flatGrader{})
	for _, id := range []string{"draft", "private", "archived"} {
		if _, err := svc.Submit(ctx, SubmitRequest{FormID: id}); !errors.Is(err, ErrFormNotAnswerable) {
			t.Fatalf("%s: want ErrFormNotAnswerable, got %v", id, err)
		}
	}
	if _, err := svc.Submit(ctx, SubmitRequest{FormID: "missing"}); !errors.Is(err, ErrFormNotFound) {
		t.Fatalf("missing form: got %v", err)
	}
}

func TestSubmitTimeLimit(t *testing.T) {
	store := NewMemoryStore()
	seedQuiz(t, store, FormSettings{AllowMultipleAttempts: true, TimeLimitSec: 60})
	svc := NewSubmitService(store, flatGrader{})
	ctx := context.Background()

	answers := []RawAnswer{{QuestionID: "q1", Value: json.RawMessage(`"a"`)}}

	// started an hour ago, 60s limit: rejected
	_, err := svc.Submit(ctx, SubmitRequest{
		FormID: "f1", UserID: "u1", StartedAt: time.Now().Add(-time.Hour).Unix(), Answers: answers,
	})
	if !errors.Is(err, ErrTimeLimitExceeded) {
		t.Fatalf("want ErrTimeLimitExceeded, got %v", err)
	}

	// just started: accepted, duration recorded
	res, err := svc.Submit(ctx, SubmitRequest{
		FormID: "f1", UserID: "u2", StartedAt: time.Now().Add(-2 * time.Second).Unix(), Answers: answers,
	})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := store.GetResponse(ctx, res.ResponseID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.DurationSec < 1 {
		t.Fatalf("duration not recorded: %+v", stored)
	}

	// no client start time reported: the limit cannot apply
	if _, err := svc.Submit(ctx, SubmitRequest{FormID: "f1", UserID: "u3", Answers: answers}); err != nil {
		t.Fatalf("no started_at: %v", err)
	}
}

func TestSubmitRequiredQuestionEnforced(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	f := Form{ID: "f1", Kind: FormQuiz, Status: StatusPublished, Public: true,
		Settings: FormSettings{AllowMultipleAttempts: true}}
	if err := store.PutForm(ctx, f); err != nil {
		t.Fatal(err)
	}
	if err := store.PutQuestion(ctx, Question{ID: "q1", FormID: "f1", Kind: KindShortText, Required: true}); err != nil {
		t.Fatal(err)
	}
	svc := NewSubmitService(store, flatGrader{})

	if _, err := svc.Submit(ctx, SubmitRequest{FormID: "f1", UserID: "u1"}); !hasCode(err, CodeMissingRequired) {
		t.Fatalf("want missing_required, got %v", err)
	}
}

func TestRespondentKey(t *testing.T) {
	if k := RespondentKey("u1", "x@y.z"); k != "user:u1" {
		t.Fatalf("user id wins: %q", k)
	}
	if k := RespondentKey("", "  A@B.Com "); k != "email:a@b.com" {
		t.Fatalf("email normalized: %q", k)
	}
	if k := RespondentKey("", ""); k != "" {
		t.Fatalf("anonymous: %q", k)
	}
}
