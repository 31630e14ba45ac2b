package form

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// timeLimitGrace absorbs clock skew and network latency on timed forms.
const timeLimitGrace = 15 * time.Second

// RawAnswer is one (questionId, raw value) pair as submitted by a respondent.
type RawAnswer struct {
	QuestionID string          `json:"question_id"`
	Value      json.RawMessage `json:"value"`
}

// SubmitRequest is the raw payload of one submission attempt. UserID comes
// from the auth boundary; Email is the collected address for anonymous
// respondents. Identity is always explicit here, never read from ambient state.
type SubmitRequest struct {
	FormID    string
	UserID    string
	Email     string
	StartedAt int64 // unix seconds; 0 when the client did not report it
	Answers   []RawAnswer
}

// SubmitResult is returned once a submission is durably persisted.
type SubmitResult struct {
	ResponseID string   `json:"response_id"`
	Score      *float64 `json:"score,omitempty"`
	MaxScore   *float64 `json:"max_score,omitempty"`
}

// QuestionResult is the per-question outcome of grading one response.
type QuestionResult struct {
	QuestionID string  `json:"question_id"`
	Gradable   bool    `json:"gradable"` // false when no correct answer is declared
	Correct    bool    `json:"correct"`
	Awarded    float64 `json:"awarded"`
	Points     float64 `json:"points"`
}

// Summary aggregates grading over a whole response. MaxScore counts every
// question's points whether or not it was answered or gradable.
type Summary struct {
	Score       float64          `json:"score"`
	MaxScore    float64          `json:"max_score"`
	PerQuestion []QuestionResult `json:"per_question"`
}

// Grader computes a quiz summary from question definitions and canonical
// answers. It must be deterministic and side-effect free.
type Grader interface {
	Grade(questions []Question, answers []Answer) Summary
}

// SubmitService runs one submission through validate, eligibility, score and
// persist, all-or-nothing. A rejected submission stores nothing.
type SubmitService struct {
	store  Store
	grader Grader
	now    func() time.Time
	newID  func() string
}

func NewSubmitService(store Store, grader Grader) *SubmitService {
	return &SubmitService{
		store:  store,
		grader: grader,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Submit validates every raw answer against its question definition, checks
// the attempt policy, scores quiz forms, and persists the response. Any single
// validation failure rejects the whole submission.
func (s *SubmitService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	f, err := s.store.GetForm(ctx, req.FormID)
	if err != nil {
		return SubmitResult{}, err
	}
	if !f.Answerable() {
		return SubmitResult{}, ErrFormNotAnswerable
	}

	questions, err := s.store.ListQuestions(ctx, f.ID)
	if err != nil {
		return SubmitResult{}, err
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	// Answers are matched purely by question id, never by position, so
	// shuffled forms score identically to ordered ones.
	rawByID := make(map[string]json.RawMessage, len(req.Answers))
	for _, ra := range req.Answers {
		q, ok := byID[ra.QuestionID]
		if !ok {
			return SubmitResult{}, &ValidationError{QuestionID: ra.QuestionID, Code: CodeUnknownQuestion, Msg: "not a question of this form"}
		}
		if _, dup := rawByID[q.ID]; dup {
			return SubmitResult{}, &ValidationError{QuestionID: q.ID, Code: CodeBadType, Msg: "duplicate answer"}
		}
		rawByID[q.ID] = ra.Value
	}

	answers := make([]Answer, 0, len(questions))
	for _, q := range questions {
		ans, answered, err := EncodeAnswer(q, rawByID[q.ID])
		if err != nil {
			return SubmitResult{}, err
		}
		if answered {
			answers = append(answers, ans)
		}
	}

	now := s.now()
	if f.Settings.TimeLimitSec > 0 && req.StartedAt > 0 {
		deadline := time.Unix(req.StartedAt, 0).Add(time.Duration(f.Settings.TimeLimitSec) * time.Second).Add(timeLimitGrace)
		if now.After(deadline) {
			return SubmitResult{}, ErrTimeLimitExceeded
		}
	}

	email := strings.TrimSpace(req.Email)
	key := RespondentKey(req.UserID, email)
	if err := CheckEligibility(ctx, s.store, f, key); err != nil {
		return SubmitResult{}, err
	}

	resp := Response{
		ID:          s.newID(),
		FormID:      f.ID,
		UserID:      req.UserID,
		Email:       email,
		Answers:     answers,
		SubmittedAt: now.Unix(),
	}
	if req.StartedAt > 0 {
		resp.StartedAt = req.StartedAt
		if d := resp.SubmittedAt - req.StartedAt; d > 0 {
			resp.DurationSec = d
		}
	}

	if f.Kind == FormQuiz {
		summary := s.grader.Grade(questions, answers)
		resp.Score = &summary.Score
		resp.MaxScore = &summary.MaxScore
	}

	// The uniqueness constraint only applies when this attempt is the one
	// per-respondent attempt a single-attempt form permits.
	insertKey := ""
	if !f.Settings.AllowMultipleAttempts {
		insertKey = key
	}
	if err := s.store.InsertResponse(ctx, resp, insertKey); err != nil {
		if errors.Is(err, ErrConflict) {
			return SubmitResult{}, ErrAttemptExhausted
		}
		return SubmitResult{}, err
	}

	return SubmitResult{ResponseID: resp.ID, Score: resp.Score, MaxScore: resp.MaxScore}, nil
}
