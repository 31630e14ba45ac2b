package form

import "strings"

// FormKind distinguishes plain data-collection forms from scored quizzes.
type FormKind string

const (
	FormPlain FormKind = "form"
	FormQuiz  FormKind = "quiz"
)

// FormStatus is the lifecycle state. Only published forms accept submissions.
type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
	StatusArchived  FormStatus = "archived"
)

type FormSettings struct {
	CollectEmail          bool `json:"collect_email"`
	ShuffleQuestions      bool `json:"shuffle_questions"`
	AllowMultipleAttempts bool `json:"allow_multiple_attempts"`
	TimeLimitSec          int  `json:"time_limit_sec,omitempty"`
}

type Form struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Kind        FormKind     `json:"kind"`
	Status      FormStatus   `json:"status"`
	Public      bool         `json:"public"`
	Settings    FormSettings `json:"settings"`
	AIGenerated bool         `json:"ai_generated,omitempty"`
	CreatedAt   int64        `json:"created_at,omitempty"`
	UpdatedAt   int64        `json:"updated_at,omitempty"`
}

// Answerable reports whether the form may accept submissions at all.
func (f Form) Answerable() bool {
	return f.Status == StatusPublished && f.Public
}

// Option is one selectable choice of an mcq/checkbox/dropdown question, or one
// row/column of a grid. IsCorrect is meaningful only on quiz forms and is
// stripped before a question is served to respondents.
type Option struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// AnswerKey declares the correct answer for kinds whose options carry no
// IsCorrect marker. Exactly one field is set, matching the question's shape.
type AnswerKey struct {
	Value  string            `json:"value,omitempty"`  // scalar and scale kinds
	Values []string          `json:"values,omitempty"` // checkbox (alternative to option markers)
	Grid   map[string]string `json:"grid,omitempty"`   // row value -> correct column value
}

type Question struct {
	ID          string   `json:"id"`
	FormID      string   `json:"form_id"`
	Kind        Kind     `json:"kind"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Options     []Option `json:"options,omitempty"` // mcq, checkbox, dropdown
	Rows        []Option `json:"rows,omitempty"`    // multiple_choice_grid
	Cols        []Option `json:"cols,omitempty"`    // multiple_choice_grid
	Range       int      `json:"range,omitempty"`   // linear_scale, rating: values in [1, Range]
	MinLabel    string   `json:"min_label,omitempty"`
	MaxLabel    string   `json:"max_label,omitempty"`
	Accept      []string `json:"accept,omitempty"` // file_upload extension filter, e.g. ".pdf"

	AnswerKey *AnswerKey `json:"answer_key,omitempty"`
	Required  bool       `json:"required"`
	Points    float64    `json:"points"` // scoring weight; meaningful on quiz forms only
	Order     int        `json:"order"`  // unique and contiguous within the form
	AIGenerated bool     `json:"ai_generated,omitempty"`
}

// CorrectValue returns the single declared correct value, from option markers
// for choice kinds or from the answer key otherwise. ok is false when the
// question has no declared correct answer.
func (q Question) CorrectValue() (string, bool) {
	if Kinds[q.Kind].NeedsOptions {
		for _, o := range q.Options {
			if o.IsCorrect {
				return o.Value, true
			}
		}
		return "", false
	}
	if q.AnswerKey != nil && q.AnswerKey.Value != "" {
		return q.AnswerKey.Value, true
	}
	return "", false
}

// CorrectSet returns the declared correct value set for checkbox questions.
func (q Question) CorrectSet() []string {
	var vals []string
	for _, o := range q.Options {
		if o.IsCorrect {
			vals = append(vals, o.Value)
		}
	}
	if len(vals) == 0 && q.AnswerKey != nil {
		vals = append(vals, q.AnswerKey.Values...)
	}
	return vals
}

// CorrectGrid returns the declared row->column correct mapping, if any.
func (q Question) CorrectGrid() map[string]string {
	if q.AnswerKey == nil || len(q.AnswerKey.Grid) == 0 {
		return nil
	}
	return q.AnswerKey.Grid
}

// HasCorrectAnswer reports whether a correct answer is declared at all.
func (q Question) HasCorrectAnswer() bool {
	if _, ok := q.CorrectValue(); ok {
		return true
	}
	if len(q.CorrectSet()) > 0 {
		return true
	}
	return len(q.CorrectGrid()) > 0
}

// StripKey returns a copy safe to serve to respondents: correct-answer
// markers and keys removed.
func (q Question) StripKey() Question {
	out := q
	out.AnswerKey = nil
	if len(q.Options) > 0 {
		opts := make([]Option, len(q.Options))
		for i, o := range q.Options {
			o.IsCorrect = false
			opts[i] = o
		}
		out.Options = opts
	}
	return out
}

// Answer is the canonical, validated value for one answered question.
// Exactly one value field is populated, according to the kind's shape.
type Answer struct {
	QuestionID string            `json:"question_id"`
	Kind       Kind              `json:"kind"`
	Text       string            `json:"text,omitempty"`   // text-shaped kinds, single-choice, file reference
	Number     *float64          `json:"number,omitempty"` // number
	Scale      *int              `json:"scale,omitempty"`  // linear_scale, rating
	Values     []string          `json:"values,omitempty"` // checkbox: sorted, deduplicated
	Grid       map[string]string `json:"grid,omitempty"`   // grid: row value -> column value
}

// Response is one respondent's complete, immutable submission to a form.
type Response struct {
	ID          string   `json:"id"`
	FormID      string   `json:"form_id"`
	UserID      string   `json:"user_id,omitempty"`
	Email       string   `json:"email,omitempty"`
	Answers     []Answer `json:"answers"`
	Score       *float64 `json:"score,omitempty"`     // nil for plain forms
	MaxScore    *float64 `json:"max_score,omitempty"` // nil for plain forms
	StartedAt   int64    `json:"started_at,omitempty"`
	SubmittedAt int64    `json:"submitted_at"`
	DurationSec int64    `json:"duration_sec,omitempty"`
}

// RespondentKey derives the identity key the single-attempt policy
// deduplicates on. Empty means anonymous: nothing to deduplicate against.
func RespondentKey(userID, email string) string {
	if userID != "" {
		return "user:" + userID
	}
	if email != "" {
		return "email:" + strings.ToLower(strings.TrimSpace(email))
	}
	return ""
}

// Stats is the per-form aggregate maintained on every persisted submission.
type Stats struct {
	FormID          string   `json:"form_id"`
	TotalResponses  int64    `json:"total_responses"`
	AvgScore        *float64 `json:"avg_score,omitempty"`
	CompletionRate  *float64 `json:"completion_rate,omitempty"`
	LastSubmittedAt int64    `json:"last_submitted_at,omitempty"`
}
