package form

import "context"

type ListOpts struct {
	Limit  int
	Offset int
}

// Store is the persistence boundary for forms, questions, responses and
// per-form stats. InsertResponse must enforce the single-attempt uniqueness
// constraint at the storage layer and return ErrConflict on a duplicate
// (form, respondent) pair, so two concurrent attempts cannot both land.
type Store interface {
	PutForm(ctx context.Context, f Form) error
	GetForm(ctx context.Context, id string) (Form, error)
	ListFormsByOwner(ctx context.Context, ownerID string, opts ListOpts) ([]Form, error)
	DeleteForm(ctx context.Context, id string) error // cascades to questions, responses, stats

	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id string) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	// ListQuestions returns the form's questions sorted by Order, including
	// correct-answer fields. Callers serving respondents must StripKey.
	ListQuestions(ctx context.Context, formID string) ([]Question, error)
	CountQuestions(ctx context.Context, formID string) (int, error)
	ReorderQuestions(ctx context.Context, formID string, orderedIDs []string) error

	// InsertResponse persists r and updates the form's stats row. respondentKey
	// is empty when the attempt needs no deduplication (anonymous respondent or
	// multi-attempt form).
	InsertResponse(ctx context.Context, r Response, respondentKey string) error
	GetResponse(ctx context.Context, id string) (Response, error)
	FindResponseByRespondent(ctx context.Context, formID, respondentKey string) (*Response, error)
	ListResponses(ctx context.Context, formID string, opts ListOpts) ([]Response, error)

	GetStats(ctx context.Context, formID string) (Stats, error)
}
