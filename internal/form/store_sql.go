package form

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
)

// SQLStore persists the domain in postgres (pgx) or sqlite (modernc). Both
// drivers accept $N placeholders, so queries are shared.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutForm(ctx context.Context, f Form) error {
	settings, err := json.Marshal(f.Settings)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO forms (id,owner_id,title,description,kind,status,public,settings_json,ai_generated,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description,
		  status=EXCLUDED.status, public=EXCLUDED.public, settings_json=EXCLUDED.settings_json,
		  updated_at=EXCLUDED.updated_at`,
		f.ID, f.OwnerID, f.Title, f.Description, string(f.Kind), string(f.Status), f.Public,
		string(settings), f.AIGenerated, f.CreatedAt, f.UpdatedAt)
	return err
}

func (s *SQLStore) GetForm(ctx context.Context, id string) (Form, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,owner_id,title,description,kind,status,public,settings_json,ai_generated,created_at,updated_at
		FROM forms WHERE id=$1`, id)
	return scanForm(row)
}

func (s *SQLStore) ListFormsByOwner(ctx context.Context, ownerID string, opts ListOpts) ([]Form, error) {
	limit, offset := limits(opts)
	rows, err := s.db.QueryContext(ctx, `SELECT id,owner_id,title,description,kind,status,public,settings_json,ai_generated,created_at,updated_at
		FROM forms WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteForm(ctx context.Context, id string) error {
	// questions, responses and stats go with it via ON DELETE CASCADE
	res, err := s.db.ExecContext(ctx, `DELETE FROM forms WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	body, err := json.Marshal(q)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions (id,form_id,kind,ord,required,points,body_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET kind=EXCLUDED.kind, ord=EXCLUDED.ord,
		  required=EXCLUDED.required, points=EXCLUDED.points, body_json=EXCLUDED.body_json`,
		q.ID, q.FormID, string(q.Kind), q.Order, q.Required, q.Points, string(body))
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body_json FROM questions WHERE id=$1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrQuestionNotFound
	}
	if err != nil {
		return Question{}, err
	}
	var q Question
	if err := json.Unmarshal([]byte(body), &q); err != nil {
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, formID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body_json FROM questions WHERE form_id=$1 ORDER BY ord`, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Question
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var q Question
		if err := json.Unmarshal([]byte(body), &q); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountQuestions(ctx context.Context, formID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE form_id=$1`, formID).Scan(&n)
	return n, err
}

func (s *SQLStore) ReorderQuestions(ctx context.Context, formID string, orderedIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for idx, qid := range orderedIDs {
		res, err := tx.ExecContext(ctx, `UPDATE questions SET ord=$1 WHERE id=$2 AND form_id=$3`, idx, qid, formID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrQuestionNotFound
		}
	}
	return tx.Commit()
}

// InsertResponse writes the response and updates the form's stats row in one
// transaction. The partial unique index ux_responses_attempt turns a second
// single-attempt submission into ErrConflict, whichever instance wrote first.
func (s *SQLStore) InsertResponse(ctx context.Context, r Response, respondentKey string) error {
	answers, err := json.Marshal(r.Answers)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO responses (id,form_id,user_id,email,respondent_key,answers_json,score,max_score,started_at,submitted_at,duration_sec)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		r.ID, r.FormID, r.UserID, r.Email, respondentKey, string(answers),
		r.Score, r.MaxScore, nullInt64(r.StartedAt), r.SubmittedAt, nullInt64(r.DurationSec))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}

	var questionCount int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions WHERE form_id=$1`, r.FormID).Scan(&questionCount); err != nil {
		return err
	}
	completion := 0.0
	if questionCount > 0 {
		completion = float64(len(r.Answers)) / float64(questionCount)
	}
	score := 0.0
	scored := 0
	if r.Score != nil {
		score = *r.Score
		scored = 1
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO form_stats (form_id,total_responses,score_sum,scored_count,completion_sum,last_submitted_at)
		VALUES ($1,1,$2,$3,$4,$5)
		ON CONFLICT (form_id) DO UPDATE SET
		  total_responses=form_stats.total_responses+1,
		  score_sum=form_stats.score_sum+EXCLUDED.score_sum,
		  scored_count=form_stats.scored_count+EXCLUDED.scored_count,
		  completion_sum=form_stats.completion_sum+EXCLUDED.completion_sum,
		  last_submitted_at=EXCLUDED.last_submitted_at`,
		r.FormID, score, scored, completion, r.SubmittedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) GetResponse(ctx context.Context, id string) (Response, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,form_id,user_id,email,answers_json,score,max_score,started_at,submitted_at,duration_sec
		FROM responses WHERE id=$1`, id)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Response{}, ErrResponseNotFound
	}
	return r, err
}

func (s *SQLStore) FindResponseByRespondent(ctx context.Context, formID, respondentKey string) (*Response, error) {
	if respondentKey == "" {
		return nil, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT id,form_id,user_id,email,answers_json,score,max_score,started_at,submitted_at,duration_sec
		FROM responses WHERE form_id=$1 AND respondent_key=$2`, formID, respondentKey)
	r, err := scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLStore) ListResponses(ctx context.Context, formID string, opts ListOpts) ([]Response, error) {
	limit, offset := limits(opts)
	rows, err := s.db.QueryContext(ctx, `SELECT id,form_id,user_id,email,answers_json,score,max_score,started_at,submitted_at,duration_sec
		FROM responses WHERE form_id=$1 ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`, formID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetStats(ctx context.Context, formID string) (Stats, error) {
	if _, err := s.GetForm(ctx, formID); err != nil {
		return Stats{}, err
	}
	st := Stats{FormID: formID}
	var scoreSum, completionSum float64
	var scoredCount int64
	err := s.db.QueryRowContext(ctx, `SELECT total_responses,score_sum,scored_count,completion_sum,last_submitted_at
		FROM form_stats WHERE form_id=$1`, formID).
		Scan(&st.TotalResponses, &scoreSum, &scoredCount, &completionSum, &st.LastSubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return st, nil
	}
	if err != nil {
		return Stats{}, err
	}
	if scoredCount > 0 {
		avg := scoreSum / float64(scoredCount)
		st.AvgScore = &avg
	}
	if st.TotalResponses > 0 {
		cr := completionSum / float64(st.TotalResponses)
		st.CompletionRate = &cr
	}
	return st, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanForm(row rowScanner) (Form, error) {
	var f Form
	var kind, status, settings string
	err := row.Scan(&f.ID, &f.OwnerID, &f.Title, &f.Description, &kind, &status, &f.Public, &settings, &f.AIGenerated, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Form{}, ErrFormNotFound
	}
	if err != nil {
		return Form{}, err
	}
	f.Kind = FormKind(kind)
	f.Status = FormStatus(status)
	if err := json.Unmarshal([]byte(settings), &f.Settings); err != nil {
		return Form{}, err
	}
	return f, nil
}

func scanResponse(row rowScanner) (Response, error) {
	var r Response
	var answers string
	var score, maxScore sql.NullFloat64
	var startedAt, durationSec sql.NullInt64
	err := row.Scan(&r.ID, &r.FormID, &r.UserID, &r.Email, &answers, &score, &maxScore, &startedAt, &r.SubmittedAt, &durationSec)
	if err != nil {
		return Response{}, err
	}
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return Response{}, err
	}
	if score.Valid {
		r.Score = &score.Float64
	}
	if maxScore.Valid {
		r.MaxScore = &maxScore.Float64
	}
	r.StartedAt = startedAt.Int64
	r.DurationSec = durationSec.Int64
	return r, nil
}

func limits(opts ListOpts) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

// isUniqueViolation matches pgx (23505) and modernc sqlite constraint errors
// without binding the store to one driver's error type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "23505")
}
