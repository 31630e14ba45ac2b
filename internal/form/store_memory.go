package form

import (
	"context"
	"sort"
	"sync"
)

// memoryStore backs tests and the seed command. It mirrors the SQL store's
// semantics, including the uniqueness constraint on (form, respondent).
type memoryStore struct {
	mu          sync.RWMutex
	forms       map[string]Form
	questions   map[string]Question
	responses   map[string]Response
	respondents map[string]string // formID|respondentKey -> responseID
	stats       map[string]*statsAccum
}

type statsAccum struct {
	total           int64
	scoreSum        float64
	scoredCount     int64
	completionSum   float64
	lastSubmittedAt int64
}

func NewMemoryStore() Store {
	return &memoryStore{
		forms:       map[string]Form{},
		questions:   map[string]Question{},
		responses:   map[string]Response{},
		respondents: map[string]string{},
		stats:       map[string]*statsAccum{},
	}
}

func (m *memoryStore) PutForm(_ context.Context, f Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forms[f.ID] = f
	return nil
}

func (m *memoryStore) GetForm(_ context.Context, id string) (Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forms[id]
	if !ok {
		return Form{}, ErrFormNotFound
	}
	return f, nil
}

func (m *memoryStore) ListFormsByOwner(_ context.Context, ownerID string, opts ListOpts) ([]Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Form
	for _, f := range m.forms {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return paginate(out, opts), nil
}

func (m *memoryStore) DeleteForm(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[id]; !ok {
		return ErrFormNotFound
	}
	delete(m.forms, id)
	for qid, q := range m.questions {
		if q.FormID == id {
			delete(m.questions, qid)
		}
	}
	for rid, r := range m.responses {
		if r.FormID == id {
			delete(m.responses, rid)
		}
	}
	for key := range m.respondents {
		if len(key) > len(id) && key[:len(id)] == id {
			delete(m.respondents, key)
		}
	}
	delete(m.stats, id)
	return nil
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[q.FormID]; !ok {
		return ErrFormNotFound
	}
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return q, nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrQuestionNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) ListQuestions(_ context.Context, formID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Question
	for _, q := range m.questions {
		if q.FormID == formID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memoryStore) CountQuestions(_ context.Context, formID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, q := range m.questions {
		if q.FormID == formID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) ReorderQuestions(_ context.Context, formID string, orderedIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for idx, qid := range orderedIDs {
		q, ok := m.questions[qid]
		if !ok || q.FormID != formID {
			return ErrQuestionNotFound
		}
		q.Order = idx
		m.questions[qid] = q
	}
	return nil
}

func (m *memoryStore) InsertResponse(_ context.Context, r Response, respondentKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.forms[r.FormID]; !ok {
		return ErrFormNotFound
	}
	if respondentKey != "" {
		idx := r.FormID + "|" + respondentKey
		if _, taken := m.respondents[idx]; taken {
			return ErrConflict
		}
		m.respondents[idx] = r.ID
	}
	m.responses[r.ID] = r

	acc, ok := m.stats[r.FormID]
	if !ok {
		acc = &statsAccum{}
		m.stats[r.FormID] = acc
	}
	acc.total++
	if r.Score != nil {
		acc.scoreSum += *r.Score
		acc.scoredCount++
	}
	total := 0
	for _, q := range m.questions {
		if q.FormID == r.FormID {
			total++
		}
	}
	if total > 0 {
		acc.completionSum += float64(len(r.Answers)) / float64(total)
	}
	if r.SubmittedAt > acc.lastSubmittedAt {
		acc.lastSubmittedAt = r.SubmittedAt
	}
	return nil
}

func (m *memoryStore) GetResponse(_ context.Context, id string) (Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.responses[id]
	if !ok {
		return Response{}, ErrResponseNotFound
	}
	return r, nil
}

func (m *memoryStore) FindResponseByRespondent(_ context.Context, formID, respondentKey string) (*Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if respondentKey == "" {
		return nil, nil
	}
	rid, ok := m.respondents[formID+"|"+respondentKey]
	if !ok {
		return nil, nil
	}
	r := m.responses[rid]
	return &r, nil
}

func (m *memoryStore) ListResponses(_ context.Context, formID string, opts ListOpts) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Response
	for _, r := range m.responses {
		if r.FormID == formID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt > out[j].SubmittedAt })
	return paginate(out, opts), nil
}

func (m *memoryStore) GetStats(_ context.Context, formID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.forms[formID]; !ok {
		return Stats{}, ErrFormNotFound
	}
	st := Stats{FormID: formID}
	acc, ok := m.stats[formID]
	if !ok {
		return st, nil
	}
	st.TotalResponses = acc.total
	st.LastSubmittedAt = acc.lastSubmittedAt
	if acc.scoredCount > 0 {
		avg := acc.scoreSum / float64(acc.scoredCount)
		st.AvgScore = &avg
	}
	if acc.total > 0 {
		cr := acc.completionSum / float64(acc.total)
		st.CompletionRate = &cr
	}
	return st, nil
}

func paginate[T any](in []T, opts ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(in) {
			return nil
		}
		in = in[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(in) {
		in = in[:opts.Limit]
	}
	return in
}
