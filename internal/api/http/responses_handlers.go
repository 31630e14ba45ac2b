package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	auth "github.com/bhavishya-khunger/aiformbuilder/internal/auth/middleware"
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

type submitReq struct {
	Email     string           `json:"email,omitempty"`
	StartedAt int64            `json:"started_at,omitempty"`
	Answers   []form.RawAnswer `json:"answers"`
}

// SubmitResponseHandler accepts a submission to a public form. Identity is
// the authenticated subject when present, the collected email otherwise.
func SubmitResponseHandler(svc *form.SubmitService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitReq
		if !decodeBody(w, r, &req) {
			return
		}
		res, err := svc.Submit(r.Context(), form.SubmitRequest{
			FormID:    chi.URLParam(r, "formID"),
			UserID:    auth.SubjectFromContext(r.Context()),
			Email:     req.Email,
			StartedAt: req.StartedAt,
			Answers:   req.Answers,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func ListResponsesHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		rs, err := store.ListResponses(r.Context(), f.ID, listOpts(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if rs == nil {
			rs = []form.Response{}
		}
		writeJSON(w, http.StatusOK, rs)
	}
}

func GetResponseHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		resp, err := store.GetResponse(r.Context(), chi.URLParam(r, "responseID"))
		if err != nil || resp.FormID != f.ID {
			writeDomainError(w, form.ErrResponseNotFound)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// RescoreResponseHandler re-runs the grader over a stored response against
// the form's current answer keys and returns the per-question breakdown.
// Nothing is persisted; the stored score stays as graded at submission time.
func RescoreResponseHandler(store form.Store, grader form.Grader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		if f.Kind != form.FormQuiz {
			writeError(w, http.StatusUnprocessableEntity, "not a quiz")
			return
		}
		resp, err := store.GetResponse(r.Context(), chi.URLParam(r, "responseID"))
		if err != nil || resp.FormID != f.ID {
			writeDomainError(w, form.ErrResponseNotFound)
			return
		}
		qs, err := store.ListQuestions(r.Context(), f.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, grader.Grade(qs, resp.Answers))
	}
}

func FormStatsHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		stats, err := store.GetStats(r.Context(), f.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
