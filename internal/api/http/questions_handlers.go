package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

// AddQuestionHandler appends one question to a form the caller owns. The
// question lands at the end of the current order.
func AddQuestionHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		var q form.Question
		if !decodeBody(w, r, &q) {
			return
		}
		q.ID = uuid.NewString()
		q.FormID = f.ID
		if err := form.ValidateDefinition(q); err != nil {
			writeDomainError(w, err)
			return
		}
		n, err := store.CountQuestions(r.Context(), f.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		q.Order = n
		if err := store.PutQuestion(r.Context(), q); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

func UpdateQuestionHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		prev, err := store.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
		if err != nil || prev.FormID != f.ID {
			writeDomainError(w, form.ErrQuestionNotFound)
			return
		}
		var q form.Question
		if !decodeBody(w, r, &q) {
			return
		}
		// Identity and position are not editable through this endpoint.
		q.ID = prev.ID
		q.FormID = prev.FormID
		q.Order = prev.Order
		if err := form.ValidateDefinition(q); err != nil {
			writeDomainError(w, err)
			return
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

func DeleteQuestionHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		q, err := store.GetQuestion(r.Context(), chi.URLParam(r, "questionID"))
		if err != nil || q.FormID != f.ID {
			writeDomainError(w, form.ErrQuestionNotFound)
			return
		}
		if err := store.DeleteQuestion(r.Context(), q.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type reorderReq struct {
	QuestionIDs []string `json:"question_ids"`
}

// ReorderQuestionsHandler rewrites the form's question order. The id list
// must be a permutation of the form's current questions.
func ReorderQuestionsHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		var req reorderReq
		if !decodeBody(w, r, &req) {
			return
		}
		if err := store.ReorderQuestions(r.Context(), f.ID, req.QuestionIDs); err != nil {
			writeDomainError(w, err)
			return
		}
		qs, err := store.ListQuestions(r.Context(), f.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, qs)
	}
}
