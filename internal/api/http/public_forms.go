package http

import (
	"math/rand"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

// PublicFormHandler serves the respondent view of a form: questions with all
// correct-answer material stripped, shuffled per request when the form asks
// for it.
func PublicFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := store.GetForm(r.Context(), chi.URLParam(r, "formID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if !f.Answerable() {
			writeDomainError(w, form.ErrFormNotAnswerable)
			return
		}
		qs, err := store.ListQuestions(r.Context(), f.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]form.Question, len(qs))
		for i, q := range qs {
			out[i] = q.StripKey()
		}
		if f.Settings.ShuffleQuestions {
			rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"form":      publicFormView(f),
			"questions": out,
		})
	}
}

// publicFormView hides owner identity and internal flags from respondents.
func publicFormView(f form.Form) map[string]any {
	return map[string]any{
		"id":          f.ID,
		"title":       f.Title,
		"description": f.Description,
		"kind":        f.Kind,
		"settings": map[string]any{
			"collect_email":  f.Settings.CollectEmail,
			"time_limit_sec": f.Settings.TimeLimitSec,
		},
	}
}
