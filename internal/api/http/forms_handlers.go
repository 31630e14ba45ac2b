package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	auth "github.com/bhavishya-khunger/aiformbuilder/internal/auth/middleware"
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

type formReq struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Kind        form.FormKind      `json:"kind"`
	Public      *bool              `json:"public,omitempty"`
	Settings    *form.FormSettings `json:"settings,omitempty"`
}

func CreateFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req formReq
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Title == "" {
			writeError(w, http.StatusBadRequest, "title required")
			return
		}
		kind := req.Kind
		if kind == "" {
			kind = form.FormPlain
		}
		if kind != form.FormPlain && kind != form.FormQuiz {
			writeError(w, http.StatusBadRequest, "kind must be form or quiz")
			return
		}
		now := time.Now().Unix()
		f := form.Form{
			ID:          uuid.NewString(),
			OwnerID:     auth.SubjectFromContext(r.Context()),
			Title:       req.Title,
			Description: req.Description,
			Kind:        kind,
			Status:      form.StatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if req.Public != nil {
			f.Public = *req.Public
		}
		if req.Settings != nil {
			f.Settings = *req.Settings
		}
		if err := store.PutForm(r.Context(), f); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

func ListMyFormsHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := auth.SubjectFromContext(r.Context())
		forms, err := store.ListFormsByOwner(r.Context(), owner, listOpts(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if forms == nil {
			forms = []form.Form{}
		}
		writeJSON(w, http.StatusOK, forms)
	}
}

// GetFormHandler serves the owner view: the form plus its full questions,
// answer keys included.
func GetFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		qs, err := store.ListQuestions(r.Context(), f.ID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if qs == nil {
			qs = []form.Question{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"form": f, "questions": qs})
	}
}

func UpdateFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		var req formReq
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Title != "" {
			f.Title = req.Title
		}
		f.Description = req.Description
		if req.Kind != "" {
			if req.Kind != form.FormPlain && req.Kind != form.FormQuiz {
				writeError(w, http.StatusBadRequest, "kind must be form or quiz")
				return
			}
			f.Kind = req.Kind
		}
		if req.Public != nil {
			f.Public = *req.Public
		}
		if req.Settings != nil {
			f.Settings = *req.Settings
		}
		f.UpdatedAt = time.Now().Unix()
		if err := store.PutForm(r.Context(), f); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

type statusReq struct {
	Status form.FormStatus `json:"status"`
}

// SetFormStatusHandler moves a form through its lifecycle. Publishing a quiz
// with no questions is rejected since it could never be scored.
func SetFormStatusHandler(store form.Store) http.HandlerFunc {
	valid := map[form.FormStatus]bool{
		form.StatusDraft:     true,
		form.StatusPublished: true,
		form.StatusArchived:  true,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		var req statusReq
		if !decodeBody(w, r, &req) {
			return
		}
		if !valid[req.Status] {
			writeError(w, http.StatusBadRequest, "status must be draft, published or archived")
			return
		}
		if req.Status == form.StatusPublished {
			n, err := store.CountQuestions(r.Context(), f.ID)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			if n == 0 {
				writeError(w, http.StatusUnprocessableEntity, "cannot publish a form with no questions")
				return
			}
		}
		f.Status = req.Status
		f.UpdatedAt = time.Now().Unix()
		if err := store.PutForm(r.Context(), f); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func DeleteFormHandler(store form.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := ownedForm(w, r, store)
		if !ok {
			return
		}
		if err := store.DeleteForm(r.Context(), f.ID); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ownedForm loads the form from the URL and enforces ownership. Admins pass
// the ownership check via their wildcard role.
func ownedForm(w http.ResponseWriter, r *http.Request, store form.Store) (form.Form, bool) {
	f, err := store.GetForm(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		writeDomainError(w, err)
		return form.Form{}, false
	}
	sub := auth.SubjectFromContext(r.Context())
	if f.OwnerID != sub && !isAdmin(r) {
		writeError(w, http.StatusForbidden, "not your form")
		return form.Form{}, false
	}
	return f, true
}

func listOpts(r *http.Request) form.ListOpts {
	var o form.ListOpts
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		o.Limit = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil {
		o.Offset = v
	}
	return o
}
