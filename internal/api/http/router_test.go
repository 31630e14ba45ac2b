package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	auth "github.com/bhavishya-khunger/aiformbuilder/internal/auth/middleware"
	"github.com/bhavishya-khunger/aiformbuilder/internal/db"
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
	"github.com/bhavishya-khunger/aiformbuilder/internal/scoring"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("file:apitest_%d?mode=memory&cache=shared", time.Now().UnixNano())
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })

	store := form.NewSQLStore(dbh)
	grader := scoring.NewEngine()
	return NewRouter(Deps{
		DB:            dbh,
		Store:         store,
		Submit:        form.NewSubmitService(store, grader),
		Grader:        grader,
		Auth:          auth.NewAuthService("test-secret"),
		SignupCredits: 10,
		CORSOrigins:   []string{"http://localhost:3000"},
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func registerOwner(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": email, "fullName": "Test Owner", "password": "hunter2hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	resp := decode[map[string]any](t, rec)
	token, _ := resp["token"].(string)
	if token == "" {
		t.Fatal("no token issued")
	}
	return token
}

func TestAuthRegisterAndLogin(t *testing.T) {
	h := newTestRouter(t)
	registerOwner(t, h, "owner@example.com")

	// duplicate email rejected
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]string{
		"email": "owner@example.com", "password": "hunter2hunter2",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("dup register: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "hunter2hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rec.Code, rec.Body.String())
	}
	token := decode[map[string]any](t, rec)["token"].(string)

	rec = doJSON(t, h, http.MethodGet, "/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: %d", rec.Code)
	}
	me := decode[map[string]any](t, rec)
	if me["credits"].(float64) != 10 {
		t.Fatalf("signup credits: %v", me["credits"])
	}

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: %d", rec.Code)
	}
}

func TestQuizLifecycle(t *testing.T) {
	h := newTestRouter(t)
	token := registerOwner(t, h, "quiz@example.com")

	// create a public quiz
	rec := doJSON(t, h, http.MethodPost, "/forms", token, map[string]any{
		"title": "Capitals", "kind": "quiz", "public": true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create form: %d %s", rec.Code, rec.Body.String())
	}
	f := decode[form.Form](t, rec)

	// publishing an empty quiz is rejected
	rec = doJSON(t, h, http.MethodPost, "/forms/"+f.ID+"/status", token, map[string]string{"status": "published"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("publish empty: %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/forms/"+f.ID+"/questions", token, map[string]any{
		"kind": "mcq", "text": "Capital of France?", "points": 2, "required": true,
		"options": []map[string]any{
			{"label": "Paris", "value": "paris", "is_correct": true},
			{"label": "Lyon", "value": "lyon"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add question: %d %s", rec.Code, rec.Body.String())
	}
	q := decode[form.Question](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/forms/"+f.ID+"/status", token, map[string]string{"status": "published"})
	if rec.Code != http.StatusOK {
		t.Fatalf("publish: %d %s", rec.Code, rec.Body.String())
	}

	// respondents never see the key
	rec = doJSON(t, h, http.MethodGet, "/public/forms/"+f.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("public fetch: %d", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "is_correct") || strings.Contains(body, "answer_key") {
		t.Fatalf("answer key leaked: %s", body)
	}

	// correct submission scores full points
	rec = doJSON(t, h, http.MethodPost, "/public/forms/"+f.ID+"/responses", "", map[string]any{
		"email": "student@example.com",
		"answers": []map[string]any{
			{"question_id": q.ID, "value": "paris"},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	res := decode[form.SubmitResult](t, rec)
	if res.Score == nil || *res.Score != 2 || res.MaxScore == nil || *res.MaxScore != 2 {
		t.Fatalf("score: %+v", res)
	}

	// single attempt per respondent by default
	rec = doJSON(t, h, http.MethodPost, "/public/forms/"+f.ID+"/responses", "", map[string]any{
		"email":   "student@example.com",
		"answers": []map[string]any{{"question_id": q.ID, "value": "lyon"}},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("second attempt: %d %s", rec.Code, rec.Body.String())
	}

	// owner sees responses and stats
	rec = doJSON(t, h, http.MethodGet, "/forms/"+f.ID+"/responses", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list responses: %d", rec.Code)
	}
	responses := decode[[]form.Response](t, rec)
	if len(responses) != 1 || responses[0].Email != "student@example.com" {
		t.Fatalf("responses: %+v", responses)
	}

	rec = doJSON(t, h, http.MethodGet, "/forms/"+f.ID+"/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: %d", rec.Code)
	}
	stats := decode[form.Stats](t, rec)
	if stats.TotalResponses != 1 || stats.AvgScore == nil || *stats.AvgScore != 2 {
		t.Fatalf("stats: %+v", stats)
	}

	// rescore returns the per-question breakdown without persisting
	rec = doJSON(t, h, http.MethodPost, "/forms/"+f.ID+"/responses/"+responses[0].ID+"/rescore", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rescore: %d %s", rec.Code, rec.Body.String())
	}
	sum := decode[form.Summary](t, rec)
	if sum.Score != 2 || len(sum.PerQuestion) != 1 || !sum.PerQuestion[0].Correct {
		t.Fatalf("rescore summary: %+v", sum)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	h := newTestRouter(t)
	ownerTok := registerOwner(t, h, "a@example.com")
	otherTok := registerOwner(t, h, "b@example.com")

	rec := doJSON(t, h, http.MethodPost, "/forms", ownerTok, map[string]any{"title": "Mine"})
	f := decode[form.Form](t, rec)

	if rec := doJSON(t, h, http.MethodGet, "/forms/"+f.ID, otherTok, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign read: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, "/forms/"+f.ID, otherTok, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("foreign delete: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/forms/"+f.ID, "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous read: %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodDelete, "/forms/"+f.ID, ownerTok, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("own delete: %d", rec.Code)
	}
}

func TestPublicFormVisibility(t *testing.T) {
	h := newTestRouter(t)
	token := registerOwner(t, h, "vis@example.com")

	rec := doJSON(t, h, http.MethodPost, "/forms", token, map[string]any{"title": "Draft", "public": true})
	f := decode[form.Form](t, rec)

	// draft forms are invisible to respondents
	if rec := doJSON(t, h, http.MethodGet, "/public/forms/"+f.ID, "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("draft visible: %d", rec.Code)
	}
	// and reject submissions
	if rec := doJSON(t, h, http.MethodPost, "/public/forms/"+f.ID+"/responses", "", map[string]any{
		"answers": []map[string]any{},
	}); rec.Code != http.StatusNotFound {
		t.Fatalf("draft submit: %d", rec.Code)
	}
}

func TestQuestionValidationAtTheEdge(t *testing.T) {
	h := newTestRouter(t)
	token := registerOwner(t, h, "edge@example.com")

	rec := doJSON(t, h, http.MethodPost, "/forms", token, map[string]any{"title": "F"})
	f := decode[form.Form](t, rec)

	// mcq without options never reaches the store
	rec = doJSON(t, h, http.MethodPost, "/forms/"+f.ID+"/questions", token, map[string]any{
		"kind": "mcq", "text": "broken",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad definition: %d %s", rec.Code, rec.Body.String())
	}
}
