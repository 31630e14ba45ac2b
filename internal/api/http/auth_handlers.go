package http

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/bhavishya-khunger/aiformbuilder/internal/auth/middleware"
)

type registerReq struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResp struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type userView struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Credits  int64  `json:"credits"`
}

// RegisterHandler creates an owner account. New accounts start with a credit
// balance so AI generation works out of the box.
func RegisterHandler(db *sql.DB, a *auth.AuthService, signupCredits int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if !decodeBody(w, r, &req) {
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || !strings.Contains(email, "@") {
			writeError(w, http.StatusBadRequest, "valid email required")
			return
		}
		if len(req.Password) < 8 {
			writeError(w, http.StatusBadRequest, "password too short")
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		id := uuid.NewString()
		_, err = db.ExecContext(r.Context(),
			`INSERT INTO users (id, email, fullname, password_hash, role, credits, created_at)
			 VALUES ($1,$2,$3,$4,'owner',$5,$6)`,
			id, email, strings.TrimSpace(req.FullName), string(hash), signupCredits, time.Now().Unix())
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique") {
				writeError(w, http.StatusConflict, "email already registered")
				return
			}
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		token, err := a.IssueJWT(id, "owner")
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		writeJSON(w, http.StatusCreated, authResp{
			Token: token,
			User:  userView{ID: id, Email: email, FullName: strings.TrimSpace(req.FullName), Role: "owner", Credits: signupCredits},
		})
	}
}

func LoginHandler(db *sql.DB, a *auth.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decodeBody(w, r, &req) {
			return
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		var u userView
		var hash string
		err := db.QueryRowContext(r.Context(),
			`SELECT id, email, fullname, password_hash, role, credits FROM users WHERE email=$1`, email).
			Scan(&u.ID, &u.Email, &u.FullName, &hash, &u.Role, &u.Credits)
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		token, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		writeJSON(w, http.StatusOK, authResp{Token: token, User: u})
	}
}

// MeHandler returns the authenticated user's profile and credit balance.
func MeHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := auth.SubjectFromContext(r.Context())
		if sub == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var u userView
		err := db.QueryRowContext(r.Context(),
			`SELECT id, email, fullname, role, credits FROM users WHERE id=$1`, sub).
			Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Credits)
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}
