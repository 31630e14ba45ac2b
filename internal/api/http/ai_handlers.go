package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bhavishya-khunger/aiformbuilder/internal/ai"
	auth "github.com/bhavishya-khunger/aiformbuilder/internal/auth/middleware"
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

type generateReq struct {
	Prompt string `json:"prompt"`
}

// GenerateFormHandler turns a natural-language prompt into a draft form.
// Credits are debited before the model call and refunded when the call or the
// parse fails, so a bad model reply never costs the user.
func GenerateFormHandler(store form.Store, gen *ai.Generator, ledger *ai.Ledger, cost int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateReq
		if !decodeBody(w, r, &req) {
			return
		}
		prompt := strings.TrimSpace(req.Prompt)
		if prompt == "" {
			writeError(w, http.StatusBadRequest, "prompt required")
			return
		}
		sub := auth.SubjectFromContext(r.Context())

		if err := ledger.Debit(r.Context(), sub, cost); err != nil {
			if errors.Is(err, ai.ErrInsufficientCredits) {
				writeError(w, http.StatusPaymentRequired, "insufficient credits")
				return
			}
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}

		draft, err := generateDraft(r.Context(), gen, prompt)
		if err != nil {
			// Refund on a fresh context: the request may already be cancelled.
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ledger.Refund(rctx, sub, cost)
			if errors.Is(err, ai.ErrNotConfigured) {
				writeError(w, http.StatusServiceUnavailable, "ai generation not configured")
				return
			}
			writeError(w, http.StatusBadGateway, "generation failed")
			return
		}

		now := time.Now().Unix()
		f := form.Form{
			ID:          uuid.NewString(),
			OwnerID:     sub,
			Title:       draft.Title,
			Description: draft.Description,
			Kind:        form.FormPlain,
			Status:      form.StatusDraft,
			AIGenerated: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := store.PutForm(r.Context(), f); err != nil {
			writeDomainError(w, err)
			return
		}
		qs := make([]form.Question, 0, len(draft.Questions))
		for i, q := range draft.Questions {
			q.ID = uuid.NewString()
			q.FormID = f.ID
			q.Order = i
			q.AIGenerated = true
			if err := store.PutQuestion(r.Context(), q); err != nil {
				writeDomainError(w, err)
				return
			}
			qs = append(qs, q)
		}
		writeJSON(w, http.StatusCreated, map[string]any{"form": f, "questions": qs})
	}
}

func generateDraft(ctx context.Context, gen *ai.Generator, prompt string) (ai.Draft, error) {
	reply, err := gen.Generate(ctx, prompt)
	if err != nil {
		return ai.Draft{}, err
	}
	return ai.ParseDraft(reply)
}
