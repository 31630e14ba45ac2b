package cli

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/bhavishya-khunger/aiformbuilder/internal/config"
	"github.com/bhavishya-khunger/aiformbuilder/internal/db"
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
)

func newSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo owner and a sample published quiz",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.LoadFile(configPath, config.FromEnv())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), 12)
	if err != nil {
		return err
	}
	ownerID := uuid.NewString()
	_, err = dbh.ExecContext(ctx,
		`INSERT INTO users (id, email, fullname, password_hash, role, credits, created_at)
		 VALUES ($1,$2,$3,$4,'owner',$5,$6) ON CONFLICT (email) DO NOTHING`,
		ownerID, "demo@example.com", "Demo Owner", string(hash), cfg.SignupCredits, time.Now().Unix())
	if err != nil {
		return err
	}

	store := form.NewSQLStore(dbh)
	now := time.Now().Unix()
	f := form.Form{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Title:   "Capitals of Europe",
		Kind:    form.FormQuiz,
		Status:  form.StatusPublished,
		Public:  true,
		Settings: form.FormSettings{
			CollectEmail: true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := store.PutForm(ctx, f); err != nil {
		return err
	}

	questions := []form.Question{
		{
			Kind: form.KindMCQ, Text: "Capital of France?", Required: true, Points: 2,
			Options: []form.Option{
				{Label: "Paris", Value: "paris", IsCorrect: true},
				{Label: "Lyon", Value: "lyon"},
				{Label: "Marseille", Value: "marseille"},
			},
		},
		{
			Kind: form.KindCheckbox, Text: "Which of these are in Scandinavia?", Points: 3,
			Options: []form.Option{
				{Label: "Oslo", Value: "oslo", IsCorrect: true},
				{Label: "Stockholm", Value: "stockholm", IsCorrect: true},
				{Label: "Vienna", Value: "vienna"},
			},
		},
		{
			Kind: form.KindLinearScale, Text: "How confident are you?", Range: 5,
			MinLabel: "Not at all", MaxLabel: "Very",
		},
	}
	for i, q := range questions {
		q.ID = uuid.NewString()
		q.FormID = f.ID
		q.Order = i
		if err := store.PutQuestion(ctx, q); err != nil {
			return err
		}
	}

	log.Printf("seeded demo owner demo@example.com and quiz %s (db=%s)", f.ID, cfg.DBDriver)
	return nil
}
