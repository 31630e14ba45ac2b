package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bhavishya-khunger/aiformbuilder/internal/ai"
	api "github.com/bhavishya-khunger/aiformbuilder/internal/api/http"
	auth "github.com/bhavishya-khunger/aiformbuilder/internal/auth/middleware"
	"github.com/bhavishya-khunger/aiformbuilder/internal/config"
	"github.com/bhavishya-khunger/aiformbuilder/internal/db"
	"github.com/bhavishya-khunger/aiformbuilder/internal/form"
	"github.com/bhavishya-khunger/aiformbuilder/internal/scoring"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath)
		},
	}
}

func runServer(ctx context.Context, configPath string) error {
	cfg, err := config.LoadFile(configPath, config.FromEnv())
	if err != nil {
		return err
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(openCtx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	store := form.NewSQLStore(dbh)
	grader := scoring.NewEngine()
	submit := form.NewSubmitService(store, grader)
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	deps := api.Deps{
		DB:            dbh,
		Store:         store,
		Submit:        submit,
		Grader:        grader,
		Auth:          authSvc,
		AICreditCost:  cfg.AICreditCost,
		SignupCredits: cfg.SignupCredits,
		CORSOrigins:   cfg.CORSOrigins,
	}
	if cfg.EnableAI {
		deps.Generator = ai.NewGenerator(cfg.AIBaseURL, cfg.AIModel, cfg.AIAPIKey)
		deps.Ledger = ai.NewLedger(dbh)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (mode=%s, db=%s, ai=%v)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver, cfg.EnableAI)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down")
	case <-ctx.Done():
		log.Println("context canceled, shutting down")
	}

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	return server.Shutdown(shutdownCtx)
}
