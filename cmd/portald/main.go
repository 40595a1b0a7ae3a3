package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/examstack/examportal/internal/api/http"
	"github.com/examstack/examportal/internal/auth"
	"github.com/examstack/examportal/internal/config"
	"github.com/examstack/examportal/internal/exam"
	"github.com/examstack/examportal/internal/images"
	"github.com/examstack/examportal/internal/session"
	"github.com/examstack/examportal/internal/storage"
	"github.com/examstack/examportal/internal/tablestore"
)

func main() {
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	backend, err := openBackend(ctx, cfg, blobs)
	if err != nil {
		log.Fatalf("table store: %v", err)
	}
	store := tablestore.New(backend,
		tablestore.NewTTLCache(cfg.CacheTTL),
		tablestore.Policy{MaxAttempts: cfg.RetryMaxAttempts, BaseDelay: cfg.RetryBaseDelay},
	)

	repo := exam.NewRepo(store)
	ledger := exam.NewLedger(repo)
	sessions := session.NewManager(repo, images.NewBlobResolver(blobs), cfg.SessionTTL, cfg.SessionMaxQuestions)
	coordinator := exam.NewCoordinator(repo, ledger, sessions)

	deps := api.Deps{Repo: repo, Ledger: ledger, Sessions: sessions, Coordinator: coordinator}
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second)) // store writes retry with backoff
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, repo))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.Get("/exams", api.ListExamsHandler(deps))
		pr.Get("/exams/{examID}", api.GetExamHandler(deps))
		pr.Get("/exams/{examID}/attempt-status", api.AttemptStatusHandler(deps))
		pr.Post("/exams/{examID}/attempts", api.StartAttemptHandler(deps))
		pr.Get("/exams/{examID}/session", api.SessionViewHandler(deps))
		pr.Post("/exams/{examID}/answers", api.RecordAnswerHandler(deps))
		pr.Post("/exams/{examID}/answers/clear", api.ClearAnswerHandler(deps))
		pr.Post("/exams/{examID}/review", api.ToggleReviewHandler(deps))
		pr.Post("/exams/{examID}/submit", api.SubmitHandler(deps))

		pr.Get("/results", api.ResultsHistoryHandler(deps))
		pr.Get("/results/{resultID}", api.GetResultHandler(deps))
		pr.Get("/results/{resultID}/responses", api.ResultResponsesHandler(deps))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (store=%s)", cfg.HTTPAddr, cfg.StoreDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func openBackend(ctx context.Context, cfg config.Config, blobs storage.BlobStore) (tablestore.Backend, error) {
	switch cfg.StoreDriver {
	case "sqlite", "postgres":
		return tablestore.OpenSQL(ctx, tablestore.Driver(cfg.StoreDriver), cfg.StoreDSN)
	default: // csv over the blob store
		return tablestore.NewCSVBackend(blobs), nil
	}
}
