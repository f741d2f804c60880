package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/ocrp-academy/trainportal/internal/api/http"
	"github.com/ocrp-academy/trainportal/internal/assessment"
	"github.com/ocrp-academy/trainportal/internal/assistant"
	auth "github.com/ocrp-academy/trainportal/internal/auth/middleware"
	"github.com/ocrp-academy/trainportal/internal/bank"
	"github.com/ocrp-academy/trainportal/internal/certificate"
	"github.com/ocrp-academy/trainportal/internal/config"
	"github.com/ocrp-academy/trainportal/internal/cpd"
	"github.com/ocrp-academy/trainportal/internal/db"
	"github.com/ocrp-academy/trainportal/internal/eventlog"
	"github.com/ocrp-academy/trainportal/internal/progress"
	"github.com/ocrp-academy/trainportal/internal/rbac"
	"github.com/ocrp-academy/trainportal/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- Question catalog (validated at startup) ---
	catalog, err := bank.LoadEmbedded()
	if err != nil {
		log.Fatalf("question catalog: %v", err)
	}

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	sessionStore := assessment.NewSQLStore(dbh)
	engine := assessment.New(sessionStore)
	progressStore := progress.NewSQLStore(dbh)
	cpdStore := cpd.NewSQLStore(dbh)
	issuer := certificate.NewIssuer(certificate.NewSQLStore(dbh))
	events := eventlog.NewRepo(dbh)

	snapshots, err := storage.NewFSStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("snapshot store: %v", err)
	}

	// The text-generation collaborator is optional; without it the
	// assistant answers with its fallback string.
	assistSvc := assistant.New(nil)

	practiceCfg := assessment.PracticeConfig{
		QuestionCount: cfg.PracticeQuestionCount,
		TimeLimit:     cfg.PracticeTimeLimit,
		PassingScore:  cfg.PracticePassingScore,
		MaxAttempts:   cfg.PracticeMaxAttempts,
	}

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Public pricing catalog
	r.Get("/tiers", api.ListTiersHandler())

	// Protected API (JWT -> role/tier in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachFromDB(dbh, true))

		// Learner flow
		pr.With(rbac.Require("progress:view-own")).
			Get("/progress", api.GetProgressHandler(progressStore))
		pr.With(rbac.Require("module:complete")).
			Post("/progress/modules", api.CompleteModuleHandler(progressStore, events))

		pr.With(rbac.Require("session:start")).
			Post("/sessions/final", api.StartFinalHandler(engine, catalog, progressStore, events))
		pr.With(rbac.Require("session:start")).
			Post("/sessions/practice", api.StartPracticeHandler(engine, catalog, practiceCfg, events))
		pr.With(rbac.Require("session:view-own")).
			Get("/sessions/{sessionID}", api.GetSessionHandler(engine))
		pr.With(rbac.Require("session:answer")).
			Post("/sessions/{sessionID}/answers", api.SubmitAnswerHandler(engine))
		pr.With(rbac.Require("session:submit")).
			Post("/sessions/{sessionID}/submit", api.SubmitSessionHandler(engine, progressStore, events))

		pr.With(rbac.Require("entitlement:view")).
			Get("/entitlements", api.GetEntitlementsHandler())
		pr.With(rbac.Require("entitlement:view")).
			Post("/tiers/upgrade", api.UpgradeTierHandler(dbh, events))

		pr.With(rbac.Require("cpd:view")).
			Get("/cpd", api.GetCPDHandler(cpdStore))
		pr.With(rbac.Require("cpd:record")).
			Post("/cpd/activities", api.RecordCPDActivityHandler(cpdStore, events))

		pr.With(rbac.Require("certificate:issue")).
			Post("/certificate", api.IssueCertificateHandler(issuer, progressStore, sessionStore, dbh, events))

		pr.With(rbac.Require("assistant:ask")).
			Post("/assistant", api.AskAssistantHandler(assistSvc))

		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Admin dashboard
		pr.With(rbac.Require("report:view")).
			Get("/admin/report", api.CohortReportHandler(progressStore))
		pr.With(rbac.Require("audit:search")).
			Get("/admin/audit", api.AuditSearchHandler(events))
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/admin/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/admin/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("users:export")).
			Get("/admin/users/{userID}/export", api.ExportLearnerHandler(progressStore, cpdStore, snapshots))
		pr.With(rbac.Require("users:delete")).
			Post("/admin/users/delete", api.DeleteLearnerDataHandler(dbh, snapshots))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s, bank=%d questions)", cfg.HTTPAddr, cfg.DBDriver, catalog.Len())
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
