package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kartik-py12/NoteScript/internal/config"
	"github.com/kartik-py12/NoteScript/internal/db"
	"github.com/kartik-py12/NoteScript/internal/identity"
	"github.com/kartik-py12/NoteScript/internal/logging"
	"github.com/kartik-py12/NoteScript/internal/metrics"
	"github.com/kartik-py12/NoteScript/internal/notes"
	"github.com/kartik-py12/NoteScript/internal/users"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel)

	ctx := context.Background()

	var (
		noteStore notes.Store
		userStore users.Store
	)
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL, cfg.MaxConns, cfg.MinConns, cfg.ConnMaxLifetime, cfg.ConnMaxIdleTime)
		if err != nil {
			log.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
		noteStore = notes.NewRepository(pool)
		userStore = users.NewRepository(pool)
	} else {
		// In-memory mode for local development.
		log.Warn("DATABASE_URL not set, using in-memory storage")
		noteStore = notes.NewMemStore()
		userStore = users.NewMemStore()
	}

	engine := notes.NewEngine(noteStore, log)

	m := metrics.New()

	r := chi.NewRouter()
	r.Use(logging.Middleware(log))
	r.Use(m.Middleware)
	r.Use(identity.Middleware(cfg.IdentityHeader))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())
	r.Mount("/api/notes", notes.NewHandlers(engine).Routes())
	r.Mount("/api/users", users.NewHandlers(userStore, engine).Routes())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("NoteScript API listening", "addr", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
