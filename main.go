package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"notes-api/auth"
	"notes-api/config"
	"notes-api/db"
	"notes-api/handlers"
	"notes-api/logger"
	appmw "notes-api/middleware"
	"notes-api/seed"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

func newRouter(h *handlers.Handler, svc *auth.Service, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(appmw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(appmw.CORS)

	r.Post("/notes", h.CreateNote)
	r.Get("/notes", h.GetNotes)
	r.Get("/notes/{id}", h.GetNote)
	r.Delete("/notes/{id}", h.DeleteNote)
	r.Patch("/notes/{id}", h.UpdateNote)

	r.Post("/users", h.Register)
	r.Post("/users/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(appmw.Authenticate(svc))
		r.Get("/users/me", h.Me)
		r.Delete("/users/me/token", h.Logout)
	})

	return r
}

// setup opens the configured store, builds the auth service and, when
// seedData is set, loads the seed fixtures. The store is closed again if any
// later step fails.
func setup(ctx context.Context, cfg *config.Config, seedData bool) (db.Store, *auth.Service, error) {
	store, err := db.Open(ctx, db.Config{
		Driver:   cfg.StoreDriver,
		MongoURI: cfg.MongoURI,
		MySQLDSN: cfg.MySQLDSN,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	svc, err := auth.NewService(store, auth.NewSigner(cfg.JWTSecret), cfg.BcryptCost)
	if err != nil {
		store.Close(ctx)
		return nil, nil, fmt.Errorf("auth setup: %w", err)
	}

	if seedData {
		if err := seed.PopulateNotes(ctx, store); err != nil {
			store.Close(ctx)
			return nil, nil, fmt.Errorf("seed notes: %w", err)
		}
		if _, err := seed.PopulateUsers(ctx, store, svc); err != nil {
			store.Close(ctx)
			return nil, nil, fmt.Errorf("seed users: %w", err)
		}
	}

	return store, svc, nil
}

func main() {
	seedData := flag.Bool("seed", false, "replace notes and users with the seed fixtures before serving")
	flag.Parse()

	cfg, err := config.Load(".env")
	if err != nil {
		l := logger.New(zerolog.InfoLevel, os.Stderr)
		l.Fatal().Err(err).Msg("Error loading config")
	}
	log := logger.New(cfg.LogLevel, os.Stdout)

	ctx := context.Background()
	store, svc, err := setup(ctx, cfg, *seedData)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("startup failed")
	}
	if *seedData {
		log.Info().Msg("seed fixtures loaded")
	}

	r := newRouter(handlers.New(store, svc), svc, log)

	log.Info().Str("port", cfg.Port).Str("driver", cfg.StoreDriver).Msg("Started")
	err = http.ListenAndServe(":"+cfg.Port, r)
	store.Close(ctx)
	log.Fatal().Err(err).Msg("server stopped")
}
