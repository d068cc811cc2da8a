package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"shelflife.org/internal/auth"
	"shelflife.org/internal/httpapi"
	"shelflife.org/internal/inventory"
	"shelflife.org/internal/obs"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("SHELFLIFE_COMMIT"))

	secret := os.Getenv("SHELFLIFE_AUTH_SECRET")
	if secret == "" {
		log.Fatal("SHELFLIFE_AUTH_SECRET is required")
	}

	dsn := os.Getenv("SHELFLIFE_PG_DSN")
	if dsn == "" {
		log.Fatal("SHELFLIFE_PG_DSN is required")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	userStore := auth.NewPGUserStore(db)
	revocations := auth.NewPGRevocationStore(db, nil)

	sessions, err := auth.NewSessions(tokens, revocations, userStore)
	if err != nil {
		log.Fatalf("sessions: %v", err)
	}
	users, err := auth.NewUsers(userStore, sessions)
	if err != nil {
		log.Fatalf("users: %v", err)
	}
	products, err := inventory.NewService(inventory.NewPGStore(db))
	if err != nil {
		log.Fatalf("products: %v", err)
	}

	api, err := httpapi.New(httpapi.Config{
		Sessions:   sessions,
		Users:      users,
		Products:   products,
		ReadyProbe: httpapi.ReadyProbe{DB: db},
		Version:    version,
	})
	if err != nil {
		log.Fatalf("api: %v", err)
	}

	addr := os.Getenv("SHELFLIFE_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting shelflife-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = db.Close()
	log.Println("Stopped")
}
