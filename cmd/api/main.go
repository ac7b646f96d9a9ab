package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"leadflow/auth"
	"leadflow/db"
	"leadflow/httpapi"
	"leadflow/leadqueue"
	"leadflow/schedule"
	"leadflow/sheetcfg"
	"leadflow/sheets"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	ctx := context.Background()

	connString := os.Getenv("DATABASE_URL")
	pool, err := db.NewPool(ctx, connString)
	if err != nil {
		slog.Error("bootstrap database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	sheetsToken := os.Getenv("SHEETS_API_TOKEN")
	store := sheets.NewRESTStore(sheets.StaticToken(sheetsToken), nil)

	authService := auth.NewService(auth.NewRepository(pool), jwtSecret)
	configService := sheetcfg.NewService(sheetcfg.NewRepository(pool), store)

	lockManager := leadqueue.NewLockManager(leadqueue.NewLockRepository(pool), store)
	queue := leadqueue.NewQueue(configService, store, lockManager)
	writer := leadqueue.NewWriter(store, leadqueue.NewLockRepository(pool))

	scheduleService := schedule.NewService(schedule.NewRepository(pool), store, configService)

	handler := httpapi.NewRouter(httpapi.Services{
		Auth:     authService,
		Config:   configService,
		Queue:    queue,
		Writer:   writer,
		Schedule: scheduleService,
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	server := http.Server{
		Handler: handler,
		Addr:    addr,
	}

	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		server.Close()
	}()

	slog.Info("listening", "addr", addr)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("server closed", "error", err)
		os.Exit(1)
	}
	slog.Info("server closed")
}
