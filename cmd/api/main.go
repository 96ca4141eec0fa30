package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/hfiles/medical-records-api/internal/medicalfile"
	filerepo "github.com/hfiles/medical-records-api/internal/medicalfile/repo"
	"github.com/hfiles/medical-records-api/internal/router"
	"github.com/hfiles/medical-records-api/internal/token"
	"github.com/hfiles/medical-records-api/internal/user"
	userrepo "github.com/hfiles/medical-records-api/internal/user/repo"
	"github.com/hfiles/medical-records-api/pkg/blob"
	"github.com/hfiles/medical-records-api/pkg/database"
	"github.com/hfiles/medical-records-api/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	lg, err := utilities.InitLogger(utilities.LogConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting medical-records-api")

	// init db
	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	// wrap with sqlx for convenience in repos/services
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	defer sqlxDB.Close()

	// payload store on local disk
	blobs, err := blob.NewStore(os.Getenv("DATA_DIR"))
	if err != nil {
		sugar.Fatalf("blob store: %v", err)
	}

	// idempotent schema bootstrap
	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer bootCancel()
	users := userrepo.NewUserRepo(sqlxDB)
	if err := users.EnsureTable(bootCtx); err != nil {
		sugar.Fatalf("ensure users table: %v", err)
	}
	files := filerepo.NewFileRepo(sqlxDB)
	if err := files.EnsureTable(bootCtx); err != nil {
		sugar.Fatalf("ensure medical_files table: %v", err)
	}

	tokens, generatedSecret, err := token.NewService(token.ConfigFromEnv())
	if err != nil {
		sugar.Fatalf("token service: %v", err)
	}
	if generatedSecret {
		sugar.Warn("TOKEN_SECRET not set; using a random per-process secret, tokens will not survive restarts")
	}

	userSvc := user.NewService(users, nil, tokens, blobs, sugar)
	fileSvc := medicalfile.NewService(files, blobs, sugar)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// mount http server
	handler := router.RegisterRoutes(
		sugar,
		user.NewHandler(userSvc, sugar),
		medicalfile.NewHandler(fileSvc, sugar),
		tokens,
		filepath.Join(blobs.Root(), blob.AreaProfileImages),
	)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = "0.0.0.0:5179"
	}
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// shutdown http server
	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}
