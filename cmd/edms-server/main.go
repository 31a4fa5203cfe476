// EDMS 服务入口：装配存储、会话、通知与 HTTP 服务
package main

import (
	"bufio"
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"edms/internal/apiserver/admin"
	"edms/internal/apiserver/auth"
	"edms/internal/apiserver/files"
	"edms/internal/apiserver/render"
	"edms/internal/apiserver/server"
	"edms/internal/config"
	"edms/internal/notify"
	"edms/internal/shared/objstore"
	"edms/internal/shared/session"
	"edms/internal/shared/storage/mongostore"
)

// Version 构建版本，由 -ldflags 注入
var Version = "dev"

func main() {
	cfg := config.Load()
	log.Printf("Starting EDMS %s: %s", Version, cfg)

	renderer, err := render.New()
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()

	objects, err := objstore.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := objects.EnsureBucket(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to ensure bucket: %v", err)
	}
	cancel()

	var sessions session.Store
	if cfg.RedisURL != "" {
		sessions, err = session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
	} else {
		log.Println("REDIS_URL not set, using in-memory sessions")
		sessions = session.NewMemoryStore()
	}
	defer sessions.Close()

	mailer := notify.New(cfg.SMTP)
	defer mailer.Close()

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := auth.SeedSystemAccounts(seedCtx, store); err != nil {
		seedCancel()
		log.Fatalf("Failed to seed system accounts: %v", err)
	}
	seedCancel()

	handler := server.NewHandler(
		renderer,
		auth.NewMiddleware(cfg.Auth, sessions),
		auth.NewHandler(store, sessions, cfg.Auth, renderer, mailer),
		files.NewHandler(store, store, objects, renderer, mailer),
		admin.NewHandler(store, store, objects, renderer),
		Version,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      5 * time.Minute, // 大文件上传/下载
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("EDMS listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	// 控制台输入 Stop 也可触发退出
	stopCh := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if line := scanner.Text(); line == "Stop" || line == "stop" {
				close(stopCh)
				return
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %s, shutting down", sig)
	case <-stopCh:
		log.Println("Stop requested from console, shutting down")
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("EDMS stopped")
}
