//	@title			Gallery Uploader API
//	@version		1.0
//	@description	HTTP gateway for an S3-backed image gallery: upload, list, and delete objects under the gallery/ prefix.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	AdminSecret
//	@in							header
//	@name						Authorization
//	@description				Static admin token compared verbatim against the configured secret.

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/jungyuya/gallery-uploader/internal/config"
	"github.com/jungyuya/gallery-uploader/internal/gallery"
	appMiddleware "github.com/jungyuya/gallery-uploader/internal/middleware"
	"github.com/jungyuya/gallery-uploader/internal/storage"

	_ "github.com/jungyuya/gallery-uploader/docs/swagger"
)

func main() {
	cfg := config.Load()

	store, err := storage.NewMinioStorage(
		cfg.StorageEndpoint,
		cfg.StorageRegion,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	svc := gallery.NewService(store)
	handler := gallery.NewHandler(svc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: appMiddleware.AllowOrigin(cfg.AllowedOrigins),
		AllowedMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:  []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:          300,
	}))
	r.Use(appMiddleware.FilterOrigin(cfg.AllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// Public listing
	r.Get("/images", handler.List)

	// Mutating endpoints require the admin secret
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.RequireAdmin(cfg.AdminSecret))
		r.Post("/upload", handler.Upload)
		r.Delete("/image/{key}", handler.DeleteOne)
		r.Delete("/images/batch", handler.DeleteBatch)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s, bucket=%s)", cfg.Port, cfg.AppEnv, cfg.StorageBucket)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
