package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"watchvault/internal/auth"
	"watchvault/internal/backfill"
	"watchvault/internal/catalog"
	"watchvault/internal/images"
	"watchvault/internal/importer"
	"watchvault/internal/notify"
	"watchvault/internal/sellrequests"
	"watchvault/pkg/database"
	"watchvault/pkg/utils"
)

func main() {
	utils.LoadEnvFile()

	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	router := gin.Default()

	// Optional: avoid "trusted all proxies" warning
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	hub := notify.NewHub()
	router.GET("/ws", notify.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":     "not_ready",
				"db_error":   err.Error(),
				"ws_clients": stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"ws_clients": stats.WSClients,
		})
	})

	// Stores and pipeline
	catalogRepo := catalog.NewRepo(db)
	imageStore := images.NewStore(db)
	ingestor := images.NewIngestor(imageStore, utils.LoadIngestConfig())
	imp := importer.New(catalogRepo, ingestor)

	// Auth
	authCfg := utils.LoadAuthConfig()
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	if err := authRepo.Seed(context.Background(), authCfg.SeedEmail, authCfg.SeedPassword); err != nil {
		log.Fatalf("admin seed failed: %v", err)
	}
	authHandler := auth.NewHandler(authRepo, tokenSvc, authCfg.AdminEmails)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Public storefront
	catalogHandler := catalog.NewHandler(catalogRepo, imp, hub)
	catalogHandler.RegisterPublicRoutes(router.Group("/api/watches"))

	imageHandler := images.NewHandler(imageStore)
	imageHandler.RegisterRoutes(router.Group(images.RoutePrefix))

	sellRepo := sellrequests.NewRepo(db)
	sellHandler := sellrequests.NewHandler(sellRepo)
	sellHandler.RegisterPublicRoutes(router.Group("/api/sell-requests"))

	// Admin (protected)
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc, authRepo))
	catalogHandler.RegisterAdminRoutes(admin.Group("/watches"))
	sellHandler.RegisterAdminRoutes(admin.Group("/sell-requests"))

	// Maintenance passes, kicked off on demand from the dashboard.
	runner := backfill.NewRunner(catalogRepo, ingestor)
	admin.POST("/backfill/records", func(c *gin.Context) {
		sum, err := runner.Records(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": sum})
			return
		}
		c.JSON(http.StatusOK, sum)
	})
	admin.POST("/backfill/images", func(c *gin.Context) {
		sum, err := runner.Migrate(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": sum})
			return
		}
		c.JSON(http.StatusOK, sum)
	})

	httpSrv := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("HTTP API server listening on :8080")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("server stopped")
}
