package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"property-outline-cms/internal/backup"
	"property-outline-cms/internal/config"
	"property-outline-cms/internal/content"
	"property-outline-cms/internal/db"
	"property-outline-cms/internal/lock"
	"property-outline-cms/internal/middleware"
	"property-outline-cms/internal/preview"
	"property-outline-cms/internal/property"
	"property-outline-cms/internal/user"
	"property-outline-cms/internal/worker"
	"property-outline-cms/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	config.LoadConfig()

	// Connect to database
	db.ConnectDb()
	defer db.CloseDb()

	// Migrate database schema
	db.Migrate()

	// Seed the initial admin account
	db.SeedAdmin()

	// Initialize Redis cache and the background worker pool
	cache := redis.NewCache(config.AppConfig.RedisAddress)
	defer cache.Close()
	pool := worker.NewPool(4)
	defer pool.Shutdown()

	// Initialize repositories
	userRepo := user.NewRepository(db.AppDb)
	propertyRepo := property.NewRepository(db.AppDb)
	contentRepo := content.NewRepository(db.AppDb)
	backupRepo := backup.NewRepository(db.AppDb)
	lockRepo := lock.NewRepository(db.AppDb)
	previewRepo := preview.NewRepository(db.AppDb)

	// Initialize services
	userService := user.NewService(userRepo)
	propertyService := property.NewService(propertyRepo, userService, cache, pool)
	lockService := lock.NewService(lockRepo, propertyService, userService)
	contentService := content.NewService(contentRepo, propertyService, lockService, backupRepo, cache)
	backupService := backup.NewService(backupRepo, propertyService)
	previewService := preview.NewService(
		previewRepo,
		propertyService,
		propertyRepo,
		contentRepo,
		cache,
		pool,
		config.AppConfig.BaseURL,
	)

	// Initialize handlers
	userHandler := user.NewHandler(userService)
	propertyHandler := property.NewHandler(propertyService)
	contentHandler := content.NewHandler(contentService)
	backupHandler := backup.NewHandler(backupService)
	lockHandler := lock.NewHandler(lockService)
	previewHandler := preview.NewHandler(previewService)

	authMw := &middleware.Auth{UserService: userService}

	// Initialize Gin router
	router := gin.Default()
	router.Use(middleware.ErrorHandler())

	// cors setting
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}

	if config.AppConfig.Environment == "development" {
		// Allow all origins in development
		corsConfig.AllowAllOrigins = true
	} else {
		// Restrict origins in production
		corsConfig.AllowOrigins = []string{config.AppConfig.FrontendAddress}
	}
	router.Use(cors.New(corsConfig))

	// User routes
	router.POST("/login", userHandler.Login)
	router.GET("/profile", authMw.AuthMiddleWare(), userHandler.GetProfile)
	router.GET("/users", authMw.AuthMiddleWare(), authMw.RequireAdmin(), userHandler.ListUsers)
	router.POST("/users", authMw.AuthMiddleWare(), authMw.RequireAdmin(), userHandler.CreateUser)
	router.PUT("/users/:id", authMw.AuthMiddleWare(), authMw.RequireAdmin(), userHandler.UpdateUser)
	router.DELETE("/users/:id", authMw.AuthMiddleWare(), authMw.RequireAdmin(), userHandler.DeleteUser)

	// Property routes
	router.GET("/properties", authMw.AuthMiddleWare(), propertyHandler.List)
	router.POST("/properties", authMw.AuthMiddleWare(), authMw.RequireAdmin(), propertyHandler.Create)
	router.GET("/properties/:id", authMw.AuthMiddleWare(), propertyHandler.Show)
	router.PUT("/properties/:id", authMw.AuthMiddleWare(), authMw.RequireAdmin(), propertyHandler.Update)
	router.DELETE("/properties/:id", authMw.AuthMiddleWare(), authMw.RequireAdmin(), propertyHandler.Delete)
	router.GET("/properties/:id/users", authMw.AuthMiddleWare(), authMw.RequireAdmin(), propertyHandler.ListMembers)
	router.POST("/properties/:id/users", authMw.AuthMiddleWare(), authMw.RequireAdmin(), propertyHandler.AddMember)
	router.DELETE("/properties/:id/users/:userId", authMw.AuthMiddleWare(), authMw.RequireAdmin(), propertyHandler.RemoveMember)

	// Content routes
	router.GET("/properties/:id/data", authMw.AuthMiddleWare(), contentHandler.GetData)
	router.POST("/properties/:id/data", authMw.AuthMiddleWare(), contentHandler.SaveDraft)
	router.POST("/properties/:id/publish", authMw.AuthMiddleWare(), contentHandler.Publish)
	router.GET("/properties/:id/history", authMw.AuthMiddleWare(), contentHandler.ListHistory)

	// Backup routes
	router.GET("/properties/:id/backups", authMw.AuthMiddleWare(), backupHandler.List)
	router.POST("/properties/:id/backups", authMw.AuthMiddleWare(), backupHandler.Create)
	router.PATCH("/properties/:id/backups/:backupId", authMw.AuthMiddleWare(), backupHandler.Update)
	router.DELETE("/properties/:id/backups/:backupId", authMw.AuthMiddleWare(), backupHandler.Delete)
	router.POST("/properties/:id/backups/:backupId/restore", authMw.AuthMiddleWare(), contentHandler.Restore)

	// Lock routes
	router.GET("/properties/:id/lock", authMw.AuthMiddleWare(), lockHandler.Check)
	router.POST("/properties/:id/lock", authMw.AuthMiddleWare(), lockHandler.Acquire)
	router.DELETE("/properties/:id/lock", authMw.AuthMiddleWare(), lockHandler.Release)

	// Preview and public routes
	router.POST("/properties/:id/preview", authMw.AuthMiddleWare(), previewHandler.Mint)
	router.GET("/public/:slug", previewHandler.Public)
	router.GET("/public/:slug/preview", previewHandler.Resolve)

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Printf("Server listening on port %s", serverPort)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Println("Server shutdown error:", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
