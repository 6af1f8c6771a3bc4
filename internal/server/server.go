package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/loopinhq/loopin/internal/cache"
	"github.com/loopinhq/loopin/internal/database"
	"github.com/loopinhq/loopin/internal/handlers"
	"github.com/loopinhq/loopin/internal/middleware"
	"github.com/loopinhq/loopin/internal/storage"
)

type Server struct {
	db      database.Service
	blobs   *storage.Local
	handler *handlers.Handler
}

// NewServer creates and configures a new server
func NewServer() *http.Server {
	// Initialize database
	db := database.New()

	// Optional Redis cache for profile joins
	cache.Init()

	// Local blob storage for image uploads
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}
	blobs, err := storage.NewLocal(uploadDir, siteURL+"/uploads")
	if err != nil {
		log.Fatalf("Failed to initialize blob storage: %v", err)
	}

	// Create unified handler
	handler := handlers.NewHandler(db.GetDB(), blobs)

	// Create server instance
	newServer := &Server{
		db:      db,
		blobs:   blobs,
		handler: handler,
	}

	// Configure Gin router
	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("🚀 Server starting on port %s\n", port)
	fmt.Println("📝 Press Ctrl+C to stop the server")

	return server
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(rate.Limit(20), 40))

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	// Uploaded images
	r.Static("/uploads", s.blobs.Dir())

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Thread routes (public reads)
		api.GET("/threads", s.handler.Thread.GetThreads)
		api.GET("/threads/:id", s.handler.Thread.GetThread)
		api.GET("/threads/:id/posts", s.handler.Post.GetPosts)
		api.GET("/categories", s.handler.Thread.GetCategories)

		// Search (public)
		api.GET("/search", s.handler.Search.Search)

		// Profile routes (public reads)
		api.GET("/users/:id", s.handler.Profile.GetProfile)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// Auth protected routes
			protected.GET("/me", s.handler.Auth.GetMe)

			// Thread protected routes
			protected.POST("/threads", s.handler.Thread.CreateThread)
			protected.PATCH("/threads/:id/moderate", s.handler.Thread.ModerateThread)
			protected.POST("/threads/:id/posts", s.handler.Post.CreatePost)

			// Vote routes
			protected.POST("/threads/:id/vote", s.handler.Vote.VoteThread)
			protected.POST("/posts/:id/vote", s.handler.Vote.VotePost)

			// Follow routes
			protected.POST("/threads/:id/follow", s.handler.Follow.ToggleFollow)
			protected.GET("/following", s.handler.Follow.GetFollowedThreads)

			// Profile protected routes
			protected.PUT("/users/:id", s.handler.Profile.UpdateProfile)

			// Upload routes
			protected.POST("/uploads", s.handler.Upload.Upload)
			protected.DELETE("/uploads/:key", s.handler.Upload.Delete)
		}
	}

	return r
}
