package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mzielinski/wspolnota-api/pkg/auth"
	"github.com/mzielinski/wspolnota-api/pkg/database"
	"github.com/mzielinski/wspolnota-api/pkg/handlers"
	"github.com/mzielinski/wspolnota-api/pkg/poller"
	"github.com/mzielinski/wspolnota-api/pkg/upstream"
)

func main() {
	// Load .env if it exists
	// Try root and parent directories for flexibility
	envPaths := []string{".env", "../.env", "../../.env"}
	for _, p := range envPaths {
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
			break
		}
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)

	upstreamURL := os.Getenv("UPSTREAM_URL")
	if upstreamURL == "" {
		upstreamURL = "http://localhost:4000"
	}
	client := upstream.NewClient(upstreamURL)

	chat := poller.New(chatPollInterval(), func(ctx context.Context) (map[string]int64, error) {
		// Read the service token at poll time so rotation takes effect
		// without a restart.
		return client.FetchChatLatest(ctx, os.Getenv("CHAT_SERVICE_TOKEN"))
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go chat.Run(ctx)

	h := &handlers.Handler{DB: db, Upstream: client, Chat: chat}

	r := gin.Default()

	// Admin interface - serve static files from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	// Routes
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Wspólnota Community Calendar API",
			"version": "1.2.0",
		})
	})

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	// Admin Endpoints
	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
		admin.PUT("/donations/settings", h.UpdateDonationSettings)
		admin.GET("/donations", h.ListDonations)
	}

	// Public donation endpoints (no API key: the donation form posts directly)
	r.GET("/api/donations/settings", h.GetDonationSettings)
	r.POST("/api/donations", h.SubmitDonation)

	// Frontend Endpoints
	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.GET("/calendar/:year/:month", h.GetMonthGrid)
		api.GET("/calendar/day/:date", h.GetDay)
		api.GET("/categories", h.GetCategories)
		api.GET("/shop/products", h.GetShopProducts)
		api.GET("/chat/status", h.GetChatStatus)
		api.POST("/chat/:channel/seen", h.MarkChatSeen)
		api.GET("/usage", h.GetMyUsage)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}

func chatPollInterval() time.Duration {
	seconds, err := strconv.Atoi(os.Getenv("CHAT_POLL_SECONDS"))
	if err != nil || seconds <= 0 {
		seconds = 30
	}
	return time.Duration(seconds) * time.Second
}
