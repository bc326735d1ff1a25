package handler

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mzielinski/wspolnota-api/pkg/auth"
	"github.com/mzielinski/wspolnota-api/pkg/database"
	"github.com/mzielinski/wspolnota-api/pkg/handlers"
	"github.com/mzielinski/wspolnota-api/pkg/poller"
	"github.com/mzielinski/wspolnota-api/pkg/upstream"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	// Initialize DB
	db := database.InitDB()
	_ = auth.EnsureAdminExists(db)

	upstreamURL := os.Getenv("UPSTREAM_URL")
	if upstreamURL == "" {
		upstreamURL = "http://localhost:4000"
	}
	client := upstream.NewClient(upstreamURL)

	// Serverless instances are short-lived; the poller still serves chat
	// status for warm invocations.
	chat := poller.New(30*time.Second, func(ctx context.Context) (map[string]int64, error) {
		return client.FetchChatLatest(ctx, os.Getenv("CHAT_SERVICE_TOKEN"))
	})
	go chat.Run(context.Background())

	h := &handlers.Handler{DB: db, Upstream: client, Chat: chat}

	// Initialize Gin
	gin.SetMode(gin.ReleaseMode)
	r = gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Static files served from embedded FS
	r.StaticFS("/static", h.GetStaticFS())

	// Routes
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Wspólnota Community Calendar API (Vercel)",
			"version": "1.2.0",
		})
	})

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

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

	r.GET("/api/donations/settings", h.GetDonationSettings)
	r.POST("/api/donations", h.SubmitDonation)

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
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
