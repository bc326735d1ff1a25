package handlers

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mzielinski/wspolnota-api/pkg/auth"
	"github.com/mzielinski/wspolnota-api/pkg/calendar"
	"github.com/mzielinski/wspolnota-api/pkg/database"
	"github.com/mzielinski/wspolnota-api/pkg/models"
	"github.com/mzielinski/wspolnota-api/pkg/occupancy"
	"github.com/mzielinski/wspolnota-api/pkg/poller"
	"github.com/mzielinski/wspolnota-api/pkg/upstream"
)

//go:embed static/*
var staticEmbed embed.FS

// monthEventLimit caps how many events one month fetch asks the upstream for.
const monthEventLimit = 500

// Handler contains dependencies for the route handlers
type Handler struct {
	DB       *gorm.DB
	Upstream *upstream.Client
	Chat     *poller.Poller
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		// Strip "Bearer " if present
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}

		claims, err := auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the API key for frontend routes using HMAC
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			c.Abort()
			return
		}

		clientID, err := auth.VerifyHMACKey(key)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			c.Abort()
			return
		}

		// Fetch or create API key record to track usage
		var apiKey database.APIKey
		h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:       key,
			Name:      clientID,
			RateLimit: 10000,
		})

		c.Set("apiKey", &apiKey)
		c.Set("clientID", clientID)
		c.Next()
	}
}

// parseTypeFilter builds the category visibility filter from the "types"
// query parameter. An absent parameter means every category is visible; a
// present one is the whitelist of visible categories.
func parseTypeFilter(c *gin.Context) models.TypeFilter {
	raw, ok := c.GetQuery("types")
	if !ok {
		return nil
	}

	visible := make(map[string]bool)
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			visible[t] = true
		}
	}

	filter := make(models.TypeFilter, len(calendar.Categories()))
	for _, cat := range calendar.Categories() {
		filter[cat] = visible[cat]
	}
	return filter
}

// bearerToken extracts an optional upstream bearer token from the request.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return ""
}

// GetMonthGrid returns the 42-cell calendar grid for one month. Upstream
// fetch failures degrade to an empty event list; the grid itself always
// renders.
func (h *Handler) GetMonthGrid(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1970 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
		return
	}

	city := c.Query("city")
	events, err := h.Upstream.FetchMonthEvents(c.Request.Context(), year, time.Month(month), city, monthEventLimit)
	if err != nil {
		log.Printf("month events fetch failed for %d-%02d: %v", year, month, err)
		events = nil
	}

	grid := calendar.BuildMonthGrid(year, time.Month(month), events, parseTypeFilter(c), time.Now())

	h.RecordUsage(c, len(events), calendar.GridCells)
	c.JSON(http.StatusOK, grid)
}

// GetDay returns the selected day's capped event list enriched with
// registration and occupancy data. Availability is fetched concurrently for
// all of the day's events; any single failure degrades that event to
// "occupancy unknown".
func (h *Handler) GetDay(c *gin.Context) {
	dateKey := c.Param("date")
	day, ok := calendar.ParseDateKey(dateKey, time.Local)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, expected YYYY-MM-DD"})
		return
	}

	ctx := c.Request.Context()
	city := c.Query("city")
	events, err := h.Upstream.FetchMonthEvents(ctx, day.Year(), day.Month(), city, monthEventLimit)
	if err != nil {
		log.Printf("day events fetch failed for %s: %v", dateKey, err)
		events = nil
	}

	bucket := calendar.DayEvents(dateKey, events, parseTypeFilter(c), time.Local)

	ids := make([]string, 0, len(bucket))
	for _, ev := range bucket {
		ids = append(ids, ev.ID)
	}
	availability := h.Upstream.FetchAvailabilityBatch(ctx, ids)

	registered := map[string]bool{}
	if token := bearerToken(c); token != "" {
		if regs, err := h.Upstream.FetchRegisteredIDs(ctx, token); err == nil {
			registered = regs
		} else {
			log.Printf("registered ids fetch failed: %v", err)
		}
	}

	h.RecordUsage(c, len(bucket), 1)
	c.JSON(http.StatusOK, gin.H{
		"date":   dateKey,
		"events": occupancy.Enrich(bucket, registered, availability),
	})
}

// GetCategories returns the known categories with their legend colors.
func (h *Handler) GetCategories(c *gin.Context) {
	cats := calendar.Categories()
	out := make([]gin.H, 0, len(cats))
	for _, cat := range cats {
		out = append(out, gin.H{"type": cat, "color": calendar.CategoryColor(cat)})
	}
	c.JSON(http.StatusOK, gin.H{"categories": out})
}

// GetShopProducts proxies the shop listing. A failed upstream fetch
// degrades to an empty listing, never an error page.
func (h *Handler) GetShopProducts(c *gin.Context) {
	products, err := h.Upstream.FetchShopProducts(c.Request.Context())
	if err != nil {
		log.Printf("shop products fetch failed: %v", err)
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetChatStatus returns the chat poller's current per-channel snapshot.
func (h *Handler) GetChatStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.Chat.Status()})
}

// MarkChatSeen records that the user caught up on one channel.
func (h *Handler) MarkChatSeen(c *gin.Context) {
	channel := c.Param("channel")
	if channel == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel is required"})
		return
	}
	h.Chat.MarkSeen(channel)
	c.JSON(http.StatusOK, gin.H{"message": "marked seen"})
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, eventCount, dayCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	today := time.Now().Format("2006-01-02")

	// Use OnConflict for a single-query upsert (supported by both Postgres and SQLite)
	h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_events":  gorm.Expr("total_events + ?", eventCount),
			"total_days":    gorm.Expr("total_days + ?", dayCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		TotalEvents:  eventCount,
		TotalDays:    dayCount,
	})
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = 10000
	}

	// Generate key using HMAC
	key := auth.GenerateHMACKey(req.Name)

	// Create preview (e.g., abc...****)
	preview := ""
	if len(key) > 8 {
		preview = key[:3] + "..." + key[len(key)-4:]
	} else {
		preview = "****"
	}

	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: preview,
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	h.DB.Find(&keys)
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	id := c.Param("id")
	var usage []database.APIUsage
	h.DB.Where("key_id = ?", id).Order("date desc").Limit(30).Find(&usage)
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// AdminInterface serves the admin web interface from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	_ = auth.EnsureAdminExists(h.DB)

	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
