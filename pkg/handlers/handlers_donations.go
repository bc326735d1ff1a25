package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mzielinski/wspolnota-api/pkg/database"
	"github.com/mzielinski/wspolnota-api/pkg/models"
)

// donationSettings loads the single settings row, creating it with defaults
// on first use.
func (h *Handler) donationSettings() (database.DonationSetting, error) {
	var settings database.DonationSetting
	err := h.DB.FirstOrCreate(&settings, database.DonationSetting{ID: 1}).Error
	return settings, err
}

// GetDonationSettings returns the current donation campaign configuration
func (h *Handler) GetDonationSettings(c *gin.Context) {
	settings, err := h.donationSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load donation settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateDonationSettings updates the donation campaign configuration (admin)
func (h *Handler) UpdateDonationSettings(c *gin.Context) {
	var req struct {
		Goal          float64 `json:"goal"`
		MinimumAmount float64 `json:"minimum_amount"`
		Currency      string  `json:"currency"`
		Description   string  `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.MinimumAmount < 0 || req.Goal < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amounts must not be negative"})
		return
	}

	settings, err := h.donationSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load donation settings"})
		return
	}

	settings.Goal = req.Goal
	settings.MinimumAmount = req.MinimumAmount
	if req.Currency != "" {
		settings.Currency = req.Currency
	}
	settings.Description = req.Description

	if err := h.DB.Save(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update donation settings"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SubmitDonation records a donation. An amount below the configured minimum
// is a validation outcome shown to the user, not a server fault.
func (h *Handler) SubmitDonation(c *gin.Context) {
	var req models.DonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"accepted": false, "message": err.Error()})
		return
	}

	settings, err := h.donationSettings()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load donation settings"})
		return
	}

	if req.Amount < settings.MinimumAmount {
		c.JSON(http.StatusOK, gin.H{
			"accepted": false,
			"message":  "Donation amount is below the minimum",
			"minimum":  settings.MinimumAmount,
		})
		return
	}

	donation := database.Donation{
		ID:      uuid.NewString(),
		Amount:  req.Amount,
		Name:    req.Name,
		Email:   req.Email,
		Message: req.Message,
	}

	if err := h.DB.Create(&donation).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not record donation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accepted": true,
		"id":       donation.ID,
	})
}

// ListDonations returns the most recent donations (admin)
func (h *Handler) ListDonations(c *gin.Context) {
	var donations []database.Donation
	h.DB.Order("created_at desc").Limit(100).Find(&donations)
	c.JSON(http.StatusOK, gin.H{"donations": donations})
}
