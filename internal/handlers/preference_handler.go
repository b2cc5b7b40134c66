package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/services"
)

// PreferenceHandler handles notification preference requests.
type PreferenceHandler struct {
	preferenceService services.PreferenceServicer
	auditService      services.AuditServicer
}

// NewPreferenceHandler creates a new PreferenceHandler.
func NewPreferenceHandler(preferenceService services.PreferenceServicer, auditService services.AuditServicer) *PreferenceHandler {
	return &PreferenceHandler{preferenceService: preferenceService, auditService: auditService}
}

// UpdatePreferencesRequest maps notification types to their enabled flag.
// Types absent from the map are left unchanged; unknown types are ignored.
type UpdatePreferencesRequest struct {
	Preferences map[models.NotificationType]bool `json:"preferences" binding:"required"`
}

// GetPreferences handles reading the user's notification preferences.
// @Summary     Get notification preferences
// @Description Get the enabled flag for every notification type; unset types default to enabled
// @Tags        preferences
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]bool "Preferences keyed by notification type"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /preferences/notifications [get]
func (h *PreferenceHandler) GetPreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	prefs, err := h.preferenceService.GetPreferences(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}

// UpdatePreferences handles updating the user's notification preferences.
// @Summary     Update notification preferences
// @Description Set the enabled flag for one or more notification types
// @Tags        preferences
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdatePreferencesRequest true "Preferences to update"
// @Success     200 {object} map[string]bool "Updated preferences keyed by notification type"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /preferences/notifications [put]
func (h *PreferenceHandler) UpdatePreferences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.preferenceService.SetPreferences(userID, req.Preferences); err != nil {
		respondWithError(c, err)
		return
	}

	prefs, err := h.preferenceService.GetPreferences(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_NOTIFICATION_PREFERENCES", "notification_preference", userID, c.ClientIP(),
		map[string]interface{}{"preferences": req.Preferences})

	c.JSON(http.StatusOK, gin.H{"preferences": prefs})
}
