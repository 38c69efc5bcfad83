package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/beatforge-backend/internal/middleware"
	"github.com/yungbote/beatforge-backend/internal/services"
)

type RecommendationHandler struct {
	recommendationService services.RecommendationService
}

func NewRecommendationHandler(recommendationService services.RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{recommendationService: recommendationService}
}

const defaultRecommendationLimit = 20

func (rh *RecommendationHandler) Personalized(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	limit := parseLimit(c, defaultRecommendationLimit)

	var excludeIDs []uuid.UUID
	for _, raw := range c.QueryArray("exclude") {
		if id, err := uuid.Parse(raw); err == nil {
			excludeIDs = append(excludeIDs, id)
		}
	}

	beats := rh.recommendationService.GetPersonalizedRecommendations(c.Request.Context(), userID, limit, excludeIDs)
	c.JSON(http.StatusOK, gin.H{"beats": beats})
}

func (rh *RecommendationHandler) Trending(c *gin.Context) {
	limit := parseLimit(c, defaultRecommendationLimit)
	beats := rh.recommendationService.GetTrendingBeats(c.Request.Context(), limit)
	c.JSON(http.StatusOK, gin.H{"beats": beats})
}

func (rh *RecommendationHandler) Similar(c *gin.Context) {
	beatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid beat id"})
		return
	}
	limit := parseLimit(c, defaultRecommendationLimit)
	beats := rh.recommendationService.FindSimilarBeats(c.Request.Context(), beatID, limit)
	c.JSON(http.StatusOK, gin.H{"beats": beats})
}

func (rh *RecommendationHandler) TrackInteraction(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req struct {
		BeatID   uuid.UUID `json:"beat_id"`
		Action   string    `json:"action"`
		Duration *int      `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// The service swallows store failures; only invalid input surfaces.
	if err := rh.recommendationService.TrackUserInteraction(c.Request.Context(), userID, req.BeatID, req.Action, req.Duration); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}
