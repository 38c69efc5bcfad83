package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/beatforge-backend/internal/middleware"
	"github.com/yungbote/beatforge-backend/internal/services"
	"github.com/yungbote/beatforge-backend/internal/types"
)

type SearchHandler struct {
	searchService     services.SearchService
	suggestionService services.SuggestionService
}

func NewSearchHandler(searchService services.SearchService, suggestionService services.SuggestionService) *SearchHandler {
	return &SearchHandler{searchService: searchService, suggestionService: suggestionService}
}

func (sh *SearchHandler) Search(c *gin.Context) {
	var filters types.SearchFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search parameters"})
		return
	}

	var userID *uuid.UUID
	if id, ok := middleware.UserIDFrom(c); ok {
		userID = &id
	}

	result := sh.searchService.Search(c.Request.Context(), userID, filters)
	c.JSON(http.StatusOK, result)
}

func (sh *SearchHandler) Suggestions(c *gin.Context) {
	prefix := c.Query("q")
	limit := parseLimit(c, 0)

	suggestions := sh.suggestionService.GetSuggestions(c.Request.Context(), prefix, limit)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (sh *SearchHandler) Autocomplete(c *gin.Context) {
	prefix := c.Query("q")
	limit := parseLimit(c, 0)

	result := sh.suggestionService.GetAutocomplete(c.Request.Context(), prefix, limit)
	c.JSON(http.StatusOK, result)
}

func (sh *SearchHandler) TrendingSearches(c *gin.Context) {
	limit := parseLimit(c, 0)

	queries := sh.suggestionService.GetTrendingSearches(c.Request.Context(), limit)
	c.JSON(http.StatusOK, gin.H{"queries": queries})
}

func parseLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return limit
}
