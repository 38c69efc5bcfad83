package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/beatforge-backend/internal/repos"
)

type BeatHandler struct {
	beatRepo repos.BeatRepo
}

func NewBeatHandler(beatRepo repos.BeatRepo) *BeatHandler {
	return &BeatHandler{beatRepo: beatRepo}
}

func (bh *BeatHandler) GetByID(c *gin.Context) {
	beatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid beat id"})
		return
	}

	beats, err := bh.beatRepo.GetByIDs(c.Request.Context(), nil, []uuid.UUID{beatID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "beat lookup failed"})
		return
	}
	if len(beats) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "beat not found"})
		return
	}
	c.JSON(http.StatusOK, beats[0])
}
