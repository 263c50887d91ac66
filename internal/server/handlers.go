package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gnonk323/wordle-archive/internal/model"
	"github.com/gnonk323/wordle-archive/internal/nyt"
	"github.com/gnonk323/wordle-archive/internal/service"
)

type handler struct {
	syncs   SyncRunner
	archive ArchiveProvider
	db      Pinger
}

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Wordle Archive API is running"})
}

func (h *handler) health(c *gin.Context) {
	if err := h.db.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) games(c *gin.Context) {
	archive, err := h.archive.Games(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load games"})
		return
	}
	c.JSON(http.StatusOK, archive)
}

// exportGames serves the same payload as /games as a downloadable file.
func (h *handler) exportGames(c *gin.Context) {
	archive, err := h.archive.Games(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load games"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="wordle-archive.json"`)
	c.JSON(http.StatusOK, archive)
}

// sync runs the orchestrator. Expected "nothing to do" outcomes are 200s
// with a descriptive status; only a concurrent sync, rejected credentials,
// or a real failure map to non-2xx responses.
func (h *handler) sync(c *gin.Context) {
	summary, err := h.syncs.Run(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSyncInProgress):
			c.JSON(http.StatusConflict, summary)
		case errors.Is(err, nyt.ErrUnauthorized):
			c.JSON(http.StatusUnauthorized, gin.H{
				"status": model.SyncStatusFailed,
				"error":  "session credentials rejected",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"status": model.SyncStatusFailed,
				"error":  err.Error(),
			})
		}
		return
	}
	c.JSON(http.StatusOK, summary)
}
