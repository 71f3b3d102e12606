package api

import (
	"errors"
	"net/http"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type generationRoutes struct {
	gs service.GenerationServiceI
}

func NewGenerationRoutes(handler *gin.RouterGroup, gs service.GenerationServiceI, a *auth.TelegramAuth, limit gin.HandlerFunc) {
	r := &generationRoutes{gs: gs}
	h := handler.Group("/generations")
	h.Use(a.TelegramAuthMiddleware())
	if limit != nil {
		h.Use(limit)
	}
	{
		h.GET("", r.ListMyJobs)
		h.GET("/:id", r.GetJob)
	}
}

func (r *generationRoutes) ListMyJobs(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	jobs, err := r.gs.ListMyJobs(c.Request.Context(), user.ID)
	if err != nil {
		log.Error("failed to list generation jobs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list generation jobs"})
		return
	}

	out := make([]gin.H, len(jobs))
	for i, j := range jobs {
		out[i] = jobResponse(j)
	}

	c.JSON(http.StatusOK, out)
}

func (r *generationRoutes) GetJob(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	job, err := r.gs.GetJob(c.Request.Context(), user.ID, c.GetBool("is_admin"), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "generation job not found"})
		case errors.Is(err, service.ErrAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		default:
			log.Error("failed to get generation job", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get generation job"})
		}
		return
	}

	c.JSON(http.StatusOK, jobResponse(job))
}

func jobResponse(j *model.GenerationJob) gin.H {
	return gin.H{
		"id":               j.ID,
		"pack_id":          j.PackID,
		"total_photos":     j.TotalPhotos,
		"completed_photos": j.CompletedPhotos,
		"status":           j.Status,
		"result_urls":      j.ResultURLs,
		"created_at":       j.CreatedAt,
		"updated_at":       j.UpdatedAt,
	}
}
