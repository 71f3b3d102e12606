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

type packRoutes struct {
	ps service.PackServiceI
}

func NewPackRoutes(handler *gin.RouterGroup, ps service.PackServiceI, a *auth.TelegramAuth, limit gin.HandlerFunc) {
	r := &packRoutes{ps: ps}
	h := handler.Group("/packs")
	h.Use(a.TelegramAuthMiddleware())
	if limit != nil {
		h.Use(limit)
	}
	{
		h.GET("", r.ListActive)
		h.GET("/:id", r.GetPack)
	}
}

// NewPackAdminRoutes registers pack management under an already-guarded
// group (admin or partner).
func NewPackAdminRoutes(handler *gin.RouterGroup, ps service.PackServiceI) {
	r := &packRoutes{ps: ps}
	h := handler.Group("/packs")
	{
		h.GET("", r.ListManaged)
		h.POST("", r.CreatePack)
		h.PUT("/:id", r.UpdatePack)
		h.DELETE("/:id", r.DeletePack)
		h.POST("/:id/prompts", r.AddPrompt)
		h.PUT("/:id/prompts/:prompt_id", r.UpdatePrompt)
		h.DELETE("/:id/prompts/:prompt_id", r.DeletePrompt)
	}
}

func (r *packRoutes) ListActive(c *gin.Context) {
	log := logger.Logger()

	packs, err := r.ps.ListActive(c.Request.Context())
	if err != nil {
		log.Error("failed to list packs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list packs"})
		return
	}

	out := make([]gin.H, len(packs))
	for i, p := range packs {
		out[i] = gin.H{
			"id":          p.ID,
			"title":       p.Title,
			"slug":        p.Slug,
			"gender":      p.Gender,
			"preview_url": p.PreviewURL,
			"sort_order":  p.SortOrder,
		}
	}

	c.JSON(http.StatusOK, out)
}

func (r *packRoutes) GetPack(c *gin.Context) {
	log := logger.Logger()

	pack, err := r.ps.GetPack(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrPackNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "pack not found"})
			return
		}
		log.Error("failed to get pack", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get pack"})
		return
	}

	prompts := make([]gin.H, len(pack.Prompts))
	for i, p := range pack.Prompts {
		prompts[i] = gin.H{
			"id":              p.ID,
			"prompt_text":     p.PromptText,
			"negative_prompt": p.NegativePrompt,
			"style_tags":      p.StyleTags,
			"sort_order":      p.SortOrder,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          pack.ID,
		"title":       pack.Title,
		"slug":        pack.Slug,
		"gender":      pack.Gender,
		"preview_url": pack.PreviewURL,
		"sort_order":  pack.SortOrder,
		"is_active":   pack.IsActive,
		"prompts":     prompts,
	})
}

func (r *packRoutes) ListManaged(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	var (
		packs []*model.PhotoPack
		err   error
	)
	if c.GetBool("is_admin") {
		packs, err = r.ps.ListAll(c.Request.Context())
	} else {
		packs, err = r.ps.ListOwned(c.Request.Context(), user.ID)
	}
	if err != nil {
		log.Error("failed to list packs", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list packs"})
		return
	}

	out := make([]gin.H, len(packs))
	for i, p := range packs {
		out[i] = managedPackResponse(p)
	}

	c.JSON(http.StatusOK, out)
}

type PackRequest struct {
	Title      string `json:"title" binding:"required"`
	Slug       string `json:"slug" binding:"required"`
	Gender     string `json:"gender" binding:"required,oneof=male female any"`
	PreviewURL string `json:"preview_url"`
	SortOrder  int    `json:"sort_order"`
	IsActive   bool   `json:"is_active"`
}

func (r *packRoutes) CreatePack(c *gin.Context) {
	log := logger.Logger()

	var req PackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	pack := &model.PhotoPack{
		Title:      req.Title,
		Slug:       req.Slug,
		Gender:     req.Gender,
		PreviewURL: req.PreviewURL,
		SortOrder:  req.SortOrder,
		IsActive:   req.IsActive,
	}
	// Partner-created packs are owned by the partner; admin packs are global.
	if !c.GetBool("is_admin") {
		pack.OwnerPartnerID = &user.ID
	}

	if err := r.ps.CreatePack(c.Request.Context(), pack); err != nil {
		if errors.Is(err, service.ErrSlugTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "pack slug already exists"})
			return
		}
		log.Error("failed to create pack", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create pack"})
		return
	}

	c.JSON(http.StatusCreated, managedPackResponse(pack))
}

func (r *packRoutes) UpdatePack(c *gin.Context) {
	log := logger.Logger()

	var req PackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	pack := &model.PhotoPack{
		ID:         c.Param("id"),
		Title:      req.Title,
		Slug:       req.Slug,
		Gender:     req.Gender,
		PreviewURL: req.PreviewURL,
		SortOrder:  req.SortOrder,
		IsActive:   req.IsActive,
	}

	err := r.ps.UpdatePack(c.Request.Context(), user.ID, c.GetBool("is_admin"), pack)
	if err != nil {
		r.writePackError(c, err, "failed to update pack")
		return
	}

	c.JSON(http.StatusOK, managedPackResponse(pack))
}

func (r *packRoutes) DeletePack(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	disabled, err := r.ps.DeletePack(c.Request.Context(), user.ID, c.GetBool("is_admin"), c.Param("id"))
	if err != nil {
		r.writePackError(c, err, "failed to delete pack")
		return
	}

	if disabled {
		c.JSON(http.StatusOK, gin.H{"status": "disabled", "reason": "pack has generation history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type PromptRequest struct {
	PromptText     string   `json:"prompt_text" binding:"required"`
	NegativePrompt string   `json:"negative_prompt"`
	StyleTags      []string `json:"style_tags"`
	SortOrder      int      `json:"sort_order"`
}

func (r *packRoutes) AddPrompt(c *gin.Context) {
	log := logger.Logger()

	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	prompt := &model.PackPrompt{
		PackID:         c.Param("id"),
		PromptText:     req.PromptText,
		NegativePrompt: req.NegativePrompt,
		StyleTags:      req.StyleTags,
		SortOrder:      req.SortOrder,
	}

	err := r.ps.AddPrompt(c.Request.Context(), user.ID, c.GetBool("is_admin"), prompt)
	if err != nil {
		r.writePackError(c, err, "failed to add prompt")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": prompt.ID})
}

func (r *packRoutes) UpdatePrompt(c *gin.Context) {
	log := logger.Logger()

	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	prompt := &model.PackPrompt{
		ID:             c.Param("prompt_id"),
		PackID:         c.Param("id"),
		PromptText:     req.PromptText,
		NegativePrompt: req.NegativePrompt,
		StyleTags:      req.StyleTags,
		SortOrder:      req.SortOrder,
	}

	err := r.ps.UpdatePrompt(c.Request.Context(), user.ID, c.GetBool("is_admin"), prompt)
	if err != nil {
		r.writePackError(c, err, "failed to update prompt")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": prompt.ID})
}

func (r *packRoutes) DeletePrompt(c *gin.Context) {
	log := logger.Logger()

	user, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	err := r.ps.DeletePrompt(c.Request.Context(), user.ID, c.GetBool("is_admin"),
		c.Param("id"), c.Param("prompt_id"))
	if err != nil {
		r.writePackError(c, err, "failed to delete prompt")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (r *packRoutes) writePackError(c *gin.Context, err error, msg string) {
	log := logger.Logger()

	switch {
	case errors.Is(err, service.ErrPackNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "pack not found"})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
	default:
		log.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func managedPackResponse(p *model.PhotoPack) gin.H {
	resp := gin.H{
		"id":          p.ID,
		"title":       p.Title,
		"slug":        p.Slug,
		"gender":      p.Gender,
		"preview_url": p.PreviewURL,
		"sort_order":  p.SortOrder,
		"is_active":   p.IsActive,
	}
	if p.OwnerPartnerID != nil {
		resp["owner_partner_id"] = *p.OwnerPartnerID
	}
	return resp
}
