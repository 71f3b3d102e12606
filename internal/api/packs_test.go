package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/internal/service/mocks"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newPackRouter(ps *mocks.MockPackService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	r := &packRoutes{ps: ps}
	router.GET("/api/v1/packs/:id", r.GetPack)

	return router
}

func TestPackRoutes_GetPack(t *testing.T) {
	t.Run("Response carries the pack's prompts", func(t *testing.T) {
		ps := new(mocks.MockPackService)
		ps.On("GetPack", mock.Anything, "pack-1").Return(&model.PhotoPack{
			ID:       "pack-1",
			Title:    "Business portraits",
			Slug:     "business",
			Gender:   "any",
			IsActive: true,
			Prompts: []model.PackPrompt{
				{
					ID:             "prompt-1",
					PackID:         "pack-1",
					PromptText:     "studio portrait, business suit",
					NegativePrompt: "blurry",
					StyleTags:      []string{"studio", "formal"},
					SortOrder:      1,
				},
				{
					ID:         "prompt-2",
					PackID:     "pack-1",
					PromptText: "office background, soft light",
					SortOrder:  2,
				},
			},
		}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/packs/pack-1", nil)
		newPackRouter(ps).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			ID      string `json:"id"`
			Prompts []struct {
				PromptText     string   `json:"prompt_text"`
				NegativePrompt string   `json:"negative_prompt"`
				StyleTags      []string `json:"style_tags"`
				SortOrder      int      `json:"sort_order"`
			} `json:"prompts"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "pack-1", resp.ID)
		assert.Len(t, resp.Prompts, 2)
		assert.Equal(t, "studio portrait, business suit", resp.Prompts[0].PromptText)
		assert.Equal(t, "blurry", resp.Prompts[0].NegativePrompt)
		assert.Equal(t, []string{"studio", "formal"}, resp.Prompts[0].StyleTags)
		assert.Equal(t, 2, resp.Prompts[1].SortOrder)
	})

	t.Run("Group limiter short-circuits the handler", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		router := gin.New()

		ps := new(mocks.MockPackService)
		r := &packRoutes{ps: ps}
		limit := func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		}
		router.GET("/api/v1/packs/:id", limit, r.GetPack)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/packs/pack-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		ps.AssertNotCalled(t, "GetPack", mock.Anything, mock.Anything)
	})

	t.Run("Unknown pack returns 404", func(t *testing.T) {
		ps := new(mocks.MockPackService)
		ps.On("GetPack", mock.Anything, "missing").Return(nil, service.ErrPackNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/packs/missing", nil)
		newPackRouter(ps).ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
