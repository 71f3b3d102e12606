package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"photolab_miniapp/internal/model"
	"photolab_miniapp/internal/service"
	"photolab_miniapp/pkg/auth"
	"photolab_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.TelegramAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.TelegramAuth, limit gin.HandlerFunc) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.TelegramAuthMiddleware())
	if limit != nil {
		h.Use(limit)
	}
	{
		h.POST("/", r.RegisterUser)
		h.GET("/me", r.GetCurrentUser)
		h.GET("/:telegram_id", r.GetUserByTelegramID)
		h.GET("/:telegram_id/avatar", r.GetUserAvatar)
	}
}

type RegisterUserRequest struct {
	Handle       string `json:"handle"`
	ReferralCode string `json:"referral_code"`
}

type RegisterUserResponse struct {
	TelegramID   int64  `json:"telegram_id"`
	Handle       string `json:"handle"`
	ReferralCode string `json:"referral_code"`
}

func (r *userRoutes) RegisterUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
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

	u := &model.User{
		TelegramID:       user.ID,
		Handle:           req.Handle,
		Username:         user.Username,
		RegistrationDate: user.AuthDate,
		AuthDate:         user.AuthDate,
	}

	err := r.us.RegisterUser(c.Request.Context(), u, req.ReferralCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidReferralCode) || errors.Is(err, service.ErrCannotReferSelf) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	out := RegisterUserResponse{
		TelegramID:   u.TelegramID,
		Handle:       u.Handle,
		ReferralCode: u.ReferralCode,
	}

	c.JSON(http.StatusCreated, out)
}

func (r *userRoutes) GetCurrentUser(c *gin.Context) {
	log := logger.Logger()

	telegramUser, ok := auth.UserFromContext(c)
	if !ok {
		log.Error("telegram user data not found in context")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user, err := r.us.GetUserByTelegramID(c.Request.Context(), telegramUser.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not registered"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func (r *userRoutes) GetUserByTelegramID(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	user, err := r.us.GetUserByTelegramID(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided telegram_id"})
		return
	}

	c.JSON(http.StatusOK, userResponse(user))
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"telegram_id":       user.TelegramID,
		"handle":            user.Handle,
		"username":          user.Username,
		"referral_code":     user.ReferralCode,
		"referrer_id":       user.ReferrerID,
		"referrals":         user.Referrals,
		"generations":       user.Generations,
		"is_partner":        user.IsPartner,
		"registration_date": user.RegistrationDate,
		"auth_date":         user.AuthDate,
	}
}

func (r *userRoutes) GetUserAvatar(c *gin.Context) {
	log := logger.Logger()

	telegramID := c.Param("telegram_id")
	id, err := strconv.ParseInt(telegramID, 10, 64)
	if err != nil {
		log.Error("failed to parse telegram_id", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid telegram_id"})
		return
	}

	_, err = r.us.GetUserByTelegramID(c.Request.Context(), id)
	if err != nil {
		log.Error("failed to get user", zap.Error(err))
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	avatarFilePath, err := r.getUserAvatarURL(id)
	if err != nil {
		log.Error("failed to get user avatar",
			zap.Error(err),
			zap.Int64("telegram_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch avatar"})
		return
	}

	if avatarFilePath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no avatar found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar_file_path": avatarFilePath,
	})
}

func (r *userRoutes) getUserAvatarURL(userID int64) (string, error) {
	bot, err := tgbotapi.NewBotAPI(r.a.GetBotToken())
	if err != nil {
		return "", fmt.Errorf("failed to initialize bot: %w", err)
	}

	photos, err := bot.GetUserProfilePhotos(tgbotapi.UserProfilePhotosConfig{
		UserID: userID,
		Limit:  1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get user photos: %w", err)
	}

	if len(photos.Photos) == 0 {
		return "", nil
	}

	file, err := bot.GetFile(tgbotapi.FileConfig{
		FileID: photos.Photos[0][0].FileID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}

	return file.FilePath, nil
}
