package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"penthrey/api/internal/middleware"
	"penthrey/api/internal/service"
)

func (h HandlerSet) GetProfile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

type profileUpdateRequest struct {
	FirstName   string `json:"firstName" binding:"required"`
	LastName    string `json:"lastName" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

func (h HandlerSet) UpdateProfile(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, service.ProfileUpdateInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(updated)})
}

const maxAvatarBytes = 5 << 20

func (h HandlerSet) UploadAvatar(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file required"})
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar exceeds 5MB"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}
	defer file.Close()

	key, err := h.store.PutImage(c.Request.Context(), "avatars", user.ID, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	avatarURL := h.store.PublicURL(key)
	if err := h.users.SetAvatarURL(c.Request.Context(), user.ID, avatarURL); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatarUrl": avatarURL})
}
