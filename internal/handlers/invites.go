package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"penthrey/api/internal/middleware"
	"penthrey/api/internal/models"
)

func (h HandlerSet) ListInvites(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	invites, err := h.orgs.ListInvites(c.Request.Context(), *user.OrganizationID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]inviteResponse, 0, len(invites))
	for _, invite := range invites {
		out = append(out, toInviteResponse(invite))
	}
	c.JSON(http.StatusOK, gin.H{"invites": out})
}

type sendInviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

func (h HandlerSet) SendInvite(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req sendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, ok := models.ParseUserRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	invite, err := h.orgs.SendInvite(c.Request.Context(), user, req.Email, role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite": toInviteResponse(invite)})
}

func (h HandlerSet) CancelInvite(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.orgs.CancelInvite(c.Request.Context(), user, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invite cancelled"})
}

func (h HandlerSet) AcceptInvite(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org, err := h.orgs.AcceptInvite(c.Request.Context(), user, req.Token)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": toOrganizationResponse(org)})
}

func (h HandlerSet) DeclineInvite(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.orgs.DeclineInvite(c.Request.Context(), req.Token); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invite declined"})
}
