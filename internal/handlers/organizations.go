package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"penthrey/api/internal/middleware"
	"penthrey/api/internal/models"
	"penthrey/api/internal/service"
)

func (h HandlerSet) GetOrganization(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	org, err := h.orgs.Get(c.Request.Context(), *user.OrganizationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": toOrganizationResponse(org)})
}

type organizationRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	Website      string `json:"website"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postalCode"`
	Country      string `json:"country"`
	Type         string `json:"organizationType"`
	Industry     string `json:"industry"`
	Currency     string `json:"currency"`
	Timezone     string `json:"timezone"`
}

func (r organizationRequest) toInput() service.OrganizationInput {
	return service.OrganizationInput{
		Name:         r.Name,
		Description:  r.Description,
		Email:        r.Email,
		PhoneNumber:  r.PhoneNumber,
		Website:      r.Website,
		AddressLine1: r.AddressLine1,
		AddressLine2: r.AddressLine2,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.PostalCode,
		Country:      r.Country,
		Type:         r.Type,
		Industry:     r.Industry,
		Currency:     r.Currency,
		Timezone:     r.Timezone,
	}
}

func (h HandlerSet) CreateOrganization(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org, err := h.orgs.Create(c.Request.Context(), user, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"organization": toOrganizationResponse(org)})
}

func (h HandlerSet) UpdateOrganization(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org, err := h.orgs.Update(c.Request.Context(), user, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"organization": toOrganizationResponse(org)})
}

type statsResponse struct {
	TotalMembers   int    `json:"totalMembers"`
	AdminMembers   int    `json:"adminMembers"`
	ManagerMembers int    `json:"managerMembers"`
	StaffMembers   int    `json:"staffMembers"`
	Plan           string `json:"subscriptionPlan"`
	MemberLimit    int    `json:"memberLimit"`
	CanAddMembers  bool   `json:"canAddMembers"`
}

func toStatsResponse(s service.OrgStats) statsResponse {
	return statsResponse{
		TotalMembers:   s.TotalMembers,
		AdminMembers:   s.AdminMembers,
		ManagerMembers: s.ManagerMembers,
		StaffMembers:   s.StaffMembers,
		Plan:           string(s.Plan),
		MemberLimit:    s.MemberLimit,
		CanAddMembers:  s.CanAddMembers,
	}
}

func (h HandlerSet) OrganizationStats(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	stats, err := h.orgs.Stats(c.Request.Context(), *user.OrganizationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": toStatsResponse(stats)})
}

func (h HandlerSet) UploadLogo(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file required"})
		return
	}
	if fileHeader.Size > maxAvatarBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo exceeds 5MB"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}
	defer file.Close()

	orgID := *user.OrganizationID
	key, err := h.store.PutImage(c.Request.Context(), "logos", orgID, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logoURL := h.store.PublicURL(key)
	if err := h.orgRepo.SetLogoURL(c.Request.Context(), orgID, logoURL); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logoUrl": logoURL})
}

func (h HandlerSet) LeaveOrganization(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.orgs.Leave(c.Request.Context(), user); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left organization"})
}

func (h HandlerSet) ListMembers(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	members, err := h.orgs.ListMembers(c.Request.Context(), *user.OrganizationID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	out := make([]userResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toUserResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

func (h HandlerSet) GetMember(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	member, err := h.orgs.GetMember(c.Request.Context(), *user.OrganizationID, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": toUserResponse(member)})
}

type memberUpdateRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h HandlerSet) UpdateMember(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req memberUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, ok := models.ParseUserRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	member, err := h.orgs.UpdateMemberRole(c.Request.Context(), user, c.Param("id"), role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"member": toUserResponse(member)})
}

func (h HandlerSet) RemoveMember(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	if err := h.orgs.RemoveMember(c.Request.Context(), user, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}
