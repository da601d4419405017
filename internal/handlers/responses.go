package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"penthrey/api/internal/models"
	"penthrey/api/internal/repository"
	"penthrey/api/internal/service"
)

type userResponse struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"firstName"`
	LastName       string     `json:"lastName"`
	FullName       string     `json:"fullName"`
	PhoneNumber    string     `json:"phoneNumber,omitempty"`
	Role           string     `json:"role"`
	OrganizationID *string    `json:"organizationId"`
	AvatarURL      *string    `json:"avatarUrl,omitempty"`
	IsVerified     bool       `json:"isVerified"`
	LastLoginAt    *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		FullName:       u.FullName(),
		PhoneNumber:    u.PhoneNumber,
		Role:           string(u.Role),
		OrganizationID: u.OrganizationID,
		AvatarURL:      u.AvatarURL,
		IsVerified:     u.IsVerified,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}

type organizationResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Slug         string     `json:"slug"`
	Description  string     `json:"description,omitempty"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phoneNumber,omitempty"`
	Website      string     `json:"website,omitempty"`
	AddressLine1 string     `json:"addressLine1,omitempty"`
	AddressLine2 string     `json:"addressLine2,omitempty"`
	City         string     `json:"city,omitempty"`
	State        string     `json:"state,omitempty"`
	PostalCode   string     `json:"postalCode,omitempty"`
	Country      string     `json:"country,omitempty"`
	Type         string     `json:"organizationType"`
	Industry     string     `json:"industry,omitempty"`
	Plan         string     `json:"subscriptionPlan"`
	IsTrial      bool       `json:"isTrial"`
	TrialEndsAt  *time.Time `json:"trialEndsAt,omitempty"`
	LogoURL      *string    `json:"logoUrl,omitempty"`
	Currency     string     `json:"currency"`
	Timezone     string     `json:"timezone"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func toOrganizationResponse(o models.Organization) organizationResponse {
	return organizationResponse{
		ID:           o.ID,
		Name:         o.Name,
		Slug:         o.Slug,
		Description:  o.Description,
		Email:        o.Email,
		PhoneNumber:  o.PhoneNumber,
		Website:      o.Website,
		AddressLine1: o.AddressLine1,
		AddressLine2: o.AddressLine2,
		City:         o.City,
		State:        o.State,
		PostalCode:   o.PostalCode,
		Country:      o.Country,
		Type:         string(o.Type),
		Industry:     o.Industry,
		Plan:         string(o.Plan),
		IsTrial:      o.IsTrial,
		TrialEndsAt:  o.TrialEndsAt,
		LogoURL:      o.LogoURL,
		Currency:     o.Currency,
		Timezone:     o.Timezone,
		CreatedAt:    o.CreatedAt,
	}
}

// inviteResponse never carries the token; it travels by email only.
type inviteResponse struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	InvitedBy  string     `json:"invitedBy"`
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func toInviteResponse(i models.OrganizationInvite) inviteResponse {
	return inviteResponse{
		ID:         i.ID,
		Email:      i.Email,
		Role:       string(i.Role),
		Status:     string(i.Status),
		InvitedBy:  i.InvitedByID,
		AcceptedAt: i.AcceptedAt,
		ExpiresAt:  i.ExpiresAt,
		CreatedAt:  i.CreatedAt,
	}
}

type sessionResponse struct {
	ID          string    `json:"id"`
	IPAddress   string    `json:"ipAddress"`
	Location    string    `json:"location"`
	BrowserInfo string    `json:"browserInfo"`
	DeviceInfo  string    `json:"deviceInfo"`
	IsNewDevice bool      `json:"isNewDevice"`
	LoginTime   time.Time `json:"loginTime"`
	IsActive    bool      `json:"isActive"`
}

func toSessionResponse(s models.LoginSession) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		IPAddress:   s.IPAddress,
		Location:    s.Location,
		BrowserInfo: s.BrowserInfo,
		DeviceInfo:  s.DeviceInfo,
		IsNewDevice: s.IsNewDevice,
		LoginTime:   s.LoginTime,
		IsActive:    s.IsActive,
	}
}

// respondError maps service sentinels onto HTTP statuses. Failed logins come
// back as 404 so the response does not separate "no such account" from
// "wrong password".
func (h HandlerSet) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAccountDisabled),
		errors.Is(err, service.ErrVerificationRequired),
		errors.Is(err, service.ErrPermission):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenInvalidOrExpired),
		errors.Is(err, service.ErrIncorrectPassword),
		errors.Is(err, service.ErrPasswordMismatch),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrDuplicateInvite),
		errors.Is(err, service.ErrAlreadyMember),
		errors.Is(err, service.ErrAlreadyInOrganization),
		errors.Is(err, service.ErrSoleAdmin),
		errors.Is(err, service.ErrSelfModification):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("unhandled service error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
