package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/service/encryption"
)

type OrganizationAPI struct {
	team   repoInterface.TeamRepository
	crypto *encryption.Encryptor
}

type UpdateOrganizationRequest struct {
	Name            string `json:"name"`
	DefaultTimezone string `json:"default_timezone"`
	// Ключ принимается открытым текстом и хранится только зашифрованным.
	// Пустое значение оставляет прежний ключ.
	CRMAPIKey string `json:"crm_api_key"`
}

type OrganizationResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DefaultTimezone string    `json:"default_timezone"`
	HasCRMAPIKey    bool      `json:"has_crm_api_key"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewOrganizationAPI(team repoInterface.TeamRepository, crypto *encryption.Encryptor) *OrganizationAPI {
	return &OrganizationAPI{
		team:   team,
		crypto: crypto,
	}
}

// Get возвращает настройки организации
func (a *OrganizationAPI) Get(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	org, err := a.team.FindOrganizationByID(c.Request().Context(), orgID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "organization not found"})
	}

	return c.JSON(http.StatusOK, OrganizationResponse{
		ID:              org.ID,
		Name:            org.Name,
		DefaultTimezone: org.DefaultTimezone,
		HasCRMAPIKey:    org.CRMAPIKey != "",
		CreatedAt:       org.CreatedAt,
		UpdatedAt:       org.UpdatedAt,
	})
}

// Update обновляет настройки организации, включая API-ключ CRM
func (a *OrganizationAPI) Update(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	var req UpdateOrganizationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	org, err := a.team.FindOrganizationByID(c.Request().Context(), orgID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "organization not found"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		org.Name = name
	}
	if tz := strings.TrimSpace(req.DefaultTimezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown timezone"})
		}
		org.DefaultTimezone = tz
	}
	if key := strings.TrimSpace(req.CRMAPIKey); key != "" {
		encrypted, err := a.crypto.Encrypt(key)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to encrypt api key"})
		}
		org.CRMAPIKey = encrypted
	}

	if err := a.team.UpdateOrganization(c.Request().Context(), org); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update organization"})
	}

	return c.JSON(http.StatusOK, OrganizationResponse{
		ID:              org.ID,
		Name:            org.Name,
		DefaultTimezone: org.DefaultTimezone,
		HasCRMAPIKey:    org.CRMAPIKey != "",
		CreatedAt:       org.CreatedAt,
		UpdatedAt:       org.UpdatedAt,
	})
}
