package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/repository/rediscache"
)

type SourcesAPI struct {
	sources repoInterface.SourceRepository
	cache   *rediscache.ReportCache
}

type CreateSourceRequest struct {
	Name    string   `json:"name"`
	Channel string   `json:"channel"`
	Aliases []string `json:"aliases"`
}

type AddAliasRequest struct {
	Alias string `json:"alias"`
}

func NewSourcesAPI(sources repoInterface.SourceRepository, cache *rediscache.ReportCache) *SourcesAPI {
	return &SourcesAPI{
		sources: sources,
		cache:   cache,
	}
}

// List возвращает источники трафика с алиасами
func (a *SourcesAPI) List(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	sources, err := a.sources.FindByOrg(c.Request().Context(), orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load sources"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"sources": sources})
}

// Create создает канонический источник трафика
func (a *SourcesAPI) Create(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	var req CreateSourceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	if name == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name is required"})
	}

	channel := req.Channel
	switch channel {
	case domain.ChannelPaid, domain.ChannelOrganic, domain.ChannelReferral, domain.ChannelOutbound, domain.ChannelOther:
	case "":
		channel = domain.ChannelOther
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "channel must be paid, organic, referral, outbound or other"})
	}

	source := &domain.Source{
		OrganizationID: orgID,
		Name:           name,
		Channel:        channel,
		Aliases:        req.Aliases,
	}

	if err := a.sources.Create(c.Request().Context(), source); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create source"})
	}

	for _, alias := range source.Aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			continue
		}
		if err := a.sources.AddAlias(c.Request().Context(), orgID, source.ID, alias); err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to add alias"})
		}
	}

	a.cache.InvalidateOrg(c.Request().Context(), orgID)
	return c.JSON(http.StatusCreated, source)
}

// AddAlias добавляет алиас к источнику
func (a *SourcesAPI) AddAlias(c echo.Context) error {
	orgID := c.Get("org_id").(string)

	var req AddAliasRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	alias := strings.ToLower(strings.TrimSpace(req.Alias))
	if alias == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "alias is required"})
	}

	if err := a.sources.AddAlias(c.Request().Context(), orgID, c.Param("id"), alias); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "source not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to add alias"})
	}

	a.cache.InvalidateOrg(c.Request().Context(), orgID)
	return c.NoContent(http.StatusNoContent)
}
