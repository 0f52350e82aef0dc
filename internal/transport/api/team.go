package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/service/mailer"
	"salesdesk/internal/transport/middleware"
)

type TeamAPI struct {
	team    repoInterface.TeamRepository
	mail    *mailer.Client
	auth    *middleware.AuthMiddleware
	baseURL string
}

type InviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type AcceptInviteRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

func NewTeamAPI(team repoInterface.TeamRepository, mail *mailer.Client, auth *middleware.AuthMiddleware, baseURL string) *TeamAPI {
	return &TeamAPI{
		team:    team,
		mail:    mail,
		auth:    auth,
		baseURL: baseURL,
	}
}

// List возвращает состав команды: пользователи, клоузеры, сеттеры
// и неотвеченные приглашения
func (a *TeamAPI) List(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	ctx := c.Request().Context()

	users, err := a.team.FindUsersByOrg(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load users"})
	}

	invitations, err := a.team.FindPendingInvitations(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load invitations"})
	}

	closers, err := a.team.FindClosersByOrg(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load closers"})
	}

	setters, err := a.team.FindSettersByOrg(ctx, orgID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load setters"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"users":       users,
		"invitations": invitations,
		"closers":     closers,
		"setters":     setters,
	})
}

// Invite создает приглашение в команду.
// Повторное приглашение по тому же email отзывает предыдущие.
func (a *TeamAPI) Invite(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	userID := c.Get("user_id").(string)
	ctx := c.Request().Context()

	var req InviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "valid email is required"})
	}

	switch req.Role {
	case domain.RoleAdmin, domain.RoleCloser, domain.RoleSetter:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "role must be admin, closer or setter"})
	}

	if _, err := a.team.FindUserByEmail(ctx, email); err == nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "user already exists"})
	}

	if err := a.team.RevokeInvitationsByEmail(ctx, orgID, email); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to revoke previous invitations"})
	}

	// Токен уходит в письме, в БД хранится только bcrypt-хеш
	token := uuid.NewString()
	tokenHash, err := middleware.HashPassword(token)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create invitation"})
	}

	inv := &domain.Invitation{
		OrganizationID: orgID,
		Email:          email,
		Role:           req.Role,
		TokenHash:      tokenHash,
		InvitedBy:      userID,
		ExpiresAt:      time.Now().Add(7 * 24 * time.Hour),
	}

	if err := a.team.CreateInvitation(ctx, inv); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create invitation"})
	}

	a.sendInviteEmail(orgID, inv, token)

	return c.JSON(http.StatusCreated, inv)
}

// Accept принимает приглашение и создает пользователя
func (a *TeamAPI) Accept(c echo.Context) error {
	ctx := c.Request().Context()

	var req AcceptInviteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	inv, err := a.team.FindInvitationByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "invitation not found"})
	}

	if inv.AcceptedAt != nil || time.Now().After(inv.ExpiresAt) {
		return c.JSON(http.StatusGone, map[string]string{"error": "invitation expired"})
	}

	if !middleware.CheckPassword(req.Token, inv.TokenHash) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid invitation token"})
	}

	passwordHash, err := middleware.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to hash password"})
	}

	user := &domain.User{
		OrganizationID: inv.OrganizationID,
		Email:          email,
		PasswordHash:   passwordHash,
		DisplayName:    req.DisplayName,
		Role:           inv.Role,
	}

	if err := a.team.CreateUser(ctx, user); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
	}

	if err := a.team.MarkInvitationAccepted(ctx, inv.ID); err != nil {
		log.Error().Err(err).Str("invitation_id", inv.ID).Msg("failed to mark invitation accepted")
	}

	token, err := a.auth.GenerateJWT(user.ID, user.OrganizationID, user.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate token"})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{"token": token, "user": user})
}

// Remove деактивирует пользователя команды
func (a *TeamAPI) Remove(c echo.Context) error {
	orgID := c.Get("org_id").(string)
	userID := c.Get("user_id").(string)
	targetID := c.Param("id")

	if targetID == userID {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot remove yourself"})
	}

	if err := a.team.DeactivateUser(c.Request().Context(), orgID, targetID); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	return c.NoContent(http.StatusNoContent)
}

func (a *TeamAPI) sendInviteEmail(orgID string, inv *domain.Invitation, token string) {
	if a.mail == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		orgName := ""
		if org, err := a.team.FindOrganizationByID(ctx, orgID); err == nil {
			orgName = org.Name
		}

		inviterName := ""
		if inviter, err := a.team.FindUserByID(ctx, inv.InvitedBy); err == nil {
			inviterName = inviter.DisplayName
			if inviterName == "" {
				inviterName = inviter.Email
			}
		}

		link := a.baseURL + "/invite/accept?email=" + inv.Email + "&token=" + token
		if err := a.mail.SendInvite(ctx, inv.Email, "", inviterName, orgName, inv.Role, link, inv.ExpiresAt); err != nil {
			log.Error().Err(err).Str("to", inv.Email).Msg("failed to send invite email")
		}
	}()
}
