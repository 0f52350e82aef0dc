package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/transport/middleware"
)

type AuthAPI struct {
	team repoInterface.TeamRepository
	auth *middleware.AuthMiddleware
}

type RegisterRequest struct {
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	DisplayName      string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID             string `json:"id"`
		OrganizationID string `json:"organization_id"`
		Email          string `json:"email"`
		Role           string `json:"role"`
	} `json:"user"`
}

func NewAuthAPI(team repoInterface.TeamRepository, auth *middleware.AuthMiddleware) *AuthAPI {
	return &AuthAPI{
		team: team,
		auth: auth,
	}
}

// Register создает организацию и ее первого администратора
func (a *AuthAPI) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.OrganizationName == "" || req.Email == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "organization name, email and password (8+ chars) are required"})
	}

	if _, err := a.team.FindUserByEmail(c.Request().Context(), req.Email); err == nil {
		return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
	}

	hash, err := middleware.HashPassword(req.Password)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to hash password"})
	}

	org := &domain.Organization{
		Name:            req.OrganizationName,
		DefaultTimezone: "UTC",
	}
	if err := a.team.CreateOrganization(c.Request().Context(), org); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create organization"})
	}

	user := &domain.User{
		OrganizationID: org.ID,
		Email:          req.Email,
		PasswordHash:   hash,
		DisplayName:    req.DisplayName,
		Role:           domain.RoleAdmin,
	}
	if err := a.team.CreateUser(c.Request().Context(), user); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create user"})
	}

	return a.respondWithToken(c, http.StatusCreated, user)
}

// Login выдает JWT по email и паролю
func (a *AuthAPI) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	user, err := a.team.FindUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	if !user.IsActive {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "account deactivated"})
	}

	if !middleware.CheckPassword(req.Password, user.PasswordHash) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	}

	return a.respondWithToken(c, http.StatusOK, user)
}

// Me возвращает текущего пользователя
func (a *AuthAPI) Me(c echo.Context) error {
	userID := c.Get("user_id").(string)

	user, err := a.team.FindUserByID(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, user)
}

func (a *AuthAPI) respondWithToken(c echo.Context, status int, user *domain.User) error {
	tokenString, err := a.auth.GenerateJWT(user.ID, user.OrganizationID, user.Role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to generate token"})
	}

	response := LoginResponse{Token: tokenString}
	response.User.ID = user.ID
	response.User.OrganizationID = user.OrganizationID
	response.User.Email = user.Email
	response.User.Role = user.Role

	return c.JSON(status, response)
}
