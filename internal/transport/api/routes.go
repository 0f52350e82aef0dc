package api

import (
	"github.com/labstack/echo/v4"

	repoInterface "salesdesk/internal/repository/interface"
	"salesdesk/internal/repository/rediscache"
	"salesdesk/internal/service/commission"
	"salesdesk/internal/service/crmsync"
	"salesdesk/internal/service/encryption"
	"salesdesk/internal/service/mailer"
	"salesdesk/internal/service/reporting"
	"salesdesk/internal/transport/middleware"
)

// Deps - зависимости API-хендлеров
type Deps struct {
	Events  repoInterface.EventRepository
	PCFs    repoInterface.PCFRepository
	Team    repoInterface.TeamRepository
	Sources repoInterface.SourceRepository
	Metrics repoInterface.MetricRepository
	Payouts repoInterface.PayoutRepository

	Reports *reporting.Service
	Links   *commission.Service
	CRM     *crmsync.Client
	Mail    *mailer.Client
	Crypto  *encryption.Encryptor
	Cache   *rediscache.ReportCache

	Auth    *middleware.AuthMiddleware
	BaseURL string
}

// SetupRoutes настраивает маршруты API
func SetupRoutes(e *echo.Group, deps Deps) {
	// Публичные маршруты (без аутентификации)
	authAPI := NewAuthAPI(deps.Team, deps.Auth)
	e.POST("/auth/register", authAPI.Register)
	e.POST("/auth/login", authAPI.Login)

	teamAPI := NewTeamAPI(deps.Team, deps.Mail, deps.Auth, deps.BaseURL)
	e.POST("/invitations/accept", teamAPI.Accept)

	commissionAPI := NewCommissionAPI(deps.Payouts, deps.Links)
	e.GET("/commission/:token", commissionAPI.PublicView)

	// Защищенные маршруты (требуют JWT)
	protected := e.Group("")
	protected.Use(deps.Auth.RequireAuth)

	protected.GET("/me", authAPI.Me)

	// Настройки организации
	orgAPI := NewOrganizationAPI(deps.Team, deps.Crypto)
	protected.GET("/organization", orgAPI.Get)

	// Отчеты
	reportsAPI := NewReportsAPI(deps.Reports)
	protected.GET("/reports/calls", reportsAPI.Calls)
	protected.GET("/reports/closers", reportsAPI.Closers)
	protected.GET("/reports/setters", reportsAPI.Setters)
	protected.GET("/reports/attribution", reportsAPI.Attribution)

	// Звонки и платежи
	eventsAPI := NewEventsAPI(deps.Events, deps.Payouts, deps.Cache)
	protected.GET("/events", eventsAPI.List)
	protected.POST("/events", eventsAPI.Create)
	protected.GET("/events/:id", eventsAPI.Get)
	protected.POST("/events/:id/payments", eventsAPI.AddPayment)
	protected.GET("/events/:id/sync-logs", eventsAPI.SyncLogs)

	// Post-call формы
	pcfAPI := NewPCFAPI(deps.Events, deps.PCFs, deps.Team, deps.Cache, deps.CRM, deps.Mail, deps.Crypto, deps.BaseURL)
	protected.POST("/events/:id/pcf", pcfAPI.Submit)
	protected.GET("/events/:id/pcf", pcfAPI.ListByEvent)
	protected.POST("/events/:id/sync", pcfAPI.Resync)
	protected.GET("/pcfs", pcfAPI.ListByOrg)

	// Источники трафика
	sourcesAPI := NewSourcesAPI(deps.Sources, deps.Cache)
	protected.GET("/sources", sourcesAPI.List)
	protected.POST("/sources", sourcesAPI.Create)
	protected.POST("/sources/:id/aliases", sourcesAPI.AddAlias)

	// Calculated fields
	metricsAPI := NewMetricsAPI(deps.Metrics)
	protected.GET("/metrics-definitions", metricsAPI.List)
	protected.POST("/metrics-definitions", metricsAPI.Create)
	protected.PUT("/metrics-definitions/:id", metricsAPI.Update)
	protected.DELETE("/metrics-definitions/:id", metricsAPI.Delete)
	protected.GET("/metrics-definitions/:id/value", metricsAPI.Value)

	// Команда и приглашения
	protected.GET("/team", teamAPI.List)

	admin := protected.Group("")
	admin.Use(deps.Auth.RequireAdmin)
	admin.PUT("/organization", orgAPI.Update)
	admin.POST("/invitations", teamAPI.Invite)
	admin.DELETE("/team/:id", teamAPI.Remove)

	// Выплаты комиссий
	admin.POST("/payouts", commissionAPI.CreateSnapshot)
	admin.GET("/payouts", commissionAPI.ListSnapshots)
	admin.GET("/payouts/:id", commissionAPI.GetSnapshot)
	admin.POST("/payouts/:id/link", commissionAPI.GenerateLink)
}
