package _interface

import (
	"context"

	"salesdesk/internal/domain"
)

// EventRepository - интерфейс для работы со звонками и платежами
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	Update(ctx context.Context, event *domain.Event) error
	FindByID(ctx context.Context, orgID, id string) (*domain.Event, error)
	FindByFilter(ctx context.Context, orgID string, filter domain.EventFilter) ([]*domain.Event, error)

	// Платежи
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	PaymentsByEventIDs(ctx context.Context, orgID string, eventIDs []string) (map[string][]*domain.Payment, error)
}

// PCFRepository - интерфейс для работы с post-call формами
type PCFRepository interface {
	Create(ctx context.Context, pcf *domain.PostCallForm) error
	FindByEventID(ctx context.Context, orgID, eventID string) ([]*domain.PostCallForm, error)
	FindByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.PostCallForm, int, error)
	LatestByEventIDs(ctx context.Context, orgID string, eventIDs []string) (map[string]*domain.PostCallForm, error)
}

// TeamRepository - пользователи, организации, клоузеры/сеттеры, приглашения
type TeamRepository interface {
	// Организации
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	FindOrganizationByID(ctx context.Context, id string) (*domain.Organization, error)
	UpdateOrganization(ctx context.Context, org *domain.Organization) error

	// Пользователи
	CreateUser(ctx context.Context, user *domain.User) error
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, id string) (*domain.User, error)
	FindUsersByOrg(ctx context.Context, orgID string) ([]*domain.User, error)
	DeactivateUser(ctx context.Context, orgID, id string) error

	// Приглашения
	CreateInvitation(ctx context.Context, inv *domain.Invitation) error
	RevokeInvitationsByEmail(ctx context.Context, orgID, email string) error
	FindPendingInvitations(ctx context.Context, orgID string) ([]*domain.Invitation, error)
	FindInvitationByEmail(ctx context.Context, email string) (*domain.Invitation, error)
	MarkInvitationAccepted(ctx context.Context, id string) error

	// Клоузеры и сеттеры
	FindClosersByOrg(ctx context.Context, orgID string) ([]*domain.Closer, error)
	FindSettersByOrg(ctx context.Context, orgID string) ([]*domain.Setter, error)
}

// SourceRepository - источники трафика
type SourceRepository interface {
	Create(ctx context.Context, source *domain.Source) error
	FindByOrg(ctx context.Context, orgID string) ([]*domain.Source, error)
	AddAlias(ctx context.Context, orgID, sourceID, alias string) error
	AliasesByOrg(ctx context.Context, orgID string) (map[string]string, error)
}

// MetricRepository - определения метрик и записи датасетов
type MetricRepository interface {
	Create(ctx context.Context, def *domain.MetricDefinition) error
	Update(ctx context.Context, def *domain.MetricDefinition) error
	Delete(ctx context.Context, orgID, id string) error
	FindByID(ctx context.Context, orgID, id string) (*domain.MetricDefinition, error)
	FindByOrg(ctx context.Context, orgID string) ([]*domain.MetricDefinition, error)

	FindDatasetRecords(ctx context.Context, orgID, dataset string) ([]*domain.DatasetRecord, error)
}

// PayoutRepository - выплаты, их расшифровки и публичные ссылки
type PayoutRepository interface {
	CreateSnapshot(ctx context.Context, snapshot *domain.PayoutSnapshot) error
	FindSnapshotByID(ctx context.Context, orgID, id string) (*domain.PayoutSnapshot, error)
	FindSnapshotsByOrg(ctx context.Context, orgID string) ([]*domain.PayoutSnapshot, error)

	CreateLink(ctx context.Context, link *domain.CommissionLink) error
	FindLinkByTokenHash(ctx context.Context, hash string) (*domain.CommissionLink, error)
	FindSnapshotWithDetails(ctx context.Context, snapshotID string) (*domain.PayoutSnapshot, error)

	// Логи синхронизации с CRM
	CreateSyncLog(ctx context.Context, log *domain.CRMSyncLog) error
	FindSyncLogsByEvent(ctx context.Context, eventID string, limit int) ([]*domain.CRMSyncLog, error)
}
