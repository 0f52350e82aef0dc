package commission

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// ErrLinkExpired возвращается для отозванных и просроченных ссылок
var ErrLinkExpired = errors.New("commission link expired")

// Service выпускает публичные ссылки на расшифровки выплат.
// Токен отдается один раз при создании, в БД хранится только хеш.
type Service struct {
	payouts repoInterface.PayoutRepository
	baseURL string
	linkTTL time.Duration
}

// NewService создает сервис комиссионных ссылок
func NewService(payouts repoInterface.PayoutRepository, baseURL string, linkTTL time.Duration) *Service {
	return &Service{
		payouts: payouts,
		baseURL: baseURL,
		linkTTL: linkTTL,
	}
}

// GenerateLink создает ссылку на выплату организации
func (s *Service) GenerateLink(ctx context.Context, orgID, snapshotID string) (string, *domain.CommissionLink, error) {
	// Проверяем, что выплата принадлежит организации
	if _, err := s.payouts.FindSnapshotByID(ctx, orgID, snapshotID); err != nil {
		return "", nil, fmt.Errorf("snapshot not found: %w", err)
	}

	token := uuid.NewString()

	link := &domain.CommissionLink{
		SnapshotID: snapshotID,
		TokenHash:  HashToken(token),
		ExpiresAt:  time.Now().Add(s.linkTTL),
	}

	if err := s.payouts.CreateLink(ctx, link); err != nil {
		return "", nil, fmt.Errorf("failed to create commission link: %w", err)
	}

	return s.baseURL + "/commission/" + token, link, nil
}

// ResolveToken находит выплату по токену из публичной ссылки
func (s *Service) ResolveToken(ctx context.Context, token string) (*domain.PayoutSnapshot, error) {
	link, err := s.payouts.FindLinkByTokenHash(ctx, HashToken(token))
	if err != nil {
		return nil, err
	}

	if link.Expired(time.Now()) {
		return nil, ErrLinkExpired
	}

	return s.payouts.FindSnapshotWithDetails(ctx, link.SnapshotID)
}

// HashToken хеширует токен ссылки для хранения и поиска
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
