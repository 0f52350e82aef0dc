package crmsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"salesdesk/internal/domain"
	repoInterface "salesdesk/internal/repository/interface"
)

// Config - конфигурация синхронизации с CRM
type Config struct {
	Timeout    time.Duration
	MaxRetries int
}

// Client проталкивает результат звонка обратно в CRM через внешний
// sync-эндпоинт. Эндпоинт - черный ящик, возвращающий success/error JSON.
type Client struct {
	baseURL string
	payouts repoInterface.PayoutRepository
	http    *http.Client
	config  Config
}

// SyncPayload - то, что уходит в CRM после PCF
type SyncPayload struct {
	CRMContactID   string `json:"crm_contact_id"`
	EventID        string `json:"event_id"`
	Outcome        string `json:"outcome"`
	DealValueCents int64  `json:"deal_value_cents"`
	APIKey         string `json:"api_key"`
}

type syncResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

// NewClient создает клиент CRM-синхронизации
func NewClient(baseURL string, payouts repoInterface.PayoutRepository, config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}

	return &Client{
		baseURL: baseURL,
		payouts: payouts,
		http: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// SyncEvent отправляет результат звонка в CRM с повторами
// и пишет итог в crm_sync_logs. Вызывается асинхронно после PCF.
func (c *Client) SyncEvent(ctx context.Context, payload SyncPayload) {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Экспоненциальная задержка между попытками
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				c.logResult(payload, attempt, lastErr)
				return
			}
		}

		if lastErr = c.push(ctx, payload); lastErr == nil {
			c.logResult(payload, attempt+1, nil)
			return
		}

		log.Error().Err(lastErr).
			Str("event_id", payload.EventID).
			Int("attempt", attempt+1).
			Msg("CRM sync failed")
	}

	c.logResult(payload, c.config.MaxRetries, lastErr)
}

func (c *Client) push(ctx context.Context, payload SyncPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CRM sync error: %s", resp.Status)
	}

	var result syncResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Ok {
		return fmt.Errorf("CRM returned error: %s", result.Error)
	}

	return nil
}

func (c *Client) logResult(payload SyncPayload, attempts int, syncErr error) {
	// API-ключ не должен попадать в лог
	payload.APIKey = ""
	raw, _ := json.Marshal(payload)

	entry := &domain.CRMSyncLog{
		EventID:  payload.EventID,
		Payload:  raw,
		Success:  syncErr == nil,
		Attempts: attempts,
	}
	if syncErr != nil {
		entry.Error = syncErr.Error()
	}

	// Лог пишется в отдельном контексте: запрос уже мог завершиться
	logCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.payouts.CreateSyncLog(logCtx, entry); err != nil {
		log.Error().Err(err).Str("event_id", payload.EventID).Msg("failed to record CRM sync log")
	}
}
