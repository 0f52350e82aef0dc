package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/osteele/liquid"
)

// Client отправляет письма через внешний mailer-эндпоинт.
// Эндпоинт - черный ящик, возвращающий success/error JSON.
type Client struct {
	baseURL string
	http    *http.Client
	engine  *liquid.Engine
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

// NewClient создает клиент mailer-сервиса
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		engine: liquid.NewEngine(),
	}
}

const inviteTemplate = `Hi{% if name != "" %} {{ name }}{% endif %},

{{ inviter }} invited you to join {{ org }} on SalesDesk as a {{ role }}.

Accept the invite: {{ link }}

The invite expires on {{ expires }}.`

const pcfNotificationTemplate = `A post-call form was submitted for {{ lead }}.

Outcome: {{ outcome }}
Closer: {{ closer }}

Open the dashboard: {{ link }}`

// SendInvite отправляет письмо-приглашение в команду
func (c *Client) SendInvite(ctx context.Context, to, name, inviter, org, role, link string, expires time.Time) error {
	body, err := c.render(inviteTemplate, map[string]interface{}{
		"name":    name,
		"inviter": inviter,
		"org":     org,
		"role":    role,
		"link":    link,
		"expires": expires.Format("January 2, 2006"),
	})
	if err != nil {
		return err
	}

	return c.send(ctx, sendRequest{
		To:      to,
		Subject: fmt.Sprintf("You're invited to %s", org),
		Body:    body,
	})
}

// SendPCFNotification уведомляет о новой PCF-форме
func (c *Client) SendPCFNotification(ctx context.Context, to, lead, outcome, closer, link string) error {
	body, err := c.render(pcfNotificationTemplate, map[string]interface{}{
		"lead":    lead,
		"outcome": outcome,
		"closer":  closer,
		"link":    link,
	})
	if err != nil {
		return err
	}

	return c.send(ctx, sendRequest{
		To:      to,
		Subject: fmt.Sprintf("New post-call form: %s", lead),
		Body:    body,
	})
}

func (c *Client) render(template string, bindings map[string]interface{}) (string, error) {
	out, err := c.engine.ParseAndRenderString(template, bindings)
	if err != nil {
		return "", fmt.Errorf("failed to render email template: %w", err)
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, req sendRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailer error: %s", resp.Status)
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !result.Ok {
		return fmt.Errorf("mailer returned error: %s", result.Error)
	}

	return nil
}
