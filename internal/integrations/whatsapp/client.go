package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client клиент HTTP шлюза WhatsApp (Green API совместимый)
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента шлюза
func NewClient(baseURL, token string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		log: log,
	}
}

// SendMessage отправляет текстовое сообщение в чат
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*SendMessageResponse, error) {
	url := fmt.Sprintf("%s/sendMessage/%s", c.baseURL, c.token)

	body, err := json.Marshal(SendMessageRequest{ChatID: chatID, Message: text})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	// Обработка статус-кодов
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: invalid chat id %s", ErrInvalidResponse, chatID)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(data))
	}

	var result SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return &result, nil
}

// SendConfirmationCode отправляет код подтверждения клиенту по номеру телефона
func (c *Client) SendConfirmationCode(ctx context.Context, phone, code string) error {
	chatID := ChatID(phone)

	result, err := c.SendMessage(ctx, chatID, ConfirmationText(code))
	if err != nil {
		c.log.Error("WhatsApp: failed to send confirmation code to %s: %v", MaskPhone(phone), err)
		return err
	}

	c.log.Info("WhatsApp: confirmation code sent to %s, message id=%s", MaskPhone(phone), result.IDMessage)
	return nil
}

// Close закрывает простаивающие соединения
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
