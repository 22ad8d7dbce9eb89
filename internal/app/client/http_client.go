package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"wellnest/internal/app/client/config"
	"wellnest/internal/domain/outbox"
	"wellnest/internal/domain/sync"
)

// ErrUnauthorized сервер отклонил токен
var ErrUnauthorized = errors.New("требуется авторизация")

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	userAgent string

	mu    gosync.RWMutex
	token string
}

func NewHTTPClient(cfg *config.Config, log *slog.Logger) (*httpClient, error) {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	// Определяем протокол
	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}
	baseURL := scheme + cfg.ServerAddress
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("некорректный адрес сервера: %w", err)
	}

	return &httpClient{
		client:    client,
		log:       log.With(slog.String("component", "http_client")),
		baseURL:   baseURL,
		userAgent: "Wellnest-Client/1.0",
	}, nil
}

// SetToken устанавливает токен аутентификации
func (h *httpClient) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = token
}

func (h *httpClient) bearer() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// HealthCheck проверяет доступность сервера
func (h *httpClient) HealthCheck(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}

	return h.parseResponse(resp, nil)
}

// PushOperations отправляет пакет операций. Любой ответ кроме 2xx или тело,
// которое не удалось разобрать, считаются ошибкой: очередь в этом случае не меняется.
func (h *httpClient) PushOperations(ctx context.Context, ops []outbox.Operation) (*outbox.SyncResult, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/sync", outbox.SyncRequest{Operations: ops})
	if err != nil {
		return nil, err
	}

	var out outbox.SyncResponse
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// ListRows получает строки ресурса текущего пользователя
func (h *httpClient) ListRows(ctx context.Context, table string) ([]sync.Row, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/tables/"+url.PathEscape(table)+"/rows", nil)
	if err != nil {
		return nil, err
	}

	var out sync.ListRowsResponse
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []sync.Row{}
	}

	return out.Data, nil
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	// Добавляем заголовки
	req.Header.Set("User-Agent", h.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := h.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	h.log.Debug("Отправка запроса",
		slog.String("method", method),
		slog.String("url", req.URL.String()),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}

	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ",
		slog.Int("status", resp.StatusCode),
		slog.Int("size", len(body)),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Error != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Error)
			}
			if errResp.Detail != "" {
				return fmt.Errorf("ошибка сервера: %s", errResp.Detail)
			}
		}
		return fmt.Errorf("ошибка сервера: статус %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}

	return nil
}
