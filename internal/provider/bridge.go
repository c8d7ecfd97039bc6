package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/shaiso/postflow/internal/domain"
)

// Default configuration values.
const (
	defaultBridgeTimeout    = 30 * time.Second
	defaultBridgeRetries    = 2
	defaultBridgeBaseDelay  = 200 * time.Millisecond
	defaultBridgeMaxDelay   = 5 * time.Second
	maxErrorMessageLen      = 200
	bridgeContentTypeHeader = "application/json"
)

// BridgeConfig — конфигурация HTTP-адаптера провайдера.
type BridgeConfig struct {
	// Identifier — идентификатор провайдера (обязательно).
	Identifier string

	// BaseURL — адрес bridge-сервиса, например http://bridge:3000.
	BaseURL string

	// Commentable — поддерживает ли провайдер комментарии.
	Commentable bool

	// InternalPlugs — функции internal plug, которые понимает провайдер.
	InternalPlugs []string

	// HTTPClient — опционально; по умолчанию клиент с таймаутом 30s.
	HTTPClient *http.Client

	// Transport retry (сетевые ошибки, 429, 5xx).
	MaxRetries int           // default: 2
	BaseDelay  time.Duration // default: 200ms
	MaxDelay   time.Duration // default: 5s
}

// Bridge — Provider поверх HTTP bridge-сервиса.
//
// Bridge делает JSON-запросы вида POST {BaseURL}/v1/{provider}/{action}.
// Ответы отображаются в ошибки так:
//   - 2xx         — успех
//   - 401, 403    — ErrRefreshNeeded
//   - 400, 413, 422 — ErrBadBody
//   - 429, 5xx, сетевые ошибки — повтор с backoff, затем ErrBridgeRequest
type Bridge struct {
	identifier    string
	baseURL       string
	commentable   bool
	internalPlugs map[string]struct{}
	client        *http.Client
	executor      failsafe.Executor[*bridgeResponse]
}

// bridgeResponse — прочитанный ответ bridge. Тело читается внутри попытки,
// чтобы повторы не оставляли открытых соединений.
type bridgeResponse struct {
	status int
	body   []byte
}

// NewBridge создаёт HTTP-адаптер провайдера.
func NewBridge(cfg BridgeConfig) *Bridge {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultBridgeTimeout}
	}

	plugs := make(map[string]struct{}, len(cfg.InternalPlugs))
	for _, fn := range cfg.InternalPlugs {
		plugs[fn] = struct{}{}
	}

	return &Bridge{
		identifier:    cfg.Identifier,
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		commentable:   cfg.Commentable,
		internalPlugs: plugs,
		client:        client,
		executor:      failsafe.With(newBridgeRetryPolicy(cfg)),
	}
}

// newBridgeRetryPolicy строит политику повторов транспортного уровня.
func newBridgeRetryPolicy(cfg BridgeConfig) retrypolicy.RetryPolicy[*bridgeResponse] {
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	} else if maxRetries == 0 {
		maxRetries = defaultBridgeRetries
	}

	baseDelay := cfg.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBridgeBaseDelay
	}
	maxDelay := cfg.MaxDelay
	if maxDelay < baseDelay {
		maxDelay = max(baseDelay, defaultBridgeMaxDelay)
	}

	return retrypolicy.NewBuilder[*bridgeResponse]().
		WithMaxRetries(maxRetries).
		WithBackoff(baseDelay, maxDelay).
		WithJitterFactor(0.1).
		HandleIf(func(resp *bridgeResponse, err error) bool {
			if err != nil {
				return true
			}
			return isTransientStatus(resp.status)
		}).
		ReturnLastFailure().
		Build()
}

// isTransientStatus возвращает true для статусов, которые стоит повторить.
func isTransientStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// Identifier возвращает идентификатор провайдера.
func (b *Bridge) Identifier() string { return b.identifier }

// Commentable сообщает, поддерживает ли провайдер комментарии.
func (b *Bridge) Commentable() bool { return b.commentable }

// SupportsInternalPlug сообщает, известна ли функция internal plug.
func (b *Bridge) SupportsInternalPlug(function string) bool {
	_, ok := b.internalPlugs[function]
	return ok
}

// --- Wire types ---

type bridgeIntegration struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type bridgeItem struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Settings string `json:"settings,omitempty"`
}

type publishRequest struct {
	Integration bridgeIntegration `json:"integration"`
	AnchorID    string            `json:"anchor_id,omitempty"`
	ParentID    string            `json:"parent_id,omitempty"`
	Items       []bridgeItem      `json:"items"`
}

type publishResponse struct {
	Results []struct {
		ItemID     string `json:"item_id"`
		ExternalID string `json:"external_id"`
		ReleaseURL string `json:"release_url"`
	} `json:"results"`
}

type refreshRequest struct {
	Integration bridgeIntegration `json:"integration"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type plugRequest struct {
	Integration bridgeIntegration `json:"integration"`
	Function    string            `json:"function"`
	AnchorID    string            `json:"anchor_id"`
	Data        map[string]string `json:"data,omitempty"`
}

type plugResponse struct {
	Satisfied bool `json:"satisfied"`
}

// --- Operations ---

// Post публикует основной пост.
func (b *Bridge) Post(ctx context.Context, integ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error) {
	req := publishRequest{Integration: toBridgeIntegration(integ), Items: toBridgeItems(items)}

	var resp publishResponse
	if err := b.call(ctx, "posts", req, &resp); err != nil {
		return nil, err
	}
	return toResults(resp, items), nil
}

// Comment публикует комментарий в ответ на anchorID или parentID.
func (b *Bridge) Comment(ctx context.Context, anchorID, parentID string, integ domain.Integration, items []domain.PostItem) ([]domain.PublishResult, error) {
	req := publishRequest{
		Integration: toBridgeIntegration(integ),
		AnchorID:    anchorID,
		ParentID:    parentID,
		Items:       toBridgeItems(items),
	}

	var resp publishResponse
	if err := b.call(ctx, "comments", req, &resp); err != nil {
		return nil, err
	}
	return toResults(resp, items), nil
}

// RefreshToken обновляет токен интеграции.
func (b *Bridge) RefreshToken(ctx context.Context, integ domain.Integration) (domain.Token, error) {
	var resp refreshResponse
	if err := b.call(ctx, "refresh", refreshRequest{Integration: toBridgeIntegration(integ)}, &resp); err != nil {
		return domain.Token{}, err
	}
	return domain.Token{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
	}, nil
}

// RunInternalPlug выполняет internal plug.
func (b *Bridge) RunInternalPlug(ctx context.Context, integ domain.Integration, task domain.PlugTask, anchorID string) error {
	req := plugRequest{
		Integration: toBridgeIntegration(integ),
		Function:    task.Function,
		AnchorID:    anchorID,
		Data:        task.Data,
	}
	return b.call(ctx, "plugs/internal", req, nil)
}

// RunGlobalPlug выполняет global plug.
func (b *Bridge) RunGlobalPlug(ctx context.Context, integ domain.Integration, task domain.PlugTask, anchorID string) (bool, error) {
	req := plugRequest{
		Integration: toBridgeIntegration(integ),
		Function:    task.Function,
		AnchorID:    anchorID,
		Data:        task.Data,
	}

	var resp plugResponse
	if err := b.call(ctx, "plugs/global", req, &resp); err != nil {
		return false, err
	}
	return resp.Satisfied, nil
}

// call выполняет запрос с повторами и разбирает ответ в result.
func (b *Bridge) call(ctx context.Context, action string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: marshal body: %v", ErrBridgeRequest, err)
	}

	url := fmt.Sprintf("%s/v1/%s/%s", b.baseURL, b.identifier, action)

	resp, err := b.executor.WithContext(ctx).Get(func() (*bridgeResponse, error) {
		return b.do(ctx, url, body)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBridgeRequest, action, err)
	}

	if err := classifyStatus(resp); err != nil {
		return err
	}

	if result == nil || len(resp.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, result); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", ErrBridgeRequest, action, err)
	}
	return nil
}

// do выполняет одну попытку запроса.
func (b *Bridge) do(ctx context.Context, url string, body []byte) (*bridgeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", bridgeContentTypeHeader)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &bridgeResponse{status: resp.StatusCode, body: respBody}, nil
}

// classifyStatus превращает HTTP-статус в ошибку провайдера.
func classifyStatus(resp *bridgeResponse) error {
	switch {
	case resp.status < http.StatusBadRequest:
		return nil
	case resp.status == http.StatusUnauthorized, resp.status == http.StatusForbidden:
		return RefreshNeeded(errorMessage(resp.body))
	case resp.status == http.StatusBadRequest,
		resp.status == http.StatusRequestEntityTooLarge,
		resp.status == http.StatusUnprocessableEntity:
		return BadBody(errorMessage(resp.body))
	default:
		return fmt.Errorf("%w: HTTP %d: %s", ErrBridgeRequest, resp.status, truncate(string(resp.body), maxErrorMessageLen))
	}
}

// errorMessage извлекает сообщение из тела ответа: {"message": ...} или {"error": ...},
// иначе возвращает тело как есть.
func errorMessage(body []byte) string {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, key := range []string{"message", "error"} {
			if msg := getString(parsed, key, ""); msg != "" {
				return truncate(msg, maxErrorMessageLen)
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)), maxErrorMessageLen)
}

// --- Helpers ---

func toBridgeIntegration(integ domain.Integration) bridgeIntegration {
	return bridgeIntegration{
		ID:           integ.ID,
		Name:         integ.Name,
		Token:        integ.Token,
		RefreshToken: integ.RefreshToken,
	}
}

func toBridgeItems(items []domain.PostItem) []bridgeItem {
	out := make([]bridgeItem, len(items))
	for i, item := range items {
		out[i] = bridgeItem{ID: item.ID, Content: item.Content, Settings: item.Settings}
	}
	return out
}

// toResults переводит ответ bridge в PublishResult.
// Пустой item_id заполняется id первой отправленной записи.
func toResults(resp publishResponse, items []domain.PostItem) []domain.PublishResult {
	var fallbackID string
	if len(items) > 0 {
		fallbackID = items[0].ID
	}

	results := make([]domain.PublishResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		itemID := r.ItemID
		if itemID == "" {
			itemID = fallbackID
		}
		results = append(results, domain.PublishResult{
			ItemID:     itemID,
			ExternalID: r.ExternalID,
			ReleaseURL: r.ReleaseURL,
		})
	}
	return results
}

// getString извлекает строку из map с default значением.
func getString(m map[string]any, key, defaultVal string) string {
	if val, ok := m[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return defaultVal
}

// truncate обрезает строку до указанной длины.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
