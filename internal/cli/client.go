package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// PublishResult — опубликованная запись.
type PublishResult struct {
	ItemID     string `json:"item_id"`
	ExternalID string `json:"external_id"`
	ReleaseURL string `json:"release_url"`
}

// ProgressResponse — состояние выполнения поста.
type ProgressResponse struct {
	Phase        string          `json:"phase"`
	Published    []PublishResult `json:"published"`
	Poked        bool            `json:"poked"`
	PendingPlugs int             `json:"pending_plugs"`
}

// PostResponse — пост из API.
type PostResponse struct {
	ID             string            `json:"id"`
	OrganizationID string            `json:"organization_id"`
	IntegrationID  string            `json:"integration_id"`
	Provider       string            `json:"provider"`
	State          string            `json:"state"`
	PublishDate    string            `json:"publish_date"`
	IntervalInDays int               `json:"interval_in_days,omitempty"`
	ReleaseID      string            `json:"release_id,omitempty"`
	ReleaseURL     string            `json:"release_url,omitempty"`
	Error          string            `json:"error,omitempty"`
	Workflow       *ProgressResponse `json:"workflow,omitempty"`
}

// ExecutionResponse — запущенное выполнение.
type ExecutionResponse struct {
	WorkflowID string `json:"workflow_id"`
	RunID      string `json:"run_id"`
	Immediate  bool   `json:"immediate"`
}

// --- Request types ---

// PublishPostRequest — запрос на публикацию.
type PublishPostRequest struct {
	Immediate bool `json:"immediate"`
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError — ошибка, возвращённая API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для postflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Posts ---

// GetPost возвращает пост и состояние его выполнения.
func (c *Client) GetPost(id string) (*PostResponse, error) {
	var post PostResponse
	err := c.get("/api/v1/posts/"+url.PathEscape(id), &post)
	return &post, err
}

// PublishPost запускает публикацию поста.
func (c *Client) PublishPost(id string, immediate bool) (*ExecutionResponse, error) {
	var exec ExecutionResponse
	err := c.post("/api/v1/posts/"+url.PathEscape(id)+"/publish", PublishPostRequest{Immediate: immediate}, &exec)
	return &exec, err
}

// PokePost отправляет poke выполнению поста.
func (c *Client) PokePost(id string) error {
	return c.post("/api/v1/posts/"+url.PathEscape(id)+"/poke", nil, nil)
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return &APIError{Status: resp.StatusCode, Code: er.Error.Code, Message: er.Error.Message}
}
