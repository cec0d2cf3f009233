package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/dataflow/internal/domain"
)

// OperationResponse — операция из API.
type OperationResponse struct {
	Kind     string   `json:"kind"`
	Category string   `json:"category"`
	Display  bool     `json:"display"`
	Inputs   bool     `json:"needs_input"`
	Aliases  []string `json:"aliases,omitempty"`
}

// SubmitRunResponse — ответ на постановку run в очередь.
type SubmitRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
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

// Client — HTTP-клиент для dataflow API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Execute выполняет граф на сервере.
func (c *Client) Execute(ctx context.Context, graph *domain.Graph) (*domain.RunResult, error) {
	var res domain.RunResult
	if err := c.doData(ctx, http.MethodPost, "/api/v1/execute", graph, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitRun ставит граф в очередь.
func (c *Client) SubmitRun(ctx context.Context, graph *domain.Graph) (*SubmitRunResponse, error) {
	var out SubmitRunResponse
	if err := c.doData(ctx, http.MethodPost, "/api/v1/runs", graph, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOperations возвращает операции сервера.
func (c *Client) ListOperations(ctx context.Context) ([]OperationResponse, error) {
	var out []OperationResponse
	err := c.doData(ctx, http.MethodGet, "/api/v1/operations", nil, &out)
	return out, err
}

// --- HTTP helpers ---

func (c *Client) doData(ctx context.Context, method, path string, body any, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
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

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
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

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
