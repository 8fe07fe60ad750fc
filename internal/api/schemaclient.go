package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// SchemaClient fetches item-schema property tables. The schema host exposes
// each property as a bidirectional map; only the name-to-number direction is
// kept.
type SchemaClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSchemaClient creates a client against the schema host. httpClient and
// logger may be nil.
func NewSchemaClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *SchemaClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: time.Minute}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// GetEffects returns the unusual effect table, name to effect id.
func (c *SchemaClient) GetEffects(ctx context.Context) (map[string]float64, error) {
	return c.getProperty(ctx, "effects")
}

// GetStrangeParts returns the strange part table, name to score type.
func (c *SchemaClient) GetStrangeParts(ctx context.Context) (map[string]float64, error) {
	return c.getProperty(ctx, "strangeParts")
}

type propertyResponse struct {
	Success bool           `json:"success"`
	Value   map[string]any `json:"value"`
}

func (c *SchemaClient) getProperty(ctx context.Context, name string) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/properties/"+name, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	var pr propertyResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	if !pr.Success {
		return nil, fmt.Errorf("get %s: upstream reported failure", name)
	}

	// The reverse entries map numeric ids back to names; drop them.
	table := make(map[string]float64, len(pr.Value)/2)
	for k, v := range pr.Value {
		if n, ok := v.(float64); ok {
			table[k] = n
		}
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("get %s: empty table", name)
	}

	return table, nil
}
