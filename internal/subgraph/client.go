package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client posts GraphQL documents to subgraph endpoints. It carries no
// per-source state; the endpoint URL is passed per call.
type Client struct {
	APIKey string
	HTTP   *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		APIKey: strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("subgraph http %d", e.StatusCode)
	}
	return fmt.Sprintf("subgraph http %d: %s", e.StatusCode, b)
}

// Request is one GraphQL query with optional variables.
type Request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query executes one GraphQL request against endpoint and decodes the data
// object into out. GraphQL-level errors are returned as a single error; the
// caller decides whether to degrade or fail.
func (c *Client) Query(ctx context.Context, endpoint string, req Request, out any) error {
	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("query is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode graphql request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("authorization", "Bearer "+c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("failed to decode subgraph response: %w", err)
	}
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return fmt.Errorf("subgraph query errors: %s", strings.Join(msgs, "; "))
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("subgraph response has no data")
	}

	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode subgraph data: %w", err)
	}
	return nil
}
