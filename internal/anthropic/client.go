package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/mockview/internal/llm"
)

const apiURL = "https://api.anthropic.com/v1/messages"

const defaultMaxTokens = 4096

type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: apiURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// SetBaseURL overrides the Messages API endpoint, e.g. to point at a test server.
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a message to the Anthropic API and returns the text response.
func (c *Client) Complete(ctx context.Context, system string, messages []Message, maxTokens int) (string, error) {
	reqBody := request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Type != "" {
			return "", fmt.Errorf("api error %d: %s: %s", resp.StatusCode, errResp.Error.Type, errResp.Error.Message)
		}
		return "", fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if len(apiResp.Content) == 0 {
		return "", fmt.Errorf("empty response content")
	}

	return apiResp.Content[0].Text, nil
}

// GenerateObject asks for a JSON object matching req.Schema. The Messages API
// has no native response schema, so the schema is appended to the prompt and
// the caller validates what comes back.
func (c *Client) GenerateObject(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	prompt := req.Prompt
	if req.Schema != nil {
		schemaJSON, err := json.MarshalIndent(req.Schema.JSONSchema(), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal schema: %w", err)
		}
		var sb strings.Builder
		sb.WriteString(prompt)
		sb.WriteString("\n\nRespond with a single JSON object matching this JSON Schema:\n")
		sb.Write(schemaJSON)
		sb.WriteString("\n\nReturn ONLY the JSON object, no markdown fences or other text.")
		prompt = sb.String()
	}

	text, err := c.Complete(ctx, req.System, []Message{{Role: "user", Content: prompt}}, defaultMaxTokens)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(llm.CleanJSONBlock(text)), nil
}
