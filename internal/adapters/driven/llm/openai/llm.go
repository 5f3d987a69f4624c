// Package openai provides a chat completion adapter for the OpenAI
// API, with SSE streaming and tool calling.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/concierge-hq/concierge/internal/core/domain"
	"github.com/concierge-hq/concierge/internal/core/ports/driven"
)

// Ensure ChatService implements the interface.
var _ driven.ChatService = (*ChatService)(nil)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4o-mini"
	DefaultTimeout     = 120 * time.Second
	DefaultMaxTokens   = 2048
	DefaultTemperature = 0.2
)

// Config holds configuration for the OpenAI chat service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxTokens caps the completion length (default: 2048).
	MaxTokens int

	// Temperature controls sampling (default: 0.2).
	Temperature float64
}

// ChatService conducts conversations through the OpenAI chat
// completions API.
type ChatService struct {
	client      *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// Wire types for the chat completions API.

type apiMessage struct {
	Role       string        `json:"role"`
	Content    string        `json:"content"`
	ToolCalls  []apiToolCall `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
}

type apiToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function apiFunction `json:"function"`
}

type apiFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type apiTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string       `json:"model"`
	Messages    []apiMessage `json:"messages"`
	Tools       []apiTool    `json:"tools,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature float64      `json:"temperature"`
	Stream      bool         `json:"stream,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message      apiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type streamResponse struct {
	Choices []struct {
		Delta struct {
			Content   string `json:"content"`
			ToolCalls []struct {
				Index    int    `json:"index"`
				ID       string `json:"id"`
				Function struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// NewChatService creates a new OpenAI chat service.
func NewChatService(cfg Config) (*ChatService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}

	return &ChatService{
		client:      &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Chat runs one model call to completion without streaming.
func (s *ChatService) Chat(ctx context.Context, messages []domain.Message, tools []driven.ToolDefinition) (*driven.ChatResult, error) {
	resp, err := s.send(ctx, messages, tools, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrModelUnavailable, err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrModelUnavailable, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: response has no choices", domain.ErrModelUnavailable)
	}

	choice := chatResp.Choices[0]
	result := &driven.ChatResult{Content: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}

// ChatStream runs one model call, forwarding content tokens to onToken
// as they arrive. Tool-call deltas are aggregated by index and
// returned whole on the result.
func (s *ChatService) ChatStream(ctx context.Context, messages []domain.Message, tools []driven.ToolDefinition, onToken func(token string)) (*driven.ChatResult, error) {
	resp, err := s.send(ctx, messages, tools, true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	type partialCall struct {
		id   string
		name string
		args strings.Builder
	}
	partials := make(map[int]*partialCall)

	var content strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			break
		}

		var chunk streamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, fmt.Errorf("%w: decode stream chunk: %v", domain.ErrModelUnavailable, err)
		}
		if chunk.Error != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrModelUnavailable, chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.Delta.Content != "" {
			content.WriteString(choice.Delta.Content)
			if onToken != nil {
				onToken(choice.Delta.Content)
			}
		}
		for _, tc := range choice.Delta.ToolCalls {
			partial, ok := partials[tc.Index]
			if !ok {
				partial = &partialCall{}
				partials[tc.Index] = partial
			}
			if tc.ID != "" {
				partial.id = tc.ID
			}
			if tc.Function.Name != "" {
				partial.name = tc.Function.Name
			}
			partial.args.WriteString(tc.Function.Arguments)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read stream: %v", domain.ErrModelUnavailable, err)
	}

	result := &driven.ChatResult{Content: content.String()}
	indexes := make([]int, 0, len(partials))
	for idx := range partials {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		partial := partials[idx]
		result.ToolCalls = append(result.ToolCalls, domain.ToolCall{
			ID:        partial.id,
			Name:      partial.name,
			Arguments: partial.args.String(),
		})
	}
	return result, nil
}

// send issues a chat completions request and checks the status line.
func (s *ChatService) send(ctx context.Context, messages []domain.Message, tools []driven.ToolDefinition, stream bool) (*http.Response, error) {
	reqBody := chatRequest{
		Model:       s.model,
		Messages:    convertMessages(messages),
		Tools:       convertTools(tools),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Stream:      stream,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelUnavailable, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: chat API status 429", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrModelUnavailable, resp.StatusCode, string(body))
	}
	return resp, nil
}

func convertMessages(messages []domain.Message) []apiMessage {
	out := make([]apiMessage, 0, len(messages))
	for _, msg := range messages {
		m := apiMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.ToolName,
		}
		for _, tc := range msg.ToolCalls {
			m.ToolCalls = append(m.ToolCalls, apiToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: apiFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, m)
	}
	return out
}

func convertTools(tools []driven.ToolDefinition) []apiTool {
	out := make([]apiTool, 0, len(tools))
	for _, tool := range tools {
		var t apiTool
		t.Type = "function"
		t.Function.Name = tool.Name
		t.Function.Description = tool.Description
		t.Function.Parameters = tool.Parameters
		out = append(out, t)
	}
	return out
}

// ModelName returns the name of the chat model being used.
func (s *ChatService) ModelName() string {
	return s.model
}

// Close releases resources.
func (s *ChatService) Close() error {
	return nil
}
