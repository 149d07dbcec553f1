package llm

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

// OpenAIConfig configures the OpenAI-backed generator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OpenAI calls the chat completions API with JSON-mode output.
type OpenAI struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI generator. A missing API key is a
// permanent configuration error, reported at construction rather than
// on the first job.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &OpenAI{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	Temperature    float64             `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// GenerateLesson asks the model for a structured lesson. It performs a
// single attempt; retry policy belongs to the caller.
func (c *OpenAI) GenerateLesson(ctx context.Context, req LessonRequest) (*RawLesson, error) {
	chatReq := openAIChatRequest{
		Model: c.model,
		Messages: []openAIChatMessage{
			{Role: "system", Content: lessonSystemPrompt},
			{Role: "user", Content: buildLessonPrompt(req)},
		},
		Temperature: 0.2,
	}
	chatReq.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build openai request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOpenAI, Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ProviderError{Provider: ProviderOpenAI, Message: err.Error(), Transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var parsed openAIChatResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, &ProviderError{
			Provider:   ProviderOpenAI,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Transient:  transientStatus(resp.StatusCode),
		}
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ProviderError{Provider: ProviderOpenAI, Message: "malformed response body: " + err.Error(), Transient: true}
	}
	if len(parsed.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenAI, Message: "response contained no choices", Transient: true}
	}

	var lesson RawLesson
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &lesson); err != nil {
		// Malformed JSON from the model is worth one more attempt.
		return nil, &ProviderError{Provider: ProviderOpenAI, Message: "malformed lesson JSON: " + err.Error(), Transient: true}
	}

	lesson.Model = c.model
	return &lesson, nil
}

var _ Generator = (*OpenAI)(nil)
