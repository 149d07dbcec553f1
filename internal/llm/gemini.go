package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GeminiConfig configures the Gemini-backed generator.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Gemini calls the generateContent API with a JSON response MIME type.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGemini creates a Gemini generator.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &Gemini{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		ResponseMimeType string  `json:"responseMimeType"`
		Temperature      float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateLesson asks the model for a structured lesson. Single
// attempt; retries live in the orchestrator.
func (c *Gemini) GenerateLesson(ctx context.Context, req LessonRequest) (*RawLesson, error) {
	genReq := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: lessonSystemPrompt}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: buildLessonPrompt(req)}}},
		},
	}
	genReq.GenerationConfig.ResponseMimeType = "application/json"
	genReq.GenerationConfig.Temperature = 0.2

	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Message: err.Error(), Transient: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Message: err.Error(), Transient: true}
	}

	if resp.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(respBody))
		var parsed geminiResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, &ProviderError{
			Provider:   ProviderGemini,
			StatusCode: resp.StatusCode,
			Message:    msg,
			Transient:  transientStatus(resp.StatusCode),
		}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Message: "malformed response body: " + err.Error(), Transient: true}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Provider: ProviderGemini, Message: "response contained no candidates", Transient: true}
	}

	var lesson RawLesson
	if err := json.Unmarshal([]byte(parsed.Candidates[0].Content.Parts[0].Text), &lesson); err != nil {
		return nil, &ProviderError{Provider: ProviderGemini, Message: "malformed lesson JSON: " + err.Error(), Transient: true}
	}

	lesson.Model = c.model
	return &lesson, nil
}

var _ Generator = (*Gemini)(nil)
