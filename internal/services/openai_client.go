package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"soundcrew/internal/models"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type OpenAIClient struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewOpenAIClient(httpClient *http.Client, apiKey string) *OpenAIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OpenAIClient{
		httpClient: httpClient,
		apiKey:     apiKey,
		baseURL:    defaultOpenAIBaseURL,
	}
}

// Complete calls the chat completions endpoint. Non 2xx answers come back as
// *models.UpstreamError carrying the upstream status.
func (c *OpenAIClient) Complete(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	if c == nil || strings.TrimSpace(c.apiKey) == "" {
		return ChatCompletionResponse{}, models.ErrNotConfigured
	}

	body, err := json.Marshal(req)
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chat/completions", strings.TrimRight(c.baseURL, "/"))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return ChatCompletionResponse{}, &models.UpstreamError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ChatCompletionResponse{}, fmt.Errorf("decode response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return ChatCompletionResponse{}, nil
	}
	return ChatCompletionResponse{Content: parsed.Choices[0].Message.Content}, nil
}
