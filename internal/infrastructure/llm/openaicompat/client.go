package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pakornb/moto-loan-intake/internal/infrastructure/resilience"
)

// Client talks to an OpenAI-compatible chat-completions endpoint. The text
// model serves intent classification and contextual chat; the vision model
// serves the motorcycle check and the appraisal.
type Client struct {
	baseURL     string
	apiKey      string
	textModel   string
	visionModel string
	httpClient  *http.Client
	executor    *resilience.Executor
}

func New(baseURL, apiKey, textModel, visionModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		textModel:   textModel,
		visionModel: visionModel,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		executor:    executor,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type textPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type imagePart struct {
	Type     string   `json:"type"`
	ImageURL imageURL `json:"image_url"`
}

type imageURL struct {
	URL string `json:"url"`
}

func systemMessage(text string) chatMessage {
	return chatMessage{Role: "system", Content: text}
}

func userMessage(text string) chatMessage {
	return chatMessage{Role: "user", Content: text}
}

func assistantMessage(text string) chatMessage {
	return chatMessage{Role: "assistant", Content: text}
}

func userImageMessage(prompt, dataURL string) chatMessage {
	return chatMessage{Role: "user", Content: []any{
		textPart{Type: "text", Text: prompt},
		imagePart{Type: "image_url", ImageURL: imageURL{URL: dataURL}},
	}}
}

func (c *Client) completeText(ctx context.Context, model string, messages []chatMessage, operation string) (string, error) {
	return c.complete(ctx, model, messages, false, operation)
}

func (c *Client) completeJSON(ctx context.Context, model string, messages []chatMessage, operation string) (string, error) {
	return c.complete(ctx, model, messages, true, operation)
}

func (c *Client) complete(ctx context.Context, model string, messages []chatMessage, jsonMode bool, operation string) (string, error) {
	payload := map[string]any{
		"model":       model,
		"messages":    messages,
		"temperature": 0,
	}
	if jsonMode {
		payload["response_format"] = map[string]string{"type": "json_object"}
	}

	var content string
	err := c.executor.Do(ctx, operation, classifyModelError, func(callCtx context.Context) error {
		out, callErr := c.postChatCompletion(callCtx, payload, operation)
		if callErr != nil {
			return callErr
		}
		content = out
		return nil
	})
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return content, nil
}

func (c *Client) postChatCompletion(ctx context.Context, payload any, operation string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("model %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", &HTTPStatusError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode %s response: %w", operation, err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("model %s response has no choices", operation)
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
