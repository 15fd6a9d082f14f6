package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"validprompt/internal/logging"
)

const (
	OpenAIDefaultBaseURL = "https://api.openai.com/v1"
	OpenAIDefaultModel   = "gpt-5-nano"

	// NoResponse is returned when the upstream reply carries no text.
	NoResponse = "No response"

	systemInstruction = "You generate clear, concise, and high-quality prompts from minimal user input. " +
		"The result should never exceed a short paragraph (around 200 words max) and must be straight to the point."

	// upper bound on buffered upstream reply bodies
	maxResponseBytes = 4 << 20
)

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Client overrides the HTTP client, mainly for tests.
	Client *http.Client
}

// OpenAIProvider implements Generator against an OpenAI compatible
// chat completions endpoint.
type OpenAIProvider struct {
	auth    Authenticator
	client  *http.Client
	baseURL string
	model   string
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai provider: %w", ErrMissingAPIKey)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = OpenAIDefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = OpenAIDefaultModel
	}

	// No client timeout: the inbound request context bounds the call.
	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &OpenAIProvider{
		auth:    NewSimpleAPIKeyAuth(cfg.APIKey, "Authorization", "Bearer "),
		client:  client,
		baseURL: baseURL,
		model:   model,
	}, nil
}

// Model returns the configured model identifier
func (p *OpenAIProvider) Model() string {
	return p.model
}

func (p *OpenAIProvider) buildPayload(input string) ([]byte, error) {
	body := []byte(`{}`)
	var err error
	if body, err = sjson.SetBytes(body, "model", p.model); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "messages.0.role", "system"); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "messages.0.content", systemInstruction); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "messages.1.role", "user"); err != nil {
		return nil, err
	}
	if body, err = sjson.SetBytes(body, "messages.1.content", input); err != nil {
		return nil, err
	}
	return body, nil
}

// Generate sends one chat completion request. It never retries.
func (p *OpenAIProvider) Generate(ctx context.Context, input string) (*Completion, error) {
	start := time.Now()

	body, err := p.buildPayload(input)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	authCtx, err := p.auth.Authenticate(ctx)
	if err != nil {
		return nil, fmt.Errorf("authentication failed: %w", err)
	}
	if err := authCtx.ApplyToRequest(ctx, httpReq); err != nil {
		return nil, fmt.Errorf("failed to apply auth: %w", err)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	latency := time.Since(start)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := gjson.GetBytes(respBody, "error.message").String()
		logging.Debugf("upstream status %d after %s", resp.StatusCode, latency)
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Message: message}
	}

	text := gjson.GetBytes(respBody, "choices.0.message.content").String()
	if text == "" {
		text = NoResponse
	}

	model := gjson.GetBytes(respBody, "model").String()
	if model == "" {
		model = p.model
	}

	return &Completion{
		Text:            text,
		Model:           model,
		ProviderLatency: latency,
		InputTokens:     int(gjson.GetBytes(respBody, "usage.prompt_tokens").Int()),
		OutputTokens:    int(gjson.GetBytes(respBody, "usage.completion_tokens").Int()),
	}, nil
}
