// Package generation talks to the two external backends of the villa
// pipeline: an OpenAI-compatible chat completion API that enhances prompts and
// an image backend that turns prompts into pictures.
//
// None of the calls return errors. Failures come back as fallback values with
// the reason attached, and are logged here.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/sync/singleflight"

	"dream-villa-bot/internal/metrics"
)

const (
	defaultCompletionBaseURL = "https://api.perplexity.ai"
	defaultCompletionModel   = "sonar"

	promptFormField = "prompt-text"
	maxImageBytes   = 32 << 20
)

type Options struct {
	// APIURL is the image backend base URL; GenPath and PromptsPath are appended verbatim.
	APIURL      string
	GenPath     string
	PromptsPath string

	// Enhancement is disabled when CompletionAPIKey is empty.
	CompletionAPIKey  string
	CompletionBaseURL string
	CompletionModel   string

	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

type Client struct {
	genURL     string
	promptsURL string
	httpClient *http.Client

	completion *openai.Client
	model      string

	probe   singleflight.Group
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 180 * time.Second}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	c := &Client{
		genURL:     opts.APIURL + opts.GenPath,
		promptsURL: opts.APIURL + opts.PromptsPath,
		httpClient: httpClient,
		model:      strings.TrimSpace(opts.CompletionModel),
		logger:     logger,
		metrics:    opts.Metrics,
	}
	if c.model == "" {
		c.model = defaultCompletionModel
	}

	if key := strings.TrimSpace(opts.CompletionAPIKey); key != "" {
		cfg := openai.DefaultConfig(key)
		cfg.BaseURL = strings.TrimRight(strings.TrimSpace(opts.CompletionBaseURL), "/")
		if cfg.BaseURL == "" {
			cfg.BaseURL = defaultCompletionBaseURL
		}
		cfg.HTTPClient = httpClient
		c.completion = openai.NewClientWithConfig(cfg)
		logger.Info("prompt enhancer initialized", "base_url", cfg.BaseURL, "model", c.model)
	}

	return c
}

// EnhancerEnabled reports whether a completion credential was configured.
func (c *Client) EnhancerEnabled() bool {
	return c.completion != nil
}

// Enhance rewrites prompt into a richer generation prompt and derives a title.
// It makes a single attempt bounded only by ctx and the HTTP client timeout.
func (c *Client) Enhance(ctx context.Context, prompt string) Enhancement {
	if c.completion == nil {
		c.metrics.Enhance("disabled")
		return Enhancement{Prompt: prompt, Title: DefaultTitle, Err: ErrEnhancerDisabled}
	}

	resp, err := c.completion.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: enhancerSystemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: enhancerInstruction(prompt)},
		},
	})
	if err != nil {
		c.logger.Warn("prompt enhancement failed", "err", err)
		c.metrics.Enhance("fallback")
		return Enhancement{Prompt: prompt, Title: DefaultTitle, Err: fmt.Errorf("chat completion: %w", err)}
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("prompt enhancement returned no choices")
		c.metrics.Enhance("fallback")
		return Enhancement{Prompt: prompt, Title: DefaultTitle, Err: errors.New("empty chat response")}
	}

	out := ParseEnhancement(resp.Choices[0].Message.Content, prompt)
	if out.Fallback() {
		c.logger.Warn("prompt enhancement response incomplete", "err", out.Err)
		c.metrics.Enhance("fallback")
		return out
	}

	c.metrics.Enhance("ok")
	return out
}

// Synthesize posts prompt to the image backend and returns the response body
// when the backend answers with a 2xx status.
func (c *Client) Synthesize(ctx context.Context, prompt string) Image {
	start := time.Now()
	data, err := c.synthesize(ctx, prompt)
	c.metrics.Synthesize(time.Since(start))

	if err != nil {
		c.logger.Error("image generation failed", "err", err, "dur_ms", time.Since(start).Milliseconds())
		return Image{Err: err}
	}
	return Image{Data: data}
}

func (c *Client) synthesize(ctx context.Context, prompt string) ([]byte, error) {
	form := url.Values{}
	form.Set(promptFormField, prompt)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.genURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("image API %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

// ProbeOnline reports whether the image backend answers its prompts endpoint
// with 200. Concurrent callers share one request.
func (c *Client) ProbeOnline(ctx context.Context) bool {
	v, _, _ := c.probe.Do("probe", func() (any, error) {
		return c.probeOnline(ctx), nil
	})
	online, _ := v.(bool)
	c.metrics.Probe(online)
	return online
}

func (c *Client) probeOnline(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.promptsURL, nil)
	if err != nil {
		c.logger.Error("probe request failed", "err", err)
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("error checking API url", "err", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	return resp.StatusCode == http.StatusOK
}
