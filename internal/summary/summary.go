// Package summary requests short summaries of note content from an
// OpenAI-compatible chat-completion endpoint.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/starford/notetidy/internal/apperr"
)

// Summarizer produces a summary for a prompt.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Provider hands out a Summarizer bound to an API key. The key is part of the
// user-editable settings, so it is resolved per operation.
type Provider interface {
	ForKey(apiKey string) Summarizer
}

// DefaultPromptTemplate is used when no template is configured. %s receives
// the note content.
const DefaultPromptTemplate = "Summarize the following note in under 100 words:\n%s"

// BuildPrompt fills template with content. A template without %s gets the
// content appended on a new line.
func BuildPrompt(template, content string) string {
	if template == "" {
		template = DefaultPromptTemplate
	}
	if !strings.Contains(template, "%s") {
		return template + "\n" + content
	}
	return fmt.Sprintf(template, content)
}

// Config configures the OpenAI-compatible client.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
	// Timeout bounds a single request; zero means no timeout.
	Timeout time.Duration
	// RequestsPerMinute caps the request rate; zero disables the limiter.
	RequestsPerMinute int
	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker; zero disables it.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open.
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// OpenAI implements Summarizer with sashabaranov/go-openai. A failed call is
// reported and never retried.
type OpenAI struct {
	client  *openai.Client
	key     string
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *slog.Logger
	views   *keyedViews
}

type keyedViews struct {
	mu   sync.Mutex
	last *OpenAI
}

var _ Provider = (*OpenAI)(nil)

// NewOpenAI creates a client for cfg.
func NewOpenAI(cfg Config, logger *slog.Logger) *OpenAI {
	if logger == nil {
		logger = slog.Default()
	}
	o := &OpenAI{
		client: openai.NewClientWithConfig(clientConfig(cfg, cfg.APIKey)),
		key:    cfg.APIKey,
		cfg:    cfg,
		logger: logger,
		views:  &keyedViews{},
	}
	if cfg.RequestsPerMinute > 0 {
		o.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	if cfg.BreakerFailures > 0 {
		cooldown := cfg.BreakerCooldown
		if cooldown <= 0 {
			cooldown = time.Minute
		}
		threshold := cfg.BreakerFailures
		o.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "summary-api",
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("summary: circuit breaker state changed",
					slog.String("circuit", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		})
	}
	return o
}

func clientConfig(cfg Config, apiKey string) openai.ClientConfig {
	oc := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return oc
}

// ForKey returns a client that authenticates with apiKey and shares the
// breaker and limiter with o. An empty key returns o.
func (o *OpenAI) ForKey(apiKey string) Summarizer {
	if apiKey == "" || apiKey == o.key {
		return o
	}
	o.views.mu.Lock()
	defer o.views.mu.Unlock()
	if v := o.views.last; v != nil && v.key == apiKey {
		return v
	}
	v := &OpenAI{
		client:  openai.NewClientWithConfig(clientConfig(o.cfg, apiKey)),
		key:     apiKey,
		cfg:     o.cfg,
		breaker: o.breaker,
		limiter: o.limiter,
		logger:  o.logger,
		views:   o.views,
	}
	o.views.last = v
	return v
}

// Summarize sends prompt as the user message and returns
// choices[0].message.content. Any non-2xx status, transport error or
// missing content is returned as an error wrapping apperr.ErrExternalCall.
func (o *OpenAI) Summarize(ctx context.Context, prompt string) (string, error) {
	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("summary: rate limit: %w: %w", apperr.ErrExternalCall, err)
		}
	}
	if o.breaker == nil {
		return o.do(ctx, prompt)
	}

	res, err := o.breaker.Execute(func() (interface{}, error) {
		return o.do(ctx, prompt)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("summary: endpoint unavailable (circuit %s): %w", o.breaker.State(), apperr.ErrExternalCall)
		}
		return "", err
	}
	return res.(string), nil
}

func (o *OpenAI) do(ctx context.Context, prompt string) (string, error) {
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	var msgs []openai.ChatCompletionMessage
	if o.cfg.SystemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.cfg.SystemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.cfg.Model,
		Messages: msgs,
		Stream:   false,
	})
	duration := time.Since(start)
	if err != nil {
		o.logger.ErrorContext(ctx, "summary: request failed",
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("summary: %w: %w", apperr.ErrExternalCall, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary: response has no choices: %w", apperr.ErrExternalCall)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("summary: response has empty content: %w", apperr.ErrExternalCall)
	}

	o.logger.InfoContext(ctx, "summary: completed",
		slog.String("model", o.cfg.Model),
		slog.Int("prompt_length", len([]rune(prompt))),
		slog.Int("summary_length", len([]rune(content))),
		slog.Duration("duration", duration))
	return content, nil
}

// Func adapts a function to Summarizer.
type Func func(ctx context.Context, prompt string) (string, error)

// Summarize calls f.
func (f Func) Summarize(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ForKey ignores the key and returns f.
func (f Func) ForKey(string) Summarizer {
	return f
}
