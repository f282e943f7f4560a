package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/pds-agent/core/pkg/circuitbreaker"
	"github.com/pds-agent/core/pkg/logger"
	"github.com/pds-agent/core/pkg/retry"
)

// Generator is the opaque model call the refinement loop consumes. A
// failed or timed-out generation maps to an empty answer at zero
// confidence upstream, never to a crash.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
	breaker     *circuitbreaker.Breaker
	retry       retry.Policy
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	log := logger.GetLogger()
	policy := retry.DefaultPolicy()
	policy.Logger = log

	return &Client{
		api:         openai.NewClient(cfg.APIKey),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		breaker: circuitbreaker.New("llm", circuitbreaker.Config{
			FailureLimit: 5,
			Cooldown:     30 * time.Second,
			Logger:       log,
		}),
		retry: policy,
	}, nil
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var answer string
	err := c.breaker.Do(ctx, func() error {
		result, err := retry.Value(ctx, c.retry, "chat_completion", func() (string, error) {
			return c.complete(ctx, prompt)
		})
		if err != nil {
			return err
		}
		answer = result
		return nil
	})
	if err != nil {
		logger.Error("generation failed",
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return "", err
	}

	logger.Debug("generation finished",
		zap.String("model", c.model),
		zap.Int("answer_len", len(answer)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return answer, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
