package intent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/page-engage-bot/internal/config"
	"github.com/lueurxax/page-engage-bot/internal/observability"
	db "github.com/lueurxax/page-engage-bot/internal/storage"
)

type openaiClient struct {
	cfg    *config.Config
	client *openai.Client
	logger *zerolog.Logger

	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 1 * time.Minute

	classifyTemperature = 0.1
	logPreviewLen       = 50
)

func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLMAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPS)), 5), // User-defined RPS, burst 5
	}
}

func (c *openaiClient) ClassifyComment(ctx context.Context, message, userName string) (*Verdict, error) {
	raw, err := c.complete(ctx, "classify_comment", []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: commentPrompt(message, userName)},
	})
	if err != nil {
		return DefaultVerdict(), err
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("raw", truncate(raw, logPreviewLen)).Msg("classifier returned unparseable verdict")

		return DefaultVerdict(), err
	}

	c.logger.Info().
		Str("intent", verdict.Intent).
		Float32("confidence", verdict.Confidence).
		Str("comment", truncate(message, logPreviewLen)).
		Msg("intent analysis completed")

	return verdict, nil
}

func (c *openaiClient) GenerateChatReply(ctx context.Context, req ChatReplyRequest) string {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Context)+2)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: chatSystemPrompt(req.Greet, req.FirstName),
	})

	for _, m := range req.Context {
		role := openai.ChatMessageRoleUser
		if m.Role == db.RoleAgent {
			role = openai.ChatMessageRoleAssistant
		}

		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.LatestText,
	})

	reply, err := c.complete(ctx, "generate_chat_reply", messages)
	if err != nil || reply == "" {
		c.logger.Warn().Err(err).Bool("greet", req.Greet).Msg("chat reply generation failed, using canned fallback")

		return FallbackChatReply(req.Greet, req.FirstName)
	}

	return reply
}

func (c *openaiClient) complete(ctx context.Context, operation string, messages []openai.ChatCompletionMessage) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.LLMModel,
		Messages:    messages,
		Temperature: classifyTemperature,
	})

	observability.LLMRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()

		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrMalformedResponse)
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("circuit breaker is open until %v", c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= circuitBreakerThreshold {
		c.circuitOpenUntil = time.Now().Add(circuitBreakerTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}
