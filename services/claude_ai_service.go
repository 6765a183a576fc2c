package services

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/DealSproutAdmin/deals-api/config"
)

// ============================================================================
// CLAUDE AI SERVICE - Backend génératif du pipeline de propositions
// Boîte noire prompt-in / text-out, avec limiteur RPM et plafond de tokens.
// ============================================================================

// GenerativeClient is the pipeline's view of the generative backend.
type GenerativeClient interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type ClaudeAIService struct {
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
	client      *resty.Client
}

type ClaudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
	System      string          `json:"system,omitempty"`
	Messages    []ClaudeMessage `json:"messages"`
}

type ClaudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ClaudeResponse struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func NewClaudeAIService(cfg config.PipelineConfig) *ClaudeAIService {
	client := resty.New().
		SetBaseURL("https://api.anthropic.com").
		SetTimeout(cfg.ClaudeTimeout)

	return &ClaudeAIService{
		apiKey:      os.Getenv("ANTHROPIC_API_KEY"),
		model:       cfg.ClaudeModel,
		maxTokens:   cfg.ClaudeMaxTokens,
		temperature: cfg.ClaudeTemperature,
		limiter:     rate.NewLimiter(rate.Limit(float64(cfg.ClaudeRPM)/60.0), 1),
		client:      client,
	}
}

func (s *ClaudeAIService) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if s.apiKey == "" {
		return "", fmt.Errorf("ANTHROPIC_API_KEY not set")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	requestBody := ClaudeRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		System:      systemPrompt,
		Messages: []ClaudeMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	var claudeResp ClaudeResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-api-key", s.apiKey).
		SetHeader("anthropic-version", "2023-06-01").
		SetBody(requestBody).
		SetResult(&claudeResp).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("HTTP request failed: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if len(claudeResp.Content) == 0 {
		return "", fmt.Errorf("empty response from Claude")
	}

	log.Printf("[Claude AI] Model: %s | Tokens: In %d / Out %d | Cost: $%.5f",
		claudeResp.Model,
		claudeResp.Usage.InputTokens,
		claudeResp.Usage.OutputTokens,
		s.EstimateCost(claudeResp.Usage.InputTokens, claudeResp.Usage.OutputTokens),
	)

	return claudeResp.Content[0].Text, nil
}

// Pricing (approximate for Claude 3.5 Sonnet)
const (
	InputTokenPrice  = 0.000003 // $3 per million
	OutputTokenPrice = 0.000015 // $15 per million
)

func (s *ClaudeAIService) EstimateCost(inputTokens int, outputTokens int) float64 {
	inputCost := float64(inputTokens) * InputTokenPrice
	outputCost := float64(outputTokens) * OutputTokenPrice
	return inputCost + outputCost
}
