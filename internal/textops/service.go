// Package textops applies LLM-backed manipulations (summaries, guide
// formatting, custom instructions) to transcript text.
package textops

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"audio-transcription-service/internal/apperrors"
	"audio-transcription-service/internal/config"
	"audio-transcription-service/internal/observability/logging"
	"audio-transcription-service/internal/observability/metrics"
)

// Operation identifies a text manipulation.
type Operation string

const (
	OperationSummarize Operation = "summarize"
	OperationGuides    Operation = "guides"
	OperationCustom    Operation = "custom"
)

const (
	summarizeSystemPrompt = "You are a helpful assistant that summarizes text concisely while preserving key information."
	guidesSystemPrompt    = "You are a helpful assistant that creates clear step-by-step guides at a 6th-grade reading level."
	customSystemPrompt    = "You are a helpful assistant that follows instructions precisely."

	guidesUserPrompt = `Task: Improve and finalize a step-by-step guide based on the attached draft.
Audience: Readers who need clear, simple instructions to take action.
Goal: Ensure they understand what to do, how to do it, how often to do it, who is to do it, and when to expect confirmation in the easiest way possible.

Refinement Guidelines:
- 6th-grade reading level: simple, direct, no jargon.
- Easy to scan: use bold headers, numbered steps, bullet points, and tables if helpful.
- Logical flow:
    Title - Action-based, clear purpose.
    Who This is For - One-line audience description.
    What Can Be Done - Quick bullet list.
    Step-by-Step Instructions - Numbered, easy-to-follow.
    How to Track or Confirm - What happens next.
    Quick Reference Table (with Frequency, Responsible Party, and Task fields, in that order) - If applicable.
    Need Help? - Contact details.
- Remove fluff while keeping all necessary details.
- Clarify confirmation steps.
- Keep it friendly, but direct: short sentences, no extra words.`
)

// completer is the slice of the chat API the service uses.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Request describes one text manipulation.
type Request struct {
	Text      string    `json:"text"`
	Operation Operation `json:"operation"`
	Prompt    string    `json:"prompt,omitempty"`
}

// Service runs text manipulations through a chat-completion model.
type Service struct {
	client    completer
	model     string
	maxTokens int
	metrics   *metrics.Metrics
}

// New creates a text manipulation service from configuration.
func New(cfg config.TextOpsConfig) *Service {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Service{
		client:    openai.NewClientWithConfig(clientCfg),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		metrics:   metrics.DefaultMetrics,
	}
}

// Manipulate validates the request and runs the chat completion. Validation
// failures never reach the network.
func (s *Service) Manipulate(ctx context.Context, req Request) (string, error) {
	logger := logging.WithComponent("textops")

	systemPrompt, userPrompt, err := buildPrompts(req)
	if err != nil {
		return "", err
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   s.maxTokens,
		TopP:        1,
	})
	if s.metrics != nil {
		s.metrics.RecordTextOp(string(req.Operation), err)
	}
	if err != nil {
		logger.Error().Err(err).Str("operation", string(req.Operation)).Msg("Text manipulation failed")
		return "", apperrors.Internal(err, "failed to manipulate text: %s", serviceMessage(err))
	}

	if len(resp.Choices) == 0 {
		return "", apperrors.Internal(nil, "failed to manipulate text: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildPrompts(req Request) (systemPrompt, userPrompt string, err error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", "", apperrors.Validation("Text is required")
	}
	if req.Operation == "" {
		return "", "", apperrors.Validation("Operation type is required")
	}

	switch req.Operation {
	case OperationSummarize:
		return summarizeSystemPrompt,
			fmt.Sprintf("Please summarize the following text:\n\n%s", req.Text), nil
	case OperationGuides:
		return guidesSystemPrompt,
			fmt.Sprintf("%s\n\nText to process:\n\n%s", guidesUserPrompt, req.Text), nil
	case OperationCustom:
		if strings.TrimSpace(req.Prompt) == "" {
			return "", "", apperrors.Validation("Custom prompt is required for custom operation")
		}
		return customSystemPrompt,
			fmt.Sprintf("%s\n\nText to process:\n\n%s", req.Prompt, req.Text), nil
	default:
		return "", "", apperrors.Validation("Invalid operation type")
	}
}

// serviceMessage extracts the upstream explanation when the provider
// returned a structured error body.
func serviceMessage(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
