package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tildaslashalef/reviewstack/internal/config"
	"github.com/tildaslashalef/reviewstack/internal/loggy"
	"github.com/tildaslashalef/reviewstack/internal/openrouter"
)

// Completer sends one prompt to a chat-completion model
type Completer interface {
	Complete(ctx context.Context, req openrouter.CompletionRequest) (string, error)
}

// Service provides code review functionality
type Service struct {
	completer  Completer
	normalizer *Normalizer
	legacy     *LegacyParser
	config     config.ReviewConfig
	logger     *loggy.Logger
}

// NewService creates a new review service
func NewService(completer Completer, cfg config.ReviewConfig, logger *loggy.Logger) *Service {
	return &Service{
		completer:  completer,
		normalizer: NewNormalizer(logger),
		legacy:     NewLegacyParser(logger),
		config:     cfg,
		logger:     logger,
	}
}

// GenerateCodeReview reviews one file. Completion failures are returned as
// is; an unparsable answer still yields a fallback review.
func (s *Service) GenerateCodeReview(ctx context.Context, req Request) (*CodeReview, error) {
	prompt, err := BuildPrompt(req.Code, req.FileName, req.Language, req.Context)
	if err != nil {
		return nil, fmt.Errorf("building review prompt: %w", err)
	}

	start := time.Now()
	content, err := s.completer.Complete(ctx, openrouter.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: ReviewSystemInstruction,
		Temperature:       s.config.Temperature,
		MaxTokens:         s.config.MaxTokens,
	})
	if err != nil {
		s.logger.Error("Code review completion failed", "file", req.FileName, "error", err)
		return nil, fmt.Errorf("generating code review: %w", err)
	}

	review := s.normalizer.Normalize(content, req.FileName, req.Code, req.Repository)

	s.logger.Info("Code review generated",
		"file", req.FileName,
		"language", req.Language,
		"rating", review.OverallRating,
		"issues", len(review.Issues),
		"duration", time.Since(start))
	return review, nil
}

// ReviewCode reviews one file using the legacy response shape
func (s *Service) ReviewCode(ctx context.Context, code, fileName, language string) (*AIReviewResponse, error) {
	prompt, err := BuildLegacyPrompt(code, fileName, language, "")
	if err != nil {
		return nil, fmt.Errorf("building legacy review prompt: %w", err)
	}

	content, err := s.completer.Complete(ctx, openrouter.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: LegacySystemInstruction,
		Temperature:       s.config.Temperature,
		MaxTokens:         s.config.MaxTokens,
	})
	if err != nil {
		s.logger.Error("Legacy review completion failed", "file", fileName, "error", err)
		return nil, fmt.Errorf("generating code review: %w", err)
	}

	return s.legacy.Parse(content), nil
}

// SuggestFix asks for corrected code addressing issue. An answer with no
// text yields an empty string rather than an error.
func (s *Service) SuggestFix(ctx context.Context, code, issue, language string) (string, error) {
	prompt, err := BuildFixPrompt(code, issue, language)
	if err != nil {
		return "", fmt.Errorf("building fix prompt: %w", err)
	}

	content, err := s.completer.Complete(ctx, openrouter.CompletionRequest{
		Prompt:            prompt,
		SystemInstruction: FixSystemInstruction,
		Temperature:       s.config.FixTemperature,
		MaxTokens:         s.config.FixMaxTokens,
	})
	if errors.Is(err, openrouter.ErrEmptyContent) {
		s.logger.Warn("Fix completion returned no content", "language", language)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("generating code fix: %w", err)
	}
	return content, nil
}
