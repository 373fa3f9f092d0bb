package memo

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/creditdesk/creditdesk/internal/clientdata"
	"github.com/creditdesk/creditdesk/internal/domain"
)

// Generator produces raw memo text from a system and user prompt.
type Generator interface {
	GenerateText(ctx context.Context, system, user string) (string, error)
}

// Service generates and caches credit memos.
type Service struct {
	generator Generator
	apiKey    string
	cacheRepo *clientdata.Repository
	log       zerolog.Logger
}

// NewService creates a new memo service.
// cacheRepo is optional - if nil, caching is disabled.
func NewService(generator Generator, apiKey string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Service {
	return &Service{
		generator: generator,
		apiKey:    apiKey,
		cacheRepo: cacheRepo,
		log:       log.With().Str("service", "memo").Logger(),
	}
}

// Generate returns a structured memo for the request, served from cache when
// the same input bundle was generated within the memo TTL.
func (s *Service) Generate(ctx context.Context, req Request) (*CreditMemo, error) {
	if s.apiKey == "" {
		return nil, &domain.ConfigError{Key: "GOOGLE_API_KEY"}
	}
	if err := req.Validate(); err != nil {
		return nil, &domain.ParseError{Source: "memo", Err: err}
	}

	hash := req.InputHash()
	if s.cacheRepo != nil {
		if data, err := s.cacheRepo.GetIfFresh("credit_memos", hash); err == nil && data != nil {
			var memo CreditMemo
			if err := json.Unmarshal(data, &memo); err == nil {
				s.log.Debug().Str("hash", hash[:12]).Msg("Memo cache hit")
				return &memo, nil
			}
		}
	}

	raw, err := s.generator.GenerateText(ctx, systemPrompt, formatUserPrompt(req))
	if err != nil {
		return nil, &domain.UpstreamError{Source: "gemini", Err: err}
	}

	memo, err := parseMemo(raw)
	if err != nil {
		return nil, err
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.Store("credit_memos", hash, memo, clientdata.TTLCreditMemo); err != nil {
			s.log.Warn().Err(err).Msg("Failed to cache memo")
		}
	}

	s.log.Info().Str("issuer", req.IssuerName).Str("hash", hash[:12]).Msg("Generated credit memo")
	return memo, nil
}

// parseMemo strips markdown fencing the model sometimes adds, then decodes
// and validates the memo.
func parseMemo(raw string) (*CreditMemo, error) {
	text := stripFences(raw)

	var memo CreditMemo
	if err := json.Unmarshal([]byte(text), &memo); err != nil {
		return nil, &domain.ParseError{Source: "gemini", Err: err}
	}
	if err := memo.Validate(); err != nil {
		return nil, &domain.ParseError{Source: "gemini", Err: err}
	}
	return &memo, nil
}

func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) >= 3 {
		return strings.Join(lines[1:len(lines)-1], "\n")
	}
	text = strings.ReplaceAll(text, "```json", "")
	return strings.ReplaceAll(text, "```", "")
}
