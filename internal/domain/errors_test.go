package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy(t *testing.T) {
	up := &UpstreamError{Source: "fred", Err: errors.New("timeout")}
	parse := &ParseError{Source: "yahoo", Err: errors.New("unexpected shape")}
	cfg := &ConfigError{Key: "NEWS_API_KEY"}

	assert.True(t, IsUpstream(up))
	assert.True(t, IsParse(parse))
	assert.True(t, IsConfig(cfg))

	assert.False(t, IsUpstream(parse))
	assert.False(t, IsParse(cfg))
	assert.False(t, IsConfig(up))
}

func TestErrorsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("fetching core rates: %w", &UpstreamError{Source: "fred", Err: errors.New("status 500")})

	assert.True(t, IsUpstream(err))

	var ue *UpstreamError
	assert.True(t, errors.As(err, &ue))
	assert.Equal(t, "fred", ue.Source)
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&ConfigError{Key: "FRED_API_KEY"}).Error(), "FRED_API_KEY")
	assert.Contains(t, (&UpstreamError{Source: "newsapi", Err: errors.New("boom")}).Error(), "newsapi")
}
