package email

import (
	"context"
	"testing"

	"github.com/smallbiznis/teamhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFromConfig_NoSMTPConfigured(t *testing.T) {
	provider := NewFromConfig(config.Config{}, zap.NewNop())

	noop, ok := provider.(*NoOpProvider)
	require.True(t, ok)
	assert.NoError(t, noop.Send(context.Background(), []string{"a@x.com"}, "subject", "<p>body</p>"))
}

func TestNewFromConfig_SMTPConfigured(t *testing.T) {
	cfg := config.Config{}
	cfg.Email.SMTPHost = "smtp.example.com"
	cfg.Email.SMTPPort = 587

	provider := NewFromConfig(cfg, zap.NewNop())
	_, ok := provider.(*SMTPProvider)
	assert.True(t, ok)
}
