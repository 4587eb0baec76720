package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	return &AppConfig{
		Secret:            "secret",
		Host:              "127.0.0.1",
		Port:              8080,
		LogLevel:          "INFO",
		MembersLimit:      25,
		PlaylistLimit:     100,
		VoteSkipThreshold: 0.5,
		RedisHost:         "localhost",
		RedisPort:         6379,
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.MembersLimit = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.PlaylistLimit = -1
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.VoteSkipThreshold = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.VoteSkipThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.VoteSkipThreshold = 1
	assert.NoError(t, cfg.Validate())
}
