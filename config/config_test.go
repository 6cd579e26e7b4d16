package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "mock")

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "mock", cfg.Provider)
	assert.Equal(t, "gemini-2.0-flash", cfg.RouterModel)
	assert.Equal(t, "gemini-2.5-pro", cfg.WorkerModel)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "krishimitra", cfg.MongoDB)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 90*time.Second, cfg.TurnTimeout)
	assert.Equal(t, "frames", cfg.WildlifeFrameDir)
	assert.Equal(t, 30*time.Second, cfg.WildlifePollInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "mock")
	t.Setenv("ROUTER_MODEL", "gemini-1.5-flash")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("TURN_TIMEOUT", "2m")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "gemini-1.5-flash", cfg.RouterModel)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 2*time.Minute, cfg.TurnTimeout)
}

func TestLoad_DurationAsSeconds(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "mock")
	t.Setenv("TURN_TIMEOUT", "45")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
}

func TestLoad_ProviderKeyValidation(t *testing.T) {
	cases := []struct {
		provider string
		keyVar   string
	}{
		{"gemini", "GOOGLE_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"anthropic", "ANTHROPIC_API_KEY"},
	}

	for _, tc := range cases {
		t.Run(tc.provider, func(t *testing.T) {
			t.Setenv("MODEL_PROVIDER", tc.provider)
			t.Setenv(tc.keyVar, "")

			_, err := Load()
			assert.Error(t, err)

			t.Setenv(tc.keyVar, "some-key")
			_, err = Load()
			assert.NoError(t, err)
		})
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	t.Setenv("MODEL_PROVIDER", "llama")

	_, err := Load()
	assert.Error(t, err)
}
