package config_test

import (
	"testing"

	"github.com/duoan/fdf/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestResolveHFTokenPrecedence(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGINGFACE_TOKEN", "second")
	t.Setenv("HF_API_TOKEN", "third")

	cfg := config.Resolve()
	assert.Equal(t, "second", cfg.HFToken)
}

func TestResolveNoTokenSet(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGINGFACE_TOKEN", "")
	t.Setenv("HF_API_TOKEN", "")

	cfg := config.Resolve()
	assert.Empty(t, cfg.HFToken)
}
