package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvString(t *testing.T) {
	t.Run("unset returns default", func(t *testing.T) {
		t.Setenv("HUB_TEST_STRING", "")
		assert.Equal(t, "fallback", LoadEnvString("HUB_TEST_STRING", "fallback"))
	})

	t.Run("set returns value", func(t *testing.T) {
		t.Setenv("HUB_TEST_STRING", "configured")
		assert.Equal(t, "configured", LoadEnvString("HUB_TEST_STRING", "fallback"))
	})
}

func TestLoadEnvInt(t *testing.T) {
	positive := func(v int) error { return ValidateIntRange(v, 1, 1000) }

	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "unset returns default", value: "", want: 25},
		{name: "valid value", value: "50", want: 50},
		{name: "non-numeric falls back", value: "lots", want: 25},
		{name: "validator rejection falls back", value: "0", want: 25},
		{name: "out of range falls back", value: "99999", want: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HUB_TEST_INT", tt.value)
			assert.Equal(t, tt.want, LoadEnvInt("HUB_TEST_INT", 25, positive))
		})
	}
}

func TestLoadEnvInt_NilValidatorAcceptsAnything(t *testing.T) {
	t.Setenv("HUB_TEST_INT", "-5")
	assert.Equal(t, -5, LoadEnvInt("HUB_TEST_INT", 25, nil))
}

func TestLoadEnvDuration(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{name: "unset returns default", value: "", want: time.Minute},
		{name: "valid value", value: "30s", want: 30 * time.Second},
		{name: "unparseable falls back", value: "soon", want: time.Minute},
		{name: "bare number falls back", value: "30", want: time.Minute},
		{name: "negative rejected by validator", value: "-5s", want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HUB_TEST_DURATION", tt.value)
			assert.Equal(t, tt.want,
				LoadEnvDuration("HUB_TEST_DURATION", time.Minute, ValidatePositiveDuration))
		})
	}
}
