package engine

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate_Valid(t *testing.T) {
	cfg := Config{Factory: fakeFactory()}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestConfigValidate_MissingFactory(t *testing.T) {
	cfg := Config{}
	if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestConfigValidate_NegativeMaxSessions(t *testing.T) {
	cfg := Config{Factory: fakeFactory(), MaxSessions: -1}
	if err := cfg.Validate(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{Factory: fakeFactory()}
	cfg.applyDefaults()

	if cfg.DefaultTimeout != DefaultTimeout {
		t.Errorf("DefaultTimeout = %v, want %v", cfg.DefaultTimeout, DefaultTimeout)
	}
	if cfg.Logger == nil {
		t.Error("expected default Logger")
	}
}

func TestConfigApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Factory:        fakeFactory(),
		DefaultTimeout: 5 * time.Second,
	}
	cfg.applyDefaults()

	if cfg.DefaultTimeout != 5*time.Second {
		t.Errorf("DefaultTimeout = %v, want 5s", cfg.DefaultTimeout)
	}
}
