package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:           "postgres://localhost:5432/mavie",
		PaystackSecretKey:     "sk_test_0123456789abcdef",
		PaystackWebhookSecret: "whsec_test",
		PaystackBaseURL:       "https://api.paystack.co",
		JWTSecret:             strings.Repeat("j", 32),
		AdminToken:            strings.Repeat("a", 16),
		EncryptionKey:         strings.Repeat("k", 32),
		CacheProvider:         "memory",
		RedisConnectionString: "redis://localhost:6379/0",
		ShopName:              "Mavie",
		WebhookWorkers:        4,
		WebhookQueueSize:      256,
		LogFormat:             "text",
		Port:                  "8080",
	}
}

func TestValidateEncryptionKeyLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		encryptionKey string
		wantErr       bool
	}{
		{
			name:          "valid 32-byte key",
			encryptionKey: strings.Repeat("k", 32),
			wantErr:       false,
		},
		{
			name:          "invalid short key",
			encryptionKey: "short",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.EncryptionKey = tt.encryptionKey

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateCacheProvider(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheProvider = "invalid"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "CacheProvider") || !strings.Contains(err.Error(), "oneof") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatePaystackKeyPrefix(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.PaystackSecretKey = "pk_test_not_a_secret"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "PAYSTACK_SECRET_KEY") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateEmailFromRequiredWithResend(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.ResendAPIKey = "re_test_key"
	cfg.EmailFrom = ""

	if err := cfg.validate(); err == nil {
		t.Fatalf("expected error, got nil")
	}

	cfg.EmailFrom = "orders@mavie.shop"
	if err := cfg.validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.EmailEnabled() {
		t.Fatal("expected email to be enabled")
	}
}
