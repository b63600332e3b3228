package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		shouldSet    bool
		want         int
	}{
		{
			name:         "returns environment variable as int when set",
			key:          "TEST_INT_VAR",
			defaultValue: 100,
			envValue:     "200",
			shouldSet:    true,
			want:         200,
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_INT_VAR_MISSING",
			defaultValue: 100,
			envValue:     "",
			shouldSet:    false,
			want:         100,
		},
		{
			name:         "returns default when environment variable is not an integer",
			key:          "TEST_INT_VAR_INVALID",
			defaultValue: 100,
			envValue:     "six",
			shouldSet:    true,
			want:         100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("fails without API_KEY", func(t *testing.T) {
		t.Setenv("API_KEY", "")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() expected error when API_KEY is unset")
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("EMBEDDING_DIMENSIONS", "")
		t.Setenv("EMBEDDING_RATE_LIMIT", "")
		t.Setenv("QUERY_EMBEDDING_CACHE_SIZE", "")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() unexpected error: %v", err)
		}

		if cfg.EmbeddingModel != "text-embedding-3-small" {
			t.Errorf("EmbeddingModel = %v, want text-embedding-3-small", cfg.EmbeddingModel)
		}
		if cfg.EmbeddingDimensions != 1536 {
			t.Errorf("EmbeddingDimensions = %v, want 1536", cfg.EmbeddingDimensions)
		}
		if cfg.QueryEmbeddingCacheSize != 512 {
			t.Errorf("QueryEmbeddingCacheSize = %v, want 512", cfg.QueryEmbeddingCacheSize)
		}
	})

	t.Run("rejects non-positive embedding dimensions", func(t *testing.T) {
		t.Setenv("API_KEY", "test-key")
		t.Setenv("EMBEDDING_DIMENSIONS", "0")

		_, err := Load()
		if err == nil {
			t.Fatal("Load() expected error for EMBEDDING_DIMENSIONS=0")
		}
	})
}
