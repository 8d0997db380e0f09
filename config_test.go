package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSecrets map[string]string

func (m mapSecrets) GetSecret(_ context.Context, name string) (string, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return "", errors.New("secret not found")
}

func setBaseEnv(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "catalog")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "catalog")
	t.Setenv("JWT_SECRET", "env-secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := LoadConfig(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "8085", cfg.Port)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "placeholder", cfg.ImageChain)
	assert.Equal(t, "local", cfg.MediaStore)
	assert.Equal(t, "media", cfg.MediaDir)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, 120*time.Second, cfg.Providers.Pollinations.Timeout)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "15")
	t.Setenv("IMAGE_API_PROVIDER", "pollinations,openai")
	t.Setenv("POLLINATIONS_TIMEOUT", "45")
	t.Setenv("GEMINI_TIMEOUT", "10s")
	t.Setenv("ALLOWED_ORIGINS", "http://localhost:3000/, https://shop.example.com")

	cfg, err := LoadConfig(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, "pollinations,openai", cfg.ImageChain)
	assert.Equal(t, 45*time.Second, cfg.Providers.Pollinations.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, []string{"http://localhost:3000", "https://shop.example.com"}, cfg.AllowedOrigins)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}},
		{"missing database", map[string]string{"POSTGRES_HOST": ""}},
		{"s3 without bucket", map[string]string{"MEDIA_STORE": "s3"}},
		{"unknown media store", map[string]string{"MEDIA_STORE": "ftp"}},
		{"bcrypt cost too high", map[string]string{"BCRYPT_COST": "40"}},
		{"non numeric port", map[string]string{"PORT": "http"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(context.Background(), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_SecretsOverride(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AWS_USE_SECRETS", "true")

	secrets := mapSecrets{
		"catalog/JWT_SECRET":     "vault-secret",
		"catalog/GEMINI_API_KEY": "gemini-key",
		"catalog/DB_CREDENTIALS": `{"POSTGRES_USER":"vault-user","POSTGRES_PASSWORD":"vault-pw","POSTGRES_HOST":""}`,
	}
	cfg, err := LoadConfig(context.Background(), func(*Config) (SecretGetter, error) { return secrets, nil })
	require.NoError(t, err)

	assert.Equal(t, "vault-secret", cfg.JWTSecret)
	assert.Equal(t, "gemini-key", cfg.GeminiAPIKey)
	assert.Equal(t, "vault-user", cfg.Postgres.User)
	assert.Equal(t, "vault-pw", cfg.Postgres.Password)
	assert.Equal(t, "db", cfg.Postgres.Host)
	assert.Empty(t, cfg.Providers.OpenAI.APIKey)
}

func TestLoadConfig_SecretsClientError(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("AWS_USE_SECRETS", "true")

	_, err := LoadConfig(context.Background(), func(*Config) (SecretGetter, error) {
		return nil, errors.New("no credentials")
	})
	assert.ErrorContains(t, err, "no credentials")
}

func TestCorsConfig(t *testing.T) {
	all := corsConfig([]string{"*"})
	assert.True(t, all.AllowAllOrigins)
	assert.False(t, all.AllowCredentials)

	listed := corsConfig([]string{"https://shop.example.com"})
	assert.False(t, listed.AllowAllOrigins)
	assert.Equal(t, []string{"https://shop.example.com"}, listed.AllowOrigins)
	assert.True(t, listed.AllowCredentials)
}
