package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockVaultClient implements VaultClient interface for testing.
type mockVaultClient struct {
	secrets   map[string]map[string]interface{}
	err       error
	lastMount string
}

func (m *mockVaultClient) GetKVSecret(_ context.Context, path, mount string) (map[string]interface{}, error) {
	m.lastMount = mount
	if m.err != nil {
		return nil, m.err
	}
	if secret, ok := m.secrets[path]; ok {
		return secret, nil
	}
	return nil, errors.New("secret not found")
}

// mockVaultClientFactory creates a factory that returns the provided mock client.
func mockVaultClientFactory(client VaultClient, err error) VaultClientFactory {
	return func(_ context.Context) (VaultClient, error) {
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// clearEnv unsets every variable Load reads. t.Setenv registers
// restoration of the original values.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvCircleToken, EnvCircleTag, EnvMainBranch, EnvDevBranch,
		EnvLogLevel, EnvLogAppName, EnvVaultTokenPath, EnvVaultTokenMount,
		EnvDotEnvFile,
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, &Config{
		LogLevel:   DefaultLogLevel,
		LogAppName: DefaultLogAppName,
	}, cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCircleToken, "  tok-123  ")
	t.Setenv(EnvCircleTag, "v1.2.3")
	t.Setenv(EnvMainBranch, "master")
	t.Setenv(EnvDevBranch, "develop")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvLogAppName, "custom-app")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "tok-123", cfg.CircleToken)
	assert.Equal(t, "v1.2.3", cfg.Tag)
	assert.Equal(t, "master", cfg.MainBranch)
	assert.Equal(t, "develop", cfg.DevBranch)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "custom-app", cfg.LogAppName)
}

func TestLoad_LogLevelNormalized(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{value: "DEBUG", want: "debug"},
		{value: "Info", want: "info"},
		{value: " warn ", want: "warn"},
		{value: "warning", want: "warn"},
		{value: "ERROR", want: "error"},
		{value: "fatal", want: DefaultLogLevel},
		{value: "verbose", want: DefaultLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvLogLevel, tt.value)

			cfg, err := LoadWithVaultClient(context.Background(), nil)

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.LogLevel)
		})
	}
}

func TestLoad_InvalidBranchName(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvMainBranch, "main:evil")

	_, err := Load()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "ci.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"CIRCLE_API_TOKEN=from-file\nDEV_BRANCH_NAME=develop\n"), 0o644))
	t.Setenv(EnvDotEnvFile, envFile)
	t.Setenv(EnvDevBranch, "staging")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.CircleToken)
	assert.Equal(t, "staging", cfg.DevBranch, "real environment wins over .env")
}

func TestLoad_WorkingDirDotEnvIgnored(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(
		"CIRCLE_TAG=v9.9.9\nMAIN_BRANCH_NAME=trunk\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.Tag)
	assert.Empty(t, cfg.MainBranch)
	_, set := os.LookupEnv(EnvCircleTag)
	assert.False(t, set, "working directory .env must not be loaded")
}

func TestLoad_DotEnvMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvDotEnvFile, filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()

	require.NoError(t, err)
}

func TestLoad_DotEnvInvalid(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), "broken.env")
	require.NoError(t, os.Mkdir(envFile, 0o755))
	t.Setenv(EnvDotEnvFile, envFile)

	_, err := Load()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDotEnvInvalid)
}

func TestLoadWithVaultClient_TokenFromVault(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvVaultTokenPath, "ci/circleci")

	client := &mockVaultClient{
		secrets: map[string]map[string]interface{}{
			"ci/circleci": {"token": "vault-token"},
		},
	}

	cfg, err := LoadWithVaultClient(context.Background(), mockVaultClientFactory(client, nil))

	require.NoError(t, err)
	assert.Equal(t, "vault-token", cfg.CircleToken)
	assert.Equal(t, DefaultVaultMount, client.lastMount)
}

func TestLoadWithVaultClient_AlternateKeyAndMount(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvVaultTokenPath, "ci/circleci")
	t.Setenv(EnvVaultTokenMount, "kv")

	client := &mockVaultClient{
		secrets: map[string]map[string]interface{}{
			"ci/circleci": {EnvCircleToken: "alt-token"},
		},
	}

	cfg, err := LoadWithVaultClient(context.Background(), mockVaultClientFactory(client, nil))

	require.NoError(t, err)
	assert.Equal(t, "alt-token", cfg.CircleToken)
	assert.Equal(t, "kv", client.lastMount)
}

func TestLoadWithVaultClient_EnvTokenSkipsVault(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvCircleToken, "env-token")
	t.Setenv(EnvVaultTokenPath, "ci/circleci")

	factory := func(_ context.Context) (VaultClient, error) {
		t.Fatal("vault must not be contacted when CIRCLE_API_TOKEN is set")
		return nil, nil
	}

	cfg, err := LoadWithVaultClient(context.Background(), factory)

	require.NoError(t, err)
	assert.Equal(t, "env-token", cfg.CircleToken)
}

func TestLoadWithVaultClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		client     *mockVaultClient
		factoryErr error
		wantErr    error
	}{
		{
			name:       "client creation fails",
			factoryErr: ErrVaultClientFailed,
			wantErr:    ErrVaultClientFailed,
		},
		{
			name:    "secret read fails",
			client:  &mockVaultClient{err: errors.New("permission denied")},
			wantErr: ErrVaultSecretNotFound,
		},
		{
			name:    "secret missing",
			client:  &mockVaultClient{secrets: map[string]map[string]interface{}{}},
			wantErr: ErrVaultSecretNotFound,
		},
		{
			name: "secret has no token key",
			client: &mockVaultClient{secrets: map[string]map[string]interface{}{
				"ci/circleci": {"password": "nope"},
			}},
			wantErr: ErrVaultSecretNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(EnvVaultTokenPath, "ci/circleci")

			var client VaultClient
			if tt.client != nil {
				client = tt.client
			}

			_, err := LoadWithVaultClient(context.Background(), mockVaultClientFactory(client, tt.factoryErr))

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{LogLevel: "info", LogAppName: "app"}
	require.NoError(t, valid.Validate())

	badLevel := Config{LogLevel: "verbose", LogAppName: "app"}
	assert.ErrorIs(t, badLevel.Validate(), ErrInvalidConfig)

	missingName := Config{LogLevel: "info"}
	assert.ErrorIs(t, missingName.Validate(), ErrInvalidConfig)
}
