// Package config provides configuration loading for the basesha-find application.
// It reads environment variables (optionally seeded from a .env file) and can
// fetch the CircleCI API token from HashiCorp Vault.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/MyCarrier-DevOps/goLibMyCarrier/vault"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	// EnvCircleToken is the CircleCI personal API token. Optional for public projects.
	EnvCircleToken = "CIRCLE_API_TOKEN"

	// EnvCircleTag is the release tag being built. Selects the tag route when set.
	EnvCircleTag = "CIRCLE_TAG"

	// EnvMainBranch overrides the main branch name given on the command line.
	EnvMainBranch = "MAIN_BRANCH_NAME"

	// EnvDevBranch overrides the dev branch name given on the command line.
	EnvDevBranch = "DEV_BRANCH_NAME"

	// EnvLogLevel is the log level (debug, info, warn, error). Unknown values fall back to info.
	EnvLogLevel = "LOG_LEVEL"

	// EnvLogAppName is the application name for log context.
	EnvLogAppName = "LOG_APP_NAME"

	// EnvDotEnvFile is the path of an optional .env file. Nothing is loaded when unset.
	EnvDotEnvFile = "BASESHA_ENV_FILE"

	// EnvVaultTokenPath is the Vault KV path holding the CircleCI token.
	EnvVaultTokenPath = "VAULT_CIRCLE_TOKEN_PATH"

	// EnvVaultTokenMount is the Vault KV mount point (defaults to "secret").
	EnvVaultTokenMount = "VAULT_CIRCLE_TOKEN_MOUNT"
)

// Default values.
const (
	DefaultLogLevel   = "info"
	DefaultLogAppName = "basesha-find"
	DefaultVaultMount = "secret"
)

// logLevelAliases maps accepted LOG_LEVEL spellings to the levels the logger understands.
var logLevelAliases = map[string]string{
	"debug":   "debug",
	"info":    "info",
	"warn":    "warn",
	"warning": "warn",
	"error":   "error",
}

// vaultTokenKeys are the secret keys checked, in order, for the token.
var vaultTokenKeys = []string{"token", EnvCircleToken}

// Configuration errors.
var (
	// ErrInvalidConfig indicates a configuration value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDotEnvInvalid indicates the .env file exists but could not be parsed.
	ErrDotEnvInvalid = errors.New(".env file could not be loaded")

	// ErrVaultClientFailed indicates failure to create or authenticate with Vault.
	ErrVaultClientFailed = errors.New("failed to create Vault client")

	// ErrVaultSecretNotFound indicates the secret was not found in Vault.
	ErrVaultSecretNotFound = errors.New("CircleCI token not found in Vault")
)

// VaultClient defines the interface for Vault operations.
// This interface allows for dependency injection and testing.
type VaultClient interface {
	// GetKVSecret retrieves a secret from Vault's KV v2 secrets engine.
	GetKVSecret(ctx context.Context, path, mount string) (map[string]interface{}, error)
}

// VaultClientFactory creates a VaultClient using AppRole authentication.
type VaultClientFactory func(ctx context.Context) (VaultClient, error)

// DefaultVaultClientFactory creates a VaultClient using goLibMyCarrier/vault with AppRole auth.
func DefaultVaultClientFactory(ctx context.Context) (VaultClient, error) {
	// Uses: VAULT_ADDRESS, VAULT_ROLE_ID, VAULT_SECRET_ID
	vaultConfig, err := vault.VaultLoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	client, err := vault.CreateVaultClient(ctx, vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVaultClientFailed, err)
	}

	return client, nil
}

// Config holds all application configuration.
type Config struct {
	// CircleToken is the CircleCI API token. Empty means unauthenticated requests.
	CircleToken string

	// Tag is the release tag being built, if any.
	Tag string

	// MainBranch and DevBranch override the command-line branch names when set.
	MainBranch string `validate:"omitempty,excludesall=~^:?*[\\"`
	DevBranch  string `validate:"omitempty,excludesall=~^:?*[\\"`

	// LogLevel is the logging level.
	LogLevel string `validate:"oneof=debug info warn error"`

	// LogAppName is the application name for log context.
	LogAppName string `validate:"required"`
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Load loads the application configuration from the environment.
//
// When BASESHA_ENV_FILE names a .env file it is read first if present;
// variables already set in the environment take precedence over it. A .env
// in the working directory belongs to the repository being built and is
// never read implicitly.
//
// When CIRCLE_API_TOKEN is empty and VAULT_CIRCLE_TOKEN_PATH is set, the
// token is read from Vault, which requires:
//   - VAULT_ADDRESS: Vault server address
//   - VAULT_ROLE_ID: AppRole role ID
//   - VAULT_SECRET_ID: AppRole secret ID
//   - VAULT_CIRCLE_TOKEN_MOUNT: KV mount point (optional, defaults to "secret")
func Load() (*Config, error) {
	return LoadWithVaultClient(context.Background(), nil)
}

// LoadWithVaultClient loads configuration using the provided VaultClient factory.
// If vaultClientFactory is nil, DefaultVaultClientFactory is used.
func LoadWithVaultClient(ctx context.Context, vaultClientFactory VaultClientFactory) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	token, err := loadCircleToken(ctx, vaultClientFactory)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CircleToken: token,
		Tag:         strings.TrimSpace(os.Getenv(EnvCircleTag)),
		MainBranch:  strings.TrimSpace(os.Getenv(EnvMainBranch)),
		DevBranch:   strings.TrimSpace(os.Getenv(EnvDevBranch)),
		LogLevel:    normalizeLogLevel(os.Getenv(EnvLogLevel)),
		LogAppName:  envOrDefault(EnvLogAppName, DefaultLogAppName),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv seeds the environment from the file named by BASESHA_ENV_FILE.
// An unset variable or a missing file is not an error.
func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv(EnvDotEnvFile))
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrDotEnvInvalid, path, err)
	}
	return nil
}

// loadCircleToken returns the token from the environment, or from Vault when
// only a Vault path is configured.
func loadCircleToken(ctx context.Context, vaultClientFactory VaultClientFactory) (string, error) {
	if token := strings.TrimSpace(os.Getenv(EnvCircleToken)); token != "" {
		return token, nil
	}

	vaultPath := os.Getenv(EnvVaultTokenPath)
	if vaultPath == "" {
		return "", nil
	}

	if vaultClientFactory == nil {
		vaultClientFactory = DefaultVaultClientFactory
	}

	client, err := vaultClientFactory(ctx)
	if err != nil {
		return "", err
	}

	mount := envOrDefault(EnvVaultTokenMount, DefaultVaultMount)
	secret, err := client.GetKVSecret(ctx, vaultPath, mount)
	if err != nil {
		return "", fmt.Errorf("%w at path %s: %w", ErrVaultSecretNotFound, vaultPath, err)
	}

	for _, key := range vaultTokenKeys {
		if token, ok := secret[key].(string); ok && token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w at path %s: no %q key", ErrVaultSecretNotFound, vaultPath, vaultTokenKeys[0])
}

// normalizeLogLevel lowercases the level and maps unknown values to DefaultLogLevel,
// so a shared CI LOG_LEVEL never stops resolution.
func normalizeLogLevel(level string) string {
	if l, ok := logLevelAliases[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return DefaultLogLevel
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
