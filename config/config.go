// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	validLogLevels    = []string{"debug", "info", "warn", "error", "fatal"}
	validStorageTypes = []string{"s3", "local"}
)

const vaultKeySize = 32

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "app_log_level")

	v.BindEnv("host.port", "host_port")
	v.BindEnv("host.base_url", "host_base_url")

	v.BindEnv("host.ssl.enabled", "host_ssl_enabled")
	v.BindEnv("host.ssl.certificate_path", "host_ssl_certificate_path")
	v.BindEnv("host.ssl.certificate_key_path", "host_ssl_certificate_key_path")

	v.BindEnv("jwt.secret", "jwt_secret")

	v.BindEnv("vault.key", "vault_key")

	v.BindEnv("database.dsn", "database_dsn")

	v.BindEnv("storage.type", "storage_type")
	v.BindEnv("storage.root", "storage_root")

	v.BindEnv("upload.max_size", "upload_max_size")

	v.BindEnv("verification.token_ttl_hours", "verification_token_ttl_hours")
	v.BindEnv("session.ttl_minutes", "session_ttl_minutes")

	v.BindEnv("cloudflare.account_id", "cloudflare_account_id")
	v.BindEnv("cloudflare.access_key_id", "cloudflare_access_key_id")
	v.BindEnv("cloudflare.secret_access_key", "cloudflare_secret_access_key")
	v.BindEnv("cloudflare.bucket", "cloudflare_bucket")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.base_url", "http://localhost:8080")

	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.root", "./uploads")

	v.SetDefault("upload.max_size", 8)

	v.SetDefault("verification.token_ttl_hours", 24)
	v.SetDefault("session.ttl_minutes", 60)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); ok {
			return errors.New("config.toml file is missing")
		}

		return fmt.Errorf("failed to read config file, %w", err)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if v.GetString("jwt.secret") == "" {
		return errors.New("jwt.secret is missing, set it in config.toml or as the JWT_SECRET environment variable")
	}

	if v.GetInt("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	if v.GetInt("verification.token_ttl_hours") <= 0 {
		return errors.New("verification.token_ttl_hours must be bigger than 0")
	}

	if v.GetInt("session.ttl_minutes") <= 0 {
		return errors.New("session.ttl_minutes must be bigger than 0")
	}

	if !slices.Contains(validStorageTypes, v.GetString("storage.type")) {
		return errors.New("invalid storage type provided")
	}

	switch v.GetString("storage.type") {
	case "s3":
		{
			if v.GetString("cloudflare.account_id") == "" {
				return errors.New("account id can't be empty")
			}
			if v.GetString("cloudflare.access_key_id") == "" {
				return errors.New("account access id can't be empty")
			}
			if v.GetString("cloudflare.secret_access_key") == "" {
				return errors.New("secret access key can't be empty")
			}
			if v.GetString("cloudflare.bucket") == "" {
				return errors.New("bucket can't be empty")
			}
		}
	case "local":
		{
			if v.GetString("storage.root") == "" {
				return errors.New("storage.root can't be empty")
			}
		}
	}

	if err := setupVaultKey(); err != nil {
		return err
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

// setupVaultKey makes sure a usable encryption key exists before the
// first document is accepted. A freshly generated key that can't be
// persisted is worse than no key at all, since everything encrypted
// under it becomes unrecoverable on restart. A failed WriteConfig
// therefore stops the boot.
func setupVaultKey() error {
	keyHex := v.GetString("vault.key")
	if keyHex == "" {
		raw := make([]byte, vaultKeySize)
		if _, err := rand.Read(raw); err != nil {
			return fmt.Errorf("failed to generate vault key, %w", err)
		}

		keyHex = hex.EncodeToString(raw)
		v.Set("vault.key", keyHex)

		if err := v.WriteConfig(); err != nil {
			return fmt.Errorf("generated a new vault key but failed to persist it, refusing to start, %w", err)
		}

		zap.L().Warn("No vault key was configured, generated one and saved it to config.toml")
	}

	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return fmt.Errorf("vault.key is not valid hex, %w", err)
	}

	if len(key) != vaultKeySize {
		return fmt.Errorf("vault.key must be %d bytes, got %d", vaultKeySize, len(key))
	}

	return nil
}

// VaultKey returns the decoded at-rest encryption key. Setup must have
// run successfully first.
func VaultKey() []byte {
	key, _ := hex.DecodeString(v.GetString("vault.key"))
	return key
}
