package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"asset-registry-api/internal/models"
)

// Option describes a single configuration entry: its viper key, the CLI flag
// bound to it, the compiled default and the --help text.
type Option struct {
	Key         string
	Flag        string
	Default     any
	Description string
}

const (
	KeyServerAddress = "server.address"
	KeyDatabasePath  = "database.path"
	KeyLogLevel      = "log.level"

	KeyRegistryLiquidURL          = "registry.liquid_url"
	KeyRegistryTestnetLiquidURL   = "registry.testnet_liquid_url"
	KeyRegistryElementsRegtestURL = "registry.elements_regtest_url"
	KeyRegistryTimeout            = "registry.timeout"
	KeyRegistryRefreshInterval    = "registry.refresh_interval"
	KeyRegistryRetryInterval      = "registry.retry_interval"

	KeyAuthJWTSecret         = "auth.jwt_secret"
	KeyAuthIssuer            = "auth.issuer"
	KeyAuthAudience          = "auth.audience"
	KeyAuthAdminUsername     = "auth.admin_username"
	KeyAuthAdminPasswordHash = "auth.admin_password_hash"
)

// Options lists every entry. Each is registered as a viper default and, via
// BindFlags, as a CLI flag.
var Options = []Option{
	{Key: KeyServerAddress, Flag: toFlag(KeyServerAddress), Default: ":8008", Description: "HTTP listen address"},
	{Key: KeyDatabasePath, Flag: toFlag(KeyDatabasePath), Default: "asset-registry.db", Description: "SQLite database file"},
	{Key: KeyLogLevel, Flag: toFlag(KeyLogLevel), Default: "info", Description: "Log level (debug, info, warn, error)"},
	{Key: KeyRegistryLiquidURL, Flag: toFlag(KeyRegistryLiquidURL), Default: "https://assets.blockstream.info", Description: "Asset registry base url for liquid"},
	{Key: KeyRegistryTestnetLiquidURL, Flag: toFlag(KeyRegistryTestnetLiquidURL), Default: "https://assets-testnet.blockstream.info", Description: "Asset registry base url for testnet-liquid"},
	{Key: KeyRegistryElementsRegtestURL, Flag: toFlag(KeyRegistryElementsRegtestURL), Default: "", Description: "Asset registry base url for elements-regtest"},
	{Key: KeyRegistryTimeout, Flag: toFlag(KeyRegistryTimeout), Default: 30 * time.Second, Description: "Upstream request timeout"},
	{Key: KeyRegistryRefreshInterval, Flag: toFlag(KeyRegistryRefreshInterval), Default: time.Hour, Description: "How long a validated entry is served before revalidation"},
	{Key: KeyRegistryRetryInterval, Flag: toFlag(KeyRegistryRetryInterval), Default: time.Minute, Description: "How long to wait before retrying a failed fetch"},
	{Key: KeyAuthJWTSecret, Flag: toFlag(KeyAuthJWTSecret), Default: "development-insecure-secret-change-me", Description: "HMAC secret for issued tokens"},
	{Key: KeyAuthIssuer, Flag: toFlag(KeyAuthIssuer), Default: "asset-registry-api", Description: "Token issuer"},
	{Key: KeyAuthAudience, Flag: toFlag(KeyAuthAudience), Default: "asset-registry-clients", Description: "Token audience"},
	{Key: KeyAuthAdminUsername, Flag: toFlag(KeyAuthAdminUsername), Default: "admin", Description: "Admin login name"},
	{Key: KeyAuthAdminPasswordHash, Flag: toFlag(KeyAuthAdminPasswordHash), Default: "", Description: "Bcrypt hash of the admin password; login is disabled when empty"},
}

type Config struct {
	v *viper.Viper
}

// New loads defaults, an optional config.yaml and ASSET_REGISTRY_* env vars.
func New() (*Config, error) {
	v := viper.New()

	for _, o := range Options {
		v.SetDefault(o.Key, o.Default)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/asset-registry/")

	if err := v.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFoundErr) || errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("ASSET_REGISTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}, nil
}

func (c *Config) BindFlags(fs *pflag.FlagSet) error {
	for _, o := range Options {
		switch v := o.Default.(type) {
		case string:
			fs.String(o.Flag, v, o.Description)
		case int:
			fs.Int(o.Flag, v, o.Description)
		case bool:
			fs.Bool(o.Flag, v, o.Description)
		case time.Duration:
			fs.Duration(o.Flag, v, o.Description)
		default:
			return fmt.Errorf("unsupported flag type for key: %s", o.Key)
		}

		if err := c.v.BindPFlag(o.Key, fs.Lookup(o.Flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", o.Flag, err)
		}
	}
	return nil
}

// Set overrides a key, mainly for tests.
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

func (c *Config) ServerAddress() string {
	return c.v.GetString(KeyServerAddress) // ASSET_REGISTRY_SERVER_ADDRESS
}

func (c *Config) DatabasePath() string {
	return c.v.GetString(KeyDatabasePath) // ASSET_REGISTRY_DATABASE_PATH
}

// LogLevel falls back to info on unknown values.
func (c *Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.v.GetString(KeyLogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// RegistryURLs maps network names to upstream base urls. Networks with an
// empty url are omitted.
func (c *Config) RegistryURLs() map[models.Network]string {
	urls := map[models.Network]string{
		models.NetworkLiquid:          c.v.GetString(KeyRegistryLiquidURL),
		models.NetworkTestnetLiquid:   c.v.GetString(KeyRegistryTestnetLiquidURL),
		models.NetworkElementsRegtest: c.v.GetString(KeyRegistryElementsRegtestURL),
	}
	for n, u := range urls {
		if u == "" {
			delete(urls, n)
		}
	}
	return urls
}

func (c *Config) RegistryTimeout() time.Duration {
	return c.v.GetDuration(KeyRegistryTimeout) // ASSET_REGISTRY_REGISTRY_TIMEOUT
}

func (c *Config) RegistryRefreshInterval() time.Duration {
	return c.v.GetDuration(KeyRegistryRefreshInterval) // ASSET_REGISTRY_REGISTRY_REFRESH_INTERVAL
}

func (c *Config) RegistryRetryInterval() time.Duration {
	return c.v.GetDuration(KeyRegistryRetryInterval) // ASSET_REGISTRY_REGISTRY_RETRY_INTERVAL
}

func (c *Config) AuthJWTSecret() string {
	return c.v.GetString(KeyAuthJWTSecret) // ASSET_REGISTRY_AUTH_JWT_SECRET
}

func (c *Config) AuthIssuer() string {
	return c.v.GetString(KeyAuthIssuer) // ASSET_REGISTRY_AUTH_ISSUER
}

func (c *Config) AuthAudience() string {
	return c.v.GetString(KeyAuthAudience) // ASSET_REGISTRY_AUTH_AUDIENCE
}

func (c *Config) AuthAdminUsername() string {
	return c.v.GetString(KeyAuthAdminUsername) // ASSET_REGISTRY_AUTH_ADMIN_USERNAME
}

func (c *Config) AuthAdminPasswordHash() string {
	return c.v.GetString(KeyAuthAdminPasswordHash) // ASSET_REGISTRY_AUTH_ADMIN_PASSWORD_HASH
}

// toFlag converts a viper key like "registry.refresh_interval" into a CLI
// flag like "registry-refresh-interval".
func toFlag(key string) string {
	flag := strings.ToLower(key)
	flag = strings.ReplaceAll(flag, ".", "-")
	flag = strings.ReplaceAll(flag, "_", "-")
	return flag
}
