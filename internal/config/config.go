// Package config binds the process environment (§6) into a validated
// Config struct using spf13/viper, the way the teacher's own deployment
// tooling favors env-var-first configuration over flags for a long-running
// proxy process. An optional TOML file named by NOTIONMUX_CONFIG_FILE can
// supply defaults underneath the environment, parsed by pelletier/go-toml
// through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "NOTIONMUX"

// configFileEnvVar names an optional TOML file layered underneath the
// environment: env vars always win, the file only fills in values an
// operator doesn't want to pass on every invocation.
const configFileEnvVar = envPrefix + "_CONFIG_FILE"

// defaultFastPathMaxPageSize is the fallback used whenever
// NOTIONMUX_FAST_PATH_MAX_PAGE_SIZE is unset or invalid (§6).
const defaultFastPathMaxPageSize = 100

// Config is the fully validated process configuration.
type Config struct {
	ResponseCacheEnabled    bool
	ResponseCacheTTLMillis  int64
	ResponseCacheMaxEntries int
	ResponseCacheFilePath   string

	FastPathEnabled     bool
	FastPathTrustEnabled bool
	FastPathDBPath      string
	FastPathMaxPageSize int

	TokenCacheDir    string
	AllowNpxFallback bool

	RemoteCommand    string
	RemoteArgs       []string
	RemoteDefaultURL string

	LocalBaseURL     string
	NotionAPIVersion string
	OpenAPISpecPath  string
	NotionToken      string

	Debug bool
}

// Load reads NOTIONMUX_*-prefixed environment variables into a Config,
// applying the documented defaults, then validates the result.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("response_cache_enabled", true)
	v.SetDefault("response_cache_ttl_ms", int64(30_000))
	v.SetDefault("response_cache_max_entries", 300)
	v.SetDefault("response_cache_file", "")

	v.SetDefault("fast_path_enabled", false)
	v.SetDefault("fast_path_trust_enabled", false)
	v.SetDefault("fast_path_db_path", "")
	v.SetDefault("fast_path_max_page_size", 100)

	v.SetDefault("token_cache_dir", "")
	v.SetDefault("allow_npx_fallback", true)

	v.SetDefault("remote_command", "npx")
	v.SetDefault("remote_args", []string{"-y", "mcp-remote"})
	v.SetDefault("remote_default_url", "https://mcp.notion.com/mcp")

	v.SetDefault("local_base_url", "https://api.notion.com")
	v.SetDefault("notion_api_version", "2022-06-28")
	v.SetDefault("openapi_spec_path", "")
	v.SetDefault("notion_token", "")

	v.SetDefault("debug", false)

	if path := os.Getenv(configFileEnvVar); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading %s: %w", configFileEnvVar, err)
			}
		}
	}

	cfg := &Config{
		ResponseCacheEnabled:     v.GetBool("response_cache_enabled"),
		ResponseCacheTTLMillis:   v.GetInt64("response_cache_ttl_ms"),
		ResponseCacheMaxEntries:  v.GetInt("response_cache_max_entries"),
		ResponseCacheFilePath:    v.GetString("response_cache_file"),
		FastPathEnabled:          v.GetBool("fast_path_enabled"),
		FastPathTrustEnabled:     v.GetBool("fast_path_trust_enabled"),
		FastPathDBPath:           v.GetString("fast_path_db_path"),
		FastPathMaxPageSize:      v.GetInt("fast_path_max_page_size"),
		TokenCacheDir:            v.GetString("token_cache_dir"),
		AllowNpxFallback:         v.GetBool("allow_npx_fallback"),
		RemoteCommand:            v.GetString("remote_command"),
		RemoteArgs:               v.GetStringSlice("remote_args"),
		RemoteDefaultURL:         v.GetString("remote_default_url"),
		LocalBaseURL:             v.GetString("local_base_url"),
		NotionAPIVersion:         v.GetString("notion_api_version"),
		OpenAPISpecPath:          v.GetString("openapi_spec_path"),
		NotionToken:              v.GetString("notion_token"),
		Debug:                    v.GetBool("debug"),
	}

	cfg.applyFallbackDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFallbackDefaults silently substitutes the documented default for
// every config value §6 buckets under "fall back to default" rather than
// "raise a startup error": an empty db-path (when the fast path is enabled)
// or a max-page-size below 1 never prevents the process from starting. A
// non-empty db-path is not checked here.
func (c *Config) applyFallbackDefaults() {
	if c.FastPathEnabled && c.FastPathDBPath == "" {
		c.FastPathDBPath = defaultFastPathDBPath()
	}
	if c.FastPathMaxPageSize < 1 {
		c.FastPathMaxPageSize = defaultFastPathMaxPageSize
	}
}

// defaultFastPathDBPath computes the platform-specific default sqlite path
// under the user's home directory, falling back to a relative path when the
// home directory can't be resolved.
func defaultFastPathDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".notionmux", "fastpath.db")
	}
	return filepath.Join(home, ".notionmux", "fastpath.db")
}

func (c *Config) validate() error {
	if c.ResponseCacheEnabled {
		if c.ResponseCacheTTLMillis <= 0 {
			return fmt.Errorf("NOTIONMUX_RESPONSE_CACHE_TTL_MS must be a positive integer, got %d", c.ResponseCacheTTLMillis)
		}
		if c.ResponseCacheMaxEntries < 1 {
			return fmt.Errorf("NOTIONMUX_RESPONSE_CACHE_MAX_ENTRIES must be >= 1, got %d", c.ResponseCacheMaxEntries)
		}
	}
	if strings.ContainsRune(c.ResponseCacheFilePath, 0) {
		return fmt.Errorf("NOTIONMUX_RESPONSE_CACHE_FILE must not contain a null byte; expected a plain filesystem path, got %q", c.ResponseCacheFilePath)
	}
	if c.RemoteCommand == "" {
		return fmt.Errorf("NOTIONMUX_REMOTE_COMMAND must not be empty")
	}
	return nil
}
