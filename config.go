package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

const (
	defaultListenAddr      = ":8080"
	defaultSQLiteDBPath    = "roast_my_looker.db"
	defaultAnalysisBaseURL = "http://localhost:8000"
	defaultLookerAPIPort   = 19999

	defaultVaultTTLSeconds   = 86400
	defaultVaultSweepSeconds = 300
	defaultCookieName        = "rml_session"
	defaultCookieMaxAge      = 7 * 86400
	defaultSessionSecret     = "dev-only-session-secret"
	defaultTypingBaseMs      = 2000
	defaultTypingPerCharMs   = 15
)

// Config is assembled from defaults, an optional TOML file and RML_*
// environment overrides, in that order.
type Config struct {
	ListenAddr      string `toml:"listen_addr"`
	SQLiteDBPath    string `toml:"sqlite_db_path"`
	AnalysisBaseURL string `toml:"analysis_base_url"`
	LookerAPIPort   int    `toml:"looker_api_port"`

	VaultTTLSeconds   int `toml:"vault_ttl_seconds"`
	VaultSweepSeconds int `toml:"vault_sweep_seconds"`

	CookieName    string `toml:"cookie_name"`
	CookieMaxAge  int    `toml:"cookie_max_age_seconds"`
	CookieSecure  bool   `toml:"cookie_secure"`
	SessionSecret string `toml:"session_secret"`

	TypingBaseMs    int `toml:"typing_base_ms"`
	TypingPerCharMs int `toml:"typing_per_char_ms"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:        defaultListenAddr,
		SQLiteDBPath:      defaultSQLiteDBPath,
		AnalysisBaseURL:   defaultAnalysisBaseURL,
		LookerAPIPort:     defaultLookerAPIPort,
		VaultTTLSeconds:   defaultVaultTTLSeconds,
		VaultSweepSeconds: defaultVaultSweepSeconds,
		CookieName:        defaultCookieName,
		CookieMaxAge:      defaultCookieMaxAge,
		SessionSecret:     defaultSessionSecret,
		TypingBaseMs:      defaultTypingBaseMs,
		TypingPerCharMs:   defaultTypingPerCharMs,
	}
}

// loadConfig reads the TOML file at path when it exists and applies
// environment overrides on top. A missing file is not an error so the
// service can run on defaults alone.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("decode config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	applyEnvString("RML_LISTEN_ADDR", &cfg.ListenAddr)
	applyEnvString("RML_SQLITE_DB_PATH", &cfg.SQLiteDBPath)
	applyEnvString("RML_ANALYSIS_BASE_URL", &cfg.AnalysisBaseURL)
	applyEnvInt("RML_LOOKER_API_PORT", &cfg.LookerAPIPort)
	applyEnvInt("RML_VAULT_TTL_SECONDS", &cfg.VaultTTLSeconds)
	applyEnvInt("RML_VAULT_SWEEP_SECONDS", &cfg.VaultSweepSeconds)
	applyEnvString("RML_COOKIE_NAME", &cfg.CookieName)
	applyEnvInt("RML_COOKIE_MAX_AGE_SECONDS", &cfg.CookieMaxAge)
	applyEnvBool("RML_COOKIE_SECURE", &cfg.CookieSecure)
	applyEnvString("RML_SESSION_SECRET", &cfg.SessionSecret)
	applyEnvInt("RML_TYPING_BASE_MS", &cfg.TypingBaseMs)
	applyEnvInt("RML_TYPING_PER_CHAR_MS", &cfg.TypingPerCharMs)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.AnalysisBaseURL == "" {
		return fmt.Errorf("analysis_base_url must not be empty")
	}
	if c.VaultTTLSeconds <= 0 {
		return fmt.Errorf("vault_ttl_seconds must be positive")
	}
	if c.TypingBaseMs < 0 || c.TypingPerCharMs < 0 {
		return fmt.Errorf("typing delays must not be negative")
	}
	return nil
}

func applyEnvString(key string, target *string) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		*target = value
	}
}

func applyEnvInt(key string, target *int) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logWarn("config.env.invalid_int", "key", key, "value", value)
		return
	}
	*target = parsed
}

func applyEnvBool(key string, target *bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logWarn("config.env.invalid_bool", "key", key, "value", value)
		return
	}
	*target = parsed
}
