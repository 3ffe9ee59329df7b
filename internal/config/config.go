// Package config loads EchoVerse configuration from command-line flags, environment
// variables, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Auth      AuthConfig
	Narration NarrationConfig
	Speech    SpeechConfig
	Rewrite   RewriteConfig
	Events    EventsConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataPath    string // root for the database, audio files, cache and index
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json, pretty, or empty to follow the environment
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration // merged narrations take a while; default 5m
	IdleTimeout   time.Duration
	CORSOrigins   []string
	AdvertiseMDNS bool
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key (32 bytes), set by auth.LoadOrGenerateKey at startup.
	AccessTokenKey       []byte
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// NarrationConfig holds story narration settings.
type NarrationConfig struct {
	Workers        int
	SegmentTimeout time.Duration
	Gap            time.Duration
	AudioPath      string
	MaxTextLength  int
}

// SpeechConfig holds text-to-speech provider settings.
type SpeechConfig struct {
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	DeepgramKey   string
	LocalEngine   string // empty disables the local provider
	CacheEnabled  bool
	CachePath     string
	CacheTTL      time.Duration
}

// RewriteConfig holds tone rewrite settings.
type RewriteConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	FallbackAPIKey  string
	FallbackModel   string
	FallbackBaseURL string
	PromptsPath     string // optional TOML prompt file, hot reloaded
	Timeout         time.Duration
}

// EventsConfig holds NATS event publishing settings.
type EventsConfig struct {
	NATSURL       string // empty disables publishing
	SubjectPrefix string
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("echoverse", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	dataPath := fs.String("data-path", "", "Base path for application data (default: ~/EchoVerse)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	serverName := fs.String("server-name", "", "Name for the server")
	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 5m)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	corsOrigins := fs.String("cors-origins", "", "Comma separated allowed CORS origins (default: *)")
	advertiseMDNS := fs.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := fs.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")
	workers := fs.String("narration-workers", "", "Concurrent segment synthesis workers (default: 4)")
	segmentTimeout := fs.String("segment-timeout", "", "Per-segment synthesis timeout (default: 45s)")
	audioPath := fs.String("audio-path", "", "Directory for generated audio (default: {data}/audio_files)")
	localEngine := fs.String("local-tts", "", "Local TTS binary (default: espeak-ng, 'off' to disable)")
	promptsPath := fs.String("prompts", "", "Path to rewrite prompts TOML file")
	natsURL := fs.String("nats-url", "", "NATS server URL for narration events")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", ""),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", "info"),
			Format: getConfigValue(*logFormat, "LOG_FORMAT", ""),
		},
		Server: ServerConfig{
			Name:          getConfigValue(*serverName, "SERVER_NAME", "EchoVerse Server"),
			Port:          getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			CORSOrigins:   splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
			AdvertiseMDNS: getBoolConfigValue(*advertiseMDNS, "ADVERTISE_MDNS", true),
		},
		Narration: NarrationConfig{
			Workers:       getIntConfigValue(*workers, "NARRATION_WORKERS", 4),
			AudioPath:     getConfigValue(*audioPath, "AUDIO_PATH", ""),
			MaxTextLength: getIntConfigValue("", "NARRATION_MAX_TEXT_LENGTH", 20000),
		},
		Speech: SpeechConfig{
			OpenAIKey:     getConfigValue("", "OPENAI_API_KEY", ""),
			OpenAIModel:   getConfigValue("", "OPENAI_TTS_MODEL", "gpt-4o-mini-tts"),
			OpenAIBaseURL: getConfigValue("", "OPENAI_BASE_URL", ""),
			DeepgramKey:   getConfigValue("", "DEEPGRAM_API_KEY", ""),
			LocalEngine:   getConfigValue(*localEngine, "LOCAL_TTS_ENGINE", "espeak-ng"),
			CacheEnabled:  getBoolConfigValue("", "SPEECH_CACHE_ENABLED", true),
			CachePath:     getConfigValue("", "SPEECH_CACHE_PATH", ""),
		},
		Rewrite: RewriteConfig{
			APIKey:          getConfigValue("", "REWRITE_API_KEY", os.Getenv("OPENAI_API_KEY")),
			Model:           getConfigValue("", "REWRITE_MODEL", "gpt-4o-mini"),
			BaseURL:         getConfigValue("", "REWRITE_BASE_URL", os.Getenv("OPENAI_BASE_URL")),
			FallbackAPIKey:  getConfigValue("", "REWRITE_FALLBACK_API_KEY", ""),
			FallbackModel:   getConfigValue("", "REWRITE_FALLBACK_MODEL", ""),
			FallbackBaseURL: getConfigValue("", "REWRITE_FALLBACK_BASE_URL", ""),
			PromptsPath:     getConfigValue(*promptsPath, "REWRITE_PROMPTS_PATH", ""),
		},
		Events: EventsConfig{
			NATSURL:       getConfigValue(*natsURL, "NATS_URL", ""),
			SubjectPrefix: getConfigValue("", "EVENTS_SUBJECT_PREFIX", "echoverse"),
		},
	}
	if strings.EqualFold(cfg.Speech.LocalEngine, "off") {
		cfg.Speech.LocalEngine = ""
	}

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m", &cfg.Auth.AccessTokenDuration},
		{*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h", &cfg.Auth.RefreshTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "5m", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
		{*segmentTimeout, "NARRATION_SEGMENT_TIMEOUT", "45s", &cfg.Narration.SegmentTimeout},
		{"", "NARRATION_GAP", "500ms", &cfg.Narration.Gap},
		{"", "SPEECH_CACHE_TTL", "168h", &cfg.Speech.CacheTTL},
		{"", "REWRITE_TIMEOUT", "30s", &cfg.Rewrite.Timeout},
	}
	for _, d := range durations {
		if err := parseDuration(d.flagValue, d.envKey, d.def, d.dst); err != nil {
			return nil, err
		}
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Logger.Format {
	case "", "json", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if c.App.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	if c.Narration.Workers < 1 {
		return fmt.Errorf("narration workers must be positive, got %d", c.Narration.Workers)
	}
	if c.Narration.SegmentTimeout <= 0 {
		return errors.New("narration segment timeout must be positive")
	}
	if c.Narration.Gap < 0 {
		return errors.New("narration gap cannot be negative")
	}
	if c.Narration.MaxTextLength < 1 {
		return errors.New("narration max text length must be positive")
	}

	return nil
}

// DatabasePath returns the SQLite database file path.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.App.DataPath, "echoverse.db")
}

// SearchIndexPath returns the history search index directory.
func (c *Config) SearchIndexPath() string {
	return filepath.Join(c.App.DataPath, "search")
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandPaths resolves the data path and the directories derived from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	if c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(homeDir, "EchoVerse")); err != nil {
		return err
	}
	if c.Narration.AudioPath, err = expandPath(c.Narration.AudioPath, filepath.Join(c.App.DataPath, "audio_files")); err != nil {
		return err
	}
	if c.Speech.CachePath, err = expandPath(c.Speech.CachePath, filepath.Join(c.App.DataPath, "cache", "clips")); err != nil {
		return err
	}
	if c.Rewrite.PromptsPath != "" {
		if c.Rewrite.PromptsPath, err = expandPath(c.Rewrite.PromptsPath, ""); err != nil {
			return err
		}
	}
	return nil
}

func parseDuration(flagValue, envKey, defaultValue string, dst *time.Duration) error {
	raw := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", strings.ToLower(envKey), raw, err)
	}
	*dst = d
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue accepts "true", "1" and "yes" (case-insensitive) as true.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars already set take precedence over the file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
