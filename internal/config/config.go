package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port               int      `yaml:"port"`
	DataPath           string   `yaml:"data_path"`
	DBPath             string   `yaml:"db_path"`
	DownloadPath       string   `yaml:"download_path"`
	StaticPath         string   `yaml:"static_path"`
	CORSOrigins        []string `yaml:"cors_origins"`
	YtDlpPath          string   `yaml:"ytdlp_path"`
	WhisperURL         string   `yaml:"whisper_url"`      // standard engine server
	FastWhisperURL     string   `yaml:"fast_whisper_url"` // faster-whisper server
	DefaultModel       string   `yaml:"default_model"`
	Device             string   `yaml:"device"` // "auto", "cpu", "cuda", "mps"
	RateLimit          int      `yaml:"rate_limit"`
	HTTPTimeoutMinutes int      `yaml:"http_timeout_minutes"`
}

// Load builds the configuration from the optional YAML file named by CONFIG_FILE,
// then applies environment variables on top of it.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit config file path. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	log.Printf("[config] loaded %s", path)
	return nil
}

func (c *Config) applyEnv() {
	c.Port = getEnvInt("PORT", c.Port, 8000)
	c.DataPath = getEnv("DATA_PATH", or(c.DataPath, "./data"))
	c.DBPath = getEnv("DB_PATH", or(c.DBPath, filepath.Join(c.DataPath, "transcriptions.db")))
	c.DownloadPath = getEnv("DOWNLOAD_PATH", or(c.DownloadPath, filepath.Join(c.DataPath, "downloads")))
	c.StaticPath = getEnv("STATIC_PATH", or(c.StaticPath, "./static"))
	c.YtDlpPath = getEnv("YTDLP_PATH", or(c.YtDlpPath, "yt-dlp"))
	c.WhisperURL = getEnv("WHISPER_URL", or(c.WhisperURL, "http://localhost:9000"))
	c.FastWhisperURL = getEnv("FAST_WHISPER_URL", or(c.FastWhisperURL, "http://localhost:9001"))
	c.DefaultModel = getEnv("DEFAULT_MODEL", or(c.DefaultModel, "tiny"))
	c.Device = strings.ToLower(getEnv("DEVICE", or(c.Device, "auto")))
	c.RateLimit = getEnvInt("RATE_LIMIT", c.RateLimit, 0)
	c.HTTPTimeoutMinutes = getEnvInt("HTTP_TIMEOUT_MINUTES", c.HTTPTimeoutMinutes, 30)

	// CORS origins: comma-separated list or "*" (default)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		c.CORSOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, current, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
		log.Printf("[config] ignoring invalid %s=%q", key, v)
	}
	if current != 0 {
		return current
	}
	return fallback
}

func or(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
