package app

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"sealchat/internal/crypto"
)

// Config holds runtime wiring options. Values come from an optional YAML
// file with CLI flags layered on top.
type Config struct {
	// Home is the config/state directory, e.g. $HOME/.sealchat.
	Home string `yaml:"home"`
	// ServerURL is the REST base URL of the chat and key-directory
	// service.
	ServerURL string `yaml:"server_url"`
	// RealtimeURL is the websocket endpoint, e.g. wss://host/ws.
	RealtimeURL string `yaml:"realtime_url"`
	// Token authenticates REST and websocket requests.
	Token string `yaml:"token"`

	// UserID and DeviceID identify this installation.
	UserID   int64  `yaml:"user_id"`
	DeviceID string `yaml:"device_id"`

	// KDFIterations overrides the PBKDF2 iteration count for new keys.
	KDFIterations int `yaml:"kdf_iterations"`
	// ReencryptLimit bounds how many history messages a re-encryption run
	// touches.
	ReencryptLimit int `yaml:"reencrypt_limit"`
	// TypingTTL is the typing-indicator lifetime.
	TypingTTL time.Duration `yaml:"typing_ttl"`
	// ReconnectAttempts bounds websocket reconnects per outage.
	ReconnectAttempts int `yaml:"reconnect_attempts"`
}

// LoadConfig reads path if it exists and fills defaults. A missing file is
// not an error; the zero config plus defaults is valid for local use.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	if err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.KDFIterations <= 0 {
		c.KDFIterations = crypto.DefaultIterations
	}
	if c.ReencryptLimit <= 0 {
		c.ReencryptLimit = 50
	}
	if c.TypingTTL <= 0 {
		c.TypingTTL = 3 * time.Second
	}
	if c.ReconnectAttempts <= 0 {
		c.ReconnectAttempts = 8
	}
}
