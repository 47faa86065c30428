// Package config loads the toolkit configuration from a YAML file with
// environment overrides. The value is owned by the caller and passed
// explicitly into the client constructor; there is no package-global state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mobiledna/datakit/internal/errdefs"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = 9200
	defaultTimeoutSeconds = 100
	defaultMaxRetries     = 10
	defaultListenAddr     = ":8081"
)

type Elasticsearch struct {
	Address        string `yaml:"address"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
}

type Server struct {
	ListenAddr string `yaml:"listen_addr"`
}

type Config struct {
	Elasticsearch Elasticsearch `yaml:"elasticsearch"`
	Server        Server        `yaml:"server"`
}

// URL renders the store endpoint for the official client.
func (e Elasticsearch) URL() string {
	return fmt.Sprintf("http://%s:%d", e.Address, e.Port)
}

// Timeout returns the request timeout as a duration.
func (e Elasticsearch) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// Load reads the YAML file at path, applies environment overrides and
// validates mandatory fields. A missing file is a hard failure: no
// connection may be attempted without configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errdefs.Wrapf(errdefs.ErrNotFound, err, "config file %s", path)
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{
		Elasticsearch: Elasticsearch{
			Port:           defaultPort,
			TimeoutSeconds: defaultTimeoutSeconds,
			MaxRetries:     defaultMaxRetries,
		},
		Server: Server{ListenAddr: defaultListenAddr},
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errdefs.Wrapf(errdefs.ErrFormat, err, "config file %s", path)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATAKIT_ES_ADDRESS"); v != "" {
		cfg.Elasticsearch.Address = v
	}
	if v := os.Getenv("DATAKIT_ES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Elasticsearch.Port = port
		}
	}
	if v := os.Getenv("DATAKIT_ES_USERNAME"); v != "" {
		cfg.Elasticsearch.Username = v
	}
	if v := os.Getenv("DATAKIT_ES_PASSWORD"); v != "" {
		cfg.Elasticsearch.Password = v
	}
	if v := os.Getenv("DATAKIT_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
}

func (c *Config) Validate() error {
	if c.Elasticsearch.Address == "" {
		return errdefs.Wrap(errdefs.ErrFormat, nil, "elasticsearch.address is required")
	}
	if c.Elasticsearch.Port <= 0 || c.Elasticsearch.Port > 65535 {
		return errdefs.Wrapf(errdefs.ErrFormat, nil, "elasticsearch.port %d out of range", c.Elasticsearch.Port)
	}
	return nil
}
