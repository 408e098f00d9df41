package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"
)

const EnvPrefix = "SVCVIEW"

type Config struct {
	Listen         string   `json:"listen" split_words:"true"`
	Open           bool     `json:"open" split_words:"true"`
	Kubeconfig     string   `json:"kubeconfig" split_words:"true"`
	Token          string   `json:"token" split_words:"true"`
	RequestTimeout Duration `json:"requestTimeout" split_words:"true"`
	LogLevel       string   `json:"logLevel" split_words:"true"`
	LogFormat      string   `json:"logFormat" split_words:"true"`
}

func Default() Config {
	return Config{
		Listen:         "127.0.0.1:10443",
		Open:           true,
		RequestTimeout: Duration{20 * time.Second},
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load starts from Default, overlays the YAML file at path (skipped when
// path is empty) and then SVCVIEW_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	return cfg, cfg.Validate()
}

func readFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address is empty")
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout.Duration)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Duration reads "20s" style values from both YAML and the environment.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case float64:
		d.Duration = time.Duration(val) * time.Second
		return nil
	case string:
		return d.Decode(val)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Decode implements envconfig.Decoder.
func (d *Duration) Decode(value string) error {
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}
