package server

import (
	"crypto/tls"
	"time"

	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/lang"
)

const (
	defaultAddress     = "0.0.0.0:8080"
	defaultMetricsPath = "/metrics"
	defaultWebhook     = "/webhook"
	defaultTimeout     = 30 * time.Second
)

// Config represents API server configuration
type Config struct {
	Enabled     bool          `yaml:"enabled" env:"SERVER_ENABLED"`
	Address     string        `yaml:"address" env:"SERVER_ADDRESS"`
	MetricsPath string        `yaml:"metrics_path" env:"SERVER_METRICS_PATH"`
	Timeout     time.Duration `yaml:"timeout" env:"SERVER_TIMEOUT"`

	WebhookEndpoint string `yaml:"webhook_endpoint" env:"SERVER_WEBHOOK_ENDPOINT"`
	WebhookSecret   string `yaml:"webhook_secret" env:"SERVER_WEBHOOK_SECRET"`

	CertFilePath string `yaml:"cert_file_path" env:"CERT_FILE_PATH"`
	KeyFilePath  string `yaml:"key_file_path" env:"KEY_FILE_PATH"`
	EnableHTTPS  bool   `yaml:"enable_https" env:"SERVER_ENABLE_HTTPS"`

	Certificate tls.Certificate `yaml:"-"`
}

func (cfg *Config) PrepareAndValidate() error {
	cfg.Address = lang.Check(cfg.Address, defaultAddress)
	cfg.MetricsPath = lang.Check(cfg.MetricsPath, defaultMetricsPath)
	cfg.Timeout = lang.Check(cfg.Timeout, defaultTimeout)
	cfg.WebhookEndpoint = lang.Check(cfg.WebhookEndpoint, defaultWebhook)

	if cfg.EnableHTTPS {
		if cfg.CertFilePath == "" || cfg.KeyFilePath == "" {
			return errm.New("cert_file_path and key_file_path must be set when enable_https is true")
		}

		cert, err := tls.LoadX509KeyPair(cfg.CertFilePath, cfg.KeyFilePath)
		if err != nil {
			return errm.Wrap(err, "failed to load certificate and key pair")
		}

		cfg.Certificate = cert
	}

	return nil
}
