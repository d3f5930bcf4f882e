// SPDX-FileCopyrightText: 2026 Deutsche Telekom AG
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/telekom/failed-job-deactivator/pkg/audit"
	"github.com/telekom/failed-job-deactivator/pkg/mail"
)

// DefaultConfigPath is used when no path is given.
const DefaultConfigPath = "./config.yaml"

// Mail is the host-wide SMTP configuration. The port is kept as written;
// an empty value lets the transport pick its default.
type Mail struct {
	Host         string `yaml:"host"`
	Port         string `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	PasswordEnv  string `yaml:"passwordEnv"`
	PasswordFile string `yaml:"passwordFile"`
	UseSSL       bool   `yaml:"useSSL"`
	ReplyTo      string `yaml:"replyTo"`
	// CAFile is a PEM bundle trusted instead of the system roots.
	CAFile             string `yaml:"caFile"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`

	rootCAs *x509.CertPool
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	// WriteTimeout is a duration string such as "10s".
	WriteTimeout string `yaml:"writeTimeout"`
	// SASLMechanism is one of PLAIN, SCRAM-SHA-256, SCRAM-SHA-512.
	SASLMechanism      string `yaml:"saslMechanism"`
	SASLUser           string `yaml:"saslUser"`
	SASLPassword       string `yaml:"saslPassword"`
	TLS                bool   `yaml:"tls"`
	CAFile             string `yaml:"caFile"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

type Audit struct {
	// Log writes audit events to the debug log.
	Log   bool   `yaml:"log"`
	Kafka *Kafka `yaml:"kafka"`
}

type Config struct {
	Mail Mail `yaml:"mail"`
	// AdminRecipients are notified about every detected job.
	Admins []string `yaml:"adminRecipients"`
	Audit  Audit    `yaml:"audit"`
}

var _ mail.SettingsProvider = Config{}

// Load loads the configuration from a file path.
// If configPath is empty, defaults to "./config.yaml".
func Load(configPath string) (Config, error) {
	path := configPath
	if path == "" {
		path = DefaultConfigPath
	}

	var config Config

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("trying to open deactivator config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
	}

	password, err := resolveSecret(config.Mail.Password, config.Mail.PasswordEnv, config.Mail.PasswordFile)
	if err != nil {
		return config, fmt.Errorf("resolving SMTP password: %w", err)
	}
	config.Mail.Password = password

	if config.Mail.CAFile != "" {
		pool, err := loadCertPool(config.Mail.CAFile)
		if err != nil {
			return config, fmt.Errorf("reading mail.caFile: %w", err)
		}
		config.Mail.rootCAs = pool
	}

	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}

// Validate checks settings that would otherwise fail late, in the middle of a run.
func (c Config) Validate() error {
	if c.Mail.User == "" && c.Mail.Password != "" {
		return errors.New("mail.password is set but mail.user is empty")
	}
	if k := c.Audit.Kafka; k != nil {
		if len(k.Brokers) == 0 {
			return errors.New("audit.kafka.brokers must not be empty")
		}
		if k.Topic == "" {
			return errors.New("audit.kafka.topic must not be empty")
		}
	}
	return nil
}

// MailSettings implements mail.SettingsProvider.
func (c Config) MailSettings() mail.MailSettings {
	return mail.MailSettings{
		Host:         strings.TrimSpace(c.Mail.Host),
		Port:         strings.TrimSpace(c.Mail.Port),
		AuthUser:     c.Mail.User,
		AuthPassword: c.Mail.Password,
		UseSSL:       c.Mail.UseSSL,
		ReplyTo:      strings.TrimSpace(c.Mail.ReplyTo),

		RootCAs:            c.Mail.rootCAs,
		InsecureSkipVerify: c.Mail.InsecureSkipVerify,
	}
}

func loadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// SinkConfig converts the file settings into a Kafka sink configuration,
// reading the CA file when one is set.
func (k *Kafka) SinkConfig() (audit.KafkaSinkConfig, error) {
	cfg := audit.KafkaSinkConfig{
		Name:    "kafka",
		Brokers: k.Brokers,
		Topic:   k.Topic,
	}
	if k.WriteTimeout != "" {
		d, err := time.ParseDuration(k.WriteTimeout)
		if err != nil {
			return cfg, fmt.Errorf("invalid audit.kafka.writeTimeout %q: %w", k.WriteTimeout, err)
		}
		cfg.WriteTimeout = d
	}
	if k.TLS {
		tlsCfg := &audit.KafkaTLSConfig{Enabled: true, InsecureSkipVerify: k.InsecureSkipVerify}
		if k.CAFile != "" {
			ca, err := os.ReadFile(k.CAFile)
			if err != nil {
				return cfg, fmt.Errorf("reading audit.kafka.caFile: %w", err)
			}
			tlsCfg.CACert = ca
		}
		cfg.TLS = tlsCfg
	}
	if k.SASLMechanism != "" {
		cfg.SASL = &audit.KafkaSASLConfig{
			Mechanism: k.SASLMechanism,
			Username:  k.SASLUser,
			Password:  k.SASLPassword,
		}
	}
	return cfg, nil
}

// AdminRecipients returns the configured admin addresses, skipping blanks.
func (c Config) AdminRecipients() []string {
	out := make([]string, 0, len(c.Admins))
	for _, r := range c.Admins {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func resolveSecret(secret, secretEnv, secretFile string) (string, error) {
	if secret != "" {
		return secret, nil
	}
	if secretEnv != "" {
		value := strings.TrimSpace(os.Getenv(secretEnv))
		if value == "" {
			return "", fmt.Errorf("secret env var not set: %s", secretEnv)
		}
		return value, nil
	}
	if secretFile != "" {
		bytes, err := os.ReadFile(secretFile)
		if err != nil {
			return "", fmt.Errorf("failed to read secret file: %w", err)
		}
		return strings.TrimSpace(string(bytes)), nil
	}
	return "", nil
}
