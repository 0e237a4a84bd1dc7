// pkg/manifest/load.go
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/joeydtaylor/steeze-rpc/pkg/broker/kafka"
)

const (
	EnvManifest = "RPC_MANIFEST"
	EnvBrokers  = "KAFKA_BROKERS"
	EnvListen   = "SERVER_LISTEN_ADDRESS"
	EnvJWT      = "GATEWAY_JWT_SECRET"

	DefaultManifest = "manifest.toml"
)

// Path returns the manifest location: $RPC_MANIFEST or manifest.toml.
func Path() string {
	if v := strings.TrimSpace(os.Getenv(EnvManifest)); v != "" {
		return v
	}
	return DefaultManifest
}

// Load reads a TOML (or .yaml/.yml) manifest, applies env overrides and
// defaults, and validates the result.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Parse(b, filepath.Ext(path))
	if err != nil {
		return Config{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes raw manifest bytes; ext selects the format.
func Parse(b []byte, ext string) (Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	default:
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	}
	cfg.ApplyEnv()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides manifest values with the process environment.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBrokers)); v != "" {
		var brokers []string
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Kafka.Brokers = brokers
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		c.Gateway.Listen = v
	}
	if v := os.Getenv(EnvJWT); v != "" {
		c.Gateway.JWT.Secret = v
	}
}

func (c Config) RPCTimeout() time.Duration      { return ms(c.RPC.TimeoutMS) }
func (c Config) ShutdownTimeout() time.Duration { return ms(c.RPC.ShutdownTimeoutMS) }

// KafkaConfig maps the [kafka] section onto the broker client config.
func (c Config) KafkaConfig() kafka.Config {
	k := c.Kafka
	out := kafka.Config{
		Brokers:     k.Brokers,
		ClientID:    k.ClientID,
		StartOffset: k.ReplyStartOffset,
		DialTimeout: ms(k.DialTimeoutMS),
	}
	if r := k.Reader; r != nil {
		out.MinBytes = r.MinBytes
		out.MaxBytes = r.MaxBytes
		out.MaxWait = ms(r.MaxWaitMS)
		out.SessionTimeout = ms(r.SessionTimeoutMS)
		out.CommitInterval = ms(r.CommitIntervalMS)
	}
	if w := k.Writer; w != nil {
		out.Balancer = w.Balancer
		out.BatchTimeout = ms(w.BatchTimeoutMS)
		out.WriteTimeout = ms(w.WriteTimeoutMS)
	}
	if s := k.Security; s != nil {
		if t := s.TLS; t != nil {
			out.TLS = &kafka.TLSConfig{
				Enable:             t.Enable,
				CAFiles:            t.CAFiles,
				ServerName:         t.ServerName,
				InsecureSkipVerify: t.InsecureSkipVerify,
				ClientCert:         t.ClientCert,
				ClientKey:          t.ClientKey,
			}
		}
		if sa := s.SASL; sa != nil && sa.Mechanism != "" {
			out.SASL = &kafka.SASLConfig{Mechanism: sa.Mechanism, Username: sa.Username, Password: sa.Password}
		}
	}
	return out
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
