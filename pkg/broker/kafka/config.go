// pkg/broker/kafka/config.go
package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	kafka "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
)

// Config is pure data for building readers, writers and the admin client.
type Config struct {
	Brokers  []string
	ClientID string

	// Reader
	StartOffset    string // "earliest" (default) | "latest"
	MinBytes       int
	MaxBytes       int
	MaxWait        time.Duration
	SessionTimeout time.Duration
	CommitInterval time.Duration // 0 commits synchronously on every read

	// Writer
	Balancer     string // "least_bytes" (default) | "round_robin" | "hash"
	BatchTimeout time.Duration
	WriteTimeout time.Duration

	DialTimeout time.Duration

	TLS  *TLSConfig
	SASL *SASLConfig
}

type TLSConfig struct {
	Enable             bool
	CAFiles            []string
	ServerName         string
	InsecureSkipVerify bool
	ClientCert         string
	ClientKey          string
}

type SASLConfig struct {
	Mechanism string // "PLAIN" | "SCRAM-SHA-256" | "SCRAM-SHA-512"
	Username  string
	Password  string
}

// Normalize fills defaults tuned for request/reply latency.
func (c *Config) Normalize() {
	if c.ClientID == "" {
		c.ClientID = "steeze-rpc"
	}
	if c.StartOffset == "" {
		c.StartOffset = "earliest"
	}
	if c.MinBytes <= 0 {
		c.MinBytes = 1
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 << 20
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 250 * time.Millisecond
	}
	if c.SessionTimeout <= 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.Balancer == "" {
		c.Balancer = "least_bytes"
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 10 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 10 * time.Second
	}
}

func (c Config) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker required")
	}
	switch c.StartOffset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("kafka: start offset %q must be earliest or latest", c.StartOffset)
	}
	return nil
}

func (c Config) startOffset() int64 {
	if c.StartOffset == "latest" {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

func (c Config) balancer() (kafka.Balancer, error) {
	switch strings.ToLower(c.Balancer) {
	case "", "least_bytes":
		return &kafka.LeastBytes{}, nil
	case "round_robin":
		return &kafka.RoundRobin{}, nil
	case "hash":
		return &kafka.Hash{}, nil
	default:
		return nil, fmt.Errorf("kafka: unknown balancer %q", c.Balancer)
	}
}

func (c Config) tlsConfig() (*tls.Config, error) {
	if c.TLS == nil || !c.TLS.Enable {
		return nil, nil
	}
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		ServerName:         c.TLS.ServerName,
		InsecureSkipVerify: c.TLS.InsecureSkipVerify, // dev only
	}
	if len(c.TLS.CAFiles) > 0 {
		pool := x509.NewCertPool()
		loaded := 0
		for _, f := range c.TLS.CAFiles {
			pem, err := os.ReadFile(f)
			if err != nil {
				return nil, fmt.Errorf("kafka tls: read CA %s: %w", f, err)
			}
			if pool.AppendCertsFromPEM(pem) {
				loaded++
			}
		}
		if loaded == 0 {
			return nil, fmt.Errorf("kafka tls: no CA certificates loaded from %v", c.TLS.CAFiles)
		}
		cfg.RootCAs = pool
	}
	if c.TLS.ClientCert != "" || c.TLS.ClientKey != "" {
		pair, err := tls.LoadX509KeyPair(c.TLS.ClientCert, c.TLS.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("kafka tls: client keypair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{pair}
	}
	return cfg, nil
}

func (c Config) saslMechanism() (sasl.Mechanism, error) {
	if c.SASL == nil || c.SASL.Mechanism == "" {
		return nil, nil
	}
	switch strings.ToUpper(c.SASL.Mechanism) {
	case "PLAIN":
		return plain.Mechanism{Username: c.SASL.Username, Password: c.SASL.Password}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, c.SASL.Username, c.SASL.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, c.SASL.Username, c.SASL.Password)
	default:
		return nil, fmt.Errorf("kafka sasl: unsupported mechanism %q", c.SASL.Mechanism)
	}
}
