// pkg/manifest/validate.go
package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// Normalize fills defaults. Load calls it before Validate.
func (c *Config) Normalize() {
	if strings.TrimSpace(c.Service.Name) == "" {
		c.Service.Name = "steeze-rpc"
	}

	k := &c.Kafka
	k.Transport = strings.ToLower(strings.TrimSpace(k.Transport))
	if k.Transport == "" {
		k.Transport = TransportKafka
	}
	if strings.TrimSpace(k.ClientID) == "" {
		k.ClientID = c.Service.Name
	}
	k.ReplyStartOffset = strings.ToLower(strings.TrimSpace(k.ReplyStartOffset))
	if k.ReplyStartOffset == "" {
		k.ReplyStartOffset = "earliest"
	}
	if k.Writer == nil {
		k.Writer = &KafkaWriter{}
	}
	if k.Writer.BatchTimeoutMS == 0 {
		k.Writer.BatchTimeoutMS = 10
	}
	if strings.TrimSpace(k.Writer.Balancer) == "" {
		k.Writer.Balancer = "least_bytes"
	} else {
		k.Writer.Balancer = strings.ToLower(strings.TrimSpace(k.Writer.Balancer))
	}
	if k.Reader == nil {
		k.Reader = &KafkaReader{}
	}
	if k.Security != nil && k.Security.SASL != nil {
		k.Security.SASL.Mechanism = strings.ToUpper(strings.TrimSpace(k.Security.SASL.Mechanism))
	}

	if c.Topics.Partitions == 0 {
		c.Topics.Partitions = 1
	}
	if c.Topics.ReplicationFactor == 0 {
		c.Topics.ReplicationFactor = 1
	}

	if c.RPC.TimeoutMS == 0 {
		c.RPC.TimeoutMS = 10_000
	}
	if c.RPC.ShutdownTimeoutMS == 0 {
		c.RPC.ShutdownTimeoutMS = 10_000
	}
	if strings.TrimSpace(c.RPC.RequestorGroupPrefix) == "" {
		c.RPC.RequestorGroupPrefix = c.Service.Name + "-requestor"
	}

	if strings.TrimSpace(c.Gateway.Listen) == "" {
		c.Gateway.Listen = ":4000"
	}
	if c.Gateway.JWT.LeewaySeconds == 0 {
		c.Gateway.JWT.LeewaySeconds = 60
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	k := c.Kafka
	switch k.Transport {
	case TransportKafka:
		if len(k.Brokers) == 0 {
			return errors.New("kafka.brokers required for transport 'kafka'")
		}
		for i, b := range k.Brokers {
			if strings.TrimSpace(b) == "" {
				return fmt.Errorf("kafka.brokers[%d] is empty", i)
			}
		}
	case TransportMemory:
	default:
		return fmt.Errorf("kafka.transport %q invalid (kafka|memory)", k.Transport)
	}

	switch k.ReplyStartOffset {
	case "earliest", "latest":
	default:
		return fmt.Errorf("kafka.reply_start_offset %q invalid (earliest|latest)", k.ReplyStartOffset)
	}
	if k.DialTimeoutMS < 0 {
		return errors.New("kafka.dial_timeout_ms must be >= 0")
	}
	if r := k.Reader; r != nil {
		if r.MinBytes < 0 || r.MaxBytes < 0 || r.MaxWaitMS < 0 || r.SessionTimeoutMS < 0 || r.CommitIntervalMS < 0 {
			return errors.New("kafka.reader values must be >= 0")
		}
		if r.MaxBytes > 0 && r.MinBytes > r.MaxBytes {
			return errors.New("kafka.reader.min_bytes must not exceed max_bytes")
		}
	}
	if w := k.Writer; w != nil {
		if w.BatchTimeoutMS < 0 || w.WriteTimeoutMS < 0 {
			return errors.New("kafka.writer values must be >= 0")
		}
		switch w.Balancer {
		case "least_bytes", "round_robin", "hash":
		default:
			return fmt.Errorf("kafka.writer.balancer %q invalid", w.Balancer)
		}
	}
	if err := k.Security.validate(); err != nil {
		return err
	}

	if c.Topics.Partitions < 1 {
		return errors.New("topics.partitions must be >= 1")
	}
	if c.Topics.ReplicationFactor < 1 {
		return errors.New("topics.replication_factor must be >= 1")
	}

	if c.RPC.TimeoutMS < 0 {
		return errors.New("rpc.timeout_ms must be > 0")
	}
	if c.RPC.ShutdownTimeoutMS < 0 {
		return errors.New("rpc.shutdown_timeout_ms must be > 0")
	}

	g := c.Gateway
	if g.RequireAuth && strings.TrimSpace(g.JWT.Secret) == "" {
		return errors.New("gateway.jwt.secret required when require_auth=true")
	}
	if (strings.TrimSpace(g.TLSCert) == "") != (strings.TrimSpace(g.TLSKey) == "") {
		return errors.New("gateway tls_cert and tls_key must be provided together")
	}
	if g.JWT.LeewaySeconds < 0 {
		return errors.New("gateway.jwt.leeway_seconds must be >= 0")
	}
	return nil
}

func (s *KafkaSecurity) validate() error {
	if s == nil {
		return nil
	}
	if t := s.TLS; t != nil && t.Enable {
		if len(t.CAFiles) == 0 {
			return errors.New("kafka.security.tls.ca_files required when enable=true")
		}
		if strings.TrimSpace(t.ServerName) == "" && !t.InsecureSkipVerify {
			return errors.New("kafka.security.tls.server_name required unless insecure_skip_tls_verify=true")
		}
		if (strings.TrimSpace(t.ClientCert) != "" && strings.TrimSpace(t.ClientKey) == "") ||
			(strings.TrimSpace(t.ClientKey) != "" && strings.TrimSpace(t.ClientCert) == "") {
			return errors.New("kafka.security.tls client_cert and client_key must be provided together")
		}
	}
	if sa := s.SASL; sa != nil {
		switch sa.Mechanism {
		case "SCRAM-SHA-256", "SCRAM-SHA-512", "PLAIN":
			if sa.Username == "" || sa.Password == "" {
				return errors.New("kafka.security.sasl username/password required")
			}
		case "":
		default:
			return fmt.Errorf("kafka.security.sasl.mechanism %q invalid", sa.Mechanism)
		}
	}
	return nil
}
