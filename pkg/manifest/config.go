// pkg/manifest/config.go
package manifest

// Config is the top-level service manifest.
type Config struct {
	Service Service `toml:"service" yaml:"service"`
	Kafka   Kafka   `toml:"kafka" yaml:"kafka"`
	Topics  Topics  `toml:"topics" yaml:"topics"`
	RPC     RPC     `toml:"rpc" yaml:"rpc"`
	Gateway Gateway `toml:"gateway" yaml:"gateway"`
}

type Service struct {
	Name string `toml:"name" yaml:"name"`
}

const (
	TransportKafka  = "kafka"
	TransportMemory = "memory"
)

type Kafka struct {
	Transport        string         `toml:"transport" yaml:"transport"` // "kafka" (default) | "memory"
	Brokers          []string       `toml:"brokers" yaml:"brokers"`     // e.g., ["127.0.0.1:19092"]
	ClientID         string         `toml:"client_id" yaml:"client_id"`
	ReplyStartOffset string         `toml:"reply_start_offset" yaml:"reply_start_offset"` // "earliest" (default) | "latest"
	DialTimeoutMS    int            `toml:"dial_timeout_ms" yaml:"dial_timeout_ms"`
	Reader           *KafkaReader   `toml:"reader" yaml:"reader"`
	Writer           *KafkaWriter   `toml:"writer" yaml:"writer"`
	Security         *KafkaSecurity `toml:"security" yaml:"security"`
}

type KafkaReader struct {
	MinBytes         int `toml:"min_bytes" yaml:"min_bytes"`
	MaxBytes         int `toml:"max_bytes" yaml:"max_bytes"`
	MaxWaitMS        int `toml:"max_wait_ms" yaml:"max_wait_ms"`
	SessionTimeoutMS int `toml:"session_timeout_ms" yaml:"session_timeout_ms"`
	CommitIntervalMS int `toml:"commit_interval_ms" yaml:"commit_interval_ms"` // 0 = commit on every read
}

type KafkaWriter struct {
	BatchTimeoutMS int    `toml:"batch_timeout_ms" yaml:"batch_timeout_ms"` // default: 10
	WriteTimeoutMS int    `toml:"write_timeout_ms" yaml:"write_timeout_ms"`
	Balancer       string `toml:"balancer" yaml:"balancer"` // "least_bytes"(def) | "round_robin" | "hash"
}

type KafkaSecurity struct {
	TLS  *KafkaTLS  `toml:"tls" yaml:"tls"`
	SASL *KafkaSASL `toml:"sasl" yaml:"sasl"`
}

type KafkaTLS struct {
	Enable             bool     `toml:"enable" yaml:"enable"`
	CAFiles            []string `toml:"ca_files" yaml:"ca_files"`
	ServerName         string   `toml:"server_name" yaml:"server_name"`
	InsecureSkipVerify bool     `toml:"insecure_skip_tls_verify" yaml:"insecure_skip_tls_verify"`
	ClientCert         string   `toml:"client_cert" yaml:"client_cert"`
	ClientKey          string   `toml:"client_key" yaml:"client_key"`
}

type KafkaSASL struct {
	Mechanism string `toml:"mechanism" yaml:"mechanism"` // "SCRAM-SHA-256" | "SCRAM-SHA-512" | "PLAIN"
	Username  string `toml:"username" yaml:"username"`
	Password  string `toml:"password" yaml:"password"`
}

// Topics controls provisioning. Extra names are created alongside the
// service's own topics.
type Topics struct {
	Partitions        int      `toml:"partitions" yaml:"partitions"`
	ReplicationFactor int      `toml:"replication_factor" yaml:"replication_factor"`
	Extra             []string `toml:"extra" yaml:"extra"`
}

type RPC struct {
	TimeoutMS            int    `toml:"timeout_ms" yaml:"timeout_ms"`
	ShutdownTimeoutMS    int    `toml:"shutdown_timeout_ms" yaml:"shutdown_timeout_ms"`
	ErrorReplies         bool   `toml:"error_replies" yaml:"error_replies"`
	RequestorGroupPrefix string `toml:"requestor_group_prefix" yaml:"requestor_group_prefix"`
}

type Gateway struct {
	Listen      string `toml:"listen" yaml:"listen"`
	RequireAuth bool   `toml:"require_auth" yaml:"require_auth"`
	TLSCert     string `toml:"tls_cert" yaml:"tls_cert"`
	TLSKey      string `toml:"tls_key" yaml:"tls_key"`
	JWT         JWT    `toml:"jwt" yaml:"jwt"`
}

type JWT struct {
	Secret        string `toml:"secret" yaml:"secret"`
	Issuer        string `toml:"issuer" yaml:"issuer"`
	Audience      string `toml:"audience" yaml:"audience"`
	LeewaySeconds int    `toml:"leeway_seconds" yaml:"leeway_seconds"`
}
