package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SnifferConfig holds the capture-source settings for nids-sniffer.
type SnifferConfig struct {
	Interface   string `yaml:"interface"`
	PcapFile    string `yaml:"pcap_file"` // offline replay instead of live capture
	BPFFilter   string `yaml:"bpf_filter"`
	SnapshotLen int32  `yaml:"snapshot_len"`
	Promiscuous bool   `yaml:"promiscuous"`
}

// ModelConfig points at the trained classifier artifact.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// EmitterConfig controls batching of enriched records.
type EmitterConfig struct {
	BatchSize      int    `yaml:"batch_size"`
	FlushInterval  string `yaml:"flush_interval"`
	DeliverTimeout string `yaml:"deliver_timeout"`
}

// HTTPSinkConfig configures the HTTP ingest sink.
type HTTPSinkConfig struct {
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

// NATSConfig configures the NATS transport, shared by publisher and subscriber.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// ClickHouseConfig configures the ClickHouse archive sink.
type ClickHouseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// SinkConfig selects and configures the downstream sink for flushed batches.
type SinkConfig struct {
	Type       string           `yaml:"type"` // "http", "nats" or "clickhouse"
	HTTP       HTTPSinkConfig   `yaml:"http"`
	NATS       NATSConfig       `yaml:"nats"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse"`
}

// StoreConfig bounds the ingestion store.
type StoreConfig struct {
	MaxRecent int `yaml:"max_recent"`
	MaxAlerts int `yaml:"max_alerts"` // 0 = unbounded
}

// APIConfig holds the reporting server settings.
type APIConfig struct {
	ListenAddr string     `yaml:"listen_addr"`
	NATSIngest bool       `yaml:"nats_ingest"` // also consume batches from NATS
	NATS       NATSConfig `yaml:"nats"`
}

// SMTPConfig holds the email notifier settings. Empty host disables it.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Sensitivity float64       `yaml:"sensitivity"`
	Sniffer     SnifferConfig `yaml:"sniffer"`
	Model       ModelConfig   `yaml:"model"`
	Emitter     EmitterConfig `yaml:"emitter"`
	Sink        SinkConfig    `yaml:"sink"`
	Store       StoreConfig   `yaml:"store"`
	API         APIConfig     `yaml:"api"`
	SMTP        SMTPConfig    `yaml:"smtp"`
}

// LoadConfig reads the configuration from a YAML file and returns a Config
// struct with defaults applied.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config YAML: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sensitivity == 0 {
		c.Sensitivity = 0.5
	}
	if c.Sniffer.SnapshotLen == 0 {
		c.Sniffer.SnapshotLen = 1600
	}
	if c.Emitter.BatchSize == 0 {
		c.Emitter.BatchSize = 10
	}
	if c.Emitter.FlushInterval == "" {
		c.Emitter.FlushInterval = "1s"
	}
	if c.Emitter.DeliverTimeout == "" {
		c.Emitter.DeliverTimeout = "1s"
	}
	if c.Sink.Type == "" {
		c.Sink.Type = "http"
	}
	if c.Sink.HTTP.Timeout == "" {
		c.Sink.HTTP.Timeout = "1s"
	}
	if c.Store.MaxRecent == 0 {
		c.Store.MaxRecent = 50
	}
	if c.API.ListenAddr == "" {
		c.API.ListenAddr = ":5000"
	}
}
