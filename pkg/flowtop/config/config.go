package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netsampler/flowtop/transport"
)

// Config holds configuration for the flowtop application.
type Config struct {
	Roots []string `yaml:"roots"`
	TopN  int      `yaml:"top_n"`

	LogLevel string `yaml:"log_level"`
	LogFmt   string `yaml:"log_format"`

	Parallel int  `yaml:"parallel"`
	Print    bool `yaml:"print"`

	Format           string            `yaml:"format"`
	Transport        string            `yaml:"transport"`
	TransportOptions transport.Options `yaml:"transport_options"`

	MetricsPush     string `yaml:"metrics_push"`
	MetricsJob      string `yaml:"metrics_job"`
	MetricsTextfile string `yaml:"metrics_textfile"`

	ConfigFile string `yaml:"-"`
	Version    bool   `yaml:"-"`
}

// BindFlags registers configuration flags and returns a Config.
func BindFlags(fs *flag.FlagSet) *Config {
	cfg := &Config{}

	fs.IntVar(&cfg.TopN, "top", 10, "Maximum number of ranked flows written per root")
	fs.StringVar(&cfg.LogLevel, "loglevel", "info", "Log level")
	fs.StringVar(&cfg.LogFmt, "logfmt", "normal", "Log formatter (normal or json)")
	fs.IntVar(&cfg.Parallel, "parallel", 1, "Number of roots analyzed concurrently")
	fs.BoolVar(&cfg.Print, "print", false, "Emit the ranked flows of every root through the transport")
	fs.StringVar(&cfg.Format, "format", "text", "Choose the format (available: text, json, csv)")
	fs.StringVar(&cfg.Transport, "transport", "file", "Choose the transport (available: file, http, kafka, nats)")

	opts := &cfg.TransportOptions
	fs.StringVar(&opts.File.Path, "transport.file", "", "File/console output (empty for stdout)")
	fs.StringVar(&opts.File.Separator, "transport.file.sep", "\n", "Line separator")
	fs.StringVar(&opts.HTTP.Destination, "transport.http.destination", "", "HTTP endpoint for output")
	fs.StringVar(&opts.HTTP.AuthHeader, "transport.http.auth.header", "", "HTTP header to set for credentials")
	fs.StringVar(&opts.HTTP.AuthCredentials, "transport.http.auth.credentials", "", "Credentials for the header")
	fs.StringVar(&opts.HTTP.ContentType, "transport.http.contenttype", "application/json", "Content-Type of posted results")
	fs.DurationVar(&opts.HTTP.Timeout, "transport.http.timeout", time.Second*10, "HTTP request timeout")
	fs.StringVar(&opts.Kafka.Brokers, "transport.kafka.brokers", "127.0.0.1:9092,[::1]:9092", "Kafka brokers list separated by commas")
	fs.StringVar(&opts.Kafka.Topic, "transport.kafka.topic", "flowtop-results", "Kafka topic to produce to")
	fs.StringVar(&opts.Kafka.Version, "transport.kafka.version", "2.8.0", "Kafka version")
	fs.BoolVar(&opts.Kafka.TLS, "transport.kafka.tls", false, "Use TLS to connect to Kafka")
	fs.StringVar(&opts.Kafka.SASL, "transport.kafka.sasl", "none", "Use SASL to connect to Kafka (none or plain, KAFKA_SASL_USER and KAFKA_SASL_PASS need to be set)")
	fs.StringVar(&opts.Kafka.Compression, "transport.kafka.compression", "", "Kafka default compression")
	fs.IntVar(&opts.Kafka.MaxMessageBytes, "transport.kafka.maxmsgbytes", 1000000, "Kafka max message bytes")
	fs.StringVar(&opts.NATS.URL, "transport.nats.url", "nats://localhost:4222", "NATS server URL")
	fs.StringVar(&opts.NATS.Subject, "transport.nats.subject", "flowtop.results", "NATS subject for publishing results")
	fs.StringVar(&opts.NATS.TLSCertFile, "transport.nats.tls.cert", "", "NATS client certificate file")
	fs.StringVar(&opts.NATS.TLSKeyFile, "transport.nats.tls.key", "", "NATS client key file")
	fs.StringVar(&opts.NATS.TLSCAFile, "transport.nats.tls.ca", "", "NATS CA certificate file")
	fs.BoolVar(&opts.NATS.TLSInsecure, "transport.nats.tls.insecure", false, "Skip TLS verification for NATS")
	fs.StringVar(&cfg.MetricsPush, "metrics.push", "", "Pushgateway URL receiving metrics after the run")
	fs.StringVar(&cfg.MetricsJob, "metrics.job", "flowtop", "Pushgateway job name")
	fs.StringVar(&cfg.MetricsTextfile, "metrics.textfile", "", "Write metrics to this file in textfile collector format")
	fs.StringVar(&cfg.ConfigFile, "config", "", "YAML configuration file, explicit flags take precedence")
	fs.BoolVar(&cfg.Version, "v", false, "Print version")

	return cfg
}

// LoadFile decodes a YAML configuration over cfg. Keys absent from the file keep their value.
func LoadFile(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// Parse binds and parses flags, then applies the configuration file if one is given.
// Positional arguments are the roots to analyze; they replace roots from the file.
func Parse(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		explicit := make(map[string]string)
		fs.Visit(func(f *flag.Flag) {
			explicit[f.Name] = f.Value.String()
		})

		f, err := os.Open(cfg.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("load config %s: open: %w", cfg.ConfigFile, err)
		}
		err = LoadFile(f, cfg)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("load config %s: decode: %w", cfg.ConfigFile, err)
		}

		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return nil, err
			}
		}
	}

	if fs.NArg() > 0 {
		cfg.Roots = fs.Args()
	}
	return cfg, nil
}

// Check validates the configuration.
func (c *Config) Check() error {
	if len(c.Roots) == 0 {
		return fmt.Errorf("no root directory given")
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if c.MetricsPush != "" && c.MetricsJob == "" {
		return fmt.Errorf("metrics.job is required with metrics.push")
	}
	return nil
}
