package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"

	sarama "github.com/Shopify/sarama"

	"github.com/netsampler/flowtop/transport"
)

// KafkaDriver produces every formatted result as one message keyed by its root.
type KafkaDriver struct {
	topic    string
	producer sarama.SyncProducer
}

type KafkaSASLAlgorithm string

const (
	KAFKA_SASL_NONE  KafkaSASLAlgorithm = "none"
	KAFKA_SASL_PLAIN KafkaSASLAlgorithm = "plain"
)

var (
	compressionCodecs = map[string]sarama.CompressionCodec{
		strings.ToLower(sarama.CompressionNone.String()):   sarama.CompressionNone,
		strings.ToLower(sarama.CompressionGZIP.String()):   sarama.CompressionGZIP,
		strings.ToLower(sarama.CompressionSnappy.String()): sarama.CompressionSnappy,
		strings.ToLower(sarama.CompressionLZ4.String()):    sarama.CompressionLZ4,
		strings.ToLower(sarama.CompressionZSTD.String()):   sarama.CompressionZSTD,
	}

	newProducer = sarama.NewSyncProducer
)

// Config builds the producer configuration from options.
func Config(opts transport.KafkaOptions) (*sarama.Config, error) {
	version := opts.Version
	if version == "" {
		version = "2.8.0"
	}
	kafkaConfigVersion, err := sarama.ParseKafkaVersion(version)
	if err != nil {
		return nil, err
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Version = kafkaConfigVersion
	kafkaConfig.Producer.Return.Successes = true
	kafkaConfig.Producer.Return.Errors = true
	kafkaConfig.Producer.RequiredAcks = sarama.WaitForAll
	kafkaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	if opts.MaxMessageBytes > 0 {
		kafkaConfig.Producer.MaxMessageBytes = opts.MaxMessageBytes
	}

	if opts.Compression != "" {
		cc, ok := compressionCodecs[strings.ToLower(opts.Compression)]
		if !ok {
			return nil, errors.New("compression codec does not exist")
		}
		kafkaConfig.Producer.Compression = cc
	}

	if opts.TLS {
		rootCAs, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("error initializing TLS: %w", err)
		}
		kafkaConfig.Net.TLS.Enable = true
		kafkaConfig.Net.TLS.Config = &tls.Config{RootCAs: rootCAs}
	}

	switch KafkaSASLAlgorithm(strings.ToLower(opts.SASL)) {
	case "", KAFKA_SASL_NONE:
	case KAFKA_SASL_PLAIN:
		kafkaConfig.Net.SASL.Enable = true
		kafkaConfig.Net.SASL.User = os.Getenv("KAFKA_SASL_USER")
		kafkaConfig.Net.SASL.Password = os.Getenv("KAFKA_SASL_PASS")
		if kafkaConfig.Net.SASL.User == "" && kafkaConfig.Net.SASL.Password == "" {
			return nil, errors.New("Kafka SASL config from environment was unsuccessful. KAFKA_SASL_USER and KAFKA_SASL_PASS need to be set.")
		}
	default:
		return nil, errors.New("SASL algorithm does not exist")
	}

	return kafkaConfig, nil
}

func New(opts transport.KafkaOptions) (*KafkaDriver, error) {
	if opts.Topic == "" {
		return nil, errors.New("missing topic")
	}
	kafkaConfig, err := Config(opts)
	if err != nil {
		return nil, err
	}

	addrs := strings.Split(opts.Brokers, ",")
	producer, err := newProducer(addrs, kafkaConfig)
	if err != nil {
		return nil, err
	}
	return &KafkaDriver{topic: opts.Topic, producer: producer}, nil
}

func (d *KafkaDriver) Send(key, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	_, _, err := d.producer.SendMessage(&sarama.ProducerMessage{
		Topic: d.topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(data),
	})
	return err
}

func (d *KafkaDriver) Close() error {
	return d.producer.Close()
}

func init() {
	transport.RegisterTransportDriver("kafka", func(opts transport.Options) (transport.TransportDriver, error) {
		return New(opts.Kafka)
	})
}
