package kafka

import (
	"testing"

	sarama "github.com/Shopify/sarama"
	"github.com/Shopify/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/flowtop/transport"
)

func TestConfig(t *testing.T) {
	cfg, err := Config(transport.KafkaOptions{Compression: "Snappy", MaxMessageBytes: 2048})
	require.NoError(t, err)
	assert.Equal(t, sarama.CompressionSnappy, cfg.Producer.Compression)
	assert.Equal(t, 2048, cfg.Producer.MaxMessageBytes)
	assert.True(t, cfg.Producer.Return.Successes)

	_, err = Config(transport.KafkaOptions{Compression: "brotli"})
	assert.Error(t, err)

	_, err = Config(transport.KafkaOptions{Version: "not-a-version"})
	assert.Error(t, err)

	_, err = Config(transport.KafkaOptions{SASL: "kerberos"})
	assert.Error(t, err)

	t.Setenv("KAFKA_SASL_USER", "")
	t.Setenv("KAFKA_SASL_PASS", "")
	_, err = Config(transport.KafkaOptions{SASL: "plain"})
	assert.Error(t, err)

	t.Setenv("KAFKA_SASL_USER", "flowtop")
	cfg, err = Config(transport.KafkaOptions{SASL: "plain"})
	require.NoError(t, err)
	assert.True(t, cfg.Net.SASL.Enable)
}

func TestKafkaDriver(t *testing.T) {
	var producer *mocks.SyncProducer
	newProducer = func(addrs []string, config *sarama.Config) (sarama.SyncProducer, error) {
		assert.Equal(t, []string{"127.0.0.1:9092", "127.0.0.2:9092"}, addrs)
		producer = mocks.NewSyncProducer(t, config)
		producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
			assert.Equal(t, "payload", string(val))
			return nil
		})
		return producer, nil
	}
	t.Cleanup(func() { newProducer = sarama.NewSyncProducer })

	tr, err := transport.FindTransport("kafka", transport.Options{
		Kafka: transport.KafkaOptions{Brokers: "127.0.0.1:9092,127.0.0.2:9092", Topic: "flowtop"},
	})
	require.NoError(t, err)

	require.NoError(t, tr.Send([]byte("/data"), nil))
	require.NoError(t, tr.Send([]byte("/data"), []byte("payload")))
	require.NoError(t, tr.Close())
}

func TestKafkaDriverMissingTopic(t *testing.T) {
	_, err := New(transport.KafkaOptions{Brokers: "127.0.0.1:9092"})
	assert.Error(t, err)
}
