package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	assert.Error(t, err)
}

func TestNewProducer_AppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithDelivery(1, "zstd", 5),
		WithBatching(10, 0, 50*time.Millisecond),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	assert.Equal(t, kafka.RequireOne, p.writer.RequiredAcks)
	assert.Equal(t, 5, p.writer.MaxAttempts)
	assert.Equal(t, 10, p.writer.BatchSize)
	assert.Equal(t, int64(1048576), p.writer.BatchBytes)
	assert.Equal(t, 50*time.Millisecond, p.writer.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]string{"asset": "XBT"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"asset":"XBT"}`, string(b))

	b, err = encodeValue("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))
}
