package kafka

import (
	"context"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-gotop/feedkit/broker"
)

func TestHeaderConversion(t *testing.T) {
	headers := broker.Headers{broker.HeaderExchange: "GEMINI", broker.HeaderMarket: "btcusd"}
	kh := mapToKafkaHeader(headers)
	assert.Len(t, kh, 2)
	assert.Contains(t, kh, kafkaGo.Header{Key: broker.HeaderMarket, Value: []byte("btcusd")})
	assert.Contains(t, kh, kafkaGo.Header{Key: broker.HeaderExchange, Value: []byte("GEMINI")})
}

func TestWriterPerTopic(t *testing.T) {
	p := NewProducer(WithAddress("10.0.0.1:9092", "10.0.0.2:9092"), WithTopicPrefix("dev."))

	w1, err := p.writer(broker.TradeTopicType)
	require.NoError(t, err)
	w2, err := p.writer(broker.TradeTopicType)
	require.NoError(t, err)
	w3, err := p.writer(broker.TickerTopicType)
	require.NoError(t, err)

	assert.Same(t, w1, w2)
	assert.NotSame(t, w1, w3)
	assert.Equal(t, "dev."+broker.TradeTopicType, w1.Topic)
	assert.True(t, w1.Async)

	require.NoError(t, p.Close())
	err = p.Publish(context.Background(), broker.TradeTopicType, &broker.Message{})
	assert.ErrorIs(t, err, ErrProducerClosed)
}
