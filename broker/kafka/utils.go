package kafka

import (
	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/go-gotop/feedkit/broker"
)

func mapToKafkaHeader(m broker.Headers) []kafkaGo.Header {
	headers := make([]kafkaGo.Header, 0, len(m))
	for k, v := range m {
		headers = append(headers, kafkaGo.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
