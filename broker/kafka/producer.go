package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/go-gotop/feedkit/broker"
	"github.com/go-kratos/kratos/v2/log"
)

var _ broker.Publisher = (*Producer)(nil)

var ErrProducerClosed = errors.New("kafka producer closed")

// Producer 每个 topic 一个 writer，首次发布时创建
type Producer struct {
	opts    *options
	mux     sync.Mutex
	writers map[string]*kafkaGo.Writer
	closed  bool
}

func NewProducer(opts ...Option) *Producer {
	o := &options{
		addrs:        []string{defaultAddr},
		logger:       log.NewHelper(log.DefaultLogger),
		async:        true,
		batchTimeout: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Producer{
		opts:    o,
		writers: make(map[string]*kafkaGo.Writer),
	}
}

func (p *Producer) writer(topic string) (*kafkaGo.Writer, error) {
	p.mux.Lock()
	defer p.mux.Unlock()

	if p.closed {
		return nil, ErrProducerClosed
	}
	if w, ok := p.writers[topic]; ok {
		return w, nil
	}
	w := &kafkaGo.Writer{
		Addr:         kafkaGo.TCP(p.opts.addrs...),
		Topic:        p.opts.topicPrefix + topic,
		Balancer:     &kafkaGo.Hash{},
		BatchTimeout: p.opts.batchTimeout,
		Async:        p.opts.async,
		Logger:       &Logger{logger: p.opts.logger},
		ErrorLogger:  &ErrorLogger{logger: p.opts.logger},
	}
	p.writers[topic] = w
	return w, nil
}

func (p *Producer) Publish(ctx context.Context, topic string, msg *broker.Message) error {
	w, err := p.writer(topic)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafkaGo.Message{
		Key:     msg.Key,
		Value:   msg.Body,
		Headers: mapToKafkaHeader(msg.Headers),
	})
}

// Close 刷新并关闭全部 writer
func (p *Producer) Close() error {
	p.mux.Lock()
	writers := p.writers
	p.writers = make(map[string]*kafkaGo.Writer)
	p.closed = true
	p.mux.Unlock()

	var errs []error
	for topic, w := range writers {
		if err := w.Close(); err != nil {
			p.opts.logger.Errorf("close kafka writer %s error: %v", topic, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
