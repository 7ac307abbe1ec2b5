package producer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"time"

	evt_model "github.com/RoyceAzure/lab/storefront/internal/domain/model/event"
	"github.com/RoyceAzure/lab/storefront/internal/feed"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("producer closed")

const EventTypeHeader = "event_type"

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter 同一張表的訊號使用同一個 partition，保持順序
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		// 設置重試
		MaxAttempts:  3,
		WriteTimeout: 5 * time.Second,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error().Msgf("kafka producer error: "+msg, args...)
		}),
	}
}

// ChangeProducer 將 change signal 轉送到 kafka，讓其他 instance 也能重新讀取
type ChangeProducer struct {
	writer Writer
	closed atomic.Bool
}

var _ feed.Publisher = (*ChangeProducer)(nil)

func NewChangeProducer(writer Writer) *ChangeProducer {
	if writer == nil {
		panic("kafka writer cannot be nil")
	}
	return &ChangeProducer{writer: writer}
}

func (p *ChangeProducer) Publish(ctx context.Context, e *evt_model.ChangeEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}
	msg, err := convertToMessage(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *ChangeProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

func convertToMessage(e *evt_model.ChangeEvent) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.Table),
		Value: value,
		Headers: []kafka.Header{
			{Key: EventTypeHeader, Value: []byte(e.Type())},
		},
	}, nil
}
